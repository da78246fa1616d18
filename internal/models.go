package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Snapshot is a JSON document returned by the profile service. The schema is
// owned by the service, so the payload is kept as a generic decoded value
// (object, array or scalar). Numbers are kept as json.Number so they
// round-trip without loss.
type Snapshot struct {
	data interface{}
}

// CharacterRef identifies a character listed in an account summary
type CharacterRef struct {
	ID   string
	Name string
}

// NewSnapshot wraps an already decoded JSON value
func NewSnapshot(data interface{}) *Snapshot {
	return &Snapshot{data: data}
}

// DecodeSnapshot parses raw JSON into a Snapshot. Trailing data after the
// first value is rejected.
func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	var extra interface{}
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode snapshot: unexpected data after JSON value")
	}

	return &Snapshot{data: data}, nil
}

// Data returns the decoded payload
func (s *Snapshot) Data() interface{} {
	if s == nil {
		return nil
	}
	return s.data
}

// Object returns the payload as a JSON object, if it is one
func (s *Snapshot) Object() (map[string]interface{}, bool) {
	if s == nil {
		return nil, false
	}
	obj, ok := s.data.(map[string]interface{})
	return obj, ok
}

// Array returns the payload as a JSON array, if it is one
func (s *Snapshot) Array() ([]interface{}, bool) {
	if s == nil {
		return nil, false
	}
	arr, ok := s.data.([]interface{})
	return arr, ok
}

// Get returns a top-level field of an object payload
func (s *Snapshot) Get(key string) (interface{}, bool) {
	obj, ok := s.Object()
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

// Equal reports whether two snapshots hold structurally equal payloads
func (s *Snapshot) Equal(other *Snapshot) bool {
	return reflect.DeepEqual(s.Data(), other.Data())
}

// MarshalJSON encodes the payload
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return EncodeCompact(s.Data())
}

// UnmarshalJSON decodes a payload, keeping numbers exact
func (s *Snapshot) UnmarshalJSON(raw []byte) error {
	decoded, err := DecodeSnapshot(raw)
	if err != nil {
		return err
	}
	s.data = decoded.data
	return nil
}

// EncodeCompact encodes v as a single line of JSON with non-ASCII characters
// left as UTF-8 and HTML characters unescaped.
func EncodeCompact(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeASCII encodes v as a single line of JSON containing only ASCII;
// every non-ASCII rune is written as a \u escape (surrogate pairs above the
// BMP).
func EncodeASCII(v interface{}) ([]byte, error) {
	raw, err := EncodeCompact(v)
	if err != nil {
		return nil, err
	}
	return escapeNonASCII(raw), nil
}

// escapeNonASCII relies on valid JSON only carrying non-ASCII bytes inside
// string literals.
func escapeNonASCII(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for len(raw) > 0 {
		if raw[0] < utf8.RuneSelf {
			out = append(out, raw[0])
			raw = raw[1:]
			continue
		}

		r, size := utf8.DecodeRune(raw)
		raw = raw[size:]
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			out = appendUnicodeEscape(out, hi)
			out = appendUnicodeEscape(out, lo)
			continue
		}
		out = appendUnicodeEscape(out, r)
	}
	return out
}

func appendUnicodeEscape(out []byte, r rune) []byte {
	hex := strconv.FormatInt(int64(r), 16)
	out = append(out, '\\', 'u')
	for i := len(hex); i < 4; i++ {
		out = append(out, '0')
	}
	return append(out, hex...)
}

// stringValue renders an identifier-like JSON value as a string
func stringValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

// intValue reads a JSON number as an int64
func intValue(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, true
		}
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(val), true
	case int:
		return int64(val), true
	case int64:
		return val, true
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func floatValue(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}
