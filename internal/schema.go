package internal

import (
	"fmt"
	"net/url"
	"strings"
)

// Schema names accepted by ParseSchema
const (
	SchemaFull    = "full"
	SchemaCompact = "compact"
)

// Schema adapts one generation of the profile service API: how URLs are
// built, how character stubs and login markers are named, and where
// character snapshots are stored.
type Schema interface {
	Name() string
	AccountURL(baseURL, accountID string) string
	CharacterURL(baseURL, accountID, characterID string) string
	// Characters lists the character stubs carried by an account summary
	Characters(summary *Snapshot) []interface{}
	// CharacterRef extracts id and name from a stub; ok is false when
	// either is missing.
	CharacterRef(stub interface{}) (ref CharacterRef, ok bool)
	LoginMarker(snap *Snapshot) (interface{}, bool)
	QueuePosition(snap *Snapshot) int64
	CharacterFile(ref CharacterRef) string
	// VolatileKeys are ignored when comparing snapshots field by field
	VolatileKeys() []string
}

// ParseSchema returns the adapter registered under name
func ParseSchema(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemaFull, "v1":
		return FullSchema{}, nil
	case SchemaCompact, "v2":
		return CompactSchema{}, nil
	default:
		return nil, fmt.Errorf("unsupported schema: %s (supported: %s, %s)", name, SchemaFull, SchemaCompact)
	}
}

// FullSchema is the first-generation API: unsuffixed paths, id/name stubs under
// "characters" and a lastLogin marker. Character files are named after the
// character.
type FullSchema struct{}

func (FullSchema) Name() string { return SchemaFull }

func (FullSchema) AccountURL(baseURL, accountID string) string {
	return joinURL(baseURL, accountID)
}

func (FullSchema) CharacterURL(baseURL, accountID, characterID string) string {
	return joinURL(baseURL, accountID, characterID)
}

func (FullSchema) Characters(summary *Snapshot) []interface{} {
	return charactersOf(summary)
}

func (FullSchema) CharacterRef(stub interface{}) (CharacterRef, bool) {
	return refFromStub(stub, "id", "name")
}

func (FullSchema) LoginMarker(snap *Snapshot) (interface{}, bool) {
	return markerOf(snap, "lastLogin")
}

func (FullSchema) QueuePosition(snap *Snapshot) int64 {
	return queueOf(snap)
}

func (FullSchema) CharacterFile(ref CharacterRef) string {
	return sanitizeFileName(ref.Name) + ".json"
}

func (FullSchema) VolatileKeys() []string {
	return []string{"lastLogin", "queue"}
}

// CompactSchema is the later API: ".json" suffixed paths, abbreviated i/n
// stubs and a "u" login marker. Character files carry the id so renamed
// characters keep a distinct history.
type CompactSchema struct{}

func (CompactSchema) Name() string { return SchemaCompact }

func (CompactSchema) AccountURL(baseURL, accountID string) string {
	return joinURL(baseURL, accountID) + ".json"
}

func (CompactSchema) CharacterURL(baseURL, accountID, characterID string) string {
	return joinURL(baseURL, accountID, characterID) + ".json"
}

func (CompactSchema) Characters(summary *Snapshot) []interface{} {
	return charactersOf(summary)
}

func (CompactSchema) CharacterRef(stub interface{}) (CharacterRef, bool) {
	return refFromStub(stub, "i", "n")
}

func (CompactSchema) LoginMarker(snap *Snapshot) (interface{}, bool) {
	return markerOf(snap, "u")
}

func (CompactSchema) QueuePosition(snap *Snapshot) int64 {
	return queueOf(snap)
}

func (CompactSchema) CharacterFile(ref CharacterRef) string {
	return sanitizeFileName(ref.Name) + "_" + sanitizeFileName(ref.ID) + ".json"
}

func (CompactSchema) VolatileKeys() []string {
	return []string{"u", "queue"}
}

// charactersOf accepts either {"characters": [...]} or a bare array
func charactersOf(summary *Snapshot) []interface{} {
	if arr, ok := summary.Array(); ok {
		return arr
	}
	v, ok := summary.Get("characters")
	if !ok {
		return nil
	}
	arr, _ := v.([]interface{})
	return arr
}

func refFromStub(stub interface{}, idKey, nameKey string) (CharacterRef, bool) {
	obj, ok := stub.(map[string]interface{})
	if !ok {
		return CharacterRef{}, false
	}
	id, idOK := stringValue(obj[idKey])
	name, nameOK := stringValue(obj[nameKey])
	if !idOK || !nameOK {
		return CharacterRef{}, false
	}
	return CharacterRef{ID: id, Name: name}, true
}

// markerOf treats JSON falsy values (null, "", 0, false, empty containers)
// as an absent marker
func markerOf(snap *Snapshot, key string) (interface{}, bool) {
	v, ok := snap.Get(key)
	if !ok || !truthy(v) {
		return nil, false
	}
	return v, true
}

func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	}
	if f, ok := floatValue(v); ok {
		return f != 0
	}
	return true
}

func queueOf(snap *Snapshot) int64 {
	v, ok := snap.Get("queue")
	if !ok {
		return 0
	}
	n, _ := intValue(v)
	return n
}

func joinURL(baseURL string, segments ...string) string {
	out := strings.TrimRight(baseURL, "/")
	for _, s := range segments {
		out += "/" + url.PathEscape(s)
	}
	return out
}

// sanitizeFileName keeps names usable as a single path element
func sanitizeFileName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")
	name = r.Replace(name)
	if name == "." || name == ".." || name == "_" {
		return "_" + name
	}
	return name
}
