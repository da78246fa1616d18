package export

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/iksnae/armory-history/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports timelines in YAML format
type YAMLExporter struct{}

// Export exports a timeline to YAML format
func (e *YAMLExporter) Export(timeline *internal.Timeline, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	out := *timeline
	out.Events = make([]internal.ChangeEvent, len(timeline.Events))
	for i, event := range timeline.Events {
		event.Data = plainNumbers(event.Data)
		out.Events[i] = event
	}
	return enc.Encode(&out)
}

// plainNumbers replaces decoded json.Number values with int64 or float64 so
// they are emitted as YAML numbers rather than strings
func plainNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = plainNumbers(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = plainNumbers(item)
		}
		return out
	default:
		return v
	}
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
