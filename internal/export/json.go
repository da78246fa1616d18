package export

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/iksnae/armory-history/internal"
)

// JSONExporter exports timelines in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a timeline to JSON format
func (e *JSONExporter) Export(timeline *internal.Timeline, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(timeline)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
