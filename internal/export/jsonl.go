package export

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/iksnae/armory-history/internal"
)

// JSONLExporter writes one compact line per revision:
// {"_timestamp":...,"_hexsha":...,"data":...}. Non-ASCII text is written as
// UTF-8, not escaped.
type JSONLExporter struct{}

// Export exports a timeline to JSONL format
func (e *JSONLExporter) Export(timeline *internal.Timeline, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, event := range timeline.Events {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode revision %s: %w", event.RevisionID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
