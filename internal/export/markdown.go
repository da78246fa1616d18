package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/armory-history/internal"
)

// MarkdownExporter exports timelines as a Markdown changelog
type MarkdownExporter struct{}

// Export exports a timeline to Markdown format
func (e *MarkdownExporter) Export(timeline *internal.Timeline, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(timeline.Entity))

	_, _ = fmt.Fprintf(w, "**Account:** %s  \n", escapeMarkdown(timeline.AccountID))
	if timeline.Source != "" {
		_, _ = fmt.Fprintf(w, "**Source:** %s  \n", timeline.Source)
	}
	_, _ = fmt.Fprintf(w, "**Revisions:** %d\n\n", len(timeline.Events))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Changes\n\n")

	for i, event := range timeline.Events {
		when := time.Unix(event.Timestamp, 0).UTC().Format("2006-01-02 15:04:05 MST")
		_, _ = fmt.Fprintf(w, "### %s\n\n", when)
		_, _ = fmt.Fprintf(w, "Revision `%s`\n\n", shortRevision(event.RevisionID))

		switch {
		case i == 0:
			_, _ = fmt.Fprintf(w, "First recorded snapshot.\n\n")
		case len(event.Changed) == 0:
			_, _ = fmt.Fprintf(w, "No tracked fields changed.\n\n")
		default:
			for _, key := range event.Changed {
				_, _ = fmt.Fprintf(w, "- `%s`\n", key)
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
	}

	return nil
}

func shortRevision(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// escapeMarkdown escapes emphasis markers in free text
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	text = strings.ReplaceAll(text, "__", "\\_\\_")
	return text
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
