package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/armory-history/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := &MarkdownExporter{}

	if err := exporter.Export(sampleTimeline(t), &buf); err != nil {
		t.Fatalf("MarkdownExporter.Export() error = %v", err)
	}
	output := buf.String()

	wants := []string{
		"# Hero\n",
		"**Account:** A1",
		"**Source:** git",
		"**Revisions:** 2",
		"### 2023-11-14 22:13:20 UTC",
		"Revision `0123456789ab`",
		"First recorded snapshot.",
		"- `level`\n- `power`\n",
	}
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("Output should contain %q, got:\n%s", want, output)
		}
	}
}

func TestMarkdownExporter_NoTrackedChanges(t *testing.T) {
	timeline := sampleTimeline(t)
	timeline.Events[1].Changed = nil

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(timeline, &buf); err != nil {
		t.Fatalf("MarkdownExporter.Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No tracked fields changed.") {
		t.Errorf("Expected no-change note, got:\n%s", buf.String())
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Hero", want: "Hero"},
		{input: "**bold**", want: "\\*\\*bold\\*\\*"},
		{input: "__under__", want: "\\_\\_under\\_\\_"},
	}

	for _, tt := range tests {
		if got := escapeMarkdown(tt.input); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMarkdownExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(&internal.Timeline{AccountID: "A1", Entity: "Hero"}, &buf); err != nil {
		t.Fatalf("MarkdownExporter.Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), "**Revisions:** 0") {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}
