package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/iksnae/armory-history/internal"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format   string
		wantType string
		wantExt  string
		// substrings the sample timeline must produce
		wantOut []string
	}{
		{format: "", wantType: "*export.JSONLExporter", wantExt: "jsonl",
			wantOut: []string{`"_timestamp":1700003600,"_hexsha":"fedcba9876543210"`}},
		{format: "jsonl", wantType: "*export.JSONLExporter", wantExt: "jsonl",
			wantOut: []string{`"_hexsha":"0123456789abcdef"`, `"name":"Héro"`}},
		{format: "JSON", wantType: "*export.JSONExporter", wantExt: "json",
			wantOut: []string{`"account": "A1"`, `"_hexsha": "fedcba9876543210"`}},
		{format: "yaml", wantType: "*export.YAMLExporter", wantExt: "yaml",
			wantOut: []string{"entity: Hero", "revision: fedcba9876543210", "power: 925.5"}},
		{format: "yml", wantType: "*export.YAMLExporter", wantExt: "yaml",
			wantOut: []string{"source: git"}},
		{format: "md", wantType: "*export.MarkdownExporter", wantExt: "md",
			wantOut: []string{"# Hero", "Revision `fedcba987654`", "- `power`"}},
		{format: "markdown", wantType: "*export.MarkdownExporter", wantExt: "md",
			wantOut: []string{"**Revisions:** 2"}},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if err != nil {
				t.Fatalf("NewExporter(%q) error = %v", tt.format, err)
			}
			if got := fmt.Sprintf("%T", exporter); got != tt.wantType {
				t.Errorf("NewExporter(%q) = %s, want %s", tt.format, got, tt.wantType)
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got, tt.wantExt)
			}

			var buf bytes.Buffer
			if err := exporter.Export(sampleTimeline(t), &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Export() output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestNewExporter_Unsupported(t *testing.T) {
	exporter, err := NewExporter("xml")
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}
	if exporter != nil {
		t.Errorf("NewExporter() returned %T, want nil", exporter)
	}
	if !strings.Contains(err.Error(), "jsonl, md, yaml, json") {
		t.Errorf("Error should list supported formats, got %v", err)
	}
}

func TestExporters_EmptyTimeline(t *testing.T) {
	empty := &internal.Timeline{AccountID: "A1", Entity: "Ghost"}
	for _, format := range []string{"jsonl", "json", "yaml", "md"} {
		exporter, err := NewExporter(format)
		if err != nil {
			t.Fatalf("NewExporter(%q) error = %v", format, err)
		}
		var buf bytes.Buffer
		if err := exporter.Export(empty, &buf); err != nil {
			t.Errorf("%s: Export() error = %v", format, err)
		}
		if format == "jsonl" && buf.Len() != 0 {
			t.Errorf("jsonl: empty timeline should produce no lines, got %q", buf.String())
		}
	}
}
