package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Reconstruction output modes
const (
	ModeConsolidated = "consolidated"
	ModeDiscrete     = "discrete"
)

// DefaultReconstructPattern matches character snapshots one level below the
// data directory
const DefaultReconstructPattern = "*/*.json"

// TimelineEncoder renders a timeline into one consolidated output file
type TimelineEncoder interface {
	Export(timeline *Timeline, w io.Writer) error
	Extension() string
}

// ReconstructOptions selects what to rebuild and where
type ReconstructOptions struct {
	InputDir  string
	OutputDir string
	Mode      string
	// Pattern is a filepath.Match pattern relative to InputDir
	Pattern string
	// Source labels the history backend in exported timelines
	Source string
}

// ReconstructResult summarizes a reconstruction
type ReconstructResult struct {
	Files   int
	Events  int
	Skipped int
	Outputs []string
}

// Reconstructor walks the revision history of snapshot files and rebuilds a
// chronological timeline per file
type Reconstructor struct {
	history  RevisionHistory
	encoder  TimelineEncoder
	detector *ChangeDetector
	logger   *Logger
}

// NewReconstructor creates a Reconstructor. encoder is only used in
// consolidated mode; detector may be nil, in which case changed keys are not
// computed.
func NewReconstructor(history RevisionHistory, encoder TimelineEncoder, detector *ChangeDetector, logger *Logger) *Reconstructor {
	return &Reconstructor{
		history:  history,
		encoder:  encoder,
		detector: detector,
		logger:   logger,
	}
}

// Reconstruct rebuilds every file matched by opts. Output files are
// truncated and rewritten, so repeated runs over unchanged history produce
// identical output.
func (r *Reconstructor) Reconstruct(ctx context.Context, opts ReconstructOptions) (*ReconstructResult, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultReconstructPattern
	}
	if opts.Mode == "" {
		opts.Mode = ModeConsolidated
	}
	if opts.Mode != ModeConsolidated && opts.Mode != ModeDiscrete {
		return nil, &ConfigError{Key: "mode", Err: fmt.Errorf("unsupported mode: %s", opts.Mode)}
	}
	if opts.Mode == ModeConsolidated && r.encoder == nil {
		return nil, &ConfigError{Key: "format", Err: fmt.Errorf("consolidated mode requires an encoder")}
	}

	files, err := MatchSnapshotFiles(opts.InputDir, opts.Pattern)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("reconstructing %d file(s) from %s into %s (%s)", len(files), opts.InputDir, opts.OutputDir, opts.Mode)

	result := &ReconstructResult{}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		timeline, skipped, err := r.BuildTimeline(ctx, opts.InputDir, rel, opts.Mode == ModeConsolidated)
		if err != nil {
			return result, err
		}
		timeline.Source = opts.Source
		result.Skipped += skipped

		var outputs []string
		if opts.Mode == ModeConsolidated {
			out, err := r.writeConsolidated(opts.OutputDir, timeline)
			if err != nil {
				return result, err
			}
			outputs = []string{out}
		} else {
			outputs, err = r.writeDiscrete(opts.OutputDir, rel, timeline)
			if err != nil {
				return result, err
			}
		}

		result.Files++
		result.Events += len(timeline.Events)
		result.Outputs = append(result.Outputs, outputs...)
		r.logger.Debugf("%s: %d revision(s)", rel, len(timeline.Events))
	}

	return result, nil
}

// MatchSnapshotFiles globs pattern under inputDir and returns the matching
// regular files as sorted, slash-separated paths relative to inputDir. The
// pattern may use ** to cross directory levels. Account summaries are never
// matched.
func MatchSnapshotFiles(inputDir, pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if !doublestar.ValidatePattern(pattern) {
		return nil, &ConfigError{Key: "glob", Err: fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)}
	}

	matches, err := doublestar.Glob(os.DirFS(inputDir), pattern)
	if err != nil {
		return nil, &ConfigError{Key: "glob", Err: fmt.Errorf("invalid pattern %q: %w", pattern, err)}
	}

	var files []string
	for _, m := range matches {
		if path.Base(m) == AccountSummaryFile {
			continue
		}
		info, err := os.Stat(filepath.Join(inputDir, filepath.FromSlash(m)))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// BuildTimeline collects the revisions of rel, oldest first. When decode is
// set, each revision's content is parsed; revisions that fail to parse are
// logged and left out, and the number left out is returned.
func (r *Reconstructor) BuildTimeline(ctx context.Context, inputDir, rel string, decode bool) (*Timeline, int, error) {
	source := filepath.Join(inputDir, filepath.FromSlash(rel))
	timeline := &Timeline{
		AccountID: filepath.Base(filepath.Dir(source)),
		Entity:    strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
	}

	revisions, err := r.history.Revisions(ctx, rel)
	if err != nil {
		return nil, 0, &ReconstructionError{Path: rel, Err: err}
	}

	skipped := 0
	var prev *Snapshot
	for _, rev := range revisions {
		content, err := r.history.ContentAt(ctx, rev.ID, rel)
		if err != nil {
			return nil, skipped, &ReconstructionError{Path: rel, Revision: rev.ID, Err: err}
		}

		event := ChangeEvent{
			Timestamp:  rev.Time.Unix(),
			RevisionID: rev.ID,
			Raw:        content,
		}

		if decode {
			snap, err := DecodeSnapshot(content)
			if err != nil {
				r.logger.Warnf("skipping revision: %v", &ReconstructionError{Path: rel, Revision: rev.ID, Err: err})
				skipped++
				continue
			}
			event.Data = snap.Data()
			if r.detector != nil && prev != nil {
				event.Changed = r.detector.ChangedKeys(prev, snap)
			}
			prev = snap
		}

		timeline.Events = append(timeline.Events, event)
	}

	return timeline, skipped, nil
}

// writeConsolidated writes {out}/{parent}/{stem}.{ext}
func (r *Reconstructor) writeConsolidated(outputDir string, timeline *Timeline) (string, error) {
	out := filepath.Join(outputDir, timeline.AccountID, timeline.Entity+"."+r.encoder.Extension())

	var buf bytes.Buffer
	if err := r.encoder.Export(timeline, &buf); err != nil {
		return "", &ExportError{Format: r.encoder.Extension(), Path: out, Err: err}
	}
	if err := writeFileAtomic(out, buf.Bytes()); err != nil {
		return "", &StorageError{Path: out, Op: "write", Err: err}
	}
	return out, nil
}

// writeDiscrete writes {out}/{parent}/{stem}/{unix}{suffix} per revision,
// with the revision content verbatim
func (r *Reconstructor) writeDiscrete(outputDir, rel string, timeline *Timeline) ([]string, error) {
	suffix := filepath.Ext(rel)
	dir := filepath.Join(outputDir, timeline.AccountID, timeline.Entity)

	var outputs []string
	for _, event := range timeline.Events {
		out := filepath.Join(dir, fmt.Sprintf("%d%s", event.Timestamp, suffix))
		if err := writeFileAtomic(out, event.Raw); err != nil {
			return outputs, &StorageError{Path: out, Op: "write", Err: err}
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
