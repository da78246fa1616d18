package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iksnae/armory-history/internal"
	"github.com/spf13/cobra"
)

var (
	historyDataPath  string
	historySource    string
	historyHistoryDB string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "List the revisions of one snapshot file",
	Long: `List every recorded revision of a snapshot file, oldest first, with the
tracked fields that changed in each one.

The file may be given as a path (data/A1/Hero.json) or relative to the data
directory (A1/Hero.json).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := cfg.DataPath
		if cmd.Flags().Changed("data") {
			dataDir = historyDataPath
		}
		dbPath := cfg.HistoryDB
		if cmd.Flags().Changed("history-db") {
			dbPath = historyHistoryDB
		}
		rel := relativeToData(dataDir, args[0])

		schema, err := internal.ParseSchema(cfg.Schema)
		if err != nil {
			return &internal.ConfigError{Key: "ARMORY_SCHEMA", Err: err}
		}

		ctx := cmdContext(cmd)
		history, err := internal.OpenHistory(ctx, historySource, dataDir, dbPath, logger)
		if err != nil {
			return err
		}
		defer func() { _ = history.Close() }()

		detector := internal.NewChangeDetector(schema, cfg.VolatileKeys, logger)
		reconstructor := internal.NewReconstructor(history, nil, detector, logger)
		timeline, skipped, err := reconstructor.BuildTimeline(ctx, dataDir, rel, true)
		if err != nil {
			return err
		}

		displayTimeline(cmd.OutOrStdout(), rel, timeline, time.Now())
		if skipped > 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render(fmt.Sprintf("%d revision(s) could not be decoded", skipped)))
		}
		return nil
	},
}

// relativeToData turns a path under dataDir into a slash-separated path
// relative to it; other paths are taken as already relative
func relativeToData(dataDir, file string) string {
	rel, err := filepath.Rel(dataDir, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

func displayTimeline(out io.Writer, rel string, timeline *internal.Timeline, now time.Time) {
	if len(timeline.Events) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("No revisions found for %s", rel)))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s: %d revision(s)", rel, len(timeline.Events))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("Revision")+"\t"+titleStyle.Render("Committed")+"\t"+titleStyle.Render("Size")+"\t"+titleStyle.Render("Changed")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 80))

	for i, event := range timeline.Events {
		changed := dateStyle.Render("-")
		switch {
		case i == 0:
			changed = infoStyle.Render("first snapshot")
		case len(event.Changed) > 0:
			changed = nameStyle.Render(truncate(strings.Join(event.Changed, ", "), 50))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(event.RevisionID)),
			formatWhen(time.Unix(event.Timestamp, 0), now),
			countStyle.Render(fmt.Sprintf("%dB", len(event.Raw))),
			changed)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyDataPath, "data", internal.DefaultDataPath, "Data directory (DATA_PATH)")
	historyCmd.Flags().StringVar(&historySource, "source", internal.HistorySourceGit, "Revision source: git or sqlite")
	historyCmd.Flags().StringVar(&historyHistoryDB, "history-db", "", "SQLite revision database (ARMORY_HISTORY_DB)")
}
