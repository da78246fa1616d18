package cmd

import (
	"fmt"
	"strconv"

	"github.com/iksnae/armory-history/internal"
	"github.com/iksnae/armory-history/internal/export"
	"github.com/spf13/cobra"
)

var (
	reconstructSource    string
	reconstructHistoryDB string
	reconstructFormat    string
)

// reconstructCmd represents the reconstruct command
var reconstructCmd = &cobra.Command{
	Use:   "reconstruct [input_dir] [output_dir] [jsonl] [glob]",
	Short: "Rebuild per-file timelines from the revision history",
	Long: `Walk the revision history of every snapshot file matched by glob under
input_dir and write its timeline to output_dir.

  input_dir   directory holding the snapshots (default: data)
  output_dir  where timelines are written (default: data_history)
  jsonl       true writes one consolidated file per snapshot file,
              false writes every revision as its own file (default: true)
  glob        pattern relative to input_dir (default: */*.json)

Account summaries (_.json) are never reconstructed. Revisions come from git
by default; use --source sqlite with --history-db for revisions recorded by
fetch --history-db.`,
	Args: cobra.MaximumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := internal.ReconstructOptions{
			InputDir:  internal.DefaultDataPath,
			OutputDir: "data_history",
			Mode:      internal.ModeConsolidated,
			Pattern:   internal.DefaultReconstructPattern,
			Source:    reconstructSource,
		}
		if len(args) > 0 {
			opts.InputDir = args[0]
		}
		if len(args) > 1 {
			opts.OutputDir = args[1]
		}
		if len(args) > 2 {
			consolidated, err := strconv.ParseBool(args[2])
			if err != nil {
				return &internal.ConfigError{Key: "jsonl", Err: fmt.Errorf("expected true or false, got %q", args[2])}
			}
			if !consolidated {
				opts.Mode = internal.ModeDiscrete
			}
		}
		if len(args) > 3 {
			opts.Pattern = args[3]
		}

		exporter, err := export.NewExporter(reconstructFormat)
		if err != nil {
			return &internal.ConfigError{Key: "format", Err: err}
		}

		schema, err := internal.ParseSchema(cfg.Schema)
		if err != nil {
			return &internal.ConfigError{Key: "ARMORY_SCHEMA", Err: err}
		}

		dbPath := cfg.HistoryDB
		if cmd.Flags().Changed("history-db") {
			dbPath = reconstructHistoryDB
		}

		ctx := cmdContext(cmd)
		history, err := internal.OpenHistory(ctx, reconstructSource, opts.InputDir, dbPath, logger)
		if err != nil {
			return err
		}
		defer func() { _ = history.Close() }()

		detector := internal.NewChangeDetector(schema, cfg.VolatileKeys, logger)
		reconstructor := internal.NewReconstructor(history, exporter, detector, logger)

		result, err := reconstructor.Reconstruct(ctx, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Reconstructed %d file(s), %d revision(s)", result.Files, result.Events)))
		if result.Skipped > 0 {
			_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("Skipped %d unreadable revision(s)", result.Skipped)))
		}
		_, _ = fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Output: %s", opts.OutputDir)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconstructCmd)
	reconstructCmd.Flags().StringVar(&reconstructSource, "source", internal.HistorySourceGit, "Revision source: git or sqlite")
	reconstructCmd.Flags().StringVar(&reconstructHistoryDB, "history-db", "", "SQLite revision database (ARMORY_HISTORY_DB)")
	reconstructCmd.Flags().StringVarP(&reconstructFormat, "format", "f", "jsonl", "Consolidated format: jsonl, json, yaml, md")
}
