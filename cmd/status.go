package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iksnae/armory-history/internal"
	"github.com/spf13/cobra"
)

var statusDataPath string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show accounts and characters tracked by previous runs",
	Long:  `Show what the run manifest (_manifest.yaml in the data directory) recorded for every account and character.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := cfg.DataPath
		if cmd.Flags().Changed("data") {
			dataDir = statusDataPath
		}

		manifest, err := internal.NewManifestManager(dataDir, logger).Load()
		if errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("No runs recorded yet"))
			return nil
		}
		if err != nil {
			return err
		}

		displayManifest(cmd.OutOrStdout(), manifest, time.Now())
		return nil
	},
}

func displayManifest(out io.Writer, manifest *internal.Manifest, now time.Time) {
	if len(manifest.Accounts) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("No accounts found"))
		return
	}

	header := headerStyle.Render(fmt.Sprintf("Found %d account(s), last run %s", len(manifest.Accounts), shortID(manifest.Metadata.LastRunID)))
	_, _ = fmt.Fprintln(out, header)
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("Account")+"\t"+titleStyle.Render("Character")+"\t"+titleStyle.Render("Last outcome")+"\t"+titleStyle.Render("Checked")+"\t"+titleStyle.Render("Written")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, account := range manifest.Accounts {
		if account.SummaryMissing {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", idStyle.Render(account.ID), dateStyle.Render("-"),
				warningStyle.Render("no summary"), formatWhen(account.LastFetched, now), dateStyle.Render("-"))
			continue
		}
		for _, character := range account.Characters {
			name := character.Name
			if name == "" {
				name = "Unnamed"
			}
			name = truncate(name, 40)

			outcome := dateStyle.Render(character.LastOutcome)
			switch character.LastOutcome {
			case internal.OutcomeWritten:
				outcome = countStyle.Render(character.LastOutcome)
			case internal.OutcomeFailed, internal.OutcomeSkipped:
				outcome = errorStyle.Render(character.LastOutcome)
			case internal.OutcomeUnavailable:
				outcome = warningStyle.Render(character.LastOutcome)
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
				idStyle.Render(account.ID),
				nameStyle.Render(name),
				outcome,
				formatWhen(character.LastChecked, now),
				formatWhen(character.LastWritten, now))
		}
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusDataPath, "data", internal.DefaultDataPath, "Data directory (DATA_PATH)")
}
