package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/iksnae/armory-history/internal"
	"github.com/spf13/cobra"
)

var healthcheckDataPath string

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, data directory and history sources",
	Long: `Check the health of armory by verifying:
  • Configuration (environment, --config file)
  • Data directory presence and write access
  • Git history of the data directory
  • SQLite revision database, when configured
  • Run manifest

This command is useful for debugging scheduled runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := false

		dataDir := cfg.DataPath
		if cmd.Flags().Changed("data") {
			dataDir = healthcheckDataPath
		}

		_, _ = fmt.Fprintln(out, sectionStyle.Render("Armory Health Check"))
		_, _ = fmt.Fprintln(out)

		// Step 1: configuration
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 1: Checking configuration..."))
		if err := cfg.Validate(); err != nil {
			if errors.Is(err, internal.ErrNoAccounts) {
				_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No account ids configured (set ACCOUNT_ID or pass them to fetch)"))
			} else {
				_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Invalid configuration:"), err)
				failed = true
			}
		} else {
			_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d account(s) configured", len(cfg.AccountIDs))))
		}
		if verbose {
			_, _ = fmt.Fprintf(out, "   Schema: %s\n", cfg.Schema)
			_, _ = fmt.Fprintf(out, "   Base URL: %s\n", cfg.BaseURL)
			_, _ = fmt.Fprintf(out, "   Queue: %d attempt(s), %s apart\n", cfg.QueueAttempts, cfg.QueueSleep)
		}
		_, _ = fmt.Fprintln(out)

		// Step 2: data directory
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 2: Checking data directory..."))
		dataExists := false
		if info, err := os.Stat(dataDir); err != nil {
			_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %s does not exist yet (created on first fetch)", dataDir)))
		} else if !info.IsDir() {
			_, _ = fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %s is not a directory", dataDir)))
			failed = true
		} else if err := checkWritable(dataDir); err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %s is not writable:", dataDir)), err)
			failed = true
		} else {
			dataExists = true
			_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s is writable", dataDir)))
		}
		_, _ = fmt.Fprintln(out)

		// Step 3: git history
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 3: Checking git history..."))
		gitOK := false
		if !dataExists {
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Skipped, no data directory"))
		} else if _, err := internal.NewGitHistory(cmdContext(cmd), dataDir, logger); err != nil {
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Git history unavailable:"), err)
		} else {
			gitOK = true
			_, _ = fmt.Fprintln(out, successStyle.Render("✅ Data directory is tracked by git"))
		}
		_, _ = fmt.Fprintln(out)

		// Step 4: sqlite history
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 4: Checking SQLite revision database..."))
		sqliteOK := false
		switch {
		case cfg.HistoryDB == "":
			_, _ = fmt.Fprintln(out, dateStyle.Render("   Not configured (ARMORY_HISTORY_DB)"))
		default:
			if _, err := os.Stat(cfg.HistoryDB); err != nil {
				_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %s does not exist yet (created on first fetch)", cfg.HistoryDB)))
			} else if db, err := internal.OpenDatabase(cfg.HistoryDB, true); err != nil {
				_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Failed to open revision database:"), err)
				failed = true
			} else {
				_ = db.Close()
				sqliteOK = true
				_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s is readable", cfg.HistoryDB)))
			}
		}
		_, _ = fmt.Fprintln(out)

		// Step 5: manifest
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 5: Checking run manifest..."))
		manifest, err := internal.NewManifestManager(dataDir, logger).Load()
		switch {
		case errors.Is(err, os.ErrNotExist):
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No runs recorded yet"))
		case err != nil:
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Manifest unreadable (rebuilt on next fetch):"), err)
		default:
			_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d account(s) recorded, last run %s", len(manifest.Accounts), shortID(manifest.Metadata.LastRunID))))
		}
		_, _ = fmt.Fprintln(out)

		// Summary
		_, _ = fmt.Fprintln(out, sectionStyle.Render("Summary"))
		_, _ = fmt.Fprintln(out)
		if failed {
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("health check failed")
		}
		if !gitOK && !sqliteOK {
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Fetching will work, but no revision history is available to reconstruct"))
			return nil
		}
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().StringVar(&healthcheckDataPath, "data", internal.DefaultDataPath, "Data directory (DATA_PATH)")
}
