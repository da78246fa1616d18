package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/armory-history/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// cfg and logger are set up before any subcommand runs
	cfg    internal.Config
	logger *internal.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "armory",
	Short: "Fetch game profile snapshots and rebuild their history",
	Long: `A CLI tool that keeps a change-aware archive of game profile snapshots.

fetch downloads each account summary and its characters from the profile
service and only rewrites a character file when the character has logged in
or its tracked fields changed. Commit the data directory with git (or record
revisions into SQLite with --history-db) and use reconstruct to turn the
revision history into per-character timelines.

Quick Start:
  armory fetch <account-id>          # Fetch one account into ./data
  armory reconstruct                 # Rebuild data_history/ from git history
  armory history data/A1/Hero.json   # List the revisions of one file
  armory status                      # Show what the last runs recorded`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = internal.NewLogger(cmd.ErrOrStderr(), internal.LevelFor(verbose))

		loaded, err := internal.LoadConfig(configPath, nil)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
