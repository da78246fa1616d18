package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/armory-history/internal"
	"github.com/spf13/cobra"
)

var (
	fetchDataPath        string
	fetchAttempts        int
	fetchSleep           string
	fetchSchema          string
	fetchBaseURL         string
	fetchRate            float64
	fetchHistoryDB       string
	fetchLogFile         string
	fetchContinueOnError bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [account-id...]",
	Short: "Fetch account and character snapshots",
	Long: `Fetch the account summary and every character profile for each account.

Account ids come from the arguments (comma separated values are split) or,
when none are given, from ACCOUNT_ID. The account summary is written on
every run; a character file is only rewritten when the character has logged
in since the last check or one of its tracked fields changed.

Characters still waiting in the service queue are fetched again up to
PROFILE_QUEUE_ATTEMPTS times, PROFILE_QUEUE_SLEEP apart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFetchFlags(cmd, args); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := logger
		if cfg.LogFile != "" {
			log = internal.NewFileLogger(cmd.ErrOrStderr(), internal.LevelFor(verbose), cfg.LogFile)
			defer func() { _ = log.Close() }()
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, runErr := runFetch(ctx, cfg, log)
		if report != nil {
			printFetchReport(cmd.OutOrStdout(), report)
		}
		return runErr
	},
}

// applyFetchFlags layers explicitly set flags and positional account ids
// over the loaded configuration
func applyFetchFlags(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataPath = fetchDataPath
	}
	if flags.Changed("attempts") {
		cfg.QueueAttempts = fetchAttempts
	}
	if flags.Changed("sleep") {
		d, err := internal.ParseDuration(fetchSleep)
		if err != nil {
			return &internal.ConfigError{Key: "sleep", Err: err}
		}
		cfg.QueueSleep = d
	}
	if flags.Changed("schema") {
		cfg.Schema = fetchSchema
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = fetchBaseURL
	}
	if flags.Changed("rate") {
		cfg.RequestRate = fetchRate
	}
	if flags.Changed("history-db") {
		cfg.HistoryDB = fetchHistoryDB
	}
	if flags.Changed("log-file") {
		cfg.LogFile = fetchLogFile
	}
	if flags.Changed("continue-on-error") {
		cfg.ContinueOnError = fetchContinueOnError
	}

	if len(args) > 0 {
		cfg.AccountIDs = internal.SplitIDs(args...)
	}
	return nil
}

// runFetch wires the fetch pipeline from configuration and runs it
func runFetch(ctx context.Context, cfg internal.Config, log *internal.Logger) (*internal.RunReport, error) {
	schema, err := internal.ParseSchema(cfg.Schema)
	if err != nil {
		return nil, &internal.ConfigError{Key: "ARMORY_SCHEMA", Err: err}
	}

	transport := internal.NewHTTPTransport(cfg.HTTPTimeout, cfg.RequestRate, cfg.UserAgent)
	client := internal.NewProfileClient(transport, schema, cfg.BaseURL, log)
	fetcher := internal.NewQueuedFetcher(client, schema, cfg.QueueAttempts, cfg.QueueSleep, nil, log)
	detector := internal.NewChangeDetector(schema, cfg.VolatileKeys, log)
	store := internal.NewSnapshotStore(cfg.DataPath, log)

	if cfg.HistoryDB != "" {
		history, err := internal.OpenSQLiteHistory(cfg.HistoryDB, log)
		if err != nil {
			return nil, err
		}
		defer func() { _ = history.Close() }()
		store.SetRecorder(history)
	}

	processor := internal.NewAccountProcessor(client, fetcher, schema, detector, store, log)
	driver := internal.NewDriver(processor, log, internal.DriverOptions{
		Manifest:        internal.NewManifestManager(cfg.DataPath, log),
		ContinueOnError: cfg.ContinueOnError,
	})
	return driver.Run(ctx, cfg.AccountIDs)
}

func printFetchReport(w io.Writer, report *internal.RunReport) {
	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Run %s", shortID(report.RunID))))
	for _, account := range report.Accounts {
		if account.SummaryMissing {
			_, _ = fmt.Fprintf(w, "  %s %s\n", titleStyle.Render(account.AccountID), warningStyle.Render("no summary returned"))
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s  %s written  %s unchanged", titleStyle.Render(account.AccountID),
			countStyle.Render(fmt.Sprint(account.Count(internal.OutcomeWritten))),
			dateStyle.Render(fmt.Sprint(account.Count(internal.OutcomeUnchanged))))
		if n := account.Count(internal.OutcomeUnavailable); n > 0 {
			_, _ = fmt.Fprintf(w, "  %s", warningStyle.Render(fmt.Sprintf("%d unavailable", n)))
		}
		if n := account.Count(internal.OutcomeFailed) + account.Count(internal.OutcomeSkipped); n > 0 {
			_, _ = fmt.Fprintf(w, "  %s", errorStyle.Render(fmt.Sprintf("%d failed", n)))
		}
		_, _ = fmt.Fprintln(w)
	}
	for _, id := range report.Failed {
		_, _ = fmt.Fprintf(w, "  %s %s\n", titleStyle.Render(id), errorStyle.Render("account failed"))
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchDataPath, "data", internal.DefaultDataPath, "Data directory (DATA_PATH)")
	fetchCmd.Flags().IntVar(&fetchAttempts, "attempts", internal.DefaultQueueAttempts, "Fetch attempts while a character is queued (PROFILE_QUEUE_ATTEMPTS)")
	fetchCmd.Flags().StringVar(&fetchSleep, "sleep", internal.DefaultQueueSleep.String(), "Wait between queued attempts, e.g. 5s or 5 (PROFILE_QUEUE_SLEEP)")
	fetchCmd.Flags().StringVar(&fetchSchema, "schema", internal.SchemaFull, "Service schema: full or compact (ARMORY_SCHEMA)")
	fetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", internal.DefaultBaseURL, "Profile service base URL (ARMORY_BASE_URL)")
	fetchCmd.Flags().Float64Var(&fetchRate, "rate", 0, "Maximum requests per second, 0 for unlimited (ARMORY_REQUEST_RATE)")
	fetchCmd.Flags().StringVar(&fetchHistoryDB, "history-db", "", "Also record revisions into this SQLite database (ARMORY_HISTORY_DB)")
	fetchCmd.Flags().StringVar(&fetchLogFile, "log-file", internal.DefaultLogFile, "Rotating debug log file, empty to disable (ARMORY_LOG_FILE)")
	fetchCmd.Flags().BoolVar(&fetchContinueOnError, "continue-on-error", false, "Keep going after an account fails (ARMORY_CONTINUE_ON_ERROR)")
}
