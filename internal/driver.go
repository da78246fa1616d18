package internal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AccountRunner processes one account
type AccountRunner interface {
	ProcessAccount(ctx context.Context, accountID string) (*AccountResult, error)
}

// RunReport summarizes a fetch run
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Accounts   []*AccountResult
	Failed     []string
}

// Count sums a character outcome across all accounts
func (r *RunReport) Count(outcome string) int {
	n := 0
	for _, a := range r.Accounts {
		n += a.Count(outcome)
	}
	return n
}

// DriverOptions configures a Driver
type DriverOptions struct {
	// Manifest, when set, is updated after every processed account
	Manifest *ManifestManager
	// ContinueOnError keeps going after an account fails and returns the
	// joined errors at the end
	ContinueOnError bool
}

// Driver runs the account processor over a list of accounts, one at a time
type Driver struct {
	runner   AccountRunner
	logger   *Logger
	opts     DriverOptions
	newRunID func() string
	now      func() time.Time
}

// NewDriver creates a Driver
func NewDriver(runner AccountRunner, logger *Logger, opts DriverOptions) *Driver {
	return &Driver{
		runner:   runner,
		logger:   logger,
		opts:     opts,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

// Run processes accountIDs in order. The first account error aborts the run
// and is returned as an *AccountError, unless ContinueOnError is set.
func (d *Driver) Run(ctx context.Context, accountIDs []string) (*RunReport, error) {
	if len(accountIDs) == 0 {
		return nil, &ConfigError{Key: "ACCOUNT_ID", Err: ErrNoAccounts}
	}

	report := &RunReport{
		RunID:     d.newRunID(),
		StartedAt: d.now(),
	}
	d.logger.Infof("START EXECUTE run=%s accounts=%d", report.RunID, len(accountIDs))

	var errs []error
	for _, accountID := range accountIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result, err := d.runner.ProcessAccount(ctx, accountID)
		if result != nil {
			report.Accounts = append(report.Accounts, result)
			if err == nil || result.SummaryFile != "" {
				d.recordManifest(report.RunID, result)
			}
		}
		if err != nil {
			accountErr := &AccountError{AccountID: accountID, Err: err}
			d.logger.Errorf("%v", accountErr)
			report.Failed = append(report.Failed, accountID)
			errs = append(errs, accountErr)
			if !d.opts.ContinueOnError || ctx.Err() != nil {
				break
			}
		}
	}

	report.FinishedAt = d.now()
	d.logger.Infof("COMPLETE EXECUTE run=%s written=%d unchanged=%d failed=%d in %s",
		report.RunID, report.Count(OutcomeWritten), report.Count(OutcomeUnchanged),
		report.Count(OutcomeFailed), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	switch len(errs) {
	case 0:
		return report, nil
	case 1:
		return report, errs[0]
	default:
		return report, errors.Join(errs...)
	}
}

func (d *Driver) recordManifest(runID string, result *AccountResult) {
	if d.opts.Manifest == nil {
		return
	}
	if err := d.opts.Manifest.RecordAccount(runID, result); err != nil {
		d.logger.Warnf("failed to update manifest: %v", err)
	}
}
