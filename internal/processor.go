package internal

import (
	"context"
	"errors"
)

// Character outcomes reported by AccountProcessor
const (
	OutcomeWritten     = "written"
	OutcomeUnchanged   = "unchanged"
	OutcomeUnavailable = "unavailable"
	OutcomeSkipped     = "skipped"
	OutcomeFailed      = "failed"
)

// SummaryFetcher fetches account summaries
type SummaryFetcher interface {
	FetchAccountSummary(ctx context.Context, accountID string) (*Snapshot, error)
}

// DetailFetcher fetches character details, absorbing queue retries
type DetailFetcher interface {
	FetchWithRetry(ctx context.Context, accountID, characterID string) (*Snapshot, error)
}

// CharacterResult is the outcome for one character stub
type CharacterResult struct {
	Ref       CharacterRef
	File      string
	Outcome   string
	LastLogin interface{}
	Err       error
}

// AccountResult summarizes one account's processing
type AccountResult struct {
	AccountID      string
	SummaryMissing bool
	SummaryFile    string
	Characters     []CharacterResult
}

// Count returns how many characters ended with outcome
func (r *AccountResult) Count(outcome string) int {
	n := 0
	for _, c := range r.Characters {
		if c.Outcome == outcome {
			n++
		}
	}
	return n
}

// AccountProcessor fetches one account summary and its characters, writing
// character snapshots only when the change detector approves.
type AccountProcessor struct {
	summaries SummaryFetcher
	details   DetailFetcher
	schema    Schema
	detector  *ChangeDetector
	store     *SnapshotStore
	logger    *Logger
}

// NewAccountProcessor creates an AccountProcessor
func NewAccountProcessor(summaries SummaryFetcher, details DetailFetcher, schema Schema, detector *ChangeDetector, store *SnapshotStore, logger *Logger) *AccountProcessor {
	return &AccountProcessor{
		summaries: summaries,
		details:   details,
		schema:    schema,
		detector:  detector,
		store:     store,
		logger:    logger,
	}
}

// ProcessAccount runs one account. Errors returned here compromise the whole
// account (transport, summary decode, filesystem); per-character failures
// are recorded in the result instead.
func (p *AccountProcessor) ProcessAccount(ctx context.Context, accountID string) (*AccountResult, error) {
	p.logger.Infof("processing account: %s", accountID)
	result := &AccountResult{AccountID: accountID}

	summary, err := p.summaries.FetchAccountSummary(ctx, accountID)
	if err != nil {
		return result, err
	}
	if summary == nil {
		p.logger.Warnf("no account summary returned for %s, skipping account", accountID)
		result.SummaryMissing = true
		return result, nil
	}

	if _, err := p.store.EnsureAccountDir(accountID); err != nil {
		return result, err
	}
	summaryPath := p.store.SummaryPath(accountID)
	if err := p.store.WriteLatest(ctx, summaryPath, summary); err != nil {
		return result, err
	}
	result.SummaryFile = summaryPath

	stubs := p.schema.Characters(summary)
	p.logger.Debugf("account %s lists %d character(s)", accountID, len(stubs))

	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cr := p.processCharacter(ctx, accountID, stub)
		if cr.Err != nil && errors.Is(cr.Err, ctx.Err()) {
			return result, ctx.Err()
		}
		result.Characters = append(result.Characters, cr)
	}

	p.logger.Infof("completed processing account: %s", accountID)
	return result, nil
}

func (p *AccountProcessor) processCharacter(ctx context.Context, accountID string, stub interface{}) CharacterResult {
	ref, ok := p.schema.CharacterRef(stub)
	if !ok {
		err := &CharacterError{AccountID: accountID, Character: "?", Err: errors.New("character stub missing id or name")}
		p.logger.Errorf("%v", err)
		return CharacterResult{Outcome: OutcomeSkipped, Err: err}
	}

	p.logger.Infof("fetching character: %s - %s", ref.Name, ref.ID)
	file := p.schema.CharacterFile(ref)
	path := p.store.CharacterPath(accountID, file)
	cr := CharacterResult{Ref: ref, File: path}

	fail := func(err error) CharacterResult {
		cr.Outcome = OutcomeFailed
		cr.Err = &CharacterError{AccountID: accountID, Character: ref.Name, Err: err}
		p.logger.Errorf("%v", cr.Err)
		return cr
	}

	detail, err := p.details.FetchWithRetry(ctx, accountID, ref.ID)
	if err != nil {
		return fail(err)
	}
	if detail == nil {
		p.logger.Warnf("no details returned for %s, keeping stored snapshot", ref.Name)
		cr.Outcome = OutcomeUnavailable
		return cr
	}
	cr.LastLogin, _ = p.schema.LoginMarker(detail)

	prev := p.store.ReadLatest(path)
	write := p.detector.ShouldPersist(prev, detail)
	p.logger.Infof("has logged in since last check: %v", write)

	if !write {
		cr.Outcome = OutcomeUnchanged
		return cr
	}
	if err := p.store.WriteLatest(ctx, path, detail); err != nil {
		return fail(err)
	}
	cr.Outcome = OutcomeWritten
	return cr
}
