package internal

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Sleeper blocks for d or until ctx is done
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// ContextSleeper waits on a timer and returns early when ctx is canceled
var ContextSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
})

// CharacterFetcher fetches a character detail snapshot
type CharacterFetcher interface {
	FetchCharacterDetail(ctx context.Context, accountID, characterID string) (*Snapshot, error)
}

// QueuedFetcher re-polls a character while the service reports the profile
// as queued. Waits come from a backoff policy, constant by default: queue
// drain time does not grow with the attempt count.
type QueuedFetcher struct {
	fetcher     CharacterFetcher
	schema      Schema
	maxAttempts int
	policy      backoff.BackOff
	sleeper     Sleeper
	logger      *Logger
}

// NewQueuedFetcher creates a retrier making at most maxAttempts fetch calls
// spaced by interval. maxAttempts below 1 is treated as 1.
func NewQueuedFetcher(fetcher CharacterFetcher, schema Schema, maxAttempts int, interval time.Duration, sleeper Sleeper, logger *Logger) *QueuedFetcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sleeper == nil {
		sleeper = ContextSleeper
	}
	return &QueuedFetcher{
		fetcher:     fetcher,
		schema:      schema,
		maxAttempts: maxAttempts,
		policy:      backoff.NewConstantBackOff(interval),
		sleeper:     sleeper,
		logger:      logger,
	}
}

// SetBackOff replaces the wait policy. The policy is reset at the start of
// every FetchWithRetry call; returning backoff.Stop ends retrying early.
func (q *QueuedFetcher) SetBackOff(policy backoff.BackOff) {
	q.policy = policy
}

// FetchWithRetry fetches a character detail, retrying while its queue
// position is positive, attempts remain and the policy allows another
// wait. The last payload is returned as is, even if still queued. A nil
// payload (non-200) ends retrying.
func (q *QueuedFetcher) FetchWithRetry(ctx context.Context, accountID, characterID string) (*Snapshot, error) {
	q.policy.Reset()

	for attempt := 1; ; attempt++ {
		snap, err := q.fetcher.FetchCharacterDetail(ctx, accountID, characterID)
		if err != nil || snap == nil {
			return snap, err
		}

		queue := q.schema.QueuePosition(snap)
		if queue <= 0 {
			return snap, nil
		}
		if attempt >= q.maxAttempts {
			q.logger.Warnf("character %s still queued (position %d) after %d attempt(s)", characterID, queue, attempt)
			return snap, nil
		}

		wait := q.policy.NextBackOff()
		if wait == backoff.Stop {
			q.logger.Warnf("character %s still queued (position %d), retry policy gave up after %d attempt(s)", characterID, queue, attempt)
			return snap, nil
		}
		q.logger.Infof("character %s queued at position %d, retrying in %s (attempt %d/%d)", characterID, queue, wait, attempt, q.maxAttempts)
		if err := q.sleeper.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}
