package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/iksnae/armory-history/testutil"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	calls []string
	fail  map[string]error
}

func (s *stubRunner) ProcessAccount(_ context.Context, accountID string) (*AccountResult, error) {
	s.calls = append(s.calls, accountID)
	result := &AccountResult{AccountID: accountID}
	if err := s.fail[accountID]; err != nil {
		return result, err
	}
	result.Characters = []CharacterResult{{Ref: CharacterRef{ID: accountID + "-c", Name: "Hero"}, Outcome: OutcomeWritten}}
	return result, nil
}

func newTestDriver(runner AccountRunner, opts DriverOptions) *Driver {
	d := NewDriver(runner, NewNopLogger(), opts)
	d.newRunID = func() string { return "run-1" }
	return d
}

func TestDriver_RunsAccountsInOrder(t *testing.T) {
	runner := &stubRunner{}
	report, err := newTestDriver(runner, DriverOptions{}).Run(context.Background(), []string{"A1", "A2", "A3"})
	require.NoError(t, err)
	require.Equal(t, []string{"A1", "A2", "A3"}, runner.calls)
	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, 3, report.Count(OutcomeWritten))
	require.Empty(t, report.Failed)
}

func TestDriver_AbortsOnFirstAccountError(t *testing.T) {
	cause := errors.New("connection refused")
	runner := &stubRunner{fail: map[string]error{"A2": cause}}

	report, err := newTestDriver(runner, DriverOptions{}).Run(context.Background(), []string{"A1", "A2", "A3"})
	require.Error(t, err)
	require.Equal(t, []string{"A1", "A2"}, runner.calls)

	var accountErr *AccountError
	require.ErrorAs(t, err, &accountErr)
	require.Equal(t, "A2", accountErr.AccountID)
	require.ErrorIs(t, err, cause)
	require.Equal(t, []string{"A2"}, report.Failed)
}

func TestDriver_ContinueOnError(t *testing.T) {
	runner := &stubRunner{fail: map[string]error{
		"A1": errors.New("first"),
		"A3": errors.New("third"),
	}}

	report, err := newTestDriver(runner, DriverOptions{ContinueOnError: true}).Run(context.Background(), []string{"A1", "A2", "A3"})
	require.Error(t, err)
	require.Equal(t, []string{"A1", "A2", "A3"}, runner.calls)
	require.Equal(t, []string{"A1", "A3"}, report.Failed)
	require.Contains(t, err.Error(), "first")
	require.Contains(t, err.Error(), "third")
	require.Equal(t, 1, report.Count(OutcomeWritten))
}

func TestDriver_NoAccounts(t *testing.T) {
	_, err := newTestDriver(&stubRunner{}, DriverOptions{}).Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestDriver_StopsWhenCanceled(t *testing.T) {
	runner := &stubRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestDriver(runner, DriverOptions{ContinueOnError: true}).Run(ctx, []string{"A1", "A2"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, runner.calls)
}

func TestDriver_EndToEndWithManifest(t *testing.T) {
	root := t.TempDir()
	transport := NewFakeTransport()
	transport.Add(testBaseURL+"/A1", 200, testutil.SampleSummary)
	transport.Add(testBaseURL+"/A1/c1", 200, testutil.SampleCharacter("1"))

	manifest := NewManifestManager(root, NewNopLogger())
	d := newTestDriver(newTestProcessor(t, transport, root), DriverOptions{Manifest: manifest})

	report, err := d.Run(context.Background(), []string{"A1"})
	require.NoError(t, err)
	require.Equal(t, 1, report.Count(OutcomeWritten))

	m, err := manifest.Load()
	require.NoError(t, err)
	require.Equal(t, "run-1", m.Metadata.LastRunID)
	require.Equal(t, "A1/Hero.json", m.Account("A1").Characters[0].File)
	require.Equal(t, "1", m.Account("A1").Characters[0].LastLogin)
}
