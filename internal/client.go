package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Transport performs a GET and returns the status code and body
type Transport interface {
	Get(ctx context.Context, url string) (status int, body []byte, err error)
}

// HTTPTransport is the net/http backed Transport. Requests are paced by an
// optional rate limiter.
type HTTPTransport struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPTransport creates a transport. requestsPerSecond <= 0 disables
// pacing.
func NewHTTPTransport(timeout time.Duration, requestsPerSecond float64, userAgent string) *HTTPTransport {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &HTTPTransport{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: userAgent,
	}
}

// Get issues a GET request and reads the whole body
func (t *HTTPTransport) Get(ctx context.Context, url string) (int, []byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("request throttle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// ProfileClient fetches account summaries and character details
type ProfileClient struct {
	transport Transport
	schema    Schema
	baseURL   string
	logger    *Logger
}

// NewProfileClient creates a client for the service rooted at baseURL
func NewProfileClient(transport Transport, schema Schema, baseURL string, logger *Logger) *ProfileClient {
	return &ProfileClient{
		transport: transport,
		schema:    schema,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// FetchAccountSummary fetches the account summary. A nil snapshot with a
// nil error means the service answered with a non-200 status.
func (c *ProfileClient) FetchAccountSummary(ctx context.Context, accountID string) (*Snapshot, error) {
	return c.getJSON(ctx, c.schema.AccountURL(c.baseURL, accountID))
}

// FetchCharacterDetail fetches one character's profile. A nil snapshot with
// a nil error means the service answered with a non-200 status.
func (c *ProfileClient) FetchCharacterDetail(ctx context.Context, accountID, characterID string) (*Snapshot, error) {
	return c.getJSON(ctx, c.schema.CharacterURL(c.baseURL, accountID, characterID))
}

func (c *ProfileClient) getJSON(ctx context.Context, url string) (*Snapshot, error) {
	c.logger.Infof("fetching json: %s", url)

	status, body, err := c.transport.Get(ctx, url)
	if err != nil {
		fetchErr := &FetchError{URL: url, Err: err}
		c.logger.Errorf("%v", fetchErr)
		return nil, fetchErr
	}

	if status != http.StatusOK {
		c.logger.Warnf("unexpected status %d from %s", status, url)
		return nil, nil
	}

	snap, err := DecodeSnapshot(body)
	if err != nil {
		parseErr := &ParseError{Source: "remote", Key: url, Err: err}
		c.logger.Errorf("%v", parseErr)
		return nil, parseErr
	}

	if msg, ok := snap.Get("error"); ok {
		c.logger.Warnf("service reported error for %s: %v", url, msg)
	}

	return snap, nil
}
