package internal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_Get(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(5*time.Second, 0, "armory-test")

	status, body, err := tr.Get(context.Background(), srv.URL+"/A1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.Equal(t, "armory-test", gotUA)
	require.Equal(t, "application/json", gotAccept)

	status, _, err = tr.Get(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHTTPTransport_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := NewHTTPTransport(time.Second, 0, "")
	_, _, err := tr.Get(context.Background(), url)
	require.Error(t, err)
}

func TestHTTPTransport_RespectsCanceledContext(t *testing.T) {
	tr := NewHTTPTransport(time.Second, 0.001, "")
	ctx, cancel := context.WithCancel(context.Background())

	// the first token is available immediately, the second is not
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, _, err := tr.Get(ctx, srv.URL)
	require.NoError(t, err)

	cancel()
	_, _, err = tr.Get(ctx, srv.URL)
	require.Error(t, err)
}

func TestProfileClient(t *testing.T) {
	transport := NewFakeTransport()
	transport.Add("https://api.test/A1", http.StatusOK, `{"characters":[{"id":"c1","name":"Hero"}]}`)
	transport.Add("https://api.test/A1/c1", http.StatusOK, `{"lastLogin":1}`)
	transport.Add("https://api.test/A2", http.StatusServiceUnavailable, `oops`)
	transport.Add("https://api.test/A3", http.StatusOK, `{not json`)
	transport.Add("https://api.test/A4", http.StatusOK, `{"error":"private profile"}`)
	transport.Fail("https://api.test/A5", errors.New("connection refused"))

	var logs bytes.Buffer
	client := NewProfileClient(transport, FullSchema{}, "https://api.test", NewLogger(&logs, LogLevelDebug))
	ctx := context.Background()

	t.Run("summary ok", func(t *testing.T) {
		snap, err := client.FetchAccountSummary(ctx, "A1")
		require.NoError(t, err)
		require.NotNil(t, snap)
		_, ok := snap.Get("characters")
		require.True(t, ok)
	})

	t.Run("detail ok", func(t *testing.T) {
		snap, err := client.FetchCharacterDetail(ctx, "A1", "c1")
		require.NoError(t, err)
		require.NotNil(t, snap)
	})

	t.Run("non-200 returns nothing", func(t *testing.T) {
		snap, err := client.FetchAccountSummary(ctx, "A2")
		require.NoError(t, err)
		require.Nil(t, snap)
	})

	t.Run("decode failure propagates", func(t *testing.T) {
		_, err := client.FetchAccountSummary(ctx, "A3")
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		require.Equal(t, "remote", parseErr.Source)
	})

	t.Run("soft error is returned with a warning", func(t *testing.T) {
		snap, err := client.FetchAccountSummary(ctx, "A4")
		require.NoError(t, err)
		require.NotNil(t, snap)
		require.True(t, strings.Contains(logs.String(), "[WARN] service reported error"))
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		_, err := client.FetchAccountSummary(ctx, "A5")
		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		require.Equal(t, "https://api.test/A5", fetchErr.URL)
	})
}

func TestProfileClient_CompactSchemaURLs(t *testing.T) {
	transport := NewFakeTransport()
	transport.Add("https://api.test/A1.json", http.StatusOK, `[]`)
	transport.Add("https://api.test/A1/c1.json", http.StatusOK, `{}`)

	client := NewProfileClient(transport, CompactSchema{}, "https://api.test", NewNopLogger())

	_, err := client.FetchAccountSummary(context.Background(), "A1")
	require.NoError(t, err)
	_, err = client.FetchCharacterDetail(context.Background(), "A1", "c1")
	require.NoError(t, err)
	require.Equal(t, []string{"https://api.test/A1.json", "https://api.test/A1/c1.json"}, transport.Calls())
}
