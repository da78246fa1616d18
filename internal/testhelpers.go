package internal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type fakeResponse struct {
	status int
	body   string
	err    error
}

// FakeTransport serves canned responses per URL. Responses queued for a URL
// are returned in order; the last one repeats.
type FakeTransport struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     []string
}

// NewFakeTransport creates an empty FakeTransport
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{responses: make(map[string][]fakeResponse)}
}

// Add queues a response for url
func (f *FakeTransport) Add(url string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = append(f.responses[url], fakeResponse{status: status, body: body})
}

// Fail queues a transport error for url
func (f *FakeTransport) Fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = append(f.responses[url], fakeResponse{err: err})
}

// Calls returns the URLs requested so far
func (f *FakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Get implements Transport
func (f *FakeTransport) Get(_ context.Context, url string) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	queue := f.responses[url]
	if len(queue) == 0 {
		return 404, []byte(`{"error":"not found"}`), nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[url] = queue[1:]
	}
	if resp.err != nil {
		return 0, nil, resp.err
	}
	return resp.status, []byte(resp.body), nil
}

// RecordingSleeper records requested sleeps without waiting
type RecordingSleeper struct {
	Slept []time.Duration
}

// Sleep implements Sleeper
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.Slept = append(s.Slept, d)
	return ctx.Err()
}

type memoryRevision struct {
	Revision
	content []byte
}

// MemoryHistory is an in-memory RevisionHistory
type MemoryHistory struct {
	mu    sync.Mutex
	files map[string][]memoryRevision
}

// NewMemoryHistory creates an empty MemoryHistory
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{files: make(map[string][]memoryRevision)}
}

// Commit adds a revision of path
func (m *MemoryHistory) Commit(path, id string, at time.Time, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append(m.files[path], memoryRevision{
		Revision: Revision{ID: id, Time: at},
		content:  []byte(content),
	})
	sort.SliceStable(m.files[path], func(i, j int) bool {
		return m.files[path][i].Time.Before(m.files[path][j].Time)
	})
}

// Revisions implements RevisionHistory
func (m *MemoryHistory) Revisions(_ context.Context, path string) ([]Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Revision
	for _, r := range m.files[path] {
		out = append(out, r.Revision)
	}
	return out, nil
}

// ContentAt implements RevisionHistory
func (m *MemoryHistory) ContentAt(_ context.Context, id, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.files[path] {
		if r.ID == id {
			return r.content, nil
		}
	}
	return nil, fmt.Errorf("revision %s not found for %s", id, path)
}
