// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// MockService is a test double for services.Service. Unset hooks return
// zero values; Get falls back to the Assets map.
type MockService struct {
	SearchFn     func(ctx context.Context, query, continuation string) (*models.SearchResponse, error)
	GetFn        func(ctx context.Context, id string) (*models.MediaAsset, error)
	GetByQueryFn func(ctx context.Context, q models.Query) (*models.MediaAsset, error)

	mu     sync.Mutex
	Assets map[string]models.MediaAsset

	searchCalls atomic.Int64
	getCalls    atomic.Int64
}

func (m *MockService) Search(ctx context.Context, query, continuation string) (*models.SearchResponse, error) {
	m.searchCalls.Add(1)
	if m.SearchFn != nil {
		return m.SearchFn(ctx, query, continuation)
	}
	return &models.SearchResponse{Results: []models.SearchResult{}}, nil
}

func (m *MockService) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	m.getCalls.Add(1)
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Assets[id]
	if !ok {
		return nil, shared.ErrAssetNotFound
	}
	return &a, nil
}

func (m *MockService) GetByQuery(ctx context.Context, q models.Query) (*models.MediaAsset, error) {
	if m.GetByQueryFn != nil {
		return m.GetByQueryFn(ctx, q)
	}
	return nil, shared.ErrNoMatchFound
}

func (m *MockService) Name() string { return "mock" }

// SetAsset stores the asset returned by Get for a.ID.
func (m *MockService) SetAsset(a models.MediaAsset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Assets == nil {
		m.Assets = make(map[string]models.MediaAsset)
	}
	m.Assets[a.ID] = a
}

// GetCalls is the number of Get invocations so far.
func (m *MockService) GetCalls() int64 { return m.getCalls.Load() }

// SearchCalls is the number of Search invocations so far.
func (m *MockService) SearchCalls() int64 { return m.searchCalls.Load() }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Clock is a settable time source for code that takes a Now func.
type Clock struct {
	mu sync.Mutex
	ms int64
}

func NewClock(ms int64) *Clock { return &Clock{ms: ms} }

// NowMs returns the current fake time in epoch milliseconds.
func (c *Clock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return time.UnixMilli(c.NowMs()) }

// Advance moves the clock forward by ms milliseconds.
func (c *Clock) Advance(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += ms
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
