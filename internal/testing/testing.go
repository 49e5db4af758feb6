// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
)

// StubTokenProvider hands out initial until Refresh is called, then next.
type StubTokenProvider struct {
	mu         sync.Mutex
	current    string
	next       string
	refreshes  int
	RefreshErr error
}

func NewStubTokenProvider(initial, next string) *StubTokenProvider {
	return &StubTokenProvider{current: initial, next: next}
}

func (s *StubTokenProvider) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *StubTokenProvider) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.RefreshErr != nil {
		return s.RefreshErr
	}
	s.current = s.next
	return ctx.Err()
}

// Refreshes reports how many times Refresh was called.
func (s *StubTokenProvider) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// RecordedRequest is what [RecordingServer] saw for one request.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Body          string
	Authorization string
}

// RecordingServer is an [httptest.Server] that records requests and answers from a path-keyed table.
type RecordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	failures map[string]failure
}

type failure struct {
	status int
	body   string
}

// NewRecordingServer serves responses[path] with status 200, or 404 for unknown paths.
func NewRecordingServer(t *testing.T, responses map[string]string) *RecordingServer {
	t.Helper()
	rs := &RecordingServer{failures: map[string]failure{}}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		rs.mu.Lock()
		rs.requests = append(rs.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Body:          string(body),
			Authorization: r.Header.Get("Authorization"),
		})
		fail, failing := rs.failures[r.URL.Path]
		rs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if failing {
			w.WriteHeader(fail.status)
			w.Write([]byte(fail.body))
			return
		}
		payload, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"status":404,"message":"Not found"}}`))
			return
		}
		w.Write([]byte(payload))
	}))
	t.Cleanup(rs.Close)
	return rs
}

// Fail makes every request to path answer with status and body.
func (rs *RecordingServer) Fail(path string, status int, body string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.failures[path] = failure{status: status, body: body}
}

// Requests returns a copy of the recorded requests.
func (rs *RecordingServer) Requests() []RecordedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]RecordedRequest, len(rs.requests))
	copy(out, rs.requests)
	return out
}

// Last returns the most recent request.
func (rs *RecordingServer) Last(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := rs.Requests()
	if len(reqs) == 0 {
		t.Fatal("expected at least one request")
	}
	return reqs[len(reqs)-1]
}

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

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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
