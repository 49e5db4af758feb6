package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Doer performs exactly one round trip and normalizes whatever response came back.
//
// Non-2xx statuses are not errors at this level; an error means no response was received.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*Response, error)
}

// HTTPTransport is the process-wide connection holder. Build it once at startup, share it across all requests and
// call [HTTPTransport.Close] on shutdown.
//
// It is safe for concurrent use because [http.Client] is.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client, or a pooled client with the given overall timeout when client is nil.
// A zero timeout means none.
func NewHTTPTransport(client *http.Client, timeout time.Duration) *HTTPTransport {
	if client == nil {
		pooled := http.DefaultTransport.(*http.Transport).Clone()
		pooled.MaxIdleConns = 100
		pooled.MaxIdleConnsPerHost = 16
		client = &http.Client{Transport: pooled, Timeout: timeout}
	}
	return &HTTPTransport{client: client}
}

// Do sends req and reads the full body.
func (t *HTTPTransport) Do(ctx context.Context, req *http.Request) (*Response, error) {
	resp, err := t.client.Do(req.WithContext(ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return newResponse(resp, body), nil
}

// Client exposes the underlying [http.Client].
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// Close releases idle pooled connections.
func (t *HTTPTransport) Close() {
	t.client.CloseIdleConnections()
}
