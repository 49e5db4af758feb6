package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tu "github.com/desertthunder/spotx/internal/testing"
)

func TestHTTPTransport(t *testing.T) {
	t.Run("Non 2xx Is A Response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Multi", "first")
			w.Header().Add("X-Multi", "second")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"status":404,"message":"Not found"}}`))
		}))
		defer srv.Close()

		tr := NewHTTPTransport(nil, 5*time.Second)
		defer tr.Close()

		req, _ := NewRequest(RequestOpts{URL: srv.URL}).Build(context.Background(), nil)
		resp, err := tr.Do(context.Background(), req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
		if resp.OK() {
			t.Error("expected OK to be false")
		}
		if v, ok := resp.Header("x-multi"); !ok || v != "first" {
			t.Errorf("expected first header value, got %q", v)
		}
		for i := 1; i < len(resp.Headers); i++ {
			if resp.Headers[i-1].Key > resp.Headers[i].Key {
				t.Errorf("expected headers sorted by key, got %v", resp.Headers)
			}
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		tr := NewHTTPTransport(client, 0)

		req, _ := NewRequest(RequestOpts{URL: "https://api.example.com"}).Build(context.Background(), nil)
		if _, err := tr.Do(context.Background(), req); err == nil {
			t.Error("expected error without a response")
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: 200, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		tr := NewHTTPTransport(client, 0)

		req, _ := NewRequest(RequestOpts{URL: "https://api.example.com"}).Build(context.Background(), nil)
		if _, err := tr.Do(context.Background(), req); err == nil {
			t.Error("expected error for unreadable body")
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tr := NewHTTPTransport(nil, 0)
		req, _ := NewRequest(RequestOpts{URL: srv.URL}).Build(ctx, nil)
		_, err := tr.Do(ctx, req)
		if err != context.Canceled {
			t.Errorf("expected context.Canceled unchanged, got %v", err)
		}
	})
}

func TestResponseDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	resp := &Response{StatusCode: 200, Body: `{"name":"Song","popularity":10}`}

	t.Run("Lenient", func(t *testing.T) {
		var p payload
		if err := resp.Decode(&p, Lenient); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p.Name != "Song" {
			t.Errorf("expected Song, got %s", p.Name)
		}
	})

	t.Run("Strict", func(t *testing.T) {
		var p payload
		if err := resp.Decode(&p, Strict); err == nil {
			t.Error("expected unknown field to be rejected")
		}
	})
}
