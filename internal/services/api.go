// Raw Web API requests for the api command
package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/transport"
)

// RawService sends arbitrary requests through the executor and returns the normalized response.
type RawService struct {
	baseURL string
	exec    *transport.Executor
	tokens  transport.TokenProvider
}

// RawRequest describes one call made with [RawService.Do].
type RawRequest struct {
	Method transport.Method
	Path   string            // relative to the base URL, or an absolute https URL
	Query  url.Values        // empty values are dropped
	Body   string            // sent as JSON unless Form is set
	Form   map[string]string // sent as application/x-www-form-urlencoded
}

// NewRawService creates a raw request service sharing the catalog's executor and token provider.
func NewRawService(baseURL string, exec *transport.Executor, tokens transport.TokenProvider) *RawService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RawService{baseURL: strings.TrimRight(baseURL, "/"), exec: exec, tokens: tokens}
}

// Do performs the request. Non-2xx responses come back as the executor's typed errors.
func (a *RawService) Do(ctx context.Context, r RawRequest) (*transport.Response, error) {
	if strings.TrimSpace(r.Path) == "" {
		return nil, fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	endpoint := buildEndpoint(a.baseURL, r.Path, r.Query)
	if strings.HasPrefix(r.Path, "https://") || strings.HasPrefix(r.Path, "http://") {
		endpoint = withQuery(r.Path, r.Query)
	}

	opts := transport.RequestOpts{URL: endpoint, Method: r.Method, BodyString: r.Body}
	if len(r.Form) > 0 {
		opts.ContentType = transport.ContentTypeForm
		opts.BodyMap = r.Form
	}

	var overlay []transport.Header
	if a.tokens != nil {
		if token := a.tokens.AccessToken(); token != "" {
			overlay = []transport.Header{transport.BearerHeader(token)}
		}
	}

	return a.exec.ExecuteWith(ctx, transport.NewRequest(opts), overlay)
}
