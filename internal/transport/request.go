package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Method is one of the HTTP methods the Web API is called with.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
)

// Header is a single key/value pair. Order within a []Header is significant.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RequestOpts holds the values a [Request] is built from.
type RequestOpts struct {
	URL         string
	Method      Method
	BodyMap     map[string]string // form fields, used for POST/PUT with [ContentTypeForm]
	BodyString  string
	ContentType string // defaults to [ContentTypeJSON]
	Headers     []Header
}

// Request describes one logical call to the Web API.
//
// It is immutable: retries reuse the same Request and vary only the header overlay passed to [Request.Build].
type Request struct {
	url         string
	method      Method
	bodyMap     map[string]string
	bodyString  string
	contentType string
	headers     []Header
}

// NewRequest creates a [Request], copying the caller's map and header slice.
func NewRequest(opts RequestOpts) *Request {
	method := opts.Method
	if method == "" {
		method = MethodGet
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = ContentTypeJSON
	}

	var bodyMap map[string]string
	if len(opts.BodyMap) > 0 {
		bodyMap = make(map[string]string, len(opts.BodyMap))
		for k, v := range opts.BodyMap {
			bodyMap[k] = v
		}
	}

	return &Request{
		url:         opts.URL,
		method:      method,
		bodyMap:     bodyMap,
		bodyString:  opts.BodyString,
		contentType: contentType,
		headers:     cloneHeaders(opts.Headers),
	}
}

// URL returns the request URL.
func (r *Request) URL() string { return r.url }

// Method returns the HTTP method.
func (r *Request) Method() Method { return r.method }

// ContentType returns the content type sent with a body.
func (r *Request) ContentType() string { return r.contentType }

// Headers returns a copy of the request's own headers.
func (r *Request) Headers() []Header { return cloneHeaders(r.headers) }

// Body returns the canonical body encoding for the request's method and content type.
//
// The second return value is false when the request carries no body at all.
func (r *Request) Body() (string, bool) {
	switch r.method {
	case MethodPut, MethodPost:
		if isForm(r.contentType) && len(r.bodyMap) > 0 {
			return encodeForm(r.bodyMap), true
		}
		return r.bodyString, true
	case MethodDelete:
		if r.bodyString != "" {
			return r.bodyString, true
		}
		return "", false
	default:
		return "", false
	}
}

// Build produces a transport-ready [http.Request].
//
// Overlay headers replace same-keyed request headers; see [MergeHeaders].
func (r *Request) Build(ctx context.Context, overlay []Header) (*http.Request, error) {
	var body io.Reader
	content, hasBody := r.Body()
	if hasBody {
		body = strings.NewReader(content)
	}

	req, err := http.NewRequestWithContext(ctx, string(r.method), r.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if hasBody {
		req.Header.Set(headerContentType, r.contentType)
	}

	for _, h := range MergeHeaders(r.headers, overlay) {
		req.Header.Add(h.Key, h.Value)
	}

	return req, nil
}

// String describes the request without exposing the Authorization header.
func (r *Request) String() string {
	visible := make([]Header, 0, len(r.headers))
	for _, h := range r.headers {
		if h.Key != headerAuthorization {
			visible = append(visible, h)
		}
	}

	authNote := "no authorization header"
	if len(visible) != len(r.headers) {
		authNote = "authorization header hidden"
	}

	body := r.bodyString
	if body == "" && len(r.bodyMap) > 0 {
		body = encodeForm(r.bodyMap)
	}

	return fmt.Sprintf("Request(url=%s, method=%s, body=%q, contentType=%s, headers=%v, %s)",
		r.url, r.method, body, r.contentType, visible, authNote)
}

// MergeHeaders overlays headers onto base.
//
// Base entries whose key appears in overlay (compared case-sensitively, as stored) are dropped and the overlay is
// appended in order. Neither input is modified.
func MergeHeaders(base, overlay []Header) []Header {
	if overlay == nil {
		return cloneHeaders(base)
	}

	replaced := make(map[string]struct{}, len(overlay))
	for _, h := range overlay {
		replaced[h.Key] = struct{}{}
	}

	merged := make([]Header, 0, len(base)+len(overlay))
	for _, h := range base {
		if _, ok := replaced[h.Key]; !ok {
			merged = append(merged, h)
		}
	}
	return append(merged, overlay...)
}

// withAuthorization drops any Authorization entry from overlay and appends a bearer header for token.
func withAuthorization(overlay []Header, token string) []Header {
	next := make([]Header, 0, len(overlay)+1)
	for _, h := range overlay {
		if h.Key != headerAuthorization {
			next = append(next, h)
		}
	}
	return append(next, BearerHeader(token))
}

// BearerHeader returns the Authorization header for token.
func BearerHeader(token string) Header {
	return Header{Key: headerAuthorization, Value: "Bearer " + token}
}

func cloneHeaders(headers []Header) []Header {
	if headers == nil {
		return nil
	}
	out := make([]Header, len(headers))
	copy(out, headers)
	return out
}

func isForm(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), ContentTypeForm)
}

// encodeForm joins fields as k=v pairs with "&", keys sorted. Values are written verbatim.
func encodeForm(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	return strings.Join(pairs, "&")
}
