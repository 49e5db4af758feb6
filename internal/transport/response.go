package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

// Response is the normalized result of one round trip that produced an HTTP response, whatever its status.
type Response struct {
	StatusCode int      `json:"status_code"`
	Body       string   `json:"body"`
	Headers    []Header `json:"headers"`
}

// newResponse normalizes an [http.Response] whose body has already been read.
//
// Only the first value of each header is kept and headers are sorted by key.
func newResponse(resp *http.Response, body []byte) *Response {
	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]Header, 0, len(keys))
	for _, k := range keys {
		if values := resp.Header[k]; len(values) > 0 {
			headers = append(headers, Header{Key: k, Value: values[0]})
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Headers:    headers,
	}
}

// Header looks up a response header case-insensitively.
func (r *Response) Header(key string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v using the given [ParseMode].
func (r *Response) Decode(v any, mode ParseMode) error {
	if err := decodeJSON(r.Body, v, mode); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	return nil
}

// decodeJSON decodes a single JSON value from body. Strict mode rejects unknown fields.
func decodeJSON(body string, v any, mode ParseMode) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if mode == Strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}
