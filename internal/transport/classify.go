package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

// ParseMode controls how strictly JSON bodies are decoded.
type ParseMode int

const (
	// Lenient ignores unknown fields.
	Lenient ParseMode = iota
	// Strict rejects unknown fields.
	Strict
)

func (m ParseMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// ParseModeFromString maps a config value to a [ParseMode]. The empty string is lenient.
func ParseModeFromString(s string) (ParseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("%w: unknown json mode %q", shared.ErrInvalidConfig, s)
	}
}

// APIErrorBody is the regular Web API error object.
type APIErrorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// AuthErrorBody is the OAuth error object returned by the accounts service.
type AuthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type apiErrorEnvelope struct {
	Error *struct {
		Status  *int    `json:"status"`
		Message *string `json:"message"`
		Reason  string  `json:"reason"`
	} `json:"error"`
}

type authErrorEnvelope struct {
	Error            *string `json:"error"`
	ErrorDescription string  `json:"error_description"`
}

// ParseAPIError decodes {"error":{"status":..,"message":..,"reason":..}}. Status and message are required.
func ParseAPIError(body string, mode ParseMode) (*APIErrorBody, error) {
	var env apiErrorEnvelope
	if err := decodeJSON(body, &env, mode); err != nil {
		return nil, &ParseError{Kind: "api error", Err: err}
	}
	if env.Error == nil {
		return nil, &ParseError{Kind: "api error", Err: errors.New("missing error object")}
	}
	if env.Error.Status == nil || env.Error.Message == nil {
		return nil, &ParseError{Kind: "api error", Err: errors.New("missing status or message")}
	}
	return &APIErrorBody{Status: *env.Error.Status, Message: *env.Error.Message, Reason: env.Error.Reason}, nil
}

// ParseAuthError decodes {"error":..,"error_description":..}. The error field is required.
func ParseAuthError(body string, mode ParseMode) (*AuthErrorBody, error) {
	var env authErrorEnvelope
	if err := decodeJSON(body, &env, mode); err != nil {
		return nil, &ParseError{Kind: "authentication error", Err: err}
	}
	if env.Error == nil {
		return nil, &ParseError{Kind: "authentication error", Err: errors.New("missing error field")}
	}
	return &AuthErrorBody{Error: *env.Error, ErrorDescription: env.ErrorDescription}, nil
}

// classifier turns a failed response into a typed error. It returns nil when the body is not its shape.
type classifier func(req *Request, resp *Response, mode ParseMode) error

// classifiers are tried in order; the first match wins.
var classifiers = []classifier{classifyAPIError, classifyAuthError}

func classifyAPIError(req *Request, resp *Response, mode ParseMode) error {
	api, err := ParseAPIError(resp.Body, mode)
	if err != nil {
		return nil
	}
	api.Reason += " URL: " + req.URL()
	return &BadRequestError{StatusCode: resp.StatusCode, URL: req.URL(), API: api}
}

func classifyAuthError(_ *Request, resp *Response, mode ParseMode) error {
	auth, err := ParseAuthError(resp.Body, mode)
	if err != nil {
		return nil
	}
	return &AuthenticationError{StatusCode: resp.StatusCode, Body: *auth}
}

// Classify maps a non-2xx response to the error returned to callers.
//
// When no error shape matches, the result is a [BadRequestError] wrapping the raw [StatusError].
func Classify(req *Request, resp *Response, mode ParseMode) error {
	for _, c := range classifiers {
		if err := c(req, resp, mode); err != nil {
			return err
		}
	}
	return &BadRequestError{
		StatusCode: resp.StatusCode,
		URL:        req.URL(),
		Cause:      &StatusError{StatusCode: resp.StatusCode, Body: resp.Body},
	}
}

// serverErrorExhausted builds the terminal error for a 5xx after the retry budget ran out.
// It never yields an [AuthenticationError].
func serverErrorExhausted(req *Request, resp *Response, mode ParseMode) error {
	if err := classifyAPIError(req, resp, mode); err != nil {
		return err
	}
	return &BadRequestError{
		StatusCode: resp.StatusCode,
		URL:        req.URL(),
		Cause:      fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}),
	}
}
