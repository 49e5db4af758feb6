package transport

import (
	"fmt"

	"github.com/desertthunder/spotx/internal/shared"
)

// RateLimitedError is returned for a 429 when waiting out the limit is turned off.
type RateLimitedError struct {
	WaitSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %d seconds", e.WaitSeconds)
}

func (e *RateLimitedError) Is(target error) bool { return target == shared.ErrRateLimited }

// AuthenticationError carries an OAuth style error body.
type AuthenticationError struct {
	StatusCode int
	Body       AuthErrorBody
}

func (e *AuthenticationError) Error() string {
	if e.Body.ErrorDescription != "" {
		return fmt.Sprintf("authentication failed (%d): %s: %s", e.StatusCode, e.Body.Error, e.Body.ErrorDescription)
	}
	return fmt.Sprintf("authentication failed (%d): %s", e.StatusCode, e.Body.Error)
}

func (e *AuthenticationError) Is(target error) bool { return target == shared.ErrAuthFailed }

// BadRequestError is the terminal error for every failed request that is not a rate limit or an auth error.
//
// API is set when the body parsed as a regular API error. Cause holds the underlying failure otherwise.
type BadRequestError struct {
	StatusCode int
	URL        string
	API        *APIErrorBody
	Cause      error
}

func (e *BadRequestError) Error() string {
	switch {
	case e.API != nil:
		return fmt.Sprintf("request failed (%d): %s (reason: %s)", e.API.Status, e.API.Message, e.API.Reason)
	case e.Cause != nil:
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Cause)
	default:
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
	}
}

func (e *BadRequestError) Unwrap() error { return e.Cause }

func (e *BadRequestError) Is(target error) bool { return target == shared.ErrAPIRequest }

// TokenRefreshError wraps a failure to obtain a fresh access token.
type TokenRefreshError struct {
	Err error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }

func (e *TokenRefreshError) Is(target error) bool { return target == shared.ErrRefreshFailed }

// StatusError is the raw failed response kept as the cause of an unclassified [BadRequestError].
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ParseError reports a body that did not match the expected error shape.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == shared.ErrDecode }
