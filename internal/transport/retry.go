package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// RetryUnlimited retries server errors until a non-5xx response arrives.
	RetryUnlimited = -1
	// RetryDisabled never retries server errors.
	RetryDisabled = 0
)

// Options are the per-executor retry policies.
type Options struct {
	// RetryOnServerErrorTimes is the 5xx retry budget: [RetryUnlimited], [RetryDisabled] or a positive count.
	RetryOnServerErrorTimes int
	// RetryWhenRateLimited waits out a 429 and retries instead of returning [RateLimitedError].
	RetryWhenRateLimited bool
	// AutomaticRefresh refreshes the token and replays the request on an expired-token 401.
	AutomaticRefresh bool
	// Debug logs every retry decision.
	Debug bool
	// ParseMode is used for error bodies.
	ParseMode ParseMode
	// RequestsPerSecond paces physical attempts; 0 disables pacing.
	RequestsPerSecond float64
}

// DefaultOptions returns five server error retries with rate limit waiting and automatic refresh on.
func DefaultOptions() Options {
	return Options{
		RetryOnServerErrorTimes: 5,
		RetryWhenRateLimited:    true,
		AutomaticRefresh:        true,
		ParseMode:               Lenient,
	}
}

// ExecutorOpts holds the collaborators of an [Executor].
type ExecutorOpts struct {
	Transport Doer
	Tokens    TokenProvider // optional; without it a 401 is classified like any other failure
	Options   Options
	Logger    *log.Logger
}

// Executor runs logical requests against a [Doer], applying the retry policies in [Options].
//
// An Executor holds no per-request state and is safe for concurrent use.
type Executor struct {
	transport Doer
	tokens    TokenProvider
	opts      Options
	logger    *log.Logger
	limiter   *rate.Limiter
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an [Executor].
func NewExecutor(opts ExecutorOpts) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.Options.RequestsPerSecond > 0 {
		burst := int(opts.Options.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Options.RequestsPerSecond), burst)
	}

	return &Executor{
		transport: opts.Transport,
		tokens:    opts.Tokens,
		opts:      opts.Options,
		logger:    shared.WithLogger(logger, "component", "executor"),
		limiter:   limiter,
		sleep:     sleepContext,
	}
}

// Options returns the executor's policies.
func (e *Executor) Options() Options { return e.opts }

// Execute runs req with no header overlay.
func (e *Executor) Execute(ctx context.Context, req *Request) (*Response, error) {
	return e.ExecuteWith(ctx, req, nil)
}

// ExecuteWith runs req, merging overlay over the request's headers on every attempt.
//
// Each response is handled in priority order: a 5xx is retried while the budget lasts, a 429 is waited out
// (Retry-After + 1 seconds) or reported as [RateLimitedError], a 401 for an expired access token triggers a
// refresh and replay, any other failure is classified and a 2xx is returned.
func (e *Executor) ExecuteWith(ctx context.Context, req *Request, overlay []Header) (*Response, error) {
	headers := cloneHeaders(overlay)
	budget := e.opts.RetryOnServerErrorTimes
	chain := e.logger.With("request_id", shared.GenerateID(), "method", req.Method(), "url", req.URL())

	for attempt := 1; ; attempt++ {
		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		httpReq, err := req.Build(ctx, headers)
		if err != nil {
			return nil, &BadRequestError{URL: req.URL(), Cause: err}
		}

		e.debug(chain, "sending request", "attempt", attempt)
		resp, err := e.transport.Do(ctx, httpReq)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.debug(chain, "no response", "attempt", attempt, "error", err)
			return nil, &BadRequestError{URL: req.URL(), Cause: err}
		}
		e.debug(chain, "received response", "attempt", attempt, "status", resp.StatusCode)

		switch {
		case resp.StatusCode >= 500 && resp.StatusCode <= 599:
			if budget == RetryDisabled || budget < RetryUnlimited {
				e.debug(chain, "server error, not retrying", "status", resp.StatusCode)
				return nil, serverErrorExhausted(req, resp, e.opts.ParseMode)
			}
			if budget > 0 {
				budget--
			}
			e.debug(chain, "server error, retrying", "status", resp.StatusCode, "remaining", budget)
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			seconds, err := retryAfter(resp)
			if err != nil {
				e.debug(chain, "rate limited without usable Retry-After", "error", err)
				return nil, &BadRequestError{StatusCode: resp.StatusCode, URL: req.URL(), Cause: err}
			}
			wait := seconds + 1
			if !e.opts.RetryWhenRateLimited {
				e.debug(chain, "rate limited, not waiting", "wait_seconds", wait)
				return nil, &RateLimitedError{WaitSeconds: wait}
			}
			e.debug(chain, "rate limited, waiting", "wait_seconds", wait)
			if err := e.sleep(ctx, time.Duration(wait)*time.Second); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode == http.StatusUnauthorized && e.shouldRefresh(resp):
			e.debug(chain, "access token rejected, refreshing")
			if err := e.tokens.Refresh(ctx); err != nil {
				e.debug(chain, "refresh failed", "error", err)
				return nil, err
			}
			headers = withAuthorization(headers, e.tokens.AccessToken())
			continue

		case !resp.OK():
			err := Classify(req, resp, e.opts.ParseMode)
			e.debug(chain, "request failed", "status", resp.StatusCode, "error", err)
			return nil, err
		}

		return resp, nil
	}
}

func (e *Executor) shouldRefresh(resp *Response) bool {
	return e.opts.AutomaticRefresh && e.tokens != nil && strings.Contains(resp.Body, "access token")
}

func (e *Executor) wait(ctx context.Context) error {
	if e.limiter == nil {
		return ctx.Err()
	}
	if err := e.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Wait also fails when the deadline falls before the next token.
		return context.DeadlineExceeded
	}
	return nil
}

func (e *Executor) debug(l *log.Logger, msg string, kv ...any) {
	if e.opts.Debug {
		l.Debug(msg, kv...)
	}
}

// retryAfter reads the Retry-After header as a non-negative number of seconds.
func retryAfter(resp *Response) (int, error) {
	value, ok := resp.Header("Retry-After")
	if !ok {
		return 0, shared.ErrMissingRetryAfter
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%w: %q", shared.ErrMissingRetryAfter, value)
	}
	return seconds, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
