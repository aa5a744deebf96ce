// Package retry implements the retry-with-backoff loop wrapping a single
// request attempt: retryable HTTP status codes and transport-level errors
// both trigger a retry, up to a configured attempt budget, with
// exponential backoff between attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/firasghr/stealthscraper/transport"
)

// DefaultRetryCodes is the default set of HTTP status codes considered
// retryable: 429 and the 5xx family.
var DefaultRetryCodes = map[int]bool{
	429: true, 500: true, 502: true, 503: true, 504: true,
}

// Config tunes the retry loop.
type Config struct {
	MaxRetries  int          // additional attempts after the first; default 3
	RetryCodes  map[int]bool // status codes that trigger a retry; default DefaultRetryCodes
	BackoffBase float64      // backoff = BackoffBase^attempt seconds; default 2.0

	// Sleep waits for d or until ctx is canceled, whichever comes first,
	// returning ctx.Err() in the latter case. Default ctxSleep.
	Sleep   func(ctx context.Context, d time.Duration) error
	OnRetry func() // called once per retry, before the backoff sleep; nil is a no-op
}

// Engine executes a single logical request with retry-on-failure semantics.
type Engine struct {
	maxRetries  int
	retryCodes  map[int]bool
	backoffBase float64
	sleep       func(ctx context.Context, d time.Duration) error
	onRetry     func()
}

// ctxSleep waits for d or until ctx is canceled, whichever comes first.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New builds an Engine from cfg, filling in defaults for zero-valued fields.
func New(cfg Config) *Engine {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryCodes == nil {
		cfg.RetryCodes = DefaultRetryCodes
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 2.0
	}
	if cfg.Sleep == nil {
		cfg.Sleep = ctxSleep
	}
	return &Engine{
		maxRetries:  cfg.MaxRetries,
		retryCodes:  cfg.RetryCodes,
		backoffBase: cfg.BackoffBase,
		sleep:       cfg.Sleep,
		onRetry:     cfg.OnRetry,
	}
}

func (e *Engine) notifyRetry() {
	if e.onRetry != nil {
		e.onRetry()
	}
}

// MaxRetriesExceeded is returned when the final attempt failed at the
// transport layer (dial/handshake/I-O error, never an HTTP response);
// earlier attempts may have returned retryable statuses.
type MaxRetriesExceeded struct {
	URL      string
	Attempts int
	LastErr  error
}

func (e *MaxRetriesExceeded) Error() string {
	return fmt.Sprintf("retry: exceeded %d attempts for %s: %v", e.Attempts, e.URL, e.LastErr)
}

func (e *MaxRetriesExceeded) Unwrap() error { return e.LastErr }

func (e *Engine) backoff(attempt int) time.Duration {
	seconds := 1.0
	for i := 0; i < attempt; i++ {
		seconds *= e.backoffBase
	}
	return time.Duration(seconds * float64(time.Second))
}

// Do executes attempt up to 1+MaxRetries times. attempt performs one
// request and returns its transport-level outcome unmodified.
//
// A transport-level error (attempt returns a non-nil error) retries until
// the budget is exhausted, at which point *MaxRetriesExceeded wraps the
// last error. A response whose status code is in the retryable set also
// retries on backoff, but if the budget is exhausted the last response is
// returned as-is (the caller decides whether a 503 on the final attempt is
// acceptable) rather than being turned into an error.
func (e *Engine) Do(ctx context.Context, url string, attempt func(ctx context.Context) (*transport.Response, error)) (*transport.Response, error) {
	var lastErr error

	for i := 0; i <= e.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := attempt(ctx)
		if err != nil {
			lastErr = err
			if i < e.maxRetries {
				e.notifyRetry()
				if serr := e.sleep(ctx, e.backoff(i)); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, &MaxRetriesExceeded{URL: url, Attempts: i + 1, LastErr: lastErr}
		}

		if e.retryCodes[resp.StatusCode] && i < e.maxRetries {
			e.notifyRetry()
			if serr := e.sleep(ctx, e.backoff(i)); serr != nil {
				return nil, serr
			}
			continue
		}

		return resp, nil
	}

	// Unreachable: the loop above always returns or raises before falling
	// off the end.
	return nil, &MaxRetriesExceeded{URL: url, Attempts: e.maxRetries + 1, LastErr: lastErr}
}
