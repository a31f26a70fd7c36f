// ABOUTME: Retrying wrapper for outbound calls with exponential backoff.
// ABOUTME: Transient failures retry up to a cap; rejections short-circuit immediately.

package resilient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/voyager-gateway/internal/apierr"
)

const (
	// DefaultMaxAttempts bounds the total tries for a transient failure.
	DefaultMaxAttempts = 3

	// DefaultBaseBackoff is the unit multiplied by 2^attempt between tries.
	DefaultBaseBackoff = time.Second

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second
)

// transientError marks an error as retriable.
type transientError struct {
	err error
}

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }

// Transient marks an error as retriable. Operations wrap connection
// failures, timeouts, and 5xx-equivalent statuses this way.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether the error was marked retriable.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Operation performs one network round trip. It returns nil on success,
// a Transient-wrapped error for retriable failures, and any other error
// for failures that must not be retried.
type Operation func(ctx context.Context) error

// Options configures a Client.
type Options struct {
	MaxAttempts int
	BaseBackoff time.Duration
	Timeout     time.Duration
}

// Client executes operations with retry, backoff, and classification.
type Client struct {
	opts   Options
	logger *slog.Logger

	// sleep is swapped in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client. Zero option fields take package defaults.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = DefaultBaseBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:   opts,
		logger: logger.With("component", "resilient"),
		sleep:  sleepCtx,
	}
}

// Do runs the operation against the named target.
// Transient failures are retried with backoff base * 2^attempt; after
// MaxAttempts the last failure is returned as a ConnectionExhausted error.
// Non-transient failures return immediately as a RequestRejected error.
func (c *Client) Do(ctx context.Context, target string, op Operation) error {
	var lastErr error

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		err := op(attemptCtx)
		cancel()

		if err == nil {
			c.logger.Debug("call succeeded", "target", target, "attempt", attempt)
			return nil
		}

		if !IsTransient(err) {
			c.logger.Warn("call rejected",
				"target", target,
				"attempt", attempt,
				"error", err)
			return apierr.Wrap(err, apierr.KindRequestRejected,
				fmt.Sprintf("%s rejected the request", target))
		}

		lastErr = err
		c.logger.Warn("call failed",
			"target", target,
			"attempt", attempt,
			"max_attempts", c.opts.MaxAttempts,
			"error", err)

		if attempt == c.opts.MaxAttempts {
			break
		}

		// Exponential backoff: attempt k waits base * 2^k.
		wait := c.opts.BaseBackoff * (1 << attempt)
		if err := c.sleep(ctx, wait); err != nil {
			return apierr.Wrap(err, apierr.KindConnectionExhausted,
				fmt.Sprintf("%s call abandoned", target))
		}
	}

	return apierr.Wrap(lastErr, apierr.KindConnectionExhausted,
		fmt.Sprintf("%s unreachable after %d attempts", target, c.opts.MaxAttempts))
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
