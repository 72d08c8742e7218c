package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/shared"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 500 * time.Millisecond
	DefaultMaxBackoff  = 8 * time.Second
)

// RetryPolicy bounds how often a single operation is attempted.
//
// MaxAttempts counts every request, the first included. Backoff is the delay before the second attempt and doubles
// up to MaxBackoff; zero disables waiting.
type RetryPolicy struct {
	MaxAttempts int
	Retryable   func(error) bool
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy retries 502 responses, three attempts in total.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(DefaultMaxAttempts, DefaultBackoff)
}

// NewRetryPolicy builds a 502-retrying policy with the given attempt cap and initial backoff.
func NewRetryPolicy(maxAttempts int, backoff time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Retryable:   Retry502,
		Backoff:     backoff,
		MaxBackoff:  DefaultMaxBackoff,
	}
}

// Retry502 reports whether err carries an HTTP 502 Bad Gateway.
func Retry502(err error) bool {
	return shared.StatusCode(err) == http.StatusBadGateway
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the attempt cap is reached.
//
// Exhaustion is logged and returned as a [shared.RetriesExhaustedError]. The attempt counter is local to this call.
func (p RetryPolicy) Do(ctx context.Context, logger *log.Logger, op string, fn func(context.Context) error) error {
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	attempts := max(p.MaxAttempts, 1)
	delay := p.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		logger.Warn("retryable failure", "op", op, "attempt", attempt, "max_attempts", attempts, "err", err)

		if attempt == attempts {
			break
		}

		if delay > 0 {
			if werr := wait(ctx, delay); werr != nil {
				return werr
			}
			delay *= 2
			if p.MaxBackoff > 0 && delay > p.MaxBackoff {
				delay = p.MaxBackoff
			}
		}
	}

	logger.Error("exceeded max retries", "op", op, "attempts", attempts)
	return &shared.RetriesExhaustedError{Op: op, Attempts: attempts, Last: err}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
