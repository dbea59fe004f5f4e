package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/roach88/prodtest/internal/engine"
)

// Default polling for eventually-consistent reads.
const (
	DefaultPollInterval      = 500 * time.Millisecond
	DefaultEventuallyTimeout = time.Minute
)

// Polling bounds a ContainsEventually loop.
type Polling struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (p Polling) withDefaults() Polling {
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultEventuallyTimeout
	}
	return p
}

// TimeoutError is returned when an eventually-consistent expectation is
// still unmet at the deadline. It is an operational error: the scenario is
// reported as errored, not failed.
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("condition not met within %s after %d attempts", e.Timeout, e.Attempts)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

// IsTimeoutError reports whether err wraps a TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Query produces a result to check.
type Query func(ctx context.Context) (*engine.Result, error)

// ContainsEventually re-runs query until its result contains every
// expected row or p.Timeout passes. Query errors and mismatches are both
// retried; the last one is carried by the TimeoutError. Only cancellation
// of ctx ends the loop early.
func ContainsEventually(ctx context.Context, p Polling, query Query, expected ...Row) error {
	p = p.withDefaults()
	dctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(p.Interval), 1)
	attempts := 0
	var last error

	timedOut := func() bool {
		return errors.Is(dctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	}

	for {
		if err := limiter.Wait(dctx); err != nil {
			if timedOut() || dctx.Err() == nil {
				// Wait also fails when the next token falls after the deadline
				return &TimeoutError{Timeout: p.Timeout, Attempts: attempts, Last: last}
			}
			return err
		}

		attempts++
		result, err := query(dctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if dctx.Err() == nil {
				last = err
			}
			continue
		}
		last = Contains(result, expected...)
		if last == nil {
			return nil
		}
	}
}
