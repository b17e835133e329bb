package retry

import (
	"context"
	"errors"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
)

// Default retry constants
const (
	DefaultMaxAttempts   = 3
	DefaultDelay         = time.Second
	DefaultBackoffFactor = 2.0
)

// Policy controls how many times an operation runs and how long Do waits between attempts.
// Zero fields fall back to the package defaults. With NoDelay set, attempts run back to back.
type Policy struct {
	MaxAttempts   int
	Delay         time.Duration
	BackoffFactor float64
	NoDelay       bool // Retry immediately, ignoring Delay and BackoffFactor
}

// DefaultPolicy is used for the zero Policy.
var DefaultPolicy = Policy{
	MaxAttempts:   DefaultMaxAttempts,
	Delay:         DefaultDelay,
	BackoffFactor: DefaultBackoffFactor,
}

// Operation performs one attempt. attempt is 1-based.
type Operation func(ctx context.Context, attempt int) error

type abortError struct{ err error }

func (a *abortError) Error() string { return a.err.Error() }
func (a *abortError) Unwrap() error { return a.err }

// Abort wraps err so Do returns it immediately without further attempts.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}

// Do executes the provided operation, retrying according to the policy if it fails.
// An error wrapped with Abort stops the loop; Do then returns the unwrapped error.
func Do(ctx context.Context, operationName string, policy Policy, op Operation) error {
	if err := ctx.Err(); err != nil {
		logger.L().Warn("Operation cancelled before first attempt due to context error", "operation", operationName, "error", err)
		return err
	}

	p := policy.withDefaults()
	l := logger.L().With("operation", operationName)
	currentDelay := p.Delay

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		l.Debug("Executing operation", "attempt", attempt, "max_attempts", p.MaxAttempts)
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			if attempt > 1 {
				l.Info("Operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		var abort *abortError
		if errors.As(lastErr, &abort) {
			l.Debug("Operation aborted", "attempt", attempt, "error", abort.err)
			return abort.err
		}

		l.Warn("Operation failed", "attempt", attempt, "max_attempts", p.MaxAttempts, "error", lastErr)
		if attempt == p.MaxAttempts {
			l.Error("Operation failed after exhausting all attempts", "error", lastErr)
			break
		}

		if p.NoDelay {
			continue
		}
		select {
		case <-time.After(currentDelay):
			currentDelay = time.Duration(float64(currentDelay) * p.BackoffFactor)
		case <-ctx.Done():
			l.Warn("Retry cancelled due to context cancellation", "error", ctx.Err())
			return ctx.Err()
		}
	}

	return lastErr
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.Delay <= 0 && !p.NoDelay {
		p.Delay = DefaultPolicy.Delay
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = DefaultPolicy.BackoffFactor
	}
	return p
}
