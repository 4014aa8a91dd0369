package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds an operation when TimeoutConfig.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures a Timeout.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds operations run through Call with a deadline.
//
// Contract:
//   - Concurrency: safe for concurrent use; holds no per-call state.
//   - Context: op receives a context cancelled at the deadline and must honor it.
//   - Errors: ErrTimeout when the deadline passes; the parent context's error
//     when the caller cancels; op's error otherwise.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Timeout{config: config}
}

type result[T any] struct {
	value T
	err   error
}

// Call runs op under t's deadline and returns its result. When the deadline
// or the caller's cancellation wins, op's eventual result is discarded.
func Call[T any](ctx context.Context, t *Timeout, op func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan result[T], 1)

	go func() {
		v, err := op(ctx)
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
