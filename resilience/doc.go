// Package resilience bounds upstream work in time.
//
// Timeout runs an operation under a deadline and reports ErrTimeout when the
// deadline passes first. Call is the generic form for operations that return
// a value:
//
//	t := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: 30 * time.Second})
//
//	resp, err := resilience.Call(ctx, t, func(ctx context.Context) (*Response, error) {
//	    return fetch(ctx)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // the deadline passed before fetch returned
//	}
//
// The gateway does not retry: each request makes at most one login and one
// fetch.
package resilience
