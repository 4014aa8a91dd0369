package health

import (
	"context"
	"net/http"
	"time"
)

// LiveBody is the body served by a live process.
const LiveBody = "Ok"

// Result contains the outcome of a health check as the HTTP response it
// should produce.
type Result struct {
	// Status is the HTTP status code to serve.
	Status int

	// Body is served verbatim.
	Body []byte

	// Duration is how long the check took.
	Duration time.Duration

	// Error is the error if the check could not be performed. When set,
	// Status and Body are ignored.
	Error error
}

// Live creates the result of a process that is running.
func Live() Result {
	return Result{Status: http.StatusOK, Body: []byte(LiveBody)}
}

// Failed creates a result for a check that could not be performed.
func Failed(err error) Result {
	return Result{Error: err}
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}

// Liveness reports the process as live without consulting any dependency.
var Liveness Checker = NewCheckerFunc("liveness", func(context.Context) Result {
	return Live()
})
