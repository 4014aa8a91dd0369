package health

import "errors"

var (
	// ErrMissingTarget indicates a forwarder was created without a target.
	ErrMissingTarget = errors.New("health: forward target is required")

	// ErrForwardFailed indicates the forwarded health request did not complete.
	ErrForwardFailed = errors.New("health: forward failed")
)
