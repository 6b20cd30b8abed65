package poller

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called on a running poller,
	// or a manual cycle is requested while another cycle is in flight.
	ErrAlreadyRunning = errors.New("poller already running")

	// ErrNotRunning is returned when Stop is called on a stopped poller.
	ErrNotRunning = errors.New("poller not running")

	// ErrCredentialsMissing is returned when the message source has no
	// credentials configured. The supervisor skips the cycle and retries on
	// the next tick rather than shutting down.
	ErrCredentialsMissing = errors.New("source credentials missing")
)
