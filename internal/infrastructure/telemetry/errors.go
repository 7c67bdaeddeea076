package telemetry

import "errors"

// Sentinel errors, matched with errors.Is. Write failures never appear
// here: the write path is fire-and-forget and reports through the
// SetOnError callback instead.
var (
	// ErrNotConnected: the client was closed or never connected; writes
	// and health checks are refused.
	ErrNotConnected = errors.New("telemetry: not connected")

	// ErrConnectionFailed: the startup ping did not succeed.
	ErrConnectionFailed = errors.New("telemetry: connection failed")

	// ErrDisabled: telemetry is switched off in config; the service runs
	// without a recording sink.
	ErrDisabled = errors.New("telemetry: disabled in configuration")
)
