package stream

import "errors"

// Domain-specific errors for stream management.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrStreamExists is returned when creating a stream whose ID is taken.
	ErrStreamExists = errors.New("stream: stream already exists")

	// ErrStreamNotFound is returned when the addressed stream is unknown.
	ErrStreamNotFound = errors.New("stream: stream not found")

	// ErrManagerClosed is returned for operations on a closed manager.
	ErrManagerClosed = errors.New("stream: manager closed")

	// ErrUnknownCommand is returned for command names the router does not know.
	ErrUnknownCommand = errors.New("stream: unknown command")

	// ErrInvalidEnvelope is returned for command payloads that fail to decode.
	ErrInvalidEnvelope = errors.New("stream: invalid command envelope")
)
