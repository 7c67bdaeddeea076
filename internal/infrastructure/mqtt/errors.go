package mqtt

import "errors"

// Sentinel errors for bus operations. Callers match with errors.Is; the
// command router turns most of these into nacks rather than crashing a show.
var (
	// ErrNotConnected: the broker link is down. Publishes of scene state
	// are dropped by the caller and the retained topics go stale until
	// the reconnect restores them.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed: the initial connect did not complete. The
	// service refuses to start without its bus.
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")

	// ErrPublishFailed wraps broker-side publish failures and oversized
	// payloads.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps broker-side subscribe failures and a nil
	// handler.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed wraps broker-side unsubscribe failures.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS: QoS outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: QoS must be 0, 1, or 2")

	// ErrInvalidTopic: empty topic string.
	ErrInvalidTopic = errors.New("mqtt: empty topic")

	// ErrTimeout: a broker acknowledgement did not arrive in time.
	ErrTimeout = errors.New("mqtt: broker acknowledgement timed out")
)
