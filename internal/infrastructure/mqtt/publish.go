package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outgoing messages at 1MB. A compiled show of a few
// hundred scenes serialises to well under this; anything larger is a bug
// or an abuse, and most brokers would refuse it anyway.
const maxPayloadSize = 1 << 20

// Publish sends one message to the bus.
//
// The service uses two publication shapes: retained state (per-stream
// update topics and the system status topic, so a dashboard joining
// mid-show immediately sees the current scene) and non-retained events
// (command acks, the aggregate update firehose). Retention is the
// caller's choice per topic; this method just carries it through.
//
// QoS 1 is the house default — a duplicate state update is harmless
// because snapshots are absolute, not deltas.
//
// Returns ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or a wrapped
// ErrPublishFailed/ErrTimeout.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload is %d bytes, cap is %d", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: publish to %s", ErrTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
