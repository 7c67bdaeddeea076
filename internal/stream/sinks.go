package stream

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/showcue/showcue-core/internal/infrastructure/mqtt"
)

// BusPublisher is the slice of the MQTT client the sink needs.
// Satisfied by *mqtt.Client; tests substitute a mock.
type BusPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes state updates onto the message bus.
//
// Each update goes to two topics: the per-stream topic (retained, so late
// joiners immediately see the latest state) and the aggregate topic shared
// by all streams (not retained).
type MQTTSink struct {
	bus BusPublisher
	qos byte
}

// NewMQTTSink creates a sink publishing through the given bus client.
func NewMQTTSink(bus BusPublisher, qos byte) *MQTTSink {
	return &MQTTSink{bus: bus, qos: qos}
}

// PublishStateUpdate implements Sink.
func (s *MQTTSink) PublishStateUpdate(streamID string, update StateUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("stream: marshalling state update: %w", err)
	}

	topics := mqtt.Topics{}
	if err := s.bus.Publish(topics.StreamUpdates(streamID), payload, s.qos, true); err != nil {
		return fmt.Errorf("stream: publishing state update: %w", err)
	}
	if err := s.bus.Publish(topics.StreamUpdatesAggregate(), payload, s.qos, false); err != nil {
		return fmt.Errorf("stream: publishing aggregate update: %w", err)
	}
	return nil
}

// Broadcaster is the slice of the WebSocket hub the sink needs.
// Satisfied by *api.Hub; tests substitute a mock.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubSink fans state updates out to connected WebSocket clients.
// Updates are broadcast on the "stream.state" channel.
type HubSink struct {
	hub Broadcaster
}

// NewHubSink creates a sink broadcasting through the given hub.
func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

// PublishStateUpdate implements Sink.
func (s *HubSink) PublishStateUpdate(streamID string, update StateUpdate) error {
	s.hub.Broadcast("stream.state", update)
	return nil
}

// StreamRecorder is the slice of the telemetry client the sink needs.
// Satisfied by *telemetry.Client; tests substitute a mock.
type StreamRecorder interface {
	WriteStreamMetric(streamID string, measurement string, value float64)
	WriteSceneTransition(streamID string, scene string, positionMS int64)
}

// TelemetrySink records stream position and scene transitions to the
// time-series store. Writes are batched by the telemetry client, so the
// sink never blocks the publisher goroutine.
type TelemetrySink struct {
	recorder StreamRecorder

	mu        sync.Mutex
	lastScene map[string]string
}

// NewTelemetrySink creates a sink recording through the given telemetry client.
func NewTelemetrySink(recorder StreamRecorder) *TelemetrySink {
	return &TelemetrySink{
		recorder:  recorder,
		lastScene: make(map[string]string),
	}
}

// PublishStateUpdate implements Sink.
//
// Position metrics are recorded only while the stream is running. A scene
// transition is recorded whenever the current scene differs from the one
// seen on the previous update for the same stream.
func (s *TelemetrySink) PublishStateUpdate(streamID string, update StateUpdate) error {
	if update.IsRunning {
		s.recorder.WriteStreamMetric(streamID, "current_time_ms", float64(update.CurrentTimeMS))
		s.recorder.WriteStreamMetric(streamID, "progress", update.Progress)
	}

	s.mu.Lock()
	prev := s.lastScene[streamID]
	s.lastScene[streamID] = update.CurrentScene
	s.mu.Unlock()

	if update.CurrentScene != "" && update.CurrentScene != prev {
		s.recorder.WriteSceneTransition(streamID, update.CurrentScene, update.CurrentTimeMS)
	}
	return nil
}
