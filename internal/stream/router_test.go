package stream

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestRouter(t *testing.T) (*Router, *Manager, *mockBus) {
	t.Helper()
	bus := newMockBus()
	manager := newTestManager(t)
	router := NewRouter(bus, manager, RouterOptions{QoS: 1, CommandTimeout: 2 * time.Second})
	return router, manager, bus
}

func envelope(t *testing.T, streamID, command, requestID string, payload any) []byte {
	t.Helper()
	env := CommandEnvelope{
		StreamID:  streamID,
		Command:   command,
		RequestID: requestID,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshalling payload: %v", err)
		}
		env.Payload = raw
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshalling envelope: %v", err)
	}
	return data
}

// lastAck decodes the most recent ack published for requestID.
func lastAck(t *testing.T, bus *mockBus, requestID string) CommandAck {
	t.Helper()
	topic := "showcue/orchestrator/ack/" + requestID
	msgs := bus.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].topic == topic {
			var ack CommandAck
			if err := json.Unmarshal(msgs[i].payload, &ack); err != nil {
				t.Fatalf("decoding ack: %v", err)
			}
			return ack
		}
	}
	t.Fatalf("no ack published for %s", requestID)
	return CommandAck{}
}

func TestRouter_ConfigureCreatesStream(t *testing.T) {
	router, manager, bus := newTestRouter(t)

	payload := map[string]any{
		"scenes": []map[string]any{
			{"name": "intro", "duration_ms": 3000},
			{"name": "main", "duration_ms": 5000},
		},
		"tick_interval_ms": 50,
	}
	msg := envelope(t, "stream-a", CommandConfigure, "req-1", payload)

	if err := router.HandleMessage("showcue/orchestrator/command", msg); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	orch, err := manager.Get("stream-a")
	if err != nil {
		t.Fatalf("stream not created by configure: %v", err)
	}
	if got := orch.State().TotalDurationMS; got != 8000 {
		t.Errorf("TotalDurationMS = %d, want 8000", got)
	}

	ack := lastAck(t, bus, "req-1")
	if !ack.OK {
		t.Errorf("ack.OK = false, error = %q", ack.Error)
	}
	if ack.StreamID != "stream-a" {
		t.Errorf("ack.StreamID = %q, want %q", ack.StreamID, "stream-a")
	}
}

func TestRouter_ConfigureInvalidScheduleNacked(t *testing.T) {
	router, manager, bus := newTestRouter(t)

	// Duplicate scene names fail validation.
	payload := map[string]any{
		"scenes": []map[string]any{
			{"name": "intro", "duration_ms": 3000},
			{"name": "intro", "duration_ms": 5000},
		},
	}
	msg := envelope(t, "stream-a", CommandConfigure, "req-2", payload)

	if err := router.HandleMessage("showcue/orchestrator/command", msg); err == nil {
		t.Fatal("HandleMessage() expected validation error")
	}

	ack := lastAck(t, bus, "req-2")
	if ack.OK {
		t.Error("ack.OK = true for invalid schedule")
	}
	if ack.Error == "" {
		t.Error("ack.Error should describe the failure")
	}

	// The stream exists (created on first contact) but stays unconfigured.
	orch, err := manager.Get("stream-a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if orch.State().TotalDurationMS != 0 {
		t.Error("invalid configure should leave the engine unconfigured")
	}
}

func TestRouter_StartDrivesEngine(t *testing.T) {
	router, manager, bus := newTestRouter(t)

	cfg := map[string]any{
		"scenes":           []map[string]any{{"name": "intro", "duration_ms": 60000}},
		"tick_interval_ms": 5,
	}
	if err := router.HandleMessage("t", envelope(t, "s1", CommandConfigure, "req-3", cfg)); err != nil {
		t.Fatalf("configure error = %v", err)
	}
	if err := router.HandleMessage("t", envelope(t, "s1", CommandStart, "req-4", nil)); err != nil {
		t.Fatalf("start error = %v", err)
	}

	ack := lastAck(t, bus, "req-4")
	if !ack.OK {
		t.Fatalf("start ack.OK = false, error = %q", ack.Error)
	}

	orch, _ := manager.Get("s1")
	if !orch.State().IsRunning {
		t.Error("engine should be running after start command")
	}
}

func TestRouter_UnknownStreamNacked(t *testing.T) {
	router, _, bus := newTestRouter(t)

	err := router.HandleMessage("t", envelope(t, "ghost", CommandStart, "req-5", nil))
	if !errors.Is(err, ErrStreamNotFound) {
		t.Fatalf("HandleMessage() error = %v, want ErrStreamNotFound", err)
	}

	ack := lastAck(t, bus, "req-5")
	if ack.OK {
		t.Error("ack.OK = true for unknown stream")
	}
	if !strings.Contains(ack.Error, "not found") {
		t.Errorf("ack.Error = %q, want mention of not found", ack.Error)
	}
}

func TestRouter_UnknownCommandNacked(t *testing.T) {
	router, manager, bus := newTestRouter(t)

	if _, err := manager.Create("s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := router.HandleMessage("t", envelope(t, "s1", "explode", "req-6", nil))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("HandleMessage() error = %v, want ErrUnknownCommand", err)
	}

	ack := lastAck(t, bus, "req-6")
	if ack.OK {
		t.Error("ack.OK = true for unknown command")
	}
}

func TestRouter_MalformedEnvelope(t *testing.T) {
	router, _, bus := newTestRouter(t)

	err := router.HandleMessage("t", []byte("{not json"))
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("HandleMessage() error = %v, want ErrInvalidEnvelope", err)
	}

	if len(bus.messages()) != 0 {
		t.Error("no ack should be published for an undecodable envelope")
	}
}

func TestRouter_MissingStreamID(t *testing.T) {
	router, _, _ := newTestRouter(t)

	err := router.HandleMessage("t", envelope(t, "", CommandStart, "", nil))
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("HandleMessage() error = %v, want ErrInvalidEnvelope", err)
	}
}

func TestRouter_ForceSceneRequiresName(t *testing.T) {
	router, manager, _ := newTestRouter(t)

	if _, err := manager.Create("s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := router.HandleMessage("t", envelope(t, "s1", CommandForceScene, "", map[string]any{}))
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("HandleMessage() error = %v, want ErrInvalidEnvelope", err)
	}
}

func TestRouter_StreamStatus(t *testing.T) {
	router, manager, _ := newTestRouter(t)

	if _, err := manager.Create("s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	status := map[string]any{
		"is_streaming":   true,
		"stream_time_ms": 9000,
		"timecode":       "00:00:09",
	}
	if err := router.HandleMessage("t", envelope(t, "s1", CommandStreamStatus, "", status)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	orch, _ := manager.Get("s1")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if orch.State().StreamStatus.IsStreaming {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Error("stream status was not applied")
}

func TestRouter_NoAckWithoutRequestID(t *testing.T) {
	router, manager, bus := newTestRouter(t)

	if _, err := manager.Create("s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := router.HandleMessage("t", envelope(t, "s1", CommandSkipScene, "", nil)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if len(bus.messages()) != 0 {
		t.Error("fire-and-forget command without request_id should not publish anything")
	}
}

func TestRouter_StartSubscribes(t *testing.T) {
	router, _, bus := newTestRouter(t)

	if err := router.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := bus.handlers["showcue/orchestrator/command"]; !ok {
		t.Error("router did not subscribe to the command topic")
	}
}

func TestRouter_MaxScenesEnforced(t *testing.T) {
	bus := newMockBus()
	manager := newTestManager(t)
	router := NewRouter(bus, manager, RouterOptions{QoS: 1, MaxScenes: 2})

	payload := map[string]any{
		"scenes": []map[string]any{
			{"name": "a", "duration_ms": 1000},
			{"name": "b", "duration_ms": 1000},
			{"name": "c", "duration_ms": 1000},
		},
	}
	msg := envelope(t, "stream-a", CommandConfigure, "req-max", payload)

	if err := router.HandleMessage("showcue/orchestrator/command", msg); err == nil {
		t.Fatal("HandleMessage() expected error above the scene cap")
	}

	ack := lastAck(t, bus, "req-max")
	if ack.OK {
		t.Error("ack.OK = true for oversized schedule")
	}
	if !strings.Contains(ack.Error, "limit") {
		t.Errorf("ack.Error = %q, want mention of the limit", ack.Error)
	}
}

func TestRouter_DefaultTickIntervalApplied(t *testing.T) {
	bus := newMockBus()
	manager := newTestManager(t)
	router := NewRouter(bus, manager, RouterOptions{QoS: 1, TickInterval: 25 * time.Millisecond})

	// Schedule without its own tick interval.
	payload := map[string]any{
		"scenes": []map[string]any{
			{"name": "intro", "duration_ms": 3000},
		},
	}
	msg := envelope(t, "stream-a", CommandConfigure, "req-tick", payload)

	if err := router.HandleMessage("showcue/orchestrator/command", msg); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	ack := lastAck(t, bus, "req-tick")
	if !ack.OK {
		t.Fatalf("ack.OK = false, error = %q", ack.Error)
	}
}
