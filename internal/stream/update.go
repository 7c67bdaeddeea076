package stream

import (
	"encoding/json"
	"time"

	"github.com/showcue/showcue-core/internal/orchestrator"
)

// StateUpdate is the published record for one stream state change.
//
// It is the wire form of an orchestrator snapshot: flattened, tagged with the
// stream ID, and timestamped at publication. Consumers on MQTT and WebSocket
// both receive this shape.
type StateUpdate struct {
	StreamID        string                    `json:"stream_id"`
	IsRunning       bool                      `json:"is_running"`
	IsPaused        bool                      `json:"is_paused"`
	CurrentTimeMS   int64                     `json:"current_time_ms"`
	TotalDurationMS int64                     `json:"total_duration_ms"`
	Progress        float64                   `json:"progress"`
	TimeRemainingMS int64                     `json:"time_remaining_ms"`
	CurrentScene    string                    `json:"current_scene,omitempty"`
	ActiveScenes    []SceneView               `json:"active_scenes,omitempty"`
	StreamStatus    orchestrator.StreamStatus `json:"stream_status"`
	Timestamp       time.Time                 `json:"timestamp"`
}

// SceneView is the externally visible form of one active scene lifetime.
type SceneView struct {
	Name      string          `json:"name"`
	StartedAt int64           `json:"started_at_ms"`
	Layout    json.RawMessage `json:"layout,omitempty"`
}

// NewStateUpdate flattens an orchestrator snapshot into the published record.
func NewStateUpdate(streamID string, s orchestrator.State, now time.Time) StateUpdate {
	var scenes []SceneView
	for _, lt := range s.ActiveLifetimes {
		if scene, ok := lt.Kind.(orchestrator.SceneKind); ok {
			scenes = append(scenes, SceneView{
				Name:      scene.Name,
				StartedAt: lt.StartedAt,
				Layout:    scene.Layout,
			})
		}
	}

	return StateUpdate{
		StreamID:        streamID,
		IsRunning:       s.IsRunning,
		IsPaused:        s.IsPaused,
		CurrentTimeMS:   s.CurrentTimeMS,
		TotalDurationMS: s.TotalDurationMS,
		Progress:        s.Progress,
		TimeRemainingMS: s.TimeRemainingMS,
		CurrentScene:    s.CurrentScene,
		ActiveScenes:    scenes,
		StreamStatus:    s.StreamStatus,
		Timestamp:       now.UTC(),
	}
}

// Sink receives state updates for delivery to one transport.
//
// Implementations must be safe for concurrent use; a ManagedOrchestrator
// invokes its sinks from the publisher goroutine, and several orchestrators
// may share one sink.
type Sink interface {
	PublishStateUpdate(streamID string, update StateUpdate) error
}
