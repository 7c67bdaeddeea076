package orchestrator

import (
	"bytes"
	"time"
)

// ActiveLifetime is one currently-open lifetime in engine state.
//
// Created by a LifetimeStart, removed by the matching LifetimeEnd. At any
// replay target T the active set equals exactly the starts at or before T
// minus the ends at or before T; that equivalence is what makes pause,
// resume, and seeks all collapse into one replay primitive.
type ActiveLifetime struct {
	ID        LifetimeID
	Kind      LifetimeKind
	StartedAt int64
}

// StreamStatus mirrors the external broadcast's own clock and on-air state.
// It is merged into snapshots verbatim and never influences the scheduling
// clock.
type StreamStatus struct {
	IsStreaming  bool   `json:"is_streaming"`
	StreamTimeMS int64  `json:"stream_time_ms"`
	Timecode     string `json:"timecode,omitempty"`
}

// State is the published snapshot of an orchestrator engine.
//
// It is derived by the reducer on every change and read-only for everyone
// else: observers receive copies through the latest-value feed and must not
// expect later snapshots to share memory with earlier ones.
type State struct {
	IsRunning       bool             `json:"is_running"`
	IsPaused        bool             `json:"is_paused"`
	Loop            bool             `json:"loop"`
	CurrentTimeMS   int64            `json:"current_time_ms"`
	TotalDurationMS int64            `json:"total_duration_ms"`
	Progress        float64          `json:"progress"`
	TimeRemainingMS int64            `json:"time_remaining_ms"`
	ActiveLifetimes []ActiveLifetime `json:"active_lifetimes,omitempty"`
	CurrentScene    string           `json:"current_scene,omitempty"`
	StreamStatus    StreamStatus     `json:"stream_status"`
}

// IsComplete reports whether the timeline is exhausted.
func (s State) IsComplete() bool {
	return s.TotalDurationMS > 0 && s.CurrentTimeMS >= s.TotalDurationMS
}

// equal compares two snapshots field by field. Used to suppress republishing
// unchanged state on every tick.
func (s State) equal(o State) bool {
	if s.IsRunning != o.IsRunning ||
		s.IsPaused != o.IsPaused ||
		s.Loop != o.Loop ||
		s.CurrentTimeMS != o.CurrentTimeMS ||
		s.TotalDurationMS != o.TotalDurationMS ||
		s.Progress != o.Progress ||
		s.TimeRemainingMS != o.TimeRemainingMS ||
		s.CurrentScene != o.CurrentScene ||
		s.StreamStatus != o.StreamStatus {
		return false
	}
	if len(s.ActiveLifetimes) != len(o.ActiveLifetimes) {
		return false
	}
	for i := range s.ActiveLifetimes {
		if !activeLifetimeEqual(s.ActiveLifetimes[i], o.ActiveLifetimes[i]) {
			return false
		}
	}
	return true
}

func activeLifetimeEqual(a, b ActiveLifetime) bool {
	if a.ID != b.ID || a.StartedAt != b.StartedAt {
		return false
	}
	ka, aOK := a.Kind.(SceneKind)
	kb, bOK := b.Kind.(SceneKind)
	if aOK != bOK {
		return false
	}
	if aOK {
		return ka.Name == kb.Name && bytes.Equal(ka.Layout, kb.Layout)
	}
	return a.Kind == b.Kind
}

// progressOf is current/total clamped to [0,1]; 0 when total is 0.
func progressOf(current, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(current) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// engineState is the mutable scheduling state owned exclusively by the
// engine actor. There is no locking because there is exactly one writer.
type engineState struct {
	// active almost always holds at most two lifetimes since the default
	// compiler never overlaps scenes; an ordinary slice is fine.
	active []ActiveLifetime

	// startAnchor is the wall-clock instant that corresponds to timeline
	// time zero. Zero value means the clock has not started.
	startAnchor time.Time

	// paused/pausedAt freeze the clock at a timeline offset.
	paused   bool
	pausedAt int64

	// accumulatedPause is subtracted from elapsed wall time. Replay resets
	// it to zero because the anchor is recomputed instead of adjusted.
	accumulatedPause time.Duration

	view State
}

// apply folds one timeline event into the active set. Pure with respect to
// everything except the active slice; it cannot fail because the Timeline is
// valid by construction.
func (s *engineState) apply(ev TimedEvent) {
	switch e := ev.Event.(type) {
	case LifetimeStart:
		s.active = append(s.active, ActiveLifetime{
			ID:        e.ID,
			Kind:      e.Kind,
			StartedAt: ev.At,
		})
	case LifetimeEnd:
		kept := s.active[:0]
		for _, lt := range s.active {
			if lt.ID != e.ID {
				kept = append(kept, lt)
			}
		}
		s.active = kept
	case Point:
		// One-shot marker: notify-only, never retained.
	}
}

// currentTime converts a wall-clock instant into timeline milliseconds,
// saturating at zero. Returns 0 before the clock has started.
func (s *engineState) currentTime(now time.Time) int64 {
	if s.startAnchor.IsZero() {
		return 0
	}
	elapsed := now.Sub(s.startAnchor) - s.accumulatedPause
	if elapsed < 0 {
		return 0
	}
	return elapsed.Milliseconds()
}

// syncView recomputes the full published snapshot from the active set and
// the given timeline offset. The snapshot owns a fresh copy of the active
// slice so observers never alias actor-owned memory.
func (s *engineState) syncView(currentTime, totalDuration int64) {
	remaining := totalDuration - currentTime
	if remaining < 0 {
		remaining = 0
	}

	var active []ActiveLifetime
	if len(s.active) > 0 {
		active = make([]ActiveLifetime, len(s.active))
		copy(active, s.active)
	}

	// Current scene: first active scene lifetime in insertion order, which
	// is also the earliest started since events apply in timestamp order.
	current := ""
	for _, lt := range s.active {
		if scene, ok := lt.Kind.(SceneKind); ok {
			current = scene.Name
			break
		}
	}

	s.view.CurrentTimeMS = currentTime
	s.view.TotalDurationMS = totalDuration
	s.view.Progress = progressOf(currentTime, totalDuration)
	s.view.TimeRemainingMS = remaining
	s.view.ActiveLifetimes = active
	s.view.CurrentScene = current
}

// clearActive drops all active lifetimes ahead of a replay from zero.
func (s *engineState) clearActive() {
	s.active = s.active[:0]
}
