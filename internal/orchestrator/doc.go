// Package orchestrator is the scene-scheduling engine for Showcue Core.
//
// Given a declarative list of named scenes with durations, it drives a
// wall-clock-synchronized timeline that starts, pauses, resumes, skips, and
// force-jumps between scenes while continuously publishing an observable
// progress snapshot.
//
// Architecture:
//
//	┌────────────────────────────────────────────────────────┐
//	│                 Handle (handle.go)                     │
//	│  External façade: commands in, state feed out          │
//	│        │                                               │
//	│        ▼ unbounded mailbox (mailbox.go)                │
//	│  ┌──────────────────────────────────────────────┐      │
//	│  │  engine actor (engine.go)                    │      │
//	│  │  single goroutine, exclusive state ownership │      │
//	│  │                                              │      │
//	│  │  Timeline ◀── CompileTimeline (timeline.go)  │      │
//	│  │  Cursor   ──▶ ApplyUntil       (cursor.go)   │      │
//	│  │  engineState: reducer + clock  (state.go)    │      │
//	│  └──────────────────────────────────────────────┘      │
//	│        │                                               │
//	│        ▼ latest-value Feed (feed.go)                   │
//	│  any number of observers, none can block the engine    │
//	└────────────────────────────────────────────────────────┘
//
// # Replay
//
// Pause/Resume, ForceScene, SkipCurrentScene, and Reset all share one
// primitive: reconstruct-from-start. Rather than special-casing each jump,
// the engine clears its active set, rewinds the cursor, and replays every
// event from time zero to the target. Events are idempotent range-folds over
// time, so the result is bit-identical to what continuous ticking would have
// produced; afterwards the wall-clock anchor is recomputed as now − target so
// the next tick continues from exactly the target offset.
//
// # Key Types
//
//   - Config / SceneConfig: the declarative schedule
//   - Timeline: immutable, time-sorted compiled events
//   - Cursor: monotonic replay pointer, at-most-once in-order delivery
//   - State: the derived, externally observable snapshot
//   - Feed: single-slot latest-value broadcast with change notification
//   - Handle: command façade and lifecycle owner
//
// # Thread Safety
//
// The engine actor has exclusive ownership of Timeline, Cursor, and engine
// state; there is no internal locking because there is exactly one writer.
// Handle and Feed are safe for concurrent use.
package orchestrator
