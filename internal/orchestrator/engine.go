package orchestrator

import (
	"context"
	"time"
)

// Logger defines the logging interface for the orchestrator package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// commandKind enumerates the engine's command protocol.
type commandKind int

const (
	cmdConfigure commandKind = iota
	cmdStart
	cmdPause
	cmdResume
	cmdStop
	cmdReset
	cmdForceScene
	cmdSkipScene
	cmdStreamStatus
)

// command is one message on the engine mailbox. Request/response commands
// carry a buffered reply channel and are answered exactly once;
// fire-and-forget commands leave reply nil.
type command struct {
	kind   commandKind
	cfg    Config
	scene  string
	status StreamStatus
	reply  chan error
}

// engine is the actor that owns one Timeline + Cursor + engineState triple.
//
// It runs as a single goroutine with exclusive ownership of its state; there
// is no internal locking because there is exactly one writer. The tick timer
// and the command mailbox are merged into one select, so the engine is never
// doing two things at once and every state transition is serialized.
type engine struct {
	log     Logger
	now     func() time.Time
	mailbox *mailbox
	feed    *Feed

	cfg      Config
	timeline *Timeline
	cursor   Cursor
	state    engineState

	lastPublished State
}

func newEngine(log Logger, now func() time.Time) *engine {
	if log == nil {
		log = noopLogger{}
	}
	if now == nil {
		now = time.Now
	}
	return &engine{
		log:     log,
		now:     now,
		mailbox: newMailbox(),
		feed:    NewFeed(),
	}
}

// run is the actor loop. It exits when ctx is cancelled; shutdown latency is
// bounded by at most one tick.
func (e *engine) run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			e.handleTick()

		case <-e.mailbox.wait():
			for _, cmd := range e.mailbox.drain() {
				if e.handleCommand(cmd) {
					ticker.Reset(e.cfg.tickInterval())
				}
			}
		}
	}
}

// handleTick advances the clock when running, applies any events the new
// time has crossed, and republishes the snapshot if it changed.
func (e *engine) handleTick() {
	if e.timeline == nil || !e.state.view.IsRunning || e.state.paused {
		return
	}

	current := e.state.currentTime(e.now())

	if e.cfg.Loop && e.timeline.totalDuration > 0 && current >= e.timeline.totalDuration {
		// Wrap instead of completing: replay from zero at the overshoot
		// offset so the schedule keeps cycling seamlessly.
		e.reconstructFromStart(current % e.timeline.totalDuration)
		e.publishIfChanged()
		return
	}

	e.cursor.ApplyUntil(e.timeline, current, e.state.apply)
	e.state.syncView(current, e.timeline.totalDuration)
	e.publishIfChanged()
}

// handleCommand applies one command. The returned bool reports whether the
// tick interval may have changed (Configure).
func (e *engine) handleCommand(cmd command) bool {
	switch cmd.kind {
	case cmdConfigure:
		err := e.configure(cmd.cfg)
		cmd.reply <- err
		return err == nil

	case cmdStart:
		cmd.reply <- e.start()

	case cmdPause:
		e.pause()
		cmd.reply <- nil

	case cmdResume:
		e.resume()
		cmd.reply <- nil

	case cmdStop:
		e.stop()
		cmd.reply <- nil

	case cmdReset:
		e.reset()
		cmd.reply <- nil

	case cmdForceScene:
		e.forceScene(cmd.scene)

	case cmdSkipScene:
		e.skipCurrentScene()

	case cmdStreamStatus:
		e.updateStreamStatus(cmd.status)
	}
	return false
}

// configure validates and compiles a new timeline, resetting engine state to
// its zero point. On validation failure the existing state is untouched.
func (e *engine) configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		e.log.Warn("configure rejected", "error", err)
		return err
	}

	tl := CompileTimeline(cfg)

	// Stream status comes from the external broadcast, not the schedule;
	// it survives a reconfigure.
	status := e.state.view.StreamStatus

	e.cfg = cfg
	e.timeline = tl
	e.cursor.Reset()
	e.state = engineState{}
	e.state.view.StreamStatus = status
	e.state.view.Loop = cfg.Loop
	e.state.syncView(0, tl.totalDuration)
	e.publishIfChanged()

	e.log.Info("timeline configured",
		"scenes", len(cfg.Scenes),
		"events", tl.Len(),
		"total_duration_ms", tl.totalDuration,
		"loop", cfg.Loop,
	)
	return nil
}

// start anchors the clock and begins ticking. Idempotent while running.
// The anchor is placed so the clock continues from the snapshot's current
// position, which is zero for a fresh or reset engine.
func (e *engine) start() error {
	if e.timeline == nil {
		return ErrNotConfigured
	}
	if e.state.view.IsRunning {
		return nil
	}

	position := e.state.view.CurrentTimeMS
	e.state.startAnchor = e.now().Add(-time.Duration(position) * time.Millisecond)
	e.state.accumulatedPause = 0
	e.state.paused = false
	e.state.view.IsRunning = true
	e.state.view.IsPaused = false

	// Apply the events at or below the start position before publishing, so
	// the first snapshot already carries the correct active set instead of
	// waiting for the first tick.
	e.cursor.ApplyUntil(e.timeline, position, e.state.apply)
	e.state.syncView(position, e.timeline.totalDuration)
	e.publishIfChanged()

	e.log.Info("engine started", "position_ms", position)
	return nil
}

// pause freezes the clock at the current offset. No-op if already paused or
// not running.
func (e *engine) pause() {
	if !e.state.view.IsRunning || e.state.paused {
		return
	}

	e.state.pausedAt = e.state.currentTime(e.now())
	e.state.paused = true
	e.state.view.IsPaused = true
	e.state.syncView(e.state.pausedAt, e.timeline.totalDuration)
	e.publishIfChanged()

	e.log.Info("engine paused", "at_ms", e.state.pausedAt)
}

// resume replays from zero up to the paused offset and re-anchors the clock
// there, so current time reads exactly where pause left it no matter how
// much wall time has gone by.
func (e *engine) resume() {
	if !e.state.paused {
		return
	}

	target := e.state.pausedAt
	e.state.paused = false
	e.state.view.IsPaused = false
	e.reconstructFromStart(target)
	e.publishIfChanged()

	e.log.Info("engine resumed", "at_ms", target)
}

// stop clears all activity and returns to idle at time zero. The cursor is
// rewound so a later Start replays the schedule from the top.
func (e *engine) stop() {
	e.state.clearActive()
	e.cursor.Reset()
	e.state.startAnchor = time.Time{}
	e.state.paused = false
	e.state.accumulatedPause = 0
	e.state.view.IsRunning = false
	e.state.view.IsPaused = false

	var total int64
	if e.timeline != nil {
		total = e.timeline.totalDuration
	}
	e.state.syncView(0, total)
	e.publishIfChanged()

	e.log.Info("engine stopped")
}

// reset is stop plus an immediate replay of the configured timeline at time
// zero, so the schedule is primed to Start again without reconfiguration.
func (e *engine) reset() {
	e.stop()
	if e.timeline == nil {
		return
	}

	e.cursor.ApplyUntil(e.timeline, 0, e.state.apply)
	e.state.syncView(0, e.timeline.totalDuration)
	e.publishIfChanged()

	e.log.Info("engine reset")
}

// forceScene jumps to the compiled start of the named scene. Unknown names
// are logged and ignored: the command is fire-and-forget by design.
func (e *engine) forceScene(name string) {
	if e.timeline == nil {
		e.log.Warn("force scene ignored: no timeline", "scene", name)
		return
	}
	start, _, ok := e.timeline.SceneSpan(name)
	if !ok {
		e.log.Warn("force scene ignored: unknown scene", "scene", name)
		return
	}

	e.reconstructFromStart(start)
	e.publishIfChanged()

	e.log.Info("forced scene", "scene", name, "at_ms", start)
}

// skipCurrentScene jumps to the end of whichever scene is currently active.
// No-op if none is.
func (e *engine) skipCurrentScene() {
	if e.timeline == nil {
		return
	}

	current := e.state.view.CurrentScene
	if current == "" {
		e.log.Debug("skip ignored: no active scene")
		return
	}
	_, end, ok := e.timeline.SceneSpan(current)
	if !ok {
		return
	}

	e.reconstructFromStart(end)
	e.publishIfChanged()

	e.log.Info("skipped scene", "scene", current, "to_ms", end)
}

// updateStreamStatus merges externally reported broadcast status into the
// snapshot. It never touches the scheduling clock.
func (e *engine) updateStreamStatus(status StreamStatus) {
	e.state.view.StreamStatus = status
	e.publishIfChanged()
}

// reconstructFromStart is the shared deterministic replay primitive: clear
// the active set, rewind the cursor, fold every event from zero up to target
// through the reducer, then re-anchor the wall clock at now − target.
//
// Events are idempotent range-folds over time rather than deltas, so the
// result is identical to what continuous ticking from zero to target would
// have produced. Resume, ForceScene, SkipCurrentScene, and the loop wrap all
// go through here instead of special-casing their jumps.
func (e *engine) reconstructFromStart(target int64) {
	// Looping schedules never land on or past the end: wrap the target the
	// same way the tick path does, so a skip off the last scene or a resume
	// past the total cycles back instead of publishing a complete snapshot.
	if e.cfg.Loop && e.timeline.totalDuration > 0 && target >= e.timeline.totalDuration {
		target %= e.timeline.totalDuration
	}

	e.state.clearActive()
	e.cursor.Reset()
	e.cursor.ApplyUntil(e.timeline, target, e.state.apply)

	e.state.startAnchor = e.now().Add(-time.Duration(target) * time.Millisecond)
	e.state.accumulatedPause = 0
	if e.state.paused {
		e.state.pausedAt = target
	}

	e.state.syncView(target, e.timeline.totalDuration)
}

// publishIfChanged pushes the snapshot into the feed only when it differs
// from the last published value.
func (e *engine) publishIfChanged() {
	if e.state.view.equal(e.lastPublished) {
		return
	}
	e.lastPublished = e.state.view
	e.feed.set(e.state.view)
}
