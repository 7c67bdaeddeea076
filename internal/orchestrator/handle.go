package orchestrator

import (
	"context"
	"sync"
	"time"
)

// Options configures a new orchestrator Handle.
type Options struct {
	// Logger for engine events (optional).
	Logger Logger

	// Clock overrides the wall-clock source. Nil means time.Now. Tests use
	// this to drive the engine deterministically.
	Clock func() time.Time
}

// Handle is the externally held façade over one orchestrator engine.
//
// It forwards commands to the engine actor, exposes the latest-value state
// feed, and manages the actor's lifetime. Request/response commands are
// answered exactly once; once the actor has exited every call returns
// ErrEngineStopped instead of hanging or panicking.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Handle struct {
	engine *engine
	cancel context.CancelFunc
	done   chan struct{}

	shutdownOnce sync.Once
}

// New creates an orchestrator engine and starts its actor goroutine.
// The engine stays Unconfigured until the first successful Configure.
func New(opts Options) *Handle {
	eng := newEngine(opts.Logger, opts.Clock)
	ctx, cancel := context.WithCancel(context.Background())

	h := &Handle{
		engine: eng,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		eng.run(ctx)
	}()

	return h
}

// Configure validates cfg and, on success, compiles a new timeline and
// resets the engine to its zero point. On validation failure the engine's
// existing state is untouched.
func (h *Handle) Configure(ctx context.Context, cfg Config) error {
	return h.request(ctx, command{kind: cmdConfigure, cfg: cfg})
}

// Start anchors the clock and begins ticking. Idempotent if already running.
func (h *Handle) Start(ctx context.Context) error {
	return h.request(ctx, command{kind: cmdStart})
}

// Pause freezes the clock at the current offset. No-op if already paused or
// not running.
func (h *Handle) Pause(ctx context.Context) error {
	return h.request(ctx, command{kind: cmdPause})
}

// Resume continues from exactly where Pause left the clock, regardless of
// elapsed wall time.
func (h *Handle) Resume(ctx context.Context) error {
	return h.request(ctx, command{kind: cmdResume})
}

// Stop clears activity and returns to idle at time zero.
func (h *Handle) Stop(ctx context.Context) error {
	return h.request(ctx, command{kind: cmdStop})
}

// Reset stops and re-primes the configured timeline at time zero so the
// schedule can Start again without reconfiguration.
func (h *Handle) Reset(ctx context.Context) error {
	return h.request(ctx, command{kind: cmdReset})
}

// ForceScene jumps to the start of the named scene. Fire-and-forget: an
// unknown name is logged and ignored by the engine.
func (h *Handle) ForceScene(name string) {
	h.send(command{kind: cmdForceScene, scene: name})
}

// SkipCurrentScene jumps past whichever scene is currently active.
// Fire-and-forget; no-op when nothing is active.
func (h *Handle) SkipCurrentScene() {
	h.send(command{kind: cmdSkipScene})
}

// UpdateStreamStatus merges externally reported broadcast status into the
// published snapshot. Fire-and-forget; never affects the scheduling clock.
func (h *Handle) UpdateStreamStatus(status StreamStatus) {
	h.send(command{kind: cmdStreamStatus, status: status})
}

// State returns the latest published snapshot without blocking.
func (h *Handle) State() State {
	return h.engine.feed.State()
}

// Feed returns the latest-value state feed. Any number of observers may
// follow it without back-pressuring the engine.
func (h *Handle) Feed() *Feed {
	return h.engine.feed
}

// Done is closed when the engine actor has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Shutdown stops the engine actor and waits for it to exit. Idempotent;
// shutdown latency is bounded by at most one tick interval. Returns the
// context's error if the wait is cut short.
func (h *Handle) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(h.cancel)

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// request sends a reply-carrying command and waits for the single answer.
// The wait fails with ErrEngineStopped if the actor exits first.
func (h *Handle) request(ctx context.Context, cmd command) error {
	select {
	case <-h.done:
		return ErrEngineStopped
	default:
	}

	cmd.reply = make(chan error, 1)
	h.engine.mailbox.push(cmd)

	select {
	case err := <-cmd.reply:
		return err
	case <-h.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send delivers a fire-and-forget command. Never blocks; silently dropped
// once the actor has exited.
func (h *Handle) send(cmd command) {
	select {
	case <-h.done:
		return
	default:
	}
	h.engine.mailbox.push(cmd)
}
