package stream

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/showcue/showcue-core/internal/orchestrator"
)

// Logger defines the logging interface for the stream package.
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

// ManagedOptions configures a ManagedOrchestrator.
type ManagedOptions struct {
	// ID identifies the stream this orchestrator schedules.
	ID string

	// Logger for lifecycle events (optional).
	Logger Logger

	// Clock overrides the wall-clock source. Nil means time.Now.
	Clock func() time.Time

	// Sinks receive every published state update.
	Sinks []Sink
}

// ManagedOrchestrator binds one scheduling engine to a stream ID and runs its
// publication lifecycle.
//
// Run starts two supervised tasks: a state publisher that forwards engine
// snapshots to the configured sinks, and a completion monitor that shuts the
// engine down once a non-looping timeline is exhausted. Cancelling Run's
// context stops both tasks and the engine.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type ManagedOrchestrator struct {
	id     string
	handle *orchestrator.Handle
	sinks  []Sink
	log    Logger
	now    func() time.Time
}

// NewManaged creates a stream orchestrator and starts its engine actor.
// The engine stays unconfigured until the first successful Configure.
func NewManaged(opts ManagedOptions) *ManagedOrchestrator {
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &ManagedOrchestrator{
		id: opts.ID,
		handle: orchestrator.New(orchestrator.Options{
			Logger: log,
			Clock:  now,
		}),
		sinks: opts.Sinks,
		log:   log,
		now:   now,
	}
}

// ID returns the stream identifier.
func (m *ManagedOrchestrator) ID() string {
	return m.id
}

// Handle exposes the underlying engine façade for command routing.
func (m *ManagedOrchestrator) Handle() *orchestrator.Handle {
	return m.handle
}

// State returns the latest engine snapshot without blocking.
func (m *ManagedOrchestrator) State() orchestrator.State {
	return m.handle.State()
}

// Run supervises the publication lifecycle until ctx is cancelled or the
// timeline completes. It always leaves the engine shut down on return.
func (m *ManagedOrchestrator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.publishLoop(gctx)
	})
	g.Go(func() error {
		return m.completionLoop(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	// Bound the final shutdown so Run cannot hang on a stuck engine.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := m.handle.Shutdown(shutdownCtx); serr != nil {
		m.log.Error("engine shutdown incomplete", "stream_id", m.id, "error", serr)
	}

	m.log.Info("stream orchestrator stopped", "stream_id", m.id)
	return err
}

// publishLoop follows the latest-value feed and forwards each new snapshot
// to every sink. A final snapshot is published on the way out so consumers
// observe the terminal state.
func (m *ManagedOrchestrator) publishLoop(ctx context.Context) error {
	feed := m.handle.Feed()
	state, changed := feed.Get()
	m.publish(state)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.handle.Done():
			state, _ = feed.Get()
			m.publish(state)
			return nil
		case <-changed:
			state, changed = feed.Get()
			m.publish(state)
		}
	}
}

// completionLoop shuts the engine down once the timeline is exhausted.
// Looping schedules cycle forever and are never shut down here, even if a
// boundary snapshot momentarily reads as complete.
func (m *ManagedOrchestrator) completionLoop(ctx context.Context) error {
	feed := m.handle.Feed()
	state, changed := feed.Get()

	for {
		if state.IsRunning && !state.Loop && state.IsComplete() {
			m.log.Info("timeline complete", "stream_id", m.id,
				"total_duration_ms", state.TotalDurationMS)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return m.handle.Shutdown(shutdownCtx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.handle.Done():
			return nil
		case <-changed:
			state, changed = feed.Get()
		}
	}
}

// publish forwards one snapshot to every sink. Sink failures are logged and
// do not stop publication to the remaining sinks.
func (m *ManagedOrchestrator) publish(state orchestrator.State) {
	update := NewStateUpdate(m.id, state, m.now())
	for _, sink := range m.sinks {
		if err := sink.PublishStateUpdate(m.id, update); err != nil {
			m.log.Warn("state update publish failed", "stream_id", m.id, "error", err)
		}
	}
}

// Shutdown stops the engine directly, unblocking a concurrent Run.
func (m *ManagedOrchestrator) Shutdown(ctx context.Context) error {
	return m.handle.Shutdown(ctx)
}
