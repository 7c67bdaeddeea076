package stream

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the registry of running stream orchestrators.
//
// Each stream ID maps to one ManagedOrchestrator whose Run lifecycle the
// manager supervises. The registry map is guarded by a mutex; the
// orchestrators themselves remain single-writer internally.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Manager struct {
	log   Logger
	clock func() time.Time
	sinks []Sink

	mu      sync.Mutex
	streams map[string]*managedEntry
	closed  bool
}

// managedEntry pairs an orchestrator with the cancel func for its Run.
type managedEntry struct {
	orch   *ManagedOrchestrator
	cancel context.CancelFunc
	done   chan struct{}
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Logger for registry events (optional).
	Logger Logger

	// Clock overrides the wall-clock source for new orchestrators.
	Clock func() time.Time

	// Sinks attached to every orchestrator the manager creates.
	Sinks []Sink
}

// NewManager creates an empty stream registry.
func NewManager(opts ManagerOptions) *Manager {
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	return &Manager{
		log:     log,
		clock:   opts.Clock,
		sinks:   opts.Sinks,
		streams: make(map[string]*managedEntry),
	}
}

// Create registers a new stream orchestrator and starts its lifecycle.
//
// An empty id gets a generated one. Duplicate IDs are rejected with
// ErrStreamExists.
//
// Returns:
//   - *ManagedOrchestrator: The running orchestrator
//   - error: ErrStreamExists, ErrManagerClosed, or nil
func (m *Manager) Create(id string) (*ManagedOrchestrator, error) {
	if id == "" {
		id = fmt.Sprintf("stream-%s", uuid.NewString()[:8])
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if _, exists := m.streams[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrStreamExists, id)
	}

	orch := NewManaged(ManagedOptions{
		ID:     id,
		Logger: m.log,
		Clock:  m.clock,
		Sinks:  m.sinks,
	})

	ctx, cancel := context.WithCancel(context.Background())
	entry := &managedEntry{
		orch:   orch,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.streams[id] = entry

	go func() {
		defer close(entry.done)
		if err := orch.Run(ctx); err != nil {
			m.log.Error("stream lifecycle ended with error", "stream_id", id, "error", err)
		}
	}()

	m.log.Info("stream created", "stream_id", id)
	return orch, nil
}

// Get returns the orchestrator for a stream ID.
func (m *Manager) Get(id string) (*ManagedOrchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.streams[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, id)
	}
	return entry.orch, nil
}

// List returns the registered stream IDs in sorted order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.streams))
	for id := range m.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered streams.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

// Remove shuts a stream's orchestrator down and drops it from the registry.
//
// Blocks until the lifecycle goroutine has exited or ctx runs out.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	entry, ok := m.streams[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStreamNotFound, id)
	}
	delete(m.streams, id)
	m.mu.Unlock()

	entry.cancel()

	select {
	case <-entry.done:
	case <-ctx.Done():
		return fmt.Errorf("stream: removing %s: %w", id, ctx.Err())
	}

	m.log.Info("stream removed", "stream_id", id)
	return nil
}

// CloseAll shuts down every stream and marks the manager closed.
// Subsequent Create calls fail with ErrManagerClosed.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	entries := make(map[string]*managedEntry, len(m.streams))
	for id, entry := range m.streams {
		entries[id] = entry
	}
	m.streams = make(map[string]*managedEntry)
	m.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
	}

	for id, entry := range entries {
		select {
		case <-entry.done:
		case <-ctx.Done():
			return fmt.Errorf("stream: closing %s: %w", id, ctx.Err())
		}
	}

	m.log.Info("all streams closed", "count", len(entries))
	return nil
}
