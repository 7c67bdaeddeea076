package stream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(ManagerOptions{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.CloseAll(ctx)
	})
	return m
}

func TestManager_CreateAndGet(t *testing.T) {
	m := newTestManager(t)

	orch, err := m.Create("stream-a")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if orch.ID() != "stream-a" {
		t.Errorf("ID() = %q, want %q", orch.ID(), "stream-a")
	}

	got, err := m.Get("stream-a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != orch {
		t.Error("Get() should return the created orchestrator")
	}
}

func TestManager_CreateDuplicate(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Create("stream-a"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := m.Create("stream-a")
	if !errors.Is(err, ErrStreamExists) {
		t.Errorf("Create() duplicate error = %v, want ErrStreamExists", err)
	}
}

func TestManager_CreateGeneratedID(t *testing.T) {
	m := newTestManager(t)

	orch, err := m.Create("")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(orch.ID(), "stream-") {
		t.Errorf("generated ID = %q, want stream- prefix", orch.ID())
	}
	if len(orch.ID()) <= len("stream-") {
		t.Errorf("generated ID = %q, want a suffix", orch.ID())
	}
}

func TestManager_GetUnknown(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get("nope")
	if !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("Get() error = %v, want ErrStreamNotFound", err)
	}
}

func TestManager_List(t *testing.T) {
	m := newTestManager(t)

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if _, err := m.Create(id); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	ids := m.List()
	want := []string{"alpha", "bravo", "charlie"}
	if len(ids) != len(want) {
		t.Fatalf("List() count = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q (sorted)", i, ids[i], want[i])
		}
	}

	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
}

func TestManager_Remove(t *testing.T) {
	m := newTestManager(t)

	orch, err := m.Create("stream-a")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Remove(ctx, "stream-a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := m.Get("stream-a"); !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrStreamNotFound", err)
	}

	// The engine must be gone too.
	select {
	case <-orch.Handle().Done():
	case <-time.After(2 * time.Second):
		t.Error("engine still running after Remove")
	}
}

func TestManager_RemoveUnknown(t *testing.T) {
	m := newTestManager(t)

	err := m.Remove(context.Background(), "nope")
	if !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("Remove() error = %v, want ErrStreamNotFound", err)
	}
}

func TestManager_CloseAll(t *testing.T) {
	m := NewManager(ManagerOptions{})

	var orchs []*ManagedOrchestrator
	for _, id := range []string{"a", "b", "c"} {
		orch, err := m.Create(id)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
		orchs = append(orchs, orch)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.CloseAll(ctx); err != nil {
		t.Fatalf("CloseAll() error = %v", err)
	}

	for _, orch := range orchs {
		select {
		case <-orch.Handle().Done():
		case <-time.After(2 * time.Second):
			t.Errorf("engine %s still running after CloseAll", orch.ID())
		}
	}

	if m.Count() != 0 {
		t.Errorf("Count() = %d after CloseAll, want 0", m.Count())
	}

	// Closed manager rejects new streams.
	if _, err := m.Create("d"); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("Create() after CloseAll error = %v, want ErrManagerClosed", err)
	}
}
