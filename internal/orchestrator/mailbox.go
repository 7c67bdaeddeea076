package orchestrator

import "sync"

// mailbox is the unbounded ordered command queue feeding the engine actor.
//
// push never blocks the sender, regardless of how busy the actor is; the
// actor drains the queue whenever the ready channel fires, so commands are
// processed strictly in arrival order relative to tick boundaries.
type mailbox struct {
	mu    sync.Mutex
	queue []command

	// ready carries at most one pending wakeup. A single signal is enough
	// because drain empties the whole queue.
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

// push appends a command and wakes the actor. Never blocks.
func (m *mailbox) push(c command) {
	m.mu.Lock()
	m.queue = append(m.queue, c)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// wait returns the channel that fires when commands are pending.
func (m *mailbox) wait() <-chan struct{} {
	return m.ready
}

// drain removes and returns all queued commands in arrival order.
func (m *mailbox) drain() []command {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue
	m.queue = nil
	return q
}
