package orchestrator

import "sync"

// Feed is a latest-value broadcast of State snapshots.
//
// It holds a single slot: writers replace the slot and notify, readers take
// the newest value whenever they look. A slow or absent reader never blocks
// the writer and never sees a stale intermediate value, only whatever is
// current at the time it checks.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Feed struct {
	mu      sync.Mutex
	state   State
	changed chan struct{}
}

// NewFeed creates a Feed holding the zero snapshot.
func NewFeed() *Feed {
	return &Feed{changed: make(chan struct{})}
}

// Get returns the current snapshot and a channel that is closed the next
// time the snapshot changes. The usual observer loop:
//
//	for {
//	    st, changed := feed.Get()
//	    handle(st)
//	    select {
//	    case <-changed:
//	    case <-ctx.Done():
//	        return
//	    }
//	}
func (f *Feed) Get() (State, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.changed
}

// State returns the current snapshot without a change notification.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// set replaces the snapshot and wakes every waiting reader. Only the engine
// actor calls set, so readers observe each version at most once.
func (f *Feed) set(s State) {
	f.mu.Lock()
	f.state = s
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
}
