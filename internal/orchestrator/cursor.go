package orchestrator

// Cursor is the monotonic replay pointer over a Timeline.
//
// The frontier only moves through ApplyUntil and only forwards: every event
// at an index below the frontier has been delivered to the reducer exactly
// once. Repeated ApplyUntil calls with non-decreasing targets therefore give
// at-most-once, in-order delivery; a call with a target at or before the
// point already reached is a no-op.
type Cursor struct {
	frontier int
}

// ApplyUntil delivers every not-yet-applied event with a timestamp at or
// before target, in order, then stops. This is the only way the frontier
// advances.
func (c *Cursor) ApplyUntil(tl *Timeline, target int64, fn func(TimedEvent)) {
	for c.frontier < len(tl.events) {
		ev := tl.events[c.frontier]
		if ev.At > target {
			return
		}
		fn(ev)
		c.frontier++
	}
}

// Reset rewinds the cursor to the start of the timeline. The caller must
// clear any state derived from previously applied events before replaying.
func (c *Cursor) Reset() {
	c.frontier = 0
}

// Frontier returns the index of the next event to apply.
func (c *Cursor) Frontier() int {
	return c.frontier
}
