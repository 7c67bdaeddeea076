package orchestrator

import "sort"

// sceneSpan records the compiled interval of one scene for direct lookups
// (force-jump to a scene's start, skip to a scene's end).
type sceneSpan struct {
	id    LifetimeID
	start int64
	end   int64
}

// Timeline is an immutable, time-ascending sequence of scheduling events
// compiled once from a Config.
//
// A Timeline is never mutated after compilation; a reconfigure builds a brand
// new Timeline that replaces the old one atomically inside the engine actor.
//
// Thread Safety:
//   - Safe for concurrent reads. There are no writes after CompileTimeline.
type Timeline struct {
	events        []TimedEvent
	totalDuration int64
	scenes        map[string]sceneSpan
}

// CompileTimeline turns an ordered scene list into a Timeline.
//
// For each scene in order it assigns a fresh LifetimeID and computes the
// scene's start: the explicit start when given, otherwise the maximum
// timestamp emitted so far (sequential append). It emits a start and an end
// event per scene, then stable-sorts by timestamp so same-timestamp events
// keep their emission order.
//
// Compilation is pure: the same Config always yields an identical event
// order and total duration.
//
// The Config is assumed to have passed Validate; CompileTimeline itself
// cannot fail.
func CompileTimeline(cfg Config) *Timeline {
	events := make([]TimedEvent, 0, 2*len(cfg.Scenes))
	scenes := make(map[string]sceneSpan, len(cfg.Scenes))

	var nextID LifetimeID
	var maxAt int64

	for _, s := range cfg.Scenes {
		nextID++
		id := nextID

		start := maxAt
		if s.StartMS != nil {
			start = *s.StartMS
		}
		end := start + s.DurationMS

		events = append(events,
			TimedEvent{At: start, Event: LifetimeStart{
				ID:   id,
				Kind: SceneKind{Name: s.Name, Layout: s.Layout},
			}},
			TimedEvent{At: end, Event: LifetimeEnd{ID: id}},
		)
		scenes[s.Name] = sceneSpan{id: id, start: start, end: end}

		if start > maxAt {
			maxAt = start
		}
		if end > maxAt {
			maxAt = end
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At < events[j].At
	})

	return &Timeline{
		events:        events,
		totalDuration: maxAt,
		scenes:        scenes,
	}
}

// Len returns the number of compiled events.
func (t *Timeline) Len() int {
	return len(t.events)
}

// TotalDuration returns the maximum event timestamp in milliseconds,
// or 0 for an empty schedule.
func (t *Timeline) TotalDuration() int64 {
	return t.totalDuration
}

// SceneSpan returns the compiled start and end offsets of a scene by name.
func (t *Timeline) SceneSpan(name string) (start, end int64, ok bool) {
	span, ok := t.scenes[name]
	if !ok {
		return 0, 0, false
	}
	return span.start, span.end, true
}
