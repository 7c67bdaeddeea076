package orchestrator

import (
	"reflect"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func showConfig() Config {
	return Config{
		Scenes: []SceneConfig{
			{Name: "Intro", DurationMS: 3000},
			{Name: "Main", DurationMS: 5000},
			{Name: "Outro", DurationMS: 2000},
		},
	}
}

func TestCompileTimeline_SequentialAppend(t *testing.T) {
	tl := CompileTimeline(showConfig())

	if tl.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", tl.Len())
	}
	if tl.TotalDuration() != 10000 {
		t.Errorf("TotalDuration() = %d, want 10000", tl.TotalDuration())
	}

	wantSpans := map[string][2]int64{
		"Intro": {0, 3000},
		"Main":  {3000, 8000},
		"Outro": {8000, 10000},
	}
	for name, want := range wantSpans {
		start, end, ok := tl.SceneSpan(name)
		if !ok {
			t.Fatalf("SceneSpan(%q) not found", name)
		}
		if start != want[0] || end != want[1] {
			t.Errorf("SceneSpan(%q) = [%d,%d], want [%d,%d]", name, start, end, want[0], want[1])
		}
	}
}

func TestCompileTimeline_Deterministic(t *testing.T) {
	a := CompileTimeline(showConfig())
	b := CompileTimeline(showConfig())

	if !reflect.DeepEqual(a.events, b.events) {
		t.Error("compiling the same config twice produced different event orders")
	}
	if a.TotalDuration() != b.TotalDuration() {
		t.Errorf("total durations differ: %d vs %d", a.TotalDuration(), b.TotalDuration())
	}
}

func TestCompileTimeline_EventsTimeAscending(t *testing.T) {
	tl := CompileTimeline(showConfig())

	for i := 1; i < len(tl.events); i++ {
		if tl.events[i].At < tl.events[i-1].At {
			t.Fatalf("event %d at %dms before event %d at %dms",
				i, tl.events[i].At, i-1, tl.events[i-1].At)
		}
	}
}

func TestCompileTimeline_TieOrderStable(t *testing.T) {
	// Intro ends at 3000 and Main starts at 3000. Stable sort must keep the
	// emission order: Intro's end before Main's start.
	tl := CompileTimeline(showConfig())

	var at3000 []Event
	for _, ev := range tl.events {
		if ev.At == 3000 {
			at3000 = append(at3000, ev.Event)
		}
	}
	if len(at3000) != 2 {
		t.Fatalf("events at 3000ms = %d, want 2", len(at3000))
	}
	if _, ok := at3000[0].(LifetimeEnd); !ok {
		t.Errorf("first event at 3000ms = %T, want LifetimeEnd", at3000[0])
	}
	if _, ok := at3000[1].(LifetimeStart); !ok {
		t.Errorf("second event at 3000ms = %T, want LifetimeStart", at3000[1])
	}
}

func TestCompileTimeline_ExplicitStart(t *testing.T) {
	tests := []struct {
		name      string
		scenes    []SceneConfig
		wantSpans map[string][2]int64
		wantTotal int64
	}{
		{
			name: "overlap",
			scenes: []SceneConfig{
				{Name: "base", DurationMS: 5000},
				{Name: "insert", DurationMS: 2000, StartMS: int64p(1000)},
			},
			wantSpans: map[string][2]int64{
				"base":   {0, 5000},
				"insert": {1000, 3000},
			},
			wantTotal: 5000,
		},
		{
			name: "gap",
			scenes: []SceneConfig{
				{Name: "first", DurationMS: 1000},
				{Name: "later", DurationMS: 1000, StartMS: int64p(5000)},
			},
			wantSpans: map[string][2]int64{
				"first": {0, 1000},
				"later": {5000, 6000},
			},
			wantTotal: 6000,
		},
		{
			name: "append resumes after anchored scene",
			scenes: []SceneConfig{
				{Name: "a", DurationMS: 1000},
				{Name: "b", DurationMS: 2000, StartMS: int64p(500)},
				{Name: "c", DurationMS: 1000},
			},
			wantSpans: map[string][2]int64{
				"a": {0, 1000},
				"b": {500, 2500},
				"c": {2500, 3500},
			},
			wantTotal: 3500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := CompileTimeline(Config{Scenes: tt.scenes})
			for name, want := range tt.wantSpans {
				start, end, ok := tl.SceneSpan(name)
				if !ok {
					t.Fatalf("SceneSpan(%q) not found", name)
				}
				if start != want[0] || end != want[1] {
					t.Errorf("SceneSpan(%q) = [%d,%d], want [%d,%d]", name, start, end, want[0], want[1])
				}
			}
			if tl.TotalDuration() != tt.wantTotal {
				t.Errorf("TotalDuration() = %d, want %d", tl.TotalDuration(), tt.wantTotal)
			}
		})
	}
}

func TestCompileTimeline_LifetimeIDsUnique(t *testing.T) {
	tl := CompileTimeline(showConfig())

	seen := make(map[LifetimeID]int)
	for _, ev := range tl.events {
		if s, ok := ev.Event.(LifetimeStart); ok {
			seen[s.ID]++
		}
	}
	if len(seen) != 3 {
		t.Fatalf("distinct lifetime IDs = %d, want 3", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("lifetime %d started %d times", id, n)
		}
	}
}

func TestCompileTimeline_UnknownScene(t *testing.T) {
	tl := CompileTimeline(showConfig())
	if _, _, ok := tl.SceneSpan("nope"); ok {
		t.Error("SceneSpan returned ok for an unknown scene")
	}
}
