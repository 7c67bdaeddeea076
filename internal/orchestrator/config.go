package orchestrator

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTickInterval is used when a Config does not specify one.
const DefaultTickInterval = 100 * time.Millisecond

// SceneConfig describes one scene in a show schedule.
//
// Immutable once submitted: the compiler reads it exactly once per Configure
// and the engine never refers back to it.
type SceneConfig struct {
	// Name identifies the scene. Must be unique within a Config.
	Name string `json:"name" yaml:"name"`

	// DurationMS is how long the scene stays active. Must be positive.
	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`

	// StartMS optionally anchors the scene at an explicit timeline offset.
	// When nil the scene starts where the schedule so far ends, so scenes
	// append sequentially by default but may be pinned to overlap or to
	// leave gaps.
	StartMS *int64 `json:"start_ms,omitempty" yaml:"start_ms,omitempty"`

	// Layout is an opaque UI payload carried through to the published
	// snapshot. The engine never interprets it.
	Layout json.RawMessage `json:"ui_layout,omitempty" yaml:"ui_layout,omitempty"`
}

// Config is the declarative schedule an orchestrator engine runs.
type Config struct {
	// Scenes is the ordered scene list. Must be non-empty.
	Scenes []SceneConfig `json:"scenes"`

	// TickInterval is how often the engine advances time while running.
	// Zero selects DefaultTickInterval.
	TickInterval time.Duration `json:"-"`

	// Loop restarts the schedule from zero when the timeline is exhausted
	// instead of completing.
	Loop bool `json:"loop"`
}

// Validate checks a Config before it is compiled.
//
// Returns ErrNoScenes, ErrInvalidDuration, or ErrDuplicateScene (wrapped with
// the offending scene name) on failure. A Config that validates cleanly always
// compiles into a valid Timeline.
func (c Config) Validate() error {
	if len(c.Scenes) == 0 {
		return ErrNoScenes
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("%w: tick interval %v", ErrInvalidConfig, c.TickInterval)
	}

	seen := make(map[string]struct{}, len(c.Scenes))
	for i, s := range c.Scenes {
		if s.Name == "" {
			return fmt.Errorf("%w: scene %d has no name", ErrInvalidConfig, i)
		}
		if s.DurationMS <= 0 {
			return fmt.Errorf("%w: scene %q duration %dms", ErrInvalidDuration, s.Name, s.DurationMS)
		}
		if s.StartMS != nil && *s.StartMS < 0 {
			return fmt.Errorf("%w: scene %q start %dms", ErrInvalidConfig, s.Name, *s.StartMS)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateScene, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// tickInterval returns the effective tick interval for the config.
func (c Config) tickInterval() time.Duration {
	if c.TickInterval <= 0 {
		return DefaultTickInterval
	}
	return c.TickInterval
}
