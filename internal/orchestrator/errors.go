package orchestrator

import "errors"

// Domain errors for the orchestrator package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, orchestrator.ErrNoScenes) {
//	    // handle validation failure
//	}
var (
	// ErrNoScenes is returned when a Config has an empty scene list.
	ErrNoScenes = errors.New("orchestrator: no scenes configured")

	// ErrInvalidDuration is returned when a scene has a non-positive duration.
	ErrInvalidDuration = errors.New("orchestrator: invalid scene duration")

	// ErrDuplicateScene is returned when two scenes share a name.
	ErrDuplicateScene = errors.New("orchestrator: duplicate scene name")

	// ErrInvalidConfig is returned for other configuration problems
	// (unnamed scene, negative explicit start, negative tick interval).
	ErrInvalidConfig = errors.New("orchestrator: invalid config")

	// ErrNotConfigured is returned when Start is requested before any
	// Configure has succeeded.
	ErrNotConfigured = errors.New("orchestrator: not configured")

	// ErrEngineStopped is returned by every handle call once the engine
	// actor has exited. Callers decide whether to rebuild the engine.
	ErrEngineStopped = errors.New("orchestrator: engine stopped")
)
