package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/showcue/showcue-core/internal/infrastructure/mqtt"
	"github.com/showcue/showcue-core/internal/orchestrator"
)

// Command names accepted on the bus.
const (
	CommandConfigure    = "configure"
	CommandStart        = "start"
	CommandPause        = "pause"
	CommandResume       = "resume"
	CommandStop         = "stop"
	CommandReset        = "reset"
	CommandForceScene   = "force_scene"
	CommandSkipScene    = "skip_scene"
	CommandStreamStatus = "stream_status"
)

// defaultCommandTimeout bounds how long the router waits for the engine to
// answer a request/response command.
const defaultCommandTimeout = 5 * time.Second

// CommandEnvelope is the wire form of one inbound bus command.
type CommandEnvelope struct {
	StreamID  string          `json:"stream_id"`
	Command   string          `json:"command"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// CommandAck is published in answer to envelopes carrying a request ID.
type CommandAck struct {
	RequestID string    `json:"request_id"`
	StreamID  string    `json:"stream_id"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// configurePayload is the wire form of a schedule submission.
type configurePayload struct {
	Scenes         []orchestrator.SceneConfig `json:"scenes"`
	TickIntervalMS int64                      `json:"tick_interval_ms,omitempty"`
	Loop           bool                       `json:"loop"`
}

// forceScenePayload names the scene to jump to.
type forceScenePayload struct {
	Scene string `json:"scene"`
}

// Bus is the slice of the MQTT client the router needs.
// Satisfied by *mqtt.Client; tests substitute a mock.
type Bus interface {
	BusPublisher
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// RouterOptions configures a Router.
type RouterOptions struct {
	// Logger for routing events (optional).
	Logger Logger

	// QoS for ack publications.
	QoS byte

	// CommandTimeout bounds request/response command handling.
	// Zero selects defaultCommandTimeout.
	CommandTimeout time.Duration

	// TickInterval is applied to schedules that do not name their own.
	// Zero leaves the engine default in place.
	TickInterval time.Duration

	// MaxScenes caps the scene count per schedule. Zero disables the cap.
	MaxScenes int
}

// Router decodes command envelopes from the bus and drives the addressed
// stream orchestrators.
//
// A configure command for an unknown stream creates it; every other command
// for an unknown stream is acked as a failure. Malformed envelopes are logged
// and nacked when a request ID is recoverable, never crashed on.
type Router struct {
	bus       Bus
	manager   *Manager
	log       Logger
	qos       byte
	timeout   time.Duration
	tick      time.Duration
	maxScenes int
}

// NewRouter creates a command router over the given bus and registry.
func NewRouter(bus Bus, manager *Manager, opts RouterOptions) *Router {
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &Router{
		bus:       bus,
		manager:   manager,
		log:       log,
		qos:       opts.QoS,
		timeout:   timeout,
		tick:      opts.TickInterval,
		maxScenes: opts.MaxScenes,
	}
}

// Start subscribes the router to the command topic.
func (r *Router) Start() error {
	topic := mqtt.Topics{}.OrchestratorCommand()
	if err := r.bus.Subscribe(topic, r.qos, r.HandleMessage); err != nil {
		return fmt.Errorf("stream: subscribing to commands: %w", err)
	}
	r.log.Info("command router listening", "topic", topic)
	return nil
}

// HandleMessage processes one raw command message. Exposed for tests; the
// bus subscription delivers through here.
func (r *Router) HandleMessage(topic string, payload []byte) error {
	var env CommandEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.log.Warn("dropping malformed command envelope", "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	err := r.dispatch(env)
	if err != nil {
		r.log.Warn("command failed",
			"stream_id", env.StreamID,
			"command", env.Command,
			"error", err,
		)
	}
	r.ack(env, err)
	return err
}

// dispatch routes one decoded envelope to the addressed orchestrator.
func (r *Router) dispatch(env CommandEnvelope) error {
	if env.StreamID == "" {
		return fmt.Errorf("%w: missing stream_id", ErrInvalidEnvelope)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	// Configure creates the stream on first contact.
	if env.Command == CommandConfigure {
		return r.configure(ctx, env)
	}

	orch, err := r.manager.Get(env.StreamID)
	if err != nil {
		return err
	}
	h := orch.Handle()

	switch env.Command {
	case CommandStart:
		return h.Start(ctx)
	case CommandPause:
		return h.Pause(ctx)
	case CommandResume:
		return h.Resume(ctx)
	case CommandStop:
		return h.Stop(ctx)
	case CommandReset:
		return h.Reset(ctx)

	case CommandForceScene:
		var p forceScenePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("%w: force_scene payload: %w", ErrInvalidEnvelope, err)
		}
		if p.Scene == "" {
			return fmt.Errorf("%w: force_scene requires a scene name", ErrInvalidEnvelope)
		}
		h.ForceScene(p.Scene)
		return nil

	case CommandSkipScene:
		h.SkipCurrentScene()
		return nil

	case CommandStreamStatus:
		var status orchestrator.StreamStatus
		if err := json.Unmarshal(env.Payload, &status); err != nil {
			return fmt.Errorf("%w: stream_status payload: %w", ErrInvalidEnvelope, err)
		}
		h.UpdateStreamStatus(status)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
}

// configure decodes a schedule submission and applies it, creating the
// stream if this is its first configure.
func (r *Router) configure(ctx context.Context, env CommandEnvelope) error {
	var p configurePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("%w: configure payload: %w", ErrInvalidEnvelope, err)
	}
	if r.maxScenes > 0 && len(p.Scenes) > r.maxScenes {
		return fmt.Errorf("%w: schedule has %d scenes, limit is %d",
			ErrInvalidEnvelope, len(p.Scenes), r.maxScenes)
	}

	orch, err := r.manager.Get(env.StreamID)
	if err != nil {
		orch, err = r.manager.Create(env.StreamID)
		if err != nil {
			return err
		}
	}

	// Payload tick interval wins; fall back to the router's configured
	// default, then the engine default.
	tick := time.Duration(p.TickIntervalMS) * time.Millisecond
	if tick <= 0 {
		tick = r.tick
	}

	cfg := orchestrator.Config{
		Scenes:       p.Scenes,
		TickInterval: tick,
		Loop:         p.Loop,
	}
	return orch.Handle().Configure(ctx, cfg)
}

// ack publishes the command outcome when the envelope asked for one.
func (r *Router) ack(env CommandEnvelope, cmdErr error) {
	if env.RequestID == "" {
		return
	}

	ack := CommandAck{
		RequestID: env.RequestID,
		StreamID:  env.StreamID,
		OK:        cmdErr == nil,
		Timestamp: time.Now().UTC(),
	}
	if cmdErr != nil {
		ack.Error = cmdErr.Error()
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		r.log.Error("marshalling command ack", "request_id", env.RequestID, "error", err)
		return
	}

	topic := mqtt.Topics{}.OrchestratorAck(env.RequestID)
	if err := r.bus.Publish(topic, payload, r.qos, false); err != nil {
		r.log.Warn("publishing command ack failed", "request_id", env.RequestID, "error", err)
	}
}
