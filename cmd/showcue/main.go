// Showcue Core - Live Stream Scene Scheduler
//
// This is the main entry point for the Showcue Core application.
// Showcue drives the overlay scenes of live streams from a configured
// schedule: operators submit a show over MQTT, engines replay it tick by
// tick, and every state change fans out to the bus, WebSocket clients,
// and the telemetry store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/showcue/showcue-core/internal/api"
	"github.com/showcue/showcue-core/internal/infrastructure/config"
	"github.com/showcue/showcue-core/internal/infrastructure/logging"
	"github.com/showcue/showcue-core/internal/infrastructure/mqtt"
	"github.com/showcue/showcue-core/internal/infrastructure/telemetry"
	"github.com/showcue/showcue-core/internal/stream"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// drainTimeout bounds how long shutdown waits for running engines to stop.
const drainTimeout = 10 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Allow the bus shutdown signal to cancel alongside OS signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Showcue Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var telemetryClient *telemetry.Client
	if cfg.InfluxDB.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		telemetryClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub, shared between the API server and the stream sinks
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Stream state fan-out: bus, WebSocket clients, telemetry
	sinks := []stream.Sink{
		stream.NewMQTTSink(mqttClient, 1),
		stream.NewHubSink(hub),
	}
	if telemetryClient != nil {
		sinks = append(sinks, stream.NewTelemetrySink(telemetryClient))
	}

	// Stream registry
	manager := stream.NewManager(stream.ManagerOptions{
		Logger: log.With("component", "stream"),
		Sinks:  sinks,
	})

	// Command router: decodes bus envelopes and drives the engines
	router := stream.NewRouter(mqttClient, manager, stream.RouterOptions{
		Logger:         log.With("component", "router"),
		QoS:            1,
		CommandTimeout: cfg.CommandTimeout(),
		TickInterval:   cfg.TickInterval(),
		MaxScenes:      cfg.Orchestrator.MaxScenes,
	})
	if err := router.Start(); err != nil {
		return fmt.Errorf("starting command router: %w", err)
	}

	// HTTP API and WebSocket server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log.With("component", "api"),
		Manager:     manager,
		MQTT:        mqttClient,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// A retained message on the shutdown topic stops the whole service,
	// mirroring the OS signal path.
	shutdownTopic := mqtt.Topics{}.SystemShutdown()
	if err := mqttClient.Subscribe(shutdownTopic, 1, func(_ string, _ []byte) error {
		log.Info("shutdown requested over the bus")
		cancel()
		return nil
	}); err != nil {
		log.Warn("failed to subscribe to shutdown topic", "error", err)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, telemetryClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Stop every engine before the deferred transport teardown runs
	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()
	if err := manager.CloseAll(drainCtx); err != nil {
		log.Error("error draining streams", "error", err)
	}

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT

	log.Info("Showcue Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SHOWCUE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SHOWCUE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - telemetryClient: Telemetry client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, telemetryClient *telemetry.Client) error {
	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if telemetryClient != nil {
		if err := telemetryClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
