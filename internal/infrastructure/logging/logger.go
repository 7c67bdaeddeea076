package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/showcue/showcue-core/internal/infrastructure/config"
)

// Logger is slog with the service's defaults baked in: every record
// carries the service name and build version, and the domain packages
// layer their own fields on top with With ("component", "stream_id").
//
// It embeds *slog.Logger, so it satisfies the small Logger interfaces
// the orchestrator, stream, and mqtt packages declare for themselves.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New builds the service logger from config: level filter, JSON or text
// records, stdout or stderr. JSON is the default because the expected
// deployment ships logs to a collector; text is for watching a show run
// from a terminal.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "showcue"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLevel maps the config string to a slog level. Unknown strings
// fall back to info rather than failing startup over a typo.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger with extra default attributes, keeping the
// wrapper type so it still satisfies the domain Logger interfaces.
//
//	routerLog := log.With("component", "router")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default is the pre-config logger for the window between process start
// and config.Load: JSON to stdout at info level, version "dev".
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
