package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/projecthub/internal/infrastructure/config"
)

const serviceName = "projecthub"

// Logger is a slog.Logger bound to ProjectHub's default attributes.
// It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New writes to stdout, or stderr when cfg.Output says so.
func New(cfg config.LoggingConfig, version string) *Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return NewWithWriter(out, cfg, version)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(out io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	}

	return &Logger{Logger: slog.New(h).With(
		slog.String("service", serviceName),
		slog.String("version", version),
	)}
}

// parseLevel maps a config level name onto slog; unknown names mean info.
func parseLevel(name string) slog.Level {
	levels := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	if l, ok := levels[strings.ToLower(name)]; ok {
		return l
	}
	return slog.LevelInfo
}

// With derives a child logger, e.g. log.With("component", "tickets").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the logger used until configuration has been read.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json"}, "dev")
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "test")
}
