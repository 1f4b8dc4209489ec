// Package observability provides structured logging, metrics collection,
// health aggregation and request tracing utilities for taerae.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is a level name as it appears in configuration.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat

	// Output defaults to os.Stderr so command output on stdout stays clean.
	Output io.Writer

	// Service is attached to every record as "service" when set.
	Service string

	// Source adds the caller's file and line.
	Source bool
}

// LogConfigFor returns the base configuration for an environment name.
// Production logs JSON with source locations; every other environment
// logs text.
func LogConfigFor(env string) LogConfig {
	if env == "production" {
		return LogConfig{Level: LogLevelInfo, Format: LogFormatJSON, Service: "taerae", Source: true}
	}
	return LogConfig{Level: LogLevelInfo, Format: LogFormatText, Service: "taerae"}
}

// NewLogger builds a slog logger whose records also carry the correlation
// ID, request ID and channel found in the context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level), AddSource: cfg.Source}

	var handler slog.Handler
	if cfg.Format == LogFormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	return slog.New(contextHandler{handler})
}

// LoggerFromEnv builds a logger before configuration is loaded, from
// TAERAE_ENV, TAERAE_LOG_LEVEL and TAERAE_LOG_FORMAT.
func LoggerFromEnv() *slog.Logger {
	cfg := LogConfigFor(os.Getenv("TAERAE_ENV"))
	if level := os.Getenv("TAERAE_LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(level)
	}
	if format := os.Getenv("TAERAE_LOG_FORMAT"); format != "" {
		cfg.Format = LogFormat(format)
	}
	return NewLogger(cfg)
}

// ParseLevel converts a LogLevel to a slog.Level. Unknown values map to info.
func ParseLevel(level LogLevel) slog.Level {
	switch LogLevel(strings.ToLower(string(level))) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for key, value := range map[string]string{
		CorrelationIDKey: CorrelationIDFromContext(ctx),
		RequestIDKey:     RequestIDFromContext(ctx),
		ChannelKey:       ChannelFromContext(ctx),
	} {
		if value != "" {
			r.AddAttrs(slog.String(key, value))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// LogOperation creates a logger with operation-specific attributes.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) *slog.Logger {
	return logger.With(append([]any{OperationKey, operation}, attrs...)...)
}
