package observability

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter exposes a slog.Logger through the hclog.Logger interface
// so go-plugin can log into the host's structured log stream.
type HCLogAdapter struct {
	base    *slog.Logger
	logger  *slog.Logger
	name    string
	implied []interface{}
	level   *atomic.Int32
}

// NewHCLogAdapter wraps logger. Name is reported as the "logger" attribute.
func NewHCLogAdapter(logger *slog.Logger, name string) *HCLogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	level := new(atomic.Int32)
	level.Store(int32(hclog.Trace))
	return newHCLogAdapter(logger, name, nil, level)
}

func newHCLogAdapter(base *slog.Logger, name string, implied []interface{}, level *atomic.Int32) *HCLogAdapter {
	logger := base
	if name != "" {
		logger = base.With("logger", name)
	}
	return &HCLogAdapter{
		base:    base,
		logger:  logger,
		name:    name,
		implied: implied,
		level:   level,
	}
}

func slogLevel(level hclog.Level) slog.Level {
	switch level {
	case hclog.Trace, hclog.Debug:
		return slog.LevelDebug
	case hclog.Warn:
		return slog.LevelWarn
	case hclog.Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (h *HCLogAdapter) enabled(level hclog.Level) bool {
	if level < hclog.Level(h.level.Load()) {
		return false
	}
	return h.logger.Enabled(context.Background(), slogLevel(level))
}

// Log implements hclog.Logger.
func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	if !h.enabled(level) {
		return
	}
	h.logger.Log(context.Background(), slogLevel(level), msg, args...)
}

func (h *HCLogAdapter) Trace(msg string, args ...interface{}) { h.Log(hclog.Trace, msg, args...) }
func (h *HCLogAdapter) Debug(msg string, args ...interface{}) { h.Log(hclog.Debug, msg, args...) }
func (h *HCLogAdapter) Info(msg string, args ...interface{})  { h.Log(hclog.Info, msg, args...) }
func (h *HCLogAdapter) Warn(msg string, args ...interface{})  { h.Log(hclog.Warn, msg, args...) }
func (h *HCLogAdapter) Error(msg string, args ...interface{}) { h.Log(hclog.Error, msg, args...) }

func (h *HCLogAdapter) IsTrace() bool { return h.enabled(hclog.Trace) }
func (h *HCLogAdapter) IsDebug() bool { return h.enabled(hclog.Debug) }
func (h *HCLogAdapter) IsInfo() bool  { return h.enabled(hclog.Info) }
func (h *HCLogAdapter) IsWarn() bool  { return h.enabled(hclog.Warn) }
func (h *HCLogAdapter) IsError() bool { return h.enabled(hclog.Error) }

// ImpliedArgs returns the arguments added with With.
func (h *HCLogAdapter) ImpliedArgs() []interface{} {
	return h.implied
}

// With returns a logger carrying args on every entry.
func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	implied := make([]interface{}, 0, len(h.implied)+len(args))
	implied = append(implied, h.implied...)
	implied = append(implied, args...)
	return newHCLogAdapter(h.base.With(args...), h.name, implied, h.level)
}

// Name returns the logger name.
func (h *HCLogAdapter) Name() string { return h.name }

// Named returns a sub-logger whose name is appended to the current one.
func (h *HCLogAdapter) Named(name string) hclog.Logger {
	full := name
	if h.name != "" {
		full = h.name + "." + name
	}
	return h.ResetNamed(full)
}

// ResetNamed returns a sub-logger with exactly the given name.
func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return newHCLogAdapter(h.base, name, h.implied, h.level)
}

// SetLevel sets the minimum hclog level. The slog handler level still applies.
func (h *HCLogAdapter) SetLevel(level hclog.Level) {
	h.level.Store(int32(level))
}

// GetLevel returns the minimum hclog level.
func (h *HCLogAdapter) GetLevel() hclog.Level {
	return hclog.Level(h.level.Load())
}

// StandardLogger returns a standard library logger writing at info level.
func (h *HCLogAdapter) StandardLogger(_ *hclog.StandardLoggerOptions) *log.Logger {
	return slog.NewLogLogger(h.logger.Handler(), slog.LevelInfo)
}

// StandardWriter returns a writer whose lines are logged at info level.
func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return h.StandardLogger(opts).Writer()
}

var _ hclog.Logger = (*HCLogAdapter)(nil)

// NewPluginLogger creates the hclog logger used inside plugin processes.
// go-plugin forwards JSON lines written to stderr into the host's log.
func NewPluginLogger(name string, level LogLevel) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(string(level)),
		Output:     os.Stderr,
		JSONFormat: true,
	})
}
