package app

import (
	"log/slog"

	"github.com/taerae/platformchannel/pkg/config"
	"github.com/taerae/platformchannel/pkg/observability"
)

// NewLogger builds the process logger from configuration. Production
// switches to JSON with source locations unless a format is set.
func NewLogger(cfg *config.Config, service string) *slog.Logger {
	lc := observability.LogConfigFor(cfg.AppEnv)
	if cfg.LogLevel != "" {
		lc.Level = observability.LogLevel(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		lc.Format = observability.LogFormat(cfg.LogFormat)
	}
	if service != "" {
		lc.Service = service
	}
	return observability.NewLogger(lc)
}
