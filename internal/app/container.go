// Package app wires the channel registry, plugin loader and executor together.
package app

import (
	"context"
	"log/slog"

	"github.com/taerae/platformchannel/internal/channel/registry"
	"github.com/taerae/platformchannel/internal/channel/runtime"
	"github.com/taerae/platformchannel/internal/versionquery"
	"github.com/taerae/platformchannel/pkg/config"
	"github.com/taerae/platformchannel/pkg/observability"
)

// Container holds the process-wide dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Registry *registry.Registry
	Loader   *registry.Loader
	Executor *runtime.Executor

	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// VersionHandler answers getPlatformVersion on the built-in channels.
	VersionHandler *versionquery.Handler

	versionOpts []versionquery.Option
}

// Option customizes a container before plugins are discovered.
type Option func(*Container)

// WithVersionHandlerOptions passes options to the built-in version handler.
func WithVersionHandlerOptions(opts ...versionquery.Option) Option {
	return func(c *Container) {
		c.versionOpts = append(c.versionOpts, opts...)
	}
}

// NewContainer builds the container: the version handler on the configured
// and conventional channels, then any discovered plugins.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Registry = registry.NewRegistry(logger)
	c.Loader = registry.NewLoader(logger).
		WithMetrics(c.Metrics).
		WithPluginConfig(cfg.PluginConfig)

	versionOpts := append([]versionquery.Option{versionquery.WithLogger(logger)}, c.versionOpts...)
	for _, channel := range builtinChannels(cfg.Channel) {
		h, err := versionquery.Register(c.Registry, channel, versionOpts...)
		if err != nil {
			return nil, err
		}
		if c.VersionHandler == nil {
			c.VersionHandler = h
		}
	}

	searchPaths := cfg.PluginSearchPaths
	if len(searchPaths) == 0 {
		searchPaths = registry.DefaultSearchPaths()
	}
	discovered := registry.NewDiscovery(searchPaths, logger).Discover()
	secure := cfg.IsProduction()
	registered := c.Loader.RegisterDiscovered(c.Registry, discovered, secure)

	c.Executor = runtime.NewExecutor(c.Registry, nil, logger, runtime.ConfigFrom(cfg)).WithSink(c.Metrics)
	c.Executor.RegisterHealthChecks(c.Health)

	logger.InfoContext(ctx, "registered channels",
		"count", c.Registry.Count(),
		"plugins", registered,
	)

	return c, nil
}

// builtinChannels returns the configured channel followed by the
// conventional names, without duplicates.
func builtinChannels(configured string) []string {
	channels := make([]string, 0, 3)
	seen := make(map[string]bool)
	for _, ch := range []string{configured, versionquery.DefaultChannel, versionquery.AltChannel} {
		if ch == "" || seen[ch] {
			continue
		}
		seen[ch] = true
		channels = append(channels, ch)
	}
	return channels
}

// Close shuts down every channel and stops plugin processes.
func (c *Container) Close(ctx context.Context) {
	if c.Registry != nil {
		if err := c.Registry.ShutdownAll(ctx); err != nil {
			c.Logger.Warn("error shutting down channels", "error", err)
		}
	}
	if c.Loader != nil {
		c.Loader.UnloadAll()
	}
}
