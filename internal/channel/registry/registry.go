// Package registry provides channel registration, plugin discovery, and lifecycle management.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

// Registry binds channel names to handlers. It implements sdk.Registrar.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]ChannelEntry
	loads    singleflight.Group
	logger   *slog.Logger
}

// ChannelEntry holds a registered channel and its metadata.
type ChannelEntry struct {
	// Channel is the channel name.
	Channel string

	// Handler answers method calls (nil if not loaded).
	Handler sdk.MethodCallHandler

	// Plugin is set when the handler also carries identity and lifecycle.
	Plugin sdk.Plugin

	// Factory creates the plugin on first use.
	Factory sdk.PluginFactory

	// Manifest contains the plugin manifest, if any.
	Manifest *Manifest

	// Status is the current channel status.
	Status ChannelStatus

	// Error contains any error from the last load.
	Error error

	// Builtin indicates the channel was registered in-process.
	Builtin bool
}

// ChannelStatus represents the current state of a channel.
type ChannelStatus string

const (
	// StatusUnloaded means the channel is registered but its plugin is not loaded.
	StatusUnloaded ChannelStatus = "unloaded"

	// StatusLoading means the plugin is being loaded.
	StatusLoading ChannelStatus = "loading"

	// StatusReady means the handler is ready for calls.
	StatusReady ChannelStatus = "ready"

	// StatusFailed means the plugin failed to load.
	StatusFailed ChannelStatus = "failed"

	// StatusShutdown means the plugin has been shut down.
	StatusShutdown ChannelStatus = "shutdown"
)

// NewRegistry creates a new channel registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		channels: make(map[string]ChannelEntry),
		logger:   logger,
	}
}

// Register binds handler to channel. It implements sdk.Registrar.
func (r *Registry) Register(channel string, handler sdk.MethodCallHandler) error {
	if channel == "" {
		return fmt.Errorf("channel name is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required for channel %s", channel)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[channel]; exists {
		return sdk.NewChannelError(channel, "", sdk.ErrChannelAlreadyExists)
	}

	entry := ChannelEntry{
		Channel: channel,
		Handler: handler,
		Status:  StatusReady,
		Builtin: true,
	}
	if p, ok := handler.(sdk.Plugin); ok {
		entry.Plugin = p
		entry.Manifest = manifestFromMetadata(p.Metadata())
	}
	r.channels[channel] = entry

	r.logger.Info("registered channel", "channel", channel)

	return nil
}

// RegisterBuiltin registers an in-process plugin on its own channel.
func (r *Registry) RegisterBuiltin(p sdk.Plugin) error {
	metadata := p.Metadata()
	if metadata.ID == "" {
		return fmt.Errorf("plugin ID is required")
	}
	return r.Register(p.Channel(), p)
}

// RegisterFactory registers a plugin factory for lazy loading.
func (r *Registry) RegisterFactory(channel string, factory sdk.PluginFactory, manifest *Manifest) error {
	if channel == "" {
		return fmt.Errorf("channel name is required")
	}
	if factory == nil {
		return fmt.Errorf("factory is required for channel %s", channel)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[channel]; exists {
		return sdk.NewChannelError(channel, "", sdk.ErrChannelAlreadyExists)
	}

	r.channels[channel] = ChannelEntry{
		Channel:  channel,
		Factory:  factory,
		Manifest: manifest,
		Status:   StatusUnloaded,
	}

	r.logger.Info("registered channel factory", "channel", channel)

	return nil
}

// Get returns the handler for a channel, loading its plugin if necessary.
// A channel whose factory failed is loaded again on the next Get.
func (r *Registry) Get(ctx context.Context, channel string) (sdk.MethodCallHandler, error) {
	r.mu.RLock()
	entry, exists := r.channels[channel]
	r.mu.RUnlock()

	if !exists {
		return nil, sdk.NewChannelError(channel, "", sdk.ErrChannelNotFound)
	}

	switch {
	case entry.Status == StatusReady && entry.Handler != nil:
		return entry.Handler, nil
	case entry.Status == StatusShutdown:
		return nil, sdk.NewChannelError(channel, "", sdk.ErrPluginShutdown)
	case entry.Factory != nil:
		return r.load(ctx, channel)
	case entry.Status == StatusFailed:
		return nil, entry.Error
	}

	return nil, fmt.Errorf("channel %s is in unexpected state: %s", channel, entry.Status)
}

// load runs the channel factory once, however many callers wait on it.
func (r *Registry) load(ctx context.Context, channel string) (sdk.MethodCallHandler, error) {
	v, err, _ := r.loads.Do(channel, func() (any, error) {
		r.mu.Lock()
		entry, exists := r.channels[channel]
		if !exists {
			r.mu.Unlock()
			return nil, sdk.NewChannelError(channel, "", sdk.ErrChannelNotFound)
		}
		if entry.Status == StatusReady && entry.Handler != nil {
			r.mu.Unlock()
			return entry.Handler, nil
		}
		entry.Status = StatusLoading
		r.channels[channel] = entry
		r.mu.Unlock()

		r.logger.Info("loading channel plugin", "channel", channel)

		// Shared by every waiting caller, so one caller's cancellation
		// must not fail the others.
		p, err := entry.Factory(context.WithoutCancel(ctx))
		if err == nil && p == nil {
			err = errors.New("factory returned no plugin")
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		if err != nil {
			entry.Status = StatusFailed
			entry.Error = fmt.Errorf("failed to load channel %s: %w", channel, err)
			r.channels[channel] = entry
			return nil, entry.Error
		}

		entry.Handler = p
		entry.Plugin = p
		entry.Status = StatusReady
		entry.Error = nil
		r.channels[channel] = entry

		r.logger.Info("channel plugin loaded",
			"channel", channel,
			"plugin_id", p.Metadata().ID,
		)

		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(sdk.MethodCallHandler), nil
}

// Unregister removes a channel from the registry.
func (r *Registry) Unregister(channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.channels[channel]
	if !exists {
		return sdk.NewChannelError(channel, "", sdk.ErrChannelNotFound)
	}

	if entry.Builtin {
		return fmt.Errorf("cannot unregister built-in channel %s", channel)
	}

	delete(r.channels, channel)
	r.logger.Info("unregistered channel", "channel", channel)

	return nil
}

// List returns all registered channels sorted by name.
func (r *Registry) List() []ChannelEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]ChannelEntry, 0, len(r.channels))
	for _, entry := range r.channels {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Channel < entries[j].Channel
	})
	return entries
}

// Has checks if a channel is registered.
func (r *Registry) Has(channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.channels[channel]
	return exists
}

// Status returns the status of a channel.
func (r *Registry) Status(channel string) (ChannelStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.channels[channel]
	if !exists {
		return "", sdk.NewChannelError(channel, "", sdk.ErrChannelNotFound)
	}
	return entry.Status, nil
}

// ShutdownAll shuts down all loaded plugins.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for channel, entry := range r.channels {
		if entry.Status != StatusReady {
			continue
		}
		if entry.Plugin != nil {
			r.logger.Info("shutting down channel plugin", "channel", channel)
			if err := entry.Plugin.Shutdown(ctx); err != nil {
				r.logger.Error("failed to shutdown channel plugin",
					"channel", channel,
					"error", err,
				)
				errs = append(errs, fmt.Errorf("channel %s: %w", channel, err))
			}
		}
		entry.Status = StatusShutdown
		r.channels[channel] = entry
	}

	return errors.Join(errs...)
}

// Count returns the number of registered channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// GetMetadata returns metadata for a channel's plugin.
func (r *Registry) GetMetadata(channel string) (*sdk.PluginMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.channels[channel]
	if !exists {
		return nil, sdk.NewChannelError(channel, "", sdk.ErrChannelNotFound)
	}

	if entry.Plugin != nil {
		metadata := entry.Plugin.Metadata()
		return &metadata, nil
	}

	if entry.Manifest != nil {
		metadata := entry.Manifest.ToMetadata()
		return &metadata, nil
	}

	return nil, fmt.Errorf("no metadata available for channel %s", channel)
}

func manifestFromMetadata(m sdk.PluginMetadata) *Manifest {
	return &Manifest{
		ID:            m.ID,
		Name:          m.Name,
		Version:       m.Version,
		Channel:       m.Channel,
		Description:   m.Description,
		MinAPIVersion: m.MinAPIVersion,
		Methods:       m.Methods,
	}
}

var _ sdk.Registrar = (*Registry)(nil)
