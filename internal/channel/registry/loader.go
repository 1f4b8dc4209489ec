package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-plugin"

	channelgrpc "github.com/taerae/platformchannel/internal/channel/grpc"
	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/pkg/observability"
)

// Loader starts channel plugin processes with HashiCorp go-plugin.
type Loader struct {
	mu      sync.Mutex
	logger  *slog.Logger
	metrics observability.Metrics
	clients map[string]*plugin.Client

	// pluginConfig is JSON handed to every plugin as overrides.
	pluginConfig string
}

// NewLoader creates a new plugin loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:  logger,
		metrics: observability.NoopMetrics{},
		clients: make(map[string]*plugin.Client),
	}
}

// WithMetrics sets the sink the loader reports loaded plugin counts to.
func (l *Loader) WithMetrics(m observability.Metrics) *Loader {
	if m != nil {
		l.metrics = m
	}
	return l
}

// WithPluginConfig sets JSON configuration passed to every plugin process.
// Keys override the manifest's config_defaults on the plugin side.
func (l *Loader) WithPluginConfig(raw string) *Loader {
	l.pluginConfig = raw
	return l
}

// LoadOptions contains options for loading a plugin.
type LoadOptions struct {
	// Manifest is the plugin manifest.
	Manifest *Manifest

	// SecureMode requires a manifest checksum and verifies it before
	// starting the binary.
	SecureMode bool
}

// processPlugin ties a remote plugin to the process serving it.
type processPlugin struct {
	*channelgrpc.Client
	id     string
	loader *Loader
}

// Shutdown asks the plugin to release resources, then stops its process.
func (p *processPlugin) Shutdown(ctx context.Context) error {
	err := p.Client.Shutdown(ctx)
	p.loader.Unload(p.id)
	return err
}

// Load starts the plugin binary named by the manifest and connects to it.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (sdk.Plugin, error) {
	if opts.Manifest == nil {
		return nil, errors.New("manifest is required")
	}

	manifest := opts.Manifest
	binaryPath := manifest.BinaryAbsPath()

	path, err := l.validateBinaryPath(binaryPath)
	if err != nil {
		return nil, sdk.NewLoadError(binaryPath, "binary path validation failed", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, sdk.NewLoadError(path, "binary not found", err)
	}
	if !info.Mode().IsRegular() {
		return nil, sdk.NewLoadError(path, "binary path is not a regular file", nil)
	}

	if opts.SecureMode {
		if manifest.Checksum == "" {
			return nil, sdk.NewLoadError(path, "checksum required in secure mode", nil)
		}
		if err := l.verifyChecksum(path, manifest.Checksum); err != nil {
			return nil, sdk.NewLoadError(path, "checksum verification failed", err)
		}
	}

	l.logger.Info("loading plugin",
		"plugin_id", manifest.ID,
		"channel", manifest.Channel,
		"binary", path,
	)

	// #nosec G204 -- path is validated by validateBinaryPath
	cmd := exec.Command(path)
	cmd.Env = l.pluginEnv(manifest)

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  channelgrpc.HandshakeConfig,
		Plugins:          channelgrpc.PluginMap(nil),
		Cmd:              cmd,
		Logger:           observability.NewHCLogAdapter(l.logger, "plugin"),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, sdk.NewLoadError(path, "failed to connect", err)
	}

	raw, err := rpcClient.Dispense(channelgrpc.PluginName)
	if err != nil {
		client.Kill()
		return nil, sdk.NewLoadError(path, "failed to dispense", err)
	}

	remote, ok := raw.(*channelgrpc.Client)
	if !ok {
		client.Kill()
		return nil, sdk.NewLoadError(path, "plugin does not serve a method channel", nil)
	}

	metadata, err := remote.Describe(ctx)
	if err != nil {
		client.Kill()
		return nil, sdk.NewLoadError(path, "failed to describe plugin", err)
	}
	if metadata.Channel != manifest.Channel {
		client.Kill()
		return nil, sdk.NewLoadError(path,
			fmt.Sprintf("plugin answers on %q, manifest declares %q", metadata.Channel, manifest.Channel), nil)
	}

	l.mu.Lock()
	if old, exists := l.clients[manifest.ID]; exists {
		old.Kill()
	}
	l.clients[manifest.ID] = client
	loaded := len(l.clients)
	l.mu.Unlock()

	l.metrics.Gauge(observability.MetricPluginsLoaded, float64(loaded))
	l.logger.Info("plugin loaded",
		"plugin_id", manifest.ID,
		"channel", metadata.Channel,
		"version", metadata.Version,
	)

	return &processPlugin{Client: remote, id: manifest.ID, loader: l}, nil
}

// pluginEnv returns the variables added to the plugin's environment.
// go-plugin appends the host environment after these, so a value the host
// itself exports takes precedence.
func (l *Loader) pluginEnv(manifest *Manifest) []string {
	var env []string
	if manifest.Path() != "" {
		env = append(env, sdk.PluginManifestEnv+"="+manifest.Path())
	}
	if l.pluginConfig != "" {
		env = append(env, sdk.PluginConfigEnv+"="+l.pluginConfig)
	}
	return env
}

// Factory returns a PluginFactory that loads the manifest's binary on first use.
func (l *Loader) Factory(manifest *Manifest, secure bool) sdk.PluginFactory {
	return func(ctx context.Context) (sdk.Plugin, error) {
		return l.Load(ctx, LoadOptions{Manifest: manifest, SecureMode: secure})
	}
}

// RegisterDiscovered registers a lazy factory for every discovered plugin.
// Channels that are already bound keep their handler.
func (l *Loader) RegisterDiscovered(r *Registry, plugins []DiscoveredPlugin, secure bool) int {
	registered := 0
	for _, p := range plugins {
		if err := r.RegisterFactory(p.Manifest.Channel, l.Factory(p.Manifest, secure), p.Manifest); err != nil {
			l.logger.Warn("skipping discovered plugin",
				"plugin_id", p.Manifest.ID,
				"channel", p.Manifest.Channel,
				"error", err,
			)
			continue
		}
		registered++
	}
	return registered
}

// Unload stops a plugin process. Unknown IDs are ignored.
func (l *Loader) Unload(id string) {
	l.mu.Lock()
	client, exists := l.clients[id]
	delete(l.clients, id)
	loaded := len(l.clients)
	l.mu.Unlock()

	if !exists {
		return
	}

	client.Kill()
	l.metrics.Gauge(observability.MetricPluginsLoaded, float64(loaded))
	l.logger.Info("plugin unloaded", "plugin_id", id)
}

// UnloadAll stops every plugin process.
func (l *Loader) UnloadAll() {
	l.mu.Lock()
	clients := l.clients
	l.clients = make(map[string]*plugin.Client)
	l.mu.Unlock()

	for id, client := range clients {
		client.Kill()
		l.logger.Info("plugin unloaded", "plugin_id", id)
	}
	l.metrics.Gauge(observability.MetricPluginsLoaded, 0)
}

// IsLoaded checks if a plugin process is running.
func (l *Loader) IsLoaded(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.clients[id]
	return exists
}

// forbiddenPathChars have meaning to a shell and never appear in a plugin path.
var forbiddenPathChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r", "'", "\""}

// validateBinaryPath cleans path, rejects relative paths and shell
// metacharacters, and resolves symlinks.
func (l *Loader) validateBinaryPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("binary path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("binary path must be absolute: %s", path)
	}

	for _, char := range forbiddenPathChars {
		if strings.Contains(cleanPath, char) {
			return "", fmt.Errorf("binary path contains forbidden character %q: %s", char, path)
		}
	}

	resolved, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve binary path: %w", err)
	}

	l.logger.Debug("binary path validated",
		"original", path,
		"resolved", resolved,
	)

	return resolved, nil
}

// verifyChecksum compares the file's SHA256 with a hex digest, ignoring case.
func (l *Loader) verifyChecksum(path, expected string) error {
	// #nosec G304 -- path is validated by validateBinaryPath
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	computed := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(computed, expected) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, computed)
	}

	l.logger.Debug("checksum verified", "path", path)
	return nil
}
