package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// PluginPathEnv overrides the plugin search paths.
const PluginPathEnv = "TAERAE_PLUGIN_PATH"

// Discovery handles plugin discovery from filesystem locations.
type Discovery struct {
	// SearchPaths are directories to search for plugins.
	SearchPaths []string

	logger *slog.Logger
}

// NewDiscovery creates a new plugin discovery service.
func NewDiscovery(searchPaths []string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		SearchPaths: searchPaths,
		logger:      logger,
	}
}

// DiscoveredPlugin represents a discovered plugin with its manifest.
type DiscoveredPlugin struct {
	// Path is the directory containing the plugin.
	Path string

	// Manifest is the loaded plugin manifest.
	Manifest *Manifest
}

// DiscoveryResult contains the result of a discovery operation.
type DiscoveryResult struct {
	// Plugins are successfully discovered plugins.
	Plugins []DiscoveredPlugin

	// Errors are errors encountered during discovery.
	Errors []DiscoveryError
}

// DiscoveryError represents an error during plugin discovery.
type DiscoveryError struct {
	// Path is the path where the error occurred.
	Path string

	// Error is the error that occurred.
	Error error
}

// Discover searches for plugin manifests in all search paths.
// Problems are logged and skipped.
func (d *Discovery) Discover() []DiscoveredPlugin {
	result := d.DiscoverWithErrors()

	for _, e := range result.Errors {
		d.logger.Warn("plugin discovery problem",
			"path", e.Path,
			"error", e.Error,
		)
	}

	d.logger.Info("plugin discovery complete",
		"found", len(result.Plugins),
	)

	return result.Plugins
}

// DiscoverWithErrors returns discovered plugins and any errors.
// When two plugins claim the same channel, the first search path wins.
func (d *Discovery) DiscoverWithErrors() DiscoveryResult {
	result := DiscoveryResult{}
	seen := make(map[string]bool)

	for _, searchPath := range d.SearchPaths {
		discovered, errs := d.discoverInPath(searchPath)
		result.Errors = append(result.Errors, errs...)

		for _, plugin := range discovered {
			if seen[plugin.Manifest.Channel] {
				result.Errors = append(result.Errors, DiscoveryError{
					Path:  plugin.Path,
					Error: fmt.Errorf("duplicate channel: %s", plugin.Manifest.Channel),
				})
				continue
			}
			seen[plugin.Manifest.Channel] = true
			result.Plugins = append(result.Plugins, plugin)
		}
	}

	return result
}

func (d *Discovery) discoverInPath(searchPath string) ([]DiscoveredPlugin, []DiscoveryError) {
	info, err := os.Stat(searchPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []DiscoveryError{{Path: searchPath, Error: fmt.Errorf("failed to stat path: %w", err)}}
	}
	if !info.IsDir() {
		return nil, []DiscoveryError{{Path: searchPath, Error: fmt.Errorf("path is not a directory: %s", searchPath)}}
	}

	entries, err := os.ReadDir(searchPath)
	if err != nil {
		return nil, []DiscoveryError{{Path: searchPath, Error: fmt.Errorf("failed to read directory: %w", err)}}
	}

	var (
		plugins []DiscoveredPlugin
		errs    []DiscoveryError
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginDir := filepath.Join(searchPath, entry.Name())
		manifestPath, err := FindManifestInDir(pluginDir)
		if err != nil {
			continue // not a plugin directory
		}

		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			errs = append(errs, DiscoveryError{Path: manifestPath, Error: err})
			continue
		}

		plugins = append(plugins, DiscoveredPlugin{
			Path:     pluginDir,
			Manifest: manifest,
		})

		d.logger.Debug("discovered plugin",
			"plugin_id", manifest.ID,
			"channel", manifest.Channel,
			"path", pluginDir,
		)
	}

	return plugins, errs
}

// DiscoverSingle discovers a plugin from a specific directory.
func (d *Discovery) DiscoverSingle(dir string) (*DiscoveredPlugin, error) {
	manifestPath, err := FindManifestInDir(dir)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	return &DiscoveredPlugin{
		Path:     dir,
		Manifest: manifest,
	}, nil
}

// DefaultSearchPaths returns the default plugin search paths.
// Entries from TAERAE_PLUGIN_PATH come first.
func DefaultSearchPaths() []string {
	var paths []string

	if envPath := os.Getenv(PluginPathEnv); envPath != "" {
		for _, p := range filepath.SplitList(envPath) {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".taerae", "plugins"))
	}

	paths = append(paths, "/usr/local/share/taerae/plugins")

	return paths
}
