package cli

import (
	"github.com/taerae/platformchannel/internal/channel/registry"
	"github.com/taerae/platformchannel/internal/channel/runtime"
	"github.com/taerae/platformchannel/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	Registry *registry.Registry
	Executor *runtime.Executor
	Health   *observability.HealthRegistry

	// DefaultChannel is used when --channel is not given.
	DefaultChannel string
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
