package mcp

import (
	"github.com/taerae/platformchannel/adapter/cli"
	"github.com/taerae/platformchannel/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	return &cli.App{
		Registry:       container.Registry,
		Executor:       container.Executor,
		Health:         container.Health,
		DefaultChannel: container.Config.Channel,
	}
}
