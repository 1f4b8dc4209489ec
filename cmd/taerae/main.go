package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/taerae/platformchannel/adapter/cli"
	"github.com/taerae/platformchannel/adapter/cli/mcp"
	"github.com/taerae/platformchannel/internal/app"
	"github.com/taerae/platformchannel/pkg/config"
	"github.com/taerae/platformchannel/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.LoggerFromEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = app.NewLogger(cfg, "taerae")
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close(context.WithoutCancel(ctx))

	cli.SetApp(&cli.App{
		Registry:       container.Registry,
		Executor:       container.Executor,
		Health:         container.Health,
		DefaultChannel: cfg.Channel,
	})
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}
