package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/taerae/platformchannel/internal/app"
	mcpinternal "github.com/taerae/platformchannel/internal/mcp"
	"github.com/taerae/platformchannel/pkg/config"
	"github.com/taerae/platformchannel/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFromEnv().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg, "taerae-mcp")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close(context.WithoutCancel(ctx))

	if err := mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
