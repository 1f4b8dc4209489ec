package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/taerae/platformchannel/internal/app"
	mcpinternal "github.com/taerae/platformchannel/internal/mcp"
	"github.com/taerae/platformchannel/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := app.NewLogger(cfg, "taerae-mcp")

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close(context.WithoutCancel(ctx))

		err = mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
