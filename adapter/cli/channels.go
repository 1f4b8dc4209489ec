package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Inspect registered channels",
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Registry == nil {
			return errors.New("channel registry not available")
		}

		out := cmd.OutOrStdout()
		entries := app.Registry.List()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No channels registered")
			return nil
		}

		for _, entry := range entries {
			origin := "plugin"
			if entry.Builtin {
				origin = "built-in"
			}
			line := fmt.Sprintf("  %s [%s] %s", entry.Channel, origin, entry.Status)
			if entry.Manifest != nil {
				line += fmt.Sprintf(" %s v%s", entry.Manifest.ID, entry.Manifest.Version)
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintf(out, "\nTotal: %d channels\n", app.Registry.Count())
		return nil
	},
}

var channelsInfoCmd = &cobra.Command{
	Use:   "info <channel>",
	Short: "Show details about a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Registry == nil {
			return errors.New("channel registry not available")
		}

		channel := args[0]
		status, err := app.Registry.Status(channel)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Channel: %s\n", channel)
		fmt.Fprintf(out, "Status: %s\n", status)

		meta, err := app.Registry.GetMetadata(channel)
		if err != nil {
			fmt.Fprintln(out, "No plugin metadata")
			return nil
		}
		fmt.Fprintf(out, "Plugin: %s (%s)\n", meta.Name, meta.ID)
		fmt.Fprintf(out, "Version: %s\n", meta.Version)
		fmt.Fprintf(out, "Min API Version: %s\n", meta.MinAPIVersion)
		if meta.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", meta.Description)
		}
		if len(meta.Methods) > 0 {
			fmt.Fprintf(out, "Methods: %s\n", strings.Join(meta.Methods, ", "))
		}
		if app.Executor != nil {
			fmt.Fprintf(out, "Circuit Breaker: %s\n", app.Executor.GetCircuitBreakerState(channel))
		}
		return nil
	},
}

var channelsHealthCmd = &cobra.Command{
	Use:   "health <channel>",
	Short: "Check the health of one channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Executor == nil {
			return errors.New("channel executor not available")
		}

		status, err := app.Executor.HealthCheck(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		state := "healthy"
		if !status.Healthy {
			state = "unhealthy"
		}
		fmt.Fprintf(out, "%s: %s\n", args[0], state)
		if status.Message != "" {
			fmt.Fprintf(out, "  message: %s\n", status.Message)
		}
		for k, v := range status.Details {
			fmt.Fprintf(out, "  %s: %v\n", k, v)
		}
		return nil
	},
}

func init() {
	channelsCmd.AddCommand(channelsListCmd)
	channelsCmd.AddCommand(channelsInfoCmd)
	channelsCmd.AddCommand(channelsHealthCmd)
	rootCmd.AddCommand(channelsCmd)
}
