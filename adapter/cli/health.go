package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/taerae/platformchannel/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of every channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return errors.New("app not initialized")
		}

		health := app.Health.GetOverallHealth(cmd.Context())
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, health.Status)

		names := make([]string, 0, len(health.Checks))
		for name := range health.Checks {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			check := health.Checks[name]
			fmt.Fprintf(out, "  %s: %s", name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out, " (%s)", check.Message)
			}
			fmt.Fprintln(out)
		}

		if health.Status == observability.HealthStatusUnhealthy {
			return errors.New("one or more channels are unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
