package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

var (
	callChannel string
	callJSON    bool
)

var callCmd = &cobra.Command{
	Use:   "call <method> [json-arguments]",
	Short: "Send a method call on a channel",
	Long: `Send a method call on a channel and print the reply.

A success value is printed as-is. A method the handler does not
recognize prints "not implemented".

Examples:
  taerae call getPlatformVersion
  taerae call getPlatformVersion --channel taerae_flutter
  taerae call echo '{"text": "hi"}' --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Executor == nil {
			return errors.New("channel executor not available")
		}

		channel := callChannel
		if channel == "" {
			channel = app.DefaultChannel
		}

		var arguments any
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
				return fmt.Errorf("arguments must be JSON: %w", err)
			}
		}

		resp, err := app.Executor.Invoke(cmd.Context(), channel, sdk.NewMethodCall(args[0], arguments))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if callJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		switch {
		case resp.IsError():
			return fmt.Errorf("%s", resp.String())
		case resp.IsSuccess():
			if s, ok := resp.StringValue(); ok {
				fmt.Fprintln(out, s)
				return nil
			}
			data, err := json.Marshal(resp.Value)
			if err != nil {
				return fmt.Errorf("failed to render value: %w", err)
			}
			fmt.Fprintln(out, string(data))
		default:
			fmt.Fprintln(out, resp.String())
		}
		return nil
	},
}

func init() {
	callCmd.Flags().StringVar(&callChannel, "channel", "", "channel name (defaults to TAERAE_CHANNEL)")
	callCmd.Flags().BoolVar(&callJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(callCmd)
}
