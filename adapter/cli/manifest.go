package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taerae/platformchannel/internal/channel/registry"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Work with plugin manifests",
}

var manifestValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a plugin.json manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := registry.LoadManifest(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s v%s is valid\n", m.ID, m.Version)
		fmt.Fprintf(out, "  channel: %s\n", m.Channel)
		fmt.Fprintf(out, "  binary:  %s\n", m.BinaryAbsPath())
		return nil
	},
}

var manifestSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for plugin.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := registry.ManifestSchema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestValidateCmd)
	manifestCmd.AddCommand(manifestSchemaCmd)
	rootCmd.AddCommand(manifestCmd)
}
