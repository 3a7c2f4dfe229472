package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/slides/internal/config"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings [flags] <config-or-source> [source...]",
		Short: "Print the effective presentation settings",
		Long: `Resolve the arguments exactly like the root command and print the
merged settings: switches over the config file over built-in defaults.
Sources are not expanded.

Examples:
  slides settings talk.cfg
  slides settings -f json -t dark talk.cfg`,
		Args: cobra.ArbitraryArgs,
		RunE: runSettings,
	}

	addPresentationFlags(cmd)
	addFormatFlag(cmd, "yaml", "json")

	return cmd
}

func runSettings(cmd *cobra.Command, args []string) error {
	req := newRequest(cmd, args)
	logger := newLogger(cmd.ErrOrStderr(), levelFromFlags(req))

	settings, err := config.NewResolver(logger).Resolve(cmd.Context(), req)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if strings.ToLower(format) == "json" {
		return outputJSON(cmd.OutOrStdout(), settings)
	}
	return outputYAML(cmd.OutOrStdout(), settings)
}
