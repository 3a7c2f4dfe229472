package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/slides/internal/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for slides: version, git commit, build
time, Go version and target platform.

Examples:
  slides version                # Show version
  slides version --short        # Version and short commit only
  slides version --format json  # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: runVersionCommand,
	}

	addFormatFlag(cmd, "text", "json")
	cmd.Flags().Bool("short", false, "Show short version only")

	return cmd
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	short, _ := cmd.Flags().GetBool("short")
	out := cmd.OutOrStdout()

	switch {
	case strings.ToLower(format) == "json":
		return outputJSON(out, version.GetBuildInfo())
	case short:
		_, err := fmt.Fprintln(out, version.GetShortVersion())
		return err
	default:
		_, err := fmt.Fprintln(out, version.GetDetailedVersion())
		return err
	}
}
