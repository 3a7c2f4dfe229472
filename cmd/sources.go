package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sources [flags] <config-or-source> [source...]",
		Aliases: []string{"ls"},
		Short:   "Print the resolved source documents",
		Long: `Resolve the arguments exactly like the root command and print the
documents the presentation would be built from, in presentation order.

Examples:
  slides sources talk.cfg               # One path per line
  slides sources -f json intro.md body/ # As a JSON array
  slides sources -f yaml talk.cfg`,
		Args: cobra.ArbitraryArgs,
		RunE: runSources,
	}

	addPresentationFlags(cmd)
	addFormatFlag(cmd, "text", "json", "yaml")

	return cmd
}

func runSources(cmd *cobra.Command, args []string) error {
	p, _, err := buildPresentation(cmd.Context(), newRequest(cmd, args), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return writeSources(cmd.OutOrStdout(), format, p.Sources())
}

func writeSources(w io.Writer, format string, sources []string) error {
	switch strings.ToLower(format) {
	case "json":
		return outputJSON(w, sources)
	case "yaml":
		return outputYAML(w, sources)
	default:
		for _, path := range sources {
			if _, err := fmt.Fprintln(w, path); err != nil {
				return err
			}
		}
		return nil
	}
}

func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
