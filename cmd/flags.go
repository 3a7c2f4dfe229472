package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/slides/internal/config"
	slideserrors "github.com/conneroisu/slides/internal/errors"
)

const configFlag = "config"

// addPresentationFlags registers every presentation switch plus --config on
// cmd. The root, sources and settings commands share it so they resolve the
// same arguments the same way.
func addPresentationFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	config.RegisterFlags(fs)
	fs.String(configFlag, "", "Config file to load; every positional argument is then a source")
	fs.SortFlags = false
}

// newRequest captures what a resolving command was invoked with.
func newRequest(cmd *cobra.Command, args []string) config.Request {
	path, _ := cmd.Flags().GetString(configFlag)

	return config.Request{
		Args:       args,
		Flags:      cmd.Flags(),
		ConfigPath: path,
	}
}

// addFormatFlag registers --format/-f restricted to formats, the first being
// the default.
func addFormatFlag(cmd *cobra.Command, formats ...string) {
	cmd.Flags().StringP("format", "f", formats[0],
		fmt.Sprintf("Output format (%s)", strings.Join(formats, "|")))

	AddFlagValidation(cmd, "format", func(value string) error {
		return ValidateFormatWithSuggestion(value, formats)
	})
}

// ValidateFormatWithSuggestion rejects formats outside valid and suggests
// the closest one.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, v := range valid {
		if format == v {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
	if suggestions := slideserrors.SuggestKey(format, valid); len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}

	return fmt.Errorf("%s", msg)
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}
