package config

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	slideserrors "github.com/conneroisu/slides/internal/errors"
	"github.com/conneroisu/slides/internal/logging"
)

// Request is the raw input of one resolution: positional arguments in the
// order given, the parsed flag set, and an optional explicit config path.
type Request struct {
	Args       []string
	Flags      *pflag.FlagSet
	ConfigPath string
}

// Resolver turns a Request into Settings. It keeps no state between calls,
// so a watch loop can call Resolve repeatedly.
type Resolver struct {
	logger logging.Logger
}

// NewResolver creates a resolver that logs through logger.
func NewResolver(logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Resolver{logger: logger.WithComponent("config")}
}

// ConfigFile returns the config file a request refers to and the positional
// arguments left as sources. An explicit path wins; otherwise the first
// positional is used when IsConfigFile accepts it.
func (req Request) ConfigFile() (string, []string) {
	if req.ConfigPath != "" {
		return req.ConfigPath, req.Args
	}
	if len(req.Args) > 0 && IsConfigFile(req.Args[0]) {
		return req.Args[0], req.Args[1:]
	}

	return "", req.Args
}

// Resolve builds the effective settings for req.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Settings, error) {
	path, extra := req.ConfigFile()

	v := viper.New()
	for _, opt := range Options {
		v.SetDefault(opt.Key, opt.Default)
	}

	sources := []string{}
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(fc.Values); err != nil {
			return nil, slideserrors.Wrap(err, slideserrors.KindConfigParse,
				slideserrors.ErrCodeConfigSyntax, "cannot merge config file")
		}
		sources = append(sources, fc.Sources...)
		r.logger.Debug(ctx, "Loaded config file",
			"path", path, "format", string(fc.Format), "sources", len(fc.Sources), "keys", len(fc.Values))
	}
	sources = append(sources, extra...)

	if req.Flags != nil {
		if err := bindFlags(v, req.Flags); err != nil {
			return nil, err
		}
	}

	settings, err := build(v)
	if err != nil {
		return nil, err
	}
	settings.Sources = sources
	settings.ConfigFile = path

	if err := Validate(settings); err != nil {
		return nil, err
	}

	r.logger.Debug(ctx, "Resolved settings",
		"sources", settings.Sources,
		"theme", settings.Theme,
		"destination", settings.Destination,
		"config_file", settings.ConfigFile)

	return settings, nil
}

// bindFlags binds every known switch present on the flag set. viper only
// consults a bound flag when it was changed on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, opt := range Options {
		flag := fs.Lookup(opt.Flag)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(opt.Key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", opt.Flag, err)
		}
	}

	return nil
}

// build reads every option back out of v with its final type.
func build(v *viper.Viper) (*Settings, error) {
	s := Default()

	for _, opt := range Options {
		value, err := coerce(opt, v.Get(opt.Key))
		if err != nil {
			return nil, coerceError(opt.Key, err)
		}

		switch opt.Key {
		case KeyTheme:
			s.Theme = value.(string)
		case KeyLinenos:
			s.Linenos = Linenos(value.(string))
		case KeyDestination:
			s.Destination = value.(string)
		case KeyEncoding:
			s.Encoding = value.(string)
		case KeyExtensions:
			s.Extensions = value.([]string)
		case KeyCSS:
			s.CSS = value.([]string)
		case KeyJS:
			s.JS = value.([]string)
		case KeyCopyTheme:
			s.CopyTheme = value.(bool)
		case KeyDebug:
			s.Debug = value.(bool)
		case KeyEmbed:
			s.Embed = value.(bool)
		case KeyDirectOutput:
			s.DirectOutput = value.(bool)
		case KeyNoPresenterNotes:
			s.NoPresenterNotes = value.(bool)
		case KeyQuiet:
			s.Quiet = value.(bool)
		case KeyRelative:
			s.Relative = value.(bool)
		case KeyWatch:
			s.Watch = value.(bool)
		case KeyMathOutput:
			s.MathOutput = value.(bool)
		}
	}

	return s, nil
}
