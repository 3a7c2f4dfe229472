// Package cmd provides the command-line interface for slides.
//
// Settings come from three layers with clear precedence:
//
//  1. Command-line switches (--theme, --linenos, ...) - highest priority
//  2. The config file named by the first positional argument or --config
//  3. Built-in defaults - lowest priority
//
// Sources are the exception: positional sources are appended to the ones
// listed in the config file.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/slides/internal/config"
	"github.com/conneroisu/slides/internal/discovery"
	slideserrors "github.com/conneroisu/slides/internal/errors"
	"github.com/conneroisu/slides/internal/logging"
	"github.com/conneroisu/slides/internal/presentation"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newCommandTree()

func newCommandTree() *cobra.Command {
	root := newRootCmd()
	root.AddCommand(newSourcesCmd(), newSettingsCmd(), newVersionCmd())
	return root
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slides [flags] <config-or-source> [source...]",
		Short: "Resolve a presentation's settings and source documents",
		Long: `slides merges a config file and command-line switches into one set of
presentation settings, expands the given files and directories into an
ordered list of documents, and hands both to the renderer.

The first argument is read as a config file when it ends in .cfg, .ini,
.conf, .toml, .yaml or .yml. Every other argument is a source: a document,
or a directory whose documents are collected recursively, files before
subdirectories, each level in name order.

Examples:
  slides intro.md body/ outro.md         # Three sources
  slides talk.cfg extra.md               # Config file plus one more source
  slides --config talk.cfg               # Explicit config file
  slides -t dark -l table talk.cfg       # Switches override the file
  slides -w talk.cfg                     # Rebuild whenever a source changes`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBuild,
	}

	addPresentationFlags(cmd)

	return cmd
}

// Execute runs the command line and logs a failure before returning it.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger := logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.LevelError,
			Format: "text",
			Output: rootCmd.ErrOrStderr(),
		})
		slideserrors.NewErrorHandler(logger).Handle(ctx, err, false)
	}

	return err
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	req := newRequest(cmd, args)

	p, logger, err := buildPresentation(ctx, req, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	renderer := presentation.NewSummaryRenderer(cmd.OutOrStdout())
	if err := renderer.Render(ctx, p); err != nil {
		return err
	}

	if !p.Settings.Watch {
		return nil
	}

	return watchPresentation(ctx, req, p, logger, renderer, cmd.ErrOrStderr())
}

// buildPresentation runs one full resolution: settings, then discovery.
// The returned logger is leveled by the resolved debug and quiet settings.
func buildPresentation(ctx context.Context, req config.Request, logOut io.Writer) (*presentation.Presentation, logging.Logger, error) {
	bootstrap := newLogger(logOut, levelFromFlags(req))

	settings, err := config.NewResolver(bootstrap).Resolve(ctx, req)
	if err != nil {
		return nil, bootstrap, err
	}

	logger := newLogger(logOut, logging.LevelFor(settings.Debug, settings.Quiet))
	engine := discovery.NewEngine(discovery.WithLogger(logger))

	p, err := presentation.Load(ctx, settings, engine)
	if err != nil {
		return nil, logger, err
	}

	logger.Info(ctx, "Presentation resolved",
		"config", settings.ConfigFile,
		"documents", len(p.Documents),
		"destination", settings.Destination)

	return p, logger, nil
}

// levelFromFlags picks the log level before a config file has been read.
func levelFromFlags(req config.Request) logging.LogLevel {
	if req.Flags == nil {
		return logging.LevelInfo
	}
	debug, _ := req.Flags.GetBool("debug")
	quiet, _ := req.Flags.GetBool("quiet")
	return logging.LevelFor(debug, quiet)
}

func newLogger(out io.Writer, level logging.LogLevel) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: "text",
		Output: out,
	})
}
