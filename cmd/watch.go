package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/conneroisu/slides/internal/config"
	"github.com/conneroisu/slides/internal/discovery"
	"github.com/conneroisu/slides/internal/logging"
	"github.com/conneroisu/slides/internal/presentation"
	"github.com/conneroisu/slides/internal/watcher"
)

// watchPresentation rebuilds the presentation whenever a document or the
// config file changes, until ctx is cancelled. Every rebuild resolves req
// from scratch; a failed rebuild is logged and watching continues.
func watchPresentation(
	ctx context.Context,
	req config.Request,
	p *presentation.Presentation,
	logger logging.Logger,
	renderer presentation.Renderer,
	logOut io.Writer,
) error {
	fileWatcher, tracked, err := newPresentationWatcher(p, logger)
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	fileWatcher.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			logger.Debug(ctx, "Change detected", "path", event.Path, "type", event.Type.String())
		}
		logger.Info(ctx, "Rebuilding presentation", "changes", len(events))

		rebuilt, _, err := buildPresentation(ctx, req, logOut)
		if err != nil {
			return fmt.Errorf("rebuilding presentation: %w", err)
		}

		tracked.Replace(trackedPaths(rebuilt)...)
		if err := fileWatcher.AddSources(rebuilt.Settings.Sources...); err != nil {
			logger.Warn(ctx, err, "Cannot watch new sources")
		}

		return renderer.Render(ctx, rebuilt)
	})

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}

	logger.Info(ctx, "Watching for changes", "paths", len(fileWatcher.WatchList()))

	<-ctx.Done()
	logger.Info(ctx, "Stopping file watcher")

	return nil
}

// newPresentationWatcher watches the sources and config file of p. A change
// is reported when it touches a file the presentation was built from, or a
// visible document that may join it. The returned set holds the files of the
// current build and is replaced after every rebuild.
func newPresentationWatcher(p *presentation.Presentation, logger logging.Logger) (*watcher.FileWatcher, *watcher.PathSet, error) {
	fileWatcher, err := watcher.NewFileWatcher(watcher.DefaultDebounce, logger)
	if err != nil {
		return nil, nil, err
	}

	tracked := watcher.NewPathSet(trackedPaths(p)...)
	fileWatcher.AddFilter(watcher.AnyOf(
		tracked.Match,
		watcher.AllOf(watcher.ExtensionFilter(discovery.DefaultExtensions...), watcher.NoHiddenFilter),
	))

	if cfg := p.Settings.ConfigFile; cfg != "" {
		if err := fileWatcher.AddPath(filepath.Dir(cfg)); err != nil {
			_ = fileWatcher.Stop()
			return nil, nil, err
		}
	}

	if err := fileWatcher.AddSources(p.Settings.Sources...); err != nil {
		_ = fileWatcher.Stop()
		return nil, nil, err
	}

	return fileWatcher, tracked, nil
}

// trackedPaths lists the config file and every document of p.
func trackedPaths(p *presentation.Presentation) []string {
	paths := p.Sources()
	if cfg := p.Settings.ConfigFile; cfg != "" {
		paths = append(paths, cfg)
	}
	return paths
}
