// Package discovery expands source tokens into the ordered list of documents
// a presentation is built from.
//
// A token naming a file is emitted unchanged. A token naming a directory is
// walked depth-first: at every level the document files come first in
// lexicographic order, then each subdirectory in lexicographic order with its
// own documents appended before the next sibling is visited. Tokens keep the
// order they were given in, even when several are expanded concurrently.
package discovery

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	slideserrors "github.com/conneroisu/slides/internal/errors"
	"github.com/conneroisu/slides/internal/logging"
)

// SourceList is the flat, ordered list of document paths.
type SourceList []string

// DefaultExtensions are the document extensions collected inside
// directories.
var DefaultExtensions = []string{".md", ".markdown", ".mdown", ".mkd", ".mkdn", ".rst", ".textile"}

// Engine discovers documents. It holds configuration only, so one engine
// can serve any number of Discover calls.
type Engine struct {
	extensions  map[string]struct{}
	concurrency int
	logger      logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtensions replaces the set of extensions collected inside
// directories. Matching ignores case; a missing leading dot is added.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			e.extensions[ext] = struct{}{}
		}
	}
}

// WithConcurrency bounds how many tokens are expanded at once. Values below
// one mean sequential expansion.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.WithComponent("discovery")
		}
	}
}

// NewEngine creates an engine with the default extensions and one worker per
// CPU, capped at 8.
func NewEngine(opts ...Option) *Engine {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	e := &Engine{
		concurrency: workers,
		logger:      logging.NewNopLogger(),
	}
	WithExtensions(DefaultExtensions...)(e)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// IsDocument reports whether name has one of the engine's extensions.
func (e *Engine) IsDocument(name string) bool {
	_, ok := e.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// tokenResult holds the expansion of one token.
type tokenResult struct {
	paths []string
	err   error
}

// Discover expands tokens into a SourceList. The result and the error
// reported (that of the earliest failing token) do not depend on the
// concurrency setting.
func (e *Engine) Discover(ctx context.Context, tokens []string) (SourceList, error) {
	op := logging.StartOperation(e.logger, "discover")

	results := make([]tokenResult, len(tokens))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			paths, err := e.expand(ctx, token)
			results[i] = tokenResult{paths: paths, err: err}
			return nil
		})
	}
	_ = g.Wait()

	list := SourceList{}
	for i, r := range results {
		if r.err != nil {
			e.logger.Debug(ctx, "Discovery failed", "token", tokens[i], "error", r.err.Error())
			return nil, r.err
		}
		e.logger.Debug(ctx, "Expanded source token", "token", tokens[i], "documents", len(r.paths))
		list = append(list, r.paths...)
	}

	op.End(ctx, "tokens", len(tokens), "documents", len(list))

	return list, nil
}

// expand resolves one token.
func (e *Engine) expand(ctx context.Context, token string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(token)
	if err != nil {
		return nil, slideserrors.WrapStat(err, token)
	}

	switch {
	case info.Mode().IsRegular():
		return []string{token}, nil
	case info.IsDir():
		var out []string
		if err := e.walk(ctx, token, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		notDoc := slideserrors.NewSourceNotFoundError(token, nil)
		notDoc.Code = slideserrors.ErrCodeNotDocument
		notDoc.Message = "source is neither a regular file nor a directory"
		return nil, notDoc
	}
}

// walk appends the documents of dir, then recurses into its subdirectories,
// both in lexicographic order.
func (e *Engine) walk(ctx context.Context, dir string, out *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return slideserrors.WrapStat(err, dir)
	}

	var files, dirs []string
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		switch {
		case entry.IsDir():
			dirs = append(dirs, name)
		case entry.Type().IsRegular():
			if e.IsDocument(name) {
				files = append(files, name)
			}
		case entry.Type()&os.ModeSymlink != 0:
			// Symlinked files are followed; symlinked directories are not
			// descended, which rules out cycles.
			if !e.IsDocument(name) {
				continue
			}
			target, err := os.Stat(path)
			if errors.Is(err, fs.ErrNotExist) {
				e.logger.Debug(ctx, "Skipping dangling symlink", "path", path)
				continue
			}
			if err != nil {
				return slideserrors.WrapStat(err, path)
			}
			if target.Mode().IsRegular() {
				files = append(files, name)
			}
		}
	}

	sort.Strings(files)
	sort.Strings(dirs)

	for _, name := range files {
		*out = append(*out, filepath.Join(dir, name))
	}
	for _, name := range dirs {
		if err := e.walk(ctx, filepath.Join(dir, name), out); err != nil {
			return err
		}
	}

	return nil
}
