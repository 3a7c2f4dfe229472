// Package presentation bundles resolved settings and discovered sources into
// the read-only value handed to a renderer.
package presentation

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/conneroisu/slides/internal/config"
	"github.com/conneroisu/slides/internal/discovery"
	slideserrors "github.com/conneroisu/slides/internal/errors"
)

// Discoverer expands source tokens into documents.
type Discoverer interface {
	Discover(ctx context.Context, tokens []string) (discovery.SourceList, error)
}

// Presentation is the resolved input of one build. Renderers must treat it
// as read-only.
type Presentation struct {
	Settings  *config.Settings
	Documents []Document
}

// Sources returns the document paths in presentation order.
func (p *Presentation) Sources() []string {
	paths := make([]string, len(p.Documents))
	for i, doc := range p.Documents {
		paths[i] = doc.Path
	}
	return paths
}

// Document is one source file of the presentation.
type Document struct {
	Path     string
	encoding encoding.Encoding
}

// Open returns the document content decoded to UTF-8.
func (d Document) Open() (io.ReadCloser, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, slideserrors.WrapStat(err, d.Path)
	}

	if d.encoding == nil {
		return f, nil
	}

	return &decodingReader{
		Reader: transform.NewReader(f, d.encoding.NewDecoder()),
		file:   f,
	}, nil
}

type decodingReader struct {
	io.Reader
	file *os.File
}

func (r *decodingReader) Close() error {
	return r.file.Close()
}

// Load discovers the sources named by settings and returns the presentation.
func Load(ctx context.Context, settings *config.Settings, engine Discoverer) (*Presentation, error) {
	if settings == nil {
		return nil, fmt.Errorf("presentation: nil settings")
	}

	enc, err := LookupEncoding(settings.Encoding)
	if err != nil {
		return nil, err
	}

	sources, err := engine.Discover(ctx, settings.Sources)
	if err != nil {
		return nil, fmt.Errorf("discovering sources: %w", err)
	}

	docs := make([]Document, len(sources))
	for i, path := range sources {
		docs[i] = Document{Path: path, encoding: enc}
	}

	return &Presentation{Settings: settings, Documents: docs}, nil
}

// LookupEncoding resolves an encoding name such as "utf8", "UTF-16" or
// "latin1".
func LookupEncoding(name string) (encoding.Encoding, error) {
	if normalizeEncoding(name) == "utf-16" {
		return utf16WithBOM, nil
	}

	enc, err := htmlindex.Get(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		enc, err = htmlindex.Get(normalizeEncoding(name))
	}
	if err != nil {
		return nil, slideserrors.NewConfigParseError(
			slideserrors.ErrCodeInvalidEncoding,
			fmt.Sprintf("unknown encoding %q", name),
		).WithKey(config.KeyEncoding)
	}

	return enc, nil
}

// utf16WithBOM reads the byte order from a leading BOM and strips it.
// Content without a BOM is little-endian.
var utf16WithBOM = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

// normalizeEncoding maps spellings like utf8, utf_16 or UTF16LE onto the
// WHATWG labels.
func normalizeEncoding(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "utf") {
		return name
	}
	name = strings.ReplaceAll(name, "_", "-")
	if !strings.HasPrefix(name, "utf-") {
		name = "utf-" + name[len("utf"):]
	}
	return name
}
