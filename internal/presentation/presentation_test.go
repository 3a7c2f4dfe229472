package presentation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/slides/internal/config"
	"github.com/conneroisu/slides/internal/discovery"
	slideserrors "github.com/conneroisu/slides/internal/errors"
)

type stubDiscoverer struct {
	list discovery.SourceList
	err  error
	got  []string
}

func (s *stubDiscoverer) Discover(_ context.Context, tokens []string) (discovery.SourceList, error) {
	s.got = tokens
	return s.list, s.err
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func settingsFor(sources ...string) *config.Settings {
	s := config.Default()
	s.Sources = sources
	return s
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", []byte("# A\n"))
	writeFile(t, dir, "deck/b.md", []byte("# B\n"))
	writeFile(t, dir, "deck/c.md", []byte("# C\n"))

	settings := settingsFor(a, filepath.Join(dir, "deck"))
	p, err := Load(context.Background(), settings, discovery.NewEngine())
	require.NoError(t, err)

	assert.Same(t, settings, p.Settings)
	assert.Equal(t, []string{
		a,
		filepath.Join(dir, "deck", "b.md"),
		filepath.Join(dir, "deck", "c.md"),
	}, p.Sources())
}

func TestLoadPassesSourcesThrough(t *testing.T) {
	stub := &stubDiscoverer{list: discovery.SourceList{"x.md"}}
	settings := settingsFor("one", "two")

	p, err := Load(context.Background(), settings, stub)
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, stub.got)
	assert.Equal(t, []string{"x.md"}, p.Sources())
}

func TestLoadErrors(t *testing.T) {
	t.Run("discovery failure", func(t *testing.T) {
		cause := slideserrors.NewSourceNotFoundError("gone.md", nil)
		_, err := Load(context.Background(), settingsFor("gone.md"), &stubDiscoverer{err: cause})
		require.Error(t, err)
		assert.True(t, slideserrors.IsSourceNotFound(err))
	})

	t.Run("unknown encoding", func(t *testing.T) {
		settings := settingsFor("a.md")
		settings.Encoding = "klingon"

		stub := &stubDiscoverer{}
		_, err := Load(context.Background(), settings, stub)
		require.Error(t, err)
		assert.True(t, slideserrors.IsConfigParse(err))
		assert.Nil(t, stub.got, "discovery must not run")

		var e *slideserrors.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, config.KeyEncoding, e.Key)
	})

	t.Run("nil settings", func(t *testing.T) {
		_, err := Load(context.Background(), nil, &stubDiscoverer{})
		assert.Error(t, err)
	})
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"utf8", "UTF-8", "utf_8", " utf16 ", "utf-16le", "latin1", "iso-8859-1", "shift_jis"} {
		t.Run(name, func(t *testing.T) {
			enc, err := LookupEncoding(name)
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}

	_, err := LookupEncoding("")
	assert.Error(t, err)
}

func TestDocumentOpenDecodes(t *testing.T) {
	dir := t.TempDir()
	const content = "# Héllo\nwörld\n"

	utf16, err := LookupEncoding("utf16")
	require.NoError(t, err)
	encoded, err := utf16.NewEncoder().Bytes([]byte(content))
	require.NoError(t, err)
	require.NotEqual(t, []byte(content), encoded)

	tests := []struct {
		name     string
		encoding string
		raw      []byte
		expected string
	}{
		{"utf8", "utf8", []byte(content), content},
		{"utf16", "utf16", encoded, content},
		{"utf16 little-endian bom", "utf-16", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf16 big-endian bom", "UTF_16", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
		{"utf16 without bom", "utf16", []byte{'h', 0, 'i', 0}, "hi"},
		{"latin1", "latin1", []byte{'c', 'a', 'f', 0xE9, '\n'}, "café\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".md", tt.raw)

			settings := settingsFor(path)
			settings.Encoding = tt.encoding
			p, err := Load(context.Background(), settings, discovery.NewEngine())
			require.NoError(t, err)
			require.Len(t, p.Documents, 1)

			rc, err := p.Documents[0].Open()
			require.NoError(t, err)
			defer rc.Close()

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestDocumentOpenMissing(t *testing.T) {
	doc := Document{Path: filepath.Join(t.TempDir(), "removed.md")}

	_, err := doc.Open()
	require.Error(t, err)
	assert.True(t, slideserrors.IsSourceNotFound(err))
}

func TestSummaryRenderer(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", []byte("one\ntwo\n"))
	b := writeFile(t, dir, "b.md", []byte("three"))

	settings := settingsFor(a, b)
	p, err := Load(context.Background(), settings, discovery.NewEngine())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewSummaryRenderer(&buf).Render(context.Background(), p))

	out := buf.String()
	assert.Contains(t, out, "presentation.html (theme default)")
	assert.Contains(t, out, a)
	assert.Contains(t, out, b)
	assert.Contains(t, out, "2 documents")
	assert.NotContains(t, out, "\x1b[", "buffers are never colorized")

	lines := strings.Split(out, "\n")
	var aRow string
	for _, line := range lines {
		if strings.Contains(line, a) {
			aRow = line
		}
	}
	fields := strings.Fields(strings.NewReplacer("│", " ").Replace(aRow))
	assert.Equal(t, []string{"1", a, "2", "8"}, fields)
}

func TestSummaryRendererQuiet(t *testing.T) {
	dir := t.TempDir()
	settings := settingsFor(writeFile(t, dir, "a.md", []byte("x")))
	settings.Quiet = true

	p, err := Load(context.Background(), settings, discovery.NewEngine())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewSummaryRenderer(&buf).Render(context.Background(), p))
	assert.Empty(t, buf.String())
}

func TestSummaryRendererMissingDocument(t *testing.T) {
	p := &Presentation{
		Settings:  config.Default(),
		Documents: []Document{{Path: filepath.Join(t.TempDir(), "gone.md")}},
	}

	err := NewSummaryRenderer(io.Discard).Render(context.Background(), p)
	require.Error(t, err)
	assert.True(t, slideserrors.IsSourceNotFound(err))
}

func TestRendererFunc(t *testing.T) {
	sentinel := errors.New("boom")
	var seen *Presentation

	r := RendererFunc(func(_ context.Context, p *Presentation) error {
		seen = p
		return sentinel
	})

	p := &Presentation{Settings: config.Default()}
	assert.ErrorIs(t, r.Render(context.Background(), p), sentinel)
	assert.Same(t, p, seen)
}

func TestLineCounter(t *testing.T) {
	tests := []struct {
		input string
		lines int64
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"\n\n", 2},
	}

	for _, tt := range tests {
		var c lineCounter
		_, _ = c.Write([]byte(tt.input))
		assert.Equal(t, tt.lines, c.Lines(), "%q", tt.input)
		assert.Equal(t, int64(len(tt.input)), c.bytes)
	}
}
