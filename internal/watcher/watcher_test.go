package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	assert.NoError(t, watcher.AddPath(dir))
	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))
}

func TestFileWatcherAddRecursive(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))

	require.NoError(t, watcher.AddRecursive(root))

	assert.Equal(t, []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b"),
	}, watcher.WatchList())
}

func TestFileWatcherAddSources(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	root := t.TempDir()
	deck := filepath.Join(root, "deck")
	require.NoError(t, os.MkdirAll(filepath.Join(deck, "part"), 0o755))
	intro := filepath.Join(root, "intro.md")
	outro := filepath.Join(root, "outro.md")
	require.NoError(t, os.WriteFile(intro, []byte("# intro"), 0o644))
	require.NoError(t, os.WriteFile(outro, []byte("# outro"), 0o644))

	require.NoError(t, watcher.AddSources(intro, deck, outro))

	assert.Equal(t, []string{root, deck, filepath.Join(deck, "part")}, watcher.WatchList())

	assert.Error(t, watcher.AddSources(filepath.Join(root, "missing.md")))
}

// startWatcher runs a watcher on dir delivering batches to the returned
// channel.
func startWatcher(t *testing.T, dir string, filters ...FileFilter) <-chan []ChangeEvent {
	t.Helper()

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Stop() })

	for _, f := range filters {
		watcher.AddFilter(f)
	}

	batches := make(chan []ChangeEvent, 10)
	watcher.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		batches <- events
		return nil
	})

	require.NoError(t, watcher.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, watcher.Start(ctx))

	time.Sleep(50 * time.Millisecond)

	return batches
}

func waitBatch(t *testing.T, batches <-chan []ChangeEvent) []ChangeEvent {
	t.Helper()

	select {
	case events := <-batches:
		return events
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch delivered")
		return nil
	}
}

func TestFileWatcherDeliversSortedBatch(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir, ExtensionFilter(".md"))

	for _, name := range []string{"c.md", "a.md", "b.md", "a.md", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}

	events := waitBatch(t, batches)

	paths := make([]string, len(events))
	for i, e := range events {
		paths[i] = e.Path
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "b.md"),
		filepath.Join(dir, "c.md"),
	}, paths)
}

func TestFileWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir, ExtensionFilter(".md"))

	sub := filepath.Join(dir, "chapter")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(sub, "one.md")
	require.NoError(t, os.WriteFile(target, []byte("# one"), 0o644))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case events := <-batches:
			for _, e := range events {
				if e.Path == target {
					return
				}
			}
		case <-deadline:
			t.Fatal("change in new directory not reported")
		}
	}
}

func TestFileWatcherHandlerErrorKeepsRunning(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	calls := make(chan struct{}, 10)
	watcher.AddHandler(func(_ context.Context, _ []ChangeEvent) error {
		calls <- struct{}{}
		return errors.New("rebuild failed")
	})
	require.NoError(t, watcher.AddPath(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 2; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte{byte(i)}, 0o644))
		select {
		case <-calls:
		case <-time.After(3 * time.Second):
			t.Fatalf("handler not called for change %d", i)
		}
	}
}

func TestCoalesce(t *testing.T) {
	events := coalesce([]ChangeEvent{
		{Type: EventTypeCreated, Path: "b.md"},
		{Type: EventTypeCreated, Path: "a.md"},
		{Type: EventTypeModified, Path: "b.md"},
		{Type: EventTypeDeleted, Path: "a.md"},
	})

	assert.Equal(t, []ChangeEvent{
		{Type: EventTypeDeleted, Path: "a.md"},
		{Type: EventTypeModified, Path: "b.md"},
	}, events)

	assert.Empty(t, coalesce(nil))
}

func TestExtensionFilter(t *testing.T) {
	filter := ExtensionFilter(".md", ".rst")

	testCases := []struct {
		path     string
		expected bool
	}{
		{"slides.md", true},
		{"SLIDES.MD", true},
		{"notes.rst", true},
		{"style.css", false},
		{"Makefile", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, filter(tc.path))
		})
	}
}

func TestPathFilter(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "slides.cfg")
	filter := PathFilter(cfg)

	assert.True(t, filter(cfg))
	assert.True(t, filter(filepath.Join(dir, ".", "slides.cfg")))
	assert.False(t, filter(filepath.Join(dir, "other.cfg")))
}

func TestAnyOf(t *testing.T) {
	filter := AnyOf(ExtensionFilter(".md"), PathFilter("presentation.cfg"))

	assert.True(t, filter("a.md"))
	assert.True(t, filter("presentation.cfg"))
	assert.False(t, filter("other.cfg"))
	assert.False(t, AnyOf()("a.md"))
}

func TestAllOf(t *testing.T) {
	filter := AllOf(ExtensionFilter(".md"), NoHiddenFilter)

	assert.True(t, filter("deck/a.md"))
	assert.False(t, filter("deck/.a.md"))
	assert.False(t, filter("deck/a.txt"))
	assert.True(t, AllOf()("a.md"))
}

func TestPathSetReplace(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")

	set := NewPathSet(a)
	assert.True(t, set.Match(a))
	assert.False(t, set.Match(b))

	set.Replace(b)
	assert.False(t, set.Match(a))
	assert.True(t, set.Match(b))
}

func TestNoHiddenFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"slides/a.md", true},
		{"./a.md", true},
		{"../deck/a.md", true},
		{".drafts/talk.md", true},
		{"deck/.a.md.swp", false},
		{"deck/.#a.md", false},
		{".intro.md", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, NoHiddenFilter(tc.path))
		})
	}
}
