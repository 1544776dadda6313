package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"archcheck/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, opts Options, roots ...string) <-chan []string {
	t.Helper()
	changed := make(chan []string, 16)
	if opts.Debounce == 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	w, err := New(opts, func(paths []string) { changed <- paths })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Watch(roots))
	return changed
}

// waitFor drains batches until want shows up or the timeout passes.
func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func assertQuiet(t *testing.T, changed <-chan []string, unwanted string) {
	t.Helper()
	select {
	case paths := <-changed:
		assert.NotContains(t, paths, unwanted)
	case <-time.After(300 * time.Millisecond):
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{0xCA, 0xFE}, 0o644))
}

func TestNew_RejectsNilCallback(t *testing.T) {
	w, err := New(Options{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.Nil(t, w)
}

func TestNew_RejectsBadGlob(t *testing.T) {
	_, err := New(Options{Exclude: []string{"[a"}}, func([]string) {})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestWatch_MissingRoot(t *testing.T) {
	w, err := New(Options{}, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	err = w.Watch([]string{filepath.Join(t.TempDir(), "absent")})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestWatcher_DirectoryRoot(t *testing.T) {
	root := t.TempDir()
	changed := startWatcher(t, Options{Exclude: []string{"**/generated/**"}}, root)

	classFile := filepath.Join(root, "A.class")
	write(t, classFile)
	waitFor(t, changed, classFile)

	source := filepath.Join(root, "A.java")
	write(t, source)
	assertQuiet(t, changed, source)

	nested := filepath.Join(root, "com", "acme", "B.class")
	write(t, nested)
	waitFor(t, changed, nested)

	generated := filepath.Join(root, "com", "generated", "G.class")
	write(t, generated)
	assertQuiet(t, changed, generated)
}

func TestWatcher_ArchiveRoot(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "app.jar")
	write(t, jar)
	other := filepath.Join(dir, "other.jar")

	changed := startWatcher(t, Options{}, jar)

	write(t, other)
	assertQuiet(t, changed, other)

	require.NoError(t, os.WriteFile(jar, []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0o644))
	waitFor(t, changed, jar)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	root := t.TempDir()
	changed := startWatcher(t, Options{}, root)

	oldPath := filepath.Join(root, "Old.class")
	newPath := filepath.Join(root, "New.class")
	write(t, oldPath)
	require.NoError(t, os.Rename(oldPath, newPath))

	waitFor(t, changed, newPath)
}

func TestWatcher_BatchesAreSorted(t *testing.T) {
	root := t.TempDir()
	changed := startWatcher(t, Options{Debounce: 200 * time.Millisecond}, root)

	b := filepath.Join(root, "B.class")
	a := filepath.Join(root, "A.class")
	write(t, b)
	write(t, a)

	select {
	case paths := <-changed:
		assert.Equal(t, []string{a, b}, paths)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}

func TestHasWatchedSuffix(t *testing.T) {
	assert.True(t, hasWatchedSuffix("/x/A.class"))
	assert.True(t, hasWatchedSuffix("/x/lib.JAR"))
	assert.True(t, hasWatchedSuffix("/x/lib.zip"))
	assert.False(t, hasWatchedSuffix("/x/A.java"))
}
