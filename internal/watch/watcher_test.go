package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lyxs/internal/errors"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isBindFile(path string) bool {
	return strings.HasSuffix(path, ".bind")
}

// waitFor reads changes until one for path with op arrives.
func waitFor(t *testing.T, ch <-chan Change, path string, op fsnotify.Op) Change {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			require.True(t, ok, "change channel closed while waiting for %s", path)
			t.Logf("Received change: %+v", c)
			if c.Path == path && c.Op.Has(op) {
				return c
			}
		case <-timeout:
			t.Fatalf("Timeout waiting for %s on %s", op, path)
		}
	}
}

func TestWatcherFsnotify(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New(isBindFile)
	require.NoError(t, err, "New watcher creation failed")
	require.NoError(t, w.AddTree(tempDir), "Failed to add directory to watcher")
	require.NoError(t, w.Start(), "Failed to start watcher")
	defer w.Stop()

	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "second start must fail")

	ch := w.Changes()
	time.Sleep(100 * time.Millisecond)

	// Files not matching the pattern produce nothing.
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644))

	bindPath := filepath.Join(tempDir, "user.bind")
	require.NoError(t, os.WriteFile(bindPath, []byte(`\bind "C-a" "buffer-begin"`+"\n"), 0644))
	c := waitFor(t, ch, bindPath, fsnotify.Create)
	assert.False(t, c.Timestamp.IsZero())

	require.NoError(t, os.WriteFile(bindPath, []byte(`\bind "C-b" "buffer-begin"`+"\n"), 0644))
	waitFor(t, ch, bindPath, fsnotify.Write)

	require.NoError(t, os.Remove(bindPath))
	waitFor(t, ch, bindPath, fsnotify.Remove)

	w.Stop()
	assert.False(t, w.IsRunning())

	// The channel is closed once the event loop exits.
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("Timeout waiting for change channel to close after stop")
		}
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0755))

	w, err := New(isBindFile)
	require.NoError(t, err)
	require.NoError(t, w.AddTree(root))
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "nested")}, w.Directories())

	require.NoError(t, w.Start())
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	added := filepath.Join(root, "added")
	require.NoError(t, os.Mkdir(added, 0755))
	waitFor(t, w.Changes(), added, fsnotify.Create)

	require.Eventually(t, func() bool {
		for _, d := range w.Directories() {
			if d == added {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)

	bindPath := filepath.Join(added, "math.bind")
	require.NoError(t, os.WriteFile(bindPath, []byte(`\bind "M-m e" "math-insert \epsilon"`+"\n"), 0644))
	waitFor(t, w.Changes(), bindPath, fsnotify.Create)
}

func TestAddTreeErrors(t *testing.T) {
	w, err := New(isBindFile)
	require.NoError(t, err)
	defer w.Stop()

	err = w.AddTree(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsFileNotFound(err))

	file := filepath.Join(t.TempDir(), "cua.bind")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	err = w.AddTree(file)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidPath, errors.KindOf(err))
}

func TestOpenSkipsMissingDirectories(t *testing.T) {
	existing := t.TempDir()
	w, err := Open([]string{filepath.Join(t.TempDir(), "missing"), existing}, isBindFile)
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.IsRunning())
	assert.Equal(t, []string{existing}, w.Directories())
}

func TestAddTreeFollowsSymlinkedRoot(t *testing.T) {
	root := t.TempDir()
	realDir := filepath.Join(root, "realDir")
	require.NoError(t, os.MkdirAll(filepath.Join(realDir, "nested"), 0755))
	link := filepath.Join(root, "bind")
	require.NoError(t, os.Symlink(realDir, link))

	resolved, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)

	w, err := New(isBindFile)
	require.NoError(t, err)
	require.NoError(t, w.AddTree(link))
	require.NoError(t, w.Start())
	defer w.Stop()

	assert.ElementsMatch(t, []string{resolved, filepath.Join(resolved, "nested")}, w.Directories())

	time.Sleep(100 * time.Millisecond)
	bindPath := filepath.Join(resolved, "nested", "user.bind")
	require.NoError(t, os.WriteFile(bindPath, []byte(`\bind "C-a" "buffer-begin"`+"\n"), 0644))
	waitFor(t, w.Changes(), bindPath, fsnotify.Create)
}

func TestStopWithoutStart(t *testing.T) {
	w, err := New(isBindFile)
	require.NoError(t, err)
	require.NoError(t, w.AddTree(t.TempDir()))

	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())

	_, ok := <-w.Changes()
	assert.False(t, ok, "change channel must be closed")
	assert.Error(t, w.Start(), "a stopped watcher cannot be restarted")
	assert.Error(t, w.AddTree(t.TempDir()), "fsnotify watcher must be closed")
}
