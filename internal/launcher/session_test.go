package launcher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"lyxs/internal/config"
	"lyxs/internal/errors"
	"lyxs/internal/log"
	"lyxs/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	copied []string
	err    error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.copied = append(f.copied, text)
	return nil
}

func newTestSession(t *testing.T) (*Session, *config.Config, *fakeClipboard) {
	t.Helper()
	root := t.TempDir()
	testutils.CreateBindingDirs(t, root)
	cfg := config.NewTestConfig(root)
	clip := &fakeClipboard{}

	s, err := NewSession(cfg, WithClipboard(clip), WithLogger(log.NewLogger(log.WithOutput(&bytes.Buffer{}))))
	require.NoError(t, err)
	return s, cfg, clip
}

func texts(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Text)
	}
	return out
}

func TestQuery(t *testing.T) {
	tests := []struct {
		q         Query
		triggered bool
		text      string
	}{
		{Query{Raw: "l eps", Trigger: "l "}, true, "eps"},
		{Query{Raw: "l ", Trigger: "l "}, true, ""},
		{Query{Raw: "lyx eps", Trigger: "l "}, false, "lyx eps"},
		{Query{Raw: "eps", Trigger: ""}, true, "eps"},
		{NewQuery("l ", "frac"), true, "frac"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.triggered, tt.q.IsTriggered(), tt.q.Raw)
		assert.Equal(t, tt.text, tt.q.String(), tt.q.Raw)
	}
}

func TestInitialize(t *testing.T) {
	s, cfg, _ := newTestSession(t)
	require.NoError(t, s.Initialize())

	assert.DirExists(t, cfg.PluginDir())
	assert.Equal(t, 6, s.Corpus().Len())
	assert.Equal(t, 0, s.Tracker().Len())

	cache, err := os.ReadFile(cfg.CorpusPath())
	require.NoError(t, err)
	assert.Equal(t, testutils.SystemBindings+testutils.UserBindings, string(cache))
}

func TestHandleQuery(t *testing.T) {
	s, cfg, clip := newTestSession(t)
	require.NoError(t, s.Initialize())

	t.Run("untriggered", func(t *testing.T) {
		assert.Nil(t, s.HandleQuery(Query{Raw: "x eps", Trigger: cfg.Query.Trigger}))
	})

	t.Run("short query without history", func(t *testing.T) {
		items := s.HandleQuery(NewQuery(cfg.Query.Trigger, "e"))
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("search", func(t *testing.T) {
		q := NewQuery(cfg.Query.Trigger, "EPS")
		items := s.HandleQuery(q)
		require.Len(t, items, 2)
		assert.Equal(t, []string{`\epsilon`, `\varepsilon`}, texts(items))
		assert.Equal(t, "M-m e", items[0].Subtext)
		assert.Equal(t, "C-S-e", items[1].Subtext)
		assert.Equal(t, q.Raw, items[0].Completion)
		assert.Equal(t, ItemID, items[0].ID)
	})

	t.Run("selection feeds the defaults", func(t *testing.T) {
		items := s.HandleQuery(NewQuery(cfg.Query.Trigger, "frac"))
		require.Len(t, items, 1)
		require.NoError(t, items[0].Action())
		require.NoError(t, items[0].Action())
		require.NoError(t, s.Select(`\epsilon`, "M-m e"))

		assert.Equal(t, []string{`\frac`, `\frac`, `\epsilon`}, clip.copied)

		defaults := s.HandleQuery(NewQuery(cfg.Query.Trigger, ""))
		require.Len(t, defaults, 2)
		assert.Equal(t, []string{`\frac`, `\epsilon`}, texts(defaults))
		assert.Equal(t, "M-m f", defaults[0].Subtext)
		assert.Equal(t, `\frac`, defaults[0].Completion)

		require.NoError(t, defaults[1].Action())
		assert.Equal(t, 2, s.Tracker().Count(`\epsilon`))
	})
}

func TestHandleQueryUsesConfiguredThresholds(t *testing.T) {
	s, cfg, _ := newTestSession(t)
	require.NoError(t, s.Initialize())
	require.NoError(t, s.Select(`\delta`, "M-m d"))

	cfg.Query.Limit = 2
	assert.Len(t, s.HandleQuery(NewQuery(cfg.Query.Trigger, "math-insert")), 2)

	cfg.Query.MinLength = 4
	items := s.HandleQuery(NewQuery(cfg.Query.Trigger, "eps"))
	assert.Equal(t, []string{`\delta`}, texts(items))
}

func TestSelect(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		s, _, clip := newTestSession(t)
		err := s.Select("", "C-x")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInputError(err))
		assert.Empty(t, clip.copied)
		assert.Equal(t, 0, s.Tracker().Len())
	})

	t.Run("clipboard failure keeps the record", func(t *testing.T) {
		s, _, clip := newTestSession(t)
		clip.err = errors.New("no display")

		err := s.Select(`\frac`, "M-m f")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "clipboard")
		assert.Equal(t, 1, s.Tracker().Count(`\frac`))
	})
}

func TestFinalizeAndRestore(t *testing.T) {
	s, cfg, _ := newTestSession(t)
	require.NoError(t, s.Initialize())
	require.NoError(t, s.Select(`\frac`, "M-m f"))
	require.NoError(t, s.Select(`\frac`, "M-m f"))
	require.NoError(t, s.Select(`\delta`, "M-m d"))
	require.NoError(t, s.Finalize())
	assert.FileExists(t, cfg.SnapshotPath())

	restored, err := NewSession(cfg, WithClipboard(&fakeClipboard{}))
	require.NoError(t, err)
	require.NoError(t, restored.Initialize())
	assert.Equal(t, s.Tracker().Top(5), restored.Tracker().Top(5))
	assert.Equal(t, 2, restored.Tracker().Count(`\frac`))
}

func TestInitializeWithCorruptSnapshot(t *testing.T) {
	var buf bytes.Buffer
	root := t.TempDir()
	testutils.CreateBindingDirs(t, root)
	cfg := config.NewTestConfig(root)
	testutils.CreateTestFilesWithContent(t, cfg.PluginDir(), map[string]string{
		cfg.Storage.SnapshotFile: `{"binding_to_count": {"a": 2}, "count_to_bindings": {"1": ["a"]}}`,
	})

	s, err := NewSession(cfg, WithLogger(log.NewLogger(log.WithOutput(&buf))))
	require.NoError(t, err)
	require.NoError(t, s.Initialize())

	assert.Equal(t, 0, s.Tracker().Len())
	assert.Contains(t, buf.String(), "corrupt")
	assert.FileExists(t, cfg.SnapshotPath()+".corrupt")
	assert.NoFileExists(t, cfg.SnapshotPath())

	require.NoError(t, s.Select(`\delta`, "M-m d"))
	require.NoError(t, s.Finalize())
	assert.FileExists(t, cfg.SnapshotPath())
}

func TestInitializeWithoutBindingDirectories(t *testing.T) {
	cfg := config.NewTestConfig(t.TempDir())
	s, err := NewSession(cfg, WithLogger(log.NewLogger(log.WithOutput(&bytes.Buffer{}))))
	require.NoError(t, err)
	require.NoError(t, s.Initialize())

	assert.Equal(t, 0, s.Corpus().Len())
	assert.Empty(t, s.HandleQuery(NewQuery(cfg.Query.Trigger, "math")))
}

func TestReload(t *testing.T) {
	s, cfg, _ := newTestSession(t)
	require.NoError(t, s.Initialize())
	require.Equal(t, 6, s.Corpus().Len())

	testutils.CreateTestFilesWithContent(t, cfg.Bindings.UserDir, map[string]string{
		"extra.bind": `\bind "M-m o" "math-insert \omega"` + "\n",
	})
	require.NoError(t, s.Reload())
	assert.Equal(t, 7, s.Corpus().Len())
	assert.Equal(t, []string{`\omega`}, texts(s.HandleQuery(NewQuery(cfg.Query.Trigger, "omega"))))
}

func TestFinalizeFailure(t *testing.T) {
	s, cfg, _ := newTestSession(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.Storage.SnapshotFile = filepath.Join(blocker, "common_bindings")

	require.NoError(t, s.Select(`\frac`, "M-m f"))
	err := s.Finalize()
	require.Error(t, err)
	assert.Equal(t, errors.SnapshotWriteFailed, errors.KindOf(err))
}

func TestNewSessionRejectsBadPattern(t *testing.T) {
	cfg := config.NewTestConfig(t.TempDir())
	cfg.Bindings.Pattern = "[bind"
	_, err := NewSession(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}
