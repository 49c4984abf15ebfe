package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"lyxs/internal/config"
	"lyxs/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
bindings:
  system_dir: "/opt/lyx/bind"
  user_dir: "/home/test/.lyx/bind"
  pattern: "*.{bind,bindings}"
query:
  min_length: 3
  limit: 8
storage:
  plugin_dir: "/home/test/.lyxs"
clipboard:
  enabled: false
watch_mode:
  enabled: true
`
	invalidSyntaxYAML = `
query:
  limit: "eight
bindings: [
`
	invalidValueYAML = `
query:
  limit: 0
`
	invalidPatternYAML = `
bindings:
  pattern: "[unterminated"
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "/opt/lyx/bind", cfg.Bindings.SystemDir)
		assert.Equal(t, "*.{bind,bindings}", cfg.Bindings.Pattern)
		assert.Equal(t, 3, cfg.Query.MinLength)
		assert.Equal(t, 8, cfg.Query.Limit)
		assert.False(t, cfg.Clipboard.Enabled)
		assert.True(t, cfg.WatchMode.Enabled)

		// Unset keys keep their defaults
		assert.Equal(t, config.DefaultSentinel, cfg.Bindings.Sentinel)
		assert.Equal(t, config.DefaultTrigger, cfg.Query.Trigger)
		assert.Equal(t, config.DefaultSnapshotFile, cfg.Storage.SnapshotFile)
		assert.Equal(t, config.DefaultDebounceMillis, cfg.WatchMode.Debounce)

		assert.Equal(t, filepath.Join("/home/test/.lyxs", config.DefaultSnapshotFile), cfg.SnapshotPath())
		assert.Equal(t, []string{"/opt/lyx/bind", "/home/test/.lyx/bind"}, cfg.BindingDirs())
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultMinQueryLength, cfg.Query.MinLength)
		assert.Equal(t, config.DefaultResultLimit, cfg.Query.Limit)
		assert.True(t, cfg.Clipboard.Enabled)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidValueYAML))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
		assert.Contains(t, err.Error(), "query.limit")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidPatternYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bindings.pattern")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		param  string
	}{
		{"negative min length", func(c *config.Config) { c.Query.MinLength = -1 }, "query.min_length"},
		{"empty pattern", func(c *config.Config) { c.Bindings.Pattern = "" }, "bindings.pattern"},
		{"no directories", func(c *config.Config) { c.Bindings.SystemDir, c.Bindings.UserDir = "", "" }, "bindings"},
		{"no plugin dir", func(c *config.Config) { c.Storage.PluginDir = "" }, "storage.plugin_dir"},
		{"no snapshot file", func(c *config.Config) { c.Storage.SnapshotFile = "" }, "storage.snapshot_file"},
		{"negative debounce", func(c *config.Config) { c.WatchMode.Debounce = -5 }, "watch_mode.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.param, cfgErr.Param())
		})
	}

	assert.NoError(t, config.New().Validate())
	var nilCfg *config.Config
	assert.Error(t, nilCfg.Validate())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.New()
	cfg.Query.Limit = 12
	cfg.Bindings.Sentinel = "command-alternatives"

	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".lyx", "bind"), config.ExpandPath("~/.lyx/bind"))
	assert.Equal(t, home, config.ExpandPath("~"))
	assert.Equal(t, "/usr/share/lyx/bind", config.ExpandPath("/usr/share/lyx/bind"))
	assert.Equal(t, "~other/x", config.ExpandPath("~other/x"))
}

func TestStoragePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewTestConfig(dir)

	assert.Equal(t, filepath.Join(dir, "state", config.DefaultSnapshotFile), cfg.SnapshotPath())
	assert.Equal(t, filepath.Join(dir, "state", config.DefaultCorpusFile), cfg.CorpusPath())

	cfg.Storage.SnapshotFile = "/var/tmp/usage.json"
	assert.Equal(t, "/var/tmp/usage.json", cfg.SnapshotPath())

	cfg.Storage.CorpusFile = ""
	assert.Equal(t, "", cfg.CorpusPath())
	cfg.Storage.LogFile = ""
	assert.Equal(t, "", cfg.LogPath())
}
