package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lyxs/internal/errors"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Defaults for the launcher. The query threshold and result limit match the
// behaviour users of the Albert LyX plugin expect.
const (
	DefaultMinQueryLength = 2
	DefaultResultLimit    = 5
	DefaultTrigger        = "l "
	DefaultSentinel       = "self-insert"
	DefaultPattern        = "*.bind"
	DefaultSystemDir      = "/usr/share/lyx/bind"
	DefaultUserDir        = "~/.lyx/bind"
	DefaultPluginDir      = "~/.lyx_shortcuts_plugin"
	DefaultSnapshotFile   = "common_bindings"
	DefaultCorpusFile     = "all_lyx_bindings"
	DefaultLogFile        = "lyxs.log"
	DefaultDebounceMillis = 250
)

// Config represents the application configuration structure.
type Config struct {
	Bindings struct {
		SystemDir string `yaml:"system_dir"` // Directory shipped with LyX
		UserDir   string `yaml:"user_dir"`   // Per-user override directory
		Pattern   string `yaml:"pattern"`    // Filename glob for binding files
		Sentinel  string `yaml:"sentinel"`   // Action excluded from results
	} `yaml:"bindings"`
	Query struct {
		Trigger   string `yaml:"trigger"`    // Launcher trigger prefix
		MinLength int    `yaml:"min_length"` // Below this the most used bindings are shown
		Limit     int    `yaml:"limit"`      // Maximum number of results
	} `yaml:"query"`
	Storage struct {
		PluginDir    string `yaml:"plugin_dir"`    // Directory for plugin state
		SnapshotFile string `yaml:"snapshot_file"` // Usage statistics, relative to plugin_dir
		CorpusFile   string `yaml:"corpus_file"`   // Corpus cache, relative to plugin_dir
		LogFile      string `yaml:"log_file"`      // Log file, relative to plugin_dir
	} `yaml:"storage"`
	Clipboard struct {
		Enabled bool `yaml:"enabled"` // Copy the selected binding name
	} `yaml:"clipboard"`
	WatchMode struct {
		Enabled  bool `yaml:"enabled"`  // Reload the corpus when binding files change
		Debounce int  `yaml:"debounce"` // Debounce window in milliseconds
	} `yaml:"watch_mode"`
}

// DefaultPath returns ~/.config/lyxs/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lyxs", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location
// (~/.config/lyxs/config.yaml).
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.NewFileError("error reading config file", path, errors.FileAccessDenied, err)
	}

	// Unmarshal over the defaults so unset keys keep their default value
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Bindings.SystemDir = DefaultSystemDir
	cfg.Bindings.UserDir = DefaultUserDir
	cfg.Bindings.Pattern = DefaultPattern
	cfg.Bindings.Sentinel = DefaultSentinel

	cfg.Query.Trigger = DefaultTrigger
	cfg.Query.MinLength = DefaultMinQueryLength
	cfg.Query.Limit = DefaultResultLimit

	cfg.Storage.PluginDir = DefaultPluginDir
	cfg.Storage.SnapshotFile = DefaultSnapshotFile
	cfg.Storage.CorpusFile = DefaultCorpusFile
	cfg.Storage.LogFile = DefaultLogFile

	cfg.Clipboard.Enabled = true

	cfg.WatchMode.Enabled = false
	cfg.WatchMode.Debounce = DefaultDebounceMillis

	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	if c.Query.MinLength < 0 {
		return errors.NewConfigError("min_length must be >= 0", "query.min_length", errors.InvalidConfig, nil)
	}
	if c.Query.Limit < 1 {
		return errors.NewConfigError("limit must be >= 1", "query.limit", errors.InvalidConfig, nil)
	}
	if c.Bindings.Pattern == "" {
		return errors.NewConfigError("pattern is required", "bindings.pattern", errors.InvalidConfig, nil)
	}
	if _, err := glob.Compile(c.Bindings.Pattern); err != nil {
		return errors.NewConfigError("invalid pattern", "bindings.pattern", errors.InvalidConfig, err)
	}
	if c.Bindings.SystemDir == "" && c.Bindings.UserDir == "" {
		return errors.NewConfigError("at least one binding directory is required", "bindings", errors.InvalidConfig, nil)
	}
	if c.Storage.PluginDir == "" {
		return errors.NewConfigError("plugin_dir is required", "storage.plugin_dir", errors.InvalidConfig, nil)
	}
	if c.Storage.SnapshotFile == "" {
		return errors.NewConfigError("snapshot_file is required", "storage.snapshot_file", errors.InvalidConfig, nil)
	}
	if c.WatchMode.Debounce < 0 {
		return errors.NewConfigError("debounce must be >= 0", "watch_mode.debounce", errors.InvalidConfig, nil)
	}

	return nil
}

// BindingDirs returns the expanded binding directories in scan order:
// the system directory first, then the user override directory.
func (c *Config) BindingDirs() []string {
	var dirs []string
	for _, d := range []string{c.Bindings.SystemDir, c.Bindings.UserDir} {
		if d != "" {
			dirs = append(dirs, ExpandPath(d))
		}
	}
	return dirs
}

// PluginDir returns the expanded plugin state directory.
func (c *Config) PluginDir() string {
	return ExpandPath(c.Storage.PluginDir)
}

// SnapshotPath returns the path of the usage statistics snapshot.
func (c *Config) SnapshotPath() string {
	return c.inPluginDir(c.Storage.SnapshotFile)
}

// CorpusPath returns the path of the corpus cache, or "" when disabled.
func (c *Config) CorpusPath() string {
	if c.Storage.CorpusFile == "" {
		return ""
	}
	return c.inPluginDir(c.Storage.CorpusFile)
}

// LogPath returns the path of the log file, or "" when disabled.
func (c *Config) LogPath() string {
	if c.Storage.LogFile == "" {
		return ""
	}
	return c.inPluginDir(c.Storage.LogFile)
}

func (c *Config) inPluginDir(name string) string {
	name = ExpandPath(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.PluginDir(), name)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// NewTestConfig creates a configuration rooted in dir for tests: bindings
// are read from dir/system and dir/user and state is kept in dir/state.
func NewTestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Bindings.SystemDir = filepath.Join(dir, "system")
	cfg.Bindings.UserDir = filepath.Join(dir, "user")
	cfg.Storage.PluginDir = filepath.Join(dir, "state")
	cfg.Clipboard.Enabled = false
	return cfg
}
