package launcher

import (
	"os"
	"sync"

	"lyxs/internal/bindings"
	"lyxs/internal/config"
	"lyxs/internal/errors"
	"lyxs/internal/log"
	"lyxs/internal/stats"
)

// Session holds everything one launcher host needs between calls: the
// configuration, the binding corpus and the usage statistics.
type Session struct {
	cfg       *config.Config
	loader    *bindings.Loader
	clipboard Clipboard
	logger    log.Logging

	mu      sync.RWMutex // guards corpus; the watcher swaps it from its own goroutine
	corpus  *bindings.Corpus
	tracker *stats.Tracker
}

// Option configures a Session.
type Option func(*Session)

// WithClipboard replaces the clipboard chosen from the configuration.
func WithClipboard(c Clipboard) Option {
	return func(s *Session) { s.clipboard = c }
}

// WithLoader replaces the loader built from the configuration.
func WithLoader(l *bindings.Loader) Option {
	return func(s *Session) { s.loader = l }
}

// WithLogger sets the logger used by the session and its loader.
func WithLogger(l log.Logging) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session for cfg. Nothing is read from disk until
// Initialize.
func NewSession(cfg *config.Config, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:     cfg,
		logger:  log.Default(),
		corpus:  bindings.NewCorpus("", cfg.Bindings.Sentinel),
		tracker: stats.New(),
	}
	if cfg.Clipboard.Enabled {
		s.clipboard = SystemClipboard{}
	} else {
		s.clipboard = NopClipboard{}
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.loader == nil {
		loader, err := bindings.NewLoader(cfg.BindingDirs(), cfg.Bindings.Pattern, cfg.Bindings.Sentinel)
		if err != nil {
			return nil, err
		}
		s.loader = loader
	}
	s.loader.SetLogger(s.logger)
	return s, nil
}

// Initialize creates the plugin directory, builds the corpus and restores
// the usage statistics. A corrupt snapshot is moved aside and the session
// starts with empty statistics.
func (s *Session) Initialize() error {
	dir := s.cfg.PluginDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewFileError("cannot create plugin directory", dir, errors.FileOperationFailed, err)
	}

	if err := s.Reload(); err != nil {
		s.logger.WithError(err).Warn("corpus cache not written")
	}

	path := s.cfg.SnapshotPath()
	tracker, err := stats.Load(path)
	switch {
	case err == nil:
	case errors.IsSnapshotCorrupt(err):
		s.logger.WithError(err).Warn("usage statistics are corrupt, starting empty")
		s.setAside(path)
		tracker = stats.New()
	default:
		return err
	}

	s.mu.Lock()
	s.tracker = tracker
	s.mu.Unlock()

	s.logger.With(
		log.F("bindings", s.Corpus().Len()),
		log.F("tracked", tracker.Len()),
	).Info("launcher initialized")
	return nil
}

// setAside renames a corrupt snapshot so Finalize does not overwrite it.
func (s *Session) setAside(path string) {
	backup := path + ".corrupt"
	if err := os.Rename(path, backup); err != nil {
		s.logger.With(log.F("path", path), log.F("error", err)).Warn("cannot move corrupt snapshot aside")
		return
	}
	s.logger.With(log.F("backup", backup)).Info("corrupt snapshot moved aside")
}

// Reload rebuilds the corpus from the binding directories and refreshes the
// corpus cache. The new corpus is in use even when the cache cannot be
// written.
func (s *Session) Reload() error {
	corpus := s.loader.Load()

	s.mu.Lock()
	s.corpus = corpus
	s.mu.Unlock()

	if path := s.cfg.CorpusPath(); path != "" {
		return corpus.WriteCache(path)
	}
	return nil
}

// HandleQuery returns the items to show for q. Untriggered queries yield
// nil. Queries shorter than the configured minimum show the most used
// bindings; longer ones search the corpus.
func (s *Session) HandleQuery(q Query) []Item {
	if !q.IsTriggered() {
		return nil
	}

	text := q.String()
	limit := s.cfg.Query.Limit
	if len([]rune(text)) < s.cfg.Query.MinLength {
		s.logger.Debug("short query, showing most used bindings")
		entries := s.Tracker().Top(limit)
		items := make([]Item, 0, len(entries))
		for _, e := range entries {
			items = append(items, s.item(e.Name, e.Shortcut, e.Name))
		}
		return items
	}

	found := s.Corpus().Search(text, limit)
	items := make([]Item, 0, len(found))
	for _, b := range found {
		items = append(items, s.item(b.Name, b.Shortcut, q.Raw))
	}
	s.logger.With(log.F("query", text), log.F("results", len(items))).Debug("query handled")
	return items
}

func (s *Session) item(name, shortcut, completion string) Item {
	return Item{
		ID:         ItemID,
		Text:       name,
		Subtext:    shortcut,
		Completion: completion,
		Action:     func() error { return s.Select(name, shortcut) },
	}
}

// Select records that name was chosen with shortcut, then copies name to
// the clipboard. A clipboard failure is returned but the selection stays
// recorded.
func (s *Session) Select(name, shortcut string) error {
	if err := s.Tracker().Record(name, shortcut); err != nil {
		return err
	}
	s.logger.With(log.F("binding", name), log.F("shortcut", shortcut)).Debug("selection recorded")

	if err := s.clipboard.WriteAll(name); err != nil {
		s.logger.With(log.F("binding", name), log.F("error", err)).Warn("cannot copy binding to clipboard")
		return errors.Wrap(err, "cannot copy binding to clipboard")
	}
	return nil
}

// Finalize persists the usage statistics.
func (s *Session) Finalize() error {
	path := s.cfg.SnapshotPath()
	tracker := s.Tracker()
	if err := stats.Save(path, tracker); err != nil {
		s.logger.WithError(err).Error("cannot save usage statistics")
		return err
	}
	s.logger.With(log.F("path", path), log.F("tracked", tracker.Len())).Info("usage statistics saved")
	return nil
}

// Tracker returns the usage statistics.
func (s *Session) Tracker() *stats.Tracker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker
}

// Corpus returns the current binding corpus.
func (s *Session) Corpus() *bindings.Corpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Loader returns the loader used to build the corpus.
func (s *Session) Loader() *bindings.Loader {
	return s.loader
}
