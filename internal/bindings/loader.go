// Package bindings discovers LyX bind files, concatenates them into a corpus
// and searches it for binding declarations.
package bindings

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"lyxs/internal/errors"
	"lyxs/internal/log"

	"github.com/gobwas/glob"
)

// Loader reads every file whose name matches a glob under a list of
// directories.
type Loader struct {
	dirs     []string
	pattern  string
	matcher  glob.Glob
	sentinel string
	logger   log.Logging
}

// NewLoader compiles pattern (matched against file names, not paths).
func NewLoader(dirs []string, pattern, sentinel string) (*Loader, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewConfigError("invalid bind file pattern", pattern, errors.InvalidConfig, err)
	}
	return &Loader{
		dirs:     dirs,
		pattern:  pattern,
		matcher:  matcher,
		sentinel: sentinel,
		logger:   log.Default(),
	}, nil
}

// SetLogger replaces the loader's logger.
func (l *Loader) SetLogger(logger log.Logging) {
	l.logger = logger
}

// Dirs returns the directories scanned, in order.
func (l *Loader) Dirs() []string {
	out := make([]string, len(l.dirs))
	copy(out, l.dirs)
	return out
}

// Matches reports whether path names a bind file.
func (l *Loader) Matches(path string) bool {
	return l.matcher.Match(filepath.Base(path))
}

// Files returns the matching files, directory by directory in the configured
// order and lexically within each directory tree. Directories that are
// missing or unreadable are skipped.
func (l *Loader) Files() []string {
	var files []string
	for _, dir := range l.dirs {
		files = append(files, l.walk(dir)...)
	}
	return files
}

// resolveRoot follows root when it is itself a symlink; WalkDir does not.
func resolveRoot(root string) (string, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return root, nil
	}
	return filepath.EvalSymlinks(root)
}

func (l *Loader) walk(root string) []string {
	var files []string
	top, err := resolveRoot(root)
	if err != nil {
		l.logger.With(log.F("directory", root)).Debug("binding directory unavailable")
		return nil
	}
	err = filepath.WalkDir(top, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == top {
				l.logger.With(log.F("directory", root)).Debug("binding directory unavailable")
				return filepath.SkipDir
			}
			l.logger.With(log.F("path", path), log.F("error", err)).Warn("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if l.matcher.Match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		l.logger.With(log.F("directory", root), log.F("error", err)).Warn("binding directory scan stopped")
	}
	return files
}

// Load concatenates every bind file into a Corpus. Files that cannot be read
// contribute nothing.
func (l *Loader) Load() *Corpus {
	var sb strings.Builder
	count := 0
	for _, path := range l.Files() {
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.With(log.F("file", path), log.F("error", err)).Warn("skipping unreadable bind file")
			continue
		}
		sb.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
		count++
	}

	corpus := NewCorpus(sb.String(), l.sentinel)
	l.logger.With(log.F("files", count), log.F("bindings", corpus.Len())).Debug("binding corpus loaded")
	return corpus
}
