package bindings

import (
	"os"
	"path/filepath"
	"strings"

	"lyxs/internal/errors"
)

// Corpus is the concatenated text of every discovered bind file together
// with its binding declaration lines.
type Corpus struct {
	text  string
	lines []string
	lower []string // lowercased lines, same indexes
}

// NewCorpus indexes text. Declarations whose action is sentinel are left
// out; an empty sentinel keeps every declaration.
func NewCorpus(text, sentinel string) *Corpus {
	c := &Corpus{text: text}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(expandTabs(line), "\r")
		if !isDeclaration(line) {
			continue
		}
		if sentinel != "" && actionVerb(line) == sentinel {
			continue
		}
		c.lines = append(c.lines, line)
		c.lower = append(c.lower, strings.ToLower(line))
	}
	return c
}

// Text returns the concatenated corpus.
func (c *Corpus) Text() string {
	if c == nil {
		return ""
	}
	return c.text
}

// Lines returns the declaration lines in file order.
func (c *Corpus) Lines() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of declaration lines.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

// each calls yield with every declaration line containing keyword, compared
// case-insensitively, in file order, until yield returns false.
func (c *Corpus) each(keyword string, yield func(line string) bool) {
	needle := strings.ToLower(keyword)
	for i, l := range c.lower {
		if strings.Contains(l, needle) && !yield(c.lines[i]) {
			return
		}
	}
}

// Filter returns up to limit declaration lines containing keyword,
// compared case-insensitively, in file order.
func (c *Corpus) Filter(keyword string, limit int) []string {
	matches := []string{}
	if c == nil || limit <= 0 {
		return matches
	}
	c.each(keyword, func(line string) bool {
		matches = append(matches, line)
		return len(matches) < limit
	})
	return matches
}

// Search filters like Filter and parses the matches. Lines that cannot be
// parsed are skipped and do not count towards limit.
func (c *Corpus) Search(keyword string, limit int) []Binding {
	found := []Binding{}
	if c == nil || limit <= 0 {
		return found
	}
	c.each(keyword, func(line string) bool {
		if b, err := ParseLine(line); err == nil {
			found = append(found, b)
		}
		return len(found) < limit
	})
	return found
}

// WriteCache stores the corpus text at path, creating parent directories.
func (c *Corpus) WriteCache(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError("cannot create cache directory", filepath.Dir(path), errors.FileOperationFailed, err)
	}
	if err := os.WriteFile(path, []byte(c.Text()), 0644); err != nil {
		return errors.NewFileError("cannot write corpus cache", path, errors.FileOperationFailed, err)
	}
	return nil
}
