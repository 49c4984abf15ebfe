package components

import (
	"lyxs/internal/tui/styles"
)

type StatusBar struct {
	text    string
	isError bool
}

func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

func (s *StatusBar) SetText(text string) {
	s.text = text
	s.isError = false
}

func (s *StatusBar) SetError(err error) {
	s.text = err.Error()
	s.isError = true
}

func (s *StatusBar) Clear() {
	s.text = ""
	s.isError = false
}

func (s *StatusBar) Text() (string, bool) {
	return s.text, s.isError
}

func (s *StatusBar) View() string {
	if s.text == "" {
		return ""
	}
	if s.isError {
		return styles.Theme.Error.Render(s.text)
	}
	return styles.Theme.Status.Render(s.text)
}
