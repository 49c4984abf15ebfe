package components

import (
	"fmt"
	"strings"

	"lyxs/internal/launcher"
	"lyxs/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type ResultList struct {
	items  []launcher.Item
	cursor int
}

func NewResultList() *ResultList {
	return &ResultList{}
}

// SetItems replaces the results and moves the cursor back to the top.
func (rl *ResultList) SetItems(items []launcher.Item) {
	rl.items = items
	rl.cursor = 0
}

func (rl *ResultList) Items() []launcher.Item {
	return rl.items
}

func (rl *ResultList) Cursor() int {
	return rl.cursor
}

func (rl *ResultList) MoveCursor(delta int) {
	newPos := rl.cursor + delta
	if newPos >= 0 && newPos < len(rl.items) {
		rl.cursor = newPos
	}
}

// Current returns the highlighted item, or nil for an empty list.
func (rl *ResultList) Current() *launcher.Item {
	if rl.cursor >= 0 && rl.cursor < len(rl.items) {
		return &rl.items[rl.cursor]
	}
	return nil
}

// Render draws items with the one at cursor highlighted.
func Render(items []launcher.Item, cursor int) string {
	if len(items) == 0 {
		return styles.Theme.Status.Render("No bindings found") + "\n"
	}

	width := 0
	for _, it := range items {
		width = max(width, lipgloss.Width(it.Text))
	}

	var s strings.Builder
	for i, it := range items {
		style := styles.Theme.Unselected
		marker := " "
		if i == cursor {
			style = styles.Theme.Selected
			marker = ">"
		}
		name := it.Text + strings.Repeat(" ", width-lipgloss.Width(it.Text))
		s.WriteString(fmt.Sprintf("%s %s  %s\n",
			marker,
			style.Render(name),
			styles.Theme.Shortcut.Render(it.Subtext)))
	}
	return s.String()
}
