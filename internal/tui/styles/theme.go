package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the core UI styles
var Theme = struct {
	App        lipgloss.Style
	Title      lipgloss.Style
	Prompt     lipgloss.Style
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Shortcut   lipgloss.Style
	Help       lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
}{
	App: lipgloss.NewStyle().
		Padding(1, 2),
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7B61FF")).
		MarginBottom(1),
	Prompt: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7B61FF")).
		Bold(true),
	Selected: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#73F59F")).
		Bold(true),
	Unselected: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#CCCCCC")),
	Shortcut: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#81A1C1")),
	Help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5A9")),
	Status: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#959595")),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF0000")),
}
