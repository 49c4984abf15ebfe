package views

import (
	"strings"

	"lyxs/internal/tui/common"
	"lyxs/internal/tui/components"
	"lyxs/internal/tui/styles"
)

// RenderMainView draws the query line, the results and the footer.
func RenderMainView(m common.ModelReader) string {
	var sb strings.Builder

	sb.WriteString(renderBanner())
	sb.WriteString("\n")
	sb.WriteString(m.InputView())
	sb.WriteString("\n\n")
	sb.WriteString(components.Render(m.Items(), m.Cursor()))

	if status := m.StatusView(); status != "" {
		sb.WriteString("\n" + status + "\n")
	}

	sb.WriteString("\n" + m.HelpView())

	return styles.Theme.App.Render(sb.String())
}

func renderBanner() string {
	return styles.Theme.Title.Render("LyX shortcuts")
}
