package components

import (
	"fmt"
	"strings"

	"github.com/andralbr/dataEvaluation/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar. hint replaces the default
// key help on the left; dataAge is shown on the right when set.
func RenderStatusBar(width int, hint, dataAge string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [?]help  [/]filter  [q]uit"
	if hint != "" {
		left = " " + hint
	}
	right := ""
	if dataAge != "" {
		right = fmt.Sprintf("Loaded in %s ", dataAge)
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
