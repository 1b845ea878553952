package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/andralbr/dataEvaluation/internal/tui/theme"
)

// Styles are derived from the active theme so the CLI and the browser agree.
var (
	titleStyle  lipgloss.Style
	headerStyle lipgloss.Style
	valueStyle  lipgloss.Style
	mutedStyle  lipgloss.Style
	accentStyle lipgloss.Style
	warnStyle   lipgloss.Style
	dimStyle    lipgloss.Style
	borderColor lipgloss.Color
)

func init() { ApplyTheme(theme.Active) }

// ApplyTheme rebuilds the CLI styles from t.
func ApplyTheme(t theme.Theme) {
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	valueStyle = lipgloss.NewStyle().Foreground(t.TextPrimary)
	mutedStyle = lipgloss.NewStyle().Foreground(t.TextMuted)
	accentStyle = lipgloss.NewStyle().Foreground(t.Green)
	warnStyle = lipgloss.NewStyle().Foreground(t.Orange)
	dimStyle = lipgloss.NewStyle().Foreground(t.TextDim)
	borderColor = t.Border
}

// Muted renders secondary text.
func Muted(s string) string { return mutedStyle.Render(s) }

// Warn renders a warning.
func Warn(s string) string { return warnStyle.Render(s) }

// Accent renders highlighted values such as hours.
func Accent(s string) string { return accentStyle.Render(s) }

// Table represents a bordered text table for CLI output. A row holding the
// single cell "---" renders as a separator.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int  // optional column widths, auto-calculated if nil
	Right   []bool // right-aligned columns; nil right-aligns all but the first
}

func (t Table) rightAligned(col int) bool {
	if t.Right == nil {
		return col > 0
	}
	return col < len(t.Right) && t.Right[col]
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. Cell widths
// ignore ANSI styling, so pre-styled cells line up.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder
	writeRule := func(left, mid, right string) {
		var line strings.Builder
		line.WriteString(left)
		for i, w := range widths {
			line.WriteString(strings.Repeat("─", w+2))
			if i < numCols-1 {
				line.WriteString(mid)
			}
		}
		line.WriteString(right)
		b.WriteString(dimStyle.Render(line.String()))
		b.WriteString("\n")
	}
	writeRow := func(cells []string, style lipgloss.Style, header bool) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			gap := strings.Repeat(" ", max(widths[i]-lipgloss.Width(cell), 0))
			if !header && t.rightAligned(i) {
				cell = gap + cell
			} else {
				cell += gap
			}
			b.WriteString(style.Render(" " + cell + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	writeRule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		writeRow(t.Headers, headerStyle, true)
		writeRule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			writeRule("├", "┼", "┤")
			continue
		}
		writeRow(row, valueStyle, false)
	}
	writeRule("╰", "┴", "╯")

	return b.String()
}

// RenderProgressBar renders a simple text progress bar.
func RenderProgressBar(current, total int, width int) string {
	if total <= 0 {
		return ""
	}

	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s",
		mutedStyle.Render(bar),
		FormatNumber(int64(current)),
		FormatNumber(int64(total)),
	)
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / max * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderHorizontalBar renders a labelled horizontal bar chart entry.
func RenderHorizontalBar(label string, labelWidth int, value, maxValue float64, maxWidth int) string {
	barLen := 0
	if maxValue > 0 {
		barLen = int(value / maxValue * float64(maxWidth))
	}
	if barLen < 0 {
		barLen = 0
	}
	bar := strings.Repeat("█", barLen)
	return fmt.Sprintf("  %-*s %s %s", labelWidth, label, accentStyle.Render(bar), mutedStyle.Render(FormatHours(value)))
}
