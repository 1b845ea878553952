package tui

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andralbr/dataEvaluation/internal/cli"
	"github.com/andralbr/dataEvaluation/internal/datefmt"
	"github.com/andralbr/dataEvaluation/internal/model"
	"github.com/andralbr/dataEvaluation/internal/pipeline"
	"github.com/andralbr/dataEvaluation/internal/tui/components"
	"github.com/andralbr/dataEvaluation/internal/tui/theme"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	tabRows = iota
	tabToolboxes
	tabChart
	tabFiles
)

const (
	metricRowHeight = 5
	shareCardTop    = 5 // toolboxes listed under the chart
	minFlexColumn   = 12
	chartLabelWidth = 16
)

// flexWidth is what remains for the one variable column after fixed columns
// and the table's one-column cell padding on each side.
func flexWidth(cw int, fixed []int) int {
	w := cw - 2*(len(fixed)+1)
	for _, f := range fixed {
		w -= f
	}
	if w < minFlexColumn {
		w = minFlexColumn
	}
	return w
}

// ─── Rows ───────────────────────────────────────────────────────

func rowColumns(cw int, dateFormat string) []table.Column {
	dateW := len(datefmt.Format(dateFormat, time.Date(2020, 12, 31, 23, 59, 59, 0, time.UTC)))
	if dateW < 5 {
		dateW = 5
	}
	fixed := []int{10, 10, dateW, dateW, 8}
	return []table.Column{
		{Title: "License", Width: 10},
		{Title: "Version", Width: 10},
		{Title: "Toolbox", Width: flexWidth(cw, fixed)},
		{Title: "Start", Width: dateW},
		{Title: "End", Width: dateW},
		{Title: "Hours", Width: 8},
	}
}

func rowTableRows(rows []model.ReportRow, dateFormat string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row{
			r.LicenseNo,
			r.Version,
			r.Toolbox,
			datefmt.Format(dateFormat, r.Start),
			datefmt.Format(dateFormat, r.End),
			cli.FormatDecimalHours(r.DurationHours),
		}
	}
	return out
}

func (a App) renderRowsTab() string {
	if len(a.visible) == 0 {
		return a.emptyMessage()
	}
	return a.rowsTable.View()
}

func (a App) emptyMessage() string {
	t := theme.Active
	msg := "No usage rows."
	if !a.query.empty() {
		msg = "No rows match " + a.query.String() + ". Press esc to clear the filter."
	}
	return "\n  " + lipgloss.NewStyle().Foreground(t.TextMuted).Render(msg)
}

// ─── Toolboxes ──────────────────────────────────────────────────

func toolboxColumns(cw int) []table.Column {
	fixed := []int{10, 10, 9, 10, 7}
	return []table.Column{
		{Title: "Toolbox", Width: flexWidth(cw, fixed)},
		{Title: "License", Width: 10},
		{Title: "Version", Width: 10},
		{Title: "Intervals", Width: 9},
		{Title: "Hours", Width: 10},
		{Title: "Share", Width: 7},
	}
}

func toolboxTableRows(sums []pipeline.ToolboxSummary) []table.Row {
	total := 0.0
	for _, s := range sums {
		total += s.Hours
	}
	out := make([]table.Row, len(sums))
	for i, s := range sums {
		share := 0.0
		if total > 0 {
			share = s.Hours / total
		}
		out[i] = table.Row{
			s.Toolbox,
			s.LicenseNo,
			s.Version,
			strconv.Itoa(s.Intervals),
			cli.FormatHours(s.Hours),
			cli.FormatPercent(share),
		}
	}
	return out
}

func (a App) renderToolboxesTab() string {
	if len(a.summaries) == 0 {
		return a.emptyMessage()
	}
	return a.tbxTable.View()
}

// ─── Chart ──────────────────────────────────────────────────────

// chartBars builds one horizontal bar per toolbox, at most limit bars.
func chartBars(rows []model.ReportRow, limit int) []barchart.BarData {
	ranked := pipeline.RankToolboxes(rows)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	series := theme.Active.Series()
	bars := make([]barchart.BarData, len(ranked))
	for i, tb := range ranked {
		style := lipgloss.NewStyle().Foreground(series[i%len(series)])
		label := tb.Toolbox
		if len(label) > chartLabelWidth {
			label = label[:chartLabelWidth]
		}
		bars[i] = barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: tb.Toolbox, Value: tb.Hours, Style: style}},
		}
	}
	return bars
}

func buildChart(rows []model.ReportRow, w, h int) barchart.Model {
	if w < 20 {
		w = 20
	}
	if h < 4 {
		h = 4
	}
	t := theme.Active
	chart := barchart.New(w, h,
		barchart.WithHorizontalBars(),
		barchart.WithBarGap(0),
		barchart.WithStyles(
			lipgloss.NewStyle().Foreground(t.Border),
			lipgloss.NewStyle().Foreground(t.TextMuted),
		),
	)
	chart.PushAll(chartBars(rows, h-1))
	// Horizontal bars place the axis after the longest label, which is only
	// known once data is pushed.
	chart.Resize(w, h)
	chart.Draw()
	return chart
}

func (a App) chartHeight() int {
	// Card borders and titles for the chart and share cards.
	h := a.contentHeight() - 4 - (shareCardTop + 3)
	if h < 4 {
		h = 4
	}
	return h
}

func (a App) renderChartTab(cw int) string {
	if len(a.visible) == 0 {
		return a.emptyMessage()
	}

	ranked := pipeline.RankToolboxes(a.visible)
	total := 0.0
	for _, tb := range ranked {
		total += tb.Hours
	}

	chartCard := components.ContentCard("Hours by toolbox", a.chart.View(), cw)

	if len(ranked) > shareCardTop {
		ranked = ranked[:shareCardTop]
	}
	inner := components.CardInnerWidth(cw)
	labelW := 20
	barW := inner - labelW - 6
	if barW < 10 {
		barW = 10
	}
	var b strings.Builder
	for i, tb := range ranked {
		share := 0.0
		if total > 0 {
			share = tb.Hours / total
		}
		b.WriteString(components.ShareBar(tb.Toolbox, share, labelW, barW))
		if i < len(ranked)-1 {
			b.WriteString("\n")
		}
	}
	shareCard := components.ContentCard("Share of "+cli.FormatHours(total), b.String(), cw)

	return lipgloss.JoinVertical(lipgloss.Left, chartCard, shareCard)
}

// ─── Files ──────────────────────────────────────────────────────

func fileColumns(cw int) []table.Column {
	fixed := []int{9, 9, 6, 7, 6, 7}
	return []table.Column{
		{Title: "File", Width: flexWidth(cw, fixed)},
		{Title: "Lines", Width: 9},
		{Title: "Valid", Width: 9},
		{Title: "Open", Width: 6},
		{Title: "Rows", Width: 7},
		{Title: "Diags", Width: 6},
		{Title: "Source", Width: 7},
	}
}

func fileTableRows(files []pipeline.FileResult) []table.Row {
	out := make([]table.Row, len(files))
	for i, f := range files {
		name := f.Input.Name
		if name == "" {
			name = filepath.Base(f.Input.Path)
		}
		src := "parsed"
		switch {
		case f.Err != nil:
			src = "error"
		case f.Cached:
			src = "cache"
		}
		out[i] = table.Row{
			name,
			cli.FormatNumber(int64(f.Lines)),
			cli.FormatNumber(int64(f.Stats.ValidRecords)),
			strconv.Itoa(f.Stats.Unterminated),
			strconv.Itoa(len(f.Rows)),
			strconv.Itoa(f.DiagnosticCount()),
			src,
		}
	}
	return out
}

func (a App) fileMetrics() []components.Metric {
	if a.result == nil {
		return nil
	}
	lines, valid, open := 0, 0, 0
	for _, f := range a.result.Files {
		lines += f.Lines
		valid += f.Stats.ValidRecords
		open += f.Stats.Unterminated
	}
	hours := 0.0
	for _, r := range a.rows {
		hours += r.DurationHours
	}
	return []components.Metric{
		{Label: "Files", Value: strconv.Itoa(a.result.TotalFiles),
			Note: strconv.Itoa(a.result.CacheHits) + " cached"},
		{Label: "Lines", Value: cli.FormatNumber(int64(lines)),
			Note: cli.FormatNumber(int64(valid)) + " valid"},
		{Label: "Non-terminated", Value: strconv.Itoa(open)},
		{Label: "Usage", Value: cli.FormatHours(hours),
			Note: cli.FormatNumber(int64(len(a.rows))) + " rows"},
	}
}

func (a App) renderFilesTab(cw int) string {
	if a.result == nil || len(a.result.Files) == 0 {
		return "\n  " + lipgloss.NewStyle().Foreground(theme.Active.TextMuted).Render("No input files.")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		components.MetricCardRow(a.fileMetrics(), cw),
		a.filesTable.View(),
	)
}
