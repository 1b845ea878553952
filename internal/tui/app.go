// Package tui provides the interactive Bubble Tea report browser.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andralbr/dataEvaluation/internal/cli"
	"github.com/andralbr/dataEvaluation/internal/model"
	"github.com/andralbr/dataEvaluation/internal/pipeline"
	"github.com/andralbr/dataEvaluation/internal/source"
	"github.com/andralbr/dataEvaluation/internal/store"
	"github.com/andralbr/dataEvaluation/internal/tui/components"
	"github.com/andralbr/dataEvaluation/internal/tui/theme"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configures what the browser loads.
type Options struct {
	Files     []source.InputFile
	Process   pipeline.Options
	CachePath string // empty disables the report cache
}

// DataLoadedMsg is sent when the pipeline finishes.
type DataLoadedMsg struct {
	Result   *pipeline.ProcessResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports file processing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	result    *pipeline.ProcessResult
	rows      []model.ReportRow
	visible   []model.ReportRow
	summaries []pipeline.ToolboxSummary
	loaded    bool
	loadErr   error
	loadTime  time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Filter state
	filtering   bool
	filterInput textinput.Model
	query       query

	rowsTable  table.Model
	tbxTable   table.Model
	filesTable table.Model
	chart      barchart.Model

	// Loading, channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 180
	minContentHeight = 5
	chromeHeight     = 3 // tab bar, filter line, status bar
)

// NewApp creates a new browser model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "toolbox name, lic:<license>"
	ti.CharLimit = 128
	ti.Width = 40

	return App{
		opts:        opts,
		filterInput: ti,
		rowsTable:   newTable(rowColumns(maxContentWidth, opts.Process.DateFormat)),
		tbxTable:    newTable(toolboxColumns(maxContentWidth)),
		filesTable:  newTable(fileColumns(maxContentWidth)),
		chart:       barchart.New(maxContentWidth, 10, barchart.WithHorizontalBars()),
		spinner:     sp,
		loadSub:     make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts, a.loadSub),
		a.spinner.Tick,
	)
}

func newTable(cols []table.Column) table.Model {
	t := theme.Active
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(t.Accent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(t.TextPrimary).
		Background(t.Selected)
	return table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
}

// recompute applies the current query and refreshes every view.
func (a *App) recompute() {
	a.visible = a.query.apply(a.rows)
	a.summaries = pipeline.SummarizeToolboxes(a.visible)

	a.rowsTable.SetRows(rowTableRows(a.visible, a.opts.Process.DateFormat))
	a.tbxTable.SetRows(toolboxTableRows(a.summaries))
	if a.result != nil {
		a.filesTable.SetRows(fileTableRows(a.result.Files))
	}
	a.rowsTable.GotoTop()
	a.tbxTable.GotoTop()
	a.layout()
}

// layout sizes every view to the current terminal.
func (a *App) layout() {
	cw := a.contentWidth()
	h := a.contentHeight()

	a.rowsTable.SetColumns(rowColumns(cw, a.opts.Process.DateFormat))
	a.rowsTable.SetWidth(cw)
	a.rowsTable.SetHeight(h)

	a.tbxTable.SetColumns(toolboxColumns(cw))
	a.tbxTable.SetWidth(cw)
	a.tbxTable.SetHeight(h)

	a.filesTable.SetColumns(fileColumns(cw))
	a.filesTable.SetWidth(cw)
	a.filesTable.SetHeight(h - metricRowHeight)

	a.chart = buildChart(a.visible, cw-4, a.chartHeight())
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) contentHeight() int {
	h := a.height - chromeHeight
	if h < minContentHeight {
		h = minContentHeight
	}
	return h
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		a.result = msg.Result
		a.rows = nil
		if msg.Result != nil {
			a.rows = msg.Result.Rows()
		}
		a.recompute()
		return a, nil

	case spinner.TickMsg:
		if a.loaded {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.filtering {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.filtering {
		return a.updateFilter(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "/":
		a.filtering = true
		a.filterInput.SetValue(a.query.String())
		a.filterInput.CursorEnd()
		return a, a.filterInput.Focus()
	case "esc":
		if !a.query.empty() {
			a.query = query{}
			a.recompute()
		}
		return a, nil
	case "R":
		a.loaded = false
		a.progress, a.progressMax = 0, 0
		return a, tea.Batch(loadDataCmd(a.opts, a.loadSub), a.spinner.Tick)
	case "left", "shift+tab":
		a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
	}

	var cmd tea.Cmd
	switch a.activeTab {
	case tabRows:
		a.rowsTable, cmd = a.rowsTable.Update(msg)
	case tabToolboxes:
		a.tbxTable, cmd = a.tbxTable.Update(msg)
	case tabFiles:
		a.filesTable, cmd = a.filesTable.Update(msg)
	}
	return a, cmd
}

// updateFilter edits the query; rows are filtered live while typing.
func (a App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.filtering = false
		a.filterInput.Blur()
		return a, nil
	case "esc":
		a.filtering = false
		a.filterInput.Blur()
		a.query = query{}
		a.recompute()
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	if q := parseQuery(a.filterInput.Value()); q != a.query {
		a.query = q
		a.recompute()
	}
	return a, cmd
}

func (a *App) moveCursor(delta int) {
	var t *table.Model
	switch a.activeTab {
	case tabRows:
		t = &a.rowsTable
	case tabToolboxes:
		t = &a.tbxTable
	case tabFiles:
		t = &a.filesTable
	default:
		return
	}
	if delta < 0 {
		t.MoveUp(-delta)
	} else {
		t.MoveDown(delta)
	}
}

// tabAtX maps a click column on the tab bar to a tab index, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  tbxusage needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ tbxusage"))
	b.WriteString(subtitleStyle.Render(" · Toolbox Usage"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := 40
		if barW > a.width-30 {
			barW = a.width - 30
		}
		if barW < 20 {
			barW = 20
		}
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Consolidating log files\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Reading log files..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Blue).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"r t c f", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move selection"},
		{"/", "Filter by toolbox or lic:<license>"},
		{"Esc", "Clear filter"},
		{"R", "Reload log files"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
			descStyle.Render(bind.desc))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	contentH := a.contentHeight()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterLine(w)

	hint := ""
	if a.filtering {
		hint = "[enter]apply  [esc]clear"
	}
	statusBar := components.RenderStatusBar(w, hint, fmt.Sprintf("%.1fs", a.loadTime.Seconds()))

	var content string
	switch {
	case a.loadErr != nil:
		content = lipgloss.NewStyle().Foreground(t.Red).Render("\n  Error: " + a.loadErr.Error())
	default:
		switch a.activeTab {
		case tabRows:
			content = a.renderRowsTab()
		case tabToolboxes:
			content = a.renderToolboxesTab()
		case tabChart:
			content = a.renderChartTab(cw)
		case tabFiles:
			content = a.renderFilesTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.PlaceHorizontal(w, lipgloss.Center, content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (a App) renderFilterLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	if a.filtering {
		return " " + a.filterInput.View()
	}

	line := dim.Render(" ") + accent.Render(cli.FormatNumber(int64(len(a.visible)))) + dim.Render(" rows")
	if a.opts.Process.Filter != nil {
		f := a.opts.Process.Filter
		line += dim.Render(" │ window ") + accent.Render(
			f.Start.Format("2006-01-02 15:04")+" → "+f.End.Format("2006-01-02 15:04"))
	}
	if !a.query.empty() {
		line += dim.Render(" │ filter ") + accent.Render(a.query.String())
	}
	return lipgloss.NewStyle().Width(w).Render(line)
}

// ─── Loading ────────────────────────────────────────────────────

func loadDataCmd(opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			ctx := context.Background()
			if opts.CachePath != "" {
				if cache, err := store.Open(opts.CachePath); err == nil {
					result, loadErr := pipeline.ProcessWithCache(ctx, opts.Files, opts.Process, cache, progressFn)
					_ = cache.Close()
					if loadErr == nil {
						sub <- DataLoadedMsg{Result: result, LoadTime: time.Since(start)}
						return
					}
				}
			}

			result, err := pipeline.Process(ctx, opts.Files, opts.Process, progressFn)
			sub <- DataLoadedMsg{Result: result, Err: err, LoadTime: time.Since(start)}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
