package tui

import (
	"testing"
	"time"

	"github.com/andralbr/dataEvaluation/internal/consolidate"
	"github.com/andralbr/dataEvaluation/internal/model"
	"github.com/andralbr/dataEvaluation/internal/pipeline"
	"github.com/andralbr/dataEvaluation/internal/source"
	"github.com/andralbr/dataEvaluation/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2020, 6, 14, 8, 0, 0, 0, time.UTC)

func row(license, tbx string, startMin, endMin int) model.ReportRow {
	return model.NewReportRow(license, "R2020a", tbx, model.Interval{
		Start: base.Add(time.Duration(startMin) * time.Minute),
		End:   base.Add(time.Duration(endMin) * time.Minute),
	})
}

func sampleResult() *pipeline.ProcessResult {
	return &pipeline.ProcessResult{
		TotalFiles:  1,
		ParsedFiles: 1,
		Files: []pipeline.FileResult{{
			Input: source.InputFile{Path: "/logs/a.log", Name: "a.log"},
			Rows: []model.ReportRow{
				row("40", "Simulink", 0, 120),
				row("40", "Signal_Toolbox", 0, 30),
				row("41", "Simulink", 60, 90),
			},
			Lines: 8,
			Stats: consolidate.Stats{Records: 8, ValidRecords: 8, Unterminated: 1},
		}},
	}
}

func loadedApp(t *testing.T) App {
	t.Helper()
	var m tea.Model = NewApp(Options{})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(DataLoadedMsg{Result: sampleResult(), LoadTime: time.Second})
	return m.(App)
}

func press(t *testing.T, a App, msgs ...tea.KeyMsg) App {
	t.Helper()
	var m tea.Model = a
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m.(App)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Errorf("click past the last tab -> %d, want -1", got)
		}
	}
}

func TestDataLoadedPopulatesViews(t *testing.T) {
	a := loadedApp(t)

	assert.True(t, a.loaded)
	assert.Len(t, a.visible, 3)
	assert.Len(t, a.rowsTable.Rows(), 3)
	// (40, Simulink), (41, Simulink), (40, Signal_Toolbox)
	assert.Len(t, a.summaries, 3)
	assert.Len(t, a.tbxTable.Rows(), 3)
	assert.Len(t, a.filesTable.Rows(), 1)
	assert.Equal(t, "Simulink", a.summaries[0].Toolbox)
}

func TestProgressMsgUpdatesCounter(t *testing.T) {
	var m tea.Model = NewApp(Options{})
	m, cmd := m.Update(ProgressMsg{Current: 2, Total: 5})
	a := m.(App)

	assert.Equal(t, 2, a.progress)
	assert.Equal(t, 5, a.progressMax)
	assert.NotNil(t, cmd, "progress must keep listening for loader messages")
	assert.False(t, a.loaded)
}

func TestKeysIgnoredUntilLoaded(t *testing.T) {
	a := press(t, NewApp(Options{}), runes("t"))
	assert.Equal(t, tabRows, a.activeTab)
}

func TestTabKeys(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, runes("t"))
	assert.Equal(t, tabToolboxes, a.activeTab)
	a = press(t, a, runes("c"))
	assert.Equal(t, tabChart, a.activeTab)
	a = press(t, a, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabFiles, a.activeTab)
	a = press(t, a, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabRows, a.activeTab, "right wraps around")
	a = press(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, tabFiles, a.activeTab, "left wraps around")
}

func TestFilterNarrowsRows(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, runes("/"))
	require.True(t, a.filtering)

	a = press(t, a, runes("signal"))
	assert.Len(t, a.visible, 1, "rows are filtered while typing")

	a = press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, a.filtering)
	assert.Equal(t, "signal", a.query.toolbox)
	assert.Len(t, a.rowsTable.Rows(), 1)

	a = press(t, a, tea.KeyMsg{Type: tea.KeyEscape})
	assert.True(t, a.query.empty())
	assert.Len(t, a.visible, 3)
}

func TestFilterEscapeWhileTypingClears(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, runes("/"), runes("lic:41"), tea.KeyMsg{Type: tea.KeyEscape})

	assert.False(t, a.filtering)
	assert.True(t, a.query.empty())
	assert.Len(t, a.visible, 3)
}

func TestHelpToggle(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, runes("?"))
	assert.True(t, a.showHelp)
	assert.Contains(t, a.View(), "Keyboard Shortcuts")

	// Any key closes help without acting on it.
	a = press(t, a, runes("t"))
	assert.False(t, a.showHelp)
	assert.Equal(t, tabRows, a.activeTab)
}

func TestMouseClickSelectsTab(t *testing.T) {
	a := loadedApp(t)
	x := 0
	for i := 0; i < tabChart; i++ {
		x += components.TabVisualWidth(components.Tabs[i], i == a.activeTab) + 1
	}

	var m tea.Model = a
	m, _ = m.Update(tea.MouseMsg{X: x + 1, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.Equal(t, tabChart, m.(App).activeTab)
}

func TestViewStates(t *testing.T) {
	a := NewApp(Options{})
	assert.Empty(t, a.View(), "no size yet")

	var m tea.Model = a
	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Contains(t, m.View(), "too narrow")

	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, m.View(), "tbxusage")

	m, _ = m.Update(DataLoadedMsg{Result: sampleResult()})
	loaded := m.(App)
	for tab := range components.Tabs {
		loaded.activeTab = tab
		assert.NotEmpty(t, loaded.View(), "tab %d", tab)
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	var m tea.Model = NewApp(Options{})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(DataLoadedMsg{Err: assert.AnError})
	assert.Contains(t, m.View(), assert.AnError.Error())
}

func TestChartBarsRankedAndLimited(t *testing.T) {
	rows := []model.ReportRow{
		row("40", "B", 0, 30),
		row("40", "A", 0, 30),
		row("40", "C", 0, 90),
	}
	bars := chartBars(rows, 2)
	require.Len(t, bars, 2)
	assert.Equal(t, "C", bars[0].Label)
	assert.Equal(t, "A", bars[1].Label, "ties break by name")
	assert.InDelta(t, 1.5, bars[0].Values[0].Value, 1e-9)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		want query
	}{
		{in: "", want: query{}},
		{in: "simulink", want: query{toolbox: "simulink"}},
		{in: "lic:40", want: query{license: "40"}},
		{in: "signal LIC:41 toolbox", want: query{toolbox: "signal toolbox", license: "41"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseQuery(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, parseQuery(got.String()), "String round-trips")
		})
	}
}
