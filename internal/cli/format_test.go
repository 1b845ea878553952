package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0m"},
		{-1, "0m"},
		{0.25, "15m"},
		{1, "1h 00m"},
		{1.5, "1h 30m"},
		{26.0 + 5.0/60, "26h 05m"},
	}
	for _, tt := range tests {
		if got := FormatHours(tt.in); got != tt.want {
			t.Errorf("FormatHours(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAgo(t *testing.T) {
	if got := FormatAgo(time.Time{}); got != "-" {
		t.Errorf("FormatAgo(zero) = %q", got)
	}
	if got := FormatAgo(time.Now().Add(-3 * time.Hour)); got != "3 hours ago" {
		t.Errorf("FormatAgo(-3h) = %q", got)
	}
}

func TestFormatDecimalHours(t *testing.T) {
	if got := FormatDecimalHours(1.0 / 3); got != "0.33" {
		t.Errorf("FormatDecimalHours = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1}); got != "▁█" {
		t.Errorf("RenderSparkline = %q", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("empty sparkline should be empty")
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Toolbox", "Hours"},
		Rows: [][]string{
			{"Simulink", "3h 00m"},
			{"---"},
			{"\x1b[31mSignal_Toolbox\x1b[0m", "2h 00m"},
		},
		Right: []bool{false, true},
	})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	want := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != want {
			t.Errorf("line %d width = %d, want %d: %q", i, w, want, l)
		}
	}
	if !strings.Contains(out, "Simulink       ") {
		t.Errorf("first column should be left-aligned:\n%s", out)
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}
