// Package theme holds the colour themes shared by the CLI tables and the
// report browser.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps colour roles to terminal colours.
type Theme struct {
	Name         string
	Surface      lipgloss.Color
	Selected     lipgloss.Color // selected table row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused panel
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	Green        lipgloss.Color
	Orange       lipgloss.Color
	Red          lipgloss.Color
	Blue         lipgloss.Color
	Yellow       lipgloss.Color
	Magenta      lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Surface:      "#1C1B1A",
	Selected:     "#343331",
	Border:       "#403E3C",
	BorderAccent: "#3AA99F",
	TextDim:      "#575653",
	TextMuted:    "#878580",
	TextPrimary:  "#FFFCF0",
	Accent:       "#3AA99F",
	Green:        "#879A39",
	Orange:       "#DA702C",
	Red:          "#D14D41",
	Blue:         "#4385BE",
	Yellow:       "#D0A215",
	Magenta:      "#CE5D97",
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Surface:      "#313244",
	Selected:     "#585B70",
	Border:       "#585B70",
	BorderAccent: "#89B4FA",
	TextDim:      "#6C7086",
	TextMuted:    "#A6ADC8",
	TextPrimary:  "#CDD6F4",
	Accent:       "#89B4FA",
	Green:        "#A6E3A1",
	Orange:       "#FAB387",
	Red:          "#F38BA8",
	Blue:         "#89B4FA",
	Yellow:       "#F9E2AF",
	Magenta:      "#F5C2E7",
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:         "terminal",
	Surface:      "0",
	Selected:     "8",
	Border:       "8",
	BorderAccent: "6",
	TextDim:      "8",
	TextMuted:    "7",
	TextPrimary:  "15",
	Accent:       "6",
	Green:        "2",
	Orange:       "3",
	Red:          "1",
	Blue:         "4",
	Yellow:       "3",
	Magenta:      "5",
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, Terminal}

// Names returns the names of all themes.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Series returns the colours used for successive chart bars.
func (t Theme) Series() []lipgloss.Color {
	return []lipgloss.Color{t.Accent, t.Blue, t.Green, t.Yellow, t.Magenta, t.Orange, t.Red}
}
