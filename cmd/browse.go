package cmd

import (
	"fmt"

	"github.com/andralbr/dataEvaluation/internal/store"
	"github.com/andralbr/dataEvaluation/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [paths...]",
	Short: "Interactive report browser",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(_ *cobra.Command, args []string) error {
	opts, err := processOptions()
	if err != nil {
		return err
	}
	files, err := discoverInputs(args)
	if err != nil {
		return err
	}

	// Force TrueColor so background styling produces ANSI codes; lipgloss
	// would otherwise fall back to Ascii when stdout is not detected.
	if !termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}

	appOpts := tui.Options{Files: files, Process: opts}
	if cacheEnabled() {
		appOpts.CachePath = store.DefaultPath()
	}

	p := tea.NewProgram(tui.NewApp(appOpts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
