package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andralbr/dataEvaluation/internal/config"
	"github.com/andralbr/dataEvaluation/internal/datefmt"
	"github.com/andralbr/dataEvaluation/internal/report"
	"github.com/andralbr/dataEvaluation/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues holds the form fields; huh binds them by pointer.
type setupValues struct {
	dateFormat  string
	outputDir   string
	format      string
	theme       string
	filterOn    bool
	filterStart string
	filterEnd   string
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg
	v := &setupValues{
		dateFormat:  cfg.General.DateFormat,
		outputDir:   cfg.General.OutputDir,
		format:      cfg.General.Format,
		theme:       cfg.Appearance.Theme,
		filterOn:    cfg.Filter.Enabled,
		filterStart: cfg.Filter.Start,
		filterEnd:   cfg.Filter.End,
	}

	if err := setupForm(v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	err := v.apply(&cfg)
	if err != nil {
		return err
	}
	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
		err = config.SaveFile(path, cfg)
	} else {
		err = config.Save(cfg)
	}
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `tbxusage setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func setupForm(v *setupValues) *huh.Form {
	formatOpts := make([]huh.Option[string], len(report.Formats))
	for i, f := range report.Formats {
		formatOpts[i] = huh.NewOption(string(f), string(f))
	}
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	validateBound := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("required")
		}
		_, err := datefmt.Parse(v.dateFormat, strings.TrimSpace(s))
		return err
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date format").
				Description("strftime, e.g. %d.%m.%Y %H:%M").
				Validate(datefmt.Validate).
				Value(&v.dateFormat),
			huh.NewInput().Title("Output directory").
				Description("Empty writes reports to the current directory").
				Value(&v.outputDir),
			huh.NewSelect[string]().Title("Report format").Options(formatOpts...).Value(&v.format),
			huh.NewSelect[string]().Title("Theme").Options(themeOpts...).Value(&v.theme),
		).Title("Reports"),
		huh.NewGroup(
			huh.NewConfirm().Title("Restrict reports to a time window?").Value(&v.filterOn),
		).Title("Time filter"),
		huh.NewGroup(
			huh.NewInput().Title("Window start").Validate(validateBound).Value(&v.filterStart),
			huh.NewInput().Title("Window end").Validate(validateBound).Value(&v.filterEnd),
		).Title("Time filter").WithHideFunc(func() bool { return !v.filterOn }),
	).WithShowHelp(true)
}

// apply copies the form values into cfg, validating the filter window as a
// whole.
func (v *setupValues) apply(cfg *config.Config) error {
	cfg.General.DateFormat = strings.TrimSpace(v.dateFormat)
	cfg.General.OutputDir = strings.TrimSpace(v.outputDir)
	cfg.General.Format = v.format
	cfg.Appearance.Theme = v.theme
	if !v.filterOn {
		cfg.ClearTimeFilter()
		return nil
	}
	return cfg.SetTimeFilter(v.filterStart, v.filterEnd)
}
