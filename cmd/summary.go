package cmd

import (
	"fmt"
	"os"

	"github.com/andralbr/dataEvaluation/internal/cli"
	"github.com/andralbr/dataEvaluation/internal/datefmt"
	"github.com/andralbr/dataEvaluation/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagToolbox string
	flagLicense string
	flagTop     int
)

var summaryCmd = &cobra.Command{
	Use:   "summary [paths...]",
	Short: "Per-toolbox usage totals",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&flagToolbox, "toolbox", "", "Only toolboxes containing this text")
	summaryCmd.Flags().StringVar(&flagLicense, "license", "", "Only licenses containing this text")
	summaryCmd.Flags().IntVar(&flagTop, "top", 10, "Toolboxes shown in the hours chart")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	opts, err := processOptions()
	if err != nil {
		return err
	}
	files, err := discoverInputs(args)
	if err != nil {
		return err
	}

	result, err := loadData(cmd.Context(), files, opts, false)
	if err != nil {
		return err
	}

	rows := pipeline.FilterRows(result.Rows(), flagToolbox, flagLicense)
	if len(rows) == 0 {
		fmt.Println("\n  No toolbox usage found.")
		if opts.Filter != nil {
			fmt.Println("  The time filter may exclude every interval, try --no-filter.")
		}
		return nil
	}

	summaries := pipeline.SummarizeToolboxes(rows)

	var total float64
	for _, s := range summaries {
		total += s.Hours
	}

	title := "TOOLBOX USAGE"
	if opts.Filter != nil {
		title = fmt.Sprintf("TOOLBOX USAGE  %s - %s",
			datefmt.Format(opts.DateFormat, opts.Filter.Start), datefmt.Format(opts.DateFormat, opts.Filter.End))
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	tableRows := make([][]string, 0, len(summaries)+2)
	for _, s := range summaries {
		tableRows = append(tableRows, []string{
			s.LicenseNo,
			s.Version,
			s.Toolbox,
			cli.FormatNumber(int64(s.Intervals)),
			datefmt.Format(opts.DateFormat, s.FirstStart),
			datefmt.Format(opts.DateFormat, s.LastEnd),
			cli.FormatHours(s.Hours),
			cli.FormatPercent(s.Hours / total),
		})
	}
	tableRows = append(tableRows, []string{"---"})
	tableRows = append(tableRows, []string{"", "", "Total", cli.FormatNumber(int64(len(rows))), "", "", cli.FormatHours(total), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"License", "Version", "Toolbox", "Intervals", "First start", "Last end", "Hours", "Share"},
		Rows:    tableRows,
		Right:   []bool{false, false, false, true, false, false, true, true},
	}))

	byToolbox := pipeline.RankToolboxes(rows)
	if len(byToolbox) > flagTop && flagTop > 0 {
		byToolbox = byToolbox[:flagTop]
	}
	if len(byToolbox) > 0 {
		labelW := 0
		for _, th := range byToolbox {
			labelW = max(labelW, len(th.Toolbox))
		}
		fmt.Println()
		for _, th := range byToolbox {
			fmt.Println(cli.RenderHorizontalBar(th.Toolbox, labelW, th.Hours, byToolbox[0].Hours, 30))
		}
	}

	days := pipeline.HoursByDay(rows)
	if len(days) > 1 {
		values := make([]float64, len(days))
		for i, d := range days {
			values[i] = d.Hours
		}
		fmt.Println()
		fmt.Printf("  %s  %s  %s\n",
			cli.Muted(days[0].Date.Format("2006-01-02")),
			cli.Accent(cli.RenderSparkline(values)),
			cli.Muted(days[len(days)-1].Date.Format("2006-01-02")))
	}

	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be read\n", result.FileErrors)
	}
	return nil
}
