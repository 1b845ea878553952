package cmd

import (
	"errors"
	"fmt"

	"github.com/andralbr/dataEvaluation/internal/cli"
	"github.com/andralbr/dataEvaluation/internal/report"
	"github.com/andralbr/dataEvaluation/internal/store"

	"github.com/spf13/cobra"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the rows of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().IntVarP(&flagRunsLimit, "limit", "n", 20, "Runs to list (0 for all)")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func openHistory() (*store.Cache, error) {
	if !cacheEnabled() {
		return nil, errors.New("run history needs the cache, which is disabled")
	}
	return store.Open(store.DefaultPath())
}

func runRuns(_ *cobra.Command, _ []string) error {
	cache, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	runs, err := cache.ListRuns(flagRunsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("\n  No recorded runs. Use `tbxusage process --record` to add one.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := "done"
		if !r.Finished() {
			status = cli.Warn("incomplete")
		}
		settings := r.Settings
		if len(settings) > 8 {
			settings = settings[:8]
		}
		rows = append(rows, []string{
			r.ID,
			cli.FormatAgo(r.StartedAt),
			cli.FormatNumber(int64(r.Files)),
			cli.FormatNumber(int64(r.FileErrors)),
			cli.FormatNumber(int64(r.Rows)),
			settings,
			status,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Run", "Started", "Files", "Errors", "Rows", "Settings", "Status"},
		Rows:    rows,
		Right:   []bool{false, false, true, true, true},
	}))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(appCfg.General.Format)
	if err != nil {
		return err
	}

	cache, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	rows, err := cache.RunRows(args[0])
	if err != nil {
		return err
	}
	return report.Encode(cmd.OutOrStdout(), format, rows, appCfg.General.DateFormat)
}
