package cmd

import (
	"fmt"
	"os"

	"github.com/andralbr/dataEvaluation/internal/cli"
	"github.com/andralbr/dataEvaluation/internal/pipeline"
	"github.com/andralbr/dataEvaluation/internal/report"

	"github.com/spf13/cobra"
)

var (
	flagStdout bool
	flagRecord bool
)

var processCmd = &cobra.Command{
	Use:   "process [paths...]",
	Short: "Consolidate log files and write usage reports",
	Long: "Consolidate every log file found in the given files and directories.\n" +
		"Each file gets its own p_<name> report unless --output-file is set.",
	RunE: runProcess,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, processCmd} {
		c.Flags().BoolVar(&flagStdout, "stdout", false, "Write the report to stdout instead of files")
		c.Flags().BoolVar(&flagRecord, "record", false, "Add the run to the run history")
	}
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !cmd.HasParent() {
		return cmd.Help()
	}

	opts, err := processOptions()
	if err != nil {
		return err
	}
	files, err := discoverInputs(args)
	if err != nil {
		return err
	}

	result, err := loadData(cmd.Context(), files, opts, flagRecord)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagStdout {
		format, err := report.ParseFormat(opts.Format)
		if err != nil {
			return err
		}
		return report.Encode(out, format, result.Rows(), opts.DateFormat)
	}

	for _, fr := range result.Files {
		if fr.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s %s: %v\n", cli.Warn("skipped"), fr.Input.Path, fr.Err)
			continue
		}
		if flagQuiet {
			continue
		}
		fmt.Fprintf(out, "%s\n", fr.Input.Path)
		fmt.Fprintf(out, "  Lines (total, valid) = %d, %d\n", fr.Lines, fr.Stats.ValidRecords)
		fmt.Fprintf(out, "  Non-terminated processes = %d\n", fr.Stats.Unterminated)
		if n := fr.DiagnosticCount(); n > 0 {
			fmt.Fprintf(out, "  %s\n", cli.Muted(fmt.Sprintf("%d diagnostics, rerun with --log-level debug for details", n)))
		}
	}

	written, err := pipeline.WriteReports(result, opts)
	for _, w := range written {
		if !flagQuiet {
			fmt.Fprintf(out, "Output file: %s (%s rows)\n", w.Path, cli.FormatNumber(int64(w.Rows)))
		}
	}
	if err != nil {
		return err
	}

	if result.FileErrors > 0 {
		return fmt.Errorf("%d of %d files could not be read", result.FileErrors, result.TotalFiles)
	}
	return nil
}
