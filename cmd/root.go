// Package cmd implements the tbxusage CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/andralbr/dataEvaluation/internal/cli"
	"github.com/andralbr/dataEvaluation/internal/config"
	"github.com/andralbr/dataEvaluation/internal/logging"
	"github.com/andralbr/dataEvaluation/internal/pipeline"
	"github.com/andralbr/dataEvaluation/internal/source"
	"github.com/andralbr/dataEvaluation/internal/store"
	"github.com/andralbr/dataEvaluation/internal/tui/theme"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagDateFormat  string
	flagFilterStart string
	flagFilterEnd   string
	flagNoFilter    bool
	flagOutputDir   string
	flagOutputFile  string
	flagFormat      string
	flagLogLevel    string
	flagNoCache     bool
	flagQuiet       bool
	flagWorkers     int
)

// appCfg is the effective configuration: the config file, environment and
// flags, in increasing precedence. It is set before any command runs.
var appCfg config.Config

var errNoInputs = errors.New("no input files found")

var rootCmd = &cobra.Command{
	Use:   "tbxusage [paths...]",
	Short: "Toolbox usage consolidation",
	Long: "Pair $START/$END records of license process logs and report the merged\n" +
		"usage time of every toolbox, optionally clipped to a time window.",
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.RunE = runProcess

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	pf.StringVar(&flagDateFormat, "date-format", "", "strftime format for report and filter dates")
	pf.StringVar(&flagFilterStart, "filter-start", "", "Start of the time filter, in the date format")
	pf.StringVar(&flagFilterEnd, "filter-end", "", "End of the time filter, in the date format")
	pf.BoolVar(&flagNoFilter, "no-filter", false, "Ignore the configured time filter")
	pf.StringVarP(&flagOutputDir, "output-dir", "o", "", "Directory for report files (default: current directory)")
	pf.StringVar(&flagOutputFile, "output-file", "", "Write every report into this single file")
	pf.StringVarP(&flagFormat, "format", "f", "", "Report format: text, csv, json, yaml, msgpack")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite cache, reparse everything")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	pf.IntVar(&flagWorkers, "workers", 0, "Parallel file workers (default: number of CPUs)")
}

// loadConfig resolves appCfg and configures logging and the theme.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadPath(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if flagDateFormat != "" {
		cfg.General.DateFormat = flagDateFormat
	}
	if flagOutputDir != "" {
		cfg.General.OutputDir = flagOutputDir
	}
	if flagOutputFile != "" {
		cfg.General.OutputFile = flagOutputFile
	}
	if flagFormat != "" {
		cfg.General.Format = flagFormat
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	switch {
	case flagNoFilter:
		cfg.ClearTimeFilter()
	case flagFilterStart != "" || flagFilterEnd != "":
		if err := cfg.SetTimeFilter(flagFilterStart, flagFilterEnd); err != nil {
			return err
		}
	}

	logging.Init(cmd.ErrOrStderr(), false, logging.ParseLevel(cfg.Logging.Level))
	theme.SetActive(cfg.Appearance.Theme)
	cli.ApplyTheme(theme.Active)

	appCfg = cfg
	return nil
}

// processOptions validates appCfg and turns it into pipeline options.
func processOptions() (pipeline.Options, error) {
	if err := appCfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}
	filter, err := appCfg.TimeFilter()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Filter:     filter,
		DateFormat: appCfg.General.DateFormat,
		OutputDir:  appCfg.General.OutputDir,
		OutputFile: appCfg.General.OutputFile,
		Format:     appCfg.General.Format,
		Workers:    flagWorkers,
	}, nil
}

func discoverInputs(args []string) ([]source.InputFile, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: pass one or more log files or directories", errNoInputs)
	}
	files, err := source.Discover(args, appCfg.General.Extensions)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v", errNoInputs, args)
	}
	return files, nil
}

func cacheEnabled() bool {
	return appCfg.Cache.Enabled && !flagNoCache
}

// showProgress reports whether progress lines go to stderr.
func showProgress() bool {
	if flagQuiet {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// loadData is the shared processing path used by all commands.
// Uses the SQLite cache when available for fast subsequent runs. With
// record set, the run is added to the run history.
func loadData(ctx context.Context, files []source.InputFile, opts pipeline.Options, record bool) (*pipeline.ProcessResult, error) {
	progress := showProgress()
	progressFn := func(current, total int) {
		if progress {
			fmt.Fprintf(os.Stderr, "\r  Processing %s", cli.RenderProgressBar(current, total, 24))
		}
	}
	done := func(result *pipeline.ProcessResult) {
		if !progress {
			return
		}
		if result.CacheHits > 0 {
			fmt.Fprintf(os.Stderr, "\r  %s cached + %d processed    \n",
				cli.FormatNumber(int64(result.CacheHits)), result.Reparsed)
		} else {
			fmt.Fprintf(os.Stderr, "\r  Processed %s files    \n", cli.FormatNumber(int64(result.TotalFiles)))
		}
	}

	if cacheEnabled() {
		cache, err := store.Open(store.DefaultPath())
		if err != nil {
			slog.Warn("cache unavailable, doing full parse", "err", err)
		} else {
			defer func() { _ = cache.Close() }()

			result, err := pipeline.ProcessWithCache(ctx, files, opts, cache, progressFn)
			if err == nil {
				done(result)
				if record {
					recordRun(cache, result, opts)
				}
				return result, nil
			}
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			slog.Warn("cache error, falling back to full parse", "err", err)
		}
	}

	result, err := pipeline.Process(ctx, files, opts, progressFn)
	if err != nil {
		return nil, err
	}
	done(result)
	return result, nil
}

func recordRun(cache *store.Cache, result *pipeline.ProcessResult, opts pipeline.Options) {
	settings, err := pipeline.SettingsHash(opts.Filter)
	if err != nil {
		slog.Warn("run not recorded", "err", err)
		return
	}
	id, err := pipeline.RecordRun(cache, result, settings)
	if err != nil {
		slog.Warn("run not recorded", "err", err)
		return
	}
	slog.Debug("run recorded", "run_id", id)
}
