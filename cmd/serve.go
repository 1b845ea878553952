package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/andralbr/dataEvaluation/internal/logging"
	"github.com/andralbr/dataEvaluation/internal/server"
	"github.com/andralbr/dataEvaluation/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr    string
	flagServeJSONLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the consolidation HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().BoolVar(&flagServeJSONLog, "json-log", false, "Log as JSON lines")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := appCfg.Validate(); err != nil {
		return err
	}
	filter, err := appCfg.TimeFilter()
	if err != nil {
		return err
	}
	if flagServeJSONLog {
		logging.Init(os.Stderr, true, logging.ParseLevel(appCfg.Logging.Level))
	}

	addr := appCfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}

	var cache *store.Cache
	if cacheEnabled() {
		cache, err = store.Open(store.DefaultPath())
		if err != nil {
			slog.Warn("cache unavailable, run history disabled", "err", err)
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
		}
	}

	svc := server.New(server.Config{
		Addr:       addr,
		DateFormat: appCfg.General.DateFormat,
		Filter:     filter,
	}, cache)

	fmt.Printf("  tbxusage listening on http://%s\n", addr)
	fmt.Println("  POST log text to /v1/consolidate, stop with Ctrl+C")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
