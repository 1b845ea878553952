package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/andralbr/dataEvaluation/internal/config"
	"github.com/andralbr/dataEvaluation/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	path, exists := config.ConfigPath(), config.Exists()
	if flagConfig != "" {
		_, err := os.Stat(flagConfig)
		path, exists = flagConfig, err == nil
	}
	fmt.Printf("  Config file: %s\n", path)
	if exists {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Date format: %s\n", cfg.General.DateFormat)
	fmt.Printf("    Format:      %s\n", cfg.General.Format)
	fmt.Printf("    Extensions:  %s\n", strings.Join(cfg.General.Extensions, " "))
	if cfg.General.OutputFile != "" {
		fmt.Printf("    Output file: %s\n", cfg.General.OutputFile)
	} else if cfg.General.OutputDir != "" {
		fmt.Printf("    Output dir:  %s\n", cfg.General.OutputDir)
	} else {
		fmt.Println("    Output:      current directory")
	}
	fmt.Println()

	fmt.Println("  [Filter]")
	if cfg.Filter.Enabled {
		fmt.Printf("    Window: %s - %s\n", cfg.Filter.Start, cfg.Filter.End)
		if _, err := cfg.TimeFilter(); err != nil {
			fmt.Printf("    Invalid: %v\n", err)
		}
	} else {
		fmt.Println("    Window: off")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Enabled: %v\n", cfg.Cache.Enabled)
	fmt.Printf("    Path:    %s\n", store.DefaultPath())
	if cfg.Cache.Enabled {
		if cache, err := store.Open(store.DefaultPath()); err == nil {
			if n, err := cache.FileCount(); err == nil {
				fmt.Printf("    Tracked: %d files\n", n)
			}
			_ = cache.Close()
		}
	}
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level: %s\n", cfg.Logging.Level)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `tbxusage setup` to reconfigure.")
	return nil
}
