package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabsift/internal/config"
	"github.com/KaramelBytes/tabsift/internal/logging"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagWorkspace string
	flagBackend   string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tabsift",
	Short: "tabsift: filter spreadsheets by column and chart the result",
	Long: `tabsift loads a CSV, TSV, XLSX or HTML table, filters it by a substring match
on one column (typed or spoken), keeps the filtered snapshot as the current table
and resolves box plots, histograms, bar charts, pie charts and pair plots over it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { logging.Sync() },
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization cycle
	// (loadConfig reads rootCmd's flags).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return loadConfig() }

	// Persistent global flags available to all subcommands
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.tabsift/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagWorkspace, "workspace", "", "workspace directory for session state and snapshots (overrides config)")
	pf.StringVar(&flagBackend, "backend", "", "snapshot store: file or sqlite (overrides config)")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() error {
	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	overrides := map[string]any{}
	if f.Changed("workspace") && flagWorkspace != "" {
		overrides["workspace_dir"] = flagWorkspace
	}
	if f.Changed("backend") && flagBackend != "" {
		overrides["store_backend"] = flagBackend
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		overrides["http_timeout_sec"] = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		overrides["retry_max_attempts"] = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		overrides["retry_base_delay_ms"] = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		overrides["retry_max_delay_ms"] = flagRetryMaxDelayMs
	}
	c, err := cfgpkg.LoadWithOverrides(cfgFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	if _, err := logging.Init(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Debug: debug}); err != nil {
		return err
	}
	return nil
}

// warn prints a non-fatal condition. Warnings never change the exit code.
func warn(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: "+format+"\n", a...)
}

func success(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "✓ "+format+"\n", a...)
}

// isWarning reports errors that surface as warnings rather than failures.
func isWarning(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
