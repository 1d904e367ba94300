// Package cmd implements the CLI commands for motopipe using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/motopipe/config"
	"github.com/gaurav-prasanna/motopipe/telemetry"
)

// Persistent flag variables.
var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// Loaded by the root command before any subcommand runs.
var (
	cfg config.Config
	tel telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "motopipe",
	Short: "motopipe scrapes Turkish motorcycle price lists into one catalog",
	Long: `motopipe scrapes manufacturer price lists, normalizes every model into one
record shape, and reconciles the result with a stored catalog, recording
price changes as history.

Usage:
  motopipe scrape [source] [flags]
  motopipe sources
  motopipe upload <file>`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (overrides config)")
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.Telemetry.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Telemetry.LogFormat = flagLogFormat
	}
	if _, err := telemetry.SetupLogger(cmd.ErrOrStderr(), cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat); err != nil {
		return err
	}

	tel, err = telemetry.Setup(contextOf(cmd), "motopipe", cfg.Telemetry.OtlpEndpoint, cfg.Telemetry.OtlpHeaders)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command and flushes pending spans.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if shutdownErr := tel.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
		fmt.Fprintln(os.Stderr, "flushing traces:", shutdownErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
