// Package cmd — scrape command.
// This is the main command that orchestrates the pipeline:
// extract (per source) → merge → write files → optionally reconcile.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/motopipe/config"
	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
	"github.com/gaurav-prasanna/motopipe/core/fetch"
	"github.com/gaurav-prasanna/motopipe/core/output"
	"github.com/gaurav-prasanna/motopipe/core/render"
	"github.com/gaurav-prasanna/motopipe/pipeline"
	"github.com/gaurav-prasanna/motopipe/sources"
)

// Flag variables.
var (
	flagParallel  bool
	flagDelay     time.Duration
	flagOutputDir string
	flagMarkdown  bool
	flagPDF       bool
	flagUpload    bool
	flagDryRun    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [source]",
	Short: "Scrape every enabled source, or only the named one",
	Long: `Scrape runs the enabled sources, writes the merged records to a dated JSON
file (plus Markdown or PDF on request) and a stats file, and optionally
reconciles the records with the configured store.

Examples:
  motopipe scrape
  motopipe scrape yamaha --markdown
  motopipe scrape --parallel --output_dir ./out --pdf
  motopipe scrape --upload
  motopipe scrape bmw-api --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().BoolVar(&flagParallel, "parallel", false, "Run sources concurrently")
	scrapeCmd.Flags().DurationVar(&flagDelay, "delay", pipeline.DefaultDelay, "Delay between sources in sequential mode")
	scrapeCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: from config)")
	scrapeCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Also write a Markdown price list")
	scrapeCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Also write a PDF price list")
	scrapeCmd.Flags().BoolVar(&flagUpload, "upload", false, "Reconcile the records with the store")
	scrapeCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Show what --upload would change without writing")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := contextOf(cmd)
	out := cmd.OutOrStdout()
	logger := slog.Default()

	// --- Resolve options: flags win over config ---
	mode, err := pipeline.ParseMode(cfg.Scrape.Mode)
	if err != nil {
		return err
	}
	if flagParallel {
		mode = pipeline.Concurrent
	}
	delay := cfg.Scrape.DelayDuration()
	if cmd.Flags().Changed("delay") {
		delay = flagDelay
	}

	// --- Build sources ---
	extractors, err := buildExtractors(cfg, args, logger)
	if err != nil {
		return err
	}
	p := pipeline.New(extractors,
		pipeline.WithMode(mode),
		pipeline.WithDelay(delay),
		pipeline.WithConcurrency(cfg.Scrape.Concurrency),
		pipeline.WithLogger(logger),
	)

	// --- Run ---
	var res *pipeline.Result
	if len(args) == 1 {
		fmt.Fprintf(out, "Scraping %s...\n", args[0])
		res, err = p.RunOne(ctx, args[0])
	} else {
		fmt.Fprintf(out, "Scraping %d sources (%s)...\n", len(p.Sources()), modeName(mode))
		res, err = p.RunAll(ctx)
	}
	if res != nil {
		printRunSummary(out, res.Stats)
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrNoRecords) {
			return fmt.Errorf("scrape produced nothing to write: %w", err)
		}
		return err
	}

	// --- Write files ---
	if err := writeOutputs(out, res); err != nil {
		return err
	}

	if !flagUpload && !flagDryRun {
		return nil
	}
	return reconcileRecords(ctx, out, res.Records, flagDryRun)
}

// buildExtractors builds the configured sources. A named built-in source
// is enabled even when it is not part of the default set.
func buildExtractors(c config.Config, args []string, logger *slog.Logger) ([]extract.Extractor, error) {
	fetcher := fetch.New(fetch.Options{
		Timeout:          c.Scrape.TimeoutDuration(),
		UserAgent:        c.Scrape.UserAgent,
		CloudflareBypass: c.Scrape.CloudflareBypass,
		Logger:           logger,
	})
	var pageRenderer core.PageRenderer
	if c.Renderer.URL != "" {
		pageRenderer = fetch.NewRemoteRenderer(c.Renderer.URL, c.Renderer.Token, logger)
	}

	overrides := make(map[string]config.SourceOverride, len(c.Sources)+1)
	for name, ov := range c.Sources {
		overrides[name] = ov
	}
	if len(args) == 1 {
		if _, ok := sources.Lookup(args[0]); ok {
			ov := overrides[args[0]]
			ov.Enabled, ov.Disabled = true, false
			overrides[args[0]] = ov
		}
	}

	extractors, err := sources.Build(sources.Deps{
		Fetcher:   fetcher,
		Renderer:  pageRenderer,
		UserAgent: c.Scrape.UserAgent,
		Timeout:   c.Scrape.TimeoutDuration(),
		MinPrice:  c.Scrape.MinPrice,
		Logger:    logger,
	}, overrides, c.Custom)
	if err != nil {
		return nil, fmt.Errorf("building sources: %w", err)
	}
	return extractors, nil
}

func writeOutputs(out io.Writer, res *pipeline.Result) error {
	dir := cfg.Output.Dir
	if flagOutputDir != "" {
		dir = flagOutputDir
	}
	writer, err := output.New(dir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	renderers := []core.Renderer{render.NewJSONRenderer()}
	if flagMarkdown || cfg.Output.Markdown {
		renderers = append(renderers, render.NewMarkdownRenderer())
	}
	if flagPDF || cfg.Output.PDF {
		renderers = append(renderers, render.NewPDFRenderer())
	}
	for _, r := range renderers {
		path, err := writer.WriteRecords(r, res.Records, res.Stats)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Written: %s\n", path)
	}

	path, err := writer.WriteStats(res.Stats)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Written: %s\n", path)
	return nil
}

func modeName(m pipeline.Mode) string {
	if m == pipeline.Concurrent {
		return "concurrent"
	}
	return "sequential"
}
