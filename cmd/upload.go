package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/render"
	"github.com/gaurav-prasanna/motopipe/reconcile"
	"github.com/gaurav-prasanna/motopipe/store"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Reconcile a previously exported JSON file with the store",
	Long: `Upload reads a motorcycles-YYYY-MM-DD.json file written by scrape and
reconciles it with the configured store, inserting new models and recording
price changes.

Examples:
  motopipe upload motorcycles-2025-03-01.json
  motopipe upload out/motorcycles-2025-03-01.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Show what would change without writing")
}

func runUpload(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	records, err := render.ReadRecords(data)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploading %d records from %s...\n", len(records), args[0])
	return reconcileRecords(contextOf(cmd), cmd.OutOrStdout(), records, flagDryRun)
}

// reconcileRecords applies records to the configured store, or only plans
// them when dryRun is set, and prints the summary.
func reconcileRecords(ctx context.Context, out io.Writer, records []core.Record, dryRun bool) error {
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer backend.Close()

	r := reconcile.New(backend, reconcile.WithMinPrice(cfg.Scrape.MinPrice))
	var sum *reconcile.Summary
	if dryRun {
		sum, err = r.DryRun(ctx, backend, records)
	} else {
		sum, err = r.Reconcile(ctx, records)
	}
	if sum != nil {
		printUploadSummary(out, sum, dryRun)
	}
	if err != nil {
		return fmt.Errorf("reconciling records: %w", err)
	}
	return nil
}
