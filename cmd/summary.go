package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/reconcile"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// printRunSummary writes the per-source outcome table and the totals.
func printRunSummary(w io.Writer, stats *core.Stats) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Source", "Brand", "Models", "Status", "Dropped", "Duplicates", "Duration"})
	for _, s := range stats.Sources {
		status := "live"
		if !s.Live {
			status = "fallback"
		}
		if s.Count == 0 && s.Error != "" {
			status = "failed"
		}
		t.AppendRow(table.Row{s.Name, s.Brand, s.Count, status, s.Dropped, s.Duplicates, s.Duration.Round(10*time.Millisecond)})
	}
	t.AppendFooter(table.Row{"Total", "", stats.Total, fmt.Sprintf("%d/%d live", stats.LiveSources(), len(stats.Sources)), "", "", stats.Duration.Round(10*time.Millisecond)})
	t.Render()

	if len(stats.ByBrand) > 0 {
		b := newTable(w)
		b.AppendHeader(table.Row{"Brand", "Models", "Min (₺)", "Max (₺)", "Avg (₺)"})
		for _, brand := range stats.Brands() {
			bs := stats.ByBrand[brand]
			b.AppendRow(table.Row{brand, bs.Count, core.FormatPrice(bs.MinPrice), core.FormatPrice(bs.MaxPrice), core.FormatPrice(bs.AvgPrice)})
		}
		b.Render()
	}

	for _, e := range stats.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", e)
	}
}

// printUploadSummary writes reconciliation counts, price changes and failures.
func printUploadSummary(w io.Writer, sum *reconcile.Summary, dryRun bool) {
	title := "Upload"
	if dryRun {
		title = "Upload (dry run)"
	}
	t := newTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"New", "Updated", "Unchanged", "Price changes", "Failures"})
	t.AppendRow(table.Row{sum.Inserted, sum.Updated, sum.Unchanged, sum.PriceChanges(), len(sum.Failures)})
	t.Render()

	for _, c := range sum.Changes {
		fmt.Fprintf(w, "  %s\n", c)
	}
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "  ✗ %s\n", f.Error())
	}
}
