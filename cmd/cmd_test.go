package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/render"
	"github.com/gaurav-prasanna/motopipe/pipeline"
	"github.com/gaurav-prasanna/motopipe/reconcile"
)

const ducatiPayload = `[
	{"model": "Monster", "year": 2025, "fiyat": "749.000 TL", "motor": "937 cc"},
	{"model": "Panigale V4", "year": 2025, "fiyat": "1.899.000 TL"}
]`

// writeConfig writes a config that disables every built-in source and
// scrapes a local Ducati file instead, so commands run offline.
func writeConfig(t *testing.T, dir string, withCustom bool) string {
	t.Helper()
	custom := ""
	if withCustom {
		file := filepath.Join(dir, "ducati.json")
		require.NoError(t, os.WriteFile(file, []byte(ducatiPayload), 0o644))
		custom = fmt.Sprintf(`customSources: [{name: "ducati", brand: "Ducati", kind: "json", file: %q}],`, file)
	}
	conf := fmt.Sprintf(`{
		// offline test configuration
		sources: {
			bmw: {disabled: true},
			yamaha: {disabled: true},
			honda: {disabled: true},
			kawasaki: {disabled: true},
		},
		%s
		store: {driver: "memory"},
		telemetry: {logLevel: "error"},
	}`, custom)
	path := filepath.Join(dir, "motopipe.json5")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	flagParallel, flagDelay, flagOutputDir = false, pipeline.DefaultDelay, ""
	flagMarkdown, flagPDF, flagUpload, flagDryRun = false, false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScrapeWritesFilesAndUploads(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir, true)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "--config", conf, "scrape", "--markdown", "--upload", "--output_dir", outDir)
	require.NoError(t, err)
	require.Contains(t, out, "Scraping 1 sources (sequential)")
	require.Contains(t, out, "ducati")
	require.Contains(t, out, "✓ Written:")

	matches, err := filepath.Glob(filepath.Join(outDir, "motorcycles-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	records, err := render.ReadRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Monster", records[0].Name)
	require.Equal(t, 749000.0, records[0].Price)

	for _, pattern := range []string{"motorcycles-*.md", "stats-*.json"} {
		matches, err := filepath.Glob(filepath.Join(outDir, pattern))
		require.NoError(t, err)
		require.Len(t, matches, 1, pattern)
	}
}

func TestScrapeWithNoSourcesFails(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir, false)

	_, err := execute(t, "--config", conf, "scrape", "--output_dir", filepath.Join(dir, "out"))
	require.ErrorIs(t, err, pipeline.ErrNoRecords)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotEqual(t, "out", e.Name())
	}
}

func TestScrapeUnknownSource(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir, true)

	_, err := execute(t, "--config", conf, "scrape", "triumph")
	require.ErrorIs(t, err, pipeline.ErrUnknownSource)
}

func TestUploadFile(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir, false)
	file := filepath.Join(dir, "motorcycles-2025-03-01.json")
	data, err := render.NewJSONRenderer().Render([]core.Record{
		{Brand: "Yamaha", Name: "MT-07", Year: 2025, Price: 459000},
		{Brand: "Yamaha", Name: "Kit", Year: 2025, Price: 900},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	out, err := execute(t, "--config", conf, "upload", file)
	require.NoError(t, err)
	require.Contains(t, out, "Uploading 2 records")
	require.Contains(t, out, "✗ yamaha/kit: invalid record")

	_, err = execute(t, "--config", conf, "upload", filepath.Join(dir, "missing.json"))
	require.ErrorContains(t, err, "reading")
}

func TestSourcesListsBuiltinsAndCustom(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir, true)

	out, err := execute(t, "--config", conf, "sources")
	require.NoError(t, err)
	for _, want := range []string{"bmw-api", "kawasaki", "ducati", "json (custom)"} {
		require.Contains(t, out, want)
	}
}

func TestPrintUploadSummary(t *testing.T) {
	change := core.NewPriceHistoryEntry(1, "Yamaha", "MT-07", 275000, 289000, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	sum := &reconcile.Summary{
		Inserted: 2,
		Updated:  1,
		Changes:  []core.PriceHistoryEntry{change},
		Failures: []reconcile.Failure{{Key: core.KeyOf("Honda", "CB 500X"), Err: fmt.Errorf("store offline")}},
	}

	var buf bytes.Buffer
	printUploadSummary(&buf, sum, true)
	out := buf.String()
	require.Contains(t, out, "Upload (dry run)")
	require.Contains(t, out, "Yamaha-MT-07: 275.000 ₺ → 289.000 ₺ (+5.09%)")
	require.Contains(t, out, "✗ honda/cb 500x: store offline")
}

func TestPrintRunSummary(t *testing.T) {
	records := []core.Record{
		{Brand: "BMW", Name: "S 1000 RR", Year: 2025, Price: 1195000},
		{Brand: "Honda", Name: "CB 500X", Year: 2025, Price: 389000},
	}
	stats := &core.Stats{
		Total:   2,
		ByBrand: core.BrandSummary(records),
		Sources: []core.SourceStat{
			{Name: "bmw", Brand: "BMW", Count: 1, Live: true},
			{Name: "honda", Brand: "Honda", Count: 1, Error: "no page renderer configured"},
			{Name: "kawasaki", Brand: "Kawasaki", Error: "panic: boom"},
		},
		Errors: []string{"honda: no page renderer configured", "kawasaki: panic: boom"},
	}

	var buf bytes.Buffer
	printRunSummary(&buf, stats)
	out := buf.String()
	require.Contains(t, out, "live")
	require.Contains(t, out, "fallback")
	require.Contains(t, out, "failed")
	require.Contains(t, out, "1.195.000")
	require.Contains(t, out, "✗ kawasaki: panic: boom")
}
