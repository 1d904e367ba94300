// Package output handles file naming and writing for motopipe exports.
// Each run writes one dated file per format, e.g. motorcycles-2025-03-01.json,
// plus a stats-2025-03-01.json summary. A second run on the same day
// replaces the earlier files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gaurav-prasanna/motopipe/core"
)

const dateLayout = "2006-01-02"

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
	now       func() time.Time
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir, now: time.Now}, nil
}

// Filename returns the dated name for a record file with extension ext.
func (w *Writer) Filename(ext string) string {
	return "motorcycles-" + w.now().Format(dateLayout) + ext
}

// WriteRecords renders records with r and writes the result.
func (w *Writer) WriteRecords(r core.Renderer, records []core.Record, stats *core.Stats) (string, error) {
	data, err := r.Render(records, stats)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", r.Extension(), err)
	}
	return w.write(w.Filename(r.Extension()), data)
}

// WriteStats writes the run stats as indented JSON.
func (w *Writer) WriteStats(stats *core.Stats) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling stats: %w", err)
	}
	return w.write("stats-"+w.now().Format(dateLayout)+".json", data)
}

func (w *Writer) write(name string, data []byte) (string, error) {
	path := filepath.Join(w.OutputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}
