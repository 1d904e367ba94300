package output

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/render"
)

func newTestWriter(t *testing.T, dir string) *Writer {
	t.Helper()
	w, err := New(dir)
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC) }
	return w
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "daily")
	w := newTestWriter(t, dir)
	require.Equal(t, dir, w.OutputDir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestWriteRecordsUsesDatedName(t *testing.T) {
	w := newTestWriter(t, t.TempDir())
	records := []core.Record{{Brand: "Honda", Name: "CB 500X", Year: 2025, Price: 389000}}

	path, err := w.WriteRecords(render.NewJSONRenderer(), records, nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(w.OutputDir, "motorcycles-2025-03-01.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := render.ReadRecords(data)
	require.NoError(t, err)
	require.Equal(t, records, got)

	path, err = w.WriteRecords(render.NewMarkdownRenderer(), records, nil)
	require.NoError(t, err)
	require.Equal(t, "motorcycles-2025-03-01.md", filepath.Base(path))
}

func TestWriteRecordsOverwritesSameDay(t *testing.T) {
	w := newTestWriter(t, t.TempDir())
	first := []core.Record{{Brand: "Honda", Name: "CB 500X", Year: 2025, Price: 389000}}
	second := []core.Record{{Brand: "Honda", Name: "CB 650R", Year: 2025, Price: 459000}}

	_, err := w.WriteRecords(render.NewJSONRenderer(), first, nil)
	require.NoError(t, err)
	path, err := w.WriteRecords(render.NewJSONRenderer(), second, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := render.ReadRecords(data)
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestWriteStats(t *testing.T) {
	w := newTestWriter(t, t.TempDir())
	stats := &core.Stats{
		RunID:    "run-1",
		Total:    3,
		Duration: 2500 * time.Millisecond,
		Sources:  []core.SourceStat{{Name: "honda", Brand: "Honda", Duration: 1400 * time.Millisecond, Error: "render timeout"}},
		Errors:   []string{"honda: render timeout"},
	}

	path, err := w.WriteStats(stats)
	require.NoError(t, err)
	require.Equal(t, "stats-2025-03-01.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "run-1", got["runId"])
	require.Equal(t, 3.0, got["totalMotorcycles"])
	require.Equal(t, 2500.0, got["durationMs"])
	require.NotContains(t, got, "duration")

	sources, ok := got["sources"].([]any)
	require.True(t, ok)
	require.Len(t, sources, 1)
	source := sources[0].(map[string]any)
	require.Equal(t, "honda", source["name"])
	require.Equal(t, 1400.0, source["durationMs"])
	require.NotContains(t, source, "duration")
}

type failingRenderer struct{}

func (failingRenderer) Render([]core.Record, *core.Stats) ([]byte, error) {
	return nil, errors.New("no fonts")
}

func (failingRenderer) Extension() string { return ".pdf" }

func TestWriteRecordsRenderError(t *testing.T) {
	w := newTestWriter(t, t.TempDir())
	_, err := w.WriteRecords(failingRenderer{}, nil, nil)
	require.EqualError(t, err, "rendering .pdf: no fonts")

	entries, err := os.ReadDir(w.OutputDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
