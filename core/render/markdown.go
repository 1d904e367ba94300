// Package render provides output renderers for the motopipe pipeline.
// This file implements the Markdown price list.
package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/gaurav-prasanna/motopipe/core"
)

// MarkdownRenderer writes one price table per brand.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render lists brands alphabetically; records keep their run order within
// a brand. When stats are given, a per-source outcome section follows.
func (r *MarkdownRenderer) Render(records []core.Record, stats *core.Stats) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("# Motorcycle price list\n\n")
	if stats != nil {
		fmt.Fprintf(&b, "Run %s, %d models from %d sources.\n\n",
			stats.StartedAt.UTC().Format("2006-01-02 15:04 MST"), stats.Total, len(stats.Sources))
	}

	for _, brand := range groupByBrand(records) {
		fmt.Fprintf(&b, "## %s\n\n", brand.name)
		b.WriteString("| Model | Category | Year | Price (₺) | Engine (cc) | Power (hp) |\n")
		b.WriteString("|---|---|---|---:|---:|---:|\n")
		for _, rec := range brand.records {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s |\n",
				escapeCell(rec.Name), rec.Category, rec.Year, core.FormatPrice(rec.Price),
				optionalInt(rec.EngineCapacity), optionalFloat(rec.Power))
		}
		b.WriteString("\n")
		if stats != nil {
			if bs, ok := stats.ByBrand[brand.name]; ok {
				fmt.Fprintf(&b, "%d models, %s ₺ to %s ₺, average %s ₺.\n\n",
					bs.Count, core.FormatPrice(bs.MinPrice), core.FormatPrice(bs.MaxPrice), core.FormatPrice(bs.AvgPrice))
			}
		}
	}

	if stats != nil && len(stats.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, src := range stats.Sources {
			fmt.Fprintf(&b, "- %s\n", SourceLine(src))
		}
	}
	return b.Bytes(), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// SourceLine describes one source outcome, e.g. "yamaha: 12 models (live, 1.4s)".
func SourceLine(s core.SourceStat) string {
	switch {
	case s.Count == 0 && s.Error != "":
		return fmt.Sprintf("%s: failed (%s)", s.Name, s.Error)
	case !s.Live:
		return fmt.Sprintf("%s: %d models (fallback, %.1fs): %s", s.Name, s.Count, s.Duration.Seconds(), s.Error)
	default:
		return fmt.Sprintf("%s: %d models (live, %.1fs)", s.Name, s.Count, s.Duration.Seconds())
	}
}

type brandGroup struct {
	name    string
	records []core.Record
}

func groupByBrand(records []core.Record) []brandGroup {
	index := make(map[string]int)
	var groups []brandGroup
	for _, r := range records {
		i, ok := index[r.Brand]
		if !ok {
			i = len(groups)
			index[r.Brand] = i
			groups = append(groups, brandGroup{name: r.Brand})
		}
		groups[i].records = append(groups[i].records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
