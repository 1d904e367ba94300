// Package core — per-run extraction statistics.
package core

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// BrandStats summarises the prices observed for one brand in a run.
type BrandStats struct {
	Count    int     `json:"count"`
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
	AvgPrice float64 `json:"avgPrice"`
}

// SourceStat is the outcome of one extractor in a run.
// Live is false when the source fell back to its sample catalog or failed.
// Duration is written to JSON as whole milliseconds under "durationMs".
type SourceStat struct {
	Name       string        `json:"name"`
	Brand      string        `json:"brand"`
	Count      int           `json:"count"`
	Live       bool          `json:"live"`
	Dropped    int           `json:"dropped"`
	Duplicates int           `json:"duplicates"`
	Duration   time.Duration `json:"-"`
	Error      string        `json:"error,omitempty"`
}

func (s SourceStat) MarshalJSON() ([]byte, error) {
	type plain SourceStat
	return json.Marshal(struct {
		plain
		DurationMs int64 `json:"durationMs"`
	}{plain(s), s.Duration.Milliseconds()})
}

// Stats is the ephemeral report of one pipeline run. It is not persisted.
// Like SourceStat, it writes Duration as "durationMs".
type Stats struct {
	RunID     string                `json:"runId"`
	StartedAt time.Time             `json:"startedAt"`
	Total     int                   `json:"totalMotorcycles"`
	ByBrand   map[string]BrandStats `json:"byBrand"`
	Sources   []SourceStat          `json:"sources"`
	Duration  time.Duration         `json:"-"`
	Errors    []string              `json:"errors"`
}

func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	return json.Marshal(struct {
		plain
		DurationMs int64 `json:"durationMs"`
	}{plain(s), s.Duration.Milliseconds()})
}

// BrandSummary computes per-brand count/min/max/avg over records.
// The average is rounded to the nearest unit.
func BrandSummary(records []Record) map[string]BrandStats {
	out := make(map[string]BrandStats)
	sums := make(map[string]float64)
	for _, r := range records {
		s, ok := out[r.Brand]
		if !ok {
			s = BrandStats{MinPrice: math.Inf(1)}
		}
		s.Count++
		s.MinPrice = math.Min(s.MinPrice, r.Price)
		s.MaxPrice = math.Max(s.MaxPrice, r.Price)
		sums[r.Brand] += r.Price
		out[r.Brand] = s
	}
	for brand, s := range out {
		s.AvgPrice = math.Round(sums[brand] / float64(s.Count))
		out[brand] = s
	}
	return out
}

// Brands returns the brand names of the summary in sorted order.
func (s *Stats) Brands() []string {
	names := make([]string, 0, len(s.ByBrand))
	for b := range s.ByBrand {
		names = append(names, b)
	}
	sort.Strings(names)
	return names
}

// LiveSources counts sources whose records came from the live site.
func (s *Stats) LiveSources() int {
	n := 0
	for _, src := range s.Sources {
		if src.Live {
			n++
		}
	}
	return n
}
