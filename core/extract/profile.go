package extract

import (
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

// Profile is a brand's knowledge: how its names are cleaned, how its
// categories and displacements are recognized, and what to serve when the
// live source fails. Name-based category rules are looked up in the
// normalize registry by brand.
type Profile struct {
	Brand string
	// Labels maps the source's own category labels to the taxonomy.
	Labels normalize.RuleTable
	// Noise is removed from model names.
	Noise []*regexp.Regexp
	// Engine guesses displacement from the model name when the item has no
	// engine field.
	Engine normalize.EngineRule
	// Fallback is the fixed catalog served when live extraction fails.
	Fallback []core.Record
	// FallbackYear fills fallback records that carry no year.
	FallbackYear int
}

// Normalize turns a raw item into a record. Unparseable fields stay absent;
// validity is checked by the caller.
func (p Profile) Normalize(it Item, base *url.URL, defaultYear int) core.Record {
	name := normalize.CleanModelName(it.FullName(), p.Brand, p.Noise...)
	rec := core.Record{
		Name:     name,
		Brand:    p.Brand,
		Year:     defaultYear,
		ImageURL: resolveURL(base, it.Image),
	}

	if cat, ok := normalize.MapCategoryLabel(p.Labels, it.Category); ok {
		rec.Category = cat
	} else if cat, ok := normalize.GuessCategory(p.Brand, name); ok {
		rec.Category = cat
	}
	if y, ok := normalize.ParseYear(it.Year); ok {
		rec.Year = y
	}
	if price, ok := normalize.ParsePrice(it.Price); ok {
		rec.Price = price
	}

	if it.Engine != "" {
		if cc, ok := normalize.ParseEngineCapacity(it.Engine); ok {
			rec.EngineCapacity = core.Ptr(cc)
		}
	} else if cc, ok := p.Engine.Guess(name); ok {
		rec.EngineCapacity = core.Ptr(cc)
	}
	if hp, ok := parsePowerText(it.Power); ok {
		rec.Power = core.Ptr(hp)
	}
	if nm, ok := normalize.ParseNumber(it.Torque); ok {
		rec.Torque = core.Ptr(nm)
	}
	if kg, ok := normalize.ParseNumber(it.Weight); ok {
		rec.Weight = core.Ptr(int(math.Round(kg)))
	}

	if len(it.Specs) > 0 || it.EngineType != "" {
		rec.Specifications = make(map[string]any, len(it.Specs)+1)
		for k, v := range it.Specs {
			rec.Specifications[k] = v
		}
		if it.EngineType != "" {
			rec.Specifications["engineType"] = it.EngineType
		}
	}
	return rec
}

var bareNumberRegex = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

// parsePowerText accepts a bare number as horsepower.
func parsePowerText(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if bareNumberRegex.MatchString(text) {
		return normalize.ParseNumber(text)
	}
	return normalize.ParsePower(text)
}

// FallbackRecords returns a copy of the fallback catalog with brand and year
// filled in.
func (p Profile) FallbackRecords() []core.Record {
	out := make([]core.Record, 0, len(p.Fallback))
	for _, r := range p.Fallback {
		r = r.Clone()
		if r.Brand == "" {
			r.Brand = p.Brand
		}
		if r.Year == 0 {
			r.Year = p.FallbackYear
		}
		out = append(out, r)
	}
	return out
}
