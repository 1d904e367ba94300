// Package core — canonical record model.
// A Record is one observation of a motorcycle model, independent of the
// source format it was scraped from.
package core

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Category is one value of the closed model taxonomy.
type Category string

const (
	CategorySport     Category = "Sport"
	CategoryNaked     Category = "Naked"
	CategoryAdventure Category = "Adventure"
	CategoryTouring   Category = "Touring"
	CategoryCruiser   Category = "Cruiser"
	CategoryScooter   Category = "Scooter"
	CategoryOffRoad   Category = "Off-Road"
	CategoryRetro     Category = "Retro/Classic"
	CategoryHybrid    Category = "Hybrid"
)

// Categories lists the taxonomy in display order.
var Categories = []Category{
	CategorySport, CategoryNaked, CategoryAdventure, CategoryTouring,
	CategoryCruiser, CategoryScooter, CategoryOffRoad, CategoryRetro, CategoryHybrid,
}

// Known reports whether c is part of the taxonomy.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Record is the normalized unit of a single motorcycle model observation.
type Record struct {
	Name           string         `json:"name"`
	Brand          string         `json:"brand"`
	Category       Category       `json:"category,omitempty"`
	Year           int            `json:"year"`
	Price          float64        `json:"price"`
	PreviousPrice  *float64       `json:"previousPrice,omitempty"`
	EngineCapacity *int           `json:"engineCapacity,omitempty"`
	Power          *float64       `json:"power,omitempty"`
	Torque         *float64       `json:"torque,omitempty"`
	Weight         *int           `json:"weight,omitempty"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	Specifications map[string]any `json:"specifications,omitempty"`
}

// IdentityKey is the case-insensitive, whitespace-normalized (brand, name) pair.
type IdentityKey struct {
	Brand string
	Name  string
}

func (k IdentityKey) String() string {
	return k.Brand + "/" + k.Name
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// KeyOf builds the identity key for a brand and model name.
func KeyOf(brand, name string) IdentityKey {
	return IdentityKey{Brand: normalizeKeyPart(brand), Name: normalizeKeyPart(name)}
}

// Key returns the record's identity key.
func (r Record) Key() IdentityKey {
	return KeyOf(r.Brand, r.Name)
}

// Valid reports whether the record may leave an extractor: name, brand and
// year present, and a price that is positive and at least minPrice.
func (r Record) Valid(minPrice float64) bool {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Brand) == "" {
		return false
	}
	if r.Year <= 0 {
		return false
	}
	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price <= 0 {
		return false
	}
	return r.Price >= minPrice
}

// PriceHistoryEntry records one detected price change. Never updated once created.
type PriceHistoryEntry struct {
	RecordID         int64     `json:"recordId"`
	Brand            string    `json:"brand"`
	Name             string    `json:"name"`
	OldPrice         float64   `json:"oldPrice"`
	NewPrice         float64   `json:"newPrice"`
	PriceChange      float64   `json:"priceChange"`
	PercentageChange float64   `json:"percentageChange"`
	ChangedAt        time.Time `json:"changedAt"`
}

// NewPriceHistoryEntry computes the signed change and the percentage change
// rounded to two decimals.
func NewPriceHistoryEntry(id int64, brand, name string, oldPrice, newPrice float64, at time.Time) PriceHistoryEntry {
	change := newPrice - oldPrice
	pct := 0.0
	if oldPrice != 0 {
		pct = math.Round(change/oldPrice*100*100) / 100
	}
	return PriceHistoryEntry{
		RecordID:         id,
		Brand:            brand,
		Name:             name,
		OldPrice:         oldPrice,
		NewPrice:         newPrice,
		PriceChange:      change,
		PercentageChange: pct,
		ChangedAt:        at,
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.PreviousPrice = clonePtr(r.PreviousPrice)
	r.EngineCapacity = clonePtr(r.EngineCapacity)
	r.Power = clonePtr(r.Power)
	r.Torque = clonePtr(r.Torque)
	r.Weight = clonePtr(r.Weight)
	if r.Specifications != nil {
		specs := make(map[string]any, len(r.Specifications))
		for k, v := range r.Specifications {
			specs[k] = v
		}
		r.Specifications = specs
	}
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
