// Package sqlrow holds the column mapping shared by the SQL stores.
package sqlrow

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

// ModelColumns are selected, in this order, by every model query.
const ModelColumns = `id, brand_id, brand, name, category, year, price, previous_price,
	engine_capacity, power_hp, torque_nm, weight_kg, image_url, specifications, updated_at`

// Assignment is one "column = value" pair of an UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// Assignments lists the columns an update touches, in a fixed order.
func Assignments(upd core.RecordUpdate) ([]Assignment, error) {
	var out []Assignment
	add := func(col string, v any) { out = append(out, Assignment{Column: col, Value: v}) }

	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.PreviousPrice != nil {
		add("previous_price", *upd.PreviousPrice)
	}
	if upd.Year != nil {
		add("year", int64(*upd.Year))
	}
	if upd.Category != nil {
		add("category", string(*upd.Category))
	}
	if upd.EngineCapacity != nil {
		add("engine_capacity", int64(*upd.EngineCapacity))
	}
	if upd.Power != nil {
		add("power_hp", *upd.Power)
	}
	if upd.Torque != nil {
		add("torque_nm", *upd.Torque)
	}
	if upd.Weight != nil {
		add("weight_kg", int64(*upd.Weight))
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if upd.Specifications != nil {
		specs, err := EncodeSpecs(upd.Specifications)
		if err != nil {
			return nil, err
		}
		add("specifications", Text(specs))
	}
	return out, nil
}

// Int, Float and Text turn optional fields into driver values, nil
// becoming NULL.
func Int(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func Float(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func Text(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// EncodeSpecs serializes specifications; nil and empty maps become NULL.
func EncodeSpecs(specs map[string]any) (*string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("encoding specifications: %w", err)
	}
	s := string(b)
	return &s, nil
}

// DecodeSpecs parses a specifications column.
func DecodeSpecs(raw *string) (map[string]any, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var specs map[string]any
	if err := json.Unmarshal([]byte(*raw), &specs); err != nil {
		return nil, fmt.Errorf("decoding specifications: %w", err)
	}
	return specs, nil
}

// BrandSlug is the unique slug of a brand row.
func BrandSlug(name string) string {
	return normalize.GenerateSlug(name, "", 0)
}

// ModelSlug is the slug written with a model row. It leaves out the year so
// a model keeps its slug across model years.
func ModelSlug(brand, name string) string {
	return normalize.GenerateSlug(brand, name, 0)
}

// Identity returns the normalized brand and name columns that make up a
// model's unique key.
func Identity(brand, name string) (string, string) {
	k := core.KeyOf(brand, name)
	return k.Brand, k.Name
}
