package extract

import "strings"

// Kind selects one variant of the closed strategy set.
type Kind string

const (
	KindTable Kind = "table"
	KindCards Kind = "cards"
	KindJSON  Kind = "json"
	KindText  Kind = "text"
)

// Field names one raw item attribute.
type Field string

const (
	FieldName       Field = "name"
	FieldVariant    Field = "variant"
	FieldCategory   Field = "category"
	FieldYear       Field = "year"
	FieldPrice      Field = "price"
	FieldEngine     Field = "engine"
	FieldEngineType Field = "engineType"
	FieldPower      Field = "power"
	FieldTorque     Field = "torque"
	FieldWeight     Field = "weight"
	FieldImage      Field = "image"
)

// Item is one repeating unit found in a payload, still as raw text.
type Item struct {
	Name       string
	Variant    string
	Category   string
	Year       string
	Price      string
	Engine     string
	EngineType string
	Power      string
	Torque     string
	Weight     string
	Image      string
	Specs      map[string]any
}

// Set assigns a trimmed raw value to the named field.
func (it *Item) Set(f Field, v string) {
	v = strings.TrimSpace(v)
	switch f {
	case FieldName:
		it.Name = v
	case FieldVariant:
		it.Variant = v
	case FieldCategory:
		it.Category = v
	case FieldYear:
		it.Year = v
	case FieldPrice:
		it.Price = v
	case FieldEngine:
		it.Engine = v
	case FieldEngineType:
		it.EngineType = v
	case FieldPower:
		it.Power = v
	case FieldTorque:
		it.Torque = v
	case FieldWeight:
		it.Weight = v
	case FieldImage:
		it.Image = v
	}
}

// FullName joins the model name and its variant.
func (it Item) FullName() string {
	if it.Variant == "" {
		return it.Name
	}
	return it.Name + " " + it.Variant
}

// Strategy locates items in a payload. The set of implementations is closed:
// Table, Cards, JSON and Text.
type Strategy interface {
	Kind() Kind
	Parse(payload []byte) ([]Item, error)
	sealed()
}
