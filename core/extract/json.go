package extract

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// JSON reads items from an array inside a JSON document.
type JSON struct {
	// Items are gjson paths tried in order; the first one that resolves to a
	// non-empty array holds the items. "@this" addresses a root array.
	Items []string
	// Fields lists the aliases of each field, tried in order.
	Fields map[Field][]string
	// Specs lists aliases of an object copied into the record's
	// specifications as-is.
	Specs []string
}

func (JSON) Kind() Kind { return KindJSON }

func (JSON) sealed() {}

var errNoJSONArray = errors.New("no item array in JSON document")

// Parse returns one item per array element that has a name.
func (j JSON) Parse(payload []byte) ([]Item, error) {
	if !gjson.ValidBytes(payload) {
		return nil, errors.New("invalid JSON document")
	}

	paths := j.Items
	if len(paths) == 0 {
		paths = []string{"@this"}
	}
	var arr gjson.Result
	for _, p := range paths {
		r := gjson.GetBytes(payload, p)
		if r.IsArray() && len(r.Array()) > 0 {
			arr = r
			break
		}
	}
	if !arr.Exists() {
		return nil, errNoJSONArray
	}

	var items []Item
	arr.ForEach(func(_, el gjson.Result) bool {
		if !el.IsObject() {
			return true
		}
		var it Item
		for field, aliases := range j.Fields {
			if v, ok := firstValue(el, aliases); ok {
				it.Set(field, jsonText(field, v))
			}
		}
		if v, ok := firstValue(el, j.Specs); ok && v.IsObject() {
			if m, ok := v.Value().(map[string]any); ok {
				it.Specs = m
			}
		}
		if it.Name != "" {
			items = append(items, it)
		}
		return true
	})

	return items, nil
}

func firstValue(el gjson.Result, aliases []string) (gjson.Result, bool) {
	for _, a := range aliases {
		v := el.Get(a)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if v.Type == gjson.String && strings.TrimSpace(v.Str) == "" {
			continue
		}
		return v, true
	}
	return gjson.Result{}, false
}

// jsonText renders a JSON value as the raw text the normalizers expect.
// Numbers use a decimal comma so price parsing reads them correctly, and a
// bare power number is taken as horsepower.
func jsonText(field Field, v gjson.Result) string {
	if v.Type != gjson.Number {
		return v.String()
	}
	text := strings.Replace(strconv.FormatFloat(v.Num, 'f', -1, 64), ".", ",", 1)
	if field == FieldPower {
		text += " HP"
	}
	return text
}
