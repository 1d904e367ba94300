package sources

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/motopipe/config"
	"github.com/gaurav-prasanna/motopipe/core/extract"
)

var fieldNames = map[string]extract.Field{
	"name":       extract.FieldName,
	"variant":    extract.FieldVariant,
	"category":   extract.FieldCategory,
	"year":       extract.FieldYear,
	"price":      extract.FieldPrice,
	"engine":     extract.FieldEngine,
	"engineType": extract.FieldEngineType,
	"power":      extract.FieldPower,
	"torque":     extract.FieldTorque,
	"weight":     extract.FieldWeight,
	"image":      extract.FieldImage,
}

// defaultJSONFields are the aliases understood by a json source that
// declares no fields of its own.
var defaultJSONFields = map[extract.Field][]string{
	extract.FieldName:       {"name", "model"},
	extract.FieldCategory:   {"category", "type"},
	extract.FieldYear:       {"year"},
	extract.FieldPrice:      {"price", "fiyat"},
	extract.FieldEngine:     {"engine", "motor", "engineCapacity"},
	extract.FieldEngineType: {"engineType", "motorTipi"},
	extract.FieldPower:      {"power", "guc", "hp"},
	extract.FieldTorque:     {"torque", "tork"},
	extract.FieldWeight:     {"weight", "agirlik"},
	extract.FieldImage:      {"image", "imageUrl", "gorsel"},
}

var defaultJSONItems = []string{"@this", "items", "products", "motorcycles", "data"}

// BuildCustom constructs a source declared in configuration.
func BuildCustom(d Deps, c config.CustomSource) (*extract.Source, error) {
	strategy, err := customStrategy(c)
	if err != nil {
		return nil, fmt.Errorf("custom source %s: %w", c.Name, err)
	}

	var acq extract.Acquirer
	switch {
	case c.File != "":
		acq = extract.Buffer{Path: c.File}
	case c.Rendered:
		acq = extract.Rendered{Renderer: d.Renderer, UserAgent: d.UserAgent}
	default:
		acq = extract.HTTP{Fetcher: d.Fetcher}
	}

	cfg := extract.Config{
		Name:     c.Name,
		Brand:    c.Brand,
		URL:      c.URL,
		Headers:  c.Headers,
		Timeout:  d.Timeout,
		MinPrice: d.MinPrice,
	}
	src, err := extract.NewSource(cfg, acq, strategy, extract.Profile{Brand: c.Brand}, sourceOptions(d)...)
	if err != nil {
		return nil, fmt.Errorf("custom source %s: %w", c.Name, err)
	}
	return src, nil
}

func customStrategy(c config.CustomSource) (extract.Strategy, error) {
	switch extract.Kind(c.Kind) {
	case extract.KindJSON:
		s := extract.JSON{
			Items:  c.Items,
			Fields: defaultJSONFields,
			Specs:  []string{"specifications", "ozellikler"},
		}
		if len(s.Items) == 0 {
			s.Items = defaultJSONItems
		}
		if len(c.Fields) > 0 {
			s.Fields = make(map[extract.Field][]string, len(c.Fields))
			for name, aliases := range c.Fields {
				f, err := parseField(name)
				if err != nil {
					return nil, err
				}
				for _, a := range strings.Split(aliases, ",") {
					if a = strings.TrimSpace(a); a != "" {
						s.Fields[f] = append(s.Fields[f], a)
					}
				}
			}
		}
		return s, nil

	case extract.KindCards:
		if c.Selector == "" {
			return nil, errors.New("cards kind needs a selector")
		}
		s := extract.Cards{
			Container: c.Selector,
			Fields:    make(map[extract.Field]string, len(c.Fields)),
			Attrs:     map[extract.Field]string{extract.FieldImage: "src"},
		}
		for name, sel := range c.Fields {
			f, err := parseField(name)
			if err != nil {
				return nil, err
			}
			s.Fields[f] = sel
		}
		return s, nil

	case extract.KindTable:
		if c.Selector == "" {
			return nil, errors.New("table kind needs a row selector")
		}
		s := extract.Table{
			Rows:    c.Selector,
			Columns: make(map[extract.Field]int, len(c.Fields)),
		}
		for name, col := range c.Fields {
			f, err := parseField(name)
			if err != nil {
				return nil, err
			}
			idx, err := strconv.Atoi(strings.TrimSpace(col))
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("column of %s must be a non-negative index, got %q", name, col)
			}
			s.Columns[f] = idx
		}
		return s, nil

	case extract.KindText:
		s := extract.Text{HTML: c.Rendered}
		for name, pattern := range c.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("compiling %s pattern: %w", name, err)
			}
			switch name {
			case "name":
				s.Name = re
			case "price":
				s.Price = re
			case "engine":
				s.Engine = re
			case "power":
				s.Power = re
			default:
				return nil, fmt.Errorf("unknown text pattern %q", name)
			}
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown kind %q", c.Kind)
}

func parseField(name string) (extract.Field, error) {
	f, ok := fieldNames[name]
	if !ok {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return f, nil
}
