package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

// Default line patterns for price lists exported as plain text.
var (
	DefaultTextName   = regexp.MustCompile(`^([A-Z][A-Z0-9\-\s]+)`)
	DefaultTextPrice  = regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})?)\s*(?:TL|₺)`)
	DefaultTextEngine = regexp.MustCompile(`(?i)(\d+)\s*c?c`)
	DefaultTextPower  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hp|ps|bhp|kw)`)
)

// Text scans line-oriented text. A line matching Name closes the item in
// progress and opens a new one; the other patterns fill the open item from
// the rest of that line and the lines that follow.
type Text struct {
	// HTML converts the payload from a rendered page to text first.
	HTML bool

	Name   *regexp.Regexp
	Price  *regexp.Regexp
	Engine *regexp.Regexp
	Power  *regexp.Regexp
}

func (Text) Kind() Kind { return KindText }

func (Text) sealed() {}

// Parse returns the items in line order.
func (t Text) Parse(payload []byte) ([]Item, error) {
	text := string(payload)
	if t.HTML {
		var err error
		text, err = normalize.TextFromHTML(text)
		if err != nil {
			return nil, fmt.Errorf("reading rendered page: %w", err)
		}
	}

	name := orDefault(t.Name, DefaultTextName)
	fields := []struct {
		field Field
		re    *regexp.Regexp
	}{
		{FieldPrice, orDefault(t.Price, DefaultTextPrice)},
		{FieldEngine, orDefault(t.Engine, DefaultTextEngine)},
		{FieldPower, orDefault(t.Power, DefaultTextPower)},
	}

	var items []Item
	var current *Item
	flush := func() {
		if current != nil && current.Name != "" {
			items = append(items, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rest := line
		if loc := name.FindStringSubmatchIndex(line); loc != nil {
			flush()
			start, end := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			// A greedy name pattern can run into a figure on the same line
			// ("XMAX 300 1.250.000 TL"). The name stops where the first
			// field match begins and the figure stays in rest.
			restFrom := loc[1]
			for _, f := range fields {
				if cut := firstMatchAfter(f.re, line, start); cut > start && cut < end {
					end, restFrom = cut, cut
				}
			}
			current = &Item{Name: normalize.CollapseSpace(line[start:end])}
			rest = line[:loc[0]] + " " + line[restFrom:]
		}
		if current == nil {
			continue
		}

		for _, f := range fields {
			if m := f.re.FindString(rest); m != "" && fieldEmpty(current, f.field) {
				current.Set(f.field, m)
			}
		}
	}
	flush()

	return items, nil
}

// firstMatchAfter returns the index of the leftmost match of re in line
// that begins after from, or -1.
func firstMatchAfter(re *regexp.Regexp, line string, from int) int {
	for _, m := range re.FindAllStringIndex(line, -1) {
		if m[0] > from {
			return m[0]
		}
	}
	return -1
}

func orDefault(re, def *regexp.Regexp) *regexp.Regexp {
	if re != nil {
		return re
	}
	return def
}

func fieldEmpty(it *Item, f Field) bool {
	switch f {
	case FieldPrice:
		return it.Price == ""
	case FieldEngine:
		return it.Engine == ""
	case FieldPower:
		return it.Power == ""
	}
	return true
}
