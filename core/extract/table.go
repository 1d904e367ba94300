package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table reads items from HTML table rows, one item per row.
type Table struct {
	// Rows selects the repeating rows, e.g. "table tr".
	Rows string
	// Cell selects the cells of a row. Defaults to "td".
	Cell string
	// Inner, when set, reads each cell's text from this descendant only
	// (e.g. "h6"). Cells without it are treated as empty.
	Inner string
	// Columns maps a field to its zero-based cell index.
	Columns map[Field]int
	// PricePattern, when set, must match the price cell; its first submatch
	// (or the whole match) becomes the raw price. Rows without a match are
	// skipped.
	PricePattern *regexp.Regexp
}

func (Table) Kind() Kind { return KindTable }

func (Table) sealed() {}

// Parse returns one item per row that has a name and, when PricePattern is
// set, a matching price.
func (t Table) Parse(payload []byte) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	cellSel := t.Cell
	if cellSel == "" {
		cellSel = "td"
	}
	need := 0
	for _, idx := range t.Columns {
		if idx+1 > need {
			need = idx + 1
		}
	}

	var items []Item
	doc.Find(t.Rows).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(cellSel)
		if cells.Length() < need {
			return
		}

		var it Item
		for field, idx := range t.Columns {
			cell := cells.Eq(idx)
			if field == FieldImage {
				src, _ := cell.Find("img").First().Attr("src")
				it.Set(field, src)
				continue
			}
			if t.Inner != "" {
				cell = cell.Find(t.Inner).First()
			}
			it.Set(field, cell.Text())
		}

		if t.PricePattern != nil {
			m := t.PricePattern.FindStringSubmatch(it.Price)
			if m == nil {
				return
			}
			it.Price = matchValue(m)
		}
		if it.Name == "" {
			return
		}
		items = append(items, it)
	})

	return items, nil
}

// matchValue returns the first submatch when the pattern has one, else the
// whole match.
func matchValue(m []string) string {
	if len(m) > 1 && m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[0])
}
