package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Cards reads items from repeated HTML containers, one item per container.
type Cards struct {
	// Container selects the repeating card elements.
	Container string
	// Fields maps a field to a selector inside the card; its text is used.
	// An empty selector reads the card's own text.
	Fields map[Field]string
	// Attrs reads a field from an attribute of the Fields element instead
	// of its text, e.g. {FieldImage: "src"}.
	Attrs map[Field]string
	// Customize runs after the selectors and may fill fields the selectors
	// cannot reach. Returning false skips the card.
	Customize func(card *goquery.Selection, it *Item) bool
}

func (Cards) Kind() Kind { return KindCards }

func (Cards) sealed() {}

// Parse returns one item per container that has a name.
func (c Cards) Parse(payload []byte) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var items []Item
	doc.Find(c.Container).Each(func(_ int, card *goquery.Selection) {
		var it Item
		for field, sel := range c.Fields {
			el := card
			if sel != "" {
				el = card.Find(sel).First()
			}
			if attr, ok := c.Attrs[field]; ok {
				v, _ := el.Attr(attr)
				it.Set(field, v)
				continue
			}
			it.Set(field, el.Text())
		}
		if c.Customize != nil && !c.Customize(card, &it) {
			return
		}
		if it.Name == "" {
			return
		}
		items = append(items, it)
	})

	return items, nil
}

// HiddenInputValues returns the value attributes of a card's hidden inputs
// in document order.
func HiddenInputValues(card *goquery.Selection) []string {
	var values []string
	card.Find(`input[type="hidden"]`).Each(func(_ int, in *goquery.Selection) {
		v, _ := in.Attr("value")
		values = append(values, v)
	})
	return values
}
