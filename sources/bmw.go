package sources

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

const (
	bmwPriceListURL = "https://www.borusanotomotiv.com/motorrad/stage2/fiyatlistesi/default.aspx"
	bmwReferer      = "https://www.bmw-motorrad.com.tr/tr/fiyat-listesi.html"
)

// bmwCategories is checked in order against the upper-cased model name.
var bmwCategories = normalize.RuleTable{
	{Contains: []string{"RR"}, Category: core.CategorySport},
	{Contains: []string{"GS"}, Category: core.CategoryAdventure},
	{Contains: []string{"RT"}, Category: core.CategoryTouring},
	{Contains: []string{"R "}, Category: core.CategoryNaked},
	{Contains: []string{"S "}, Category: core.CategorySport},
	{Contains: []string{"F "}, Category: core.CategoryAdventure},
	{Contains: []string{"G "}, Category: core.CategoryNaked},
	{Contains: []string{"K "}, Category: core.CategorySport},
	{Contains: []string{"C "}, Category: core.CategoryScooter},
	{Contains: []string{"M "}, Category: core.CategorySport},
}

// bmwEngine maps the number in a model name to the documented displacement.
var bmwEngine = normalize.EngineRule{
	Pattern: regexp.MustCompile(`\b(\d{3,4})\b`),
	Corrections: map[int]int{
		310:  313,
		850:  895,
		900:  895,
		1000: 999,
		1250: 1254,
		1300: 1254,
	},
}

func init() {
	normalize.RegisterCategoryRules("BMW", bmwCategories)
}

var nonDigitRegex = regexp.MustCompile(`\D`)

// bmwPriceInput is the index of the hidden input holding the maximum retail
// price ("Azami Satış Fiyatı") in each price row.
const bmwPriceInput = 4

func bmwProfile() extract.Profile {
	return extract.Profile{
		Brand:        "BMW",
		Engine:       bmwEngine,
		Fallback:     bmwFallback,
		FallbackYear: fallbackYear,
	}
}

func bmwDefinition() Definition {
	return Definition{
		Name:        "bmw",
		Brand:       "BMW",
		Kind:        extract.KindCards,
		URL:         bmwPriceListURL,
		Description: "BMW Motorrad Türkiye price list (Borusan)",
		Default:     true,
		build: func(d Deps, cfg extract.Config) (*extract.Source, error) {
			cfg.Headers = map[string]string{"Referer": bmwReferer}
			cards := extract.Cards{
				Container: "div.price",
				Fields: map[extract.Field]string{
					extract.FieldName:    ".col1_1",
					extract.FieldVariant: ".col1_2",
					extract.FieldYear:    ".col8",
				},
				Customize: bmwPrice,
			}
			return extract.NewSource(cfg, extract.HTTP{Fetcher: d.Fetcher}, cards, bmwProfile(), sourceOptions(d)...)
		},
	}
}

// bmwPrice reads the price from the row's hidden inputs, which carry the
// plain numeric values behind the formatted cells.
func bmwPrice(card *goquery.Selection, it *extract.Item) bool {
	values := extract.HiddenInputValues(card)
	if len(values) <= bmwPriceInput || values[bmwPriceInput] == "" {
		return false
	}
	it.Price = nonDigitRegex.ReplaceAllString(values[bmwPriceInput], "")
	return it.Price != ""
}
