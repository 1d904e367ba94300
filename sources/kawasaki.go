package sources

import (
	"regexp"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

const kawasakiPriceListURL = "https://www.kawasaki.com.tr/Home/FiyatListesi"

// kawasakiLabels maps the category column of the price list.
var kawasakiLabels = normalize.RuleTable{
	{Contains: []string{"SUPERSPORT", "SPORT"}, Category: core.CategorySport},
	{Contains: []string{"NAKED"}, Category: core.CategoryNaked},
	{Contains: []string{"TOURING"}, Category: core.CategoryTouring},
	{Contains: []string{"ADVENTURE"}, Category: core.CategoryAdventure},
	{Contains: []string{"CRUISER"}, Category: core.CategoryCruiser},
	{Contains: []string{"OFF", "ENDURO"}, Category: core.CategoryOffRoad},
	{Contains: []string{"HYBRID"}, Category: core.CategoryHybrid},
}

// kawasakiCategories guesses from the model name when the column is empty.
var kawasakiCategories = normalize.RuleTable{
	{Contains: []string{"NINJA"}, Category: core.CategorySport},
	{Contains: []string{"Z "}, Prefix: []string{"Z"}, Category: core.CategoryNaked},
	{Contains: []string{"VERSYS"}, Category: core.CategoryAdventure},
	{Contains: []string{"W "}, Category: core.CategoryRetro},
	{Contains: []string{"VULCAN"}, Category: core.CategoryCruiser},
	{Contains: []string{"KLX", "KX"}, Category: core.CategoryOffRoad},
	{Contains: []string{"HYBRID"}, Category: core.CategoryHybrid},
}

var kawasakiEngine = normalize.EngineRule{
	Pattern: regexp.MustCompile(`\b(\d{3,4})\b`),
}

func init() {
	normalize.RegisterCategoryRules("Kawasaki", kawasakiCategories)
}

func kawasakiProfile() extract.Profile {
	return extract.Profile{
		Brand:        "Kawasaki",
		Labels:       kawasakiLabels,
		Engine:       kawasakiEngine,
		Fallback:     kawasakiFallback,
		FallbackYear: fallbackYear,
	}
}

func kawasakiDefinition() Definition {
	return Definition{
		Name:        "kawasaki",
		Brand:       "Kawasaki",
		Kind:        extract.KindTable,
		URL:         kawasakiPriceListURL,
		Description: "Kawasaki Türkiye price list",
		Default:     true,
		build: func(d Deps, cfg extract.Config) (*extract.Source, error) {
			table := extract.Table{
				Rows:  "table tr",
				Inner: "h6",
				Columns: map[extract.Field]int{
					extract.FieldName:     0,
					extract.FieldCategory: 1,
					extract.FieldPrice:    2,
				},
				PricePattern: priceWithLiraRegex,
			}
			return extract.NewSource(cfg, extract.HTTP{Fetcher: d.Fetcher}, table, kawasakiProfile(), sourceOptions(d)...)
		},
	}
}
