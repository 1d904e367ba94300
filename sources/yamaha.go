package sources

import (
	"regexp"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

const yamahaPriceListURL = "https://tr-yamaha-motor.com/fiyat-listesi/road-price-list.html"

var yamahaCategories = normalize.RuleTable{
	{Contains: []string{"YZF-R", "YZFR"}, Category: core.CategorySport},
	{Contains: []string{"MT-", "MT "}, Category: core.CategoryNaked},
	{Contains: []string{"XSR"}, Category: core.CategoryRetro},
	{Contains: []string{"TRACER"}, Category: core.CategoryAdventure},
	{Contains: []string{"TÉNÉRÉ", "TENERE"}, Category: core.CategoryAdventure},
	{Contains: []string{"NMAX", "XMAX", "TMAX"}, Category: core.CategoryScooter},
	{Contains: []string{"FJR"}, Category: core.CategoryTouring},
}

// Model codes such as "MT-07" carry the displacement in hundreds.
var yamahaEngine = normalize.EngineRule{
	Pattern:        regexp.MustCompile(`[-\s]?(\d{2,4})`),
	ModelCodeBelow: 100,
	ModelCodeScale: 100,
}

var yamahaNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(EU5\+?\)`),
	regexp.MustCompile(`(?i)\(Y-AMT\)`),
}

// priceWithLiraRegex reads "711.000 ₺" style price cells.
var priceWithLiraRegex = regexp.MustCompile(`([\d.]+)\s*₺`)

func init() {
	normalize.RegisterCategoryRules("Yamaha", yamahaCategories)
}

func yamahaProfile() extract.Profile {
	return extract.Profile{
		Brand:        "Yamaha",
		Noise:        yamahaNoise,
		Engine:       yamahaEngine,
		Fallback:     yamahaFallback,
		FallbackYear: fallbackYear,
	}
}

func yamahaDefinition() Definition {
	return Definition{
		Name:        "yamaha",
		Brand:       "Yamaha",
		Kind:        extract.KindTable,
		URL:         yamahaPriceListURL,
		Description: "Yamaha Türkiye road price list",
		Default:     true,
		build: func(d Deps, cfg extract.Config) (*extract.Source, error) {
			table := extract.Table{
				Rows: "table tr",
				Columns: map[extract.Field]int{
					extract.FieldName:  0,
					extract.FieldYear:  1,
					extract.FieldPrice: 2,
				},
				PricePattern: priceWithLiraRegex,
			}
			return extract.NewSource(cfg, extract.HTTP{Fetcher: d.Fetcher}, table, yamahaProfile(), sourceOptions(d)...)
		},
	}
}
