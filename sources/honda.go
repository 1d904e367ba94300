package sources

import (
	"regexp"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

// The Honda catalog is built client-side, so it is read from a rendered page.
const hondaCatalogURL = "https://www.honda.com.tr/motorsiklet"

var (
	hondaNameRegex  = regexp.MustCompile(`(?i)(CB\s*\d+[A-Z]*|CBR\s*\d+[A-Z]*|CRF\s*\d+[A-Z]*|NC\s*\d+[A-Z]*|X-ADV|PCX|Forza)`)
	hondaPriceRegex = regexp.MustCompile(`(?i)([\d.]+(?:,\d{2})?)\s*(?:TL|₺)`)
)

var hondaCategories = normalize.RuleTable{
	{Contains: []string{"CBR"}, Category: core.CategorySport},
	{Contains: []string{"CB"}, Category: core.CategoryNaked},
	{Contains: []string{"CRF"}, Category: core.CategoryOffRoad},
	{Contains: []string{"NC"}, Category: core.CategoryAdventure},
	{Contains: []string{"X-ADV"}, Category: core.CategoryAdventure},
	{Contains: []string{"PCX", "FORZA"}, Category: core.CategoryScooter},
}

var hondaEngine = normalize.EngineRule{
	Pattern: regexp.MustCompile(`\b(\d{2,4})\b`),
}

func init() {
	normalize.RegisterCategoryRules("Honda", hondaCategories)
}

func hondaProfile() extract.Profile {
	return extract.Profile{
		Brand:        "Honda",
		Engine:       hondaEngine,
		Fallback:     hondaFallback,
		FallbackYear: fallbackYear,
	}
}

func hondaDefinition() Definition {
	return Definition{
		Name:        "honda",
		Brand:       "Honda",
		Kind:        extract.KindText,
		URL:         hondaCatalogURL,
		Description: "Honda Türkiye motorcycle catalog (rendered)",
		Default:     true,
		build: func(d Deps, cfg extract.Config) (*extract.Source, error) {
			text := extract.Text{
				HTML:  true,
				Name:  hondaNameRegex,
				Price: hondaPriceRegex,
			}
			acq := extract.Rendered{Renderer: d.Renderer, UserAgent: d.UserAgent}
			return extract.NewSource(cfg, acq, text, hondaProfile(), sourceOptions(d)...)
		},
	}
}
