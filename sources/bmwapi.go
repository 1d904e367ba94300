package sources

import (
	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
	"github.com/gaurav-prasanna/motopipe/core/normalize"
)

const (
	bmwSiteURL  = "https://www.bmw-motorrad.com.tr"
	bmwJSONPath = "/tr/json/vdm-odm.json.html"
	bmwGCDMPath = "/gcdm-api/9b5c73fb"
)

// bmwAPILabels maps the product feed's category names.
var bmwAPILabels = normalize.RuleTable{
	{Contains: []string{"ROADSTER"}, Category: core.CategoryNaked},
	{Contains: []string{"SPORT"}, Category: core.CategorySport},
	{Contains: []string{"HERITAGE"}, Category: core.CategoryRetro},
	{Contains: []string{"TOUR"}, Category: core.CategoryTouring},
	{Contains: []string{"ADVENTURE"}, Category: core.CategoryAdventure},
	{Contains: []string{"URBAN MOBILITY"}, Category: core.CategoryScooter},
}

var bmwFeed = extract.JSON{
	Items: []string{"@this", "products", "motorcycles", "data"},
	Fields: map[extract.Field][]string{
		extract.FieldName:     {"modelName", "title", "name"},
		extract.FieldCategory: {"category", "type"},
		extract.FieldYear:     {"modelYear"},
		extract.FieldPrice:    {"price", "listPrice"},
		extract.FieldEngine:   {"displacement", "engineCapacity"},
		extract.FieldPower:    {"power", "hp"},
		extract.FieldImage:    {"imageUrl", "thumbnail"},
	},
}

func bmwAPIDefinition() Definition {
	return Definition{
		Name:        "bmw-api",
		Brand:       "BMW",
		Kind:        extract.KindJSON,
		URL:         bmwSiteURL + bmwJSONPath,
		Description: "BMW Motorrad product feed (JSON)",
		build: func(d Deps, cfg extract.Config) (*extract.Source, error) {
			cfg.Alternates = []string{bmwSiteURL + bmwGCDMPath}
			cfg.Headers = map[string]string{"Accept": "application/json"}
			profile := bmwProfile()
			profile.Labels = bmwAPILabels
			return extract.NewSource(cfg, extract.HTTP{Fetcher: d.Fetcher}, bmwFeed, profile, sourceOptions(d)...)
		},
	}
}
