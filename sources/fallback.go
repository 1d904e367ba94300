package sources

import "github.com/gaurav-prasanna/motopipe/core"

// fallbackYear is the model year of the sample catalogs.
const fallbackYear = 2024

func sample(name string, category core.Category, price float64, cc int, hp float64) core.Record {
	return core.Record{
		Name:           name,
		Category:       category,
		Year:           fallbackYear,
		Price:          price,
		EngineCapacity: core.Ptr(cc),
		Power:          core.Ptr(hp),
	}
}

var bmwFallback = []core.Record{
	sample("G 310 R", core.CategoryNaked, 245000, 313, 34),
	sample("G 310 GS", core.CategoryAdventure, 258000, 313, 34),
	sample("F 900 R", core.CategoryNaked, 485000, 895, 105),
	sample("F 900 XR", core.CategoryAdventure, 525000, 895, 105),
	sample("S 1000 R", core.CategoryNaked, 765000, 999, 165),
	sample("S 1000 RR", core.CategorySport, 895000, 999, 207),
	sample("S 1000 XR", core.CategoryAdventure, 825000, 999, 165),
	sample("R 1250 GS", core.CategoryAdventure, 925000, 1254, 136),
	sample("R 1250 GS Adventure", core.CategoryAdventure, 1050000, 1254, 136),
	sample("R 1250 RT", core.CategoryTouring, 975000, 1254, 136),
}

var yamahaFallback = []core.Record{
	sample("MT-07", core.CategoryNaked, 289000, 689, 73),
	sample("MT-09", core.CategoryNaked, 385000, 890, 117),
	sample("YZF-R7", core.CategorySport, 325000, 689, 73),
	sample("XSR 900", core.CategoryRetro, 425000, 890, 117),
	sample("Tracer 9", core.CategoryAdventure, 465000, 890, 117),
}

var kawasakiFallback = []core.Record{
	sample("Ninja 650", core.CategorySport, 295000, 649, 68),
	sample("Z 900", core.CategoryNaked, 425000, 948, 125),
}

var hondaFallback = []core.Record{
	sample("CB 500X", core.CategoryAdventure, 275000, 471, 47),
	sample("CBR 650R", core.CategorySport, 385000, 649, 95),
	sample("CRF 1100L Africa Twin", core.CategoryAdventure, 575000, 1084, 102),
}
