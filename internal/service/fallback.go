package service

import (
	dbtypes "github.com/nitesh/cafe_service/internal/db"
	"github.com/nitesh/cafe_service/internal/normalize"
	"github.com/nitesh/cafe_service/pkg/models"
)

type fallbackCafe struct {
	name, address, zip string
	lat, lng           float64
	description        string
	petFriendly        bool
	workFriendly       bool
	parking            string
	milks, coffee      []string
	dietary, tags      []string
}

// Atlanta cafes used when the provider cannot seed an empty directory.
var fallbackCafes = []fallbackCafe{
	{"BRASH Coffee", "540 W Marietta St NW", "30318", 33.7731, -84.4044,
		"Minimalist roastery focused on direct trade and small-batch coffee",
		false, true, "paid_lot",
		[]string{"oat", "almond", "soy"}, []string{"espresso", "pour_over", "drip"},
		[]string{"vegan"}, []string{"minimalist", "direct_trade", "roastery"}},
	{"Chrome Yellow Trading Co.", "489 Edgewood Ave SE", "30312", 33.7536, -84.3621,
		"Neighborhood coffee shop known for seasonal lattes",
		true, true, "street",
		[]string{"oat", "almond", "soy"}, []string{"espresso", "drip", "seasonal_specials"},
		[]string{"vegan", "gluten_free"}, []string{"community", "edgewood", "seasonal"}},
	{"Momo Cafe", "1345 Piedmont Ave NE", "30309", 33.7835, -84.3733,
		"Japanese-inspired Midtown cafe serving matcha lattes and mochi donuts",
		false, true, "paid_garage",
		[]string{"oat", "almond", "soy"}, []string{"matcha", "espresso", "pour_over"},
		[]string{"vegan", "gluten_free"}, []string{"japanese", "midtown", "matcha"}},
	{"Finca to Filter", "652 Boulevard NE", "30308", 33.7659, -84.3631,
		"Old Fourth Ward cafe with a wide range of specialty drinks",
		true, true, "free_street",
		[]string{"oat", "almond", "soy"}, []string{"espresso", "pour_over", "cold_brew"},
		[]string{"vegan", "vegetarian"}, []string{"old_fourth_ward", "specialty", "local"}},
	{"Con Leche", "1261 Caroline St NE", "30307", 33.7589, -84.3475,
		"Reynoldstown cafe pouring local roasters alongside toasts and lattes",
		true, true, "free_street",
		[]string{"oat", "almond", "soy"}, []string{"espresso", "pour_over", "drip"},
		[]string{"vegan", "gluten_free"}, []string{"reynoldstown", "local_roasters", "cozy"}},
	{"Hodgepodge Coffee House", "720 Moreland Ave SE", "30316", 33.7512, -84.3533,
		"Eclectic East Atlanta Village coffee house",
		true, true, "free_street",
		[]string{"almond", "soy"}, []string{"espresso", "drip", "cold_brew"},
		[]string{"vegan"}, []string{"east_atlanta", "eclectic", "community"}},
	{"Taproom Coffee", "1132 Howell Mill Rd NW", "30318", 33.7851, -84.4126,
		"West Midtown shop with an industrial feel and single-origin offerings",
		false, true, "free_lot",
		[]string{"oat", "almond", "soy"}, []string{"single_origin", "espresso", "pour_over"},
		[]string{"vegan"}, []string{"west_midtown", "industrial", "single_origin"}},
	{"Muchacho", "1 Park Pl NE", "30309", 33.7735, -84.3839,
		"Mexican-inspired coffee drinks near Piedmont Park with outdoor seating",
		true, true, "paid_garage",
		[]string{"oat", "almond", "horchata"}, []string{"espresso", "mexican_coffee", "cold_brew"},
		[]string{"vegan", "gluten_free"}, []string{"piedmont_park", "outdoor", "relaxed"}},
	{"Condesa Coffee", "469 Flat Shoals Ave SE", "30316", 33.7462, -84.3484,
		"East Atlanta breakfast spot with a curated coffee list",
		false, false, "street",
		[]string{"oat", "almond", "soy"}, []string{"espresso", "drip", "pour_over"},
		[]string{"vegetarian"}, []string{"east_atlanta", "breakfast", "curated"}},
	{"Docent Coffee", "355 Moreland Ave NE", "30307", 33.7628, -84.3518,
		"Little Five Points cafe with art-filled walls",
		true, true, "street",
		[]string{"oat", "almond", "soy"}, []string{"espresso", "pour_over", "drip"},
		[]string{"vegan", "vegetarian"}, []string{"little_five_points", "art"}},
}

// FallbackCafes returns fresh copies of the built-in cafes, each with a
// full week of default hours.
func FallbackCafes() []*models.Cafe {
	out := make([]*models.Cafe, 0, len(fallbackCafes))
	for _, f := range fallbackCafes {
		hours := make(dbtypes.Hours, dbtypes.DaysPerWeek)
		for day := 0; day < dbtypes.DaysPerWeek; day++ {
			hours[day] = normalize.DefaultTimeRange
		}
		out = append(out, &models.Cafe{
			Source:               models.SourceFallback,
			Name:                 f.name,
			Description:          f.description,
			Address:              f.address,
			City:                 "Atlanta",
			State:                "GA",
			ZipCode:              f.zip,
			Latitude:             f.lat,
			Longitude:            f.lng,
			PriceRange:           "$$",
			Hours:                hours,
			Wifi:                 true,
			Seating:              true,
			WorkFriendly:         f.workFriendly,
			Bathrooms:            true,
			PetFriendly:          f.petFriendly,
			WheelchairAccessible: true,
			Parking:              f.parking,
			AlternativeMilks:     append(dbtypes.StringSlice{}, f.milks...),
			CoffeeTypes:          append(dbtypes.StringSlice{}, f.coffee...),
			DietaryOptions:       append(dbtypes.StringSlice{}, f.dietary...),
			Tags:                 append(dbtypes.StringSlice{}, f.tags...),
			CurrentStatus:        "unknown",
			ClaimStatus:          models.ClaimStatusUnclaimed,
		})
	}
	return out
}
