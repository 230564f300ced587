package normalize

import (
	"errors"

	dbtypes "github.com/nitesh/cafe_service/internal/db"
	"github.com/nitesh/cafe_service/internal/places"
	"github.com/nitesh/cafe_service/pkg/models"
)

// ErrMissingLocation is returned for places without coordinates.
var ErrMissingLocation = errors.New("PLACE_MISSING_LOCATION")

// Defaults is the table of values used where the provider supplies nothing.
// The amenity and tag entries are placeholders until the provider exposes
// real attribute data.
type Defaults struct {
	// Hours
	DefaultHours string

	// Price: tier -> range, anything unmapped -> PriceFallback
	PriceTiers    map[int]string
	PriceFallback string

	// Placeholder attributes
	Description          string
	Wifi                 bool
	Seating              bool
	WorkFriendly         bool
	Bathrooms            bool
	PetFriendly          bool
	WheelchairAccessible bool
	Parking              string
	AlternativeMilks     []string
	CoffeeTypes          []string
	DietaryOptions       []string
	Tags                 []string
	CurrentStatus        string
}

// PlaceholderDefaults returns the defaults applied to provider records.
func PlaceholderDefaults() Defaults {
	return Defaults{
		DefaultHours: DefaultTimeRange,
		PriceTiers: map[int]string{
			0: "$",
			1: "$$",
			2: "$$$",
			3: "$$$$",
		},
		PriceFallback:        "$$",
		Description:          "No Information Available",
		Wifi:                 true,
		Seating:              true,
		WorkFriendly:         true,
		Bathrooms:            true,
		PetFriendly:          false,
		WheelchairAccessible: true,
		Parking:              "street",
		AlternativeMilks:     []string{"mocha", "almond"},
		CoffeeTypes:          []string{"espresso", "drip", "pour_over"},
		DietaryOptions:       []string{},
		Tags:                 []string{"coffee", "cafe"},
		CurrentStatus:        "unknown",
	}
}

// Normalizer maps provider places onto canonical cafe records.
type Normalizer struct {
	defaults Defaults
	region   Region
}

func NewNormalizer(defaults Defaults, region Region) *Normalizer {
	return &Normalizer{defaults: defaults, region: region}
}

// Normalize builds a fresh record from p. p must carry a location.
func (n *Normalizer) Normalize(p places.Place) (*models.Cafe, error) {
	if p.Location == nil {
		return nil, ErrMissingLocation
	}
	d := n.defaults

	cafe := &models.Cafe{
		PlaceID:      p.PlaceID,
		Source:       models.SourceProvider,
		Name:         p.Name,
		Description:  d.Description,
		Latitude:     p.Location.Lat,
		Longitude:    p.Location.Lng,
		Phone:        p.Phone,
		Website:      p.Website,
		PriceRange:   n.priceRange(p.PriceLevel),
		Hours:        n.hours(p.WeekdayText),
		ReviewsCount: p.RatingCount,

		Wifi:                 d.Wifi,
		Seating:              d.Seating,
		WorkFriendly:         d.WorkFriendly,
		Bathrooms:            d.Bathrooms,
		PetFriendly:          d.PetFriendly,
		WheelchairAccessible: d.WheelchairAccessible,
		Parking:              d.Parking,
		AlternativeMilks:     clone(d.AlternativeMilks),
		CoffeeTypes:          clone(d.CoffeeTypes),
		DietaryOptions:       clone(d.DietaryOptions),
		Tags:                 clone(d.Tags),
		CurrentStatus:        d.CurrentStatus,

		Claimed:     false,
		ClaimStatus: models.ClaimStatusUnclaimed,
		Verified:    false,
	}
	if p.Rating > 0 {
		cafe.AvgRating = p.Rating
	}

	if addr := ParseAddress(p.FormattedAddress, n.region); addr != (Address{}) {
		cafe.Address = addr.Street
		cafe.City = addr.City
		cafe.State = addr.State
		cafe.ZipCode = addr.PostalCode
	}
	return cafe, nil
}

func (n *Normalizer) priceRange(level *int) string {
	if level != nil {
		if r, ok := n.defaults.PriceTiers[*level]; ok {
			return r
		}
	}
	return n.defaults.PriceFallback
}

// hours parses up to one week of provider lines. Provider lines start on
// Monday; day keys start on Sunday. Days the provider omits stay absent.
// With no lines at all every day gets the default range.
func (n *Normalizer) hours(weekdayText []string) dbtypes.Hours {
	out := dbtypes.Hours{}
	if len(weekdayText) == 0 {
		for day := 0; day < dbtypes.DaysPerWeek; day++ {
			out[day] = n.defaults.DefaultHours
		}
		return out
	}
	for i, line := range weekdayText {
		if i >= dbtypes.DaysPerWeek {
			break
		}
		out[(i+1)%dbtypes.DaysPerWeek] = ParseTimeRange(line)
	}
	return out
}

func clone(in []string) dbtypes.StringSlice {
	out := make(dbtypes.StringSlice, len(in))
	copy(out, in)
	return out
}
