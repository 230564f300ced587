package models

import (
	"time"

	dbtypes "github.com/nitesh/cafe_service/internal/db"
)

// Record sources.
const (
	SourceProvider = "provider"
	SourceFallback = "fallback"
)

// ClaimStatusUnclaimed is the claim status every imported cafe starts with.
const ClaimStatusUnclaimed = "UNCLAIMED"

// Cafe is the canonical directory record for a coffee shop.
type Cafe struct {
	ID          string `db:"id" json:"id"`
	PlaceID     string `db:"place_id" json:"place_id,omitempty"`
	Source      string `db:"source" json:"source"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	Address string `db:"address" json:"address"`
	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
	ZipCode string `db:"zip_code" json:"zip_code"`

	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`

	Phone      string        `db:"phone" json:"phone"`
	Website    string        `db:"website" json:"website"`
	PriceRange string        `db:"price_range" json:"price_range"`
	Hours      dbtypes.Hours `db:"hours" json:"hours"`

	Wifi                 bool   `db:"wifi" json:"wifi"`
	Seating              bool   `db:"seating" json:"seating"`
	WorkFriendly         bool   `db:"work_friendly" json:"work_friendly"`
	Bathrooms            bool   `db:"bathrooms" json:"bathrooms"`
	PetFriendly          bool   `db:"pet_friendly" json:"pet_friendly"`
	WheelchairAccessible bool   `db:"wheelchair_accessible" json:"wheelchair_accessible"`
	Parking              string `db:"parking" json:"parking"`

	AlternativeMilks dbtypes.StringSlice `db:"alternative_milks" json:"alternative_milks"`
	CoffeeTypes      dbtypes.StringSlice `db:"coffee_types" json:"coffee_types"`
	DietaryOptions   dbtypes.StringSlice `db:"dietary_options" json:"dietary_options"`
	Tags             dbtypes.StringSlice `db:"tags" json:"tags"`

	AvgRating       float64 `db:"avg_rating" json:"avg_rating"`
	ReviewsCount    int     `db:"reviews_count" json:"reviews_count"`
	AvgCoffeeRating float64 `db:"avg_coffee_rating" json:"avg_coffee_rating"`
	AvgTasteRating  float64 `db:"avg_taste_rating" json:"avg_taste_rating"`
	CurrentStatus   string  `db:"current_status" json:"current_status"`

	Claimed     bool   `db:"claimed" json:"claimed"`
	ClaimStatus string `db:"claim_status" json:"claim_status"`
	Verified    bool   `db:"verified" json:"verified"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// DistanceKm is set at runtime by the Nearby query (not persisted).
	DistanceKm float64 `db:"distance_km" json:"distance_km,omitempty"`
}
