package places

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// StatusOK is the only provider status treated as a successful response.
const StatusOK = "OK"

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one provider search result, flattened. Zero values and nil
// pointers mean the provider did not send the field.
type Place struct {
	PlaceID          string
	Name             string
	FormattedAddress string
	Location         *LatLng
	Rating           float64
	RatingCount      int
	Phone            string
	Website          string
	PriceLevel       *int
	// WeekdayText holds the opening-hours lines, Monday first. Empty when
	// the provider sent no opening-hours block.
	WeekdayText []string
}

// SearchResponse is the result of a text or nearby search.
type SearchResponse struct {
	Status  string
	Results []Place
}

// OK reports whether the response counts as a successful search.
func (r *SearchResponse) OK() bool {
	return r != nil && r.Status == StatusOK && len(r.Results) > 0
}

// GeocodeCandidate is one geocode result.
type GeocodeCandidate struct {
	FormattedAddress string
	Location         *LatLng
}

// GeocodeResponse is the result of a geocode lookup.
type GeocodeResponse struct {
	Status  string
	Results []GeocodeCandidate
}

// wire shapes as sent by the provider

type wireLocation struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type wireGeometry struct {
	Location *wireLocation `json:"location"`
}

type wirePlace struct {
	PlaceID              string        `json:"place_id"`
	Name                 string        `json:"name"`
	FormattedAddress     string        `json:"formatted_address"`
	Geometry             *wireGeometry `json:"geometry"`
	Rating               float64       `json:"rating"`
	UserRatingsTotal     int           `json:"user_ratings_total"`
	FormattedPhoneNumber string        `json:"formatted_phone_number"`
	Website              string        `json:"website"`
	PriceLevel           priceLevel    `json:"price_level"`
	OpeningHours         *struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

type wireSearchResponse struct {
	Status  string      `json:"status"`
	Results []wirePlace `json:"results"`
}

type wireGeocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string        `json:"formatted_address"`
		Geometry         *wireGeometry `json:"geometry"`
	} `json:"results"`
}

// priceLevel accepts the tier as a JSON number or a numeric string.
// Anything else leaves it unset.
type priceLevel struct {
	v *int
}

func (p *priceLevel) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return nil
	}
	p.v = &n
	return nil
}

func (g *wireGeometry) latLng() *LatLng {
	if g == nil || g.Location == nil || g.Location.Lat == nil || g.Location.Lng == nil {
		return nil
	}
	return &LatLng{Lat: *g.Location.Lat, Lng: *g.Location.Lng}
}

func (w wirePlace) flatten() Place {
	p := Place{
		PlaceID:          w.PlaceID,
		Name:             w.Name,
		FormattedAddress: w.FormattedAddress,
		Location:         w.Geometry.latLng(),
		Rating:           w.Rating,
		RatingCount:      w.UserRatingsTotal,
		Phone:            w.FormattedPhoneNumber,
		Website:          w.Website,
		PriceLevel:       w.PriceLevel.v,
	}
	if w.OpeningHours != nil {
		p.WeekdayText = w.OpeningHours.WeekdayText
	}
	return p
}

func (w *wireSearchResponse) flatten() *SearchResponse {
	out := &SearchResponse{
		Status:  w.Status,
		Results: make([]Place, 0, len(w.Results)),
	}
	for _, r := range w.Results {
		out.Results = append(out.Results, r.flatten())
	}
	return out
}

func (w *wireGeocodeResponse) flatten() *GeocodeResponse {
	out := &GeocodeResponse{Status: w.Status}
	for _, r := range w.Results {
		out.Results = append(out.Results, GeocodeCandidate{
			FormattedAddress: r.FormattedAddress,
			Location:         r.Geometry.latLng(),
		})
	}
	return out
}

var _ json.Unmarshaler = (*priceLevel)(nil)
