package normalize

import "strings"

// Region holds the address defaults for the one region the directory serves.
type Region struct {
	City       string
	State      string
	PostalCode string
}

// DefaultRegion is the region used when none is configured.
var DefaultRegion = Region{City: "Atlanta", State: "GA", PostalCode: "30301"}

// Address is the street/city/state/zip split of a provider address.
// Empty fields were not set by the parser.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
}

// ParseAddress splits a formatted address on commas. The first part is the
// street; a multi-word second part becomes the city verbatim (state and zip
// included). State and postal code always come from region: provider
// formatting is too irregular to extract them reliably.
func ParseAddress(formatted string, region Region) Address {
	if formatted == "" {
		return Address{}
	}

	parts := strings.Split(formatted, ",")
	if len(parts) < 2 {
		return Address{
			Street:     formatted,
			City:       region.City,
			State:      region.State,
			PostalCode: region.PostalCode,
		}
	}

	addr := Address{Street: strings.TrimSpace(parts[0])}
	cityState := strings.TrimSpace(parts[1])
	if len(strings.Fields(cityState)) >= 2 {
		addr.City = cityState
		addr.State = region.State
		addr.PostalCode = region.PostalCode
	}
	return addr
}
