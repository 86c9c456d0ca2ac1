package property

import "github.com/ripinlibinus/rag-property-assistant/internal/apperr"

// TriState models an optional boolean: unset, true, or false.
type TriState int

const (
	Unset TriState = iota
	True
	False
)

// SearchCriteria is the normalized, non-ambiguous filter the retrieval
// engine consumes. Every field is independently optional; the numeric and
// enum filters are pointers, so nil means "unconstrained" while a pointer
// to zero is a legitimate filter value (e.g. PriceMax=0).
type SearchCriteria struct {
	Query string

	PropertyType *PropertyType
	ListingType  *ListingType
	SourceKind   *SourceKind

	PriceMin *int64
	PriceMax *int64

	BedroomsMin *int
	BedroomsMax *int
	BathroomsMin *int
	BathroomsMax *int
	FloorsMin   *int
	FloorsMax   *int

	MinLandArea     *float64
	MinBuildingArea *float64

	LocationKeyword string

	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64

	InComplex TriState

	Facing    string
	Amenities []string

	Page  int
	Limit int
}

// DefaultLimit and MaxLimit bound pagination per spec §3.
const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// Normalize applies defaulting and bound-clamping rules and validates the
// geo triplet. It is the single place raw/LLM-extracted criteria become
// safe to execute.
func (c *SearchCriteria) Normalize() error {
	if c.Page <= 0 {
		c.Page = 1
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Limit > MaxLimit {
		c.Limit = MaxLimit
	}

	geoFields := 0
	if c.Latitude != nil {
		geoFields++
	}
	if c.Longitude != nil {
		geoFields++
	}
	if c.RadiusKm != nil {
		geoFields++
	}
	if geoFields != 0 && geoFields != 3 {
		return apperr.New(apperr.KindBadRequest, "latitude, longitude, radius_km must be supplied together")
	}
	return nil
}

// RequiresQuery reports whether c carries a non-empty Query, used by the
// retriever to fail VECTOR_ONLY fast per spec §4.5 when it does not.
func (c SearchCriteria) RequiresQuery() bool { return c.Query != "" }
