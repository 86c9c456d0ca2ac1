// Package property holds the canonical entities and normalized filter
// criteria for the hybrid retrieval engine: Property snapshots, the
// SearchCriteria the agent's tools validate untrusted LLM JSON into, and the
// interval-overlap predicate that lets listing and project records share one
// filter-evaluation path.
package property

// SourceKind distinguishes a single unit listing from a multi-unit project.
type SourceKind string

const (
	SourceListing SourceKind = "listing"
	SourceProject SourceKind = "project"
)

type PropertyType string

const (
	TypeHouse      PropertyType = "house"
	TypeShophouse  PropertyType = "shophouse"
	TypeLand       PropertyType = "land"
	TypeApartment  PropertyType = "apartment"
	TypeWarehouse  PropertyType = "warehouse"
	TypeOffice     PropertyType = "office"
	TypeVilla      PropertyType = "villa"
)

type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusRented   Status = "rented"
	StatusInactive Status = "inactive"
)

// NumericRange is a closed interval [Min, Max]. Listing records always have
// Min == Max; project records may carry a genuine range (e.g. 2-4 bedrooms
// across available units). Representing both uniformly collapses the
// listing/project branching everywhere a numeric filter is evaluated.
type NumericRange struct {
	Min float64
	Max float64
}

// Single reports whether the range collapses to one value, the listing case.
func (r NumericRange) Single() bool { return r.Min == r.Max }

// Overlaps reports whether r and other share at least one point, used to
// test e.g. bedrooms_min=3 against a project's bedrooms_available range.
func (r NumericRange) Overlaps(other NumericRange) bool {
	return r.Min <= other.Max && other.Min <= r.Max
}

// OverlapsAtLeast reports whether r intersects [min, +inf).
func (r NumericRange) OverlapsAtLeast(min float64) bool {
	return r.Max >= min
}

// OverlapsAtMost reports whether r intersects (-inf, max].
func (r NumericRange) OverlapsAtMost(max float64) bool {
	return r.Min <= max
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// Property is an immutable snapshot of one listing or project.
type Property struct {
	SourceKind SourceKind
	ID         string
	Slug       string

	PropertyType PropertyType
	ListingType  ListingType
	Status       Status

	Price         NumericRange // integer IDR, represented as float64 for range math
	Bedrooms      NumericRange
	Bathrooms     NumericRange
	Floors        NumericRange
	LandArea      NumericRange
	BuildingArea  NumericRange

	City        string
	District    string
	Area        string
	Address     string
	ComplexName string
	Facing      string
	Coords      *LatLng

	Title           string
	Description     string
	AdditionalInfo  string
	Features        []string
	Amenities       []string
	CertificateType string
	Developer       string
}

// InComplex reports whether the property belongs to a named complex.
func (p Property) InComplex() bool { return p.ComplexName != "" }

// LocationText concatenates the fields a keyword-containment check scans,
// mirroring the original constraint checker's combined-text approach.
func (p Property) LocationText() string {
	return p.Area + " " + p.District + " " + p.City + " " + p.Address + " " + p.ComplexName + " " + p.Title
}
