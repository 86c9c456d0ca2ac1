package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

// earthRadiusKm is the sphere radius used by the Haversine formula.
const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two points in
// kilometers, ported from constraint_checker.py's haversine_distance.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

var propertyTypeNormalize = map[string]string{
	"rumah":     "house",
	"house":     "house",
	"apartment": "apartment",
	"apartemen": "apartment",
	"ruko":      "ruko",
	"shophouse": "ruko",
	"tanah":     "land",
	"land":      "land",
	"gudang":    "warehouse",
	"warehouse": "warehouse",
	"kantor":    "office",
	"office":    "office",
}

var listingTypeNormalize = map[string]string{
	"dijual": "sale",
	"sale":   "sale",
	"jual":   "sale",
	"disewa": "rent",
	"rent":   "rent",
	"sewa":   "rent",
}

func normalizeVia(table map[string]string, value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	if mapped, ok := table[v]; ok {
		return mapped
	}
	return v
}

// Checker evaluates gold-question constraints against properties. It owns
// no state beyond a configurable default price tolerance, mirroring
// ConstraintChecker.__init__'s single knob.
type Checker struct {
	DefaultPriceTolerance float64
}

func NewChecker(defaultPriceTolerance float64) *Checker {
	return &Checker{DefaultPriceTolerance: defaultPriceTolerance}
}

func (c *Checker) checkPropertyType(actual string, expected string, expectedSet bool) ConstraintResult {
	if !expectedSet || expected == "" {
		return ResultNA
	}
	if actual == "" {
		return ResultMissing
	}
	if normalizeVia(propertyTypeNormalize, actual) == normalizeVia(propertyTypeNormalize, expected) {
		return ResultPass
	}
	return ResultFail
}

func (c *Checker) checkListingType(actual string, expected string, expectedSet bool) ConstraintResult {
	if !expectedSet || expected == "" {
		return ResultNA
	}
	if actual == "" {
		return ResultMissing
	}
	if normalizeVia(listingTypeNormalize, actual) == normalizeVia(listingTypeNormalize, expected) {
		return ResultPass
	}
	return ResultFail
}

// locationCheckOutcome carries the extra diagnostic fields the original
// location checker returns alongside the verdict.
type locationCheckOutcome struct {
	Result         ConstraintResult
	MatchedKeyword string
	DistanceKm     *float64
	FailureReason  string
}

func (c *Checker) checkLocation(combinedText string, coords *property.LatLng, constraint *LocationConstraint) locationCheckOutcome {
	if constraint == nil {
		return locationCheckOutcome{Result: ResultNA}
	}

	lower := strings.ToLower(strings.TrimSpace(combinedText))
	if lower != "" {
		for _, kw := range constraint.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				k := kw
				return locationCheckOutcome{Result: ResultPass, MatchedKeyword: k}
			}
		}
	}

	if coords != nil && constraint.Lat != nil && constraint.Lng != nil {
		dist := haversineKm(coords.Lat, coords.Lng, *constraint.Lat, *constraint.Lng)
		radius := 0.0
		if constraint.RadiusKm != nil {
			radius = *constraint.RadiusKm
		}
		if dist <= radius {
			d := dist
			return locationCheckOutcome{Result: ResultPass, DistanceKm: &d}
		}
		d := dist
		reason := fmt.Sprintf("Geo distance %.1fkm > radius %.1fkm. Keywords %v not found in: %s", dist, radius, constraint.Keywords, orNA(lower))
		return locationCheckOutcome{Result: ResultFail, DistanceKm: &d, FailureReason: reason}
	}

	if lower == "" && coords == nil {
		return locationCheckOutcome{Result: ResultMissing, FailureReason: "No location data available"}
	}

	reason := fmt.Sprintf("Keywords %v not found in location=%q", constraint.Keywords, combinedText)
	switch {
	case coords == nil:
		reason += ". Property has no coordinates for geo fallback"
	case constraint.Lat == nil || constraint.Lng == nil:
		reason += ". Gold standard has no coordinates for geo fallback"
	}
	return locationCheckOutcome{Result: ResultFail, FailureReason: reason}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// isUnset treats the zero-value range produced when the backend sent no
// field at all (backend.rangeOf never ran) as "missing" data, mirroring
// the original's `actual is None` branch. A genuine zero (e.g. land with
// zero bedrooms) is indistinguishable from "missing" under this
// representation — an accepted simplification of the uniform range model.
func isUnset(r property.NumericRange) bool { return r.Min == 0 && r.Max == 0 }

func (c *Checker) checkPrice(actual property.NumericRange, constraint *PriceConstraint) ConstraintResult {
	if constraint == nil {
		return ResultNA
	}
	if constraint.Min == nil && constraint.Max == nil && constraint.Target == nil {
		return ResultNA
	}
	if isUnset(actual) {
		return ResultMissing
	}

	tolerance := c.DefaultPriceTolerance
	if constraint.Tolerance != nil {
		tolerance = *constraint.Tolerance
	}

	if constraint.Target != nil {
		min := *constraint.Target * (1 - tolerance)
		max := *constraint.Target * (1 + tolerance)
		if actual.Overlaps(property.NumericRange{Min: min, Max: max}) {
			return ResultPass
		}
		return ResultFail
	}

	if constraint.Min != nil {
		minWithTol := *constraint.Min * (1 - tolerance)
		if actual.Max < minWithTol {
			return ResultFail
		}
	}
	if constraint.Max != nil {
		maxWithTol := *constraint.Max * (1 + tolerance)
		if actual.Min > maxWithTol {
			return ResultFail
		}
	}
	return ResultPass
}

func (c *Checker) checkIntRange(actual property.NumericRange, exact, min, max *int) ConstraintResult {
	if min == nil && max == nil && exact == nil {
		return ResultNA
	}
	if isUnset(actual) {
		return ResultMissing
	}
	if exact != nil {
		target := float64(*exact)
		if actual.Min <= target && target <= actual.Max {
			return ResultPass
		}
		return ResultFail
	}
	if min != nil && actual.Max < float64(*min) {
		return ResultFail
	}
	if max != nil && actual.Min > float64(*max) {
		return ResultFail
	}
	return ResultPass
}

func (c *Checker) checkBedrooms(actual property.NumericRange, constraint *BedroomConstraint) ConstraintResult {
	if constraint == nil {
		return ResultNA
	}
	return c.checkIntRange(actual, constraint.Exact, constraint.Min, constraint.Max)
}

func (c *Checker) checkFloors(actual property.NumericRange, constraint *FloorsConstraint) ConstraintResult {
	if constraint == nil {
		return ResultNA
	}
	return c.checkIntRange(actual, constraint.Exact, constraint.Min, constraint.Max)
}

// CheckProperty runs every applicable constraint in q against p and
// returns the aggregated PropertyCheck.
func (c *Checker) CheckProperty(p property.Property, q GoldQuestion) PropertyCheck {
	if q.IsManual() {
		return c.ManualCheck(p)
	}

	cs := q.Constraints
	results := make(map[string]ConstraintResult, 6)

	results["property_type"] = c.checkPropertyType(string(p.PropertyType), cs.PropertyType, cs.PropertyType != "")
	results["listing_type"] = c.checkListingType(string(p.ListingType), cs.ListingType, cs.ListingType != "")

	loc := c.checkLocation(p.LocationText(), p.Coords, cs.Location)
	results["location"] = loc.Result

	results["price"] = c.checkPrice(p.Price, cs.Price)
	results["bedrooms"] = c.checkBedrooms(p.Bedrooms, cs.Bedrooms)
	results["floors"] = c.checkFloors(p.Floors, cs.Floors)

	return PropertyCheck{PropertySlug: p.Slug, Results: results}
}

// ManualCheck produces an all-NA PropertyCheck awaiting a human verdict.
func (c *Checker) ManualCheck(p property.Property) PropertyCheck {
	return PropertyCheck{
		PropertySlug: p.Slug,
		Results: map[string]ConstraintResult{
			"property_type": ResultNA,
			"listing_type":  ResultNA,
			"location":      ResultNA,
			"price":         ResultNA,
			"bedrooms":      ResultNA,
			"floors":        ResultNA,
		},
		IsManualEval: true,
	}
}

// CheckAll runs CheckProperty (or ManualCheck, for manual-mode questions)
// over every result property.
func (c *Checker) CheckAll(properties []property.Property, q GoldQuestion) []PropertyCheck {
	checks := make([]PropertyCheck, 0, len(properties))
	for _, p := range properties {
		if q.IsManual() {
			checks = append(checks, c.ManualCheck(p))
		} else {
			checks = append(checks, c.CheckProperty(p, q))
		}
	}
	return checks
}
