package evaluator

import (
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func TestCheckPropertyTypeNormalizesIndonesianSynonyms(t *testing.T) {
	c := NewChecker(0)
	result := c.checkPropertyType("rumah", "house", true)
	if result != ResultPass {
		t.Fatalf("expected pass, got %s", result)
	}
}

func TestCheckPropertyTypeMismatchFails(t *testing.T) {
	c := NewChecker(0)
	if got := c.checkPropertyType("apartemen", "house", true); got != ResultFail {
		t.Fatalf("expected fail, got %s", got)
	}
}

func TestCheckPropertyTypeUnspecifiedIsNA(t *testing.T) {
	c := NewChecker(0)
	if got := c.checkPropertyType("house", "", false); got != ResultNA {
		t.Fatalf("expected na, got %s", got)
	}
}

func TestCheckPriceTargetWithinTolerance(t *testing.T) {
	c := NewChecker(0)
	tol := 0.2
	constraint := &PriceConstraint{Target: f64(1_000_000_000), Tolerance: &tol}
	actual := property.NumericRange{Min: 950_000_000, Max: 950_000_000}
	if got := c.checkPrice(actual, constraint); got != ResultPass {
		t.Fatalf("expected pass within 20%% tolerance, got %s", got)
	}
}

func TestCheckPriceTargetOutsideToleranceFails(t *testing.T) {
	c := NewChecker(0)
	tol := 0.2
	constraint := &PriceConstraint{Target: f64(1_000_000_000), Tolerance: &tol}
	actual := property.NumericRange{Min: 500_000_000, Max: 500_000_000}
	if got := c.checkPrice(actual, constraint); got != ResultFail {
		t.Fatalf("expected fail outside tolerance, got %s", got)
	}
}

func TestCheckPriceMissingActualIsMissing(t *testing.T) {
	c := NewChecker(0)
	constraint := &PriceConstraint{Min: f64(1)}
	if got := c.checkPrice(property.NumericRange{}, constraint); got != ResultMissing {
		t.Fatalf("expected missing, got %s", got)
	}
}

func TestCheckBedroomsExactMatch(t *testing.T) {
	c := NewChecker(0)
	constraint := &BedroomConstraint{Exact: i(3)}
	actual := property.NumericRange{Min: 3, Max: 3}
	if got := c.checkBedrooms(actual, constraint); got != ResultPass {
		t.Fatalf("expected pass, got %s", got)
	}
}

func TestCheckBedroomsRangeOverlapPasses(t *testing.T) {
	c := NewChecker(0)
	constraint := &BedroomConstraint{Min: i(3), Max: i(4)}
	actual := property.NumericRange{Min: 2, Max: 4} // project spanning 2-4 bedrooms
	if got := c.checkBedrooms(actual, constraint); got != ResultPass {
		t.Fatalf("expected pass, got %s", got)
	}
}

func TestCheckLocationKeywordMatchBeforeGeo(t *testing.T) {
	c := NewChecker(0)
	farLat, farLng := -6.9, 107.6
	constraintLat, constraintLng := -6.2, 106.8
	radius := 2.0
	constraint := &LocationConstraint{Keywords: []string{"Kemang"}, Lat: &constraintLat, Lng: &constraintLng, RadiusKm: &radius}
	coords := &property.LatLng{Lat: farLat, Lng: farLng}
	out := c.checkLocation("Jl Kemang Raya No 1", coords, constraint)
	if out.Result != ResultPass {
		t.Fatalf("expected keyword match to pass despite being outside geo radius, got %s", out.Result)
	}
	if out.MatchedKeyword != "Kemang" {
		t.Fatalf("expected matched keyword recorded, got %q", out.MatchedKeyword)
	}
}

func TestCheckLocationGeoFallbackWithinRadius(t *testing.T) {
	c := NewChecker(0)
	lat, lng := -6.2, 106.8
	radius := 5.0
	constraint := &LocationConstraint{Lat: &lat, Lng: &lng, RadiusKm: &radius}
	coords := &property.LatLng{Lat: -6.21, Lng: 106.81}
	out := c.checkLocation("", coords, constraint)
	if out.Result != ResultPass {
		t.Fatalf("expected geo fallback to pass within radius, got %s", out.Result)
	}
}

func TestCheckLocationNoDataIsMissing(t *testing.T) {
	c := NewChecker(0)
	constraint := &LocationConstraint{Keywords: []string{"Kemang"}}
	out := c.checkLocation("", nil, constraint)
	if out.Result != ResultMissing {
		t.Fatalf("expected missing, got %s", out.Result)
	}
}

func TestManualCheckAllResultsNA(t *testing.T) {
	c := NewChecker(0)
	p := property.Property{Slug: "p1"}
	check := c.ManualCheck(p)
	if !check.IsManualEval {
		t.Fatal("expected manual eval flag")
	}
	if len(check.ApplicableResults()) != 0 {
		t.Fatalf("expected all results NA, got %v", check.Results)
	}
	if check.CPR() != 0.0 {
		t.Fatalf("expected pending manual CPR 0.0, got %f", check.CPR())
	}
}
