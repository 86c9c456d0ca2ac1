package property

import "testing"

func TestNumericRangeOverlaps(t *testing.T) {
	projectBedrooms := NumericRange{Min: 3, Max: 4}
	if !projectBedrooms.OverlapsAtLeast(3) {
		t.Fatalf("expected bedrooms_min=3 to intersect [3,4]")
	}
	if projectBedrooms.OverlapsAtLeast(5) {
		t.Fatalf("expected bedrooms_min=5 to miss [3,4]")
	}
}

func TestSearchCriteriaNormalizeDefaults(t *testing.T) {
	var c SearchCriteria
	if err := c.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Page != 1 || c.Limit != DefaultLimit {
		t.Fatalf("expected defaults page=1 limit=%d, got page=%d limit=%d", DefaultLimit, c.Page, c.Limit)
	}
}

func TestSearchCriteriaNormalizeClampsLimit(t *testing.T) {
	c := SearchCriteria{Limit: 1000}
	if err := c.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Limit != MaxLimit {
		t.Fatalf("expected limit clamped to %d, got %d", MaxLimit, c.Limit)
	}
}

func TestSearchCriteriaGeoTripletRequired(t *testing.T) {
	lat := 1.0
	c := SearchCriteria{Latitude: &lat}
	if err := c.Normalize(); err == nil {
		t.Fatalf("expected error for partial geo triplet")
	}
}

func TestSearchCriteriaZeroPriceMaxIsLegitimate(t *testing.T) {
	var zero int64
	c := SearchCriteria{PriceMax: &zero}
	if err := c.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PriceMax == nil || *c.PriceMax != 0 {
		t.Fatalf("expected PriceMax=0 preserved, not treated as unset")
	}
}
