package embeddoc

import (
	"strings"
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

func TestBuildListingIncludesCoreFields(t *testing.T) {
	p := property.Property{
		SourceKind:      property.SourceListing,
		ListingType:     property.ListingSale,
		PropertyType:    property.TypeHouse,
		Title:           "Rumah Asri di Medan Selayang",
		Description:     "<p>Rumah dengan <b>taman</b> luas dan asri</p>",
		Area:            "Selayang",
		City:            "Medan",
		CertificateType: "shm",
		Amenities:       []string{"swimming_pool", "garden"},
	}
	doc := Build(p)
	if !strings.Contains(doc, "Rumah Asri di Medan Selayang") {
		t.Fatalf("expected title in document: %s", doc)
	}
	if strings.Contains(doc, "<b>") || strings.Contains(doc, "<p>") {
		t.Fatalf("expected HTML stripped: %s", doc)
	}
	if !strings.Contains(doc, "taman") {
		t.Fatalf("expected description text preserved: %s", doc)
	}
	if !strings.Contains(doc, "kolam renang") {
		t.Fatalf("expected amenity translated to Indonesian phrase: %s", doc)
	}
	if !strings.Contains(doc, "Untuk dijual") {
		t.Fatalf("expected sale transaction phrasing: %s", doc)
	}
}

func TestBuildProjectIncludesUnitRanges(t *testing.T) {
	p := property.Property{
		SourceKind:   property.SourceProject,
		PropertyType: property.TypeApartment,
		Title:        "Grand Residence",
		Bedrooms:     property.NumericRange{Min: 2, Max: 4},
	}
	doc := Build(p)
	if !strings.Contains(doc, "kamar tidur 2-4") {
		t.Fatalf("expected bedroom range phrase: %s", doc)
	}
	if !strings.Contains(doc, "Proyek primary market") {
		t.Fatalf("expected project transaction phrasing: %s", doc)
	}
}
