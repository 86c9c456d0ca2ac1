// Package embeddoc builds the deterministic embedding-document text
// described in spec §4.6, owned by C5 and consumed by C6. The field order
// and amenity translation table are load-bearing: changing them invalidates
// every stored vector and requires a reindex via C5's ResetIngest.
//
// Grounded on original_source/src/knowledge/property_store.py's
// _create_document_text, carried into Indonesian-language phrasing so
// embeddings stay semantically compatible with the source corpus.
package embeddoc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, " "))
}

// amenityPhrases translates internal amenity codes into human-readable
// Indonesian phrases, ported verbatim from the original amenity_map.
var amenityPhrases = map[string]string{
	"electricity":    "listrik",
	"water":          "air PDAM",
	"swimming_pool":  "kolam renang",
	"garden":         "taman",
	"garage":         "garasi",
	"security":       "keamanan 24 jam",
	"gym":            "pusat kebugaran",
	"playground":     "taman bermain",
	"parking":        "area parkir",
	"internet":       "akses internet",
	"air_conditioning": "AC",
	"furnished":      "furnished",
}

func amenityPhrase(code string) string {
	if p, ok := amenityPhrases[strings.ToLower(strings.TrimSpace(code))]; ok {
		return p
	}
	return code
}

var certificatePhrases = map[string]string{
	"shm": "Sertifikat Hak Milik (SHM)",
	"hgb": "Hak Guna Bangunan (HGB)",
	"hp":  "Hak Pakai",
	"ajb": "Akta Jual Beli (AJB)",
}

func certificatePhrase(code string) string {
	if p, ok := certificatePhrases[strings.ToLower(strings.TrimSpace(code))]; ok {
		return p
	}
	return code
}

var propertyTypeLabels = map[property.PropertyType]string{
	property.TypeHouse:     "rumah",
	property.TypeShophouse: "ruko",
	property.TypeLand:      "tanah",
	property.TypeApartment: "apartemen",
	property.TypeWarehouse: "gudang",
	property.TypeOffice:    "kantor",
	property.TypeVilla:     "villa",
}

// Build constructs the embedding document text for p, in the field order
// fixed by spec §4.6:
//  1. Title
//  2. Transaction phrasing (listing_type + source_kind)
//  3. For projects: bedroom/bathroom/floor/area range enumerations
//  4. HTML-stripped description + additional info
//  5. Location join
//  6. Property-type label, certificate type, amenities
func Build(p property.Property) string {
	var b strings.Builder

	if p.Title != "" {
		b.WriteString(p.Title)
		b.WriteString(". ")
	}

	b.WriteString(transactionPhrase(p))
	b.WriteString(" ")

	if p.SourceKind == property.SourceProject {
		b.WriteString(projectRangePhrase(p))
		b.WriteString(" ")
	}

	desc := stripHTML(p.Description)
	if desc != "" {
		b.WriteString(desc)
		b.WriteString(". ")
	}
	info := stripHTML(p.AdditionalInfo)
	if info != "" {
		b.WriteString(info)
		b.WriteString(". ")
	}

	loc := locationPhrase(p)
	if loc != "" {
		b.WriteString("Lokasi: ")
		b.WriteString(loc)
		b.WriteString(". ")
	}

	if label, ok := propertyTypeLabels[p.PropertyType]; ok {
		b.WriteString("Tipe properti: ")
		b.WriteString(label)
		b.WriteString(". ")
	}
	if p.CertificateType != "" {
		b.WriteString("Sertifikat: ")
		b.WriteString(certificatePhrase(p.CertificateType))
		b.WriteString(". ")
	}
	if len(p.Amenities) > 0 {
		phrases := make([]string, 0, len(p.Amenities))
		for _, a := range p.Amenities {
			phrases = append(phrases, amenityPhrase(a))
		}
		b.WriteString("Fasilitas: ")
		b.WriteString(strings.Join(phrases, ", "))
		b.WriteString(".")
	}

	return strings.TrimSpace(b.String())
}

func transactionPhrase(p property.Property) string {
	switch {
	case p.SourceKind == property.SourceProject:
		return "Proyek primary market,"
	case p.ListingType == property.ListingRent:
		return "Untuk disewa,"
	default:
		return "Untuk dijual,"
	}
}

func projectRangePhrase(p property.Property) string {
	parts := []string{}
	if p.Bedrooms.Max > 0 {
		parts = append(parts, rangeText("kamar tidur", p.Bedrooms))
	}
	if p.Bathrooms.Max > 0 {
		parts = append(parts, rangeText("kamar mandi", p.Bathrooms))
	}
	if p.Floors.Max > 0 {
		parts = append(parts, rangeText("lantai", p.Floors))
	}
	if p.BuildingArea.Max > 0 {
		parts = append(parts, rangeText("luas bangunan (m2)", p.BuildingArea))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Unit tersedia: " + strings.Join(parts, ", ") + "."
}

func rangeText(label string, r property.NumericRange) string {
	if r.Single() {
		return fmt.Sprintf("%s %v", label, r.Min)
	}
	return fmt.Sprintf("%s %v-%v", label, r.Min, r.Max)
}

func locationPhrase(p property.Property) string {
	parts := []string{}
	for _, s := range []string{p.Area, p.ComplexName, p.District, p.City, p.Address} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
