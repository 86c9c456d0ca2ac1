package backend

import (
	"bytes"
	"io"
	"strings"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

func bytesReader(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}

// rawProperty is the wire shape returned by the Property Backend. Field
// names are normalized on ingress here, not deeper, per spec §6 ("Indonesian
// synonyms ... resolve in the adapter layer, not deeper").
type rawProperty struct {
	SourceKind string  `json:"source_kind"`
	ID         string  `json:"id"`
	Slug       string  `json:"slug"`

	PropertyType string `json:"property_type"`
	ListingType  string `json:"listing_type"`
	Status       string `json:"status"`

	Price        float64 `json:"price"`
	PriceMin     *float64 `json:"price_min"`
	PriceMax     *float64 `json:"price_max"`
	Bedrooms     *float64 `json:"bedrooms"`
	BedroomsMin  *float64 `json:"bedrooms_min"`
	BedroomsMax  *float64 `json:"bedrooms_max"`
	Bathrooms    *float64 `json:"bathrooms"`
	BathroomsMin *float64 `json:"bathrooms_min"`
	BathroomsMax *float64 `json:"bathrooms_max"`
	Floors       *float64 `json:"floors"`
	FloorsMin    *float64 `json:"floors_min"`
	FloorsMax    *float64 `json:"floors_max"`
	LandArea        *float64 `json:"land_area"`
	LandAreaMin     *float64 `json:"land_area_min"`
	LandAreaMax     *float64 `json:"land_area_max"`
	BuildingArea    *float64 `json:"building_area"`
	BuildingAreaMin *float64 `json:"building_area_min"`
	BuildingAreaMax *float64 `json:"building_area_max"`

	City        string   `json:"city"`
	District    string   `json:"district"`
	Area        string   `json:"area"`
	Address     string   `json:"address"`
	ComplexName string   `json:"complex_name"`
	Facing      string   `json:"facing"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`

	Title           string   `json:"title"`
	Description     string   `json:"description"`
	AdditionalInfo  string   `json:"additional_info"`
	Features        []string `json:"features"`
	Amenities       []string `json:"amenities"`
	CertificateType string   `json:"certificate_type"`
	Developer       string   `json:"developer"`
}

// propertyTypeSynonyms collapses Indonesian/English property_type terms,
// ported from original_source/src/evaluation/constraint_checker.py's
// property_type_map.
var propertyTypeSynonyms = map[string]property.PropertyType{
	"rumah": property.TypeHouse, "house": property.TypeHouse,
	"ruko": property.TypeShophouse, "shophouse": property.TypeShophouse,
	"tanah": property.TypeLand, "land": property.TypeLand,
	"apartemen": property.TypeApartment, "apartment": property.TypeApartment,
	"gudang": property.TypeWarehouse, "warehouse": property.TypeWarehouse,
	"kantor": property.TypeOffice, "office": property.TypeOffice,
	"villa": property.TypeVilla,
}

var listingTypeSynonyms = map[string]property.ListingType{
	"dijual": property.ListingSale, "jual": property.ListingSale, "sale": property.ListingSale,
	"disewa": property.ListingRent, "sewa": property.ListingRent, "rent": property.ListingRent,
}

func normalizePropertyType(s string) property.PropertyType {
	if pt, ok := propertyTypeSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return pt
	}
	return property.PropertyType(strings.ToLower(strings.TrimSpace(s)))
}

func normalizeListingType(s string) property.ListingType {
	if lt, ok := listingTypeSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lt
	}
	return property.ListingType(strings.ToLower(strings.TrimSpace(s)))
}

func rangeOf(single float64, min, max *float64) property.NumericRange {
	if min != nil && max != nil {
		return property.NumericRange{Min: *min, Max: *max}
	}
	return property.NumericRange{Min: single, Max: single}
}

func (rp rawProperty) toProperty() property.Property {
	p := property.Property{
		SourceKind:      property.SourceKind(rp.SourceKind),
		ID:              rp.ID,
		Slug:            rp.Slug,
		PropertyType:    normalizePropertyType(rp.PropertyType),
		ListingType:     normalizeListingType(rp.ListingType),
		Status:          property.Status(rp.Status),
		Price:           rangeOf(rp.Price, rp.PriceMin, rp.PriceMax),
		City:            rp.City,
		District:        rp.District,
		Area:            rp.Area,
		Address:         rp.Address,
		ComplexName:     rp.ComplexName,
		Facing:          rp.Facing,
		Title:           rp.Title,
		Description:     rp.Description,
		AdditionalInfo:  rp.AdditionalInfo,
		Features:        rp.Features,
		Amenities:       rp.Amenities,
		CertificateType: rp.CertificateType,
		Developer:       rp.Developer,
	}
	if rp.Bedrooms != nil || (rp.BedroomsMin != nil && rp.BedroomsMax != nil) {
		p.Bedrooms = rangeOf(deref(rp.Bedrooms), rp.BedroomsMin, rp.BedroomsMax)
	}
	if rp.Bathrooms != nil || (rp.BathroomsMin != nil && rp.BathroomsMax != nil) {
		p.Bathrooms = rangeOf(deref(rp.Bathrooms), rp.BathroomsMin, rp.BathroomsMax)
	}
	if rp.Floors != nil || (rp.FloorsMin != nil && rp.FloorsMax != nil) {
		p.Floors = rangeOf(deref(rp.Floors), rp.FloorsMin, rp.FloorsMax)
	}
	if rp.LandArea != nil || (rp.LandAreaMin != nil && rp.LandAreaMax != nil) {
		p.LandArea = rangeOf(deref(rp.LandArea), rp.LandAreaMin, rp.LandAreaMax)
	}
	if rp.BuildingArea != nil || (rp.BuildingAreaMin != nil && rp.BuildingAreaMax != nil) {
		p.BuildingArea = rangeOf(deref(rp.BuildingArea), rp.BuildingAreaMin, rp.BuildingAreaMax)
	}
	if rp.Lat != nil && rp.Lng != nil {
		p.Coords = &property.LatLng{Lat: *rp.Lat, Lng: *rp.Lng}
	}
	return p
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
