package retrieval

import (
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

// vectorFilter translates normalized criteria into the metadata-filter
// shape C2 evaluates, mirroring the same field names the sync pipeline
// writes on upsert (internal/syncpipeline/pipeline.go's toIndexEntry) so a
// property indexed by C5 is always addressable by a C6 filter.
func vectorFilter(c property.SearchCriteria) vectorstore.Filter {
	filter := vectorstore.Filter{
		Equals:        map[string]string{},
		RangeOverlaps: map[string]vectorstore.RangeQuery{},
	}

	if c.PropertyType != nil {
		filter.Equals["property_type"] = string(*c.PropertyType)
	}
	if c.ListingType != nil {
		filter.Equals["listing_type"] = string(*c.ListingType)
	}
	if c.InComplex != property.Unset {
		if c.InComplex == property.True {
			filter.Equals["in_complex"] = "true"
		} else {
			filter.Equals["in_complex"] = "false"
		}
	}

	addRange(filter.RangeOverlaps, "price", floatPtrFromInt64(c.PriceMin), floatPtrFromInt64(c.PriceMax))
	addRange(filter.RangeOverlaps, "bedrooms", floatPtrFromInt(c.BedroomsMin), floatPtrFromInt(c.BedroomsMax))
	addRange(filter.RangeOverlaps, "bathrooms", floatPtrFromInt(c.BathroomsMin), floatPtrFromInt(c.BathroomsMax))
	addRange(filter.RangeOverlaps, "floors", floatPtrFromInt(c.FloorsMin), floatPtrFromInt(c.FloorsMax))

	if len(filter.Equals) == 0 {
		filter.Equals = nil
	}
	if len(filter.RangeOverlaps) == 0 {
		filter.RangeOverlaps = nil
	}
	return filter
}

func addRange(dst map[string]vectorstore.RangeQuery, field string, min, max *float64) {
	if min == nil && max == nil {
		return
	}
	rq := vectorstore.RangeQuery{}
	if min != nil {
		rq.HasMin, rq.Min = true, *min
	}
	if max != nil {
		rq.HasMax, rq.Max = true, *max
	}
	dst[field] = rq
}

func floatPtrFromInt(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func floatPtrFromInt64(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
