package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ripinlibinus/rag-property-assistant/internal/knowledge"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/retrieval"
)

// SearchPropertiesTool wires C6 in as the search_properties tool named in
// spec §4.7's bounded registry.
type SearchPropertiesTool struct {
	Retriever *retrieval.Retriever
	UserID    string
}

func (SearchPropertiesTool) Name() string { return "search_properties" }

func (SearchPropertiesTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Search property listings and projects by free-text query and/or structured filters (price, bedrooms, location).",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":            map[string]any{"type": "string", "description": "Free-text description of what the user wants"},
				"location_keyword": map[string]any{"type": "string", "description": "Neighborhood, city, or landmark keyword"},
				"price_min":        map[string]any{"type": "integer"},
				"price_max":        map[string]any{"type": "integer"},
				"bedrooms_min":     map[string]any{"type": "integer"},
				"bedrooms_max":     map[string]any{"type": "integer"},
				"limit":            map[string]any{"type": "integer"},
			},
		},
	}
}

type searchPropertiesArgs struct {
	Query           string `json:"query"`
	LocationKeyword string `json:"location_keyword"`
	PriceMin        *int64 `json:"price_min"`
	PriceMax        *int64 `json:"price_max"`
	BedroomsMin     *int   `json:"bedrooms_min"`
	BedroomsMax     *int   `json:"bedrooms_max"`
	Limit           int    `json:"limit"`
}

func (t SearchPropertiesTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args searchPropertiesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("search_properties: invalid arguments: %w", err)
	}
	criteria := property.SearchCriteria{
		Query:           args.Query,
		LocationKeyword: args.LocationKeyword,
		PriceMin:        args.PriceMin,
		PriceMax:        args.PriceMax,
		BedroomsMin:     args.BedroomsMin,
		BedroomsMax:     args.BedroomsMax,
		Limit:           args.Limit,
	}
	res, err := t.Retriever.Retrieve(ctx, criteria, t.UserID, nil)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetPropertyTool wires a direct Property Backend fetch-by-slug.
type GetPropertyTool struct {
	Backend interface {
		GetBySlug(ctx context.Context, slug string) (*property.Property, error)
	}
}

func (GetPropertyTool) Name() string { return "get_property" }

func (GetPropertyTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Fetch the full detail record for one property by its slug.",
		"parameters": map[string]any{
			"type":       "object",
			"properties": map[string]any{"slug": map[string]any{"type": "string"}},
			"required":   []string{"slug"},
		},
	}
}

type getPropertyArgs struct {
	Slug string `json:"slug"`
}

func (t GetPropertyTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args getPropertyArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("get_property: invalid arguments: %w", err)
	}
	if args.Slug == "" {
		return nil, fmt.Errorf("get_property: slug is required")
	}
	return t.Backend.GetBySlug(ctx, args.Slug)
}

// GetKnowledgeTool calls out to the external knowledge-base service as a
// distinct tool from property search, per spec §4.7's "retrieves from a
// separate knowledge index (external collaborator)". It only calls that
// service over HTTP (internal/knowledge.Client); it never builds the index
// or its ranking behind it.
type GetKnowledgeTool struct {
	Knowledge interface {
		Retrieve(ctx context.Context, q string, opt knowledge.RetrieveOptions) (knowledge.RetrieveResponse, error)
	}
}

func (GetKnowledgeTool) Name() string { return "get_knowledge" }

func (GetKnowledgeTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Search general knowledge articles (financing, legal process, neighborhoods) unrelated to a specific listing.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":    map[string]any{"type": "string"},
				"category": map[string]any{"type": "string", "description": "Optional topic filter"},
			},
			"required": []string{"query"},
		},
	}
}

type getKnowledgeArgs struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

func (t GetKnowledgeTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args getKnowledgeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("get_knowledge: invalid arguments: %w", err)
	}
	if args.Query == "" {
		return nil, fmt.Errorf("get_knowledge: query is required")
	}
	opt := knowledge.RetrieveOptions{K: 5, IncludeSnippet: true}
	if args.Category != "" {
		opt.Filter = map[string]string{"category": args.Category}
	}
	return t.Knowledge.Retrieve(ctx, args.Query, opt)
}

// GeocodeTool wires C4 in directly, for when the model wants coordinates
// without running a full search.
type GeocodeTool struct {
	Geocoder interface {
		Geocode(ctx context.Context, place, defaultCity string) (*property.LatLng, error)
	}
}

func (GeocodeTool) Name() string { return "geocode" }

func (GeocodeTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Resolve a place name to latitude/longitude.",
		"parameters": map[string]any{
			"type":       "object",
			"properties": map[string]any{"place": map[string]any{"type": "string"}},
			"required":   []string{"place"},
		},
	}
}

type geocodeArgs struct {
	Place string `json:"place"`
}

func (t GeocodeTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args geocodeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("geocode: invalid arguments: %w", err)
	}
	if args.Place == "" {
		return nil, fmt.Errorf("geocode: place is required")
	}
	return t.Geocoder.Geocode(ctx, args.Place, "")
}
