// Package backend implements the consumed Property Backend HTTP contract
// from spec §6: structured filter search, authoritative detail fetch by
// slug, and the sync endpoints C5 pulls from.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// SearchResult mirrors `{data:[Property], meta:{total,current_page,per_page,has_more}}`.
type SearchResult struct {
	Properties []property.Property
	Total      int
	Page       int
	PerPage    int
	HasMore    bool
}

// Search translates criteria into `GET /properties?...` per spec §6.
func (c *Client) Search(ctx context.Context, criteria property.SearchCriteria) (SearchResult, error) {
	q := url.Values{}
	if criteria.PropertyType != nil {
		q.Set("property_type", string(*criteria.PropertyType))
	}
	if criteria.ListingType != nil {
		q.Set("listing_type", string(*criteria.ListingType))
	}
	if criteria.SourceKind != nil {
		q.Set("source_kind", string(*criteria.SourceKind))
	}
	if criteria.PriceMin != nil {
		q.Set("price_min", strconv.FormatInt(*criteria.PriceMin, 10))
	}
	if criteria.PriceMax != nil {
		q.Set("price_max", strconv.FormatInt(*criteria.PriceMax, 10))
	}
	if criteria.BedroomsMin != nil {
		q.Set("bedrooms_min", strconv.Itoa(*criteria.BedroomsMin))
	}
	if criteria.BedroomsMax != nil {
		q.Set("bedrooms_max", strconv.Itoa(*criteria.BedroomsMax))
	}
	if criteria.Latitude != nil {
		q.Set("lat", strconv.FormatFloat(*criteria.Latitude, 'f', -1, 64))
	}
	if criteria.Longitude != nil {
		q.Set("lng", strconv.FormatFloat(*criteria.Longitude, 'f', -1, 64))
	}
	if criteria.RadiusKm != nil {
		q.Set("radius", strconv.FormatFloat(*criteria.RadiusKm, 'f', -1, 64))
	}
	if criteria.LocationKeyword != "" {
		q.Set("location", criteria.LocationKeyword)
	}
	q.Set("page", strconv.Itoa(criteria.Page))
	q.Set("per_page", strconv.Itoa(criteria.Limit))

	var body struct {
		Data []rawProperty `json:"data"`
		Meta struct {
			Total       int  `json:"total"`
			CurrentPage int  `json:"current_page"`
			PerPage     int  `json:"per_page"`
			HasMore     bool `json:"has_more"`
		} `json:"meta"`
	}
	if err := c.getJSON(ctx, "/properties?"+q.Encode(), &body); err != nil {
		return SearchResult{}, err
	}
	out := SearchResult{Total: body.Meta.Total, Page: body.Meta.CurrentPage, PerPage: body.Meta.PerPage, HasMore: body.Meta.HasMore}
	for _, rp := range body.Data {
		out.Properties = append(out.Properties, rp.toProperty())
	}
	return out, nil
}

// GetBySlug fetches the authoritative detail record, trying the listing
// endpoint then the project endpoint (source_kind is not always known by
// the caller ahead of the fetch).
func (c *Client) GetBySlug(ctx context.Context, slug string) (*property.Property, error) {
	var single struct {
		Data rawProperty `json:"data"`
	}
	if err := c.getJSON(ctx, "/listings/"+url.PathEscape(slug), &single); err == nil {
		p := single.Data.toProperty()
		return &p, nil
	}
	if err := c.getJSON(ctx, "/projects/"+url.PathEscape(slug), &single); err == nil {
		p := single.Data.toProperty()
		return &p, nil
	}
	return nil, fmt.Errorf("property backend: slug %q not found", slug)
}

// PendingIngest returns records marked need_ingest=true, bounded by limit.
func (c *Client) PendingIngest(ctx context.Context, limit int) ([]property.Property, error) {
	var body struct {
		Data []rawProperty `json:"data"`
	}
	if err := c.getJSON(ctx, "/sync/pending-ingest?limit="+strconv.Itoa(limit), &body); err != nil {
		return nil, err
	}
	out := make([]property.Property, 0, len(body.Data))
	for _, rp := range body.Data {
		out = append(out, rp.toProperty())
	}
	return out, nil
}

type ackID struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// MarkIngested acknowledges successful indexing for a batch.
func (c *Client) MarkIngested(ctx context.Context, ids []property.Property) error {
	acks := make([]ackID, 0, len(ids))
	for _, p := range ids {
		acks = append(acks, ackID{Source: string(p.SourceKind), ID: p.ID})
	}
	return c.postJSON(ctx, "/sync/mark-ingested", map[string]any{"ids": acks}, nil)
}

// ResetIngest republishes every record for a full reindex.
func (c *Client) ResetIngest(ctx context.Context) error {
	return c.postJSON(ctx, "/sync/reset-ingest", nil, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("property backend %s: status %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any, out any) error {
	var reqBody []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reqBody = b
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytesReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("property backend %s: status %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
