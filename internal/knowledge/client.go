// Package knowledge implements a thin HTTP client for the external
// knowledge-base service (spec §1's "knowledge-base ingester for sales
// tips" collaborator, out of scope to build). C7's get_knowledge tool only
// calls this client; the hybrid search/vector/graph engine behind the
// knowledge index lives in that separate service, not in this repo.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
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

// RetrieveOptions configures a retrieval call against the knowledge service.
type RetrieveOptions struct {
	K              int
	IncludeSnippet bool
	Filter         map[string]string
}

// RetrievedItem is a single article/snippet hit.
type RetrievedItem struct {
	ID       string            `json:"id"`
	DocID    string            `json:"doc_id"`
	Score    float64           `json:"score"`
	Snippet  string            `json:"snippet,omitempty"`
	Title    string            `json:"title,omitempty"`
	URL      string            `json:"url,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrieveResponse is the fused/ranked result set returned by the service.
type RetrieveResponse struct {
	Query string          `json:"query"`
	Items []RetrievedItem `json:"items"`
}

// Retrieve calls `GET /knowledge/search?...` on the external service.
func (c *Client) Retrieve(ctx context.Context, q string, opt RetrieveOptions) (RetrieveResponse, error) {
	query := url.Values{}
	query.Set("q", q)
	if opt.K > 0 {
		query.Set("k", fmt.Sprintf("%d", opt.K))
	}
	if opt.IncludeSnippet {
		query.Set("snippet", "true")
	}
	for k, v := range opt.Filter {
		query.Set("filter."+k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/knowledge/search?"+query.Encode(), nil)
	if err != nil {
		return RetrieveResponse{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return RetrieveResponse{}, fmt.Errorf("knowledge service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return RetrieveResponse{}, fmt.Errorf("knowledge service %s: status %s", req.URL.Path, resp.Status)
	}
	var out RetrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return RetrieveResponse{}, fmt.Errorf("knowledge service: decode response: %w", err)
	}
	return out, nil
}
