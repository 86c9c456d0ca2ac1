package retrieval

import (
	"context"
	"sync"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

// slugFetcher is the subset of backend.Client that detail resolution needs,
// kept narrow so tests can supply a fake without a real HTTP client.
type slugFetcher interface {
	GetBySlug(ctx context.Context, slug string) (*property.Property, error)
}

// resolveDetails fetches the authoritative record for each slug with
// bounded concurrency (design default 8 per spec §4.5), dropping any slug
// whose fetch fails rather than failing the whole call.
func resolveDetails(ctx context.Context, backend slugFetcher, slugs []string, concurrency int) []property.Property {
	if concurrency <= 0 {
		concurrency = 8
	}
	sem := make(chan struct{}, concurrency)
	results := make([]*property.Property, len(slugs))

	var wg sync.WaitGroup
	for i, slug := range slugs {
		wg.Add(1)
		go func(i int, slug string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			p, err := backend.GetBySlug(ctx, slug)
			if err != nil {
				return
			}
			results[i] = p
		}(i, slug)
	}
	wg.Wait()

	out := make([]property.Property, 0, len(slugs))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
