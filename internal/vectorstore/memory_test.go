package vectorstore

import (
	"context"
	"testing"
)

func TestMemoryStoreUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("m1", 3)
	entry := IndexEntry{Slug: "a", Embedding: []float32{1, 0, 0}, Metadata: map[string]string{"city": "medan"}}
	if err := s.Upsert(ctx, entry); err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	if err := s.Upsert(ctx, entry); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	stats, _ := s.Stats(ctx)
	if stats.Count != 1 {
		t.Fatalf("expected single entry after repeated upsert, got %d", stats.Count)
	}
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	s := NewMemoryStore("m1", 3)
	err := s.Upsert(context.Background(), IndexEntry{Slug: "a", Embedding: []float32{1, 0}})
	if err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
	if _, ok := err.(*ErrDimensionMismatch); !ok {
		t.Fatalf("expected *ErrDimensionMismatch, got %T", err)
	}
}

func TestMemoryStoreSearchFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("m1", 2)
	_ = s.Upsert(ctx, IndexEntry{Slug: "close", Embedding: []float32{1, 0}, Metadata: map[string]string{"city": "medan"}})
	_ = s.Upsert(ctx, IndexEntry{Slug: "far", Embedding: []float32{0, 1}, Metadata: map[string]string{"city": "medan"}})
	_ = s.Upsert(ctx, IndexEntry{Slug: "other_city", Embedding: []float32{1, 0}, Metadata: map[string]string{"city": "jakarta"}})

	hits, err := s.Search(ctx, []float32{1, 0}, 10, Filter{Equals: map[string]string{"city": "medan"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits restricted to medan, got %d", len(hits))
	}
	if hits[0].Slug != "close" {
		t.Fatalf("expected closest vector first, got %s", hits[0].Slug)
	}
}

func TestMemoryStoreRangeOverlap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("m1", 1)
	_ = s.Upsert(ctx, IndexEntry{Slug: "project", Embedding: []float32{1}, Ranges: map[string]RangeValue{"bedrooms": {Min: 3, Max: 4}}})
	_ = s.Upsert(ctx, IndexEntry{Slug: "studio", Embedding: []float32{1}, Ranges: map[string]RangeValue{"bedrooms": {Min: 1, Max: 1}}})

	hits, err := s.Search(ctx, []float32{1}, 10, Filter{RangeOverlaps: map[string]RangeQuery{"bedrooms": {HasMin: true, Min: 3}}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Slug != "project" {
		t.Fatalf("expected only project to satisfy bedrooms_min=3, got %+v", hits)
	}
}
