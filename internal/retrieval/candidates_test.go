package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/backend"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

type fakeBackend struct {
	result backend.SearchResult
	err    error
}

func (f *fakeBackend) Search(_ context.Context, _ property.SearchCriteria) (backend.SearchResult, error) {
	return f.result, f.err
}
func (f *fakeBackend) GetBySlug(_ context.Context, slug string) (*property.Property, error) {
	return &property.Property{Slug: slug}, nil
}

func TestGatherCandidatesContinuesWhenVectorLegFails(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: []property.Property{{Slug: "a"}}}}
	store := vectorstore.NewMemoryStore("model", 0)

	embed := func(ctx context.Context, text string) ([]float32, bool, error) {
		return nil, false, errors.New("embedding provider down")
	}

	legs := gatherCandidates(context.Background(), fb, store, embed, property.SearchCriteria{Query: "rumah"}, 25, 30)
	if legs.BackendErr != nil {
		t.Fatalf("expected backend leg to succeed, got %v", legs.BackendErr)
	}
	if legs.VectorErr == nil {
		t.Fatal("expected vector leg error to be captured")
	}
	if !legs.VectorAttempted {
		t.Fatal("expected vector leg to be marked attempted even though it failed")
	}
	if len(legs.BackendProperties) != 1 {
		t.Fatalf("expected backend results preserved despite vector failure, got %d", len(legs.BackendProperties))
	}
}

func TestGatherCandidatesContinuesWhenBackendLegFails(t *testing.T) {
	fb := &fakeBackend{err: errors.New("backend 503")}
	store := vectorstore.NewMemoryStore("model", 1)
	_ = store.Upsert(context.Background(), vectorstore.IndexEntry{Slug: "x", Embedding: []float32{1}})

	embed := func(ctx context.Context, text string) ([]float32, bool, error) {
		return []float32{1}, false, nil
	}

	legs := gatherCandidates(context.Background(), fb, store, embed, property.SearchCriteria{Query: "rumah"}, 25, 30)
	if legs.VectorErr != nil {
		t.Fatalf("expected vector leg to succeed, got %v", legs.VectorErr)
	}
	if !legs.VectorAttempted {
		t.Fatal("expected vector leg to be marked attempted")
	}
	if legs.BackendErr == nil {
		t.Fatal("expected backend leg error to be captured")
	}
	if len(legs.VectorHits) != 1 {
		t.Fatalf("expected vector hits preserved despite backend failure, got %d", len(legs.VectorHits))
	}
}

func TestGatherCandidatesSkipsVectorLegWhenQueryEmpty(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: []property.Property{{Slug: "a"}}}}
	store := vectorstore.NewMemoryStore("model", 0)

	embed := func(ctx context.Context, text string) ([]float32, bool, error) {
		t.Fatal("embed should not be called when query is empty")
		return nil, false, nil
	}

	legs := gatherCandidates(context.Background(), fb, store, embed, property.SearchCriteria{}, 25, 30)
	if legs.VectorErr != nil || len(legs.VectorHits) != 0 {
		t.Fatalf("expected empty vector leg, got %+v", legs)
	}
	if legs.VectorAttempted {
		t.Fatal("expected vector leg to be marked not attempted when query is empty")
	}
}
