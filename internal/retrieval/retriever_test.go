package retrieval

import (
	"context"
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/abrouter"
	"github.com/ripinlibinus/rag-property-assistant/internal/apperr"
	"github.com/ripinlibinus/rag-property-assistant/internal/backend"
	"github.com/ripinlibinus/rag-property-assistant/internal/metrics"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(_ context.Context, _, _ string) ([]float32, bool, error) {
	return s.vec, false, s.err
}

type stubGeocoder struct {
	ll  *property.LatLng
	err error
}

func (s stubGeocoder) Geocode(_ context.Context, _, _ string) (*property.LatLng, error) {
	return s.ll, s.err
}

func newTestRetriever(t *testing.T, fb *fakeBackend, store vectorstore.Store, emb Embedder, geo Geocoder, method abrouter.Method) *Retriever {
	t.Helper()
	r := New(fb, store, emb, geo, abrouter.New(method), metrics.Disabled(), "test-model")
	return r
}

func manyProperties(n int) []property.Property {
	out := make([]property.Property, n)
	for i := range out {
		out[i] = property.Property{Slug: string(rune('a' + i))}
	}
	return out
}

func TestRetrieveHybridResultCountNeverExceedsLimit(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: manyProperties(10), Total: 10}}
	store := vectorstore.NewMemoryStore("test-model", 2)
	for _, p := range manyProperties(10) {
		_ = store.Upsert(context.Background(), vectorstore.IndexEntry{Slug: p.Slug, Embedding: []float32{1, 0}})
	}
	r := newTestRetriever(t, fb, store, stubEmbedder{vec: []float32{1, 0}}, stubGeocoder{}, abrouter.MethodHybrid)

	res, err := r.Retrieve(context.Background(), property.SearchCriteria{Query: "rumah minimalis", Limit: 5}, "user-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Properties) > 5 {
		t.Fatalf("expected at most 5 results, got %d", len(res.Properties))
	}
	if res.MethodUsed != string(abrouter.MethodHybrid) {
		t.Fatalf("expected method_used=hybrid, got %s", res.MethodUsed)
	}
}

func TestRetrieveHybridEmptyQueryNeverSetsRerankApplied(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: manyProperties(3), Total: 3}}
	store := vectorstore.NewMemoryStore("test-model", 2)
	for _, p := range manyProperties(3) {
		_ = store.Upsert(context.Background(), vectorstore.IndexEntry{Slug: p.Slug, Embedding: []float32{1, 0}})
	}
	r := newTestRetriever(t, fb, store, stubEmbedder{vec: []float32{1, 0}}, stubGeocoder{}, abrouter.MethodHybrid)

	res, err := r.Retrieve(context.Background(), property.SearchCriteria{Limit: 5}, "user-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RerankApplied {
		t.Fatal("expected rerank_applied=false when an empty query never runs the vector leg")
	}
	if res.MethodUsed != string(abrouter.MethodHybrid) {
		t.Fatalf("expected method_used=hybrid, got %s", res.MethodUsed)
	}
}

func TestRetrieveVectorOnlyEmptyQueryIsBadRequest(t *testing.T) {
	fb := &fakeBackend{}
	store := vectorstore.NewMemoryStore("test-model", 2)
	r := newTestRetriever(t, fb, store, stubEmbedder{}, stubGeocoder{}, abrouter.MethodVectorOnly)

	_, err := r.Retrieve(context.Background(), property.SearchCriteria{Limit: 5}, "user-1", nil)
	if err == nil {
		t.Fatal("expected error for empty query under vector_only")
	}
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad_request, got %v", apperr.KindOf(err))
	}
}

func TestRetrieveStructuredOnlyNeverSetsRerankApplied(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: []property.Property{{Slug: "a"}}, Total: 1}}
	store := vectorstore.NewMemoryStore("test-model", 2)
	r := newTestRetriever(t, fb, store, stubEmbedder{}, stubGeocoder{}, abrouter.MethodStructuredOnly)

	res, err := r.Retrieve(context.Background(), property.SearchCriteria{Limit: 5}, "user-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RerankApplied {
		t.Fatal("expected rerank_applied=false for structured-only results")
	}
	if res.MethodUsed != string(abrouter.MethodStructuredOnly) {
		t.Fatalf("expected method_used=api_only, got %s", res.MethodUsed)
	}
}

func TestRetrieveProximityFallbackDecoratesMethodUsed(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: []property.Property{{Slug: "a", Title: "rumah di jakarta"}}, Total: 1}}
	store := vectorstore.NewMemoryStore("test-model", 2)
	geo := stubGeocoder{ll: &property.LatLng{Lat: -6.2, Lng: 106.8}}
	r := newTestRetriever(t, fb, store, stubEmbedder{}, geo, abrouter.MethodStructuredOnly)

	res, err := r.Retrieve(context.Background(), property.SearchCriteria{LocationKeyword: "bandung", Limit: 5}, "user-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MethodUsed != string(abrouter.MethodStructuredOnly)+"+GEO" {
		t.Fatalf("expected +GEO decoration on fallback, got %s", res.MethodUsed)
	}
}

func TestRetrieveNoProximityFallbackWhenKeywordMatches(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: []property.Property{{Slug: "a", Title: "rumah di bandung"}}, Total: 1}}
	store := vectorstore.NewMemoryStore("test-model", 2)
	geo := stubGeocoder{ll: &property.LatLng{Lat: -6.9, Lng: 107.6}}
	r := newTestRetriever(t, fb, store, stubEmbedder{}, geo, abrouter.MethodStructuredOnly)

	res, err := r.Retrieve(context.Background(), property.SearchCriteria{LocationKeyword: "bandung", Limit: 5}, "user-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MethodUsed != string(abrouter.MethodStructuredOnly) {
		t.Fatalf("expected no fallback decoration when keyword already matches, got %s", res.MethodUsed)
	}
}

func TestRetrieveMethodOverrideWinsOverRouter(t *testing.T) {
	fb := &fakeBackend{result: backend.SearchResult{Properties: []property.Property{{Slug: "a"}}, Total: 1}}
	store := vectorstore.NewMemoryStore("test-model", 2)
	r := newTestRetriever(t, fb, store, stubEmbedder{}, stubGeocoder{}, abrouter.MethodHybrid)

	override := abrouter.MethodStructuredOnly
	res, err := r.Retrieve(context.Background(), property.SearchCriteria{Limit: 5}, "user-1", &override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MethodUsed != string(abrouter.MethodStructuredOnly) {
		t.Fatalf("expected override to win, got method_used=%s", res.MethodUsed)
	}
}

func TestRetrieveHybridBothLegsFailIsUpstreamUnavailable(t *testing.T) {
	fb := &fakeBackend{err: context.DeadlineExceeded}
	store := vectorstore.NewMemoryStore("test-model", 2)
	r := newTestRetriever(t, fb, store, stubEmbedder{err: context.DeadlineExceeded}, stubGeocoder{}, abrouter.MethodHybrid)

	_, err := r.Retrieve(context.Background(), property.SearchCriteria{Query: "rumah", Limit: 5}, "user-1", nil)
	if err == nil {
		t.Fatal("expected error when both legs fail")
	}
	if apperr.KindOf(err) != apperr.KindUpstreamUnavailable {
		t.Fatalf("expected upstream_unavailable, got %v", apperr.KindOf(err))
	}
}
