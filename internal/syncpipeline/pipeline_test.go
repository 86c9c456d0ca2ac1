package syncpipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ripinlibinus/rag-property-assistant/internal/embedding"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

type fakeBackend struct {
	pending     []property.Property
	marked      []property.Property
	markErr     error
	resetCalled bool
}

func (f *fakeBackend) PendingIngest(ctx context.Context, limit int) ([]property.Property, error) {
	return f.pending, nil
}

func (f *fakeBackend) MarkIngested(ctx context.Context, properties []property.Property) error {
	f.marked = append(f.marked, properties...)
	return f.markErr
}

func (f *fakeBackend) ResetIngest(ctx context.Context) error {
	f.resetCalled = true
	return nil
}

func embedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		type item struct {
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for range req.Input {
			resp.Data = append(resp.Data, item{Embedding: []float32{1, 0}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestRunCycleUpsertsAndAcksSuccesses(t *testing.T) {
	srv := embedServer(t)
	defer srv.Close()
	embed := embedding.New(embedding.Config{BaseURL: srv.URL, Path: "/embed", ModelID: "m1"})
	store := vectorstore.NewMemoryStore("m1", 2)
	backend := &fakeBackend{pending: []property.Property{
		{SourceKind: property.SourceListing, ID: "1", Slug: "rumah-1", PropertyType: property.TypeHouse},
	}}
	p := New(backend, embed, store, Config{ModelID: "m1"}, zerolog.Nop())

	summary, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Upserted != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(backend.marked) != 1 || backend.marked[0].Slug != "rumah-1" {
		t.Fatalf("expected slug acked, got %+v", backend.marked)
	}
	stats, _ := store.Stats(context.Background())
	if stats.Count != 1 {
		t.Fatalf("expected one indexed entry, got %d", stats.Count)
	}
}

func TestRunCycleEmptyBatchIsNoop(t *testing.T) {
	embed := embedding.New(embedding.Config{BaseURL: "http://unused", ModelID: "m1"})
	store := vectorstore.NewMemoryStore("m1", 2)
	backend := &fakeBackend{}
	p := New(backend, embed, store, Config{ModelID: "m1"}, zerolog.Nop())

	summary, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Attempted != 0 {
		t.Fatalf("expected zero attempted on already-synced backend")
	}
}

func TestRunCycleEmbedFailureIsCountedAndNotAcked(t *testing.T) {
	embed := embedding.New(embedding.Config{BaseURL: "http://127.0.0.1:0", ModelID: "m1"})
	store := vectorstore.NewMemoryStore("m1", 2)
	backend := &fakeBackend{pending: []property.Property{
		{SourceKind: property.SourceListing, ID: "1", Slug: "rumah-1"},
	}}
	p := New(backend, embed, store, Config{ModelID: "m1"}, zerolog.Nop())

	summary, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 || summary.Upserted != 0 {
		t.Fatalf("expected failed record not to block cycle: %+v", summary)
	}
	if len(backend.marked) != 0 {
		t.Fatalf("expected failed record not to be acked")
	}
}
