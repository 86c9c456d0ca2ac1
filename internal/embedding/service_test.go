package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		var req embedReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := embedResp{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{0.1, 0.2, 0.3}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestServiceEmbedCachesByTextAndModel(t *testing.T) {
	var calls int
	srv := testServer(t, &calls)
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL, Path: "/embed", ModelID: "m1", CacheTTL: time.Hour, CacheMax: 10})

	v1, hit1, err := svc.Embed(context.Background(), "rumah taman luas", "m1")
	if err != nil || hit1 {
		t.Fatalf("expected first call to miss cache, err=%v hit=%v", err, hit1)
	}
	v2, hit2, err := svc.Embed(context.Background(), "rumah taman luas", "m1")
	if err != nil || !hit2 {
		t.Fatalf("expected second call to hit cache, err=%v hit=%v", err, hit2)
	}
	if len(v1) != len(v2) || v1[0] != v2[0] {
		t.Fatalf("expected bit-identical cached vector")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", calls)
	}
}

func TestServiceEmbedDistinctModelsDoNotShareCache(t *testing.T) {
	var calls int
	srv := testServer(t, &calls)
	defer srv.Close()
	svc := New(Config{BaseURL: srv.URL, Path: "/embed", ModelID: "m1", CacheTTL: time.Hour, CacheMax: 10})

	_, _, _ = svc.Embed(context.Background(), "query", "m1")
	_, _, _ = svc.Embed(context.Background(), "query", "m2")
	if calls != 2 {
		t.Fatalf("expected separate cache entries per model_id, got %d provider calls", calls)
	}
}
