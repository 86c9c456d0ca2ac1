package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDisabledSinkIsNoop(t *testing.T) {
	s := Disabled()
	if err := s.Record("search", Record{}); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
}

func TestSinkWritesRotatedJSONL(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, true)
	defer s.Close()

	ts := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	if err := s.Record("search", Record{Timestamp: ts, Method: "hybrid", TookMs: 42, ResultCount: 3}); err != nil {
		t.Fatalf("record: %v", err)
	}
	path := filepath.Join(dir, "search_2026-01-02.jsonl")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected rotated file to exist: %v", err)
	}

	agg, err := ReadAggregate(path)
	if err != nil {
		t.Fatalf("read aggregate: %v", err)
	}
	if agg.Count != 1 || agg.AvgTookMs != 42 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
}

func TestSinkAppendsMultipleRecords(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, true)
	defer s.Close()
	ts := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	_ = s.Record("search", Record{Timestamp: ts, Method: "hybrid", TookMs: 10})
	_ = s.Record("search", Record{Timestamp: ts, Method: "api_only", TookMs: 20})

	agg, err := ReadAggregate(filepath.Join(dir, "search_2026-01-02.jsonl"))
	if err != nil {
		t.Fatalf("read aggregate: %v", err)
	}
	if agg.Count != 2 {
		t.Fatalf("expected 2 records, got %d", agg.Count)
	}
	if agg.AvgTookMsByMethod["hybrid"] != 10 || agg.AvgTookMsByMethod["api_only"] != 20 {
		t.Fatalf("unexpected per-method averages: %+v", agg.AvgTookMsByMethod)
	}
}
