// Package metrics implements C10: an append-only, line-delimited JSON sink
// per metric kind, rotated by calendar day, grounded on the file-handle
// discipline internal/observability/logging.go uses for its own log sink
// (open-or-create, single writer), adapted from log lines to JSON records.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one metrics line. The kind argument to Sink.Record selects the
// file (metrics/{kind}_{YYYY-MM-DD}.jsonl per spec §6).
type Record struct {
	Timestamp       time.Time         `json:"timestamp"`
	UserID          string            `json:"user_id,omitempty"`
	ThreadID        string            `json:"thread_id,omitempty"`
	Method          string            `json:"method,omitempty"`
	TookMs          int64             `json:"took_ms"`
	LegLatenciesMs  map[string]int64  `json:"leg_latencies_ms,omitempty"`
	ResultCount     int               `json:"result_count"`
	CacheHits       map[string]bool   `json:"cache_hits,omitempty"`
	RerankPositionChanges int         `json:"rerank_position_changes,omitempty"`
	Extra           map[string]any    `json:"extra,omitempty"`
}

// Sink is the C10 contract. A disabled Sink is a valid zero-cost no-op so
// tests never need to special-case call sites (spec §4.10: "must be
// disable-able for tests without altering call sites").
type Sink struct {
	dir     string
	enabled bool

	mu      sync.Mutex
	files   map[string]*os.File
	nowFunc func() time.Time
}

func New(dir string, enabled bool) *Sink {
	return &Sink{dir: dir, enabled: enabled, files: make(map[string]*os.File), nowFunc: time.Now}
}

// Disabled returns a no-op sink, used in unit tests that don't want I/O.
func Disabled() *Sink { return New("", false) }

// Record appends rec to the kind's file for the calendar day rec.Timestamp
// falls on (or now, if zero). Writes are serialized under a single mutex
// per Sink; file creation is idempotent.
func (s *Sink) Record(kind string, rec Record) error {
	if s == nil || !s.enabled {
		return nil
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.nowFunc().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fileFor(kind, rec.Timestamp)
	if err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = f.Write(line)
	return err
}

func (s *Sink) fileFor(kind string, ts time.Time) (*os.File, error) {
	day := ts.Format("2006-01-02")
	key := kind + "_" + day
	if f, ok := s.files[key]; ok {
		return f, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create metrics dir: %w", err)
	}
	path := filepath.Join(s.dir, key+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open metrics file %q: %w", path, err)
	}
	s.files[key] = f
	return f, nil
}

// Close releases all open file handles.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.files = make(map[string]*os.File)
	return firstErr
}
