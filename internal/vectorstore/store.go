// Package vectorstore implements C2: a persistent dense-vector index with
// metadata filters, partitioned by model_id so side-by-side model
// comparisons never collide.
package vectorstore

import (
	"context"
	"strconv"
)

// IndexEntry mirrors the numeric + categorical filters verbatim alongside
// the embedding so the store can short-circuit without calling the backend.
type IndexEntry struct {
	Slug       string
	SourceKind string
	Embedding  []float32
	Metadata   map[string]string
	Ranges     map[string]RangeValue
}

// RangeValue is a [Min, Max] pair stored alongside scalar metadata so
// Search can evaluate numeric-range overlap filters server-side where the
// backing store supports it, or client-side otherwise.
type RangeValue struct {
	Min float64
	Max float64
}

// Filter is a conjunctive predicate: every populated field must match.
type Filter struct {
	Equals map[string]string
	// RangeOverlaps requires the stored RangeValue for the named field to
	// intersect [Min, Max]. A filter with only Min set means "at least",
	// only Max set means "at most".
	RangeOverlaps map[string]RangeQuery
}

type RangeQuery struct {
	HasMin bool
	Min    float64
	HasMax bool
	Max    float64
}

// Hit is one search result: a slug and its cosine/dot/euclid/manhattan
// similarity, normalized into [0,1] by the concrete Store.
type Hit struct {
	Slug     string
	Score    float64
	Metadata map[string]string
}

// Stats describes the current state of one collection.
type Stats struct {
	Count   int
	Dim     int
	ModelID string
}

// Store is the C2 contract. Implementations must guarantee write
// visibility before the next Search (read-your-write), refuse Upsert calls
// whose vector dimension disagrees with the persisted dimension, and
// serialize concurrent upserts for the same slug.
type Store interface {
	Upsert(ctx context.Context, entry IndexEntry) error
	Delete(ctx context.Context, slug string) error
	Search(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// ErrDimensionMismatch is fatal to the process per spec §7 (dimension
// mismatch on upsert is listed as one of the two "fatal to the process"
// failure classes).
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e *ErrDimensionMismatch) Error() string {
	return "vector dimension mismatch: expected " + strconv.Itoa(e.Expected) + " got " + strconv.Itoa(e.Got)
}
