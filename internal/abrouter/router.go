// Package abrouter implements C9: deterministic per-user routing across
// retrieval strategies, with a process-global override cell for
// deterministic tests — represented as an explicit dependency injected into
// request handlers rather than a hidden singleton, per spec §9.
package abrouter

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

// Method mirrors the retrieval strategies named in spec §4.5/§6.
type Method string

const (
	MethodStructuredOnly Method = "api_only"
	MethodVectorOnly     Method = "vector_only"
	MethodHybrid         Method = "hybrid"
)

// Bucket is one weighted arm of an experiment.
type Bucket struct {
	Method Method
	Weight float64
}

// Experiment is an active A/B test window. Weights must sum to 1±epsilon;
// callers should validate this at config-load time (out of this package's
// scope, mirroring the teacher's config-validates-at-boundary convention).
type Experiment struct {
	Buckets          []Bucket
	Start            time.Time
	End              time.Time
	ConsistentPerUser bool
}

func (e Experiment) active(now time.Time) bool {
	return !now.Before(e.Start) && !now.After(e.End)
}

// Router is C9's contract: MethodFor(userID) -> Method.
type Router struct {
	mu         sync.RWMutex
	defaultMethod Method
	experiment *Experiment
	override   *Method
	now        func() time.Time
}

func New(defaultMethod Method) *Router {
	return &Router{defaultMethod: defaultMethod, now: time.Now}
}

// SetExperiment installs (or clears, with nil) the active experiment.
func (r *Router) SetExperiment(exp *Experiment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.experiment = exp
}

// SetOverride sets (or clears, with nil) the process-wide override, which
// always wins over any experiment or default.
func (r *Router) SetOverride(method *Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = method
}

// MethodFor resolves the retrieval method for userID. Assignment is
// deterministic for a given userID across the life of the experiment
// (spec §4.9/§8: "method_for(u) is stable across repeated calls").
func (r *Router) MethodFor(userID string) Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.override != nil {
		return *r.override
	}
	if r.experiment != nil && r.experiment.active(r.now()) {
		return assign(*r.experiment, userID)
	}
	return r.defaultMethod
}

func assign(exp Experiment, userID string) Method {
	if exp.ConsistentPerUser && userID != "" {
		return bucketByHash(exp.Buckets, stableHash(userID))
	}
	return bucketByHash(exp.Buckets, stableHash(userID+":"+randomishSeed()))
}

// stableHash maps a key to [0,1) deterministically.
func stableHash(key string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return float64(h.Sum64()%1_000_000) / 1_000_000.0
}

// randomishSeed varies weighted-random assignment across calls for
// anonymous users without pulling in a full RNG dependency; it is seeded
// from the wall clock, which is acceptable because anonymous assignment
// explicitly has no stability requirement (spec §4.9: "else weighted
// random").
func randomishSeed() string {
	return time.Now().String()
}

func bucketByHash(buckets []Bucket, h float64) Method {
	sorted := make([]Bucket, len(buckets))
	copy(sorted, buckets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Method < sorted[j].Method })

	var cursor float64
	for _, b := range sorted {
		cursor += b.Weight
		if h < cursor {
			return b.Method
		}
	}
	if len(sorted) > 0 {
		return sorted[len(sorted)-1].Method
	}
	return MethodHybrid
}
