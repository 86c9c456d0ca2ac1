// Package retrieval implements C6, the hybrid retriever: structured
// backend search, vector semantic search, concurrent hybrid fusion, and
// keyword-then-geocode proximity fallback, grounded on the teacher's
// internal/rag/retrieve package (fusion.go's scored-merge shape,
// candidates.go's two-leg concurrent fan-out shape) adapted to this
// domain's own weighted-merge formula and continue-on-single-leg-failure
// requirement.
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/ripinlibinus/rag-property-assistant/internal/abrouter"
	"github.com/ripinlibinus/rag-property-assistant/internal/apperr"
	"github.com/ripinlibinus/rag-property-assistant/internal/backend"
	"github.com/ripinlibinus/rag-property-assistant/internal/embedding"
	"github.com/ripinlibinus/rag-property-assistant/internal/geocoding"
	"github.com/ripinlibinus/rag-property-assistant/internal/metrics"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

// Result is the C6 public contract's return shape (spec §4.5).
type Result struct {
	Properties     []property.Property
	Total          int
	MethodUsed     string
	RerankApplied  bool
	SemanticScores map[string]float64
	TookMs         int64
}

const (
	defaultDetailConcurrency = 8
	defaultFallbackRadiusKm  = 2.0
	widenedFallbackRadiusKm  = 5.0
	defaultHybridWeight      = 0.6
	backendCandidateFloor    = 25
	vectorCandidateFactor    = 3
)

// Embedder is the narrow C3 dependency (modelID resolution stays internal
// to the concrete service; callers of Retriever never see it).
type Embedder interface {
	Embed(ctx context.Context, text, modelID string) ([]float32, bool, error)
}

// Geocoder is the narrow C4 dependency.
type Geocoder interface {
	Geocode(ctx context.Context, place, defaultCity string) (*property.LatLng, error)
}

// Retriever is C6's contract: Retrieve(ctx, criteria, userID) -> Result.
type Retriever struct {
	Backend      backendSearcher
	VectorStore  vectorstore.Store
	Embedder     Embedder
	Geocoder     Geocoder
	Router       *abrouter.Router
	Metrics      *metrics.Sink
	ModelID      string
	HybridWeight float64
	DetailConcurrency int
	now          func() time.Time
}

func New(backend backendSearcher, store vectorstore.Store, embedder Embedder, geocoder Geocoder, router *abrouter.Router, sink *metrics.Sink, modelID string) *Retriever {
	return &Retriever{
		Backend:           backend,
		VectorStore:       store,
		Embedder:          embedder,
		Geocoder:          geocoder,
		Router:            router,
		Metrics:           sink,
		ModelID:           modelID,
		HybridWeight:      defaultHybridWeight,
		DetailConcurrency: defaultDetailConcurrency,
		now:               time.Now,
	}
}

// Retrieve is the C6 contract. methodOverride, when non-nil, wins over the
// A/B router's assignment per spec §4.5 ("Per-request override always
// wins").
func (r *Retriever) Retrieve(ctx context.Context, criteria property.SearchCriteria, userID string, methodOverride *abrouter.Method) (Result, error) {
	start := r.now()
	if err := criteria.Normalize(); err != nil {
		return Result{}, err
	}

	method := r.Router.MethodFor(userID)
	if methodOverride != nil {
		method = *methodOverride
	}

	result, err := r.retrieveWithFallback(ctx, criteria, method, false)
	if err != nil {
		return Result{}, err
	}
	result.TookMs = r.now().Sub(start).Milliseconds()

	if r.Metrics != nil {
		_ = r.Metrics.Record("search", metrics.Record{
			UserID:      userID,
			Method:      result.MethodUsed,
			TookMs:      result.TookMs,
			ResultCount: len(result.Properties),
			RerankPositionChanges: 0,
		})
	}
	return result, nil
}

// retrieveWithFallback dispatches by method, then applies the proximity
// fallback ladder (2km, then 5km) per spec §4.5 when a location_keyword was
// supplied and the direct result is empty or keyword-less.
func (r *Retriever) retrieveWithFallback(ctx context.Context, criteria property.SearchCriteria, method abrouter.Method, isFallbackRetry bool) (Result, error) {
	res, err := r.dispatch(ctx, criteria, method)
	if err != nil {
		return Result{}, err
	}

	if isFallbackRetry || criteria.LocationKeyword == "" {
		return res, nil
	}
	if !needsProximityFallback(res, criteria.LocationKeyword) {
		return res, nil
	}

	place := criteria.LocationKeyword
	coords, geoErr := r.Geocoder.Geocode(ctx, place, "")
	if geoErr != nil || coords == nil {
		return res, nil
	}

	radius := defaultFallbackRadiusKm
	fallbackCriteria := criteria
	fallbackCriteria.Latitude = &coords.Lat
	fallbackCriteria.Longitude = &coords.Lng
	fallbackCriteria.RadiusKm = &radius
	fallbackCriteria.LocationKeyword = ""

	fallbackRes, err := r.dispatch(ctx, fallbackCriteria, method)
	if err != nil {
		return res, nil
	}
	if len(fallbackRes.Properties) == 0 {
		widened := widenedFallbackRadiusKm
		fallbackCriteria.RadiusKm = &widened
		if widerRes, err := r.dispatch(ctx, fallbackCriteria, method); err == nil {
			fallbackRes = widerRes
		}
	}
	fallbackRes.MethodUsed = string(method) + "+GEO"
	return fallbackRes, nil
}

// needsProximityFallback reports whether every candidate's combined
// location text fails a case-insensitive containment check against
// keyword, or the candidate set is empty.
func needsProximityFallback(res Result, keyword string) bool {
	if len(res.Properties) == 0 {
		return true
	}
	lower := strings.ToLower(keyword)
	for _, p := range res.Properties {
		if strings.Contains(strings.ToLower(p.LocationText()), lower) {
			return false
		}
	}
	return true
}

func (r *Retriever) dispatch(ctx context.Context, criteria property.SearchCriteria, method abrouter.Method) (Result, error) {
	switch method {
	case abrouter.MethodStructuredOnly:
		return r.structuredOnly(ctx, criteria)
	case abrouter.MethodVectorOnly:
		return r.vectorOnly(ctx, criteria)
	default:
		return r.hybrid(ctx, criteria)
	}
}

func (r *Retriever) structuredOnly(ctx context.Context, criteria property.SearchCriteria) (Result, error) {
	res, err := r.Backend.Search(ctx, criteria)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUpstreamUnavailable, "structured search", err)
	}
	return Result{
		Properties:    res.Properties,
		Total:         res.Total,
		MethodUsed:    string(abrouter.MethodStructuredOnly),
		RerankApplied: false,
	}, nil
}

func (r *Retriever) vectorOnly(ctx context.Context, criteria property.SearchCriteria) (Result, error) {
	if !criteria.RequiresQuery() {
		return Result{}, apperr.New(apperr.KindBadRequest, "vector_only search requires a non-empty query")
	}

	vec, _, err := r.Embedder.Embed(ctx, criteria.Query, r.ModelID)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindEmbeddingFailed, "embed query", err)
	}
	hits, err := r.VectorStore.Search(ctx, vec, criteria.Limit, vectorFilter(criteria))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindVectorIO, "vector search", err)
	}

	slugs := make([]string, 0, len(hits))
	scoreBySlug := make(map[string]float64, len(hits))
	for _, h := range hits {
		slugs = append(slugs, h.Slug)
		scoreBySlug[h.Slug] = clamp01(h.Score)
	}
	properties := resolveDetails(ctx, r.Backend, slugs, r.concurrency())

	scores := make(map[string]float64, len(properties))
	for _, p := range properties {
		scores[p.Slug] = scoreBySlug[p.Slug]
	}

	return Result{
		Properties:     properties,
		Total:          len(properties),
		MethodUsed:     string(abrouter.MethodVectorOnly),
		RerankApplied:  true,
		SemanticScores: scores,
	}, nil
}

func (r *Retriever) hybrid(ctx context.Context, criteria property.SearchCriteria) (Result, error) {
	backendLimit := criteria.Limit
	if backendLimit < backendCandidateFloor {
		backendLimit = backendCandidateFloor
	}
	vectorLimit := criteria.Limit * vectorCandidateFactor

	embed := func(ctx context.Context, text string) ([]float32, bool, error) {
		return r.Embedder.Embed(ctx, text, r.ModelID)
	}
	legs := gatherCandidates(ctx, r.Backend, r.VectorStore, embed, criteria, backendLimit, vectorLimit)

	if legs.BackendErr != nil && legs.VectorErr != nil {
		return Result{}, apperr.Wrap(apperr.KindUpstreamUnavailable, "hybrid search: both legs failed", legs.BackendErr)
	}

	vectorSlugs := make([]string, 0, len(legs.VectorHits))
	vectorScores := make(map[string]float64, len(legs.VectorHits))
	for _, h := range legs.VectorHits {
		vectorSlugs = append(vectorSlugs, h.Slug)
		vectorScores[h.Slug] = clamp01(h.Score)
	}

	backendSlugs := make(map[string]struct{}, len(legs.BackendProperties))
	for _, p := range legs.BackendProperties {
		backendSlugs[p.Slug] = struct{}{}
	}
	onlyVectorSlugs := make([]string, 0, len(vectorSlugs))
	for _, slug := range vectorSlugs {
		if _, ok := backendSlugs[slug]; !ok {
			onlyVectorSlugs = append(onlyVectorSlugs, slug)
		}
	}
	vectorOnlyProperties := resolveDetails(ctx, r.Backend, onlyVectorSlugs, r.concurrency())

	merged, scores := mergeHybrid(legs.BackendProperties, vectorOnlyProperties, vectorScores, r.HybridWeight, criteria.Limit)

	// rerank_applied means semantic scoring actually influenced ordering
	// (spec §9): an empty query never runs the vector leg at all, and a
	// failed C2 (vector) leg degrades it too. A failed C1 (backend) leg
	// still leaves a genuinely reranked vector-only set.
	rerankApplied := legs.VectorAttempted && legs.VectorErr == nil

	return Result{
		Properties:     merged,
		Total:          len(merged),
		MethodUsed:     string(abrouter.MethodHybrid),
		RerankApplied:  rerankApplied,
		SemanticScores: scores,
	}, nil
}

func (r *Retriever) concurrency() int {
	if r.DetailConcurrency <= 0 {
		return defaultDetailConcurrency
	}
	return r.DetailConcurrency
}

var _ Geocoder = (*geocoding.Service)(nil)
var _ Embedder = (*embedding.Service)(nil)
var _ backendSearcher = (*backend.Client)(nil)
