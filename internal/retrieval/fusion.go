package retrieval

import (
	"sort"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

// candidate is one merged hybrid-search row prior to truncation, carrying
// both score components so the merge stays auditable (mirrors the
// teacher's fusedCandidate in internal/rag/retrieve/fusion.go, which keeps
// per-source rank/score alongside the final fused value for the same
// reason).
type candidate struct {
	Property       property.Property
	SemanticScore  float64
	HasSemantic    bool
	APIPositionScore float64
	Combined       float64
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// median returns the median of a slice of scores, 0.5 if empty — the
// "neutral semantic score" spec §4.5 assigns to backend-only candidates
// that were never embedded-matched.
func median(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.5
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mergeHybrid implements spec §4.5's merge+re-rank: union the backend list
// (ranked, contributing api_position_score) and the vector list (scored,
// contributing semantic score) keyed by slug, score each candidate as
// w*semantic + (1-w)*api_position_score, sort descending with a stable
// slug tie-break, and truncate to limit.
//
// backendList is already in backend rank order. vectorScores maps slug to
// a clamped [0,1] semantic similarity for every vector hit, including ones
// the backend list didn't return (resolveDetails must already have resolved
// their Property before calling this — vector-only misses are dropped by
// the caller, not here).
func mergeHybrid(backendList []property.Property, vectorOnly []property.Property, vectorScores map[string]float64, weight float64, limit int) ([]property.Property, map[string]float64) {
	weight = clamp01(weight)

	byslug := make(map[string]*candidate, len(backendList)+len(vectorOnly))
	order := make([]string, 0, len(backendList)+len(vectorOnly))

	backendLen := len(backendList)
	for rank, p := range backendList {
		apiScore := 0.0
		if backendLen > 0 {
			apiScore = 1 - float64(rank)/float64(backendLen)
		}
		sem, has := vectorScores[p.Slug]
		byslug[p.Slug] = &candidate{Property: p, SemanticScore: clamp01(sem), HasSemantic: has, APIPositionScore: apiScore}
		order = append(order, p.Slug)
	}
	for _, p := range vectorOnly {
		if _, exists := byslug[p.Slug]; exists {
			continue
		}
		sem := vectorScores[p.Slug]
		byslug[p.Slug] = &candidate{Property: p, SemanticScore: clamp01(sem), HasSemantic: true, APIPositionScore: 0}
		order = append(order, p.Slug)
	}

	var observed []float64
	for _, s := range vectorScores {
		observed = append(observed, clamp01(s))
	}
	neutral := median(observed)

	out := make([]*candidate, 0, len(order))
	for _, slug := range order {
		c := byslug[slug]
		if !c.HasSemantic {
			c.SemanticScore = neutral
		}
		c.Combined = weight*c.SemanticScore + (1-weight)*c.APIPositionScore
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Combined != out[j].Combined {
			return out[i].Combined > out[j].Combined
		}
		return out[i].Property.Slug < out[j].Property.Slug
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	properties := make([]property.Property, 0, len(out))
	scores := make(map[string]float64, len(out))
	for _, c := range out {
		properties = append(properties, c.Property)
		scores[c.Property.Slug] = c.SemanticScore
	}
	return properties, scores
}
