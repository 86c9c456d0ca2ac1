package retrieval

import (
	"testing"

	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

func TestMergeHybridPrefersHighCombinedScore(t *testing.T) {
	backendList := []property.Property{
		{Slug: "a"}, // rank 0, api_position_score=1
		{Slug: "b"}, // rank 1, api_position_score=0.5
	}
	scores := map[string]float64{"a": 0.1, "b": 0.9}

	merged, semanticScores := mergeHybrid(backendList, nil, scores, 0.6, 10)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged results, got %d", len(merged))
	}
	// a: 0.6*0.1 + 0.4*1.0 = 0.46; b: 0.6*0.9 + 0.4*0.5 = 0.74
	if merged[0].Slug != "b" {
		t.Fatalf("expected b to rank first, got %s first", merged[0].Slug)
	}
	if semanticScores["b"] != 0.9 {
		t.Fatalf("expected semantic score preserved, got %f", semanticScores["b"])
	}
}

func TestMergeHybridDeduplicatesSlugKeepingBackendEntry(t *testing.T) {
	backendList := []property.Property{{Slug: "dup", Title: "from backend"}}
	vectorOnly := []property.Property{{Slug: "dup", Title: "from vector"}}
	scores := map[string]float64{"dup": 0.8}

	merged, _ := mergeHybrid(backendList, vectorOnly, scores, 0.6, 10)
	if len(merged) != 1 {
		t.Fatalf("expected duplicate slug collapsed to one entry, got %d", len(merged))
	}
	if merged[0].Title != "from backend" {
		t.Fatalf("expected backend entry retained on dedup, got %q", merged[0].Title)
	}
}

func TestMergeHybridBackendOnlyUsesNeutralMedianScore(t *testing.T) {
	backendList := []property.Property{{Slug: "a"}, {Slug: "b"}, {Slug: "no-embedding"}}
	scores := map[string]float64{"a": 0.2, "b": 0.8}

	_, semanticScores := mergeHybrid(backendList, nil, scores, 0.6, 10)
	// median of [0.2, 0.8] = 0.5
	if semanticScores["no-embedding"] != 0.5 {
		t.Fatalf("expected neutral median score 0.5, got %f", semanticScores["no-embedding"])
	}
}

func TestMergeHybridNeutralScoreDefaultsToHalfWhenNoObservations(t *testing.T) {
	backendList := []property.Property{{Slug: "only"}}
	_, semanticScores := mergeHybrid(backendList, nil, map[string]float64{}, 0.6, 10)
	if semanticScores["only"] != 0.5 {
		t.Fatalf("expected 0.5 default neutral score, got %f", semanticScores["only"])
	}
}

func TestMergeHybridTruncatesToLimit(t *testing.T) {
	backendList := []property.Property{{Slug: "a"}, {Slug: "b"}, {Slug: "c"}}
	merged, _ := mergeHybrid(backendList, nil, map[string]float64{}, 0.6, 2)
	if len(merged) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(merged))
	}
}

func TestMergeHybridStableTieBreakBySlug(t *testing.T) {
	// Two vector-only candidates (no backend rank), identical semantic
	// score => identical combined score => slug tie-break applies.
	vectorOnly := []property.Property{{Slug: "z"}, {Slug: "a"}}
	merged, _ := mergeHybrid(nil, vectorOnly, map[string]float64{"z": 0.5, "a": 0.5}, 0.6, 10)
	if merged[0].Slug != "a" {
		t.Fatalf("expected tie-break to prefer lexicographically smaller slug, got order %v", []string{merged[0].Slug, merged[1].Slug})
	}
}

func TestClamp01(t *testing.T) {
	if clamp01(-0.5) != 0 {
		t.Fatal("expected clamp to 0")
	}
	if clamp01(1.5) != 1 {
		t.Fatal("expected clamp to 1")
	}
	if clamp01(0.3) != 0.3 {
		t.Fatal("expected passthrough within range")
	}
}
