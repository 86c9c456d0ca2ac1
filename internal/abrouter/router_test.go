package abrouter

import "testing"

func TestMethodForOverrideWins(t *testing.T) {
	r := New(MethodHybrid)
	r.SetExperiment(&Experiment{
		Buckets: []Bucket{{Method: MethodStructuredOnly, Weight: 1.0}},
		Start:   pastTime(), End: futureTime(), ConsistentPerUser: true,
	})
	override := MethodVectorOnly
	r.SetOverride(&override)
	if got := r.MethodFor("abc"); got != MethodVectorOnly {
		t.Fatalf("expected override to win, got %s", got)
	}
}

func TestMethodForDefaultsWithNoExperiment(t *testing.T) {
	r := New(MethodStructuredOnly)
	if got := r.MethodFor("abc"); got != MethodStructuredOnly {
		t.Fatalf("expected default method, got %s", got)
	}
}

func TestMethodForStableAcrossRepeatedCalls(t *testing.T) {
	r := New(MethodHybrid)
	r.SetExperiment(&Experiment{
		Buckets: []Bucket{
			{Method: MethodHybrid, Weight: 0.5},
			{Method: MethodStructuredOnly, Weight: 0.5},
		},
		Start: pastTime(), End: futureTime(), ConsistentPerUser: true,
	})
	first := r.MethodFor("abc")
	for i := 0; i < 1000; i++ {
		if got := r.MethodFor("abc"); got != first {
			t.Fatalf("expected stable assignment, got %s then %s", first, got)
		}
	}
}

func TestMethodForExpiredExperimentFallsBackToDefault(t *testing.T) {
	r := New(MethodStructuredOnly)
	r.SetExperiment(&Experiment{
		Buckets: []Bucket{{Method: MethodHybrid, Weight: 1.0}},
		Start:   pastTime2(), End: pastTime(),
	})
	if got := r.MethodFor("abc"); got != MethodStructuredOnly {
		t.Fatalf("expected default after experiment window closed, got %s", got)
	}
}
