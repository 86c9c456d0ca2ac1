package retrieval

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ripinlibinus/rag-property-assistant/internal/backend"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

// candidateLegs is the raw output of hybrid candidate generation's two
// concurrent calls, before merge+re-rank.
type candidateLegs struct {
	BackendProperties []property.Property
	VectorHits        []vectorstore.Hit
	BackendErr        error
	VectorErr         error
	// VectorAttempted is false when criteria.Query is empty and the vector
	// leg never ran at all, as opposed to running and failing (VectorErr).
	// Callers need this distinction to report whether semantic scoring
	// actually influenced ordering.
	VectorAttempted bool
}

// backendSearcher narrows the dependency this package needs from the
// Property Backend client, the same narrowing discipline the teacher
// applies in internal/rag/retrieve/candidates.go (it depends on
// databases.FullTextSearch/VectorStore interfaces, not concrete clients).
type backendSearcher interface {
	Search(ctx context.Context, criteria property.SearchCriteria) (backend.SearchResult, error)
	GetBySlug(ctx context.Context, slug string) (*property.Property, error)
}

// gatherCandidates runs the backend and vector legs concurrently. Unlike
// the teacher's ParallelCandidates (internal/rag/retrieve/candidates.go),
// which returns early the instant either leg errors, this spec requires
// continuing with whichever leg succeeded (§4.5: "if one fails while the
// other succeeds, continue with the successful one"). A plain
// errgroup.Group (not errgroup.WithContext) is used deliberately: the two
// goroutines never return a non-nil error from the group's perspective, so
// Wait() never triggers the package's auto-cancellation of the sibling
// goroutine — each leg's real outcome is captured in the struct fields
// instead, and the caller decides what a partial failure means.
func gatherCandidates(ctx context.Context, client backendSearcher, vectorStore vectorstore.Store, embed embedFunc, criteria property.SearchCriteria, backendLimit, vectorLimit int) candidateLegs {
	var legs candidateLegs
	var g errgroup.Group

	g.Go(func() error {
		backendCriteria := criteria
		backendCriteria.Page = 1
		backendCriteria.Limit = backendLimit
		res, err := client.Search(ctx, backendCriteria)
		if err != nil {
			legs.BackendErr = err
			return nil
		}
		legs.BackendProperties = res.Properties
		return nil
	})

	g.Go(func() error {
		if criteria.Query == "" {
			return nil
		}
		legs.VectorAttempted = true
		vec, _, err := embed(ctx, criteria.Query)
		if err != nil {
			legs.VectorErr = err
			return nil
		}
		hits, err := vectorStore.Search(ctx, vec, vectorLimit, vectorFilter(criteria))
		if err != nil {
			legs.VectorErr = err
			return nil
		}
		legs.VectorHits = hits
		return nil
	})

	_ = g.Wait()
	return legs
}

// embedFunc narrows embedding.Service.Embed to what candidate generation
// needs (text+model resolution stays the caller's concern).
type embedFunc func(ctx context.Context, text string) ([]float32, bool, error)
