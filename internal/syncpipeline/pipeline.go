// Package syncpipeline implements C5: pulls need-indexing records from the
// Property Backend, embeds them, upserts into the vector store, and
// acknowledges success. Grounded on internal/rag/ingest's batch-then-ack
// shape (fetch bounded batch, per-item failure isolation, idempotent acks),
// adapted from document ingestion to property ingestion.
package syncpipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ripinlibinus/rag-property-assistant/internal/embedding"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/property/embeddoc"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

// PropertyBackend is the subset of the Property Backend contract the sync
// pipeline needs (spec §4.4).
type PropertyBackend interface {
	PendingIngest(ctx context.Context, limit int) ([]property.Property, error)
	MarkIngested(ctx context.Context, properties []property.Property) error
	ResetIngest(ctx context.Context) error
}

type Config struct {
	BatchLimit int
	Interval   time.Duration
	ModelID    string
}

// Pipeline runs sync cycles strictly sequentially; there is no inter-cycle
// concurrency by design (spec §4.4/§5 — the target load doesn't need it and
// sequential cycles are simpler to reason about).
type Pipeline struct {
	backend PropertyBackend
	embed   *embedding.Service
	store   vectorstore.Store
	cfg     Config
	log     zerolog.Logger
}

func New(backend PropertyBackend, embed *embedding.Service, store vectorstore.Store, cfg Config, log zerolog.Logger) *Pipeline {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 200
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Minute
	}
	return &Pipeline{backend: backend, embed: embed, store: store, cfg: cfg, log: log}
}

// CycleSummary is the one log line each cycle publishes per spec §4.4.
type CycleSummary struct {
	Attempted int
	Upserted  int
	Failed    int
}

// RunCycle fetches one bounded batch, builds embedding documents, embeds,
// upserts, and acknowledges successfully-upserted items. A failed embed or
// upsert for one record does not block the rest of the batch; the record
// stays need_ingest=true and is retried next cycle. A failed MarkIngested
// call is logged but not fatal (duplicate upserts are harmless).
func (p *Pipeline) RunCycle(ctx context.Context) (CycleSummary, error) {
	pending, err := p.backend.PendingIngest(ctx, p.cfg.BatchLimit)
	if err != nil {
		return CycleSummary{}, err
	}
	summary := CycleSummary{Attempted: len(pending)}
	if len(pending) == 0 {
		p.log.Info().Int("attempted", 0).Int("upserted", 0).Int("failed", 0).Msg("sync_cycle_summary")
		return summary, nil
	}

	succeeded := make([]property.Property, 0, len(pending))
	for _, rec := range pending {
		doc := embeddoc.Build(rec)
		vec, _, err := p.embed.Embed(ctx, doc, p.cfg.ModelID)
		if err != nil {
			p.log.Warn().Err(err).Str("slug", rec.Slug).Msg("sync_embed_failed")
			summary.Failed++
			continue
		}
		entry := toIndexEntry(rec, vec)
		if err := p.store.Upsert(ctx, entry); err != nil {
			p.log.Warn().Err(err).Str("slug", rec.Slug).Msg("sync_upsert_failed")
			summary.Failed++
			continue
		}
		succeeded = append(succeeded, rec)
		summary.Upserted++
	}

	if len(succeeded) > 0 {
		if err := p.backend.MarkIngested(ctx, succeeded); err != nil {
			p.log.Warn().Err(err).Int("count", len(succeeded)).Msg("sync_mark_ingested_failed")
		}
	}

	p.log.Info().
		Int("attempted", summary.Attempted).
		Int("upserted", summary.Upserted).
		Int("failed", summary.Failed).
		Msg("sync_cycle_summary")
	return summary, nil
}

func toIndexEntry(p property.Property, vec []float32) vectorstore.IndexEntry {
	metadata := map[string]string{
		"property_type": string(p.PropertyType),
		"listing_type":  string(p.ListingType),
		"status":        string(p.Status),
		"city":          p.City,
		"district":      p.District,
		"area":          p.Area,
	}
	if p.InComplex() {
		metadata["in_complex"] = "true"
	} else {
		metadata["in_complex"] = "false"
	}
	ranges := map[string]vectorstore.RangeValue{
		"price":         {Min: p.Price.Min, Max: p.Price.Max},
		"bedrooms":      {Min: p.Bedrooms.Min, Max: p.Bedrooms.Max},
		"bathrooms":     {Min: p.Bathrooms.Min, Max: p.Bathrooms.Max},
		"floors":        {Min: p.Floors.Min, Max: p.Floors.Max},
		"land_area":     {Min: p.LandArea.Min, Max: p.LandArea.Max},
		"building_area": {Min: p.BuildingArea.Min, Max: p.BuildingArea.Max},
	}
	return vectorstore.IndexEntry{
		Slug:       p.Slug,
		SourceKind: string(p.SourceKind),
		Embedding:  vec,
		Metadata:   metadata,
		Ranges:     ranges,
	}
}

// Scheduler runs an initial pass on startup and then every Interval,
// grounded on the teacher's leader-election-free single-process ticking
// loops (e.g. the sync-style loops under internal/rag/ingest).
type Scheduler struct {
	pipeline *Pipeline
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(pipeline *Pipeline, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Minute
	}
	return &Scheduler{pipeline: pipeline, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, running one cycle immediately and then
// one per tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.pipeline.RunCycle(ctx); err != nil {
		s.log.Error().Err(err).Msg("sync_cycle_error")
	}
}
