package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadIDField stores the original slug in the point payload, since
// Qdrant point IDs must be a UUID or a positive integer and slugs are
// neither. One collection per model_id keeps side-by-side model
// comparisons from colliding.
const payloadIDField = "_original_slug"

type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
	metric     string

	// upsertMu serializes all upserts (and so those for any one slug), satisfying the spec's
	// single-writer-per-slug requirement even though the Qdrant client
	// itself is safe for concurrent use.
	upsertMu sync.Mutex
}

// NewQdrantStore connects to Qdrant over its gRPC API (default port 6334)
// and ensures the collection for modelID exists with the requested
// dimension and distance metric. dsn may carry an api_key query parameter:
// "http://localhost:6334?api_key=...".
func NewQdrantStore(ctx context.Context, dsn, modelID string, dimensions int, metric string) (*QdrantStore, error) {
	if modelID == "" {
		return nil, fmt.Errorf("model_id is required to select a collection")
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := parsed.Port()
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant dsn: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: port}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	qs := &QdrantStore{
		client:     client,
		collection: collectionName(modelID),
		dimension:  dimensions,
		metric:     strings.ToLower(strings.TrimSpace(metric)),
	}
	if err := qs.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return qs, nil
}

func collectionName(modelID string) string {
	return "properties__" + modelID
}

func (q *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	if q.dimension <= 0 {
		return fmt.Errorf("qdrant requires dimensions > 0")
	}
	var distance qdrant.Distance
	switch q.metric {
	case "l2", "euclidean", "euclid":
		distance = qdrant.Distance_Euclid
	case "ip", "dot":
		distance = qdrant.Distance_Dot
	case "manhattan":
		distance = qdrant.Distance_Manhattan
	default:
		distance = qdrant.Distance_Cosine
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: distance,
		}),
	})
}

func pointIDFor(slug string) string {
	if _, err := uuid.Parse(slug); err == nil {
		return slug
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(slug)).String()
}

func (q *QdrantStore) Upsert(ctx context.Context, entry IndexEntry) error {
	if len(entry.Embedding) != q.dimension {
		return &ErrDimensionMismatch{Expected: q.dimension, Got: len(entry.Embedding)}
	}
	q.upsertMu.Lock()
	defer q.upsertMu.Unlock()

	payload := make(map[string]any, len(entry.Metadata)+len(entry.Ranges)+2)
	for k, v := range entry.Metadata {
		payload[k] = v
	}
	for k, r := range entry.Ranges {
		payload[k+"_min"] = r.Min
		payload[k+"_max"] = r.Max
	}
	payload[payloadIDField] = entry.Slug
	payload["source_kind"] = entry.SourceKind

	vec := make([]float32, len(entry.Embedding))
	copy(vec, entry.Embedding)

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(pointIDFor(entry.Slug)),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	return err
}

func (q *QdrantStore) Delete(ctx context.Context, slug string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(pointIDFor(slug))),
	})
	return err
}

func (q *QdrantStore) Search(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)

	var qf *qdrant.Filter
	if len(filter.Equals) > 0 || len(filter.RangeOverlaps) > 0 {
		qf = &qdrant.Filter{}
		for field, val := range filter.Equals {
			qf.Must = append(qf.Must, qdrant.NewMatch(field, val))
		}
		for field, rq := range filter.RangeOverlaps {
			// A range filter field is satisfied when [field_min,field_max]
			// overlaps the requested [rq.Min, rq.Max]; Qdrant range
			// conditions only support one side at a time, so the overlap
			// test is expressed as the stored max >= query min AND the
			// stored min <= query max.
			if rq.HasMin {
				gte := rq.Min
				qf.Must = append(qf.Must, qdrant.NewRange(field+"_max", &qdrant.Range{Gte: &gte}))
			}
			if rq.HasMax {
				lte := rq.Max
				qf.Must = append(qf.Must, qdrant.NewRange(field+"_min", &qdrant.Range{Lte: &lte}))
			}
		}
	}

	limit := uint64(k)
	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         qf,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		slug := ""
		metadata := make(map[string]string)
		if r.Payload != nil {
			for k, v := range r.Payload {
				if k == payloadIDField {
					slug = v.GetStringValue()
					continue
				}
				if s := v.GetStringValue(); s != "" {
					metadata[k] = s
				}
			}
		}
		if slug == "" {
			slug = r.Id.GetUuid()
		}
		hits = append(hits, Hit{Slug: slug, Score: normalizeScore(float64(r.Score), q.metric), Metadata: metadata})
	}
	return hits, nil
}

// normalizeScore maps the distance-metric-specific score Qdrant returns
// into [0,1] so callers can compare cosine and dot-product stores alike,
// per spec §4.1 ("score ∈ [0,1] after normalization").
func normalizeScore(raw float64, metric string) float64 {
	switch metric {
	case "cosine", "":
		// Qdrant cosine score is already in [-1,1]; rescale to [0,1].
		v := (raw + 1) / 2
		return clamp01(v)
	default:
		return clamp01(raw)
	}
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

func (q *QdrantStore) Stats(ctx context.Context) (Stats, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Count:   int(info.GetPointsCount()),
		Dim:     q.dimension,
		ModelID: strings.TrimPrefix(q.collection, "properties__"),
	}, nil
}

func (q *QdrantStore) Close() error { return q.client.Close() }
