// Package embedding implements C3: text→vector with a process-local TTL
// cache. The provider call itself is a plain JSON HTTP POST, the same shape
// the teacher codebase uses for this exact concern — no third-party HTTP
// client appears anywhere in the pack for simple request/response JSON.
package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ripinlibinus/rag-property-assistant/internal/apperr"
	"github.com/ripinlibinus/rag-property-assistant/internal/cache"
)

// Config binds the "embedding.*" recognized options from spec §6.
type Config struct {
	BaseURL   string
	Path      string
	APIHeader string
	APIKey    string
	ModelID   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheMax  int
}

// Service is the C3 contract: Embed(text, modelID) -> vector, deterministic
// and cacheable within TTL.
type Service struct {
	cfg    Config
	client *http.Client
	cache  *cache.TTLCache
}

func New(cfg Config, opts ...cache.Option) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	maxSize := cfg.CacheMax
	if maxSize <= 0 {
		maxSize = 2000
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache.New(ttl, maxSize, opts...),
	}
}

// Embed returns the embedding for text under modelID, and whether the
// result was served from cache (consumed by C10's cache-hit bit).
func (s *Service) Embed(ctx context.Context, text, modelID string) ([]float32, bool, error) {
	if modelID == "" {
		modelID = s.cfg.ModelID
	}
	key := cacheKey(text, modelID)
	if cached, ok := s.cache.Get(ctx, key); ok {
		vec, err := decodeVector(cached)
		if err == nil {
			return vec, true, nil
		}
		// Corrupt cache entry; fall through to re-embed rather than fail.
	}

	vecs, err := s.embedBatch(ctx, []string{text}, modelID)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindEmbeddingFailed, "embed text", err)
	}
	vec := vecs[0]
	if encoded, err := encodeVector(vec); err == nil {
		s.cache.Set(ctx, key, encoded)
	}
	return vec, false, nil
}

// EmbedBatch embeds multiple texts in one provider call, bypassing the
// cache (used by the sync pipeline, which writes fresh vectors anyway).
func (s *Service) EmbedBatch(ctx context.Context, texts []string, modelID string) ([][]float32, error) {
	return s.embedBatch(ctx, texts, modelID)
}

func cacheKey(text, modelID string) string {
	sum := sha256.Sum256([]byte(text))
	return modelID + ":" + hex.EncodeToString(sum[:])
}

type embedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResp struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (s *Service) embedBatch(ctx context.Context, inputs []string, modelID string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs")
	}
	if modelID == "" {
		modelID = s.cfg.ModelID
	}
	body, _ := json.Marshal(embedReq{Model: modelID, Input: inputs})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+s.cfg.Path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if s.cfg.APIHeader == "Authorization" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	} else if s.cfg.APIHeader != "" {
		req.Header.Set(s.cfg.APIHeader, s.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("embeddings error: %s: %s", resp.Status, string(raw))
	}
	var er embedResp
	if err := json.Unmarshal(raw, &er); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(er.Data) != len(inputs) {
		return nil, fmt.Errorf("unexpected embedding count: got %d, want %d", len(er.Data), len(inputs))
	}
	out := make([][]float32, len(er.Data))
	for i := range er.Data {
		out[i] = er.Data[i].Embedding
	}
	return out, nil
}

// CheckReachability sends a small probe request to verify the endpoint is
// configured correctly.
func (s *Service) CheckReachability(ctx context.Context) error {
	_, err := s.embedBatch(ctx, []string{"ping"}, "")
	if err != nil {
		return fmt.Errorf("embedding endpoint reachability check failed: %w", err)
	}
	return nil
}

func encodeVector(v []float32) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeVector(s string) ([]float32, error) {
	var v []float32
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
