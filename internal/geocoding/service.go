// Package geocoding implements C4: place-name -> (lat,lng) resolution with
// a preseeded dictionary of domain landmarks, a TTL cache, and primary/
// fallback HTTP providers, grounded on the same cache/HTTP client shape as
// internal/embedding.
package geocoding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ripinlibinus/rag-property-assistant/internal/apperr"
	"github.com/ripinlibinus/rag-property-assistant/internal/cache"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
)

// Config binds the "geocoding.*" recognized options from spec §6.
type Config struct {
	PrimaryBaseURL  string
	PrimaryAPIKey   string
	FallbackBaseURL string
	FallbackUserAgent string
	CallBudget      time.Duration
	CacheTTL        time.Duration
	CacheMax        int
}

// Service is the C4 contract.
type Service struct {
	cfg        Config
	client     *http.Client
	cache      *cache.TTLCache
	dictionary map[string]property.LatLng
}

func New(cfg Config, dictionary map[string]property.LatLng, opts ...cache.Option) *Service {
	if cfg.CallBudget <= 0 {
		cfg.CallBudget = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxSize := cfg.CacheMax
	if maxSize <= 0 {
		maxSize = 500
	}
	dict := make(map[string]property.LatLng, len(dictionary))
	for k, v := range dictionary {
		dict[normalizeKey(k)] = v
	}
	return &Service{
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.CallBudget},
		cache:      cache.New(ttl, maxSize, opts...),
		dictionary: dict,
	}
}

func normalizeKey(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

// Geocode resolves place within the resolution order required by spec
// §4.3: preseeded dictionary exact match, then TTL cache, then primary
// provider, then fallback provider. A non-dictionary hit is written to the
// runtime cache but never to the preseeded dictionary. The whole call is
// bounded by cfg.CallBudget across both providers.
func (s *Service) Geocode(ctx context.Context, place, defaultCity string) (*property.LatLng, error) {
	key := normalizeKey(place)
	if ll, ok := s.dictionary[key]; ok {
		return &ll, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallBudget)
	defer cancel()

	cacheKey := key + "|" + normalizeKey(defaultCity)
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		ll, err := decodeLatLng(cached)
		if err == nil {
			return &ll, nil
		}
	}

	query := place
	if defaultCity != "" {
		query = place + ", " + defaultCity
	}

	if s.cfg.PrimaryBaseURL != "" {
		if ll, err := s.callProvider(ctx, s.cfg.PrimaryBaseURL, query, s.primaryHeaders); err == nil {
			s.cacheResult(ctx, cacheKey, ll)
			return ll, nil
		}
	}
	if s.cfg.FallbackBaseURL != "" {
		if ll, err := s.callProvider(ctx, s.cfg.FallbackBaseURL, query, s.fallbackHeaders); err == nil {
			s.cacheResult(ctx, cacheKey, ll)
			return ll, nil
		}
	}
	return nil, apperr.New(apperr.KindGeocodeFailed, "no provider resolved place: "+place)
}

func (s *Service) cacheResult(ctx context.Context, key string, ll *property.LatLng) {
	if encoded, err := encodeLatLng(*ll); err == nil {
		s.cache.Set(ctx, key, encoded)
	}
}

func (s *Service) primaryHeaders(req *http.Request) {
	if s.cfg.PrimaryAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.PrimaryAPIKey)
	}
}

func (s *Service) fallbackHeaders(req *http.Request) {
	ua := s.cfg.FallbackUserAgent
	if ua == "" {
		ua = "rag-property-assistant/1.0"
	}
	req.Header.Set("User-Agent", ua)
}

type geocodeResp struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (s *Service) callProvider(ctx context.Context, baseURL, query string, configure func(*http.Request)) (*property.LatLng, error) {
	body, _ := json.Marshal(map[string]string{"q": query})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	configure(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("geocoder error: %s: %s", resp.Status, string(raw))
	}
	var gr geocodeResp
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, fmt.Errorf("parse geocoder response: %w", err)
	}
	return &property.LatLng{Lat: gr.Lat, Lng: gr.Lng}, nil
}

func encodeLatLng(ll property.LatLng) (string, error) {
	b, err := json.Marshal(ll)
	return string(b), err
}

func decodeLatLng(s string) (property.LatLng, error) {
	var ll property.LatLng
	err := json.Unmarshal([]byte(s), &ll)
	return ll, err
}
