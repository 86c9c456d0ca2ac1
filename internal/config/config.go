package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnthropicPromptCacheConfig controls Anthropic prompt-caching breakpoints.
// Grounded on the teacher's anthropic.Client, which caches system/tool/message
// blocks independently so repeated tool-heavy turns don't re-bill the same tokens.
type AnthropicPromptCacheConfig struct {
	Enabled       bool `yaml:"enabled"`
	CacheSystem   bool `yaml:"cache_system"`
	CacheTools    bool `yaml:"cache_tools"`
	CacheMessages bool `yaml:"cache_messages"`
}

// AnthropicConfig configures the Anthropic llm.Provider adapter.
type AnthropicConfig struct {
	APIKey      string                     `yaml:"api_key"`
	BaseURL     string                     `yaml:"base_url,omitempty"`
	Model       string                     `yaml:"model"`
	PromptCache AnthropicPromptCacheConfig `yaml:"prompt_cache"`
	ExtraParams map[string]any             `yaml:"extra_params,omitempty"`
}

// OpenAIConfig configures the OpenAI llm.Provider adapter.
type OpenAIConfig struct {
	APIKey       string            `yaml:"api_key"`
	BaseURL      string            `yaml:"base_url,omitempty"`
	Model        string            `yaml:"model"`
	API          string            `yaml:"api,omitempty"` // "completions" (default) or "responses"
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty"`
}

// GoogleConfig configures the Gemini llm.Provider adapter.
type GoogleConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
	Timeout int    `yaml:"timeout_seconds,omitempty"`
}

// LLMClientConfig selects and configures the C7 provider adapter.
type LLMClientConfig struct {
	Provider  string          `yaml:"provider"` // "anthropic" | "openai" | "google"
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Google    GoogleConfig    `yaml:"google"`
}

// BackendConfig points at the consumed Property Backend HTTP API (spec §6).
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EmbeddingConfig configures C3.
type EmbeddingConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url,omitempty"`
	Dimensions      int    `yaml:"dimensions"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// VectorStoreConfig configures C2.
type VectorStoreConfig struct {
	Backend    string `yaml:"backend"` // "memory" | "qdrant"
	QdrantURL  string `yaml:"qdrant_url,omitempty"`
	Collection string `yaml:"collection"`
}

// GeocodingConfig configures C4.
type GeocodingConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key,omitempty"`
	DefaultCity string `yaml:"default_city"`
}

// SyncConfig configures C5's pull-based ingestion schedule.
type SyncConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	BatchSize       int `yaml:"batch_size"`
}

// ABRouterConfig configures C9. Weights is parsed from the file but not
// read by the abrouter package, whose buckets carry their own weights and
// are used as given, without normalization.
type ABRouterConfig struct {
	DefaultMethod string         `yaml:"default_method"`
	Weights       map[string]int `yaml:"weights,omitempty"`
}

// MemoryConfig configures C8's window and auto-summarization thresholds.
type MemoryConfig struct {
	WindowSize         int `yaml:"window_size"`
	SummarizeThreshold int `yaml:"summarize_threshold"`
}

// MetricsConfig configures C10's JSONL sink location.
type MetricsConfig struct {
	Dir string `yaml:"dir"`
}

// EvaluatorConfig configures C11's gold-set evaluation run.
type EvaluatorConfig struct {
	GoldFile string `yaml:"gold_file"`
}

// DatabaseConfig is the Postgres DSN shared by C8's Postgres store and any
// other persistence backend selected at runtime.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// KnowledgeConfig points at the external knowledge-base service consumed by
// C7's get_knowledge tool (spec §1's "knowledge-base ingester for sales
// tips" collaborator). This repo only calls it over HTTP; it never builds
// the index behind it.
type KnowledgeConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ObsConfig controls OpenTelemetry tracing/metrics export
// (internal/observability.InitOTel). Populated from the environment only —
// it isn't meant to be hand-written into a YAML file.
type ObsConfig struct {
	ServiceName    string `yaml:"-"`
	ServiceVersion string `yaml:"-"`
	Environment    string `yaml:"-"`
	OTLP           string `yaml:"-"`
}

// Config is the root configuration for the agent/sync/eval entrypoints.
// Config loading itself is named out of scope for this module's core logic
// (spec §1); these structs exist so the excluded CLI/HTTP layer has
// something concrete to bind flags/env to.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`

	SystemPrompt string `yaml:"system_prompt,omitempty"`

	LLMClient   LLMClientConfig   `yaml:"llm"`
	Backend     BackendConfig     `yaml:"backend"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Geocoding   GeocodingConfig   `yaml:"geocoding"`
	Sync        SyncConfig        `yaml:"sync"`
	ABRouter    ABRouterConfig    `yaml:"ab_router"`
	Memory      MemoryConfig      `yaml:"memory"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Evaluator   EvaluatorConfig   `yaml:"evaluator"`
	Database    DatabaseConfig    `yaml:"database"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge"`
	Obs         ObsConfig         `yaml:"-"`
}

// LoadConfig reads configuration from a YAML file on disk. Load (in
// loader.go) is the env-first entrypoint used by the cmd binaries; this one
// exists for the file-based form named in spec §7.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}
