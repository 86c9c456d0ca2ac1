package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables (optionally .env),
// grounded on the teacher's env-first Load() in loader.go: read every
// recognized var with no defaults applied yet, then backfill defaults in
// one pass at the end.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Config{}

	cfg.Host = strings.TrimSpace(os.Getenv("HOST"))
	cfg.Port = intFromEnv("PORT", 0)
	cfg.LogPath = strings.TrimSpace(os.Getenv("LOG_PATH"))
	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	cfg.SystemPrompt = strings.TrimSpace(os.Getenv("SYSTEM_PROMPT"))

	cfg.LLMClient.Provider = strings.TrimSpace(os.Getenv("LLM_PROVIDER"))
	cfg.LLMClient.Anthropic.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	cfg.LLMClient.Anthropic.BaseURL = strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL"))
	cfg.LLMClient.Anthropic.Model = strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL"))
	cfg.LLMClient.Anthropic.PromptCache.Enabled = os.Getenv("ANTHROPIC_PROMPT_CACHE_ENABLED") == "true"
	cfg.LLMClient.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.LLMClient.OpenAI.BaseURL = firstNonEmpty(strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")), strings.TrimSpace(os.Getenv("OPENAI_API_BASE_URL")))
	cfg.LLMClient.OpenAI.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	cfg.LLMClient.OpenAI.API = strings.TrimSpace(os.Getenv("OPENAI_API_MODE"))
	cfg.LLMClient.Google.APIKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	cfg.LLMClient.Google.BaseURL = strings.TrimSpace(os.Getenv("GOOGLE_BASE_URL"))
	cfg.LLMClient.Google.Model = strings.TrimSpace(os.Getenv("GOOGLE_MODEL"))
	cfg.LLMClient.Google.Timeout = intFromEnv("GOOGLE_TIMEOUT_SECONDS", 0)

	cfg.Backend.BaseURL = strings.TrimSpace(os.Getenv("PROPERTY_BACKEND_URL"))
	cfg.Backend.TimeoutSeconds = intFromEnv("PROPERTY_BACKEND_TIMEOUT_SECONDS", 0)

	cfg.Embedding.Provider = strings.TrimSpace(os.Getenv("EMBEDDING_PROVIDER"))
	cfg.Embedding.Model = strings.TrimSpace(os.Getenv("EMBEDDING_MODEL"))
	cfg.Embedding.APIKey = strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY"))
	cfg.Embedding.BaseURL = strings.TrimSpace(os.Getenv("EMBEDDING_BASE_URL"))
	cfg.Embedding.Dimensions = intFromEnv("EMBEDDING_DIMENSIONS", 0)
	cfg.Embedding.CacheTTLSeconds = intFromEnv("EMBEDDING_CACHE_TTL_SECONDS", 0)

	cfg.VectorStore.Backend = strings.TrimSpace(os.Getenv("VECTOR_STORE_BACKEND"))
	cfg.VectorStore.QdrantURL = strings.TrimSpace(os.Getenv("QDRANT_URL"))
	cfg.VectorStore.Collection = strings.TrimSpace(os.Getenv("VECTOR_STORE_COLLECTION"))

	cfg.Geocoding.Provider = strings.TrimSpace(os.Getenv("GEOCODING_PROVIDER"))
	cfg.Geocoding.APIKey = strings.TrimSpace(os.Getenv("GEOCODING_API_KEY"))
	cfg.Geocoding.DefaultCity = strings.TrimSpace(os.Getenv("GEOCODING_DEFAULT_CITY"))

	cfg.Sync.IntervalSeconds = intFromEnv("SYNC_INTERVAL_SECONDS", 0)
	cfg.Sync.BatchSize = intFromEnv("SYNC_BATCH_SIZE", 0)

	cfg.ABRouter.DefaultMethod = strings.TrimSpace(os.Getenv("AB_ROUTER_DEFAULT_METHOD"))

	cfg.Memory.WindowSize = intFromEnv("MEMORY_WINDOW_SIZE", 0)
	cfg.Memory.SummarizeThreshold = intFromEnv("MEMORY_SUMMARIZE_THRESHOLD", 0)

	cfg.Metrics.Dir = strings.TrimSpace(os.Getenv("METRICS_DIR"))

	cfg.Evaluator.GoldFile = strings.TrimSpace(os.Getenv("EVAL_GOLD_FILE"))

	cfg.Database.DSN = firstNonEmpty(strings.TrimSpace(os.Getenv("DATABASE_URL")), strings.TrimSpace(os.Getenv("DB_URL")), strings.TrimSpace(os.Getenv("POSTGRES_DSN")))

	cfg.Knowledge.BaseURL = strings.TrimSpace(os.Getenv("KNOWLEDGE_SERVICE_URL"))
	cfg.Knowledge.TimeoutSeconds = intFromEnv("KNOWLEDGE_SERVICE_TIMEOUT_SECONDS", 0)

	cfg.Obs.ServiceName = strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME"))
	cfg.Obs.ServiceVersion = strings.TrimSpace(os.Getenv("SERVICE_VERSION"))
	cfg.Obs.Environment = strings.TrimSpace(os.Getenv("ENVIRONMENT"))
	cfg.Obs.OTLP = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))

	applyDefaults(&cfg)
	return cfg, nil
}

// applyDefaults backfills every field a caller may have left unset,
// whether cfg came from Load (env) or LoadConfig (YAML file).
func applyDefaults(cfg *Config) {
	if cfg.Port <= 0 {
		cfg.Port = 8080
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogPath == "" {
		cfg.LogPath = "agentd.log"
	}
	if cfg.LLMClient.Provider == "" {
		cfg.LLMClient.Provider = "anthropic"
	}
	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 15
	}
	if cfg.Embedding.Dimensions <= 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheTTLSeconds <= 0 {
		cfg.Embedding.CacheTTLSeconds = 3600
	}
	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = "memory"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "properties"
	}
	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 300
	}
	if cfg.Sync.BatchSize <= 0 {
		cfg.Sync.BatchSize = 100
	}
	if cfg.ABRouter.DefaultMethod == "" {
		cfg.ABRouter.DefaultMethod = "hybrid"
	}
	if cfg.Memory.WindowSize <= 0 {
		cfg.Memory.WindowSize = 20
	}
	if cfg.Memory.SummarizeThreshold <= 0 {
		cfg.Memory.SummarizeThreshold = 50
	}
	if cfg.Metrics.Dir == "" {
		cfg.Metrics.Dir = "./metrics"
	}
	if cfg.Obs.ServiceName == "" {
		cfg.Obs.ServiceName = "rag-property-assistant"
	}
	if cfg.Obs.Environment == "" {
		cfg.Obs.Environment = "dev"
	}
	if cfg.Knowledge.TimeoutSeconds <= 0 {
		cfg.Knowledge.TimeoutSeconds = 10
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := parseInt(v)
	if err != nil {
		return def
	}
	return n
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
