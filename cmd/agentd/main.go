// Command agentd serves the property-search chat assistant (spec §4.7) over
// a small JSON/SSE HTTP surface, grounded on the teacher's cmd/agentd
// bootstrap sequence (.env load -> logger -> config -> otel -> wiring ->
// mux) with the request handlers rebuilt around Engine.Chat/ChatStream.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ripinlibinus/rag-property-assistant/internal/abrouter"
	"github.com/ripinlibinus/rag-property-assistant/internal/agent"
	"github.com/ripinlibinus/rag-property-assistant/internal/agent/prompts"
	"github.com/ripinlibinus/rag-property-assistant/internal/backend"
	"github.com/ripinlibinus/rag-property-assistant/internal/config"
	"github.com/ripinlibinus/rag-property-assistant/internal/embedding"
	"github.com/ripinlibinus/rag-property-assistant/internal/geocoding"
	"github.com/ripinlibinus/rag-property-assistant/internal/knowledge"
	"github.com/ripinlibinus/rag-property-assistant/internal/llm/providers"
	"github.com/ripinlibinus/rag-property-assistant/internal/memory"
	"github.com/ripinlibinus/rag-property-assistant/internal/metrics"
	"github.com/ripinlibinus/rag-property-assistant/internal/observability"
	"github.com/ripinlibinus/rag-property-assistant/internal/retrieval"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("example.env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		log.Fatal().Err(err).Msg("failed to load config")
	}

	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	shutdown, err := observability.InitOTel(context.Background(), cfg.Obs)
	if err != nil {
		log.Warn().Err(err).Msg("otel init failed, continuing without observability")
		shutdown = nil
	}
	if shutdown != nil {
		defer func() { _ = shutdown(context.Background()) }()
	}

	httpClient := observability.NewHTTPClient(nil)

	backendTimeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	backendClient := backend.New(cfg.Backend.BaseURL, backendTimeout)

	embedSvc := embedding.New(embedding.Config{
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
		ModelID:  cfg.Embedding.Model,
		CacheTTL: time.Duration(cfg.Embedding.CacheTTLSeconds) * time.Second,
	})

	geoSvc := geocoding.New(geocoding.Config{
		PrimaryAPIKey: cfg.Geocoding.APIKey,
		CacheTTL:      time.Hour,
	}, nil)

	var store vectorstore.Store
	switch cfg.VectorStore.Backend {
	case "qdrant":
		qs, err := vectorstore.NewQdrantStore(context.Background(), cfg.VectorStore.QdrantURL, cfg.Embedding.Model, cfg.Embedding.Dimensions, "cosine")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init qdrant vector store")
		}
		store = qs
	default:
		store = vectorstore.NewMemoryStore(cfg.Embedding.Model, cfg.Embedding.Dimensions)
	}

	router := abrouter.New(abrouter.Method(cfg.ABRouter.DefaultMethod))
	metricsSink := metrics.New(cfg.Metrics.Dir, cfg.Metrics.Dir != "")

	retriever := retrieval.New(backendClient, store, embedSvc, geoSvc, router, metricsSink, cfg.Embedding.Model)

	knowledgeTimeout := time.Duration(cfg.Knowledge.TimeoutSeconds) * time.Second
	knowledgeClient := knowledge.New(cfg.Knowledge.BaseURL, knowledgeTimeout)

	var memStore memory.Store
	if cfg.Database.DSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
		if err != nil {
			log.Warn().Err(err).Msg("postgres memory store unavailable, falling back to in-memory")
			memStore = memory.NewInMemoryStore()
		} else {
			pgStore := memory.NewPostgresStore(pool)
			if err := pgStore.Init(context.Background()); err != nil {
				log.Warn().Err(err).Msg("postgres memory store init failed, falling back to in-memory")
				memStore = memory.NewInMemoryStore()
			} else {
				memStore = pgStore
			}
		}
	} else {
		memStore = memory.NewInMemoryStore()
	}

	provider, err := providers.Build(cfg, httpClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build llm provider")
	}

	model := providerModel(cfg)
	summarizer := memory.NewLLMSummarizer(provider, model)
	memMgr := memory.New(memStore, summarizer)

	registry := agent.NewRegistry()
	registry.Register(&agent.SearchPropertiesTool{Retriever: retriever})
	registry.Register(&agent.GetPropertyTool{Backend: backendClient})
	registry.Register(&agent.GetKnowledgeTool{Knowledge: knowledgeClient})
	registry.Register(&agent.GeocodeTool{Geocoder: geoSvc})

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompts.DefaultSystemPrompt()
	}
	engine := agent.New(provider, registry, memMgr, systemPrompt, model)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ready")
	})
	mux.HandleFunc("/chat", handleChat(engine))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Info().Str("addr", addr).Msg("agentd listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
}

func handleChat(engine *agent.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Message == "" {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		if r.Header.Get("Accept") == "text/event-stream" {
			streamChat(ctx, w, engine, req)
			return
		}

		result, err := engine.Chat(ctx, req.Message, req.ThreadID, req.UserID)
		if err != nil {
			log.Error().Err(err).Msg("chat failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": result})
	}
}

func streamChat(ctx context.Context, w http.ResponseWriter, engine *agent.Engine, req chatRequest) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	sink := sseSink{w: w, flusher: fl}
	if err := engine.ChatStream(ctx, req.Message, req.ThreadID, req.UserID, sink); err != nil {
		log.Error().Err(err).Msg("chat stream failed")
	}
}

type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s sseSink) Emit(ev agent.Event) {
	payload := map[string]string{"kind": string(ev.Kind)}
	switch ev.Kind {
	case agent.EventToolCall:
		payload["name"] = ev.Name
		payload["args"] = ev.Args
		payload["tool_id"] = ev.ToolID
	case agent.EventToolResult:
		payload["tool_id"] = ev.ToolID
		payload["content"] = ev.Content
	case agent.EventError:
		payload["error"] = ev.Err.Error()
	default:
		payload["content"] = ev.Content
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Kind, b)
	s.flusher.Flush()
}

func providerModel(cfg config.Config) string {
	switch cfg.LLMClient.Provider {
	case "openai", "local":
		return cfg.LLMClient.OpenAI.Model
	case "google":
		return cfg.LLMClient.Google.Model
	default:
		return cfg.LLMClient.Anthropic.Model
	}
}
