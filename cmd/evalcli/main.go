// Command evalcli runs C11's gold-set evaluation: for each gold question,
// retrieve properties through C6's hybrid retriever and score the run
// against the expected constraints (spec §4.11).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ripinlibinus/rag-property-assistant/internal/abrouter"
	"github.com/ripinlibinus/rag-property-assistant/internal/backend"
	"github.com/ripinlibinus/rag-property-assistant/internal/config"
	"github.com/ripinlibinus/rag-property-assistant/internal/embedding"
	"github.com/ripinlibinus/rag-property-assistant/internal/evaluator"
	"github.com/ripinlibinus/rag-property-assistant/internal/geocoding"
	"github.com/ripinlibinus/rag-property-assistant/internal/metrics"
	"github.com/ripinlibinus/rag-property-assistant/internal/observability"
	"github.com/ripinlibinus/rag-property-assistant/internal/property"
	"github.com/ripinlibinus/rag-property-assistant/internal/retrieval"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

func main() {
	goldFile := flag.String("gold", "", "path to the gold-question JSON file (defaults to config evaluator.gold_file)")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("example.env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	path := *goldFile
	if path == "" {
		path = cfg.Evaluator.GoldFile
	}
	if path == "" {
		log.Fatal().Msg("no gold file configured: pass -gold or set evaluator.gold_file")
	}

	questions, thresholdT, priceTolerance, err := evaluator.LoadGoldStandard(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load gold standard")
	}

	backendTimeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	backendClient := backend.New(cfg.Backend.BaseURL, backendTimeout)
	embedSvc := embedding.New(embedding.Config{
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
		ModelID:  cfg.Embedding.Model,
		CacheTTL: time.Duration(cfg.Embedding.CacheTTLSeconds) * time.Second,
	})
	geoSvc := geocoding.New(geocoding.Config{PrimaryAPIKey: cfg.Geocoding.APIKey}, nil)
	store := vectorstore.NewMemoryStore(cfg.Embedding.Model, cfg.Embedding.Dimensions)
	router := abrouter.New(abrouter.Method(cfg.ABRouter.DefaultMethod))
	retriever := retrieval.New(backendClient, store, embedSvc, geoSvc, router, metrics.Disabled(), cfg.Embedding.Model)

	ctx := context.Background()
	results := make([]evaluator.TestResult, 0, len(questions))
	for _, q := range questions {
		criteria := criteriaFromQuestion(q)
		res, err := retriever.Retrieve(ctx, criteria, "evalcli", nil)
		if err != nil {
			log.Warn().Err(err).Str("question_id", q.ID).Msg("retrieve failed, recording empty result")
			results = append(results, evaluator.TestResult{QueryID: q.ID})
			continue
		}
		results = append(results, evaluator.TestResult{QueryID: q.ID, Properties: res.Properties})
	}

	tT := 0.8
	if thresholdT != nil {
		tT = *thresholdT
	}
	pTol := 0.1
	if priceTolerance != nil {
		pTol = *priceTolerance
	}
	eval := evaluator.New(tT, pTol)

	_, metricsOut := evaluator.RunEvaluation(eval, questions, results)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metricsOut); err != nil {
		log.Fatal().Err(err).Msg("failed to encode metrics")
	}
}

// criteriaFromQuestion maps a gold question's checkable constraints onto a
// SearchCriteria the same way C7's search_properties tool would, so the
// offline run exercises the identical retrieval path a live chat turn does.
func criteriaFromQuestion(q evaluator.GoldQuestion) property.SearchCriteria {
	c := property.SearchCriteria{Query: q.Question, Limit: property.MaxLimit}

	if q.Constraints.Location != nil && len(q.Constraints.Location.Keywords) > 0 {
		c.LocationKeyword = q.Constraints.Location.Keywords[0]
	}
	if q.Constraints.Location.HasGeo() {
		c.Latitude = q.Constraints.Location.Lat
		c.Longitude = q.Constraints.Location.Lng
		c.RadiusKm = q.Constraints.Location.RadiusKm
	}
	if p := q.Constraints.Price; p != nil {
		if p.Min != nil {
			min := int64(*p.Min)
			c.PriceMin = &min
		}
		if p.Max != nil {
			max := int64(*p.Max)
			c.PriceMax = &max
		}
		if p.Target != nil && p.Tolerance != nil {
			min := int64(*p.Target * (1 - *p.Tolerance))
			max := int64(*p.Target * (1 + *p.Tolerance))
			c.PriceMin = &min
			c.PriceMax = &max
		}
	}
	if b := q.Constraints.Bedrooms; b != nil {
		if b.Exact != nil {
			c.BedroomsMin, c.BedroomsMax = b.Exact, b.Exact
		} else {
			c.BedroomsMin, c.BedroomsMax = b.Min, b.Max
		}
	}
	if f := q.Constraints.Floors; f != nil {
		if f.Exact != nil {
			c.FloorsMin, c.FloorsMax = f.Exact, f.Exact
		} else {
			c.FloorsMin, c.FloorsMax = f.Min, f.Max
		}
	}
	return c
}
