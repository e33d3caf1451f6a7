package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nl2sql-grounding/internal/config"
	"nl2sql-grounding/internal/gatekeeper"
	"nl2sql-grounding/internal/grounding"
	"nl2sql-grounding/internal/http"
	"nl2sql-grounding/internal/llm"
	"nl2sql-grounding/internal/rag"
	"nl2sql-grounding/internal/schema"
	"nl2sql-grounding/internal/schemaindex"
	"nl2sql-grounding/internal/service"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API turns natural-language questions about relational databases into read-only SQL.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: NL2SQL Grounding API
//   description: |
//     Schema-linking and value-grounding API for natural-language to SQL generation.
//     Connect a SQLite or PostgreSQL database by connection string, then ask questions
//     in English or Thai. Each answer lists the tables used and the live values matched
//     to the question.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize, cfg.EmbeddingBatchSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.EmbeddingVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d", cfg.EmbeddingVectorSize)
	}
	slog.Info("Embedding client validated", "vector_size", cfg.EmbeddingVectorSize, "batch_size", cfg.EmbeddingBatchSize)

	// Target databases are opened per request through the connector
	connector := schema.NewConnector(cfg.DBMaxOpenConns)
	introspector := schema.NewIntrospector(connector)

	cache := schemaindex.New(introspector, embedder, schemaindex.Options{
		MaxEntries: cfg.SchemaCacheMaxEntries,
		TTL:        cfg.SchemaCacheTTL,
	})
	slog.Info("Schema cache initialized", "max_entries", cfg.SchemaCacheMaxEntries, "ttl", cfg.SchemaCacheTTL.String())

	var grounder *grounding.Grounder
	if cfg.GroundingEnabled {
		grounder = grounding.NewGrounder(grounding.Options{
			Threshold:    cfg.GroundingThreshold,
			MaxPerColumn: cfg.GroundingMaxPerColumn,
			CandidateCap: cfg.GroundingCandidateCap,
		})
	}
	slog.Info("Value grounding configured", "enabled", cfg.GroundingEnabled, "threshold", cfg.GroundingThreshold)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)

	engine := rag.NewEngine(
		cache,
		rag.NewRetriever(embedder),
		connector,
		grounder,
		llmClient,
		cfg.LLMModelName,
	)
	classifier := gatekeeper.New(llmClient, cfg.GatekeeperModel, cache)
	queryService := service.NewQueryService(classifier, engine, cache, cfg.RetrievalTopK)
	slog.Info("Query service initialized", "model", cfg.LLMModelName, "gatekeeper_model", cfg.GatekeeperModel)

	// Create router with dependencies
	deps := &http.Deps{
		QueryService: queryService,
		LLM:          llmClient,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down API server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()

	// Start API server
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}
