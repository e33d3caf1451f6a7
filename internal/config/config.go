package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL      string
	LLMModelName    string
	GatekeeperModel string
	LLMAPIKey       string
	LLMTimeout      time.Duration

	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingVectorSize int
	EmbeddingBatchSize  int

	SchemaCacheMaxEntries int
	SchemaCacheTTL        time.Duration
	RetrievalTopK         int

	GroundingEnabled      bool
	GroundingThreshold    int
	GroundingMaxPerColumn int
	GroundingCandidateCap int

	DBMaxOpenConns int

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Walk up a few directories looking for a project-level .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	llmModelName := getEnv("LLM_MODEL", "sqlcoder")

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       llmModelName,
		GatekeeperModel:    getEnv("GATEKEEPER_MODEL", llmModelName),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "paraphrase-multilingual-MiniLM-L12-v2"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	// EMBEDDING_VECTOR_SIZE must match the output size of the embeddings model.
	vectorSizeStr := getEnv("EMBEDDING_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	cfg.EmbeddingVectorSize = vectorSize

	if cfg.EmbeddingBatchSize, err = getPositiveInt("EMBEDDING_BATCH_SIZE", 32); err != nil {
		return nil, err
	}
	if cfg.SchemaCacheMaxEntries, err = getPositiveInt("SCHEMA_CACHE_MAX_ENTRIES", 10); err != nil {
		return nil, err
	}
	if cfg.RetrievalTopK, err = getPositiveInt("RETRIEVAL_TOP_K", 3); err != nil {
		return nil, err
	}
	if cfg.GroundingMaxPerColumn, err = getPositiveInt("GROUNDING_MAX_PER_COLUMN", 5); err != nil {
		return nil, err
	}
	if cfg.GroundingCandidateCap, err = getPositiveInt("GROUNDING_CANDIDATE_CAP", 100); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns, err = getPositiveInt("DB_MAX_OPEN_CONNS", 5); err != nil {
		return nil, err
	}

	threshold, err := strconv.Atoi(getEnv("GROUNDING_THRESHOLD", "70"))
	if err != nil {
		return nil, fmt.Errorf("GROUNDING_THRESHOLD must be a valid integer: %w", err)
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("GROUNDING_THRESHOLD must be between 0 and 100")
	}
	cfg.GroundingThreshold = threshold

	if cfg.GroundingEnabled, err = strconv.ParseBool(getEnv("GROUNDING_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("GROUNDING_ENABLED must be a boolean: %w", err)
	}

	if cfg.SchemaCacheTTL, err = getDuration("SCHEMA_CACHE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

// getDuration accepts Go duration strings ("90s", "10m") or plain seconds.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", raw)
	}
}
