// ABOUTME: Centralized configuration for the ragmem CLI, MCP server and HTTP API
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/validation"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Default model names per provider
const (
	DefaultOpenAIChatModel      = "gpt-4o-mini"
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultGeminiChatModel      = "gemini-2.5-flash"
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
)

// Config holds all configuration for ragmem
type Config struct {
	Env      string `env:"RAGMEM_ENV" validate:"oneof=prod dev local"`
	LogLevel string `env:"RAGMEM_LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`

	// Provider settings
	Provider       string        `env:"LLM_PROVIDER" validate:"oneof=openai gemini"`
	OpenAIKey      string        `env:"OPENAI_API_KEY" validate:"required_if=Provider openai"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL" validate:"omitempty,url"`
	GoogleAPIKey   string        `env:"GOOGLE_API_KEY" validate:"required_if=Provider gemini"`
	ChatModel      string        `env:"RAGMEM_CHAT_MODEL" validate:"required"`
	EmbeddingModel string        `env:"RAGMEM_EMBEDDING_MODEL" validate:"required"`
	Timeout        time.Duration `env:"LLM_TIMEOUT" validate:"gt=0"`
	MaxRetries     int           `env:"LLM_MAX_RETRIES" validate:"gte=0,lte=10"`
	RetryDelay     time.Duration `env:"LLM_RETRY_DELAY" validate:"gte=0"`
	// RateLimit is requests per second across all provider calls; 0 disables
	RateLimit float64 `env:"LLM_RATE_LIMIT" validate:"gte=0"`
	// BreakerFailures opens the circuit after this many consecutive failures; 0 disables
	BreakerFailures uint32 `env:"LLM_BREAKER_FAILURES"`

	// Storage locations
	DataDir   string `env:"RAGMEM_DATA_DIR" validate:"required"`
	DocsDir   string `env:"RAGMEM_DOCS_DIR" validate:"required"`
	IndexDir  string `env:"RAGMEM_INDEX_DIR" validate:"required"`
	MemoryDir string `env:"RAGMEM_MEMORY_DIR" validate:"required"`

	// Pipeline settings
	ChunkSize    int `env:"RAGMEM_CHUNK_SIZE" validate:"gt=0"`
	ChunkOverlap int `env:"RAGMEM_CHUNK_OVERLAP" validate:"gte=0,ltfield=ChunkSize"`
	TopK         int `env:"RAGMEM_TOP_K" validate:"gte=1,lte=50"`
	// MemoryThreshold is the confidence gate, in (0, 1]
	MemoryThreshold float64 `env:"RAGMEM_MEMORY_THRESHOLD" validate:"gt=0,lte=1"`

	// Surfaces
	HTTPAddr       string        `env:"RAGMEM_HTTP_ADDR" validate:"required"`
	MetricsEnabled bool          `env:"RAGMEM_METRICS"`
	WatchDebounce  time.Duration `env:"RAGMEM_WATCH_DEBOUNCE" validate:"gte=0"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	provider := getEnv("LLM_PROVIDER", ProviderGemini)
	chatDefault, embedDefault := DefaultOpenAIChatModel, DefaultOpenAIEmbeddingModel
	if provider == ProviderGemini {
		chatDefault, embedDefault = DefaultGeminiChatModel, DefaultGeminiEmbeddingModel
	}

	dataDir := getEnv("RAGMEM_DATA_DIR", filepath.Join(xdg.DataHome, "ragmem"))

	cfg := &Config{
		Env:             getEnv("RAGMEM_ENV", "local"),
		LogLevel:        os.Getenv("RAGMEM_LOG_LEVEL"),
		Provider:        provider,
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		ChatModel:       getEnv("RAGMEM_CHAT_MODEL", chatDefault),
		EmbeddingModel:  getEnv("RAGMEM_EMBEDDING_MODEL", embedDefault),
		Timeout:         getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		MaxRetries:      getEnvInt("LLM_MAX_RETRIES", 3),
		RetryDelay:      getEnvDuration("LLM_RETRY_DELAY", 2*time.Second),
		RateLimit:       getEnvFloat("LLM_RATE_LIMIT", 0),
		BreakerFailures: uint32(getEnvInt("LLM_BREAKER_FAILURES", 5)),
		DataDir:         dataDir,
		DocsDir:         getEnv("RAGMEM_DOCS_DIR", filepath.Join(dataDir, "docs")),
		IndexDir:        getEnv("RAGMEM_INDEX_DIR", filepath.Join(dataDir, "index")),
		MemoryDir:       getEnv("RAGMEM_MEMORY_DIR", dataDir),
		ChunkSize:       getEnvInt("RAGMEM_CHUNK_SIZE", 1000),
		ChunkOverlap:    getEnvInt("RAGMEM_CHUNK_OVERLAP", 200),
		TopK:            getEnvInt("RAGMEM_TOP_K", 4),
		MemoryThreshold: getEnvFloat("RAGMEM_MEMORY_THRESHOLD", 0.7),
		HTTPAddr:        getEnv("RAGMEM_HTTP_ADDR", ":8080"),
		MetricsEnabled:  getEnvBool("RAGMEM_METRICS", true),
		WatchDebounce:   getEnvDuration("RAGMEM_WATCH_DEBOUNCE", 2*time.Second),
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and that the selected provider has a credential
func (c *Config) Validate() error {
	return validation.Struct(c)
}

// APIKey returns the credential for the selected provider
func (c *Config) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.GoogleAPIKey
}

// ProviderOptions translates the provider settings for llm.New
func (c *Config) ProviderOptions(logger *zap.Logger) llm.Options {
	policy := llm.DefaultPolicy()
	policy.Timeout = c.Timeout
	policy.MaxRetries = c.MaxRetries
	policy.RetryDelay = c.RetryDelay
	policy.RateLimit = c.RateLimit
	policy.BreakerFailures = c.BreakerFailures

	return llm.Options{
		Provider:       c.Provider,
		APIKey:         c.APIKey(),
		BaseURL:        c.OpenAIBaseURL,
		ChatModel:      c.ChatModel,
		EmbeddingModel: c.EmbeddingModel,
		Policy:         policy,
		Logger:         logger,
	}
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
