// Package config loads service configuration from the environment,
// optionally seeded from .env files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type LLMConfig struct {
	// BaseURL of the OpenAI-compatible completion API.
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout in seconds for one completion request.
	Timeout    int
	MaxRetries int
	RetryDelay int
}

type Config struct {
	LLM LLMConfig

	// Built-in tool provider backends.
	GalleryServiceURL string
	RAGServiceURL     string

	// PublicBaseURL prefixes gallery file paths in final answers so they
	// resolve outside the cluster.
	PublicBaseURL string

	// DatabaseURL enables the Postgres-backed dynamic server registry.
	// Empty means the in-memory store.
	DatabaseURL string

	ListenAddr string
	LogLevel   string
	LogFormat  string

	// ExchangeLogDir is where admin-driven chat exchanges are appended.
	ExchangeLogDir string

	// ToolRoundLimit caps completion rounds per chat turn, all call sites.
	ToolRoundLimit int

	// ContextMessages is how many trailing history messages each request
	// carries; AdminContextMessages is the admin bot's window.
	ContextMessages      int
	AdminContextMessages int
}

// LoadEnvFiles loads .env.local then .env if present. Missing files are
// not an error.
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_API_URL", "https://api.deepseek.com/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "deepseek-chat"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 0),
			Timeout:     getEnvInt("LLM_TIMEOUT", 60),
			MaxRetries:  getEnvInt("LLM_MAX_RETRIES", 0),
			RetryDelay:  getEnvInt("LLM_RETRY_DELAY", 2),
		},
		GalleryServiceURL:    getEnv("GALLERY_SERVICE_URL", "http://localhost:8010"),
		RAGServiceURL:        getEnv("RAG_SERVICE_URL", "http://localhost:8020"),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:8000"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8000"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		ExchangeLogDir:       getEnv("EXCHANGE_LOG_DIR", "logs"),
		ToolRoundLimit:       getEnvInt("TOOL_ROUND_LIMIT", 3),
		ContextMessages:      getEnvInt("CONTEXT_MESSAGES", 10),
		AdminContextMessages: getEnvInt("ADMIN_CONTEXT_MESSAGES", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("LLM_API_URL is required")
	}
	if c.ToolRoundLimit < 1 {
		return fmt.Errorf("TOOL_ROUND_LIMIT must be at least 1, got %d", c.ToolRoundLimit)
	}
	if c.ContextMessages < 1 {
		return fmt.Errorf("CONTEXT_MESSAGES must be at least 1, got %d", c.ContextMessages)
	}
	if c.AdminContextMessages < 1 {
		return fmt.Errorf("ADMIN_CONTEXT_MESSAGES must be at least 1, got %d", c.AdminContextMessages)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}
