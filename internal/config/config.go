package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	ListenAddr  string

	// LLM configuration
	LLMProvider string // "openai" or "anthropic"
	LLMModel    string
	LLMAPIKey   string
	LLMBaseURL  string // override for gateways/test servers; empty = provider default

	// Embedding configuration
	EmbeddingModel  string
	EmbeddingAPIKey string
	EmbeddingURL    string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: could not load .env file, using environment variables")
	}

	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	apiKey := ""
	switch provider {
	case "openai":
		apiKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	embeddingModel := os.Getenv("EMBEDDING_MODEL")
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}
	embeddingKey := os.Getenv("EMBEDDING_API_KEY")
	if embeddingKey == "" {
		embeddingKey = os.Getenv("OPENAI_API_KEY")
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ListenAddr:      addr,
		LLMProvider:     provider,
		LLMModel:        model,
		LLMAPIKey:       apiKey,
		LLMBaseURL:      os.Getenv("LLM_BASE_URL"),
		EmbeddingModel:  embeddingModel,
		EmbeddingAPIKey: embeddingKey,
		EmbeddingURL:    os.Getenv("EMBEDDING_URL"),
	}
}
