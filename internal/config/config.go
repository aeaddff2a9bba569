// Package config loads application configuration from the process
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names for embedding and completion backends.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Vector store backends.
const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// ErrMissingAPIKey indicates that no provider API key was found in the
// environment. This is a fatal startup condition.
var ErrMissingAPIKey = errors.New("no OPENAI_API_KEY or GOOGLE_API_KEY set")

// Config holds all runtime configuration. Secrets are read exactly once
// at startup; core packages receive values from here and never consult
// the environment themselves.
type Config struct {
	Provider  string // "openai" or "google", derived from which key is set
	OpenAIKey string
	GoogleKey string

	Port        string
	CORSOrigins []string

	IndexDir      string // persist directory for the local vector store
	VectorBackend string // "sqlite" (default) or "qdrant"
	QdrantHost    string
	QdrantPort    int

	ChunkSize    int
	ChunkOverlap int

	ExportDir     string
	MaxUploadSize int64
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := &Config{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		GoogleKey:     firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY"),
		Port:          getEnv("PORT", "8000"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		IndexDir:      getEnv("INDEX_DIR", "./chroma_db"),
		VectorBackend: getEnv("VECTOR_BACKEND", BackendSQLite),
		QdrantHost:    getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:    getEnvInt("QDRANT_PORT", 6334),
		ChunkSize:     getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 200),
		ExportDir:     getEnv("EXPORT_DIR", "."),
		MaxUploadSize: getEnvInt64("MAX_UPLOAD_SIZE", 50<<20),
	}

	// OpenAI wins when both keys are present, matching the order the
	// application has always documented.
	switch {
	case cfg.OpenAIKey != "":
		cfg.Provider = ProviderOpenAI
	case cfg.GoogleKey != "":
		cfg.Provider = ProviderGoogle
	default:
		return nil, ErrMissingAPIKey
	}

	return cfg, nil
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	if c.Provider == ProviderGoogle {
		return c.GoogleKey
	}
	return c.OpenAIKey
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
