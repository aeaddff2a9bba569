package config

import (
	"errors"
	"testing"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies default values with only an API key set.
func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider: expected %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port: expected 8000, got %q", cfg.Port)
	}
	if cfg.IndexDir != "./chroma_db" {
		t.Errorf("IndexDir: expected ./chroma_db, got %q", cfg.IndexDir)
	}
	if cfg.VectorBackend != BackendSQLite {
		t.Errorf("VectorBackend: expected sqlite, got %q", cfg.VectorBackend)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("Chunking: expected 1000/200, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins: expected [*], got %v", cfg.CORSOrigins)
	}
}

// TestLoad_MissingKeys verifies startup fails without any provider key.
func TestLoad_MissingKeys(t *testing.T) {
	clearKeys(t)

	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

// TestLoad_ProviderSelection verifies OpenAI wins when both keys are set
// and Google is used otherwise.
func TestLoad_ProviderSelection(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GOOGLE_API_KEY", "g-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Expected OpenAI to win with both keys set, got %q", cfg.Provider)
	}
	if cfg.APIKey() != "sk-test" {
		t.Errorf("APIKey: expected sk-test, got %q", cfg.APIKey())
	}

	t.Setenv("OPENAI_API_KEY", "")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("Expected Google provider, got %q", cfg.Provider)
	}
	if cfg.APIKey() != "g-test" {
		t.Errorf("APIKey: expected g-test, got %q", cfg.APIKey())
	}
}

// TestLoad_GeminiKeyAlias verifies GEMINI_API_KEY works as an alias.
func TestLoad_GeminiKeyAlias(t *testing.T) {
	clearKeys(t)
	t.Setenv("GEMINI_API_KEY", "gm-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderGoogle || cfg.GoogleKey != "gm-test" {
		t.Errorf("Expected Google provider via GEMINI_API_KEY, got %q/%q", cfg.Provider, cfg.GoogleKey)
	}
}

// TestLoad_Overrides verifies environment overrides are honored.
func TestLoad_Overrides(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "9001")
	t.Setenv("INDEX_DIR", "/var/lib/pdfqa")
	t.Setenv("VECTOR_BACKEND", BackendQdrant)
	t.Setenv("CHUNK_SIZE", "512")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9001" {
		t.Errorf("Port: expected 9001, got %q", cfg.Port)
	}
	if cfg.IndexDir != "/var/lib/pdfqa" {
		t.Errorf("IndexDir: expected /var/lib/pdfqa, got %q", cfg.IndexDir)
	}
	if cfg.VectorBackend != BackendQdrant {
		t.Errorf("VectorBackend: expected qdrant, got %q", cfg.VectorBackend)
	}
	if cfg.ChunkSize != 512 {
		t.Errorf("ChunkSize: expected 512, got %d", cfg.ChunkSize)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
}
