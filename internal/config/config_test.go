package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoPath = t.TempDir()
	cfg.LLMAPIKey = "test-key"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoPath = t.TempDir()
	cfg.LLMAPIKey = "test-key"
	cfg.Provider = ProviderType("made-up")

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestValidateRejectsMaxDepthBelowMin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoPath = t.TempDir()
	cfg.LLMAPIKey = "test-key"
	cfg.MaxDepth = MinDepth - 1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max_depth below MinDepth")
	}
}

func TestValidateOllamaNeedsNoAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoPath = t.TempDir()
	cfg.Provider = ProviderOllama
	cfg.MainModel = "llama3"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for ollama with no api key: %v", err)
	}
}

func TestLoadAppliesEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ".archloom.yml")
	if err := os.WriteFile(cfgPath, []byte("provider: openai\n"), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	t.Setenv("ARCHLOOM_OUTPUT_DIR", "custom_docs")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected provider from file to be openai, got %q", cfg.Provider)
	}
	if cfg.OutputDir != "custom_docs" {
		t.Errorf("expected output_dir from env overlay, got %q", cfg.OutputDir)
	}
	if cfg.MainModel != defaultModels[ProviderOpenAI].Main {
		t.Errorf("expected provider default model applied, got %q", cfg.MainModel)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider anthropic, got %q", cfg.Provider)
	}
}
