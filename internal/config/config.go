package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file (if it exists), then
// overlays environment variable overrides (ARCHLOOM_*), then fills in
// provider-specific model defaults for anything still blank.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()
	// Model defaults depend on the provider, which the file or env may
	// change; leave them blank so ApplyProviderDefaults picks them below.
	cfg.MainModel, cfg.ClusterModel, cfg.FallbackModel = "", "", ""

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("ARCHLOOM_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ARCHLOOM_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	ApplyProviderDefaults(cfg)

	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv(APIKeyEnvVar(cfg.Provider))
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderGoogle:    true,
	ProviderOllama:    true,
}

// Validate checks that the configuration contains valid values, per the
// recognized-option list in spec §6.
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("repo_path is required")
	}
	if info, err := os.Stat(c.RepoPath); err != nil || !info.IsDir() {
		return fmt.Errorf("repo_path %q is not a directory", c.RepoPath)
	}

	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, google, ollama", c.Provider)
	}

	if c.MainModel == "" {
		return fmt.Errorf("main_model is required")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if c.MaxDepth < MinDepth {
		return fmt.Errorf("max_depth must be at least %d", MinDepth)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}

	if c.Provider != ProviderOllama && c.LLMAPIKey == "" {
		return fmt.Errorf("no API key: set llm_api_key or %s", APIKeyEnvVar(c.Provider))
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for the
// API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
