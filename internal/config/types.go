package config

// ProviderType identifies an LLM provider backend.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level archloom configuration (spec §6), corresponding
// to an optional .archloom.yml overlaid with ARCHLOOM_* env vars.
type Config struct {
	RepoPath      string       `yaml:"repo_path" koanf:"repo_path"`
	OutputDir     string       `yaml:"output_dir" koanf:"output_dir"`
	Provider      ProviderType `yaml:"provider" koanf:"provider"`
	MainModel     string       `yaml:"main_model" koanf:"main_model"`
	ClusterModel  string       `yaml:"cluster_model" koanf:"cluster_model"`
	FallbackModel string       `yaml:"fallback_model" koanf:"fallback_model"`
	LLMBaseURL    string       `yaml:"llm_base_url" koanf:"llm_base_url"`
	LLMAPIKey     string       `yaml:"llm_api_key" koanf:"llm_api_key"`
	MaxDepth      int          `yaml:"max_depth" koanf:"max_depth"`
	MaxConcurrency int         `yaml:"max_concurrency" koanf:"max_concurrency"`
	Include       []string     `yaml:"include" koanf:"include"`
	Exclude       []string     `yaml:"exclude" koanf:"exclude"`
}
