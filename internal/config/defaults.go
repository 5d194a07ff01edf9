package config

// DefaultExcludes are glob patterns excluded from analysis by default,
// mirroring the directory exclusions the file walker always applies
// (see internal/walker.DefaultExcludes) plus a few file-level patterns.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// defaultModels gives each provider a reasonable main/cluster/fallback
// model trio when the config omits them.
var defaultModels = map[ProviderType]struct {
	Main, Cluster, Fallback string
}{
	ProviderAnthropic: {"claude-sonnet-4-5-20250929", "claude-sonnet-4-5-20250929", "claude-haiku-4-5-20251001"},
	ProviderOpenAI:    {"gpt-4o", "gpt-4o", "gpt-4o-mini"},
	ProviderGoogle:    {"gemini-1.5-pro", "gemini-1.5-pro", "gemini-2.0-flash"},
	ProviderOllama:    {"llama3", "llama3", "llama3"},
}

// DefaultConfig returns a Config with sensible defaults, per spec §6's
// recognized-option list (max_depth defaults to 10).
func DefaultConfig() *Config {
	return &Config{
		OutputDir:      "archloom_docs",
		Provider:       ProviderAnthropic,
		MainModel:      defaultModels[ProviderAnthropic].Main,
		ClusterModel:   defaultModels[ProviderAnthropic].Cluster,
		FallbackModel:  defaultModels[ProviderAnthropic].Fallback,
		MaxDepth:       10,
		MaxConcurrency: 4,
		Include:        []string{"**"},
		Exclude:        DefaultExcludes,
	}
}

// ApplyProviderDefaults fills in MainModel/ClusterModel/FallbackModel from
// the provider's defaults whenever the config left them blank.
func ApplyProviderDefaults(c *Config) {
	d, ok := defaultModels[c.Provider]
	if !ok {
		return
	}
	if c.MainModel == "" {
		c.MainModel = d.Main
	}
	if c.ClusterModel == "" {
		c.ClusterModel = d.Cluster
	}
	if c.FallbackModel == "" {
		c.FallbackModel = d.Fallback
	}
}
