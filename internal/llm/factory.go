package llm

import (
	"fmt"
	"os"
	"strings"
)

// NewProvider builds a Provider for the given provider type, model, and
// explicit API key/base URL. Unlike the teacher's factory.go, credential
// lookup never falls back to an on-disk store — the spec puts persistent
// secret storage out of scope, so the caller is expected to have already
// resolved apiKey from config or an environment variable (see
// config.Load, which does exactly that).
//
// baseURL, when non-empty, overrides the provider's default endpoint —
// this is how an OpenAI-compatible third-party host (MiniMax, OpenRouter,
// a local gateway) is selected for providerType "openai".
func NewProvider(providerType, model, apiKey, baseURL string) (Provider, error) {
	switch providerType {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic API key not found: set ANTHROPIC_API_KEY or llm_api_key")
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key not found: set OPENAI_API_KEY or llm_api_key")
		}
		return NewOpenAIProvider(apiKey, baseURL, model, ""), nil

	case "google":
		if apiKey == "" {
			return nil, fmt.Errorf("google API credentials not found: set GOOGLE_API_KEY or llm_api_key")
		}
		return NewGoogleProvider(apiKey, model), nil

	case "ollama":
		host := baseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// Dispatch selects a Provider by inspecting the model name first: any
// model whose name contains "gemini" always routes through the native
// Gemini HTTP path regardless of the configured provider type, per spec
// §4.4. Every other model uses NewProvider as configured.
func Dispatch(providerType, model, apiKey, baseURL string) (Provider, error) {
	if strings.Contains(strings.ToLower(model), "gemini") && providerType != "google" {
		if apiKey == "" {
			return nil, fmt.Errorf("google API credentials not found for gemini model %q: set GOOGLE_API_KEY", model)
		}
		return NewGoogleProvider(apiKey, model), nil
	}
	return NewProvider(providerType, model, apiKey, baseURL)
}
