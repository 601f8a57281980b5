package llm

import (
	"context"
	"fmt"
	"os"
)

// Provider names accepted by the factory.
const (
	ProviderGoogle     = "google"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Providers lists the supported provider names.
var Providers = []string{ProviderGoogle, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter, ProviderOllama}

var defaultModels = map[string]string{
	ProviderGoogle:     "gemini-2.5-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-haiku-4-5-20251001",
	ProviderOpenRouter: "google/gemini-2.5-flash",
	ProviderOllama:     "llama3",
}

var keyEnvVars = map[string]string{
	ProviderGoogle:     "GOOGLE_API_KEY",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(providerType string) string {
	return defaultModels[providerType]
}

// KeyEnv returns the environment variable conventionally holding the API
// key for a provider, or "" when the provider needs no key.
func KeyEnv(providerType string) string {
	return keyEnvVars[providerType]
}

// NeedsKey reports whether a provider requires an API key.
func NeedsKey(providerType string) bool {
	return KeyEnv(providerType) != ""
}

// NewProvider creates a provider, reading its API key from the environment.
func NewProvider(providerType string, model string) (Provider, error) {
	key := ""
	if env := KeyEnv(providerType); env != "" {
		key = os.Getenv(env)
		if key == "" {
			return nil, fmt.Errorf("%s environment variable is not set", env)
		}
	}
	return NewProviderWithKey(context.Background(), providerType, model, key)
}

// NewProviderWithKey creates a provider using an explicit API key. For
// ollama the key is ignored and OLLAMA_HOST selects the server.
func NewProviderWithKey(ctx context.Context, providerType, model, apiKey string) (Provider, error) {
	if model == "" {
		model = DefaultModel(providerType)
	}
	if NeedsKey(providerType) && apiKey == "" {
		return nil, fmt.Errorf("no API key for provider %s", providerType)
	}
	switch providerType {
	case ProviderGoogle:
		return NewGoogleProvider(ctx, apiKey, model)
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model), nil
	case ProviderOpenRouter:
		return NewOpenAICompatibleProvider(ProviderOpenRouter, openRouterBaseURL, apiKey, model), nil
	case ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
