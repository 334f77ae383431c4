// Package ai implements the AI backends behind coretypes.AIProvider.
//
// Exactly one provider is active per process. The host builds it once with New
// and hands the returned value to every consumer. Providers never retry, cache
// readiness or impose their own timeouts; callers bound latency through the
// context they pass.
package ai

import (
	"fmt"
	"strings"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// Defaults applied when a setting is empty.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "llama2"
)

// CloudSettings configures a credential-based backend.
type CloudSettings struct {
	APIKey  string
	Model   string
	BaseURL string // optional override, mainly for tests and proxies
}

// LocalSettings configures a backend reached over the local network.
type LocalSettings struct {
	Endpoint string
	Model    string
}

// Settings selects and configures the active provider.
type Settings struct {
	Provider  string
	OpenAI    CloudSettings
	Anthropic CloudSettings
	Gemini    CloudSettings
	Ollama    LocalSettings
}

// SupportedProviders lists the names New understands.
func SupportedProviders() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama, ProviderMock}
}

// New builds the provider named by s.Provider. A provider that lacks
// credentials is still returned; it reports itself unavailable and fails
// calls with coretypes.ErrNotConfigured.
func New(s Settings) (coretypes.AIProvider, error) {
	name := strings.ToLower(strings.TrimSpace(s.Provider))

	var provider coretypes.AIProvider
	switch name {
	case ProviderOpenAI:
		provider = NewOpenAIProvider(s.OpenAI)
	case ProviderAnthropic:
		provider = NewAnthropicProvider(s.Anthropic)
	case ProviderGemini:
		provider = NewGeminiProvider(s.Gemini)
	case ProviderOllama:
		provider = NewOllamaProvider(s.Ollama)
	case ProviderMock:
		provider = NewMockProvider()
	default:
		return nil, fmt.Errorf("unsupported provider '%s' (supported: %s): %w",
			s.Provider, strings.Join(SupportedProviders(), ", "), coretypes.ErrValidation)
	}

	logger.Debug("AI provider selected", "provider", provider.Name())
	return provider, nil
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func notConfigured(provider string) error {
	return fmt.Errorf("%s: %w", provider, coretypes.ErrNotConfigured)
}

func requestFailed(provider string, err error) error {
	return &coretypes.RequestFailedError{Provider: provider, Reason: err.Error(), Err: err}
}

func invalidResponse(provider, reason string) error {
	return &coretypes.InvalidResponseError{Provider: provider, Reason: reason}
}
