package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderHeuristic = "heuristic"
)

// Provider defaults used when the configuration leaves them empty.
const (
	DefaultOpenAIEndpoint    = "https://api.openai.com/v1"
	DefaultOpenAIModel       = "gpt-4-turbo-preview"
	DefaultAnthropicEndpoint = "https://api.anthropic.com/v1"
	DefaultAnthropicModel    = "claude-sonnet-4-5-20250929"
)

// NewClientFromConfig builds the configured provider client wrapped in a
// circuit breaker. It returns ErrNotConfigured for the heuristic provider and
// when a hosted provider has no API key.
func NewClientFromConfig(cfg *Config, breaker CircuitBreakerConfig, logger *zap.Logger) (LLMClient, error) {
	resolved := *cfg
	resolved.Provider = strings.ToLower(strings.TrimSpace(resolved.Provider))

	var (
		client LLMClient
		err    error
	)
	switch resolved.Provider {
	case ProviderHeuristic:
		return nil, ErrNotConfigured
	case ProviderOpenAI, "":
		if resolved.Endpoint == "" {
			resolved.Endpoint = DefaultOpenAIEndpoint
		}
		// Self-hosted OpenAI-compatible servers may run without a key.
		if resolved.APIKey == "" && resolved.Endpoint == DefaultOpenAIEndpoint {
			return nil, ErrNotConfigured
		}
		if resolved.Model == "" {
			resolved.Model = DefaultOpenAIModel
		}
		client, err = NewClient(&resolved, logger)
	case ProviderAnthropic:
		if resolved.APIKey == "" {
			return nil, ErrNotConfigured
		}
		if resolved.Endpoint == "" {
			resolved.Endpoint = DefaultAnthropicEndpoint
		}
		if resolved.Model == "" {
			resolved.Model = DefaultAnthropicModel
		}
		client, err = NewAnthropicClient(&resolved, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", resolved.Provider, err)
	}

	return NewBreakerClient(client, NewCircuitBreaker(breaker), logger), nil
}
