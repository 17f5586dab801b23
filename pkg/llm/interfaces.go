// Package llm provides chat-completion clients for the extraction step:
// OpenAI-compatible endpoints and Anthropic, behind one interface.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no provider can be built from the
// configuration, for example when the API key is missing.
var ErrNotConfigured = errors.New("llm provider not configured")

// LLMClient is the narrow surface the extraction step needs: text in, text out.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends one system+user exchange and returns the reply.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// GenerateResponseResult carries the reply text and token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
