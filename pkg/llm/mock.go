package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for LLMClient. GenerateResponseFunc decides the
// reply; Calls records every request.
type MockClient struct {
	mu                   sync.Mutex
	GenerateResponseFunc func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error)
	Calls                []MockCall
	Model                string
	Endpoint             string
}

// MockCall is one recorded request.
type MockCall struct {
	Prompt        string
	SystemMessage string
	Temperature   float64
}

var _ LLMClient = (*MockClient)(nil)

// NewMockClient returns a mock that always replies with content.
func NewMockClient(content string) *MockClient {
	return &MockClient{
		GenerateResponseFunc: func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
			return &GenerateResponseResult{Content: content}, nil
		},
		Model:    "mock-model",
		Endpoint: "http://mock",
	}
}

func (m *MockClient) GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Prompt: prompt, SystemMessage: systemMessage, Temperature: temperature})
	m.mu.Unlock()

	if m.GenerateResponseFunc == nil {
		return &GenerateResponseResult{Content: "{}"}, nil
	}
	return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
}

// CallCount returns how many requests were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockClient) GetModel() string {
	return m.Model
}

func (m *MockClient) GetEndpoint() string {
	return m.Endpoint
}
