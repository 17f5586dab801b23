package llm

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestNewClientFromConfig(t *testing.T) {
	breaker := DefaultCircuitBreakerConfig()

	tests := []struct {
		name      string
		cfg       Config
		wantErr   error
		wantModel string
	}{
		{"heuristic", Config{Provider: "heuristic", APIKey: "sk"}, ErrNotConfigured, ""},
		{"openai without key", Config{Provider: "openai"}, ErrNotConfigured, ""},
		{"anthropic without key", Config{Provider: "anthropic"}, ErrNotConfigured, ""},
		{"openai defaults", Config{Provider: "OpenAI", APIKey: "sk"}, nil, DefaultOpenAIModel},
		{"local compatible endpoint", Config{Provider: "openai", Endpoint: "http://localhost:8000/v1", Model: "qwen"}, nil, "qwen"},
		{"anthropic defaults", Config{Provider: "anthropic", APIKey: "ak"}, nil, DefaultAnthropicModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClientFromConfig(&tt.cfg, breaker, zap.NewNop())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := client.(*BreakerClient); !ok {
				t.Errorf("expected breaker-wrapped client, got %T", client)
			}
			if client.GetModel() != tt.wantModel {
				t.Errorf("model = %q, want %q", client.GetModel(), tt.wantModel)
			}
		})
	}
}

func TestNewClientFromConfig_UnknownProvider(t *testing.T) {
	_, err := NewClientFromConfig(&Config{Provider: "bard"}, DefaultCircuitBreakerConfig(), zap.NewNop())
	if err == nil || errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}
