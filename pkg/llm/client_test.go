package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestClient_GenerateResponse_JSONMode(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"title\":\"Laptops\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL + "/v1/", Model: "gpt-test", APIKey: "sk-test"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.GenerateResponse(context.Background(), "prompt", "system", 0.3)
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	if result.Content != `{"title":"Laptops"}` {
		t.Errorf("Content = %q", result.Content)
	}
	if result.TotalTokens != 17 {
		t.Errorf("TotalTokens = %d, want 17", result.TotalTokens)
	}

	format, ok := body["response_format"].(map[string]any)
	if !ok || format["type"] != "json_object" {
		t.Errorf("expected json_object response format, got %v", body["response_format"])
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Errorf("expected system and user messages, got %d", len(messages))
	}
}

func TestClient_GenerateResponse_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "gpt-test", APIKey: "bad"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.GenerateResponse(context.Background(), "prompt", "system", 0.3)
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if llmErr.Type != ErrorTypeAuth {
		t.Errorf("Type = %s, want auth", llmErr.Type)
	}
	if llmErr.Model != "gpt-test" {
		t.Errorf("Model = %q, want gpt-test", llmErr.Model)
	}
}

func TestNewClient_RequiresEndpointAndModel(t *testing.T) {
	if _, err := NewClient(&Config{Model: "m"}, zap.NewNop()); err == nil {
		t.Error("expected error without endpoint")
	}
	if _, err := NewClient(&Config{Endpoint: "http://x"}, zap.NewNop()); err == nil {
		t.Error("expected error without model")
	}
}

func TestAnthropicClient_GenerateResponse(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak-test" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"total_price\": 45000}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 8}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(&Config{Endpoint: server.URL + "/v1", Model: "claude-test", APIKey: "ak-test"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAnthropicClient failed: %v", err)
	}

	result, err := client.GenerateResponse(context.Background(), "prompt", "system text", 0.2)
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	if result.Content != `{"total_price": 45000}` {
		t.Errorf("Content = %q", result.Content)
	}
	if result.TotalTokens != 28 {
		t.Errorf("TotalTokens = %d, want 28", result.TotalTokens)
	}
	if body["system"] != "system text" {
		t.Errorf("system = %v", body["system"])
	}
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicClient(&Config{Model: "m"}, zap.NewNop()); err == nil {
		t.Error("expected error without api key")
	}
}
