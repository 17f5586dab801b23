package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
		status    int
	}{
		{"api 401", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, ErrorTypeAuth, false, 401},
		{"invalid key text", errors.New("Invalid API key provided"), ErrorTypeAuth, false, 0},
		{"model missing", errors.New("The model `gpt-9` does not exist"), ErrorTypeModel, false, 0},
		{"404", &openai.APIError{HTTPStatusCode: 404, Message: "nope"}, ErrorTypeEndpoint, false, 404},
		{"refused", errors.New("dial tcp: connection refused"), ErrorTypeEndpoint, true, 0},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrorTypeTimeout, true, 0},
		{"rate limit", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, ErrorTypeUnknown, true, 429},
		{"server", &openai.RequestError{HTTPStatusCode: 502, Err: errors.New("bad gateway")}, ErrorTypeEndpoint, true, 502},
		{"other", errors.New("something odd"), ErrorTypeUnknown, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", got.Type, tt.wantType)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
			if got.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.status)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classified error does not wrap the cause")
			}
		})
	}
}

func TestClassifyError_PassesThroughClassified(t *testing.T) {
	orig := NewError(ErrorTypeResponse, "empty", false, nil)
	if got := ClassifyError(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("expected the existing *Error back, got %v", got)
	}
	if ClassifyError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestError_Message(t *testing.T) {
	err := NewErrorWithContext(ErrorTypeAuth, "authentication failed", false, errors.New("401"), "gpt-4o", "http://x", 401)
	want := "auth HTTP 401 model=gpt-4o authentication failed: 401"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if GetErrorType(fmt.Errorf("x: %w", err)) != ErrorTypeAuth {
		t.Error("GetErrorType did not unwrap")
	}
}
