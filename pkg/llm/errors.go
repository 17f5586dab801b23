package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorType says which part of the provider setup an error points at.
type ErrorType string

const (
	ErrorTypeEndpoint ErrorType = "endpoint"
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeModel    ErrorType = "model"
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeResponse ErrorType = "response"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error represents a classified LLM failure.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Model      string
	Endpoint   string
}

func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable lets callers decide on retries without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

func NewErrorWithContext(errType ErrorType, message string, retryable bool, cause error, model, endpoint string, statusCode int) *Error {
	return &Error{
		Type:       errType,
		Message:    message,
		Retryable:  retryable,
		Cause:      cause,
		Model:      model,
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// ClassifyError turns a provider error into an *Error. Structured OpenAI API
// errors are read by status code; anything else is matched on its text.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTypeTimeout, "request timeout", true, err)
	}

	statusCode := 0
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		statusCode = apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if statusCode == 0 && errors.As(err, &reqErr) {
		statusCode = reqErr.HTTPStatusCode
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)
	if statusCode == 0 {
		for _, code := range []int{401, 403, 404, 429, 500, 502, 503, 504} {
			if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
				statusCode = code
				break
			}
		}
	}

	classified := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = statusCode
		return e
	}

	switch {
	case statusCode == 401 || statusCode == 403 ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "invalid x-api-key"):
		return classified(ErrorTypeAuth, "authentication failed", false)
	case strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		return classified(ErrorTypeModel, "model not found", false)
	case statusCode == 404:
		return classified(ErrorTypeEndpoint, "endpoint not found", false)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return classified(ErrorTypeEndpoint, "connection failed", true)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return classified(ErrorTypeTimeout, "request timeout", true)
	case statusCode == 429 || strings.Contains(lower, "rate limit"):
		return classified(ErrorTypeUnknown, "rate limited", true)
	case statusCode >= 500:
		return classified(ErrorTypeEndpoint, "server error", true)
	}
	return classified(ErrorTypeUnknown, "llm error", false)
}

func classifyWithContext(err error, model, endpoint string) *Error {
	e := ClassifyError(err)
	if e.Model == "" {
		e.Model = model
	}
	if e.Endpoint == "" {
		e.Endpoint = endpoint
	}
	return e
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
