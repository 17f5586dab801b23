package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed after 2 failures, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open after 3 failures, got %v", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: 30 * time.Second})
	cb.now = func() time.Time { return clock }

	cb.RecordFailure()
	if err := cb.Allow(); err == nil {
		t.Fatal("expected open circuit to refuse before cool-down")
	}

	clock = clock.Add(31 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe to be allowed, got %v", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %v", cb.State())
	}
	if err := cb.Allow(); err == nil {
		t.Error("expected second call during probe to be refused")
	}

	cb.RecordSuccess()
	if cb.State() != CircuitClosed || cb.ConsecutiveFailures() != 0 {
		t.Errorf("expected closed with 0 failures, got %v/%d", cb.State(), cb.ConsecutiveFailures())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 5, ResetAfter: time.Second})
	cb.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	clock = clock.Add(2 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected probe, got %v", err)
	}
	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("expected failed probe to reopen, got %v", cb.State())
	}
}

func TestBreakerClient_ShortCircuits(t *testing.T) {
	mock := &MockClient{
		GenerateResponseFunc: func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
			return nil, errors.New("503 service unavailable")
		},
	}
	client := NewBreakerClient(mock, NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour}), zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := client.GenerateResponse(context.Background(), "p", "s", 0.2); err == nil {
			t.Fatal("expected provider error")
		}
	}

	_, err := client.GenerateResponse(context.Background(), "p", "s", 0.2)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected provider to be called twice, got %d", mock.CallCount())
	}
}

func TestBreakerClient_CanceledDoesNotCount(t *testing.T) {
	mock := &MockClient{
		GenerateResponseFunc: func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
			return nil, context.Canceled
		},
	}
	breaker := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Hour})
	client := NewBreakerClient(mock, breaker, zap.NewNop())

	_, _ = client.GenerateResponse(context.Background(), "p", "s", 0)
	if breaker.State() != CircuitClosed {
		t.Errorf("expected canceled call to leave circuit closed, got %v", breaker.State())
	}
}
