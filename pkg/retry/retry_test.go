package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 5 {
		t.Errorf("expected MaxRetries=5, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 200*time.Millisecond {
		t.Errorf("expected InitialDelay=200ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay=5s, got %v", cfg.MaxDelay)
	}
	if cfg.ShouldRetry == nil {
		t.Error("expected default ShouldRetry to be set")
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		callCount++
		if callCount < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	callCount := 0
	expected := errors.New("connection refused")
	err := Do(context.Background(), fastConfig(2), func() error {
		callCount++
		return expected
	})

	if !errors.Is(err, expected) {
		t.Errorf("expected last error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", callCount)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 10, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	callCount := 0
	err := Do(ctx, cfg, func() error {
		callCount++
		cancel()
		return errors.New("timeout")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDoWithResult_ShouldRetryStopsEarly(t *testing.T) {
	cfg := fastConfig(5)
	cfg.ShouldRetry = IsRetryable

	callCount := 0
	_, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		callCount++
		return 0, errors.New("password authentication failed")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 1 {
		t.Errorf("expected permanent error to stop after 1 call, got %d", callCount)
	}
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	callCount := 0
	v, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		if callCount == 1 {
			return "", fmt.Errorf("dial tcp: %w", errors.New("connection refused"))
		}
		return "pool", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if v != "pool" {
		t.Errorf("expected result 'pool', got %q", v)
	}
}

func TestDoWithResult_NilConfigUsesDefault(t *testing.T) {
	v, err := DoWithResult(context.Background(), nil, func() (int, error) {
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Errorf("expected 42, nil; got %d, %v", v, err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{errors.New("FATAL: the database system is starting up"), true},
		{errors.New("database is locked"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("password authentication failed for user"), false},
		{context.Canceled, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestApplyJitter(t *testing.T) {
	base := 100 * time.Millisecond
	if got := applyJitter(base, 0); got != base {
		t.Errorf("expected no jitter with factor 0, got %v", got)
	}
	for i := 0; i < 50; i++ {
		got := applyJitter(base, 0.1)
		if got < 90*time.Millisecond || got > 110*time.Millisecond {
			t.Fatalf("jittered delay %v outside +/-10%%", got)
		}
	}
}
