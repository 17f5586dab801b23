package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker is refusing calls.
var ErrCircuitOpen = errors.New("llm circuit breaker open")

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds the trip threshold and cool-down.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures before the circuit trips.
	Threshold int
	// ResetAfter is how long an open circuit waits before letting one probe through.
	ResetAfter time.Duration
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker trips open after Threshold consecutive failures so that
// extraction goes straight to the heuristic while the provider is down.
type CircuitBreaker struct {
	mu               sync.Mutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
	now              func() time.Time
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold <= 0 {
		config.Threshold = DefaultCircuitBreakerConfig().Threshold
	}
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed. After the cool-down an open
// circuit lets exactly one probe through (half-open).
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return fmt.Errorf("%w: %d consecutive failures", ErrCircuitOpen, cb.consecutiveFails)
	default:
		return fmt.Errorf("%w: probe in flight", ErrCircuitOpen)
	}
}

// RecordSuccess closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	cb.state = CircuitClosed
}

// RecordFailure counts a failure; a failed probe reopens the circuit at once.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	if cb.state == CircuitHalfOpen || cb.consecutiveFails >= cb.threshold {
		cb.state = CircuitOpen
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFails
}

// BreakerClient guards an LLMClient with a CircuitBreaker.
type BreakerClient struct {
	inner   LLMClient
	breaker *CircuitBreaker
	logger  *zap.Logger
}

var _ LLMClient = (*BreakerClient)(nil)

func NewBreakerClient(inner LLMClient, breaker *CircuitBreaker, logger *zap.Logger) *BreakerClient {
	return &BreakerClient{inner: inner, breaker: breaker, logger: logger.Named("llm-breaker")}
}

func (c *BreakerClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	result, err := c.inner.GenerateResponse(ctx, prompt, systemMessage, temperature)
	if err != nil {
		// A caller giving up is not a provider failure.
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.breaker.RecordFailure()
		if c.breaker.State() == CircuitOpen {
			c.logger.Warn("LLM circuit open",
				zap.Int("consecutive_failures", c.breaker.ConsecutiveFailures()))
		}
		return nil, err
	}

	c.breaker.RecordSuccess()
	return result, nil
}

func (c *BreakerClient) GetModel() string {
	return c.inner.GetModel()
}

func (c *BreakerClient) GetEndpoint() string {
	return c.inner.GetEndpoint()
}
