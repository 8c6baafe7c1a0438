package resilience

import (
	"context"

	"github.com/tarahq/tara/pkg/provider/llm"
)

// BreakerLLM implements [llm.Provider] with a circuit breaker in front of a
// single backend. When the backend has failed repeatedly, calls are rejected
// immediately with [ErrCircuitOpen] until the reset timeout elapses. There is
// no failover: the bot speaks with one configured voice backend or not at all.
type BreakerLLM struct {
	backend llm.Provider
	breaker *CircuitBreaker
}

var _ llm.Provider = (*BreakerLLM)(nil)

// NewBreakerLLM wraps backend with a circuit breaker.
func NewBreakerLLM(backend llm.Provider, cfg CircuitBreakerConfig) *BreakerLLM {
	if cfg.Name == "" {
		cfg.Name = "llm"
	}
	return &BreakerLLM{
		backend: backend,
		breaker: NewCircuitBreaker(cfg),
	}
}

// Complete forwards the request when the breaker allows it.
func (b *BreakerLLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var resp *llm.CompletionResponse
	err := b.breaker.Execute(func() error {
		var innerErr error
		resp, innerErr = b.backend.Complete(ctx, req)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// State exposes the breaker state for logging and diagnostics.
func (b *BreakerLLM) State() State {
	return b.breaker.State()
}
