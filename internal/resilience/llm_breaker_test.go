package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tarahq/tara/pkg/provider/llm"
	llmmock "github.com/tarahq/tara/pkg/provider/llm/mock"
)

func TestBreakerLLM_ForwardsSuccess(t *testing.T) {
	backend := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "hi"}}
	b := NewBreakerLLM(backend, CircuitBreakerConfig{})

	resp, err := b.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hi" {
		t.Errorf("content = %q, want %q", resp.Content, "hi")
	}
	if backend.CallCount() != 1 {
		t.Errorf("backend called %d times, want 1", backend.CallCount())
	}
}

func TestBreakerLLM_OpensAfterConsecutiveFailures(t *testing.T) {
	backend := &llmmock.Provider{CompleteErr: errTest}
	b := NewBreakerLLM(backend, CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})

	req := llm.CompletionRequest{Messages: []llm.Message{{Role: "user", Content: "x"}}}
	for i := 0; i < 2; i++ {
		if _, err := b.Complete(context.Background(), req); !errors.Is(err, errTest) {
			t.Fatalf("call %d: err = %v, want %v", i, err, errTest)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	// The backend must not see further calls while open.
	before := backend.CallCount()
	if _, err := b.Complete(context.Background(), req); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if backend.CallCount() != before {
		t.Error("backend was called while the breaker was open")
	}
}

func TestBreakerLLM_RecoversAfterReset(t *testing.T) {
	backend := &llmmock.Provider{CompleteErr: errTest}
	b := NewBreakerLLM(backend, CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  1,
	})

	req := llm.CompletionRequest{Messages: []llm.Message{{Role: "user", Content: "x"}}}
	if _, err := b.Complete(context.Background(), req); !errors.Is(err, errTest) {
		t.Fatalf("err = %v, want %v", err, errTest)
	}

	time.Sleep(20 * time.Millisecond)

	backend.CompleteErr = nil
	backend.CompleteResponse = &llm.CompletionResponse{Content: "back"}
	resp, err := b.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete after reset: %v", err)
	}
	if resp.Content != "back" {
		t.Errorf("content = %q, want %q", resp.Content, "back")
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}
