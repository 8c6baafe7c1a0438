package openai

import (
	"testing"

	"github.com/tarahq/tara/pkg/provider/llm"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gpt-4o"); err == nil {
		t.Fatal("expected error for empty API key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Fatal("expected error for empty model")
	}
	if _, err := New("sk-test", "gpt-4o"); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestBuildParams_SystemPromptFirst(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "shape-medium", WithBaseURL("https://api.shapes.inc/v1/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	params, err := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "be brief",
		Messages: []llm.Message{
			{Role: "user", Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}

	if got := string(params.Model); got != "shape-medium" {
		t.Errorf("model = %q, want shape-medium", got)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 (system + user)", len(params.Messages))
	}
}

func TestBuildParams_EmptyMessages(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "gpt-4o")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.buildParams(llm.CompletionRequest{}); err == nil {
		t.Fatal("expected error for empty messages")
	}
}

func TestConvertMessage_UnknownRole(t *testing.T) {
	t.Parallel()

	if _, err := convertMessage(llm.Message{Role: "tool", Content: "x"}); err == nil {
		t.Fatal("expected error for unsupported role")
	}
}
