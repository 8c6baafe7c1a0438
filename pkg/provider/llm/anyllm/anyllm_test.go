package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/tarahq/tara/pkg/provider/llm"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		providerName string
		model        string
		wantErr      bool
	}{
		{name: "empty provider", providerName: "", model: "gpt-4o", wantErr: true},
		{name: "empty model", providerName: "openai", model: "", wantErr: true},
		{name: "unknown provider", providerName: "nope", model: "m", wantErr: true},
		{name: "openai", providerName: "openai", model: "gpt-4o", wantErr: false},
		{name: "case insensitive", providerName: "OpenAI", model: "gpt-4o", wantErr: false},
		{name: "ollama", providerName: "ollama", model: "llama3.2", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.providerName, tt.model, anyllmlib.WithAPIKey("test-key"))
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q, %q) error = %v, wantErr %v", tt.providerName, tt.model, err, tt.wantErr)
			}
		})
	}
}

func TestBuildParams(t *testing.T) {
	t.Parallel()

	p, err := NewOpenAI("gpt-4o", anyllmlib.WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "you are terse",
		Messages: []llm.Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
		Temperature: 0.7,
		MaxTokens:   128,
	})

	if params.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", params.Model)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("first message role = %q, want system", params.Messages[0].Role)
	}
	if params.Temperature == nil || *params.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 128 {
		t.Errorf("MaxTokens = %v, want 128", params.MaxTokens)
	}
}

func TestBuildParams_ZeroOptionalsOmitted(t *testing.T) {
	t.Parallel()

	p, err := NewOpenAI("gpt-4o", anyllmlib.WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})

	if params.Temperature != nil {
		t.Errorf("Temperature = %v, want nil", params.Temperature)
	}
	if params.MaxTokens != nil {
		t.Errorf("MaxTokens = %v, want nil", params.MaxTokens)
	}
}
