package speech

import (
	"context"
	"errors"
	"testing"

	ttsmock "github.com/tarahq/tara/pkg/provider/tts/mock"
)

func TestSynthesize_PrefersPrimary(t *testing.T) {
	t.Parallel()

	primary := &ttsmock.Provider{NameResult: "primary", SynthesizeData: []byte("a")}
	fallback := &ttsmock.Provider{NameResult: "fallback", SynthesizeData: []byte("b")}
	p := NewPipeline(primary, fallback, nil)

	artifact, err := p.Synthesize(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	defer artifact.Close()

	if primary.CallCount() != 1 || fallback.CallCount() != 0 {
		t.Errorf("calls primary=%d fallback=%d, want 1/0", primary.CallCount(), fallback.CallCount())
	}
}

func TestSynthesize_NoFallbackPastConfiguredPrimary(t *testing.T) {
	t.Parallel()

	primary := &ttsmock.Provider{NameResult: "primary", SynthesizeErr: errors.New("quota hit")}
	fallback := &ttsmock.Provider{NameResult: "fallback", SynthesizeData: []byte("b")}
	p := NewPipeline(primary, fallback, nil)

	if _, err := p.Synthesize(context.Background(), "hi"); err == nil {
		t.Fatal("expected primary failure to propagate")
	}
	if fallback.CallCount() != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.CallCount())
	}
}

func TestSynthesize_FallbackWhenNoPrimary(t *testing.T) {
	t.Parallel()

	fallback := &ttsmock.Provider{NameResult: "fallback", SynthesizeData: []byte("b")}
	p := NewPipeline(nil, fallback, nil)

	artifact, err := p.Synthesize(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	defer artifact.Close()

	if fallback.CallCount() != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.CallCount())
	}
}

func TestSynthesize_NoProviders(t *testing.T) {
	t.Parallel()

	p := NewPipeline(nil, nil, nil)
	if _, err := p.Synthesize(context.Background(), "hi"); !errors.Is(err, ErrTTSUnavailable) {
		t.Fatalf("error = %v, want ErrTTSUnavailable", err)
	}
}
