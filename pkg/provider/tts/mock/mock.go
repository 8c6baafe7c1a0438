// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to return a controlled artifact (optionally backed by a real
// temp file, so disposal can be asserted) and to verify the text passed to the
// backend.
package mock

import (
	"context"
	"os"
	"sync"

	"github.com/tarahq/tara/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// SynthesizeData, when non-nil, is written to a fresh temp file for each
	// Synthesize call so that callers can verify disposal.
	SynthesizeData []byte

	// SynthesizeErr, if non-nil, is returned from Synthesize.
	SynthesizeErr error

	// NameResult is returned by Name. Defaults to "mock".
	NameResult string

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall

	// Artifacts records every artifact handed out, in order.
	Artifacts []*tts.Artifact
}

// Synthesize records the call and returns a temp-file artifact containing
// SynthesizeData, or SynthesizeErr when set.
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Artifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text})
	if p.SynthesizeErr != nil {
		return nil, p.SynthesizeErr
	}

	f, err := os.CreateTemp("", "mock-tts-*.mp3")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(p.SynthesizeData); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	artifact := &tts.Artifact{Path: f.Name(), Format: "mp3"}
	p.Artifacts = append(p.Artifacts, artifact)
	return artifact, nil
}

// Name returns NameResult, or "mock" when unset.
func (p *Provider) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.NameResult == "" {
		return "mock"
	}
	return p.NameResult
}

// CallCount returns the number of Synthesize invocations. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.SynthesizeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
	p.Artifacts = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
