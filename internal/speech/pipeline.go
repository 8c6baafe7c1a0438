// Package speech selects between text-to-speech providers and produces
// playable audio artifacts for the session orchestrator.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tarahq/tara/pkg/provider/tts"
)

// ErrTTSUnavailable means no text-to-speech provider is configured at all.
var ErrTTSUnavailable = errors.New("speech: no text-to-speech provider configured")

// Pipeline converts reply text into an audio artifact.
//
// Provider selection is static: when a primary provider is configured it is
// the only one used — a primary failure propagates, no fallback is attempted
// past it. The fallback provider serves deployments with no primary
// configured (typically no API key for the paid service).
type Pipeline struct {
	primary  tts.Provider
	fallback tts.Provider
	log      *slog.Logger
}

// NewPipeline creates a Pipeline. Either provider may be nil; a pipeline
// with both nil returns ErrTTSUnavailable from every Synthesize call.
func NewPipeline(primary, fallback tts.Provider, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{primary: primary, fallback: fallback, log: log}
}

// Synthesize produces an audio artifact for text. The caller owns the
// artifact and must Close it after playback.
func (p *Pipeline) Synthesize(ctx context.Context, text string) (*tts.Artifact, error) {
	provider := p.primary
	if provider == nil {
		provider = p.fallback
	}
	if provider == nil {
		return nil, ErrTTSUnavailable
	}

	artifact, err := provider.Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("speech: %s: %w", provider.Name(), err)
	}

	p.log.Debug("synthesized reply",
		slog.String("provider", provider.Name()),
		slog.String("artifact", artifact.Path),
	)
	return artifact, nil
}
