// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs, or the
// Google Translate endpoint used as a zero-configuration fallback) and presents
// a uniform batch interface: one utterance in, one playable audio [Artifact]
// out. The artifact is a short-lived temporary file; the caller owns it and
// must call [Artifact.Close] after playback, on every exit path.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// Artifact is a reference to a synthesized audio file on disk.
//
// Artifacts are created by [Provider.Synthesize] and owned by the caller.
// Close removes the backing file; calling Close more than once, or after the
// file has already been removed, is a no-op.
type Artifact struct {
	// Path is the location of the temporary audio file.
	Path string

	// Format is the container format of the file (e.g., "mp3", "wav").
	Format string
}

// Close deletes the backing file. Safe to call multiple times.
func (a *Artifact) Close() error {
	if a == nil || a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use; multiple synthesis requests
// may run in parallel.
type Provider interface {
	// Synthesize converts text into a playable audio artifact. The provider
	// creates a temporary file and returns a handle to it; the caller is
	// responsible for disposing of the artifact via [Artifact.Close].
	//
	// Returns an error if the backend rejects the request, the response is not
	// decodable audio, or ctx is cancelled.
	Synthesize(ctx context.Context, text string) (*Artifact, error)

	// Name returns the provider identifier used in logs and metrics
	// (e.g., "elevenlabs", "gtranslate").
	Name() string
}
