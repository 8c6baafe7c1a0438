// Package gtranslate provides a TTS provider backed by the public Google
// Translate text-to-speech endpoint. It requires no API key and serves as the
// fallback when no primary TTS provider is configured.
//
// The endpoint caps each request at roughly 200 characters, so longer text is
// split on whitespace into chunks and the resulting MP3 segments are
// concatenated into a single artifact (MP3 frames are self-delimiting, so
// plain concatenation yields a decodable file).
package gtranslate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tarahq/tara/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"
	defaultLanguage = "en"
	defaultTimeout  = 30 * time.Second

	// maxChunkLen is the per-request character budget accepted by the endpoint.
	maxChunkLen = 200
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithLanguage sets the synthesis language code (e.g., "en", "de").
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithEndpoint overrides the TTS endpoint URL. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements tts.Provider against the Google Translate TTS endpoint.
type Provider struct {
	endpoint   string
	language   string
	httpClient *http.Client
}

// New creates a new Google Translate TTS Provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		endpoint:   defaultEndpoint,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return "gtranslate" }

// Synthesize fetches one MP3 segment per text chunk and concatenates them into
// a single temporary file. The caller owns the returned artifact.
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gtranslate: text must not be empty")
	}

	f, err := os.CreateTemp("", "tara-tts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("gtranslate: create temp file: %w", err)
	}

	for _, chunk := range splitChunks(text, maxChunkLen) {
		if err := p.fetchChunk(ctx, chunk, f); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, err
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("gtranslate: close temp file: %w", err)
	}
	return &tts.Artifact{Path: f.Name(), Format: "mp3"}, nil
}

// fetchChunk requests a single MP3 segment and appends it to w.
func (p *Provider) fetchChunk(ctx context.Context, chunk string, w io.Writer) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", p.language)
	q.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("gtranslate: build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gtranslate: synthesis HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gtranslate: synthesis: unexpected status %d", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("gtranslate: read audio: %w", err)
	}
	return nil
}

// splitChunks splits text into pieces of at most maxLen characters, breaking
// on whitespace where possible. A single word longer than maxLen is split
// mid-word rather than rejected.
func splitChunks(text string, maxLen int) []string {
	words := strings.Fields(text)
	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, w := range words {
		for len(w) > maxLen {
			flush()
			chunks = append(chunks, w[:maxLen])
			w = w[maxLen:]
		}
		if current.Len() > 0 && current.Len()+1+len(w) > maxLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(w)
	}
	flush()
	return chunks
}
