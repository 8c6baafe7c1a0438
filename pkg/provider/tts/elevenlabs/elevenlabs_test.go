package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestSynthesize_WritesArtifact(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody synthRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("fake-mp3-bytes"))
	}))
	defer srv.Close()

	p, err := New("key-123", WithBaseURL(srv.URL), WithVoice("voice-9"), WithModel("eleven_multilingual_v2"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	artifact, err := p.Synthesize(context.Background(), "Hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	defer artifact.Close()

	if gotPath != "/v1/text-to-speech/voice-9" {
		t.Errorf("path = %q, want /v1/text-to-speech/voice-9", gotPath)
	}
	if gotKey != "key-123" {
		t.Errorf("xi-api-key = %q, want key-123", gotKey)
	}
	if gotBody.Text != "Hello there" {
		t.Errorf("body text = %q, want 'Hello there'", gotBody.Text)
	}
	if gotBody.VoiceSettings.Stability != defaultStability {
		t.Errorf("stability = %f, want %f", gotBody.VoiceSettings.Stability, defaultStability)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "fake-mp3-bytes" {
		t.Errorf("artifact contents = %q", data)
	}
	if artifact.Format != "mp3" {
		t.Errorf("format = %q, want mp3", artifact.Format)
	}
}

func TestSynthesize_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := New("bad-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := p.Synthesize(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()

	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestListVoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			t.Errorf("path = %q, want /v1/voices", r.URL.Path)
		}
		json.NewEncoder(w).Encode(voicesResponse{Voices: []elevenLabsVoice{
			{VoiceID: "v1", Name: "Rachel", Category: "premade"},
			{VoiceID: "v2", Name: "Adam"},
		}})
	}))
	defer srv.Close()

	p, err := New("key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(voices))
	}
	if voices[0].Name != "Rachel" || voices[0].ID != "v1" {
		t.Errorf("unexpected first voice: %+v", voices[0])
	}
}
