package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tarahq/tara/pkg/provider/llm"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
discord:
  token: "bot-token"
  guild_id: "123456789"
state:
  backend: sqlite
  path: data/tara.db
voice:
  lock_ttl_seconds: 600
  daily_limit: 5
  watcher_delay_seconds: 1
providers:
  llm:
    name: openai
    api_key: sk-test
    base_url: https://api.shapes.inc/v1/
    model: shape-medium
  tts:
    primary:
      name: elevenlabs
      api_key: el-test
    fallback:
      name: gtranslate
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.State.Backend != StateSQLite || cfg.State.Path != "data/tara.db" {
		t.Errorf("state = %+v", cfg.State)
	}
	if got := cfg.Voice.LockTTL(); got != 600*time.Second {
		t.Errorf("LockTTL = %v, want 600s", got)
	}
	if got := cfg.Voice.WatcherDelay(); got != time.Second {
		t.Errorf("WatcherDelay = %v, want 1s", got)
	}
	if cfg.Providers.TTS.Primary.Name != "elevenlabs" || cfg.Providers.TTS.Fallback.Name != "gtranslate" {
		t.Errorf("tts providers = %+v", cfg.Providers.TTS)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("discord:\n  token: t\n  typo_field: x\n"))
	if err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Discord.Token = "" },
			wantSub: "discord.token",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantSub: "server.log_level",
		},
		{
			name:    "bad state backend",
			mutate:  func(c *Config) { c.State.Backend = "redis" },
			wantSub: "state.backend",
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.State.Backend = StatePostgres
				c.State.PostgresDSN = ""
			},
			wantSub: "state.postgres_dsn",
		},
		{
			name:    "negative daily limit",
			mutate:  func(c *Config) { c.Voice.DailyLimit = -1 },
			wantSub: "voice.daily_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := LoadFromReader(strings.NewReader(validYAML))
			if err != nil {
				t.Fatalf("LoadFromReader: %v", err)
			}
			tt.mutate(cfg)

			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Server: ServerConfig{LogLevel: "loud"},
		State:  StateConfig{Backend: "redis"},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, sub := range []string{"discord.token", "server.log_level", "state.backend"} {
		if !strings.Contains(err.Error(), sub) {
			t.Errorf("joined error missing %q: %v", sub, err)
		}
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	_, err := r.CreateLLM(ProviderEntry{Name: "openai"})
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Fatalf("CreateLLM on empty registry = %v, want ErrProviderNotRegistered", err)
	}

	r.RegisterLLM("openai", func(ProviderEntry) (llm.Provider, error) {
		return nil, nil
	})
	if _, err := r.CreateLLM(ProviderEntry{Name: "openai"}); err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
}
