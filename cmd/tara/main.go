// Command tara is the main entry point for the Tara voice bot server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/tarahq/tara/internal/config"
	discordbot "github.com/tarahq/tara/internal/discord"
	"github.com/tarahq/tara/internal/discord/commands"
	"github.com/tarahq/tara/internal/health"
	"github.com/tarahq/tara/internal/observe"
	"github.com/tarahq/tara/internal/resilience"
	"github.com/tarahq/tara/internal/speech"
	"github.com/tarahq/tara/internal/state"
	"github.com/tarahq/tara/internal/state/postgres"
	"github.com/tarahq/tara/internal/state/sqlite"
	"github.com/tarahq/tara/internal/voice"
	"github.com/tarahq/tara/pkg/provider/llm"
	"github.com/tarahq/tara/pkg/provider/llm/anyllm"
	"github.com/tarahq/tara/pkg/provider/llm/openai"
	"github.com/tarahq/tara/pkg/provider/tts"
	"github.com/tarahq/tara/pkg/provider/tts/elevenlabs"
	"github.com/tarahq/tara/pkg/provider/tts/gtranslate"
)

const defaultStatePath = "data/tara.db"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "tara: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "tara: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("tara starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "tara"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	backend, err := buildBackend(cfg, reg)
	if err != nil {
		slog.Error("failed to build chat backend", "err", err)
		return 1
	}
	// Fail sessions fast when the backend is down instead of timing out
	// every attempt.
	backend = resilience.NewBreakerLLM(backend, resilience.CircuitBreakerConfig{
		Name: cfg.Providers.LLM.Name,
	})

	primary, fallback, err := buildSynthesizers(cfg, reg)
	if err != nil {
		slog.Error("failed to build TTS providers", "err", err)
		return 1
	}
	pipeline := speech.NewPipeline(primary, fallback, logger)

	// ── State store ───────────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg.State)
	if err != nil {
		slog.Error("failed to open state store", "err", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("state store close error", "err", err)
		}
	}()

	// ── Discord bot ───────────────────────────────────────────────────────────
	bot, err := discordbot.New(ctx, discordbot.Config{
		Token:   cfg.Discord.Token,
		GuildID: cfg.Discord.GuildID,
	})
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}
	slog.Info("discord bot connected", "guild_id", cfg.Discord.GuildID)

	// ── Voice orchestrator ────────────────────────────────────────────────────
	orch, err := voice.NewOrchestrator(voice.OrchestratorConfig{
		Lock:         voice.NewLock(store, cfg.Voice.LockTTL()),
		Quota:        voice.NewQuota(store, cfg.Voice.DailyLimit),
		Backend:      backend,
		Synth:        pipeline,
		Platform:     bot.Platform(),
		Presence:     bot.Presence(),
		Metrics:      metrics,
		Logger:       logger,
		SystemPrompt: cfg.Voice.SystemPrompt,
		WatcherDelay: cfg.Voice.WatcherDelay(),
	})
	if err != nil {
		slog.Error("failed to create voice orchestrator", "err", err)
		return 1
	}

	commands.NewTalkCommands(orch, bot.Presence()).Register(bot.Router())

	// ── HTTP server (metrics + health) ────────────────────────────────────────
	server := newHTTPServer(cfg.Server.ListenAddr, metrics, store, primary)

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discord bot: %w", err)
		}
		return nil
	})

	if server != nil {
		g.Go(func() error {
			slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	err = g.Wait()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down…")
	orch.Close()
	if cErr := bot.Close(); cErr != nil {
		slog.Warn("discord bot close error", "err", cErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// The native openai client covers openai itself plus any OpenAI-compatible
	// endpoint (base_url).
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// anthropic, gemini, deepseek, mistral, groq, llamacpp and llamafile all
	// share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if voiceID := optString(entry.Options, "voice_id"); voiceID != "" {
			opts = append(opts, elevenlabs.WithVoice(voiceID))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("gtranslate", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []gtranslate.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, gtranslate.WithLanguage(lang))
		}
		return gtranslate.New(opts...), nil
	})
}

// buildBackend instantiates the configured chat backend. Exactly one is
// required: a voice session without replies is useless.
func buildBackend(cfg *config.Config, reg *config.Registry) (llm.Provider, error) {
	entry := cfg.Providers.LLM
	if entry.Name == "" {
		return nil, errors.New("providers.llm.name is required")
	}
	p, err := reg.CreateLLM(entry)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", entry.Name, "model", entry.Model)
	return p, nil
}

// buildSynthesizers instantiates the configured primary and fallback TTS
// providers. Either may be absent; the speech pipeline copes with both
// missing (sessions then fail with a clear error).
func buildSynthesizers(cfg *config.Config, reg *config.Registry) (primary, fallback tts.Provider, err error) {
	if entry := cfg.Providers.TTS.Primary; entry.Name != "" {
		primary, err = reg.CreateTTS(entry)
		if err != nil {
			return nil, nil, fmt.Errorf("create tts provider %q: %w", entry.Name, err)
		}
		slog.Info("provider created", "kind", "tts", "role", "primary", "name", entry.Name)
	}
	if entry := cfg.Providers.TTS.Fallback; entry.Name != "" {
		fallback, err = reg.CreateTTS(entry)
		if err != nil {
			return nil, nil, fmt.Errorf("create tts provider %q: %w", entry.Name, err)
		}
		slog.Info("provider created", "kind", "tts", "role", "fallback", "name", entry.Name)
	}
	if primary == nil && fallback == nil {
		slog.Warn("no TTS provider configured — /talk say will fail until one is added")
	}
	return primary, fallback, nil
}

// openStore opens the configured lock/quota store.
func openStore(ctx context.Context, cfg config.StateConfig) (state.Store, error) {
	switch cfg.Backend {
	case config.StatePostgres:
		return postgres.Open(ctx, cfg.PostgresDSN)
	case config.StateSQLite, "":
		path := cfg.Path
		if path == "" {
			path = defaultStatePath
		}
		return sqlite.Open(ctx, path)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

// newHTTPServer builds the metrics/health server, or returns nil when no
// listen address is configured.
func newHTTPServer(addr string, metrics *observe.Metrics, store state.Store, primaryTTS tts.Provider) *http.Server {
	if addr == "" {
		return nil
	}

	checkers := []health.Checker{health.StoreChecker(store)}
	if el, ok := primaryTTS.(*elevenlabs.Provider); ok {
		checkers = append(checkers, health.ProbeChecker("elevenlabs", func(ctx context.Context) error {
			_, err := el.ListVoices(ctx)
			return err
		}))
	}

	r := chi.NewRouter()
	r.Use(observe.Middleware(metrics))
	r.Handle("/metrics", promhttp.Handler())
	health.New(checkers...).Register(r)

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
