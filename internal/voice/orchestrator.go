package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tarahq/tara/internal/observe"
	"github.com/tarahq/tara/pkg/audio"
	"github.com/tarahq/tara/pkg/provider/llm"
	"github.com/tarahq/tara/pkg/provider/tts"
)

// DefaultWatcherDelay is how long after a finished playback the departure
// watcher waits before checking whether the lock holder is still around.
const DefaultWatcherDelay = time.Second

// statusSpeaking is the transient status message shown while the bot plays
// audio in the channel.
const statusSpeaking = "Speaking…"

// Presence resolves a requester's current voice channel and display identity
// on the chat platform.
type Presence interface {
	// VoiceChannelOf returns the ID of the voice channel requesterID is in,
	// or ok=false when they are not in any voice channel.
	VoiceChannelOf(requesterID string) (channelID string, ok bool)

	// DisplayName returns a human-readable name for requesterID, falling
	// back to a mention or the raw ID when the member is unknown.
	DisplayName(requesterID string) string
}

// Notifier delivers user-facing text for one session. Delivery failures are
// non-critical: implementations log them and never return them.
type Notifier interface {
	// Notify posts a message to the session's text channel.
	Notify(ctx context.Context, text string)

	// BeginStatus posts a transient status message and returns a function
	// that removes it. The returned clear function is never nil.
	BeginStatus(ctx context.Context, text string) (clear func())
}

// Synthesizer converts reply text into a playable audio artifact. The
// caller owns disposal of the artifact. internal/speech.Pipeline is the
// production implementation.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*tts.Artifact, error)
}

// Request describes one session trigger.
type Request struct {
	// RequesterID is the platform user ID of the member asking to talk.
	RequesterID string

	// PromptText is the message the chat backend replies to.
	PromptText string

	// Notifier delivers status and departure messages for this session.
	Notifier Notifier
}

// Orchestrator drives one voice session end-to-end: quota check, lock
// acquisition, transport connect, chat reply, synthesis, playback, lock
// refresh, and the deferred departure check. Every failure is classified
// under the package error taxonomy; nothing escapes as a process-fatal
// error.
//
// Orchestrator is safe for concurrent use. Concurrent sessions from
// different requesters serialise on the session lock.
type Orchestrator struct {
	lock     *Lock
	quota    *Quota
	backend  llm.Provider
	synth    Synthesizer
	platform audio.Platform
	presence Presence
	metrics  *observe.Metrics
	log      *slog.Logger

	systemPrompt string
	watcherDelay time.Duration

	connMu sync.Mutex
	conn   audio.Connection
}

// OrchestratorConfig carries the collaborators an Orchestrator needs. All
// fields except Metrics, Logger, and WatcherDelay are required.
type OrchestratorConfig struct {
	Lock     *Lock
	Quota    *Quota
	Backend  llm.Provider
	Synth    Synthesizer
	Platform audio.Platform
	Presence Presence

	// Metrics defaults to observe.DefaultMetrics().
	Metrics *observe.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// SystemPrompt, when set, is sent with every chat backend request.
	SystemPrompt string

	// WatcherDelay defaults to DefaultWatcherDelay.
	WatcherDelay time.Duration
}

// NewOrchestrator creates an Orchestrator from cfg.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	switch {
	case cfg.Lock == nil:
		return nil, fmt.Errorf("voice: orchestrator requires a lock")
	case cfg.Quota == nil:
		return nil, fmt.Errorf("voice: orchestrator requires a quota tracker")
	case cfg.Backend == nil:
		return nil, fmt.Errorf("voice: orchestrator requires a chat backend")
	case cfg.Synth == nil:
		return nil, fmt.Errorf("voice: orchestrator requires a synthesizer")
	case cfg.Platform == nil:
		return nil, fmt.Errorf("voice: orchestrator requires an audio platform")
	case cfg.Presence == nil:
		return nil, fmt.Errorf("voice: orchestrator requires a presence resolver")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WatcherDelay <= 0 {
		cfg.WatcherDelay = DefaultWatcherDelay
	}
	return &Orchestrator{
		lock:         cfg.Lock,
		quota:        cfg.Quota,
		backend:      cfg.Backend,
		synth:        cfg.Synth,
		platform:     cfg.Platform,
		presence:     cfg.Presence,
		metrics:      cfg.Metrics,
		log:          cfg.Logger,
		systemPrompt: cfg.SystemPrompt,
		watcherDelay: cfg.WatcherDelay,
	}, nil
}

// Speak runs one complete session for req. It blocks until playback has
// finished (or an earlier stage failed); the departure watcher runs on its
// own afterwards and is not awaited.
//
// Errors are classified under the package taxonomy. Note the committed-state
// semantics: the quota unit is charged before voice presence is verified and
// is never refunded, and ErrBackend / ErrSynthesis leave the lock held so a
// transient failure does not surrender the requester's turn.
func (o *Orchestrator) Speak(ctx context.Context, req Request) error {
	log := o.log.With(
		slog.String("session_id", uuid.NewString()),
		slog.String("requester_id", req.RequesterID),
	)

	// Quota first. On denial the lock is force-released no matter who holds
	// it and the transport is dropped: an exhausted requester's attempt
	// still frees the floor.
	if err := o.quota.TryConsume(ctx, req.RequesterID); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			o.metrics.QuotaDenials.Add(ctx, 1)
			log.Info("quota exhausted, force-releasing lock")
			if rErr := o.lock.Release(ctx); rErr != nil {
				log.Warn("force-release after quota denial failed", "error", rErr)
			}
			o.dropConnection(log)
		}
		return err
	}

	// Presence is deliberately checked after the quota charge: a requester
	// who is not in any voice channel still spends a daily unit.
	channelID, ok := o.presence.VoiceChannelOf(req.RequesterID)
	if !ok {
		o.metrics.RecordSessionError(ctx, "presence")
		return ErrNoVoicePresence
	}

	if err := o.lock.Acquire(ctx, req.RequesterID); err != nil {
		if errors.Is(err, ErrLockConflict) {
			o.metrics.LockConflicts.Add(ctx, 1)
		}
		return err
	}

	o.metrics.SessionsStarted.Add(ctx, 1)
	log.Info("session started", slog.String("channel_id", channelID))

	conn, err := o.ensureConnected(ctx, channelID)
	if err != nil {
		o.metrics.RecordSessionError(ctx, "connect")
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	replyStart := time.Now()
	resp, err := o.backend.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: o.systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: req.PromptText}},
	})
	if err != nil {
		// Lock stays held: a transient backend error must not cost the turn.
		o.metrics.RecordSessionError(ctx, "reply")
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	replyText := ""
	if resp != nil {
		replyText = strings.TrimSpace(resp.Content)
	}
	if replyText == "" {
		o.metrics.RecordSessionError(ctx, "reply")
		return fmt.Errorf("%w: empty reply", ErrBackend)
	}
	observe.RecordStageDuration(ctx, o.metrics.ReplyDuration, time.Since(replyStart))

	synthStart := time.Now()
	artifact, err := o.synth.Synthesize(ctx, replyText)
	if err != nil {
		// Lock stays held here too.
		o.metrics.RecordSessionError(ctx, "synthesis")
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	// Disposal must happen on every exit path, including playback failure.
	defer func() {
		if cErr := artifact.Close(); cErr != nil {
			log.Warn("artifact cleanup failed", "error", cErr)
		}
	}()
	observe.RecordStageDuration(ctx, o.metrics.SynthesisDuration, time.Since(synthStart))

	if err := o.play(ctx, log, conn, req.Notifier, artifact.Path); err != nil {
		o.metrics.RecordSessionError(ctx, "playback")
		return err
	}

	if err := o.lock.Refresh(ctx, req.RequesterID); err != nil {
		log.Warn("lock refresh failed", "error", err)
	}

	// Fire-and-forget: the watcher has its own lifecycle and is never
	// joined by this flow.
	go o.watchDeparture(req.RequesterID, channelID, req.Notifier, log)

	log.Info("session finished")
	return nil
}

// play streams the artifact, wrapped in the best-effort ceremony around it:
// status message up, unmute, play, re-mute, status message gone. Mute and
// status failures are logged and never abort playback.
func (o *Orchestrator) play(ctx context.Context, log *slog.Logger, conn audio.Connection, n Notifier, path string) error {
	clearStatus := func() {}
	if n != nil {
		clearStatus = n.BeginStatus(ctx, statusSpeaking)
	}
	defer clearStatus()

	if err := conn.SetMuted(ctx, false); err != nil {
		log.Warn("unmute failed", "error", err)
	}
	defer func() {
		if err := conn.SetMuted(ctx, true); err != nil {
			log.Warn("mute failed", "error", err)
		}
	}()

	playStart := time.Now()
	if err := conn.Play(ctx, path); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	observe.RecordStageDuration(ctx, o.metrics.PlaybackDuration, time.Since(playStart))
	return nil
}

// watchDeparture is the one-shot post-playback check: after the configured
// delay, if the owner has left the channel, release the lock, drop the
// transport, and announce the free floor. Continued absence afterwards is
// only caught by the lock's idle TTL, not by further watching.
func (o *Orchestrator) watchDeparture(requesterID, channelID string, n Notifier, log *slog.Logger) {
	time.Sleep(o.watcherDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cur, ok := o.presence.VoiceChannelOf(requesterID); ok && cur == channelID {
		return
	}

	log.Info("owner left the voice channel, releasing lock")
	if err := o.lock.Release(ctx); err != nil {
		log.Warn("release after departure failed", "error", err)
	}
	o.dropConnection(log)

	if n != nil {
		name := o.presence.DisplayName(requesterID)
		n.Notify(ctx, fmt.Sprintf("%s left the VC. Lock released. Next person can use the bot.", name))
	}
}

// Status reports the current lock state plus the holder's display name for
// the status command.
func (o *Orchestrator) Status(ctx context.Context) (LockState, string, error) {
	st, err := o.lock.Read(ctx)
	if err != nil {
		return LockState{}, "", err
	}
	if !st.Held {
		return st, "", nil
	}
	return st, o.presence.DisplayName(st.OwnerID), nil
}

// ensureConnected returns the shared voice connection, joining channelID or
// moving an existing connection there.
func (o *Orchestrator) ensureConnected(ctx context.Context, channelID string) (audio.Connection, error) {
	o.connMu.Lock()
	defer o.connMu.Unlock()

	if o.conn != nil {
		if o.conn.ChannelID() != channelID {
			if err := o.conn.Move(ctx, channelID); err != nil {
				return nil, err
			}
		}
		return o.conn, nil
	}

	conn, err := o.platform.Connect(ctx, channelID)
	if err != nil {
		return nil, err
	}
	o.conn = conn
	return conn, nil
}

// dropConnection disconnects and forgets the shared voice connection, if any.
func (o *Orchestrator) dropConnection(log *slog.Logger) {
	o.connMu.Lock()
	defer o.connMu.Unlock()

	if o.conn == nil {
		return
	}
	if err := o.conn.Disconnect(); err != nil {
		log.Warn("voice disconnect failed", "error", err)
	}
	o.conn = nil
}

// Close drops the voice connection. Call on shutdown.
func (o *Orchestrator) Close() {
	o.dropConnection(o.log)
}
