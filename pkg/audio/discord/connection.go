package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/tarahq/tara/pkg/audio"
)

// Compile-time interface assertion.
var _ audio.Connection = (*Connection)(nil)

// ErrAlreadyPlaying is returned by Play when a playback is in progress.
var ErrAlreadyPlaying = errors.New("discord: playback already in progress")

// Connection wraps a discordgo.VoiceConnection and adapts it to the
// [audio.Connection] interface. Playback decodes the source file to PCM via
// ffmpeg, encodes 20 ms Opus frames, and pushes them on vc.OpusSend, which
// discordgo paces at one frame per 20 ms.
//
// Connection is safe for concurrent use.
type Connection struct {
	vc      *discordgo.VoiceConnection
	session *discordgo.Session
	guildID string

	mu        sync.Mutex
	channelID string
	playing   bool

	closeOnce sync.Once

	// Overridable seams for tests.
	openStream   func(ctx context.Context, path string) (io.ReadCloser, func() error, error)
	disconnectVC func() error
	moveVC       func(channelID string) error
	speaking     func(b bool) error
	sendOpus     func(ctx context.Context, pkt []byte) error
}

// newConnection initialises a Connection for an already-joined voice channel.
func newConnection(vc *discordgo.VoiceConnection, session *discordgo.Session, guildID, channelID string) *Connection {
	c := &Connection{
		vc:        vc,
		session:   session,
		guildID:   guildID,
		channelID: channelID,
	}
	c.openStream = openPCMStream
	c.disconnectVC = vc.Disconnect
	c.moveVC = func(id string) error {
		return vc.ChangeChannel(id, false, true)
	}
	c.speaking = vc.Speaking
	c.sendOpus = func(ctx context.Context, pkt []byte) error {
		select {
		case vc.OpusSend <- pkt:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c
}

// ChannelID returns the voice channel the connection is currently on.
func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

// Move transfers the connection to another voice channel in the same guild.
// A Move to the current channel is a no-op.
func (c *Connection) Move(_ context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channelID == channelID {
		return nil
	}
	if err := c.moveVC(channelID); err != nil {
		return fmt.Errorf("discord: move to channel %q: %w", channelID, err)
	}
	c.channelID = channelID
	return nil
}

// IsPlaying reports whether a Play call is currently in progress.
func (c *Connection) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// SetMuted server-mutes or unmutes the bot's own member in the guild.
func (c *Connection) SetMuted(ctx context.Context, muted bool) error {
	if c.session.State == nil || c.session.State.User == nil {
		return fmt.Errorf("discord: session state has no bot user")
	}
	botID := c.session.State.User.ID
	if err := c.session.GuildMemberMute(c.guildID, botID, muted, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: set muted=%t: %w", muted, err)
	}
	return nil
}

// Play decodes the file at path with ffmpeg, encodes the PCM output to Opus,
// and streams it into the voice channel. It blocks until playback finishes,
// ctx is cancelled, or an error occurs.
func (c *Connection) Play(ctx context.Context, path string) error {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return ErrAlreadyPlaying
	}
	c.playing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.playing = false
		c.mu.Unlock()
	}()

	stream, wait, err := c.openStream(ctx, path)
	if err != nil {
		return fmt.Errorf("discord: open audio stream: %w", err)
	}
	defer stream.Close()

	enc, err := newOpusEncoder()
	if err != nil {
		return err
	}

	if sErr := c.speaking(true); sErr != nil {
		slog.Warn("discord: speaking notification error", "speaking", true, "error", sErr)
	}
	defer func() {
		if sErr := c.speaking(false); sErr != nil {
			slog.Warn("discord: speaking notification error", "speaking", false, "error", sErr)
		}
	}()

	frame := make([]byte, opusFrameBytes)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, rErr := io.ReadFull(stream, frame)
		if rErr == io.EOF || rErr == io.ErrUnexpectedEOF {
			if n > 0 {
				// Zero-pad the trailing partial frame to a full 20 ms.
				for i := n; i < opusFrameBytes; i++ {
					frame[i] = 0
				}
				if err := c.encodeAndSend(ctx, enc, frame); err != nil {
					return err
				}
			}
			break
		}
		if rErr != nil {
			return fmt.Errorf("discord: read pcm stream: %w", rErr)
		}

		if err := c.encodeAndSend(ctx, enc, frame); err != nil {
			return err
		}
	}

	if err := wait(); err != nil {
		return fmt.Errorf("discord: decode %q: %w", path, err)
	}
	return nil
}

func (c *Connection) encodeAndSend(ctx context.Context, enc *opusEncoder, pcm []byte) error {
	pkt, err := enc.encode(pcm)
	if err != nil {
		return err
	}
	return c.sendOpus(ctx, pkt)
}

// Disconnect cleanly tears down the voice connection. It is safe to call more
// than once; subsequent calls return nil.
func (c *Connection) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.disconnectVC()
	})
	return err
}
