// Package audio defines the interfaces for voice-channel connectivity and
// playback within Tara.
//
// The two primary abstractions are:
//
//   - [Platform] — connects to a voice channel and returns a [Connection].
//   - [Connection] — represents an active session on that channel, offering
//     blocking file playback, channel moves, and mute control.
//
// Implementations of these interfaces are provided by platform-specific adapter
// packages (e.g., audio/discord). The interfaces are intentionally narrow to
// keep the session orchestrator decoupled from provider details.
//
// This package lives under pkg/ because external code (third-party platform
// adapters) is expected to implement [Platform] and [Connection].
package audio

import (
	"context"
)

// Connection represents an active session on a voice channel.
//
// A Connection is obtained by calling [Platform.Connect] and remains valid
// until [Connection.Disconnect] is called. Implementations must be safe for
// concurrent use, though only one [Connection.Play] may run at a time.
type Connection interface {
	// ChannelID returns the ID of the voice channel the connection is
	// currently on. After a successful Move it reflects the new channel.
	ChannelID() string

	// Move transfers the connection to a different voice channel within the
	// same guild or server. It is a no-op when the connection is already on
	// channelID.
	Move(ctx context.Context, channelID string) error

	// Play decodes the audio file at path and plays it into the channel,
	// blocking until playback finishes, ctx is cancelled, or an error occurs.
	// Returns an error if a playback is already in progress.
	Play(ctx context.Context, path string) error

	// IsPlaying reports whether a Play call is currently in progress.
	IsPlaying() bool

	// SetMuted server-mutes or unmutes the bot itself on the platform.
	SetMuted(ctx context.Context, muted bool) error

	// Disconnect cleanly tears down the connection. It is safe to call
	// Disconnect more than once; subsequent calls are no-ops and return nil.
	Disconnect() error
}

// Platform is the entry point for a voice-channel provider.
// Implementations wrap provider-specific SDKs and expose a uniform
// [Connection] abstraction.
//
// Implementations must be safe for concurrent use.
type Platform interface {
	// Connect joins the voice channel identified by channelID and returns an
	// active [Connection]. The supplied ctx governs the lifetime of the
	// connection attempt only; once connected, the Connection remains alive
	// until [Connection.Disconnect] is called explicitly.
	Connect(ctx context.Context, channelID string) (Connection, error)
}
