// Package mock provides test doubles for the audio.Platform and
// audio.Connection interfaces.
//
// Zero values for error fields cause methods to succeed; set the Err fields to
// inject failures. All calls are recorded so tests can assert ordering and
// arguments.
package mock

import (
	"context"
	"sync"

	"github.com/tarahq/tara/pkg/audio"
)

// Platform is a mock implementation of audio.Platform. Connect returns Conn
// (a shared default is created lazily if nil) unless ConnectErr is set.
type Platform struct {
	mu sync.Mutex

	// Conn is the connection returned by Connect.
	Conn *Connection

	// ConnectErr, if non-nil, is returned by Connect.
	ConnectErr error

	// ConnectCalls records the channel IDs passed to Connect in order.
	ConnectCalls []string
}

var _ audio.Platform = (*Platform)(nil)

// Connect implements audio.Platform.
func (p *Platform) Connect(_ context.Context, channelID string) (audio.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCalls = append(p.ConnectCalls, channelID)
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Conn == nil {
		p.Conn = &Connection{Channel: channelID}
	}
	return p.Conn, nil
}

// MuteCall records a single SetMuted invocation.
type MuteCall struct {
	Muted bool
}

// Connection is a mock implementation of audio.Connection.
type Connection struct {
	mu sync.Mutex

	// Channel is returned by ChannelID and updated by Move.
	Channel string

	// Playing is returned by IsPlaying.
	Playing bool

	// MoveErr, PlayErr, MuteErr, DisconnectErr inject failures into the
	// corresponding methods.
	MoveErr       error
	PlayErr       error
	MuteErr       error
	DisconnectErr error

	// PlayFunc, if set, is invoked by Play instead of the default behaviour.
	// Use it to block playback or observe mid-play state.
	PlayFunc func(ctx context.Context, path string) error

	// --- Call records (read after test) ---

	MoveCalls       []string
	PlayCalls       []string
	MuteCalls       []MuteCall
	DisconnectCalls int
}

var _ audio.Connection = (*Connection)(nil)

// ChannelID implements audio.Connection.
func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Channel
}

// Move implements audio.Connection.
func (c *Connection) Move(_ context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MoveCalls = append(c.MoveCalls, channelID)
	if c.MoveErr != nil {
		return c.MoveErr
	}
	c.Channel = channelID
	return nil
}

// Play implements audio.Connection.
func (c *Connection) Play(ctx context.Context, path string) error {
	c.mu.Lock()
	c.PlayCalls = append(c.PlayCalls, path)
	fn, err := c.PlayFunc, c.PlayErr
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, path)
	}
	return err
}

// IsPlaying implements audio.Connection.
func (c *Connection) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Playing
}

// SetMuted implements audio.Connection.
func (c *Connection) SetMuted(_ context.Context, muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MuteCalls = append(c.MuteCalls, MuteCall{Muted: muted})
	return c.MuteErr
}

// Disconnect implements audio.Connection.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DisconnectCalls++
	return c.DisconnectErr
}
