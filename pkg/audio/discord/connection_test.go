package discord

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

// fakeStream returns a Connection whose playback seams are wired to an
// in-memory PCM source, recording every Opus packet sent.
func fakeStream(pcm []byte, waitErr error) (*Connection, *[][]byte) {
	var sent [][]byte
	c := &Connection{channelID: "chan-1"}
	c.openStream = func(_ context.Context, _ string) (io.ReadCloser, func() error, error) {
		return io.NopCloser(bytes.NewReader(pcm)), func() error { return waitErr }, nil
	}
	c.speaking = func(bool) error { return nil }
	c.sendOpus = func(_ context.Context, pkt []byte) error {
		sent = append(sent, pkt)
		return nil
	}
	return c, &sent
}

func TestPlay_SendsAllFrames(t *testing.T) {
	t.Parallel()

	// Two full frames plus a partial one that must be zero-padded.
	pcm := make([]byte, opusFrameBytes*2+100)
	c, sent := fakeStream(pcm, nil)

	if err := c.Play(context.Background(), "out.mp3"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(*sent) != 3 {
		t.Errorf("sent %d opus packets, want 3", len(*sent))
	}
	if c.IsPlaying() {
		t.Error("IsPlaying = true after Play returned")
	}
}

func TestPlay_RejectsConcurrent(t *testing.T) {
	t.Parallel()

	c, _ := fakeStream(nil, nil)
	c.playing = true

	if err := c.Play(context.Background(), "out.mp3"); !errors.Is(err, ErrAlreadyPlaying) {
		t.Fatalf("Play error = %v, want ErrAlreadyPlaying", err)
	}
}

func TestPlay_SurfacesDecodeError(t *testing.T) {
	t.Parallel()

	decodeErr := errors.New("corrupt input")
	c, _ := fakeStream(make([]byte, opusFrameBytes), decodeErr)

	if err := c.Play(context.Background(), "out.mp3"); !errors.Is(err, decodeErr) {
		t.Fatalf("Play error = %v, want wrapped decode error", err)
	}
}

func TestPlay_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, sent := fakeStream(make([]byte, opusFrameBytes*10), nil)
	if err := c.Play(ctx, "out.mp3"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Play error = %v, want context.Canceled", err)
	}
	if len(*sent) != 0 {
		t.Errorf("sent %d packets after cancellation, want 0", len(*sent))
	}
}

func TestMove(t *testing.T) {
	t.Parallel()

	moved := ""
	c := &Connection{channelID: "chan-1"}
	c.moveVC = func(id string) error {
		moved = id
		return nil
	}

	// Moving to the current channel must not touch the voice connection.
	if err := c.Move(context.Background(), "chan-1"); err != nil {
		t.Fatalf("Move (same channel): %v", err)
	}
	if moved != "" {
		t.Errorf("moveVC called for same-channel move")
	}

	if err := c.Move(context.Background(), "chan-2"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved != "chan-2" {
		t.Errorf("moveVC target = %q, want chan-2", moved)
	}
	if got := c.ChannelID(); got != "chan-2" {
		t.Errorf("ChannelID = %q, want chan-2", got)
	}
}

func TestDisconnect_Idempotent(t *testing.T) {
	t.Parallel()

	calls := 0
	c := &Connection{}
	c.disconnectVC = func() error {
		calls++
		return nil
	}

	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect (second): %v", err)
	}
	if calls != 1 {
		t.Errorf("disconnectVC called %d times, want 1", calls)
	}
}

func TestBytesToInt16s(t *testing.T) {
	t.Parallel()

	b := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80}
	got := bytesToInt16s(b)
	want := []int16{1, -1, -32768}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}
