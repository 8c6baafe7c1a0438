package discord

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// openPCMStream launches ffmpeg to decode the audio file at path into raw
// interleaved s16le PCM at Discord's target format (48 kHz stereo). It returns
// the PCM stream and a wait function that must be called after the stream is
// drained to reap the process and surface decode errors.
func openPCMStream(ctx context.Context, path string) (io.ReadCloser, func() error, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "s16le",
		"-ar", strconv.Itoa(opusSampleRate),
		"-ac", strconv.Itoa(opusChannels),
		"pipe:1",
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	wait := func() error {
		if err := cmd.Wait(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("ffmpeg: %s: %w", msg, err)
			}
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return nil
	}
	return stdout, wait, nil
}
