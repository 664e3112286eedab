package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// MulawConverter converts a raw 8 kHz G.711 mu-law segment to 16-bit linear
// PCM at 16 kHz by shelling out to ffmpeg. The codec works on files, so the
// segment passes through a pair of temp files that are removed on every
// exit path.
type MulawConverter struct {
	FFmpegPath string
}

// NewMulawConverter uses "ffmpeg" from PATH when no explicit path is given.
func NewMulawConverter(ffmpegPath string) *MulawConverter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &MulawConverter{FFmpegPath: ffmpegPath}
}

// ToPCM16k runs the conversion and returns the raw little-endian PCM bytes.
func (c *MulawConverter) ToPCM16k(ctx context.Context, mulaw []byte) ([]byte, error) {
	if len(mulaw) == 0 {
		return nil, fmt.Errorf("empty audio segment")
	}

	in, err := os.CreateTemp("", "segment-*.ulaw")
	if err != nil {
		return nil, fmt.Errorf("create input temp file: %w", err)
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	if _, err := in.Write(mulaw); err != nil {
		in.Close()
		return nil, fmt.Errorf("write input temp file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close input temp file: %w", err)
	}

	out, err := os.CreateTemp("", "segment-*.pcm")
	if err != nil {
		return nil, fmt.Errorf("create output temp file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, c.FFmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-f", "mulaw", "-ar", "8000", "-ac", "1", "-i", inPath,
		"-f", "s16le", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1",
		"-y", outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("ffmpeg conversion failed: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("ffmpeg conversion failed: %w", err)
	}

	pcm, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read converted audio: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no audio")
	}
	return pcm, nil
}
