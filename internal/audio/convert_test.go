package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func tempSegmentFiles(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "segment-*"))
	if err != nil {
		t.Fatalf("glob temp dir: %v", err)
	}
	return len(matches)
}

func TestMulawConverter_EmptySegment(t *testing.T) {
	c := NewMulawConverter("")
	if _, err := c.ToPCM16k(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty segment")
	}
}

func TestMulawConverter_MissingBinaryCleansUp(t *testing.T) {
	before := tempSegmentFiles(t)

	c := NewMulawConverter(filepath.Join(t.TempDir(), "no-such-ffmpeg"))
	_, err := c.ToPCM16k(context.Background(), []byte{0x7f, 0x7f, 0x00, 0x80})
	if err == nil {
		t.Fatal("expected error when the codec binary does not exist")
	}

	if after := tempSegmentFiles(t); after != before {
		t.Fatalf("temp files leaked: before=%d after=%d", before, after)
	}
}

func TestMulawConverter_DefaultBinary(t *testing.T) {
	c := NewMulawConverter("")
	if c.FFmpegPath != "ffmpeg" {
		t.Fatalf("default binary: got %q, want %q", c.FFmpegPath, "ffmpeg")
	}
}
