package stt

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyTranscript is returned when the service answered but produced no
// usable text. Callers drop the segment and keep the call alive.
var ErrEmptyTranscript = errors.New("stt: empty transcript")

// Transcriber converts a 16 kHz linear PCM mono segment to plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []byte) (string, error)
}

// Converter produces 16 kHz linear PCM from a raw mu-law segment.
type Converter interface {
	ToPCM16k(ctx context.Context, mulaw []byte) ([]byte, error)
}

// SegmentTranscriber is the fallback pipeline for one captured caller
// segment: codec conversion first, then a transcription service.
type SegmentTranscriber struct {
	Converter   Converter
	Transcriber Transcriber
}

// TranscribeSegment converts the raw mu-law bytes and transcribes them.
func (s *SegmentTranscriber) TranscribeSegment(ctx context.Context, mulaw []byte) (string, error) {
	pcm, err := s.Converter.ToPCM16k(ctx, mulaw)
	if err != nil {
		return "", fmt.Errorf("convert segment: %w", err)
	}
	return s.Transcriber.Transcribe(ctx, pcm)
}
