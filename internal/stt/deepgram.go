package stt

import (
	"context"
	"fmt"
	"strings"

	listenapi "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	listenclient "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"

	"github.com/chadiek/claimline/internal/audio"
)

// DeepgramClient transcribes audio segments with the Deepgram prerecorded
// REST API.
type DeepgramClient struct {
	apiKey string
	model  string
}

// NewDeepgramClient defaults to the nova-2 model.
func NewDeepgramClient(apiKey, model string) *DeepgramClient {
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramClient{apiKey: apiKey, model: model}
}

// Transcribe wraps the PCM in a WAV container and sends it through the
// prerecorded endpoint.
func (d *DeepgramClient) Transcribe(ctx context.Context, pcm16k []byte) (string, error) {
	if d.apiKey == "" {
		return "", fmt.Errorf("deepgram: API key missing")
	}

	rest := listenclient.NewREST(d.apiKey, &clientinterfaces.ClientOptions{})
	dg := listenapi.New(rest)

	options := &clientinterfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		SmartFormat: true,
	}

	wav := audio.NewWAVBuffer(pcm16k, audio.TranscribeSampleRate)
	resp, err := dg.FromStream(ctx, wav, options)
	if err != nil {
		return "", fmt.Errorf("deepgram: transcribe: %w", err)
	}
	if resp == nil || len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return "", ErrEmptyTranscript
	}

	text := strings.TrimSpace(resp.Results.Channels[0].Alternatives[0].Transcript)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
