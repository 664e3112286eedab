package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/chadiek/claimline/internal/audio"
)

const whisperEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// WhisperClient transcribes audio segments with the OpenAI transcription
// HTTP API.
type WhisperClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
}

// NewWhisperClient returns a client with sane defaults (model whisper-1,
// 30 s request timeout).
func NewWhisperClient(apiKey, model string) *WhisperClient {
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      model,
	}
}

type whisperResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the segment as a WAV file and returns the recognized
// text. Empty recognition results map to ErrEmptyTranscript.
func (c *WhisperClient) Transcribe(ctx context.Context, pcm16k []byte) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("whisper API key is empty")
	}

	wav := audio.NewWAVBuffer(pcm16k, audio.TranscribeSampleRate)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", c.Model); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if _, err := io.Copy(part, wav); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, whisperEndpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whisper error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var parsed whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}
	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
