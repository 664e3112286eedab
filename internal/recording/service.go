package recording

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Storage abstracts the archive backend for finished call audio.
type Storage interface {
	Upload(objectKey string, contentType string, body []byte) error
}

// Service starts recordings on live calls through Twilio's REST API and
// archives the finished audio files.
type Service struct {
	accountSID string
	authToken  string
	client     *twilio.RestClient
	httpClient *http.Client
	storage    Storage
}

func NewService(accountSID, authToken string, storage Storage) *Service {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &Service{
		accountSID: accountSID,
		authToken:  authToken,
		client:     client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		storage:    storage,
	}
}

// Start begins a continuous recording on an in-progress call. Twilio posts
// to callbackURL once the recording completes.
func (s *Service) Start(callSID, callbackURL string) error {
	if s.accountSID == "" || s.authToken == "" {
		return fmt.Errorf("missing Twilio credentials: TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN required to start recording")
	}

	params := &twilioApi.CreateCallRecordingParams{}
	params.SetRecordingStatusCallback(callbackURL)
	params.SetRecordingStatusCallbackMethod("POST")
	params.SetRecordingStatusCallbackEvent([]string{"completed"})
	params.SetRecordingChannels("mono")

	if _, err := s.client.Api.CreateCallRecording(callSID, params); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	return nil
}

// Archive downloads a finished recording from Twilio and uploads it to
// storage under objectKey.
func (s *Service) Archive(ctx context.Context, recordingURL, objectKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL+".wav", nil)
	if err != nil {
		return fmt.Errorf("failed to create request to Twilio recording URL: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyPreview, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to download recording, status %d: %s", resp.StatusCode, string(bodyPreview))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}

	if err := s.storage.Upload(objectKey, "audio/wav", body); err != nil {
		return fmt.Errorf("failed to upload to storage: %w", err)
	}
	return nil
}
