package httpserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go/twiml"
)

// RecordingArchiver moves a finished Twilio recording into the archive.
type RecordingArchiver interface {
	Archive(ctx context.Context, recordingURL, objectKey string) error
}

type handlers struct {
	streamHost string
	recordings RecordingArchiver
}

// incomingCall answers Twilio's voice webhook with TwiML that connects the
// call audio to the media-stream websocket. Host priority: configured
// STREAM_HOST, then X-Forwarded-Host, then the request Host.
func (h handlers) incomingCall(c echo.Context) error {
	host := h.streamHost
	if host == "" {
		host = c.Request().Header.Get("X-Forwarded-Host")
	}
	if host == "" {
		host = c.Request().Host
	}

	stream := &twiml.VoiceStream{Url: fmt.Sprintf("wss://%s/media-stream", host)}
	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	response, err := twiml.Voice([]twiml.Element{connect})
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to build TwiML")
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/xml")
	return c.String(http.StatusOK, response)
}

// recordingStatus receives Twilio's recording-status callback and ships
// completed recordings off to the archive.
func (h handlers) recordingStatus(c echo.Context) error {
	params := webhookParams(c)
	status := params["RecordingStatus"]
	recordingURL := params["RecordingUrl"]
	recordingSID := params["RecordingSid"]

	log.Printf("recording status: %s, SID: %s", status, recordingSID)

	if status == "completed" && recordingURL != "" && h.recordings != nil {
		objectKey := fmt.Sprintf("recordings/%s_%d.wav", recordingSID, time.Now().Unix())
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.recordings.Archive(ctx, recordingURL, objectKey); err != nil {
				log.Printf("failed to archive recording %s: %v", recordingSID, err)
			} else {
				log.Printf("recording archived: %s", objectKey)
			}
		}()
	}

	return c.String(http.StatusOK, "OK")
}

// webhookParams returns the form params stashed by the signature
// middleware, or parses the form itself when validation is disabled.
func webhookParams(c echo.Context) map[string]string {
	if p, ok := c.Get("twilioParams").(map[string]string); ok {
		return p
	}
	params := make(map[string]string)
	form, err := c.FormParams()
	if err != nil {
		return params
	}
	for k, v := range form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
