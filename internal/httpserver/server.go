package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chadiek/claimline/internal/call"
	"github.com/chadiek/claimline/internal/config"
	twiliomw "github.com/chadiek/claimline/internal/middleware"
)

// Server bundles the echo router with its route dependencies. The router
// is served by a stdlib http.Server owned by cmd/server.
type Server struct {
	Router *echo.Echo
}

// New constructs the HTTP server: request logging, panic recovery, webhook
// signature validation when a Twilio auth token is configured, and the
// call-facing routes. recordings is nil when call recording is disabled.
func New(cfg config.Config, calls *call.Handler, recordings RecordingArchiver) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	if cfg.TwilioAuthToken != "" {
		token := cfg.TwilioAuthToken
		e.Use(twiliomw.TwilioAuth(func() string { return token }))
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Twilio + OpenAI Realtime server is running!"})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	h := handlers{streamHost: cfg.StreamHost, recordings: recordings}
	e.GET("/incoming-call", h.incomingCall)
	e.POST("/incoming-call", h.incomingCall)
	e.POST("/recording-status", h.recordingStatus)

	e.GET("/media-stream", func(c echo.Context) error {
		calls.HandleMediaStream(c.Response(), c.Request())
		return nil
	})

	return &Server{Router: e}
}
