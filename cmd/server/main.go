package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chadiek/claimline/internal/audio"
	"github.com/chadiek/claimline/internal/call"
	"github.com/chadiek/claimline/internal/config"
	"github.com/chadiek/claimline/internal/httpserver"
	"github.com/chadiek/claimline/internal/infra/storage"
	"github.com/chadiek/claimline/internal/recording"
	"github.com/chadiek/claimline/internal/stt"
	"github.com/chadiek/claimline/internal/transcript"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("Missing OPENAI_API_KEY in your environment")
	}

	var archiver transcript.Archiver
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceRoleKey != "" {
		supa, err := storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseBucket)
		if err != nil {
			log.Printf("supabase storage disabled: %v", err)
		} else {
			archiver = supa
		}
	}
	sink := transcript.NewFileSink(cfg.TranscriptPath, archiver)

	var recorder call.Recorder
	var recordings httpserver.RecordingArchiver
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && archiver != nil {
		svc := recording.NewService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, archiver)
		recorder = svc
		recordings = svc
		log.Println("call recording enabled")
	} else {
		log.Println("call recording disabled - requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and Supabase storage")
	}

	var transcriber call.Transcriber
	switch cfg.TranscriberMode {
	case config.TranscriberEngine:
		// Native mode: the realtime engine delivers caller transcripts itself.
	case config.TranscriberWhisper:
		transcriber = &stt.SegmentTranscriber{
			Converter:   audio.NewMulawConverter(cfg.FFmpegPath),
			Transcriber: stt.NewWhisperClient(cfg.OpenAIAPIKey, ""),
		}
	case config.TranscriberDeepgram:
		transcriber = &stt.SegmentTranscriber{
			Converter:   audio.NewMulawConverter(cfg.FFmpegPath),
			Transcriber: stt.NewDeepgramClient(cfg.DeepgramAPIKey, ""),
		}
	default:
		log.Fatalf("unknown TRANSCRIBER mode %q", cfg.TranscriberMode)
	}

	registry := call.NewRegistry()
	calls := call.NewHandler(registry, sink, call.HandlerConfig{
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		RealtimeModel:     cfg.RealtimeModel,
		Voice:             cfg.Voice,
		NativeTranscripts: cfg.TranscriberMode == config.TranscriberEngine,
		StreamHost:        cfg.StreamHost,
	}, transcriber, recorder)

	srv := httpserver.New(cfg, calls, recordings)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on :%s", cfg.Port)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
	registry.CloseAll()
}
