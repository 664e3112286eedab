package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Transcriber modes. Engine is native mode: the realtime engine
// transcribes caller audio itself. The other two run the captured segment
// through an external transcription service.
const (
	TranscriberEngine   = "engine"
	TranscriberWhisper  = "whisper"
	TranscriberDeepgram = "deepgram"
)

// Config holds application configuration.
type Config struct {
	Port             string
	OpenAIAPIKey     string
	RealtimeModel    string
	Voice            string
	TranscriberMode  string
	DeepgramAPIKey   string
	TwilioAccountSID string
	TwilioAuthToken  string
	TranscriptPath   string
	FFmpegPath       string
	StreamHost       string

	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseBucket         string
}

// Load reads environment variables and returns Config with sane defaults.
// OPENAI_API_KEY is the one credential the process cannot run without;
// main refuses to start when it is missing.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, reading environment directly")
	}

	cfg := Config{
		Port:             getEnv("PORT", "5050"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		RealtimeModel:    getEnv("OPENAI_REALTIME_MODEL", "gpt-4o-mini-realtime-preview-2024-12-17"),
		Voice:            getEnv("OPENAI_VOICE", "alloy"),
		TranscriberMode:  getEnv("TRANSCRIBER", TranscriberEngine),
		DeepgramAPIKey:   os.Getenv("DEEPGRAM_API_KEY"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TranscriptPath:   getEnv("TRANSCRIPT_FILE", "transcript.txt"),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		StreamHost:       os.Getenv("STREAM_HOST"),

		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:         getEnv("SUPABASE_BUCKET", "call-transcripts"),
	}

	if cfg.TwilioAuthToken == "" {
		log.Println("Warning: TWILIO_AUTH_TOKEN not set - webhook signature validation disabled")
	}
	if cfg.TranscriberMode == TranscriberDeepgram && cfg.DeepgramAPIKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - fallback transcription will not work")
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseServiceRoleKey == "" {
		log.Println("Warning: Supabase not configured - transcript archiving disabled")
	}

	log.Printf("config: PORT=%s TRANSCRIBER=%s", cfg.Port, cfg.TranscriberMode)
	return cfg
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
