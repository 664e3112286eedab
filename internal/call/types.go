package call

import "context"

// EngineConn is the session's view of the speech-engine channel.
type EngineConn interface {
	SendAudio(payloadB64 string) error
	SendAssistantText(text string) error
	Truncate(itemID string, audioEndMS int) error
	Close() error
}

// TelephonyConn is the session's view of the caller's media stream.
type TelephonyConn interface {
	SendMedia(streamSID, payload string) error
	SendMark(streamSID, name string) error
	SendClear(streamSID string) error
}

// Transcriber turns one captured mu-law segment into text. Only set in
// fallback mode; in native mode the engine delivers transcripts itself.
type Transcriber interface {
	TranscribeSegment(ctx context.Context, mulaw []byte) (string, error)
}

// Recorder starts an audio recording on the underlying voice call.
type Recorder interface {
	Start(callSID, callbackURL string) error
}
