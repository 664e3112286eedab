package realtime

// Server event types the call session reacts to. Everything else the
// engine emits is dropped in the read loop.
const (
	EventAudioDelta  = "response.audio.delta"
	EventSpeechStart = "input_audio_buffer.speech_started"
	EventSpeechStop  = "input_audio_buffer.speech_stopped"
	EventTranscript  = "conversation.item.input_audio_transcription.completed"
	EventError       = "error"
)

// ServerEvent is one decoded engine event, tagged by Type. Only the fields
// relevant to the type are populated.
type ServerEvent struct {
	Type       string
	ItemID     string
	Audio      string // base64 mu-law delta
	Transcript string
	ErrMessage string
}

// Inbound wire shapes.

type baseEvent struct {
	Type string `json:"type"`
}

type audioDeltaEvent struct {
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

type transcriptionEvent struct {
	ItemID     string `json:"item_id"`
	Transcript string `json:"transcript"`
}

type errorEvent struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Outbound wire shapes.

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	TurnDetection      *turnDetection      `json:"turn_detection,omitempty"`
	InputAudioFormat   string              `json:"input_audio_format,omitempty"`
	OutputAudioFormat  string              `json:"output_audio_format,omitempty"`
	Voice              string              `json:"voice,omitempty"`
	Instructions       string              `json:"instructions,omitempty"`
	Modalities         []string            `json:"modalities,omitempty"`
	Temperature        float64             `json:"temperature,omitempty"`
	InputTranscription *inputTranscription `json:"input_audio_transcription,omitempty"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type inputTranscription struct {
	Model string `json:"model"`
}

type audioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type itemCreate struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []itemContent `json:"content"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseCreate struct {
	Type string `json:"type"`
}

type itemTruncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMS   int    `json:"audio_end_ms"`
}
