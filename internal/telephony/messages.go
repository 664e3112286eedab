package telephony

import "strconv"

// Media Streams event names. clear is outbound only.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
	EventClear     = "clear"
)

// Envelope is one Twilio Media Streams frame. Sections that only some
// events carry are pointers so absent ones stay nil.
type Envelope struct {
	Event     string      `json:"event"`
	StreamSID string      `json:"streamSid,omitempty"`
	Start     *StartFrame `json:"start,omitempty"`
	Media     *MediaFrame `json:"media,omitempty"`
	Mark      *MarkFrame  `json:"mark,omitempty"`
}

// StartFrame carries the identifiers Twilio assigns when a stream opens.
type StartFrame struct {
	StreamSID  string   `json:"streamSid"`
	AccountSID string   `json:"accountSid,omitempty"`
	CallSID    string   `json:"callSid,omitempty"`
	Tracks     []string `json:"tracks,omitempty"`
}

// MediaFrame is one audio frame. Payload is base64 G.711 mu-law; Timestamp
// is milliseconds since stream start, sent by Twilio as a string.
type MediaFrame struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// TimestampMS parses the frame's millisecond offset. Frames with an
// unparseable timestamp report ok=false and should be dropped.
func (m *MediaFrame) TimestampMS() (int, bool) {
	ts, err := strconv.Atoi(m.Timestamp)
	if err != nil || ts < 0 {
		return 0, false
	}
	return ts, true
}

// MarkFrame names a playback checkpoint. Twilio echoes the mark back once
// every audio chunk queued before it has been played to the caller.
type MarkFrame struct {
	Name string `json:"name"`
}

// Outbound frame shapes.
type outboundMedia struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Media     mediaPayload `json:"media"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type outboundMark struct {
	Event     string    `json:"event"`
	StreamSID string    `json:"streamSid"`
	Mark      MarkFrame `json:"mark"`
}

type outboundClear struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}
