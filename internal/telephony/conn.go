package telephony

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrMalformedFrame marks a frame that could not be parsed. Callers log it,
// drop the frame and keep reading.
var ErrMalformedFrame = errors.New("telephony: malformed frame")

// Twilio connects server-to-server without an Origin header, so the origin
// check stays permissive.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Upgrade accepts the media-stream websocket and wraps it.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(ws), nil
}

// Conn wraps the Twilio media websocket. A single goroutine reads; the
// mutex serializes writes between the bridge and the engine-event
// goroutine.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// ReadEnvelope blocks for the next frame. Unparseable payloads return
// ErrMalformedFrame; any other error means the connection is gone.
func (c *Conn) ReadEnvelope() (*Envelope, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedFrame
	}
	return &env, nil
}

// SendMedia queues one base64 mu-law chunk for playback to the caller.
func (c *Conn) SendMedia(streamSID, payload string) error {
	return c.writeJSON(outboundMedia{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     mediaPayload{Payload: payload},
	})
}

// SendMark asks Twilio to acknowledge once playback reaches this point.
func (c *Conn) SendMark(streamSID, name string) error {
	return c.writeJSON(outboundMark{
		Event:     EventMark,
		StreamSID: streamSID,
		Mark:      MarkFrame{Name: name},
	})
}

// SendClear drops every chunk Twilio has buffered but not yet played.
func (c *Conn) SendClear(streamSID string) error {
	return c.writeJSON(outboundClear{
		Event:     EventClear,
		StreamSID: streamSID,
	})
}

func (c *Conn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
