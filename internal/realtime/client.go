package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultModel is the realtime engine model used unless configured
	// otherwise.
	DefaultModel = "gpt-4o-mini-realtime-preview-2024-12-17"

	// DefaultVoice is the synthesized voice for agent speech.
	DefaultVoice = "alloy"

	defaultEndpoint = "wss://api.openai.com/v1/realtime"

	// transcriptionModel transcribes caller audio when native transcription
	// is requested in the session config.
	transcriptionModel = "whisper-1"
)

// Config carries per-call session settings for the engine channel.
type Config struct {
	APIKey       string
	Model        string
	Voice        string
	Instructions string

	// TranscribeInput asks the engine to transcribe caller audio and emit
	// transcription-completed events (native mode).
	TranscribeInput bool

	// Endpoint overrides the engine URL; tests point it at a local server.
	Endpoint string
}

// Client is a websocket client for the OpenAI Realtime API. One client
// serves exactly one call.
type Client struct {
	cfg    Config
	events chan ServerEvent
	stopCh chan struct{}

	writeMu sync.Mutex

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
}

// NewClient prepares a client; Connect must be called before use.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return &Client{
		cfg:    cfg,
		events: make(chan ServerEvent, 256),
		stopCh: make(chan struct{}),
	}
}

// Connect dials the engine, configures the session and starts the read
// loop. Events() delivers engine events until the connection closes.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}
	if c.cfg.APIKey == "" {
		return fmt.Errorf("OpenAI API key is empty")
	}

	wsURL := fmt.Sprintf("%s?model=%s", c.cfg.Endpoint, url.QueryEscape(c.cfg.Model))

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	keyPreview := c.cfg.APIKey
	if len(keyPreview) > 8 {
		keyPreview = keyPreview[:8] + "..."
	}
	log.Printf("Connecting to realtime engine: %s (key: %s)", wsURL, keyPreview)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("Realtime connection failed with status: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to connect to realtime engine: %w", err)
	}

	c.conn = conn
	c.connected = true

	if err := c.writeJSON(c.sessionUpdate()); err != nil {
		c.connected = false
		c.conn = nil
		conn.Close()
		return fmt.Errorf("failed to configure realtime session: %w", err)
	}

	go c.readLoop()

	log.Println("Connected to realtime engine")
	return nil
}

func (c *Client) sessionUpdate() sessionUpdate {
	cfg := sessionConfig{
		TurnDetection:     &turnDetection{Type: "server_vad"},
		InputAudioFormat:  "g711_ulaw",
		OutputAudioFormat: "g711_ulaw",
		Voice:             c.cfg.Voice,
		Instructions:      c.cfg.Instructions,
		Modalities:        []string{"text", "audio"},
		Temperature:       0.8,
	}
	if c.cfg.TranscribeInput {
		cfg.InputTranscription = &inputTranscription{Model: transcriptionModel}
	}
	return sessionUpdate{Type: "session.update", Session: cfg}
}

// Events returns the channel of decoded engine events. It is closed when
// the read loop exits.
func (c *Client) Events() <-chan ServerEvent {
	return c.events
}

// SendAudio appends one base64 mu-law frame to the engine's input buffer.
func (c *Client) SendAudio(payloadB64 string) error {
	return c.send(audioAppend{Type: "input_audio_buffer.append", Audio: payloadB64})
}

// SendAssistantText enqueues an assistant utterance and asks the engine to
// synthesize it.
func (c *Client) SendAssistantText(text string) error {
	item := itemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    "assistant",
			Content: []itemContent{{Type: "input_text", Text: text}},
		},
	}
	if err := c.send(item); err != nil {
		return err
	}
	return c.send(responseCreate{Type: "response.create"})
}

// Truncate cuts the referenced assistant utterance at the given elapsed
// playback offset so the engine's conversation state matches what the
// caller actually heard.
func (c *Client) Truncate(itemID string, audioEndMS int) error {
	return c.send(itemTruncate{
		Type:         "conversation.item.truncate",
		ItemID:       itemID,
		ContentIndex: 0,
		AudioEndMS:   audioEndMS,
	})
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	close(c.stopCh)
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

func (c *Client) send(v interface{}) error {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	if !connected {
		return fmt.Errorf("not connected to realtime engine")
	}
	return c.writeJSON(v)
}

func (c *Client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in realtime read loop: %v", r)
		}
		close(c.events)
	}()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				// closed locally, nothing to report
			default:
				log.Printf("Realtime read error: %v", err)
			}
			return
		}
		c.processMessage(message)
	}
}

// processMessage decodes one raw engine message and forwards the events
// the session cares about.
func (c *Client) processMessage(message []byte) {
	var base baseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		log.Printf("Error unmarshaling realtime event: %v", err)
		return
	}

	ev := ServerEvent{Type: base.Type}
	switch base.Type {
	case EventAudioDelta:
		var delta audioDeltaEvent
		if err := json.Unmarshal(message, &delta); err != nil {
			log.Printf("Error unmarshaling audio delta: %v", err)
			return
		}
		ev.ItemID = delta.ItemID
		ev.Audio = delta.Delta

	case EventSpeechStart, EventSpeechStop:
		// no payload beyond the type

	case EventTranscript:
		var tr transcriptionEvent
		if err := json.Unmarshal(message, &tr); err != nil {
			log.Printf("Error unmarshaling transcription event: %v", err)
			return
		}
		ev.ItemID = tr.ItemID
		ev.Transcript = tr.Transcript

	case EventError:
		var e errorEvent
		if err := json.Unmarshal(message, &e); err != nil {
			log.Printf("Error unmarshaling engine error: %v", err)
			return
		}
		ev.ErrMessage = e.Error.Message

	default:
		return
	}

	select {
	case <-c.stopCh:
	case c.events <- ev:
	}
}
