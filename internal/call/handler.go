package call

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/chadiek/claimline/internal/flow"
	"github.com/chadiek/claimline/internal/realtime"
	"github.com/chadiek/claimline/internal/telephony"
	"github.com/chadiek/claimline/internal/transcript"
)

// HandlerConfig carries what the bridge needs to serve a call.
type HandlerConfig struct {
	OpenAIAPIKey  string
	RealtimeModel string
	Voice         string

	// NativeTranscripts selects native mode: the engine transcribes caller
	// audio itself and the capture buffer is discarded on flush.
	NativeTranscripts bool

	// StreamHost overrides the host used in the recording callback URL.
	// Empty means derive it from the websocket request.
	StreamHost string
}

// Handler bridges Twilio media streams to the realtime speech engine, one
// session per websocket.
type Handler struct {
	registry    *Registry
	sink        transcript.Sink
	cfg         HandlerConfig
	transcriber Transcriber
	recorder    Recorder
}

// NewHandler wires the bridge. transcriber is nil in native mode;
// recorder is nil when call recording is not configured.
func NewHandler(registry *Registry, sink transcript.Sink, cfg HandlerConfig, transcriber Transcriber, recorder Recorder) *Handler {
	return &Handler{
		registry:    registry,
		sink:        sink,
		cfg:         cfg,
		transcriber: transcriber,
		recorder:    recorder,
	}
}

// HandleMediaStream upgrades the websocket and runs one call to
// completion. It returns when the telephony stream ends or either channel
// fails; all per-call resources are released on the way out.
func (h *Handler) HandleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := telephony.Upgrade(w, r)
	if err != nil {
		log.Printf("media-stream upgrade error: %v", err)
		return
	}
	defer conn.Close()

	start, err := awaitStart(conn)
	if err != nil {
		log.Printf("media-stream ended before start: %v", err)
		return
	}
	sid := start.StreamSID
	log.Printf("[%s] twilio stream started", sid)

	if h.recorder != nil && start.CallSID != "" {
		callSID := start.CallSID
		callback := recordingCallbackURL(r, h.cfg.StreamHost)
		go func() {
			if err := h.recorder.Start(callSID, callback); err != nil {
				log.Printf("[%s] failed to start call recording for %s: %v", sid, callSID, err)
			} else {
				log.Printf("[%s] call recording started for %s", sid, callSID)
			}
		}()
	}

	engine := realtime.NewClient(realtime.Config{
		APIKey:          h.cfg.OpenAIAPIKey,
		Model:           h.cfg.RealtimeModel,
		Voice:           h.cfg.Voice,
		Instructions:    flow.Instructions,
		TranscribeInput: h.cfg.NativeTranscripts,
	})
	if err := engine.Connect(); err != nil {
		log.Printf("[%s] speech engine connect failed: %v", sid, err)
		return
	}

	sess := NewSession(sid, engine, conn, h.transcriber, h.sink)
	if err := h.registry.Add(sess); err != nil {
		log.Printf("[%s] refusing duplicate stream: %v", sid, err)
		engine.Close()
		return
	}
	defer func() {
		sess.Close()
		h.registry.Remove(sid)
		h.sink.CallEnded(sid)
		log.Printf("[%s] call ended", sid)
	}()

	h.sink.CallStarted(sid)
	sess.Start()

	// Engine events flow to the session until the engine channel closes.
	// When that happens mid-call the telephony socket is closed too, so
	// the read loop below unwinds and tears the call down.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] recovered from panic in engine event loop: %v", sid, r)
			}
		}()
		for ev := range engine.Events() {
			switch ev.Type {
			case realtime.EventAudioDelta:
				sess.HandleAudioDelta(ev.ItemID, ev.Audio)
			case realtime.EventSpeechStart:
				sess.HandleSpeechStarted()
			case realtime.EventSpeechStop:
				sess.HandleSpeechStopped()
			case realtime.EventTranscript:
				sess.HandleTranscript(ev.Transcript)
			case realtime.EventError:
				log.Printf("[%s] engine error: %s", sid, ev.ErrMessage)
			}
		}
		conn.Close()
	}()

	sess.Greet()

	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			if errors.Is(err, telephony.ErrMalformedFrame) {
				log.Printf("[%s] dropping malformed frame", sid)
				continue
			}
			log.Printf("[%s] twilio stream closed: %v", sid, err)
			return
		}
		switch env.Event {
		case telephony.EventMedia:
			if env.Media == nil {
				continue
			}
			sess.HandleMedia(env.Media)
		case telephony.EventMark:
			sess.HandleMarkAck()
		case telephony.EventStop:
			log.Printf("[%s] twilio stream stopped", sid)
			return
		}
	}
}

// awaitStart reads frames until Twilio's start event names the stream.
func awaitStart(conn *telephony.Conn) (*telephony.StartFrame, error) {
	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			if errors.Is(err, telephony.ErrMalformedFrame) {
				log.Printf("media-stream: dropping malformed frame before start")
				continue
			}
			return nil, err
		}
		switch env.Event {
		case telephony.EventStart:
			if env.Start == nil || env.Start.StreamSID == "" {
				return nil, errors.New("start frame missing streamSid")
			}
			return env.Start, nil
		case telephony.EventStop:
			return nil, errors.New("stream stopped before start")
		case telephony.EventConnected:
			// handshake frame, nothing to do
		default:
			// anything else before start is ignored
		}
	}
}

// recordingCallbackURL builds the public URL Twilio should post
// recording-status callbacks to. Host priority: configured override, then
// X-Forwarded-Host, then the request host.
func recordingCallbackURL(r *http.Request, override string) string {
	scheme := "https"
	host := override
	if host == "" {
		host = r.Header.Get("X-Forwarded-Host")
	}
	if host == "" {
		host = r.Host
		if strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1") {
			scheme = "http"
		}
	}
	return fmt.Sprintf("%s://%s/recording-status", scheme, host)
}
