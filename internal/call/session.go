package call

import (
	"context"
	"encoding/base64"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chadiek/claimline/internal/flow"
	"github.com/chadiek/claimline/internal/telephony"
	"github.com/chadiek/claimline/internal/transcript"
)

// markName tags every outbound audio chunk; Twilio echoes it back once
// playback reaches that point, which is how the session knows how much the
// caller has actually heard.
const markName = "responsePart"

const (
	// silenceWindow is the inactivity span after which a capture in
	// progress is flushed without an explicit speech-stop signal.
	silenceWindow = 3000 * time.Millisecond

	// silenceTick is how often the silence watchdog checks.
	silenceTick = 1 * time.Second

	// transcribeTimeout bounds one fallback transcription job (codec
	// conversion plus the service round trip).
	transcribeTimeout = 20 * time.Second
)

// Session holds the per-call state for one live media stream: relay
// bookkeeping, the speech segmenter and the conversation flow. All state
// mutation goes through one mutex; events arrive from the telephony read
// goroutine and the engine event goroutine.
type Session struct {
	StreamSID string

	engine      EngineConn
	telephony   TelephonyConn
	transcriber Transcriber
	sink        transcript.Sink
	flow        *flow.Engine

	mu sync.Mutex
	// media clock of the last inbound frame, in ms since stream start
	latestMediaTimestamp int
	// media clock at the first delta of the in-flight utterance; -1 when
	// no agent utterance is in flight
	responseStart     int
	lastAssistantItem string
	markQueue         []string

	// segmenter
	speaking    bool
	captured    []byte
	lastFrameAt time.Time

	stopCh  chan struct{}
	stopped bool
}

// NewSession wires a session for one stream. transcriber is nil in native
// mode.
func NewSession(streamSID string, engine EngineConn, tel TelephonyConn, transcriber Transcriber, sink transcript.Sink) *Session {
	return &Session{
		StreamSID:     streamSID,
		engine:        engine,
		telephony:     tel,
		transcriber:   transcriber,
		sink:          sink,
		flow:          flow.NewEngine(),
		responseStart: -1,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the per-call silence watchdog. Close stops it.
func (s *Session) Start() {
	go s.silenceLoop()
}

// Greet opens the conversation; the caller's first utterance is treated as
// the answer to the first flow question.
func (s *Session) Greet() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakLocked(flow.Greeting)
}

// HandleMedia processes one inbound caller audio frame: clock update,
// capture while segmenting, and transparent forwarding to the engine.
func (s *Session) HandleMedia(m *telephony.MediaFrame) {
	ts, ok := m.TimestampMS()
	if !ok {
		log.Printf("[%s] dropping media frame with bad timestamp %q", s.StreamSID, m.Timestamp)
		return
	}

	s.mu.Lock()
	s.latestMediaTimestamp = ts
	s.lastFrameAt = time.Now()
	if s.speaking {
		if raw, err := base64.StdEncoding.DecodeString(m.Payload); err == nil {
			s.captured = append(s.captured, raw...)
		} else {
			log.Printf("[%s] skipping uncapturable frame: %v", s.StreamSID, err)
		}
	}
	s.mu.Unlock()

	if err := s.engine.SendAudio(m.Payload); err != nil {
		log.Printf("[%s] forward audio: %v", s.StreamSID, err)
	}
}

// HandleAudioDelta relays one synthesized audio chunk to the caller and
// maintains the utterance bookkeeping barge-in depends on.
func (s *Session) HandleAudioDelta(itemID, payloadB64 string) {
	if payloadB64 == "" {
		return
	}

	s.mu.Lock()
	if s.responseStart < 0 {
		s.responseStart = s.latestMediaTimestamp
	}
	if itemID != "" {
		s.lastAssistantItem = itemID
	}
	s.mu.Unlock()

	if err := s.telephony.SendMedia(s.StreamSID, payloadB64); err != nil {
		log.Printf("[%s] send media: %v", s.StreamSID, err)
		return
	}
	if err := s.telephony.SendMark(s.StreamSID, markName); err != nil {
		log.Printf("[%s] send mark: %v", s.StreamSID, err)
		return
	}

	s.mu.Lock()
	s.markQueue = append(s.markQueue, markName)
	s.mu.Unlock()
}

// HandleMarkAck consumes one playback acknowledgement. Acks without a
// pending mark are ignored. When the queue drains the utterance has been
// played out in full and the in-flight bookkeeping is cleared.
func (s *Session) HandleMarkAck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.markQueue) > 0 {
		s.markQueue = s.markQueue[1:]
	}
	if len(s.markQueue) == 0 {
		s.responseStart = -1
		s.lastAssistantItem = ""
	}
}

// HandleSpeechStarted interrupts the agent if it is mid-utterance, then
// begins a new capture. A second start while already capturing changes
// nothing.
func (s *Session) HandleSpeechStarted() {
	s.bargeIn()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.speaking {
		return
	}
	s.speaking = true
	s.captured = s.captured[:0]
	s.lastFrameAt = time.Now()
}

// HandleSpeechStopped ends the capture and hands the segment off. A stop
// without a capture in progress changes nothing.
func (s *Session) HandleSpeechStopped() {
	s.flushSegment("speech stopped")
}

// HandleTranscript feeds one caller utterance through the conversation
// flow and speaks the resulting prompt. The lock serializes dispatch, so
// the flow never sees two utterances concurrently.
func (s *Session) HandleTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.flow.Finalized() {
		log.Printf("[%s] claim already finalized, ignoring: %q", s.StreamSID, text)
		return
	}

	log.Printf("[%s] caller: %q", s.StreamSID, text)
	s.sink.Turn(s.StreamSID, transcript.RoleUser, text)
	s.flow.Advance(text)
	s.speakLocked(s.flow.NextPrompt())
}

// Close tears the session down. A capture in progress is discarded, the
// watchdog stops and the engine channel is closed. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.speaking = false
	s.captured = nil
	s.markQueue = nil
	s.responseStart = -1
	s.lastAssistantItem = ""
	s.mu.Unlock()

	if err := s.engine.Close(); err != nil {
		log.Printf("[%s] close engine channel: %v", s.StreamSID, err)
	}
}

// bargeIn truncates the in-flight agent utterance at the point the caller
// actually heard, clears Twilio's playback buffer and resets the utterance
// bookkeeping in one step. No-op when the agent is not speaking.
func (s *Session) bargeIn() {
	s.mu.Lock()
	if s.responseStart < 0 {
		s.mu.Unlock()
		return
	}
	elapsed := s.latestMediaTimestamp - s.responseStart
	item := s.lastAssistantItem
	s.markQueue = nil
	s.lastAssistantItem = ""
	s.responseStart = -1
	s.mu.Unlock()

	log.Printf("[%s] caller barged in, truncating agent audio at %d ms", s.StreamSID, elapsed)
	if item != "" {
		if err := s.engine.Truncate(item, elapsed); err != nil {
			log.Printf("[%s] truncate: %v", s.StreamSID, err)
		}
	}
	if err := s.telephony.SendClear(s.StreamSID); err != nil {
		log.Printf("[%s] clear playback buffer: %v", s.StreamSID, err)
	}
}

func (s *Session) silenceLoop() {
	ticker := time.NewTicker(silenceTick)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkSilence(time.Now())
		}
	}
}

// checkSilence flushes a capture that has seen no inbound frame for the
// whole silence window. The explicit stop path clears the capture state
// first, so a stop-then-timeout double flush cannot happen.
func (s *Session) checkSilence(now time.Time) {
	s.mu.Lock()
	stale := s.speaking && !s.lastFrameAt.IsZero() && now.Sub(s.lastFrameAt) >= silenceWindow
	s.mu.Unlock()
	if stale {
		s.flushSegment("silence timeout")
	}
}

// flushSegment closes the current capture and dispatches it. Empty
// segments are dropped; in native mode the buffer is discarded because the
// transcript arrives as an engine event.
func (s *Session) flushSegment(reason string) {
	s.mu.Lock()
	if !s.speaking || s.stopped {
		s.mu.Unlock()
		return
	}
	s.speaking = false
	segment := s.captured
	s.captured = nil
	s.mu.Unlock()

	if len(segment) == 0 || s.transcriber == nil {
		return
	}
	log.Printf("[%s] segment complete (%s): %d bytes captured", s.StreamSID, reason, len(segment))
	go s.transcribeSegment(segment)
}

func (s *Session) transcribeSegment(segment []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] recovered from panic in transcription: %v", s.StreamSID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	text, err := s.transcriber.TranscribeSegment(ctx, segment)
	if err != nil {
		log.Printf("[%s] transcription failed, dropping segment: %v", s.StreamSID, err)
		return
	}
	s.HandleTranscript(text)
}

// speakLocked records and sends one agent line; callers hold s.mu.
func (s *Session) speakLocked(text string) {
	s.sink.Turn(s.StreamSID, transcript.RoleAssistant, text)
	if err := s.engine.SendAssistantText(text); err != nil {
		log.Printf("[%s] send assistant text: %v", s.StreamSID, err)
	}
}
