package transcript

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Speaker labels used in transcript lines.
const (
	RoleUser      = "User"
	RoleAssistant = "Assistant"
)

// Sink receives the alternating turns of every call.
type Sink interface {
	CallStarted(streamSID string)
	Turn(streamSID, role, text string)
	CallEnded(streamSID string)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) CallStarted(string)  {}
func (NopSink) Turn(_, _, _ string) {}
func (NopSink) CallEnded(string)    {}

// Archiver stores a finished call transcript somewhere durable.
type Archiver interface {
	Upload(objectKey, contentType string, body []byte) error
}

// FileSink appends call transcripts to a single text file, marking call
// boundaries. With an Archiver configured it also buffers each call's turns
// and uploads them when the call ends. Write errors are logged, never
// fatal; losing a transcript line must not take down a call.
type FileSink struct {
	path    string
	archive Archiver

	mu    sync.Mutex
	calls map[string][]string
}

// NewFileSink writes to path; archiver may be nil.
func NewFileSink(path string, archiver Archiver) *FileSink {
	return &FileSink{
		path:    path,
		archive: archiver,
		calls:   make(map[string][]string),
	}
}

func (s *FileSink) CallStarted(streamSID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archive != nil {
		s.calls[streamSID] = nil
	}
	s.appendRaw(fmt.Sprintf("\n--- New call started: streamSid=%s ---\n", streamSID))
}

func (s *FileSink) Turn(streamSID, role, text string) {
	line := fmt.Sprintf("%s: %s\n", role, text)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archive != nil {
		if _, ok := s.calls[streamSID]; ok {
			s.calls[streamSID] = append(s.calls[streamSID], line)
		}
	}
	s.appendRaw(line)
}

func (s *FileSink) CallEnded(streamSID string) {
	s.mu.Lock()
	lines := s.calls[streamSID]
	delete(s.calls, streamSID)
	s.appendRaw(fmt.Sprintf("--- Call ended: streamSid=%s ---\n\n", streamSID))
	s.mu.Unlock()

	if s.archive == nil || len(lines) == 0 {
		return
	}
	objectKey := fmt.Sprintf("transcripts/%s_%d.txt", streamSID, time.Now().Unix())
	body := []byte(strings.Join(lines, ""))
	go func() {
		if err := s.archive.Upload(objectKey, "text/plain", body); err != nil {
			log.Printf("[%s] transcript archive upload failed: %v", streamSID, err)
			return
		}
		log.Printf("[%s] transcript archived as %s", streamSID, objectKey)
	}()
}

// appendRaw writes one chunk to the transcript file; callers hold s.mu.
func (s *FileSink) appendRaw(chunk string) {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("transcript: open %s: %v", s.path, err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(chunk); err != nil {
		log.Printf("transcript: write %s: %v", s.path, err)
	}
}
