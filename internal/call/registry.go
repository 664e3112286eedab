package call

import (
	"fmt"
	"sync"
)

// Registry tracks every live call session by stream SID. It is injected
// into the bridge and into shutdown; nothing holds it as a global.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session. A second session for the same stream is
// refused.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.StreamSID]; ok {
		return fmt.Errorf("session already exists for stream %s", s.StreamSID)
	}
	r.sessions[s.StreamSID] = s
	return nil
}

// Get looks a session up by stream SID.
func (r *Registry) Get(streamSID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[streamSID]
	return s, ok
}

// Remove forgets the session. Unknown SIDs are a no-op.
func (r *Registry) Remove(streamSID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, streamSID)
}

// Len reports how many calls are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll tears down every live session; used at process shutdown. The
// sessions are closed outside the registry lock, since Close blocks on
// the engine channel.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
