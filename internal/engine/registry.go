package engine

import "sync"

// registry maps a message ID to its live session. Lookup, insert, and
// removal happen concurrently from the platform's event goroutines.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

// register binds a session to its message ID and returns any session it
// replaced, so the caller can retire the predecessor.
func (r *registry) register(s *session) (prior *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prior = r.sessions[s.ref.MessageID]
	r.sessions[s.ref.MessageID] = s
	return prior
}

// removeSession unbinds a session, but only while it is still the one
// registered for its message ID. Idempotent.
func (r *registry) removeSession(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.ref.MessageID] == s {
		delete(r.sessions, s.ref.MessageID)
	}
}

// get looks up the session for a message ID.
func (r *registry) get(messageID string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[messageID]
	return s, ok
}

// drain removes and returns every registered session.
func (r *registry) drain() []*session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.sessions = make(map[string]*session)
	return out
}

// size returns the number of live sessions.
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
