package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
)

// sessionStore maps browser cookies to view sessions and evicts idle ones.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	analyzer discovery.Analyzer
	ttl      time.Duration
	now      func() time.Time
}

type sessionEntry struct {
	session  *discovery.Session
	lastSeen time.Time
}

func newSessionStore(analyzer discovery.Analyzer, ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &sessionStore{
		sessions: make(map[string]*sessionEntry),
		analyzer: analyzer,
		ttl:      ttl,
		now:      time.Now,
	}
}

// get returns the session for id, creating one (with a fresh id) when id is unknown.
func (s *sessionStore) get(id string) (string, *discovery.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.cleanupLocked(now)
	if entry, ok := s.sessions[id]; ok && id != "" {
		entry.lastSeen = now
		return id, entry.session
	}
	id = uuid.NewString()
	entry := &sessionEntry{session: discovery.NewSession(s.analyzer), lastSeen: now}
	s.sessions[id] = entry
	return id, entry.session
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionStore) cleanupLocked(now time.Time) {
	for id, entry := range s.sessions {
		if now.Sub(entry.lastSeen) <= s.ttl {
			continue
		}
		if entry.session.View().State == discovery.StateLoading {
			continue
		}
		delete(s.sessions, id)
	}
}
