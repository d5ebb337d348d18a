package cache

import (
	"sync"

	domain "github.com/lintv8/Mybot/internal/entity"
	"github.com/lintv8/Mybot/internal/usecase"
)

// MemorySessionStore is the default session store: a process-local map.
// Sessions are lost on restart, which matches their transient contract.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *MemorySessionStore) Get(userID string) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *MemorySessionStore) Put(userID string, sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

func (s *MemorySessionStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

var _ usecase.SessionStore = (*MemorySessionStore)(nil)
