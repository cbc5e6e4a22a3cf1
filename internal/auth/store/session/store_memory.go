package session

import (
	"context"
	"sync"
	"time"

	"medichain/internal/auth/models"
	id "medichain/pkg/domain"
	"medichain/pkg/platform/sentinel"
)

// InMemory keeps sessions in a map. Expired sessions are dropped lazily on
// read.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *InMemory) Find(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if session.Expired(time.Now()) {
		delete(s.sessions, sessionID)
		return nil, sentinel.ErrNotFound
	}
	out := *session
	return &out, nil
}

func (s *InMemory) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
