package memory

import (
	"context"
	"fmt"
	"sync"

	"ladder-quiz-bot/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[int64]domain.Session
	open     map[int64]int64 // player ID -> open session ID
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]domain.Session),
		open:     make(map[int64]int64),
	}
}

func (s *SessionStore) CreateSession(_ context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.open[session.PlayerID]; ok && !session.Closed {
		return domain.Session{}, domain.ErrGameInProgress
	}
	s.nextID++
	session.ID = s.nextID
	s.sessions[session.ID] = session
	if !session.Closed {
		s.open[session.PlayerID] = session.ID
	}
	return session, nil
}

func (s *SessionStore) SaveSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return fmt.Errorf("session %d: %w", session.ID, domain.ErrSessionNotFound)
	}
	openID, hasOpen := s.open[session.PlayerID]
	switch {
	case session.Closed && hasOpen && openID == session.ID:
		delete(s.open, session.PlayerID)
	case !session.Closed && hasOpen && openID != session.ID:
		return domain.ErrGameInProgress
	case !session.Closed:
		s.open[session.PlayerID] = session.ID
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) Session(_ context.Context, id int64) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %d: %w", id, domain.ErrSessionNotFound)
	}
	return session, nil
}

func (s *SessionStore) OpenSession(_ context.Context, playerID int64) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.open[playerID]
	if !ok {
		return domain.Session{}, domain.ErrNoActiveGame
	}
	return s.sessions[id], nil
}
