package memory

import (
	"context"
	"sync"

	"livequiz-service/internal/domain"

	"github.com/google/uuid"
)

// SessionStore is an in-memory implementation of app.SessionStore.
// Records are stored and returned by value copy so unlocked readers
// never observe a half-applied mutation.
type SessionStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Session
	byCode map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:   make(map[string]*domain.Session),
		byCode: make(map[string]string),
	}
}

func (s *SessionStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCode[session.Code]; taken {
		return domain.ErrCodeTaken
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	s.byID[session.ID] = cloneSession(session)
	s.byCode[session.Code] = session.ID
	return nil
}

func (s *SessionStore) FindByID(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *SessionStore) FindByCode(_ context.Context, code string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(s.byID[id]), nil
}

func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.byID[session.ID] = cloneSession(session)
	return nil
}

func cloneSession(session *domain.Session) *domain.Session {
	clone := *session
	clone.Players = make([]domain.Player, len(session.Players))
	copy(clone.Players, session.Players)
	return &clone
}
