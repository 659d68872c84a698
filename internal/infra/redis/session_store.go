package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"livequiz-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// sessionRecord is the storage shape of a session. domain.Session hides
// the host key from JSON responses, so persistence needs its own view.
type sessionRecord struct {
	ID           string          `json:"id"`
	QuizID       string          `json:"quizId"`
	Code         string          `json:"code"`
	HostName     string          `json:"hostName"`
	HostKey      string          `json:"hostKey"`
	Status       string          `json:"status"`
	CurrentIndex int             `json:"currentQuestionIndex"`
	Players      []domain.Player `json:"players"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func toRecord(s *domain.Session) sessionRecord {
	return sessionRecord{
		ID:           s.ID,
		QuizID:       s.QuizID,
		Code:         s.Code,
		HostName:     s.HostName,
		HostKey:      s.HostKey,
		Status:       s.Status,
		CurrentIndex: s.CurrentIndex,
		Players:      s.Players,
		CreatedAt:    s.CreatedAt,
	}
}

func (r sessionRecord) toSession() *domain.Session {
	return &domain.Session{
		ID:           r.ID,
		QuizID:       r.QuizID,
		Code:         r.Code,
		HostName:     r.HostName,
		HostKey:      r.HostKey,
		Status:       r.Status,
		CurrentIndex: r.CurrentIndex,
		Players:      r.Players,
		CreatedAt:    r.CreatedAt,
	}
}

// SessionStore keeps session records in Redis as JSON values with a
// code -> id index. Code uniqueness is enforced with SETNX so two hosts
// racing for the same code cannot both win.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	ok, err := s.client.SetNX(ctx, s.codeKey(session.Code), session.ID, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("reserve code: %w", err)
	}
	if !ok {
		return domain.ErrCodeTaken
	}

	if err := s.write(ctx, session); err != nil {
		// Release the code so a retry can reuse it.
		_ = s.client.Del(ctx, s.codeKey(session.Code)).Err()
		return err
	}
	return nil
}

func (s *SessionStore) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var record sessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return record.toSession(), nil
}

func (s *SessionStore) FindByCode(ctx context.Context, code string) (*domain.Session, error) {
	id, err := s.client.Get(ctx, s.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	return s.FindByID(ctx, id)
}

func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	exists, err := s.client.Exists(ctx, s.sessionKey(session.ID)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound
	}
	return s.write(ctx, session)
}

func (s *SessionStore) write(ctx context.Context, session *domain.Session) error {
	raw, err := json.Marshal(toRecord(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) sessionKey(id string) string {
	return "session:id:" + id
}

func (s *SessionStore) codeKey(code string) string {
	return "session:code:" + code
}
