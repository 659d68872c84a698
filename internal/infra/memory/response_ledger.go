package memory

import (
	"context"
	"sync"

	"livequiz-service/internal/domain"
)

type responseKey struct {
	sessionID     string
	playerID      string
	questionIndex int
}

// ResponseLedger is an in-memory implementation of app.ResponseLedger.
// Uniqueness per (session, player, question) is checked and the entry
// recorded under one lock, so concurrent duplicates race safely.
type ResponseLedger struct {
	mu      sync.RWMutex
	seen    map[responseKey]struct{}
	entries map[string][]domain.Response
}

func NewResponseLedger() *ResponseLedger {
	return &ResponseLedger{
		seen:    make(map[responseKey]struct{}),
		entries: make(map[string][]domain.Response),
	}
}

func (l *ResponseLedger) Append(_ context.Context, entry domain.Response) error {
	key := responseKey{entry.SessionID, entry.PlayerID, entry.QuestionIndex}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[key]; dup {
		return domain.ErrDuplicateAnswer
	}
	l.seen[key] = struct{}{}
	l.entries[entry.SessionID] = append(l.entries[entry.SessionID], entry)
	return nil
}

func (l *ResponseLedger) ListBySession(_ context.Context, sessionID string) ([]domain.Response, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.entries[sessionID]
	out := make([]domain.Response, len(entries))
	copy(out, entries)
	return out, nil
}
