package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"livequiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ResponseLedger stores answers in one hash per session, one field per
// (player, question) pair. HSETNX makes the first submission win and
// later duplicates no-ops down to the Redis server, so the exactly-once
// guarantee holds across service instances.
type ResponseLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseLedger(client *redis.Client, ttl time.Duration) *ResponseLedger {
	return &ResponseLedger{client: client, ttl: ttl}
}

func (l *ResponseLedger) Append(ctx context.Context, entry domain.Response) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	key := l.ledgerKey(entry.SessionID)
	field := l.field(entry.PlayerID, entry.QuestionIndex)
	stored, err := l.client.HSetNX(ctx, key, field, raw).Result()
	if err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	if !stored {
		return domain.ErrDuplicateAnswer
	}
	if l.ttl > 0 {
		_ = l.client.Expire(ctx, key, l.ttl).Err()
	}
	return nil
}

func (l *ResponseLedger) ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error) {
	fields, err := l.client.HGetAll(ctx, l.ledgerKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	entries := make([]domain.Response, 0, len(fields))
	for _, raw := range fields {
		var entry domain.Response
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *ResponseLedger) ledgerKey(sessionID string) string {
	return "session:" + sessionID + ":answers"
}

func (l *ResponseLedger) field(playerID string, questionIndex int) string {
	return fmt.Sprintf("%s:q%d", playerID, questionIndex)
}
