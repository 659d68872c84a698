package memory

import (
	"context"
	"errors"
	"testing"

	"livequiz-service/internal/domain"
)

func waitingSession(code string) *domain.Session {
	return &domain.Session{
		QuizID:       "quiz-1",
		Code:         code,
		HostName:     "Host",
		HostKey:      "secret",
		Status:       domain.StatusWaiting,
		CurrentIndex: -1,
	}
}

func TestSessionStoreCreateAssignsID(t *testing.T) {
	store := NewSessionStore()
	session := waitingSession("ABC234")

	if err := store.Create(context.Background(), session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("expected assigned id")
	}

	byID, err := store.FindByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	byCode, err := store.FindByCode(context.Background(), "ABC234")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if byID.ID != byCode.ID || byID.HostKey != "secret" {
		t.Fatalf("lookups disagree: %+v vs %+v", byID, byCode)
	}
}

func TestSessionStoreRejectsDuplicateCode(t *testing.T) {
	store := NewSessionStore()
	if err := store.Create(context.Background(), waitingSession("ABC234")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(context.Background(), waitingSession("ABC234")); !errors.Is(err, domain.ErrCodeTaken) {
		t.Fatalf("expected code taken, got %v", err)
	}
}

func TestSessionStoreSaveRoundTripsRoster(t *testing.T) {
	store := NewSessionStore()
	session := waitingSession("ABC234")
	if err := store.Create(context.Background(), session); err != nil {
		t.Fatalf("create: %v", err)
	}

	session.Players = append(session.Players, domain.Player{ID: "p1", Name: "Alice"})
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.FindByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(loaded.Players) != 1 || loaded.Players[0].Name != "Alice" {
		t.Fatalf("roster not persisted: %+v", loaded.Players)
	}

	// Records are copies: mutating the loaded snapshot must not leak back.
	loaded.Players[0].Score = 99
	again, _ := store.FindByID(context.Background(), session.ID)
	if again.Players[0].Score != 0 {
		t.Fatalf("store leaked a mutable reference")
	}
}

func TestSessionStoreSaveUnknownSession(t *testing.T) {
	store := NewSessionStore()
	err := store.Save(context.Background(), &domain.Session{ID: "nope", Code: "ABC234"})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
