package app

import "livequiz-service/internal/domain"

// Event names pushed to a session's room. The delivery channel decides
// how they reach individual sockets; the core only targets rooms.
const (
	EventLobbyUpdate       = "lobby:update"
	EventQuestionShow      = "question:show"
	EventLeaderboardUpdate = "leaderboard:update"
	EventSessionEnded      = "session:ended"
)

// Broadcaster fans a session event out to every participant of the room
// identified by the session's join code. Implementations must not block
// on slow receivers.
type Broadcaster interface {
	Emit(room, event string, payload any)
}

// SessionEndedPayload accompanies EventSessionEnded.
type SessionEndedPayload struct {
	TotalQuestions int                `json:"totalQuestions"`
	Leaderboard    domain.Leaderboard `json:"leaderboard"`
}

// NopBroadcaster discards all events. Useful for tests and for callers
// that only exercise read paths.
type NopBroadcaster struct{}

func (NopBroadcaster) Emit(string, string, any) {}
