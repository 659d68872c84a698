package domain

import "time"

// Session status values. Transitions only ever move forward:
// waiting -> live -> ended.
const (
	StatusWaiting = "waiting"
	StatusLive    = "live"
	StatusEnded   = "ended"
)

const (
	// DefaultPoints is awarded for a correct answer when a question
	// does not set its own point value.
	DefaultPoints = 10
	// DefaultTimeLimitSec is the advisory countdown shown to clients
	// when a question does not set its own limit.
	DefaultTimeLimitSec = 30
)

// Session is one running instance of a quiz: its join code, roster and
// progress pointer. CurrentIndex is -1 while waiting, [0, len(questions))
// while live, and len(questions) once ended.
type Session struct {
	ID           string    `json:"id"`
	QuizID       string    `json:"quizId"`
	Code         string    `json:"code"`
	HostName     string    `json:"hostName"`
	HostKey      string    `json:"-"`
	Status       string    `json:"status"`
	CurrentIndex int       `json:"currentQuestionIndex"`
	Players      []Player  `json:"players"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Player is a participant in exactly one session. The ID is assigned at
// join time and stays stable across reconnects.
type Player struct {
	ID       string    `json:"playerId"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joinedAt"`
}

// FindPlayer returns the roster entry with the given id, if any.
func (s *Session) FindPlayer(playerID string) (*Player, bool) {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// HasPlayerName reports whether a roster entry already uses the name.
// Comparison is case-sensitive.
func (s *Session) HasPlayerName(name string) bool {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return true
		}
	}
	return false
}

// Response is one ledger entry: a single player's answer to a single
// question. At most one exists per (session, player, question).
type Response struct {
	SessionID     string    `json:"sessionId"`
	PlayerID      string    `json:"playerId"`
	QuestionIndex int       `json:"questionIndex"`
	AnswerIndex   int       `json:"answerIndex"`
	Correct       bool      `json:"correct"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Points       int      `json:"points"`       // defaults to DefaultPoints if zero
	TimeLimitSec int      `json:"timeLimitSec"` // defaults to DefaultTimeLimitSec if zero
}

// PointsOrDefault returns the question's point value, applying the default.
func (q Question) PointsOrDefault() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultPoints
}

// TimeLimitOrDefault returns the question's time limit, applying the default.
func (q Question) TimeLimitOrDefault() int {
	if q.TimeLimitSec > 0 {
		return q.TimeLimitSec
	}
	return DefaultTimeLimitSec
}

// Quiz is an immutable, ordered list of questions. The core never
// mutates quiz content.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// LeaderboardEntry is a ranked view of a single player.
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// Leaderboard captures the ordered scoreboard for a session at a point
// in time: descending score, ties broken by join order.
type Leaderboard struct {
	SessionID string             `json:"sessionId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// AnswerResult summarizes the outcome of a submission for a single player.
type AnswerResult struct {
	QuestionIndex  int  `json:"questionIndex"`
	Correct        bool `json:"correct"`
	TotalQuestions int  `json:"totalQuestions"`
}

// QuestionView is what participants see while a question is open. It
// never carries the correct index.
type QuestionView struct {
	Index        int      `json:"index"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	TimeLimitSec int      `json:"timeLimitSec"`
}

// ViewOf builds the participant-facing view of question i.
func (q Quiz) ViewOf(i int) QuestionView {
	question := q.Questions[i]
	return QuestionView{
		Index:        i,
		Text:         question.Text,
		Options:      question.Options,
		TimeLimitSec: question.TimeLimitOrDefault(),
	}
}

// LobbyEntry is the pre-game roster view, ordered by join order.
type LobbyEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}
