package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"livequiz-service/internal/domain"
)

// SessionStore is the durable record store for sessions. Create must
// enforce code uniqueness and return domain.ErrCodeTaken on collision.
// Stores assign the session id when the record arrives without one.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	FindByCode(ctx context.Context, code string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
}

// ResponseLedger is the append-only answer record. Append must reject a
// second entry for the same (session, player, question) triple with
// domain.ErrDuplicateAnswer.
type ResponseLedger interface {
	Append(ctx context.Context, entry domain.Response) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SessionService contains the live-session use cases: lifecycle, roster,
// answer ledger and scoring. Mutations on one session are serialized by
// a per-session lock; different sessions proceed in parallel.
type SessionService struct {
	store     SessionStore
	ledger    ResponseLedger
	quizzes   QuizRepository
	broadcast Broadcaster
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionService(store SessionStore, ledger ResponseLedger, quizzes QuizRepository, broadcast Broadcaster) *SessionService {
	return NewSessionServiceWithClock(store, ledger, quizzes, broadcast, time.Now)
}

// NewSessionServiceWithClock allows deterministic timestamps in tests.
func NewSessionServiceWithClock(store SessionStore, ledger ResponseLedger, quizzes QuizRepository, broadcast Broadcaster, now func() time.Time) *SessionService {
	return &SessionService{
		store:     store,
		ledger:    ledger,
		quizzes:   quizzes,
		broadcast: broadcast,
		now:       now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockSession returns the mutex serializing mutations for one session.
// The lock must be held across the whole read-modify-write span.
func (s *SessionService) lockSession(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// CreatedSession is returned to the host after CreateSession. The host
// key is only ever surfaced here.
type CreatedSession struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
	HostKey   string `json:"hostKey"`
}

// CreateSession opens a new waiting session for an existing quiz and
// issues its join code and host capability key. Code generation retries
// a bounded number of times; on exhaustion no record is persisted.
func (s *SessionService) CreateSession(ctx context.Context, quizID, hostName string) (CreatedSession, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return CreatedSession{}, err
	}
	if hostName == "" {
		hostName = "Host"
	}

	hostKey := NewHostKey()
	for attempt := 0; attempt < codeAttempts; attempt++ {
		session := &domain.Session{
			QuizID:       quizID,
			Code:         NewJoinCode(),
			HostName:     hostName,
			HostKey:      hostKey,
			Status:       domain.StatusWaiting,
			CurrentIndex: -1,
			CreatedAt:    s.now(),
		}
		err := s.store.Create(ctx, session)
		if errors.Is(err, domain.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return CreatedSession{}, err
		}
		return CreatedSession{SessionID: session.ID, Code: session.Code, HostKey: hostKey}, nil
	}
	return CreatedSession{}, domain.ErrCodeGenerationFailed
}

// JoinedSession is the acknowledgment returned to a joining player.
type JoinedSession struct {
	SessionID string              `json:"sessionId"`
	PlayerID  string              `json:"playerId"`
	Status    string              `json:"status"`
	Lobby     []domain.LobbyEntry `json:"lobby"`
}

// Join adds a player to the session behind the join code. Names are
// unique per session (case-sensitive); joining an ended session fails.
func (s *SessionService) Join(ctx context.Context, code, name string) (JoinedSession, error) {
	session, err := s.store.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return JoinedSession{}, err
	}

	lock := s.lockSession(session.ID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so concurrent joins see each other.
	session, err = s.store.FindByID(ctx, session.ID)
	if err != nil {
		return JoinedSession{}, err
	}
	if session.Status == domain.StatusEnded {
		return JoinedSession{}, domain.ErrSessionEnded
	}
	if session.HasPlayerName(name) {
		return JoinedSession{}, domain.ErrDuplicateName
	}

	player := domain.Player{
		ID:       NewPlayerID(),
		Name:     name,
		Score:    0,
		JoinedAt: s.now(),
	}
	session.Players = append(session.Players, player)
	if err := s.store.Save(ctx, session); err != nil {
		return JoinedSession{}, err
	}

	s.broadcast.Emit(session.Code, EventLobbyUpdate, lobbySnapshot(session))
	return JoinedSession{
		SessionID: session.ID,
		PlayerID:  player.ID,
		Status:    session.Status,
		Lobby:     lobbySnapshot(session),
	}, nil
}

// ResumePlayer reattaches a previously joined player after a transient
// disconnect. The roster entry and score are as they were; only the
// delivery channel's connection mapping was lost. Read-only.
func (s *SessionService) ResumePlayer(ctx context.Context, code, playerID string) (JoinedSession, error) {
	session, err := s.store.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return JoinedSession{}, err
	}
	if _, ok := session.FindPlayer(playerID); !ok {
		return JoinedSession{}, domain.ErrUnknownPlayer
	}
	return JoinedSession{
		SessionID: session.ID,
		PlayerID:  playerID,
		Status:    session.Status,
		Lobby:     lobbySnapshot(session),
	}, nil
}

// Leave removes a player from the roster, but only while the session is
// still waiting. Once live, the record (score, ledger entries) survives
// disconnects; dropping the transient connection is the delivery
// channel's job.
func (s *SessionService) Leave(ctx context.Context, sessionID, playerID string) error {
	lock := s.lockSession(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != domain.StatusWaiting {
		return nil
	}

	kept := session.Players[:0]
	removed := false
	for _, player := range session.Players {
		if player.ID == playerID {
			removed = true
			continue
		}
		kept = append(kept, player)
	}
	if !removed {
		return nil
	}
	session.Players = kept
	if err := s.store.Save(ctx, session); err != nil {
		return err
	}
	s.broadcast.Emit(session.Code, EventLobbyUpdate, lobbySnapshot(session))
	return nil
}

// SessionProgress reports the state machine position after a host action.
type SessionProgress struct {
	SessionID    string `json:"sessionId"`
	Status       string `json:"status"`
	CurrentIndex int    `json:"currentQuestionIndex"`
	Resumed      bool   `json:"resumed,omitempty"`
}

// Start moves a waiting session to live and shows question 0. Starting
// an already-live session is a resume: it reports the current position
// without touching scores or the pointer. Starting an ended session fails.
func (s *SessionService) Start(ctx context.Context, sessionID, hostKey string) (SessionProgress, error) {
	lock := s.lockSession(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return SessionProgress{}, err
	}
	if session.HostKey != hostKey {
		return SessionProgress{}, domain.ErrUnauthorized
	}
	switch session.Status {
	case domain.StatusEnded:
		return SessionProgress{}, domain.ErrSessionEnded
	case domain.StatusLive:
		return SessionProgress{
			SessionID:    session.ID,
			Status:       session.Status,
			CurrentIndex: session.CurrentIndex,
			Resumed:      true,
		}, nil
	}

	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return SessionProgress{}, err
	}
	if len(quiz.Questions) == 0 {
		return SessionProgress{}, domain.ErrQuestionNotFound
	}

	session.Status = domain.StatusLive
	session.CurrentIndex = 0
	if err := s.store.Save(ctx, session); err != nil {
		return SessionProgress{}, err
	}

	s.broadcast.Emit(session.Code, EventQuestionShow, quiz.ViewOf(0))
	return SessionProgress{
		SessionID:    session.ID,
		Status:       session.Status,
		CurrentIndex: session.CurrentIndex,
	}, nil
}

// Advance closes the current question, scores it, and either shows the
// next question or ends the session. Scoring runs before the pointer
// moves, so answers for the closing question stay eligible right up to
// this call. Totals are recomputed from the ledger, which keeps a
// retried advance from double-awarding.
func (s *SessionService) Advance(ctx context.Context, sessionID, hostKey string) (SessionProgress, error) {
	lock := s.lockSession(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return SessionProgress{}, err
	}
	if session.HostKey != hostKey {
		return SessionProgress{}, domain.ErrUnauthorized
	}
	if session.Status != domain.StatusLive {
		return SessionProgress{}, domain.ErrNotLive
	}

	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return SessionProgress{}, err
	}
	entries, err := s.ledger.ListBySession(ctx, session.ID)
	if err != nil {
		return SessionProgress{}, err
	}

	closing := session.CurrentIndex
	scores := tallyScores(quiz, entries, closing)
	for i := range session.Players {
		session.Players[i].Score = scores[session.Players[i].ID]
	}

	next := closing + 1
	if next >= len(quiz.Questions) {
		session.Status = domain.StatusEnded
		session.CurrentIndex = len(quiz.Questions)
		if err := s.store.Save(ctx, session); err != nil {
			return SessionProgress{}, err
		}
		board := rankPlayers(session, s.now())
		s.broadcast.Emit(session.Code, EventLeaderboardUpdate, board)
		s.broadcast.Emit(session.Code, EventSessionEnded, SessionEndedPayload{
			TotalQuestions: len(quiz.Questions),
			Leaderboard:    board,
		})
		return SessionProgress{
			SessionID:    session.ID,
			Status:       session.Status,
			CurrentIndex: session.CurrentIndex,
		}, nil
	}

	session.CurrentIndex = next
	if err := s.store.Save(ctx, session); err != nil {
		return SessionProgress{}, err
	}

	// Leaderboard goes out before the reveal so scores never look stale
	// against the new question.
	s.broadcast.Emit(session.Code, EventLeaderboardUpdate, rankPlayers(session, s.now()))
	s.broadcast.Emit(session.Code, EventQuestionShow, quiz.ViewOf(next))
	return SessionProgress{
		SessionID:    session.ID,
		Status:       session.Status,
		CurrentIndex: session.CurrentIndex,
	}, nil
}

// SubmitAnswer records one player's answer to the currently shown
// question. The ledger enforces at most one entry per (session, player,
// question); the player's score is not touched here, scoring is batched
// at Advance time.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, playerID string, questionIndex, answerIndex int) (domain.AnswerResult, error) {
	lock := s.lockSession(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if session.Status != domain.StatusLive {
		return domain.AnswerResult{}, domain.ErrNotLive
	}
	if questionIndex != session.CurrentIndex {
		return domain.AnswerResult{}, domain.ErrStaleQuestion
	}
	if _, ok := session.FindPlayer(playerID); !ok {
		return domain.AnswerResult{}, domain.ErrUnknownPlayer
	}

	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if questionIndex < 0 || questionIndex >= len(quiz.Questions) {
		return domain.AnswerResult{}, domain.ErrQuestionNotFound
	}

	entry := domain.Response{
		SessionID:     session.ID,
		PlayerID:      playerID,
		QuestionIndex: questionIndex,
		AnswerIndex:   answerIndex,
		Correct:       answerIndex == quiz.Questions[questionIndex].CorrectIndex,
		SubmittedAt:   s.now(),
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return domain.AnswerResult{}, err
	}
	return domain.AnswerResult{
		QuestionIndex:  questionIndex,
		Correct:        entry.Correct,
		TotalQuestions: len(quiz.Questions),
	}, nil
}

// HostView is what a reconnecting host needs to recover its place.
type HostView struct {
	SessionID    string `json:"sessionId"`
	Code         string `json:"code"`
	Status       string `json:"status"`
	CurrentIndex int    `json:"currentQuestionIndex"`
}

// AttachHost verifies the host key and returns the session position.
// Any holder of the key may act as host; there is no separate host
// identity.
func (s *SessionService) AttachHost(ctx context.Context, sessionID, hostKey string) (HostView, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return HostView{}, err
	}
	if session.HostKey != hostKey {
		return HostView{}, domain.ErrUnauthorized
	}
	return HostView{
		SessionID:    session.ID,
		Code:         session.Code,
		Status:       session.Status,
		CurrentIndex: session.CurrentIndex,
	}, nil
}

// SessionSummary is the read-only lobby-screen view of a session.
type SessionSummary struct {
	SessionID     string `json:"sessionId"`
	Code          string `json:"code"`
	Status        string `json:"status"`
	QuizTitle     string `json:"quizTitle"`
	QuestionCount int    `json:"questionCount"`
	PlayerCount   int    `json:"playerCount"`
	CurrentIndex  int    `json:"currentQuestionIndex"`
}

// Summary returns session metadata by join code. Read-only: no lock,
// last-committed state.
func (s *SessionService) Summary(ctx context.Context, code string) (SessionSummary, error) {
	session, err := s.store.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return SessionSummary{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return SessionSummary{}, err
	}
	return SessionSummary{
		SessionID:     session.ID,
		Code:          session.Code,
		Status:        session.Status,
		QuizTitle:     quiz.Title,
		QuestionCount: len(quiz.Questions),
		PlayerCount:   len(session.Players),
		CurrentIndex:  session.CurrentIndex,
	}, nil
}

// CurrentQuestion returns the participant view of the question currently
// shown, or ErrQuestionNotFound if the session has not started. Read-only.
func (s *SessionService) CurrentQuestion(ctx context.Context, code string) (domain.QuestionView, error) {
	session, err := s.store.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return domain.QuestionView{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if session.CurrentIndex < 0 || session.CurrentIndex >= len(quiz.Questions) {
		return domain.QuestionView{}, domain.ErrQuestionNotFound
	}
	return quiz.ViewOf(session.CurrentIndex), nil
}

// Leaderboard returns the ranked snapshot for a session. Read-only.
func (s *SessionService) Leaderboard(ctx context.Context, sessionID string) (domain.Leaderboard, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return rankPlayers(session, s.now()), nil
}
