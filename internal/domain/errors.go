package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when no session matches the id or code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded is returned when joining a session that already finished.
	ErrSessionEnded = errors.New("session has ended")
	// ErrUnauthorized is returned on a host-privileged call with a bad key.
	ErrUnauthorized = errors.New("invalid host key")
	// ErrNotLive is returned when answering outside the live window.
	ErrNotLive = errors.New("session is not live")
	// ErrStaleQuestion is returned when an answer targets a question that
	// is no longer (or not yet) the current one.
	ErrStaleQuestion = errors.New("question is not current")
	// ErrUnknownPlayer is returned when a player id is not on the roster.
	ErrUnknownPlayer = errors.New("player not found in session")
	// ErrDuplicateName is returned when a join reuses a roster name.
	ErrDuplicateName = errors.New("player name already taken in this session")
	// ErrDuplicateAnswer is returned on a second answer for the same question.
	ErrDuplicateAnswer = errors.New("question already answered")
	// ErrCodeGenerationFailed is returned once join-code retries are exhausted.
	ErrCodeGenerationFailed = errors.New("could not generate a unique join code")
	// ErrCodeTaken is returned by stores when a join code is already in use.
	ErrCodeTaken = errors.New("join code already in use")
	// ErrQuestionNotFound indicates a question index outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
)
