package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// RESTHandler exposes the request/response surface that does not need a
// socket: session creation and the read-only session queries.
type RESTHandler struct {
	service *app.SessionService
}

func NewRESTHandler(service *app.SessionService) *RESTHandler {
	return &RESTHandler{service: service}
}

// Register mounts the routes on the mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /sessions/{code}", h.sessionSummary)
	mux.HandleFunc("GET /sessions/{code}/question", h.currentQuestion)
	mux.HandleFunc("GET /sessions/{code}/leaderboard", h.leaderboard)
}

type createSessionRequest struct {
	QuizID   string `json:"quizId"`
	HostName string `json:"hostName"`
}

func (h *RESTHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quizId is required")
		return
	}
	created, err := h.service.CreateSession(r.Context(), req.QuizID, req.HostName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RESTHandler) sessionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), r.PathValue("code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *RESTHandler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CurrentQuestion(r.Context(), r.PathValue("code"))
	if errors.Is(err, domain.ErrQuestionNotFound) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "no question started yet"})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), r.PathValue("code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	board, err := h.service.Leaderboard(r.Context(), summary.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the core's typed outcomes onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownPlayer),
		errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrCodeTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrSessionEnded),
		errors.Is(err, domain.ErrNotLive),
		errors.Is(err, domain.ErrStaleQuestion):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrCodeGenerationFailed):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}
