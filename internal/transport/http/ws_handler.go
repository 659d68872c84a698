package http

import (
	"encoding/json"
	"log"
	"net/http"

	"livequiz-service/internal/app"

	"github.com/gorilla/websocket"
)

// WSHandler upgrades HTTP requests to websockets and wires them into
// the session use cases. Players and hosts get separate endpoints with
// separate command sets.
type WSHandler struct {
	service  *app.SessionService
	hub      *Hub
	upgrader websocket.Upgrader
}

type answerPayload struct {
	QuestionIndex int `json:"questionIndex"`
	AnswerIndex   int `json:"answerIndex"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func NewWSHandler(service *app.SessionService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServePlayerWS handles player connections. A fresh player joins with
// ?code=&name=; a reconnecting one passes ?code=&playerId= instead and
// keeps its roster entry and score.
func (h *WSHandler) ServePlayerWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	name := r.URL.Query().Get("name")
	playerID := r.URL.Query().Get("playerId")
	if code == "" || (name == "" && playerID == "") {
		http.Error(w, "missing code and name or playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var joined app.JoinedSession
	if playerID != "" {
		joined, err = h.service.ResumePlayer(ctx, code, playerID)
	} else {
		joined, err = h.service.Join(ctx, code, name)
	}
	if err != nil {
		_ = conn.WriteJSON(envelope{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	c := newClient(conn)
	go c.writeLoop()

	room := app.NormalizeCode(code)
	h.hub.join(room, c)
	defer func() {
		h.hub.leave(room, c)
		c.close()
		// Roster mutation only happens while the session still waits;
		// live-session disconnects keep the player record.
		if err := h.service.Leave(ctx, joined.SessionID, joined.PlayerID); err != nil {
			log.Printf("leave failed: %v", err)
		}
	}()

	c.queue(envelope{Type: "joined", Payload: joined})

	for {
		var inbound struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.queue(envelope{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			result, err := h.service.SubmitAnswer(ctx, joined.SessionID, joined.PlayerID, payload.QuestionIndex, payload.AnswerIndex)
			if err != nil {
				c.queue(envelope{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			c.queue(envelope{Type: "answerResult", Payload: result})
		default:
			c.queue(envelope{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}

// ServeHostWS handles the host connection. The host proves authority
// with the session's capability key, then drives the state machine with
// start/next commands.
func (h *WSHandler) ServeHostWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	hostKey := r.URL.Query().Get("hostKey")
	if sessionID == "" || hostKey == "" {
		http.Error(w, "missing sessionId or hostKey", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	view, err := h.service.AttachHost(ctx, sessionID, hostKey)
	if err != nil {
		_ = conn.WriteJSON(envelope{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	c := newClient(conn)
	go c.writeLoop()

	h.hub.join(view.Code, c)
	defer func() {
		h.hub.leave(view.Code, c)
		c.close()
	}()

	c.queue(envelope{Type: "hostJoined", Payload: view})

	for {
		var inbound struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "start":
			progress, err := h.service.Start(ctx, sessionID, hostKey)
			if err != nil {
				c.queue(envelope{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			c.queue(envelope{Type: "started", Payload: progress})
		case "next":
			progress, err := h.service.Advance(ctx, sessionID, hostKey)
			if err != nil {
				c.queue(envelope{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			c.queue(envelope{Type: "advanced", Payload: progress})
		default:
			c.queue(envelope{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}
