package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func postJSON(t *testing.T, server *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, decoded
}

func getJSON(t *testing.T, server *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, decoded
}

func TestCreateSessionEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, created := postJSON(t, server, "/sessions", map[string]string{
		"quizId":   "quiz-1",
		"hostName": "Quizmaster",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, created)
	}
	code, _ := created["code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6-char code, got %v", created)
	}
	if created["hostKey"] == "" || created["sessionId"] == "" {
		t.Fatalf("missing credentials in response: %v", created)
	}

	resp, summary := getJSON(t, server, "/sessions/"+code)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if summary["status"] != "waiting" || summary["questionCount"].(float64) != 2 {
		t.Fatalf("unexpected summary: %v", summary)
	}
}

func TestCreateSessionUnknownQuiz(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := postJSON(t, server, "/sessions", map[string]string{"quizId": "missing"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCurrentQuestionEndpoint(t *testing.T) {
	server, service := newTestServer(t)

	created, err := service.CreateSession(context.Background(), "quiz-1", "Quizmaster")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	resp, body := getJSON(t, server, "/sessions/"+created.Code+"/question")
	if resp.StatusCode != http.StatusOK || body["message"] == nil {
		t.Fatalf("expected not-started message, got %d %v", resp.StatusCode, body)
	}

	if _, err := service.Start(context.Background(), created.SessionID, created.HostKey); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, body = getJSON(t, server, "/sessions/"+created.Code+"/question")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["index"].(float64) != 0 || body["text"] == "" {
		t.Fatalf("unexpected question payload: %v", body)
	}
	if _, leaked := body["correctIndex"]; leaked {
		t.Fatalf("question endpoint leaked the correct option: %v", body)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	server, service := newTestServer(t)

	created, err := service.CreateSession(context.Background(), "quiz-1", "Quizmaster")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := service.Join(context.Background(), created.Code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	resp, board := getJSON(t, server, "/sessions/"+created.Code+"/leaderboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	entries := board["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", board)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := getJSON(t, server, "/sessions/ZZZZZZ")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
