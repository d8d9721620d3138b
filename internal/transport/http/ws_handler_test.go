package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sprint-quiz-service/internal/app"
	"sprint-quiz-service/internal/domain"
	"sprint-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketSessionFlow(t *testing.T) {
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(sampleBanks()), time.Minute)
	engine := app.NewEngine(repo, memory.NewResultStore(), app.Config{
		BankID:       "bank-1",
		Duration:     time.Minute,
		Passphrase:   "open-sesame",
		Affiliations: []string{"3R3"},
	})
	wsHandler := NewWSHandler(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial stage advertises the affiliation choices.
	typ, payload := readNext(conn, t, "stage")
	if typ != "stage" || payload["stage"] != "unselected" {
		t.Fatalf("expected unselected stage, got %s %v", typ, payload)
	}
	if payload["affiliations"] == nil {
		t.Fatalf("expected affiliation choices, got %v", payload)
	}

	// Walk the gates.
	sendAction(conn, t, "affiliation", "3R3")
	readNext(conn, t, "stage")
	sendAction(conn, t, "passphrase", "wrong")
	if typ, _ := readNext(conn, t, ""); typ != "error" {
		t.Fatalf("expected error for wrong passphrase, got %s", typ)
	}
	sendAction(conn, t, "passphrase", "open-sesame")
	readNext(conn, t, "stage")
	if err := conn.WriteJSON(map[string]any{"type": "consent"}); err != nil {
		t.Fatalf("write consent: %v", err)
	}
	readNext(conn, t, "stage")
	sendAction(conn, t, "nickname", "Yuki")
	if _, payload := readNext(conn, t, "stage"); payload["stage"] != "nicknameSet" {
		t.Fatalf("expected nicknameSet, got %v", payload)
	}

	// Start and answer the single problem correctly.
	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	_, question := readNext(conn, t, "question")
	if question["prompt"] == "" || question["choices"] == nil {
		t.Fatalf("expected question payload, got %v", question)
	}
	sendAction(conn, t, "answer", "4")
	_, result := readNext(conn, t, "answerResult")
	if result["correct"] != true {
		t.Fatalf("expected correct answer, got %v", result)
	}

	// Pool of one problem: "next" exhausts it and yields the results screen.
	if err := conn.WriteJSON(map[string]any{"type": "next"}); err != nil {
		t.Fatalf("write next: %v", err)
	}
	_, results := readNext(conn, t, "results")
	if results["score"] != float64(1) {
		t.Fatalf("expected final score 1, got %v", results)
	}
	if results["name"] != "3R3_Yuki" {
		t.Fatalf("expected display name, got %v", results)
	}
}

func TestWebSocketTickCountdown(t *testing.T) {
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(sampleBanks()), time.Minute)
	engine := app.NewEngine(repo, memory.NewResultStore(), app.Config{
		BankID:       "bank-1",
		Duration:     time.Hour,
		Passphrase:   "open-sesame",
		Affiliations: []string{"3R3"},
	})
	wsHandler := NewWSHandler(engine)

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, "stage")

	sendAction(conn, t, "affiliation", "3R3")
	readNext(conn, t, "stage")
	sendAction(conn, t, "passphrase", "open-sesame")
	readNext(conn, t, "stage")
	_ = conn.WriteJSON(map[string]any{"type": "consent"})
	readNext(conn, t, "stage")
	sendAction(conn, t, "nickname", "Yuki")
	readNext(conn, t, "stage")
	_ = conn.WriteJSON(map[string]any{"type": "start"})
	readNext(conn, t, "question")

	_ = conn.WriteJSON(map[string]any{"type": "tick"})
	_, countdown := readNext(conn, t, "countdown")
	remaining, ok := countdown["remaining"].(float64)
	if !ok || remaining <= 0 {
		t.Fatalf("expected positive remaining, got %v", countdown)
	}
}

func sendAction(conn *websocket.Conn, t *testing.T, typ, value string) {
	t.Helper()
	msg := map[string]any{
		"type":    typ,
		"payload": map[string]any{"value": value},
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func sampleBanks() map[string]domain.ProblemBank {
	return map[string]domain.ProblemBank{
		"bank-1": {
			ID: "bank-1",
			Problems: []domain.Problem{
				{
					ID:          "p1",
					Prompt:      "sqrt(16) = ?",
					Choices:     []string{"2", "4", "8"},
					Answer:      "4",
					Explanation: "4 * 4 = 16",
				},
			},
		},
	}
}
