package http

import (
	"encoding/json"
	"log"
	"net/http"

	"sprint-quiz-service/internal/app"
	"sprint-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler runs one quiz session per websocket connection. The protocol is
// strictly request/response: the client sends an action (including the
// periodic "tick" refresh) and the handler replies on the same goroutine, so
// there is a single writer per connection by construction.
type WSHandler struct {
	engine   *app.Engine
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine) *WSHandler {
	return &WSHandler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type stagePayload struct {
	Stage        string   `json:"stage"`
	Affiliations []string `json:"affiliations,omitempty"`
}

type questionPayload struct {
	Prompt    string   `json:"prompt"`
	Choices   []string `json:"choices"`
	Remaining int      `json:"remaining"`
	Score     int      `json:"score"`
	Attempts  int      `json:"attempts"`
}

type answerResultPayload struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

type countdownPayload struct {
	Remaining int `json:"remaining"`
	Score     int `json:"score"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type textPayload struct {
	Value string `json:"value"`
}

// ServeWS upgrades the request and drives the session loop until the client
// disconnects. Disconnecting mid-run abandons the session; no result is
// written for it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.engine.NewSession()
	h.sendStage(conn, session)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.handle(conn, session, &inbound, r)
	}
}

func (h *WSHandler) handle(conn *websocket.Conn, session *app.Session, inbound *inboundMessage, r *http.Request) {
	ctx := r.Context()
	switch inbound.Type {
	case "affiliation":
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, "invalid affiliation payload")
			return
		}
		if err := h.engine.ChooseAffiliation(session, payload.Value); err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.sendStage(conn, session)

	case "passphrase":
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, "invalid passphrase payload")
			return
		}
		if err := h.engine.VerifyPassphrase(session, payload.Value); err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.sendStage(conn, session)

	case "consent":
		if err := h.engine.GiveConsent(session); err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.sendStage(conn, session)

	case "nickname":
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, "invalid nickname payload")
			return
		}
		if err := h.engine.SetNickname(session, payload.Value); err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.sendStage(conn, session)

	case "start":
		if _, err := h.engine.Start(ctx, session); err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.sendQuestion(conn, session)

	case "answer":
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(conn, "invalid answer payload")
			return
		}
		correct, err := h.engine.SubmitAnswer(session, payload.Value)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		snap := h.engine.Snapshot(session)
		h.send(conn, "answerResult", answerResultPayload{Correct: correct, Score: snap.Score})

	case "next":
		_, more, err := h.engine.NextProblem(ctx, session)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		if !more {
			h.sendResults(conn, session)
			return
		}
		h.sendQuestion(conn, session)

	case "tick":
		remaining, expired := h.engine.Tick(ctx, session)
		if expired {
			h.sendResults(conn, session)
			return
		}
		snap := h.engine.Snapshot(session)
		h.send(conn, "countdown", countdownPayload{Remaining: remaining, Score: snap.Score})

	case "restart":
		if err := h.engine.Restart(session); err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.sendStage(conn, session)

	case "home":
		h.engine.ReturnHome(session)
		h.sendStage(conn, session)

	default:
		h.sendError(conn, "unsupported message type")
	}
}

func (h *WSHandler) sendStage(conn *websocket.Conn, session *app.Session) {
	snap := h.engine.Snapshot(session)
	payload := stagePayload{Stage: snap.Stage.String()}
	if snap.Stage == domain.StageUnselected {
		payload.Affiliations = h.engine.Affiliations()
	}
	h.send(conn, "stage", payload)
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, session *app.Session) {
	snap := h.engine.Snapshot(session)
	if snap.Problem == nil {
		h.sendError(conn, domain.ErrNoActiveProblem.Error())
		return
	}
	h.send(conn, "question", questionPayload{
		Prompt:    snap.Problem.Prompt,
		Choices:   snap.Problem.Choices,
		Remaining: snap.Remaining,
		Score:     snap.Score,
		Attempts:  snap.Attempts,
	})
}

func (h *WSHandler) sendResults(conn *websocket.Conn, session *app.Session) {
	results, ok := h.engine.Results(session)
	if !ok {
		h.sendError(conn, "session not finished")
		return
	}
	h.send(conn, "results", results)
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", errorPayload{Message: message})
}

func (h *WSHandler) send(conn *websocket.Conn, typ string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: typ, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
