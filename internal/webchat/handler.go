// Package webchat serves the duty chat over a WebSocket so the browser client
// can keep one connection per session.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
	"golang.org/x/net/websocket"
)

const historyLimit = 50

// Responder answers one chat message.
type Responder interface {
	Respond(ctx context.Context, sessionID, text, source string) (*conversation.ChatResponse, error)
}

// HistoryStore reads persisted turns.
type HistoryStore interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]conversation.Transcript, error)
}

// Handler manages web chat connections.
type Handler struct {
	responder Responder
	history   HistoryStore
	logger    *logging.Logger
}

type wsConn struct {
	conn *websocket.Conn
}

// InboundMessage is what the client sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the client.
type OutboundMessage struct {
	Type        string                        `json:"type"` // "message", "typing", "history", "session", "error", "pong"
	Text        string                        `json:"text,omitempty"`
	Role        string                        `json:"role,omitempty"`
	SessionID   string                        `json:"session_id,omitempty"`
	Outcome     conversation.Outcome          `json:"outcome,omitempty"`
	Suggestions []string                      `json:"suggestions,omitempty"`
	Assignments []conversation.AssignmentView `json:"assignments,omitempty"`
	Timestamp   string                        `json:"timestamp,omitempty"`
	Messages    []HistoryMessage              `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler. history may be nil.
func NewHandler(responder Responder, history HistoryStore, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("webchat: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		responder: responder,
		history:   history,
		logger:    logger,
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	wsc := &wsConn{conn: conn}
	wsc.write(OutboundMessage{Type: "session", SessionID: sessionID})

	if history := h.loadHistory(r.Context(), sessionID); len(history) > 0 {
		wsc.write(OutboundMessage{Type: "history", Messages: history})
	}

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			wsc.write(OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}
		h.processMessage(r.Context(), wsc, sessionID, msg.Text)
	}
}

func (h *Handler) processMessage(ctx context.Context, wsc *wsConn, sessionID, text string) {
	wsc.write(OutboundMessage{Type: "typing"})

	resp, err := h.responder.Respond(ctx, sessionID, text, "webchat")
	if err != nil {
		h.logger.Error("webchat: failed to answer message", "session_id", sessionID, "error", err)
		wsc.write(OutboundMessage{
			Type: "error",
			Text: "당직 정보를 조회하는 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.",
		})
		return
	}

	wsc.write(OutboundMessage{
		Type:        "message",
		Role:        "assistant",
		Text:        resp.Answer,
		SessionID:   resp.SessionID,
		Outcome:     resp.Outcome,
		Suggestions: resp.Suggestions,
		Assignments: resp.Assignments,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *wsConn) write(msg OutboundMessage) {
	_ = websocket.JSON.Send(c.conn, msg)
}

func (h *Handler) loadHistory(ctx context.Context, sessionID string) []HistoryMessage {
	if h.history == nil {
		return nil
	}
	turns, err := h.history.ListBySession(ctx, sessionID, historyLimit)
	if err != nil {
		h.logger.Warn("webchat: failed to load history", "session_id", sessionID, "error", err)
		return nil
	}
	return historyMessages(turns)
}

// historyMessages expands each stored turn into a user and an assistant line.
func historyMessages(turns []conversation.Transcript) []HistoryMessage {
	out := make([]HistoryMessage, 0, 2*len(turns))
	for _, t := range turns {
		ts := t.CreatedAt.UTC().Format(time.RFC3339)
		out = append(out,
			HistoryMessage{Role: "user", Text: t.Message, Timestamp: ts},
			HistoryMessage{Role: "assistant", Text: t.Answer, Timestamp: ts},
		)
	}
	return out
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if h.history == nil {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"messages": []HistoryMessage{}})
		return
	}

	turns, err := h.history.ListBySession(r.Context(), sessionID, 2*historyLimit)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"messages": historyMessages(turns)})
}
