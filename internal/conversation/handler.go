package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"github.com/wolfman30/oncall-chatbot/internal/schedule"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

// FallbackAnswerer produces a free-form answer when the schedule has none.
type FallbackAnswerer interface {
	Name() string
	Answer(ctx context.Context, question, hint string) (string, error)
}

// TranscriptWriter persists chat turns.
type TranscriptWriter interface {
	Append(ctx context.Context, t *Transcript) error
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Source    string `json:"source,omitempty"`
}

// AssignmentView is the wire form of a schedule assignment.
type AssignmentView struct {
	Date        string `json:"date"`
	Department  string `json:"department"`
	Doctor      string `json:"doctor"`
	Phone       string `json:"phone,omitempty"`
	Window      string `json:"window"`
	Description string `json:"description,omitempty"`
	OnCall      bool   `json:"on_call"`
}

// ChatResponse is the body returned by POST /chat and the websocket.
type ChatResponse struct {
	SessionID   string           `json:"session_id"`
	Answer      string           `json:"answer"`
	Outcome     Outcome          `json:"outcome"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Assignments []AssignmentView `json:"assignments,omitempty"`
	Fallback    string           `json:"fallback,omitempty"`
}

// Handler wires HTTP requests to the engine.
type Handler struct {
	engine          *Engine
	logger          *logging.Logger
	metrics         *metrics.ChatMetrics
	fallback        FallbackAnswerer
	fallbackTimeout time.Duration
	transcripts     TranscriptWriter
	location        *time.Location
	now             func() time.Time
}

type HandlerOption func(*Handler)

// WithFallback answers not-found turns through f, bounded by timeout.
func WithFallback(f FallbackAnswerer, timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.fallback = f
		if timeout > 0 {
			h.fallbackTimeout = timeout
		}
	}
}

func WithTranscripts(w TranscriptWriter) HandlerOption {
	return func(h *Handler) { h.transcripts = w }
}

func WithHandlerMetrics(m *metrics.ChatMetrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithLocation sets the time zone "now" is evaluated in.
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *Handler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithNow overrides the handler clock.
func WithNow(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates a chat handler.
func NewHandler(engine *Engine, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		engine:          engine,
		logger:          logger,
		fallbackTimeout: 10 * time.Second,
		location:        time.Local,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Respond answers one message. A blank sessionID starts a new session.
func (h *Handler) Respond(ctx context.Context, sessionID, text, source string) (*ChatResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	now := h.now().In(h.location)

	reply, err := h.engine.HandleMessage(ctx, sessionID, text, now)
	if err != nil {
		return nil, err
	}

	resp := &ChatResponse{
		SessionID:   sessionID,
		Answer:      reply.Text,
		Outcome:     reply.Outcome,
		Suggestions: reply.Suggestions,
		Assignments: assignmentViews(reply.Assignments),
	}
	if reply.Outcome == OutcomeNotFound && h.fallback != nil {
		if extra := h.askFallback(ctx, sessionID, text, reply.Text); extra != "" {
			resp.Answer = reply.Text + "\n\n" + extra
			resp.Fallback = h.fallback.Name()
		}
	}
	h.appendTranscript(ctx, sessionID, text, source, resp, reply)
	return resp, nil
}

func (h *Handler) askFallback(ctx context.Context, sessionID, question, hint string) string {
	fctx, cancel := context.WithTimeout(ctx, h.fallbackTimeout)
	defer cancel()

	answer, err := h.fallback.Answer(fctx, question, hint)
	h.metrics.ObserveFallback(h.fallback.Name(), err)
	if err != nil {
		h.logger.Warn("fallback answer failed",
			"session_id", sessionID,
			"provider", h.fallback.Name(),
			"error", err,
		)
		return ""
	}
	return strings.TrimSpace(answer)
}

func (h *Handler) appendTranscript(ctx context.Context, sessionID, message, source string, resp *ChatResponse, reply *Reply) {
	if h.transcripts == nil {
		return
	}
	t := &Transcript{
		SessionID: sessionID,
		Message:   message,
		Answer:    resp.Answer,
		Outcome:   resp.Outcome,
		Source:    source,
	}
	if reply.Query != nil {
		t.Department = reply.Query.Department
	}
	for _, a := range reply.Assignments {
		t.Doctors = append(t.Doctors, a.DoctorName)
	}
	if reply.Doctor != nil {
		t.Department = reply.Doctor.Department
		t.Doctors = append(t.Doctors, reply.Doctor.Name)
	}
	if err := h.transcripts.Append(ctx, t); err != nil {
		h.logger.Warn("failed to persist transcript", "session_id", sessionID, "error", err)
	}
}

func assignmentViews(as []schedule.Assignment) []AssignmentView {
	if len(as) == 0 {
		return nil
	}
	out := make([]AssignmentView, 0, len(as))
	for _, a := range as {
		out = append(out, AssignmentView{
			Date:        a.Date.Format("2006-01-02"),
			Department:  a.Department,
			Doctor:      a.DoctorName,
			Phone:       a.DoctorPhone,
			Window:      a.Window.String(),
			Description: a.Description,
			OnCall:      a.OnCall,
		})
	}
	return out
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-ID")
	}
	if req.Source == "" {
		req.Source = "web"
	}

	resp, err := h.Respond(r.Context(), req.SessionID, req.Message, req.Source)
	if err != nil {
		h.logger.Error("failed to answer chat message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Departments handles GET /departments.
func (h *Handler) Departments(w http.ResponseWriter, r *http.Request) {
	names, err := h.engine.Departments(r.Context())
	if err != nil {
		h.logger.Error("failed to list departments", "error", err)
		http.Error(w, "Failed to list departments", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"departments": names})
}

// GetContext handles GET /sessions/{sessionID}/context.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	c, err := h.engine.Contexts().Get(r.Context(), sessionID)
	switch {
	case errors.Is(err, ErrContextNotFound):
		http.Error(w, "Context not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrEmptySession):
		http.Error(w, "Missing session id", http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to load context", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to load context", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// DeleteContext handles DELETE /sessions/{sessionID}/context.
func (h *Handler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.engine.Contexts().Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, ErrEmptySession) {
			http.Error(w, "Missing session id", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to delete context", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to delete context", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
