package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

type stubFallback struct {
	answer   string
	err      error
	question string
	hint     string
	deadline bool
}

func (s *stubFallback) Name() string { return "stub" }

func (s *stubFallback) Answer(ctx context.Context, question, hint string) (string, error) {
	s.question, s.hint = question, hint
	_, s.deadline = ctx.Deadline()
	return s.answer, s.err
}

type recordingTranscripts struct {
	mu    sync.Mutex
	turns []Transcript
	err   error
}

func (r *recordingTranscripts) Append(_ context.Context, t *Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, *t)
	return r.err
}

func newTestHandler(t *testing.T, opts ...HandlerOption) *Handler {
	t.Helper()
	engine, _ := newTestEngine(t, newDutyStore(t))
	opts = append([]HandlerOption{WithNow(func() time.Time { return friday }), WithLocation(seoul)}, opts...)
	return NewHandler(engine, logging.Default(), opts...)
}

func postChat(t *testing.T, h *Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.Chat(w, req)
	return w
}

func TestHandlerChatAnswers(t *testing.T) {
	h := newTestHandler(t)

	w := postChat(t, h, `{"session_id":"s1","message":"내일 순환기내과 당직 누구야?"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, OutcomeFound, resp.Outcome)
	assert.Contains(t, resp.Answer, "김민준")
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "2025-01-11", resp.Assignments[0].Date)
	assert.Equal(t, "18:00 - 익일 08:00", resp.Assignments[0].Window)
	assert.Equal(t, "010-1234-5678", resp.Assignments[0].Phone)
}

func TestHandlerChatSessionIDs(t *testing.T) {
	h := newTestHandler(t)

	w := postChat(t, h, `{"message":"도움말"}`, map[string]string{"X-Session-ID": "from-header"})
	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "from-header", resp.SessionID)

	w = postChat(t, h, `{"message":"도움말"}`, nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.SessionID, 36, "a uuid is generated for new sessions")
}

func TestHandlerChatRejectsBadBody(t *testing.T) {
	h := newTestHandler(t)
	w := postChat(t, h, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerChatEngineError(t *testing.T) {
	engine, _ := newTestEngine(t, &erroringStore{MemoryStore: newDutyStore(t), err: errors.New("db down")})
	h := NewHandler(engine, nil, WithNow(func() time.Time { return friday }))

	w := postChat(t, h, `{"session_id":"s1","message":"내일 순환기내과"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandlerFallbackOnNotFound(t *testing.T) {
	fb := &stubFallback{answer: "당직표가 아직 등록되지 않았을 수 있습니다."}
	reg := prometheus.NewRegistry()
	h := newTestHandler(t, WithFallback(fb, time.Second), WithHandlerMetrics(metrics.NewChatMetrics(reg)))

	resp, err := h.Respond(context.Background(), "s1", "1월 20일 순환기내과", "web")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, resp.Outcome)
	assert.Equal(t, "stub", resp.Fallback)
	assert.True(t, strings.HasSuffix(resp.Answer, fb.answer))
	assert.Equal(t, "1월 20일 순환기내과", fb.question)
	assert.Contains(t, fb.hint, "당직 정보가 없습니다")
	assert.True(t, fb.deadline, "fallback calls are bounded")
	assert.Equal(t, int64(1), metrics.Collect(reg).Fallbacks)
}

func TestHandlerFallbackSkippedWhenFound(t *testing.T) {
	fb := &stubFallback{answer: "unused"}
	h := newTestHandler(t, WithFallback(fb, time.Second))

	resp, err := h.Respond(context.Background(), "s1", "내일 순환기내과 당직", "web")
	require.NoError(t, err)
	assert.Empty(t, resp.Fallback)
	assert.Empty(t, fb.question)
}

func TestHandlerFallbackErrorKeepsReply(t *testing.T) {
	fb := &stubFallback{err: errors.New("quota")}
	h := newTestHandler(t, WithFallback(fb, time.Second))

	resp, err := h.Respond(context.Background(), "s1", "1월 20일 순환기내과", "web")
	require.NoError(t, err)
	assert.Empty(t, resp.Fallback)
	assert.Contains(t, resp.Answer, "당직 정보가 없습니다")
}

func TestHandlerPersistsTranscripts(t *testing.T) {
	rec := &recordingTranscripts{err: errors.New("insert failed")}
	h := newTestHandler(t, WithTranscripts(rec))

	_, err := h.Respond(context.Background(), "s1", "내일 순환기내과 당직", "kiosk")
	require.NoError(t, err, "transcript failures do not fail the turn")
	_, err = h.Respond(context.Background(), "s1", "연락처 알려줘", "kiosk")
	require.NoError(t, err)

	require.Len(t, rec.turns, 2)
	first := rec.turns[0]
	assert.Equal(t, "s1", first.SessionID)
	assert.Equal(t, "kiosk", first.Source)
	assert.Equal(t, OutcomeFound, first.Outcome)
	assert.Equal(t, "순환기내과", first.Department)
	assert.Equal(t, []string{"김민준"}, first.Doctors)

	second := rec.turns[1]
	assert.Equal(t, OutcomeContact, second.Outcome)
	assert.Equal(t, []string{"김민준"}, second.Doctors)
}

func TestHandlerDepartments(t *testing.T) {
	h := newTestHandler(t)
	w := httptest.NewRecorder()
	h.Departments(w, httptest.NewRequest(http.MethodGet, "/departments", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Departments []string `json:"departments"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body.Departments, "순환기내과")
	assert.Len(t, body.Departments, 24)
}

func TestHandlerContextLifecycle(t *testing.T) {
	h := newTestHandler(t)
	r := chi.NewRouter()
	r.Get("/sessions/{sessionID}/context", h.GetContext)
	r.Delete("/sessions/{sessionID}/context", h.DeleteContext)

	do := func(method string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/sessions/s1/context", bytes.NewReader(nil)))
		return w
	}

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet).Code)

	_, err := h.Respond(context.Background(), "s1", "내일 순환기내과 당직", "web")
	require.NoError(t, err)

	w := do(http.MethodGet)
	require.Equal(t, http.StatusOK, w.Code)
	var c Context
	require.NoError(t, json.NewDecoder(w.Body).Decode(&c))
	assert.Equal(t, "순환기내과", c.LastDepartment)
	assert.Equal(t, "김민준", c.LastDoctor)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet).Code)
}
