package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

type stubResponder struct {
	gotSession string
	gotText    string
	gotSource  string
	err        error
}

func (s *stubResponder) Respond(_ context.Context, sessionID, text, source string) (*conversation.ChatResponse, error) {
	s.gotSession, s.gotText, s.gotSource = sessionID, text, source
	if s.err != nil {
		return nil, s.err
	}
	return &conversation.ChatResponse{
		SessionID: sessionID,
		Answer:    "당직 정보",
		Outcome:   conversation.OutcomeFound,
	}, nil
}

type stubDepartments struct {
	names []string
	err   error
}

func (s stubDepartments) Departments(context.Context) ([]string, error) {
	return s.names, s.err
}

func request(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: method,
				Path:   path,
			},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	resp, err := handle(context.Background(), &stubResponder{}, stubDepartments{}, logging.New("error"), request(http.MethodGet, "/health", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != "ok" {
		t.Fatalf("unexpected health response: %d %q", resp.StatusCode, resp.Body)
	}
}

func TestHandleChat(t *testing.T) {
	chat := &stubResponder{}
	resp, err := handle(context.Background(), chat, stubDepartments{}, logging.New("error"),
		request(http.MethodPost, "/chat", `{"session_id":"lambda-1","message":"내일 외과 당직"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if chat.gotSession != "lambda-1" || chat.gotText != "내일 외과 당직" || chat.gotSource != "lambda" {
		t.Fatalf("unexpected responder call: %+v", chat)
	}
	var out conversation.ChatResponse
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if out.Outcome != conversation.OutcomeFound || out.SessionID != "lambda-1" {
		t.Fatalf("unexpected body: %+v", out)
	}
	if resp.Headers["content-type"] != "application/json" {
		t.Fatalf("expected json content type, got %q", resp.Headers["content-type"])
	}
}

func TestHandleChatSessionHeaderAndBase64(t *testing.T) {
	chat := &stubResponder{}
	evt := request(http.MethodPost, "/chat", base64.StdEncoding.EncodeToString([]byte(`{"message":"그럼 모레는?"}`)))
	evt.IsBase64Encoded = true
	evt.Headers = map[string]string{"x-session-id": "from-header"}

	resp, err := handle(context.Background(), chat, stubDepartments{}, logging.New("error"), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if chat.gotSession != "from-header" || chat.gotText != "그럼 모레는?" {
		t.Fatalf("unexpected responder call: %+v", chat)
	}
}

func TestHandleChatErrors(t *testing.T) {
	logger := logging.New("error")

	resp, _ := handle(context.Background(), &stubResponder{}, stubDepartments{}, logger, request(http.MethodGet, "/chat", ""))
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}

	resp, _ = handle(context.Background(), &stubResponder{}, stubDepartments{}, logger, request(http.MethodPost, "/chat", "not json"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	bad := request(http.MethodPost, "/chat", "%%%")
	bad.IsBase64Encoded = true
	resp, _ = handle(context.Background(), &stubResponder{}, stubDepartments{}, logger, bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad base64, got %d", resp.StatusCode)
	}

	resp, _ = handle(context.Background(), &stubResponder{err: errors.New("store down")}, stubDepartments{}, logger,
		request(http.MethodPost, "/chat", `{"session_id":"s","message":"오늘 외과"}`))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	resp, _ = handle(context.Background(), &stubResponder{}, stubDepartments{}, logger, request(http.MethodPost, "/webhooks/unknown", ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleDepartments(t *testing.T) {
	logger := logging.New("error")

	resp, _ := handle(context.Background(), &stubResponder{}, stubDepartments{names: []string{"외과", "신경과"}}, logger, request(http.MethodGet, "/departments", ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Departments []string `json:"departments"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out.Departments) != 2 || out.Departments[0] != "외과" {
		t.Fatalf("unexpected departments: %v", out.Departments)
	}

	resp, _ = handle(context.Background(), &stubResponder{}, stubDepartments{err: errors.New("db down")}, logger, request(http.MethodGet, "/departments", ""))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
