package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/wolfman30/oncall-chatbot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/oncall-chatbot/internal/config"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	httpmiddleware "github.com/wolfman30/oncall-chatbot/internal/http/middleware"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

type responder interface {
	Respond(ctx context.Context, sessionID, text, source string) (*conversation.ChatResponse, error)
}

type departmentLister interface {
	Departments(ctx context.Context) ([]string, error)
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	app, err := bootstrap.Build(context.Background(), cfg, logger)
	if err != nil {
		panic(err)
	}

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, app.Conversation, app.Engine, logger, evt)
	})
}

func handle(ctx context.Context, chat responder, departments departmentLister, logger *logging.Logger, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	if path == "/health" || path == "/_health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
	}

	switch path {
	case "/departments":
		if method != http.MethodGet {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
		}
		names, err := departments.Departments(ctx)
		if err != nil {
			logger.Error("failed to list departments", "error", err)
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError, Body: "failed to list departments"}, nil
		}
		return jsonResponse(http.StatusOK, map[string]any{"departments": names}), nil
	case "/chat":
		if method != http.MethodPost {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
		}
	default:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
	}
	var req conversation.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
	}
	if req.SessionID == "" {
		req.SessionID = strings.TrimSpace(headerValue(evt.Headers, httpmiddleware.SessionHeader))
	}
	if req.Source == "" {
		req.Source = "lambda"
	}

	resp, err := chat.Respond(ctx, req.SessionID, req.Message, req.Source)
	if err != nil {
		logger.Error("failed to answer chat message", "request_id", evt.RequestContext.RequestID, "error", err)
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError, Body: "failed to process message"}, nil
	}
	return jsonResponse(http.StatusOK, resp), nil
}

func jsonResponse(status int, payload any) events.APIGatewayV2HTTPResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"content-type": "application/json"},
	}
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
