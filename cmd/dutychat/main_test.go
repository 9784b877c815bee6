package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/oncall-chatbot/internal/conversation"
)

type echoResponder struct {
	seen []string
	err  error
}

func (e *echoResponder) Respond(_ context.Context, sessionID, text, source string) (*conversation.ChatResponse, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.seen = append(e.seen, sessionID+"|"+source+"|"+text)
	return &conversation.ChatResponse{SessionID: sessionID, Answer: "답: " + text, Outcome: conversation.OutcomeFound}, nil
}

func TestRunAnswersEachLineUntilExit(t *testing.T) {
	chat := &echoResponder{}
	var out bytes.Buffer

	err := run(context.Background(), chat, "cli-1", strings.NewReader("내일 외과\n\n그럼 모레는?\n종료\n무시됨\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"cli-1|cli|내일 외과", "cli-1|cli|그럼 모레는?"}, chat.seen)
	assert.Contains(t, out.String(), "답: 그럼 모레는?\n[found]")
}

func TestRunStopsOnResponderError(t *testing.T) {
	chat := &echoResponder{err: errors.New("boom")}
	err := run(context.Background(), chat, "cli-1", strings.NewReader("내일 외과\n"), &bytes.Buffer{})
	assert.EqualError(t, err, "boom")
}
