// Package fallback adapts hosted language models into short answers for
// duty questions the schedule could not resolve.
package fallback

import (
	"fmt"
	"strings"
)

const systemPrompt = `당신은 병원 당직 안내 챗봇의 보조 응답기입니다.
당직표에서 답을 찾지 못한 질문에만 호출됩니다.
당직 의사 이름이나 연락처를 지어내지 마세요.
두세 문장 이내의 한국어로 답하고, 필요하면 과 이름과 날짜를 포함해 다시 질문하도록 안내하세요.`

// userPrompt combines the user's question with what the schedule lookup
// already established.
func userPrompt(question, hint string) string {
	question = strings.TrimSpace(question)
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return question
	}
	return fmt.Sprintf("질문: %s\n조회 결과: %s", question, hint)
}
