package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/oncall-chatbot/internal/schedule"
	"github.com/wolfman30/oncall-chatbot/internal/temporal"
)

const (
	helpText = "저는 병원 당직 안내 챗봇입니다. 날짜와 과를 말씀해 주시면 당직 의사와 근무 시간, 연락처를 알려드립니다.\n" +
		"예시:\n" +
		"- 내일 순환기내과 당직 누구야?\n" +
		"- 오늘 밤 11시 외과 당직의\n" +
		"- 다음주 화요일 정형외과\n" +
		"- 그럼 모레는? (이전 질문의 과를 이어서 조회)\n" +
		"- 연락처 알려줘"

	clarificationText = "어느 과의 당직을 찾으시나요? 과 이름과 날짜를 함께 말씀해 주세요.\n" +
		"예: \"내일 순환기내과 당직 누구야?\", \"오늘 외과 수술의 연락처\""

	contextMissingText = "이전에 조회한 과가 없습니다. 과 이름과 함께 다시 질문해 주세요.\n" +
		"예: \"내일 외과 당직 누구야?\""

	noDoctorInContextText = "먼저 당직 의사를 조회해 주세요. 예: \"오늘 외과 당직 누구야?\""
)

func roleLabel(role schedule.Role) string {
	switch role {
	case schedule.RoleSurgical:
		return "수술의"
	case schedule.RoleGeneral, schedule.RoleOther:
		return "담당의"
	default:
		return "당직의"
	}
}

func formatSingle(a schedule.Assignment, role schedule.Role, withPhone bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s는 %s 선생님입니다.\n", temporal.FormatKorean(a.Date), a.Department, roleLabel(role), a.DoctorName)
	fmt.Fprintf(&b, "근무 시간: %s", a.Window.String())
	if a.Description != "" {
		fmt.Fprintf(&b, " (%s)", a.Description)
	}
	if withPhone {
		b.WriteString("\n")
		b.WriteString(phoneLine(a.DoctorName, a.DoctorPhone))
	}
	return b.String()
}

func phoneLine(name, phone string) string {
	if phone == "" {
		return fmt.Sprintf("%s 선생님의 연락처가 등록되어 있지 않습니다.", name)
	}
	return fmt.Sprintf("연락처: %s", phone)
}

func formatRoster(date time.Time, department string, as []schedule.Assignment, withPhone bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s 당직 현황입니다.", temporal.FormatKorean(date), department)
	for _, a := range as {
		b.WriteString("\n- ")
		if !temporal.SameDay(a.Date, date) {
			fmt.Fprintf(&b, "(%d월 %d일) ", a.Date.Month(), a.Date.Day())
		}
		fmt.Fprintf(&b, "%s %s", a.Window.String(), a.DoctorName)
		if a.Description != "" {
			fmt.Fprintf(&b, " (%s)", a.Description)
		}
		if withPhone && a.DoctorPhone != "" {
			fmt.Fprintf(&b, " %s", a.DoctorPhone)
		}
	}
	return b.String()
}

func formatNotFound(date time.Time, department string) string {
	return fmt.Sprintf("%s %s 당직 정보가 없습니다.", temporal.FormatKorean(date), department)
}

func formatResult(q schedule.Query, res schedule.Result, withPhone bool) string {
	switch res.Kind {
	case schedule.ResultSingle:
		a, _ := res.Single()
		return formatSingle(a, q.Role, withPhone)
	case schedule.ResultList:
		return formatRoster(q.Date, q.Department, res.Assignments, withPhone)
	default:
		return formatNotFound(q.Date, q.Department)
	}
}

func formatContact(doc schedule.Doctor) string {
	if doc.Phone == "" {
		return fmt.Sprintf("%s 선생님(%s)의 연락처가 등록되어 있지 않습니다.", doc.Name, doc.Department)
	}
	return fmt.Sprintf("%s 선생님(%s) 연락처: %s", doc.Name, doc.Department, doc.Phone)
}

func formatContactMissing(name string) string {
	return fmt.Sprintf("%s 선생님의 연락처 정보를 찾을 수 없습니다.", name)
}

func formatRecommendation(candidates []string) string {
	return "말씀하신 과를 찾지 못했습니다. 다음 중 어느 과를 찾으시나요?\n- " + strings.Join(candidates, "\n- ")
}

func formatToday(now time.Time) string {
	return fmt.Sprintf("오늘은 %s입니다.", temporal.FormatKorean(now))
}
