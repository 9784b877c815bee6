package conversation

import (
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/oncall-chatbot/internal/schedule"
	"github.com/wolfman30/oncall-chatbot/internal/temporal"
)

// Entities is what a single message says about the duty being asked for.
// Zero values mean the message did not mention the field.
type Entities struct {
	// Date is the calendar day of the instant asked about.
	Date time.Time `json:"date,omitempty"`
	// DutyDate is the day whose roster owns that instant: early-morning
	// hours belong to the previous night's shift.
	DutyDate       time.Time     `json:"duty_date,omitempty"`
	DateRule       string        `json:"date_rule,omitempty"`
	Hour           *int          `json:"hour,omitempty"`
	RelativeHour   bool          `json:"relative_hour,omitempty"`
	Now            bool          `json:"now,omitempty"`
	Yesterday      bool          `json:"yesterday,omitempty"`
	Department     string        `json:"department,omitempty"`
	TimeRange      string        `json:"time_range,omitempty"`
	NightHint      bool          `json:"night_hint,omitempty"`
	Role           schedule.Role `json:"role,omitempty"`
	RoleKeyword    string        `json:"role_keyword,omitempty"`
	PhoneRequested bool          `json:"phone_requested,omitempty"`
	Meta           bool          `json:"meta,omitempty"`
	CurrentHour    int           `json:"current_hour"`
}

// HasDate reports whether a date was resolved.
func (e Entities) HasDate() bool { return !e.Date.IsZero() }

var metaQuestions = []string{
	"너는 누구", "넌 누구", "너 누구", "누가 만들", "이름이 뭐", "뭘 할 수 있", "무엇을 할 수",
	"뭐 할 수 있", "자기소개", "도움말", "사용법",
}

// IsMetaQuestion reports questions about the assistant itself.
func IsMetaQuestion(text string) bool {
	return containsAny(compactSpaces(text), metaQuestions...)
}

// compactSpaces collapses runs of whitespace so "너는  누구" still matches.
func compactSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type roleRule struct {
	role     schedule.Role
	keywords []string
}

// Surgical wins over on-call: "외과 수술의 당직" asks for the surgeon.
var roleRules = []roleRule{
	{role: schedule.RoleSurgical, keywords: []string{"수술의", "수술"}},
	{role: schedule.RoleOnCall, keywords: []string{"당직의", "당직", "야간", "밤"}},
}

var sameDayRoleRE = regexp.MustCompile(`오늘\s*담당(?:[^의]|$)`)

var nightWords = []string{"야간", "밤", "새벽"}

var phoneWords = []string{"번호", "연락처", "전화", "폰"}

// Extract reads the duty entities from text. now anchors every relative
// reference and supplies the current hour.
func Extract(text string, vocabulary []string, now time.Time) Entities {
	text = strings.TrimSpace(text)
	ent := Entities{CurrentHour: now.Hour()}

	if hm, ok := temporal.ExtractHour(text, now); ok {
		h := hm.Hour
		ent.Hour = &h
		if hm.Relative {
			ent.RelativeHour = true
			ent.Date = hm.Date
			ent.DateRule = "relative_hour"
		}
	}

	if strings.Contains(text, "지금") || strings.Contains(text, "현재") {
		ent.Now = true
		if !ent.RelativeHour {
			ent.Date = temporal.Day(now)
			ent.DateRule = "now"
		}
		if ent.Hour == nil {
			h := now.Hour()
			ent.Hour = &h
		}
	}

	ent.Yesterday = strings.Contains(text, "어제")
	if !ent.HasDate() {
		if d, rule, ok := temporal.ParseRule(text, now); ok {
			ent.Date = d
			ent.DateRule = rule
		}
	}

	if dept, ok := MatchDepartment(text, vocabulary); ok {
		ent.Department = dept
		if !ent.HasDate() {
			ent.Date = temporal.Day(now)
			ent.DateRule = "default_today"
		}
	}

	ent.DutyDate = ent.Date
	if ent.HasDate() && ent.Hour != nil && temporal.IsEarlyMorning(*ent.Hour) && !ent.Yesterday {
		ent.DutyDate = temporal.AddDays(ent.Date, -1)
	}

	if tr, ok := temporal.MatchTimeRange(text); ok {
		ent.TimeRange = tr.Label
	}
	ent.NightHint = containsAny(text, nightWords...) || ent.TimeRange == "20:00-08:00"

	if IsMetaQuestion(text) {
		ent.Meta = true
	} else {
		ent.Role, ent.RoleKeyword = extractRole(text)
	}

	ent.PhoneRequested = containsAny(text, phoneWords...)
	return ent
}

func extractRole(text string) (schedule.Role, string) {
	for _, rule := range roleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.role, kw
			}
		}
	}
	if sameDayRoleRE.MatchString(text) {
		return schedule.RoleOther, "담당"
	}
	if containsAny(text, "누구", "누가", "담당") {
		return schedule.RoleGeneral, ""
	}
	return schedule.RoleNone, ""
}

// Query turns the entities into a matcher query.
func (e Entities) Query(now time.Time) schedule.Query {
	return schedule.Query{
		Date:        e.Date,
		Department:  e.Department,
		Role:        e.Role,
		RoleKeyword: e.RoleKeyword,
		Hour:        e.Hour,
		TimeRange:   e.TimeRange,
		NightHint:   e.NightHint,
		Yesterday:   e.Yesterday,
		Now:         now,
	}
}
