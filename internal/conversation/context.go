package conversation

import (
	"time"

	"github.com/wolfman30/oncall-chatbot/internal/schedule"
)

// DefaultHistorySize bounds the per-session turn history.
const DefaultHistorySize = 10

// HistoryEntry is one recorded turn.
type HistoryEntry struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Entities  Entities  `json:"entities"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the per-session memory that lets follow-up questions omit the
// department or doctor.
type Context struct {
	SessionID      string        `json:"session_id"`
	LastDepartment string        `json:"last_department,omitempty"`
	LastRole       schedule.Role `json:"last_role,omitempty"`
	LastDate       time.Time     `json:"last_date,omitempty"`
	LastDoctor     string        `json:"last_doctor,omitempty"`
	// LastDoctors is most-recent-first.
	LastDoctors []string       `json:"last_doctors,omitempty"`
	History     []HistoryEntry `json:"history,omitempty"`
	Version     int64          `json:"version"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

func newContext(sessionID string) *Context {
	return &Context{SessionID: sessionID}
}

// Clone returns a deep copy.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	out := *c
	out.LastDoctors = append([]string(nil), c.LastDoctors...)
	out.History = append([]HistoryEntry(nil), c.History...)
	return &out
}

// remember stores the department, role and duty date of a resolved question.
func (c *Context) remember(department string, role schedule.Role, date time.Time) {
	if department != "" {
		c.LastDepartment = department
	}
	c.LastRole = role
	if !date.IsZero() {
		c.LastDate = date
	}
}

// rememberDoctors records the doctors named by a reply. A single doctor
// becomes LastDoctor; a roster clears it so a contact follow-up goes to the
// head of the list.
func (c *Context) rememberDoctors(single bool, names ...string) {
	if len(names) == 0 {
		return
	}
	if single {
		c.LastDoctor = names[0]
	} else {
		c.LastDoctor = ""
	}
	merged := make([]string, 0, len(names)+len(c.LastDoctors))
	seen := make(map[string]bool, len(names))
	for _, n := range append(append([]string(nil), names...), c.LastDoctors...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		merged = append(merged, n)
	}
	c.LastDoctors = merged
}

// contactTarget is the doctor a bare "연락처 알려줘" refers to.
func (c *Context) contactTarget() string {
	if c.LastDoctor != "" {
		return c.LastDoctor
	}
	if len(c.LastDoctors) > 0 {
		return c.LastDoctors[0]
	}
	return ""
}

// record appends a turn, keeping at most size entries.
func (c *Context) record(query, response string, ent Entities, at time.Time, size int) {
	if size <= 0 {
		size = DefaultHistorySize
	}
	c.History = append(c.History, HistoryEntry{Query: query, Response: response, Entities: ent, Timestamp: at})
	if over := len(c.History) - size; over > 0 {
		c.History = append([]HistoryEntry(nil), c.History[over:]...)
	}
}
