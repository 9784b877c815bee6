// Package schedule holds duty shift assignments and selects the assignment a
// resolved question refers to.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role narrows a question to a kind of duty.
type Role string

const (
	RoleNone     Role = ""
	RoleOnCall   Role = "on_call"
	RoleSurgical Role = "surgical"
	// RoleGeneral is the implicit role of "누구/담당" questions that name no duty.
	RoleGeneral Role = "general"
	RoleOther   Role = "other"
)

// Window is a duty time-of-day span in minutes since midnight. End may be at or
// before Start, which means the shift finishes on the following day.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseWindow reads "HH:MM" start and end values.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

func parseClock(v string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("schedule: invalid time %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("schedule: invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("schedule: invalid minute in %q", v)
	}
	return (h*60 + m) % (24 * 60), nil
}

// FullDay reports a 24-hour shift such as 08:00-08:00.
func (w Window) FullDay() bool { return w.Start == w.End }

// Overnight reports whether the shift crosses midnight.
func (w Window) Overnight() bool { return w.End <= w.Start }

// span returns start and end with the end pushed past midnight when needed.
func (w Window) span() (int, int) {
	end := w.End
	if end <= w.Start {
		end += 24 * 60
	}
	return w.Start, end
}

// Contains reports whether the clock hour falls inside the window. For
// overnight windows the hour is also tried on the following day.
func (w Window) Contains(hour int) bool {
	if w.FullDay() {
		return true
	}
	start, end := w.span()
	q := hour * 60
	return (q >= start && q < end) || (q+24*60 >= start && q+24*60 < end)
}

// containsNextDay reports whether hour on the day after the shift started is
// still covered.
func (w Window) containsNextDay(hour int) bool {
	if !w.Overnight() {
		return false
	}
	start, end := w.span()
	q := hour*60 + 24*60
	return q >= start && q < end
}

// StartHour is the hour the shift begins.
func (w Window) StartHour() int { return w.Start / 60 }

// StartClock renders the start as "HH:MM".
func (w Window) StartClock() string { return clock(w.Start) }

// EndClock renders the end as "HH:MM".
func (w Window) EndClock() string { return clock(w.End) }

// String renders the window the way replies quote it.
func (w Window) String() string {
	switch {
	case w.FullDay():
		return fmt.Sprintf("%s - 익일 %s (24시간)", clock(w.Start), clock(w.End))
	case w.Overnight():
		return fmt.Sprintf("%s - 익일 %s", clock(w.Start), clock(w.End))
	default:
		return fmt.Sprintf("%s - %s", clock(w.Start), clock(w.End))
	}
}

func clock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Assignment is one doctor's duty window for one department on one date.
type Assignment struct {
	Date        time.Time `json:"date"`
	Department  string    `json:"department"`
	Window      Window    `json:"window"`
	Description string    `json:"description,omitempty"`
	DoctorName  string    `json:"doctor_name"`
	DoctorPhone string    `json:"doctor_phone,omitempty"`
	OnCall      bool      `json:"on_call"`
	Note        string    `json:"note,omitempty"`
}

// WindowText is the searchable text of the duty window, e.g.
// "18:00-08:00 (야간 당직)".
func (a Assignment) WindowText() string {
	text := a.Window.StartClock() + "-" + a.Window.EndClock()
	if a.Description != "" {
		text += " (" + a.Description + ")"
	}
	return text
}

// Doctor is a contact entry.
type Doctor struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

// Store reads assignments and contacts. FindDoctor returns nil, nil for an
// unknown name.
type Store interface {
	FindAssignments(ctx context.Context, date time.Time, department string) ([]Assignment, error)
	FindDoctor(ctx context.Context, name string) (*Doctor, error)
}

// DepartmentProvider lists the department vocabulary.
type DepartmentProvider interface {
	ListDepartments(ctx context.Context) ([]string, error)
}
