package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/oncall-chatbot/internal/temporal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Query is a fully resolved schedule question.
type Query struct {
	Date       time.Time `json:"date"`
	Department string    `json:"department"`
	Role       Role      `json:"role,omitempty"`
	// RoleKeyword is the word that selected Role, used to search window text.
	RoleKeyword string `json:"role_keyword,omitempty"`
	Hour        *int   `json:"hour,omitempty"`
	TimeRange   string `json:"time_range,omitempty"`
	NightHint   bool   `json:"night_hint,omitempty"`
	// Yesterday disables the previous-day lookback for early-morning hours.
	Yesterday bool `json:"yesterday,omitempty"`
	// Now is the wall-clock instant the question was asked.
	Now time.Time `json:"now"`
}

// ResultKind tags a match result.
type ResultKind int

const (
	ResultNotFound ResultKind = iota
	ResultSingle
	ResultList
)

func (k ResultKind) String() string {
	switch k {
	case ResultSingle:
		return "single"
	case ResultList:
		return "list"
	default:
		return "not_found"
	}
}

// Result is the matcher's answer: nothing, one assignment, or a roster.
type Result struct {
	Kind        ResultKind
	Assignments []Assignment
	// Rule names the selection step that decided.
	Rule string
}

// Single returns the chosen assignment for ResultSingle.
func (r Result) Single() (Assignment, bool) {
	if r.Kind != ResultSingle || len(r.Assignments) == 0 {
		return Assignment{}, false
	}
	return r.Assignments[0], true
}

// Matcher selects assignments for a query. It keeps no state between calls.
type Matcher struct {
	store  Store
	tracer trace.Tracer
}

func NewMatcher(store Store, tracer trace.Tracer) *Matcher {
	if store == nil {
		panic("schedule: store cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("oncall.internal.schedule.matcher")
	}
	return &Matcher{store: store, tracer: tracer}
}

// Match fetches the day's assignments and picks the one the query means. Store
// errors are returned unchanged in meaning; every other outcome is a Result.
func (m *Matcher) Match(ctx context.Context, q Query) (Result, error) {
	ctx, span := m.tracer.Start(ctx, "schedule.match")
	defer span.End()
	span.SetAttributes(
		attribute.String("schedule.department", q.Department),
		attribute.String("schedule.date", q.Date.Format("2006-01-02")),
	)

	assignments, err := m.store.FindAssignments(ctx, q.Date, q.Department)
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("schedule: find assignments: %w", err)
	}
	sortByStart(assignments)

	lookback := q.Hour != nil && temporal.IsEarlyMorning(*q.Hour) && !q.Yesterday
	if lookback {
		previous, err := m.store.FindAssignments(ctx, temporal.AddDays(q.Date, -1), q.Department)
		if err != nil {
			span.RecordError(err)
			return Result{}, fmt.Errorf("schedule: find previous-day assignments: %w", err)
		}
		sortByStart(previous)
		assignments = append(previous, assignments...)
	}

	res := Select(q, assignments)
	span.SetAttributes(attribute.String("schedule.rule", res.Rule), attribute.Int("schedule.candidates", len(assignments)))
	return res, nil
}

type selector func(q Query, all []Assignment) (Result, bool)

// selectors run in priority order after the roster check.
var selectors = []selector{
	selectByHour,
	selectOnCall,
	selectByTimeRange,
	selectByRoleKeyword,
}

// Select applies the selection rules to an already fetched candidate list.
func Select(q Query, all []Assignment) Result {
	if len(all) == 0 {
		return Result{Kind: ResultNotFound, Rule: "empty"}
	}
	if q.Role == RoleNone && q.Hour == nil && q.TimeRange == "" {
		return list(all, "roster")
	}
	for _, sel := range selectors {
		if res, ok := sel(q, all); ok {
			return res
		}
	}
	return selectCurrentHour(q, all)
}

func selectByHour(q Query, all []Assignment) (Result, bool) {
	if q.Hour == nil {
		return Result{}, false
	}
	hour := *q.Hour
	day := temporal.Day(q.Date)

	if temporal.IsEarlyMorning(hour) {
		for _, a := range all {
			if temporal.Day(a.Date).Before(day) && a.Window.containsNextDay(hour) {
				return single(a, "overnight"), true
			}
		}
	}
	for _, a := range all {
		if temporal.SameDay(a.Date, day) && a.Window.Contains(hour) {
			return single(a, "hour"), true
		}
	}
	for _, a := range all {
		if a.Window.FullDay() {
			return single(a, "hour"), true
		}
	}
	return list(all, "hour_ambiguous"), true
}

func selectOnCall(q Query, all []Assignment) (Result, bool) {
	if q.Role != RoleOnCall {
		return Result{}, false
	}
	hour := q.Now.Hour()
	if q.NightHint || temporal.IsNightHour(hour) {
		for _, a := range all {
			if a.Window.Start >= 20*60 || a.Window.Start == 0 {
				return single(a, "on_call_night"), true
			}
		}
		for _, a := range all {
			if a.Window.Overnight() {
				return single(a, "on_call_overnight"), true
			}
		}
	}
	for _, a := range all {
		if a.Window.Contains(hour) {
			return single(a, "on_call_current"), true
		}
	}
	return Result{}, false
}

func selectByTimeRange(q Query, all []Assignment) (Result, bool) {
	if q.TimeRange == "" {
		return Result{}, false
	}
	tr, ok := temporal.TimeRangeByLabel(q.TimeRange)
	if !ok {
		return Result{}, false
	}
	for _, a := range all {
		if a.Window.StartHour() == tr.StartHour {
			return single(a, "time_range"), true
		}
	}
	for _, a := range all {
		if a.Window.Contains(tr.StartHour) {
			return single(a, "time_range"), true
		}
	}
	return Result{}, false
}

func selectByRoleKeyword(q Query, all []Assignment) (Result, bool) {
	if q.Role == RoleNone || q.Role == RoleGeneral || q.RoleKeyword == "" {
		return Result{}, false
	}
	kw := strings.ToLower(q.RoleKeyword)
	for _, a := range all {
		if strings.Contains(strings.ToLower(a.WindowText()), kw) {
			return single(a, "role_keyword"), true
		}
	}
	return Result{}, false
}

func selectCurrentHour(q Query, all []Assignment) Result {
	hour := q.Now.Hour()
	for _, a := range all {
		if a.Window.Contains(hour) {
			return single(a, "current_hour")
		}
	}
	if len(all) == 1 {
		return single(all[0], "only")
	}
	return list(all, "ambiguous")
}

func single(a Assignment, rule string) Result {
	return Result{Kind: ResultSingle, Assignments: []Assignment{a}, Rule: rule}
}

func list(all []Assignment, rule string) Result {
	out := make([]Assignment, len(all))
	copy(out, all)
	return Result{Kind: ResultList, Assignments: out, Rule: rule}
}

func sortByStart(as []Assignment) {
	sort.SliceStable(as, func(i, j int) bool {
		return as[i].Window.Start < as[j].Window.Start
	})
}
