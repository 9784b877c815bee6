package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"github.com/wolfman30/oncall-chatbot/internal/schedule"
	"github.com/wolfman30/oncall-chatbot/internal/temporal"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

// Outcome classifies a reply. None of these are errors; infrastructure
// failures are returned as errors instead.
type Outcome string

const (
	OutcomeFound          Outcome = "found"
	OutcomeRoster         Outcome = "roster"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeClarification  Outcome = "clarification"
	OutcomeContextMissing Outcome = "context_missing"
	OutcomeRecommendation Outcome = "recommendation"
	OutcomeContact        Outcome = "contact"
	OutcomeHelp           Outcome = "help"
)

// Resolution paths, reported in logs and metrics.
const (
	pathFresh    = "fresh"
	pathFollowUp = "followup"
	pathMeta     = "meta"
	pathContact  = "contact"
)

// Reply is the answer to one chat turn.
type Reply struct {
	Text        string                `json:"answer"`
	Outcome     Outcome               `json:"outcome"`
	Path        string                `json:"path"`
	Query       *schedule.Query       `json:"query,omitempty"`
	Assignments []schedule.Assignment `json:"assignments,omitempty"`
	Suggestions []string              `json:"suggestions,omitempty"`
	Doctor      *schedule.Doctor      `json:"doctor,omitempty"`
	// Context is the session context after this turn.
	Context *Context `json:"-"`
}

// Engine answers duty questions for chat sessions.
type Engine struct {
	contexts    ContextStore
	store       schedule.Store
	departments schedule.DepartmentProvider
	matcher     *schedule.Matcher
	historySize int
	logger      *logging.Logger
	metrics     *metrics.ChatMetrics
}

type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *logging.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records turn outcomes.
func WithMetrics(m *metrics.ChatMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithHistorySize bounds the history ring kept per session.
func WithHistorySize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.historySize = n
		}
	}
}

func NewEngine(contexts ContextStore, store schedule.Store, departments schedule.DepartmentProvider, opts ...EngineOption) *Engine {
	if contexts == nil {
		panic("conversation: context store cannot be nil")
	}
	if store == nil {
		panic("conversation: schedule store cannot be nil")
	}
	if departments == nil {
		panic("conversation: department provider cannot be nil")
	}
	e := &Engine{
		contexts:    contexts,
		store:       store,
		departments: departments,
		matcher:     schedule.NewMatcher(store, nil),
		historySize: DefaultHistorySize,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Contexts exposes the context store for session inspection and reset.
func (e *Engine) Contexts() ContextStore { return e.contexts }

// Departments lists the current department vocabulary.
func (e *Engine) Departments(ctx context.Context) ([]string, error) {
	return e.departments.ListDepartments(ctx)
}

// HandleMessage answers text for the session and records the turn in the
// session context. now is the instant the message was sent.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, text string, now time.Time) (*Reply, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	started := time.Now()
	logger := e.logger.WithSession(sessionID)

	var (
		reply   *Reply
		turnErr error
	)
	updated, err := e.contexts.Update(ctx, sessionID, func(c *Context) error {
		// Stores retry this on a version conflict; only the last attempt counts.
		reply, turnErr = nil, nil
		r, ent, err := e.respond(ctx, c, text, now)
		if err != nil {
			turnErr = err
			r = &Reply{Text: "당직 정보를 조회하는 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."}
		}
		c.record(text, r.Text, ent, now, e.historySize)
		reply = r
		return nil
	})
	if err != nil {
		logger.Error("failed to update conversation context", "error", err)
		return nil, err
	}
	if turnErr != nil {
		logger.Error("failed to answer duty question", "error", turnErr)
		return nil, turnErr
	}

	reply.Context = updated
	e.metrics.ObserveTurn(string(reply.Outcome), reply.Path, time.Since(started))
	logger.Debug("duty question answered",
		"outcome", reply.Outcome,
		"path", reply.Path,
		"department", updated.LastDepartment,
	)
	return reply, nil
}

// respond runs one turn against c, mutating it in place.
func (e *Engine) respond(ctx context.Context, c *Context, text string, now time.Time) (*Reply, Entities, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &Reply{Text: clarificationText, Outcome: OutcomeClarification, Path: pathFresh}, Entities{}, nil
	}
	if IsMetaQuestion(trimmed) {
		return &Reply{Text: helpText, Outcome: OutcomeHelp, Path: pathMeta}, Entities{Meta: true, CurrentHour: now.Hour()}, nil
	}

	vocabulary, err := e.departments.ListDepartments(ctx)
	if err != nil {
		return nil, Entities{}, fmt.Errorf("conversation: list departments: %w", err)
	}
	ent := Extract(trimmed, vocabulary, now)

	if ent.Department == "" {
		if ref, ok := ExtractReference(trimmed); ok {
			r, err := e.followUp(ctx, c, ref, now)
			return r, ent, err
		}
		r, err := e.withoutDepartment(ctx, c, trimmed, ent, vocabulary, now)
		return r, ent, err
	}

	r, err := e.fresh(ctx, c, ent, now)
	return r, ent, err
}

func (e *Engine) fresh(ctx context.Context, c *Context, ent Entities, now time.Time) (*Reply, error) {
	q := ent.Query(now)
	res, err := e.matcher.Match(ctx, q)
	if err != nil {
		return nil, err
	}

	c.remember(ent.Department, ent.Role, ent.DutyDate)
	if !ent.PhoneRequested {
		c.LastDoctors = nil
	}
	reply := &Reply{
		Text:        formatResult(q, res, ent.PhoneRequested),
		Outcome:     outcomeFor(res),
		Path:        pathFresh,
		Query:       &q,
		Assignments: res.Assignments,
	}
	rememberResult(c, res)
	return reply, nil
}

func (e *Engine) followUp(ctx context.Context, c *Context, ref Reference, now time.Time) (*Reply, error) {
	if c.LastDepartment == "" {
		return &Reply{Text: contextMissingText, Outcome: OutcomeContextMissing, Path: pathFollowUp}, nil
	}

	res := Resolve(ref, c, now)
	switch res.Kind {
	case ResolvedContact:
		return e.contactFollowUp(ctx, c)
	case ResolvedDate:
		q := schedule.Query{Date: res.Date(), Department: c.LastDepartment, Now: now}
		match, err := e.matcher.Match(ctx, q)
		if err != nil {
			return nil, err
		}
		c.remember("", schedule.RoleNone, q.Date)
		rememberResult(c, match)
		return &Reply{
			Text:        formatResult(q, match, false),
			Outcome:     outcomeFor(match),
			Path:        pathFollowUp,
			Query:       &q,
			Assignments: match.Assignments,
		}, nil
	case ResolvedDates:
		return e.multiDay(ctx, c, res.Dates, now)
	default:
		return &Reply{Text: clarificationText, Outcome: OutcomeClarification, Path: pathFollowUp}, nil
	}
}

// multiDay answers a weekend-style reference with one roster per day.
func (e *Engine) multiDay(ctx context.Context, c *Context, dates []time.Time, now time.Time) (*Reply, error) {
	var (
		sections []string
		all      []schedule.Assignment
		names    []string
	)
	for _, d := range dates {
		q := schedule.Query{Date: d, Department: c.LastDepartment, Now: now}
		match, err := e.matcher.Match(ctx, q)
		if err != nil {
			return nil, err
		}
		sections = append(sections, formatResult(q, match, false))
		all = append(all, match.Assignments...)
		for _, a := range match.Assignments {
			names = append(names, a.DoctorName)
		}
	}
	c.remember("", schedule.RoleNone, dates[0])
	c.rememberDoctors(false, names...)

	outcome := OutcomeRoster
	if len(all) == 0 {
		outcome = OutcomeNotFound
	}
	first := schedule.Query{Date: dates[0], Department: c.LastDepartment, Now: now}
	return &Reply{
		Text:        strings.Join(sections, "\n\n"),
		Outcome:     outcome,
		Path:        pathFollowUp,
		Query:       &first,
		Assignments: all,
	}, nil
}

func (e *Engine) contactFollowUp(ctx context.Context, c *Context) (*Reply, error) {
	name := c.contactTarget()
	if name == "" {
		return &Reply{Text: noDoctorInContextText, Outcome: OutcomeClarification, Path: pathFollowUp}, nil
	}
	return e.contact(ctx, c, name, pathFollowUp)
}

func (e *Engine) contact(ctx context.Context, c *Context, name, path string) (*Reply, error) {
	doc, err := e.store.FindDoctor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("conversation: find doctor: %w", err)
	}
	if doc == nil {
		return &Reply{Text: formatContactMissing(name), Outcome: OutcomeNotFound, Path: path}, nil
	}
	c.rememberDoctors(true, doc.Name)
	return &Reply{Text: formatContact(*doc), Outcome: OutcomeContact, Path: path, Doctor: doc}, nil
}

var doctorNameRE = regexp.MustCompile(`([가-힣]{2,4})\s*(?:선생님|교수님|교수|의사|박사|쌤)?\s*(?:의\s*)?(?:연락처|전화\s*번호|번호|전화)`)

var notNames = map[string]bool{
	"당직": true, "당직의": true, "그분": true, "선생님": true, "교수님": true, "의사": true,
	"오늘": true, "내일": true, "지금": true, "현재": true, "담당": true, "담당의": true, "수술의": true,
}

// withoutDepartment handles messages that name no known department.
func (e *Engine) withoutDepartment(ctx context.Context, c *Context, text string, ent Entities, vocabulary []string, now time.Time) (*Reply, error) {
	if ent.PhoneRequested {
		if m := doctorNameRE.FindStringSubmatch(text); m != nil && !notNames[m[1]] {
			name := strings.TrimSuffix(m[1], "의")
			doc, err := e.store.FindDoctor(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("conversation: find doctor: %w", err)
			}
			if doc != nil {
				c.rememberDoctors(true, doc.Name)
				return &Reply{Text: formatContact(*doc), Outcome: OutcomeContact, Path: pathContact, Doctor: doc}, nil
			}
		}
	}
	if temporal.IsTodayQuestion(text) {
		return &Reply{Text: formatToday(now), Outcome: OutcomeHelp, Path: pathMeta}, nil
	}
	if LooksLikeDepartment(text) {
		suggestions := schedule.SuggestDepartments(text, vocabulary)
		return &Reply{
			Text:        formatRecommendation(suggestions),
			Outcome:     OutcomeRecommendation,
			Path:        pathFresh,
			Suggestions: suggestions,
		}, nil
	}
	return &Reply{Text: clarificationText, Outcome: OutcomeClarification, Path: pathFresh}, nil
}

func outcomeFor(res schedule.Result) Outcome {
	switch res.Kind {
	case schedule.ResultSingle:
		return OutcomeFound
	case schedule.ResultList:
		return OutcomeRoster
	default:
		return OutcomeNotFound
	}
}

func rememberResult(c *Context, res schedule.Result) {
	switch res.Kind {
	case schedule.ResultSingle:
		c.rememberDoctors(true, res.Assignments[0].DoctorName)
	case schedule.ResultList:
		names := make([]string, 0, len(res.Assignments))
		for _, a := range res.Assignments {
			names = append(names, a.DoctorName)
		}
		c.rememberDoctors(false, names...)
	}
}
