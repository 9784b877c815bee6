package conversation

import (
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/oncall-chatbot/internal/temporal"
)

// ReferenceKind tags what an elliptical follow-up points at.
type ReferenceKind int

const (
	RefDay ReferenceKind = iota + 1
	RefSameDay
	RefWeekend
	RefContact
)

func (k ReferenceKind) String() string {
	switch k {
	case RefDay:
		return "day"
	case RefSameDay:
		return "same_day"
	case RefWeekend:
		return "weekend"
	case RefContact:
		return "contact"
	default:
		return "none"
	}
}

// Reference is the time or contact reference carried by a follow-up.
type Reference struct {
	Kind ReferenceKind
	// Text is the bare temporal expression, e.g. "다음주 화요일".
	Text string
	// WeekOffset applies to RefWeekend.
	WeekOffset int
}

type followUpTemplate struct {
	kind    ReferenceKind
	pattern *regexp.Regexp
}

const (
	followUpPrefix = `^(?:그럼|그러면|그렇다면)?\s*`
	followUpSuffix = `\s*(?:당직|당직의)?\s*(?:은|는|도|요|이요)?$`
	weekWord       = `(?:다다음\s*주|다음\s*주|차주|이번\s*주|금주|저번\s*주|지난\s*주)`
	weekdayWord    = `[월화수목금토일]요일`
	relativeWord   = `(?:내일\s*모레|그저께|그제|어제|오늘|내일|명일|익일|모레|글피)`
	monthWord      = `(?:다음\s*달|내달|이번\s*달|이달|저번\s*달|지난\s*달|\d{1,2}\s*월)`
	dateWord       = `(?:\d{4}\s*[-/.]\s*\d{1,2}\s*[-/.]\s*\d{1,2}|(?:\d{4}\s*년\s*)?\d{1,2}\s*월\s*\d{1,2}\s*일|\d{1,2}\s*[-/]\s*\d{1,2}|\d{1,2}\s*일)`
	offsetWord     = `\d+\s*일\s*(?:후|뒤|이후|전)`
)

func template(kind ReferenceKind, body string) followUpTemplate {
	return followUpTemplate{
		kind:    kind,
		pattern: regexp.MustCompile(followUpPrefix + `(` + body + `)` + followUpSuffix),
	}
}

// followUpTemplates are tried in order; the captured group is the reference.
var followUpTemplates = []followUpTemplate{
	template(RefDay, offsetWord),
	template(RefWeekend, `(?:`+weekWord+`\s*)?주말`),
	template(RefDay, weekWord+`\s*`+weekdayWord),
	template(RefDay, weekWord),
	template(RefDay, weekdayWord),
	template(RefDay, relativeWord),
	template(RefDay, dateWord),
	template(RefDay, monthWord),
	template(RefSameDay, `그\s*날`),
}

var contactFollowUp = regexp.MustCompile(`^(?:그럼|그러면)?\s*(?:그\s*(?:분|선생님|의사|교수님)\s*(?:의)?\s*)?` +
	`(?:연락처|전화\s*번호|핸드폰\s*번호|폰\s*번호|번호)\s*(?:좀)?\s*` +
	`(?:알려\s*줘|알려\s*주세요|알려\s*줄래|줘|주세요|뭐야|뭐예요|는|은)?$`)

// normalizeFollowUp trims whitespace and trailing punctuation.
func normalizeFollowUp(text string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "?!.~ "))
}

// IsFollowUp reports whether text is an elliptical question that only makes
// sense on top of the previous turn.
func IsFollowUp(text string) bool {
	_, ok := ExtractReference(text)
	return ok
}

// ExtractReference pulls the reference out of a follow-up message.
func ExtractReference(text string) (Reference, bool) {
	t := normalizeFollowUp(text)
	if t == "" {
		return Reference{}, false
	}
	if contactFollowUp.MatchString(t) {
		return Reference{Kind: RefContact, Text: t}, true
	}
	for _, tpl := range followUpTemplates {
		m := tpl.pattern.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		ref := Reference{Kind: tpl.kind, Text: m[1]}
		if tpl.kind == RefWeekend {
			if w := weekOnly.FindString(m[1]); w != "" {
				ref.WeekOffset, _ = temporal.WeekOffset(w)
			}
		}
		return ref, true
	}
	return Reference{}, false
}

var weekOnly = regexp.MustCompile(weekWord)

// ResolutionKind tags a follow-up resolution.
type ResolutionKind int

const (
	ResolvedNone ResolutionKind = iota
	ResolvedDate
	ResolvedDates
	ResolvedContact
)

// Resolution is the outcome of resolving a reference against the context.
type Resolution struct {
	Kind  ResolutionKind
	Dates []time.Time
}

// Date returns the single resolved date.
func (r Resolution) Date() time.Time {
	if len(r.Dates) == 0 {
		return time.Time{}
	}
	return r.Dates[0]
}

// Resolve turns a reference into concrete dates using the same day arithmetic
// as fresh questions. Relative references are anchored on now, never on the
// previous turn's date; only "그날" reads the context.
func Resolve(ref Reference, c *Context, now time.Time) Resolution {
	switch ref.Kind {
	case RefContact:
		return Resolution{Kind: ResolvedContact}
	case RefSameDay:
		if c == nil || c.LastDate.IsZero() {
			return Resolution{}
		}
		return Resolution{Kind: ResolvedDate, Dates: []time.Time{temporal.Day(c.LastDate.In(now.Location()))}}
	case RefWeekend:
		sat := temporal.WeekWeekday(now, ref.WeekOffset, 5)
		return Resolution{Kind: ResolvedDates, Dates: []time.Time{sat, sat.AddDate(0, 0, 1)}}
	case RefDay:
		if d, ok := temporal.Parse(ref.Text, now); ok {
			return Resolution{Kind: ResolvedDate, Dates: []time.Time{d}}
		}
	}
	return Resolution{}
}
