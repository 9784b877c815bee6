package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type verdict int

const (
	pass verdict = iota
	found
	reject
)

// rule is one entry of the resolution table. A rule either passes (the next
// rule runs), finds a date, or rejects the text outright.
type rule struct {
	name    string
	resolve func(text string, now time.Time) (time.Time, verdict)
}

// rules are evaluated in order; the most specific references come first.
var rules = []rule{
	{"today_question", resolveTodayQuestion},
	{"day_offset", resolveDayOffset},
	{"structured_date", resolveStructuredDate},
	{"week_weekday", resolveWeekWeekday},
	{"week_only", resolveWeekOnly},
	{"weekday", resolveBareWeekday},
	{"relative_day", resolveRelativeDay},
	{"month", resolveMonth},
}

// Parse resolves the first date reference in text relative to now. The result
// is midnight in now's location. Unparseable text yields false.
func Parse(text string, now time.Time) (time.Time, bool) {
	d, _, ok := ParseRule(text, now)
	return d, ok
}

// ParseRule is Parse that also names the rule that decided.
func ParseRule(text string, now time.Time) (time.Time, string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, "", false
	}
	for _, r := range rules {
		d, v := r.resolve(text, now)
		switch v {
		case found:
			return d, r.name, true
		case reject:
			return time.Time{}, r.name, false
		}
	}
	return time.Time{}, "", false
}

var todayQuestionRE = regexp.MustCompile(`오늘\s*(?:은|이)?\s*(?:몇\s*월\s*)?(?:며칠|몇\s*일|무슨\s*요일|날짜)`)

// IsTodayQuestion reports whether text asks for today's date.
func IsTodayQuestion(text string) bool {
	return todayQuestionRE.MatchString(text)
}

func resolveTodayQuestion(text string, now time.Time) (time.Time, verdict) {
	if IsTodayQuestion(text) {
		return Day(now), found
	}
	return time.Time{}, pass
}

var dayOffsetRE = regexp.MustCompile(`(\d+)\s*일\s*(후|뒤|이후|전)`)

// DayOffset extracts "N일 후/뒤/전" as a signed day count.
func DayOffset(text string) (int, bool) {
	m := dayOffsetRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if m[2] == "전" {
		n = -n
	}
	return n, true
}

func resolveDayOffset(text string, now time.Time) (time.Time, verdict) {
	if n, ok := DayOffset(text); ok {
		return AddDays(now, n), found
	}
	return time.Time{}, pass
}

var (
	ymdRE   = regexp.MustCompile(`(\d{4})\s*[-/.]\s*(\d{1,2})\s*[-/.]\s*(\d{1,2})`)
	ymdKoRE = regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	mdKoRE  = regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	mdRE    = regexp.MustCompile(`(?:^|[^\d:])(\d{1,2})[-/](\d{1,2})(?:$|[^\d:])`)
	dayRE   = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*일`)
)

func resolveStructuredDate(text string, now time.Time) (time.Time, verdict) {
	loc := now.Location()
	for _, re := range []*regexp.Regexp{ymdRE, ymdKoRE} {
		if m := re.FindStringSubmatch(text); m != nil {
			return decide(validDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), loc))
		}
	}
	if m := mdKoRE.FindStringSubmatch(text); m != nil {
		return decide(validDate(now.Year(), atoi(m[1]), atoi(m[2]), loc))
	}
	if m := mdRE.FindStringSubmatchIndex(text); m != nil && !strings.HasPrefix(strings.TrimSpace(text[m[5]:]), "시") {
		return decide(validDate(now.Year(), atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), loc))
	}
	if m := dayRE.FindStringSubmatchIndex(text); m != nil {
		if strings.HasPrefix(text[m[1]:], "간") {
			return time.Time{}, pass
		}
		return nextDayOfMonth(atoi(text[m[2]:m[3]]), now)
	}
	return time.Time{}, pass
}

// nextDayOfMonth finds the first month, starting with the current one, that
// has the given day on or after today. "30일" on Jan 31 is Mar 30.
func nextDayOfMonth(day int, now time.Time) (time.Time, verdict) {
	if day < 1 || day > 31 {
		return time.Time{}, reject
	}
	first := 0
	if day < now.Day() {
		first = 1
	}
	for i := first; i <= first+2; i++ {
		month := MonthStart(now, i)
		if t, ok := validDate(month.Year(), int(month.Month()), day, now.Location()); ok {
			return t, found
		}
	}
	return time.Time{}, reject
}

func resolveWeekWeekday(text string, now time.Time) (time.Time, verdict) {
	m := weekWeekdayRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, pass
	}
	off, _ := WeekOffset(m[1])
	wd, _ := WeekdayFromName(m[2])
	return WeekWeekday(now, off, wd), found
}

func resolveWeekOnly(text string, now time.Time) (time.Time, verdict) {
	m := weekOnlyRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, pass
	}
	off, _ := WeekOffset(m[1])
	return SameWeekday(now, off), found
}

// A bare weekday means this week's occurrence, even when it already passed.
func resolveBareWeekday(text string, now time.Time) (time.Time, verdict) {
	m := weekdayRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, pass
	}
	wd, _ := WeekdayFromName(m[1])
	return WeekWeekday(now, 0, wd), found
}

func resolveRelativeDay(text string, now time.Time) (time.Time, verdict) {
	if rd, ok := RelativeDayOffset(text); ok {
		return AddDays(now, rd.Offset), found
	}
	return time.Time{}, pass
}

var namedMonthRE = regexp.MustCompile(`(\d{1,2})\s*월`)

func resolveMonth(text string, now time.Time) (time.Time, verdict) {
	if m := relMonthRE.FindStringSubmatch(text); m != nil {
		off, _ := MonthOffset(m[1])
		return MonthStart(now, off), found
	}
	if m := namedMonthRE.FindStringSubmatch(text); m != nil {
		month := atoi(m[1])
		if month < 1 || month > 12 {
			return time.Time{}, reject
		}
		return NamedMonth(now, month), found
	}
	return time.Time{}, pass
}

func decide(t time.Time, ok bool) (time.Time, verdict) {
	if !ok {
		return time.Time{}, reject
	}
	return t, found
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
