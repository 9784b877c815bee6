package temporal

import (
	"regexp"
	"strings"
	"time"
)

// HourMatch is an hour-of-day mentioned in a message. Relative matches ("3시간
// 후") also carry the calendar day they land on.
type HourMatch struct {
	Hour     int
	Date     time.Time
	Relative bool
}

var (
	relativeHoursRE = regexp.MustCompile(`(\d{1,2})\s*시간\s*(?:후|뒤)`)
	clockHourRE     = regexp.MustCompile(`(\d{1,2})\s*시(간)?|(\d{1,2}):(00|30)`)
)

// ExtractHour finds the hour a message refers to. "N시간 후" is resolved
// against now and short-circuits the clock pattern.
func ExtractHour(text string, now time.Time) (HourMatch, bool) {
	if m := relativeHoursRE.FindStringSubmatch(text); m != nil {
		at := now.Add(time.Duration(atoi(m[1])) * time.Hour)
		return HourMatch{Hour: at.Hour(), Date: Day(at), Relative: true}, true
	}

	for _, m := range clockHourRE.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		raw := m[1]
		if raw == "" {
			raw = m[3]
		}
		h := atoi(raw)
		if h > 24 {
			continue
		}
		if h == 24 {
			h = 0
		}
		return HourMatch{Hour: adjustMeridiem(text, h)}, true
	}
	return HourMatch{}, false
}

// adjustMeridiem applies 오전/오후-style qualifiers to a 12-hour reading.
func adjustMeridiem(text string, h int) int {
	switch {
	case strings.Contains(text, "오후") && h < 12:
		return h + 12
	case containsAny(text, "아침", "오전", "새벽") && h >= 12:
		return h % 12
	case strings.Contains(text, "저녁") && h >= 1 && h < 12:
		return h + 12
	case strings.Contains(text, "밤") && h == 12:
		return 0
	case strings.Contains(text, "밤") && h >= 6 && h < 12:
		return h + 12
	}
	return h
}

// IsEarlyMorning reports whether h belongs to the previous night's duty.
func IsEarlyMorning(h int) bool {
	return h >= 0 && h < 8
}

// IsNightHour reports whether h falls in the night-duty band [20,24)∪[0,8).
func IsNightHour(h int) bool {
	return h >= 20 || IsEarlyMorning(h)
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
