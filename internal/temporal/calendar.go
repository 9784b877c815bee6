// Package temporal resolves Korean natural-language date and time references
// ("내일", "다음주 화요일", "7월 25일", "새벽 3시") into absolute calendar values.
//
// Every function takes the reference instant explicitly; nothing here reads the
// wall clock.
package temporal

import "time"

// Day truncates t to midnight in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays returns the calendar day n days away from t's day.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekdayIndex maps time.Weekday onto Monday=0 .. Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Monday returns the Monday that starts t's week.
func Monday(t time.Time) time.Time {
	return AddDays(t, -WeekdayIndex(t))
}

// WeekWeekday returns the given weekday (Monday=0) of the week weekOffset weeks
// away from now's week.
func WeekWeekday(now time.Time, weekOffset, weekday int) time.Time {
	return Monday(now).AddDate(0, 0, 7*weekOffset+weekday)
}

// SameWeekday shifts now by whole weeks, keeping the weekday.
func SameWeekday(now time.Time, weekOffset int) time.Time {
	return AddDays(now, 7*weekOffset)
}

// MonthStart returns the first day of the month offset months away from now.
// Year rollover is handled by time.Date normalisation.
func MonthStart(now time.Time, offset int) time.Time {
	return time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
}

// NamedMonth returns the first day of month. Months already behind now's month
// are taken to mean next year.
func NamedMonth(now time.Time, month int) time.Time {
	year := now.Year()
	if month < int(now.Month()) {
		year++
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
}

// validDate builds a date only when the components name a real calendar day.
func validDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// FormatKorean renders a date the way replies quote it: "2025년 1월 11일 (토)".
func FormatKorean(t time.Time) string {
	return t.Format("2006년 1월 2일") + " (" + weekdayNames[WeekdayIndex(t)] + ")"
}

var weekdayNames = [7]string{"월", "화", "수", "목", "금", "토", "일"}
