package temporal

import (
	"regexp"
	"strings"
)

// Week qualifiers and their offset from the current week.
var weekOffsets = map[string]int{
	"다다음주": 2,
	"다음주":  1,
	"차주":   1,
	"이번주":  0,
	"금주":   0,
	"저번주":  -1,
	"지난주":  -1,
}

var weekdayIndex = map[string]int{
	"월": 0, "화": 1, "수": 2, "목": 3, "금": 4, "토": 5, "일": 6,
}

// RelativeDay is a single-word day reference such as 내일 (+1).
type RelativeDay struct {
	Word   string
	Offset int
}

// RelativeDays is ordered so compound words are tried before their parts.
var RelativeDays = []RelativeDay{
	{"내일모레", 2},
	{"그저께", -2},
	{"그제", -2},
	{"어제", -1},
	{"오늘", 0},
	{"내일", 1},
	{"명일", 1},
	{"익일", 1},
	{"모레", 2},
	{"글피", 3},
}

// Month qualifiers and their offset from the current month.
var monthOffsets = map[string]int{
	"다음달": 1,
	"내달":  1,
	"담달":  1,
	"이번달": 0,
	"이달":  0,
	"저번달": -1,
	"지난달": -1,
}

const (
	weekPattern    = `(다다음\s*주|다음\s*주|차주|이번\s*주|금주|저번\s*주|지난\s*주)`
	weekdayPattern = `([월화수목금토일])요일`
	monthPattern   = `(다음\s*달|내달|담달|이번\s*달|이달|저번\s*달|지난\s*달)`
)

var (
	weekWeekdayRE = regexp.MustCompile(weekPattern + `\s*` + weekdayPattern)
	weekOnlyRE    = regexp.MustCompile(weekPattern)
	weekdayRE     = regexp.MustCompile(weekdayPattern)
	relMonthRE    = regexp.MustCompile(monthPattern)
)

// WeekOffset normalises a week qualifier ("다음 주") to its offset.
func WeekOffset(word string) (int, bool) {
	off, ok := weekOffsets[compact(word)]
	return off, ok
}

// WeekdayFromName maps "화" or "화요일" to 1.
func WeekdayFromName(name string) (int, bool) {
	name = strings.TrimSuffix(compact(name), "요일")
	idx, ok := weekdayIndex[name]
	return idx, ok
}

// MonthOffset normalises a month qualifier ("지난 달") to its offset.
func MonthOffset(word string) (int, bool) {
	off, ok := monthOffsets[compact(word)]
	return off, ok
}

// RelativeDayOffset finds the first relative day word in text. Whitespace is
// ignored so "내일 모레" reads as 내일모레.
func RelativeDayOffset(text string) (RelativeDay, bool) {
	text = compact(text)
	for _, rd := range RelativeDays {
		if strings.Contains(text, rd.Word) {
			return rd, true
		}
	}
	return RelativeDay{}, false
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
