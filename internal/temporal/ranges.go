package temporal

import "strings"

// TimeRange is one of the canonical day-part buckets.
type TimeRange struct {
	Keyword   string `json:"keyword"`
	Label     string `json:"label"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// TimeRanges are checked in order; the first keyword present wins.
var TimeRanges = []TimeRange{
	{Keyword: "아침", Label: "06:00-09:00", StartHour: 6, EndHour: 9},
	{Keyword: "오전", Label: "09:00-12:00", StartHour: 9, EndHour: 12},
	{Keyword: "점심", Label: "12:00-14:00", StartHour: 12, EndHour: 14},
	{Keyword: "오후", Label: "14:00-18:00", StartHour: 14, EndHour: 18},
	{Keyword: "저녁", Label: "18:00-22:00", StartHour: 18, EndHour: 22},
	{Keyword: "야간", Label: "20:00-08:00", StartHour: 20, EndHour: 8},
	{Keyword: "새벽", Label: "00:00-06:00", StartHour: 0, EndHour: 6},
}

// MatchTimeRange returns the bucket named in text.
func MatchTimeRange(text string) (TimeRange, bool) {
	for _, tr := range TimeRanges {
		if strings.Contains(text, tr.Keyword) {
			return tr, true
		}
	}
	return TimeRange{}, false
}

// TimeRangeByLabel looks a bucket up by its canonical label.
func TimeRangeByLabel(label string) (TimeRange, bool) {
	for _, tr := range TimeRanges {
		if tr.Label == label {
			return tr, true
		}
	}
	return TimeRange{}, false
}
