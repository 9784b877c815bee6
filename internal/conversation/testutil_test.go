package conversation

import (
	"testing"
	"time"

	"github.com/wolfman30/oncall-chatbot/internal/schedule"
)

var seoul = time.FixedZone("KST", 9*60*60)

func kstDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, seoul)
}

func kstAt(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, seoul)
}

// wednesday is 2025-01-15 14:20 KST.
var wednesday = kstAt(2025, 1, 15, 14, 20)

func duty(t *testing.T, date time.Time, dept, start, end, desc, doctor, phone string) schedule.Assignment {
	t.Helper()
	w, err := schedule.ParseWindow(start, end)
	if err != nil {
		t.Fatalf("parse window %s-%s: %v", start, end, err)
	}
	return schedule.Assignment{
		Date:        date,
		Department:  dept,
		Window:      w,
		Description: desc,
		DoctorName:  doctor,
		DoctorPhone: phone,
		OnCall:      true,
	}
}
