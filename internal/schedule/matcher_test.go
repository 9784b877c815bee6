package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, kst)
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, kst)
}

func hour(h int) *int { return &h }

func assignment(t *testing.T, date time.Time, dept, start, end, desc, doctor string) Assignment {
	t.Helper()
	return Assignment{Date: date, Department: dept, Window: mustWindow(t, start, end), Description: desc, DoctorName: doctor}
}

func newTestMatcher(t *testing.T, as ...Assignment) *Matcher {
	t.Helper()
	store := NewMemoryStore([]string{"외과", "정형외과", "순환기내과"})
	for _, a := range as {
		store.AddAssignment(a)
	}
	return NewMatcher(store, nil)
}

func TestMatchNotFound(t *testing.T) {
	m := newTestMatcher(t)
	res, err := m.Match(context.Background(), Query{Date: day(2025, 1, 11), Department: "외과", Now: at(2025, 1, 10, 9)})
	require.NoError(t, err)
	assert.Equal(t, ResultNotFound, res.Kind)
}

func TestMatchRosterSortedByStart(t *testing.T) {
	d := day(2025, 1, 11)
	m := newTestMatcher(t,
		assignment(t, d, "외과", "18:00", "08:00", "야간", "박서준"),
		assignment(t, d, "외과", "08:00", "18:00", "주간", "이도윤"),
	)
	res, err := m.Match(context.Background(), Query{Date: d, Department: "외과", Now: at(2025, 1, 10, 9)})
	require.NoError(t, err)
	require.Equal(t, ResultList, res.Kind)
	require.Len(t, res.Assignments, 2)
	assert.Equal(t, "이도윤", res.Assignments[0].DoctorName)
	assert.Equal(t, "박서준", res.Assignments[1].DoctorName)
	assert.Equal(t, "roster", res.Rule)
}

func TestMatchEarlyMorningLooksBackOneDay(t *testing.T) {
	d := day(2025, 1, 11)
	m := newTestMatcher(t, assignment(t, d.AddDate(0, 0, -1), "외과", "20:00", "04:00", "", "최하준"))

	res, err := m.Match(context.Background(), Query{Date: d, Department: "외과", Hour: hour(3), Now: at(2025, 1, 10, 15)})
	require.NoError(t, err)
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "최하준", got.DoctorName)
	assert.Equal(t, "overnight", res.Rule)
}

func TestMatchEarlyMorningPrefersPreviousNight(t *testing.T) {
	d := day(2025, 1, 11)
	m := newTestMatcher(t,
		assignment(t, d.AddDate(0, 0, -1), "외과", "18:00", "08:00", "", "전날밤"),
		assignment(t, d, "외과", "18:00", "08:00", "", "당일밤"),
		assignment(t, d, "외과", "08:00", "18:00", "", "당일낮"),
	)
	res, err := m.Match(context.Background(), Query{Date: d, Department: "외과", Hour: hour(2), Now: at(2025, 1, 10, 15)})
	require.NoError(t, err)
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "전날밤", got.DoctorName)
}

func TestMatchYesterdaySkipsLookback(t *testing.T) {
	d := day(2025, 1, 10)
	m := newTestMatcher(t,
		assignment(t, d.AddDate(0, 0, -1), "외과", "18:00", "08:00", "", "그전날"),
		assignment(t, d, "외과", "20:00", "08:00", "", "어제밤"),
	)
	res, err := m.Match(context.Background(), Query{Date: d, Department: "외과", Hour: hour(3), Yesterday: true, Now: at(2025, 1, 11, 9)})
	require.NoError(t, err)
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "어제밤", got.DoctorName)
}

func TestMatchSpecificHour(t *testing.T) {
	d := day(2025, 1, 11)
	m := newTestMatcher(t,
		assignment(t, d, "외과", "08:00", "18:00", "", "주간의"),
		assignment(t, d, "외과", "18:00", "08:00", "", "야간의"),
	)
	res, err := m.Match(context.Background(), Query{Date: d, Department: "외과", Hour: hour(10), Now: at(2025, 1, 10, 23)})
	require.NoError(t, err)
	got, _ := res.Single()
	assert.Equal(t, "주간의", got.DoctorName)

	res, err = m.Match(context.Background(), Query{Date: d, Department: "외과", Hour: hour(21), Now: at(2025, 1, 10, 9)})
	require.NoError(t, err)
	got, _ = res.Single()
	assert.Equal(t, "야간의", got.DoctorName)
}

func TestMatchOnCall(t *testing.T) {
	d := day(2025, 1, 11)
	as := []Assignment{
		assignment(t, d, "외과", "08:00", "18:00", "", "주간의"),
		assignment(t, d, "외과", "18:00", "08:00", "", "초저녁"),
		assignment(t, d, "외과", "20:00", "08:00", "", "야간의"),
	}

	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"night hour prefers late evening start", Query{Role: RoleOnCall, Now: at(2025, 1, 11, 23)}, "야간의"},
		{"night hint", Query{Role: RoleOnCall, NightHint: true, Now: at(2025, 1, 11, 11)}, "야간의"},
		{"daytime uses current hour", Query{Role: RoleOnCall, Now: at(2025, 1, 11, 11)}, "주간의"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.q.Date = d
			tt.q.Department = "외과"
			res := Select(tt.q, as)
			got, ok := res.Single()
			require.True(t, ok)
			assert.Equal(t, tt.want, got.DoctorName)
		})
	}
}

func TestMatchOnCallFallsBackToOvernight(t *testing.T) {
	d := day(2025, 1, 11)
	res := Select(Query{Date: d, Role: RoleOnCall, Now: at(2025, 1, 11, 22)}, []Assignment{
		assignment(t, d, "외과", "08:00", "12:00", "", "오전"),
		assignment(t, d, "외과", "17:00", "07:00", "", "야간"),
	})
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "야간", got.DoctorName)
	assert.Equal(t, "on_call_overnight", res.Rule)
}

func TestMatchTimeRange(t *testing.T) {
	d := day(2025, 1, 11)
	as := []Assignment{
		assignment(t, d, "외과", "08:00", "14:00", "", "오전의"),
		assignment(t, d, "외과", "14:00", "22:00", "", "오후의"),
	}
	res := Select(Query{Date: d, TimeRange: "14:00-18:00", Now: at(2025, 1, 11, 9)}, as)
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "오후의", got.DoctorName)

	res = Select(Query{Date: d, TimeRange: "09:00-12:00", Now: at(2025, 1, 11, 20)}, as)
	got, ok = res.Single()
	require.True(t, ok)
	assert.Equal(t, "오전의", got.DoctorName)
}

func TestMatchRoleKeyword(t *testing.T) {
	d := day(2025, 1, 11)
	res := Select(Query{Date: d, Role: RoleSurgical, RoleKeyword: "수술", Now: at(2025, 1, 11, 20)}, []Assignment{
		assignment(t, d, "외과", "08:00", "18:00", "병동", "병동의"),
		assignment(t, d, "외과", "08:00", "18:00", "수술", "수술의"),
	})
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "수술의", got.DoctorName)
	assert.Equal(t, "role_keyword", res.Rule)
}

func TestMatchGeneralRoleUsesCurrentHour(t *testing.T) {
	d := day(2025, 1, 11)
	res := Select(Query{Date: d, Role: RoleGeneral, Now: at(2025, 1, 11, 19)}, []Assignment{
		assignment(t, d, "외과", "08:00", "18:00", "", "주간의"),
		assignment(t, d, "외과", "18:00", "08:00", "", "야간의"),
	})
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "야간의", got.DoctorName)
	assert.Equal(t, "current_hour", res.Rule)
}

func TestMatchAmbiguityReturnsList(t *testing.T) {
	d := day(2025, 1, 11)
	res := Select(Query{Date: d, Role: RoleGeneral, Now: at(2025, 1, 11, 7)}, []Assignment{
		assignment(t, d, "외과", "09:00", "12:00", "", "A"),
		assignment(t, d, "외과", "13:00", "17:00", "", "B"),
	})
	assert.Equal(t, ResultList, res.Kind)
	assert.Len(t, res.Assignments, 2)
}

func TestMatchSingleUnmatchedAssignmentIsReturned(t *testing.T) {
	d := day(2025, 1, 11)
	res := Select(Query{Date: d, Role: RoleOnCall, RoleKeyword: "당직", Now: at(2025, 1, 10, 10)}, []Assignment{
		assignment(t, d, "순환기내과", "18:00", "08:00", "", "김민준"),
	})
	got, ok := res.Single()
	require.True(t, ok)
	assert.Equal(t, "김민준", got.DoctorName)
	assert.Equal(t, "18:00 - 익일 08:00", got.Window.String())
}

type failingStore struct{ err error }

func (f failingStore) FindAssignments(context.Context, time.Time, string) ([]Assignment, error) {
	return nil, f.err
}

func (f failingStore) FindDoctor(context.Context, string) (*Doctor, error) { return nil, f.err }

func TestMatchPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	m := NewMatcher(failingStore{err: boom}, nil)
	_, err := m.Match(context.Background(), Query{Date: day(2025, 1, 11), Department: "외과"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
