package schedule

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "departments": ["순환기내과", "외과 당직의"],
  "doctors": [
    {"name": "김민준", "phone_number": "010-1234-5678", "department": "순환기내과"},
    {"name": "박서준", "phone_number": "010-2222-3333", "department": "외과 당직의"}
  ],
  "schedules": [
    {"date": "2025-01-11", "doctor": "김민준", "start_time": "18:00", "end_time": "08:00", "is_on_call": true},
    {"date": "2025-01-11", "department": "외과 당직의", "doctor": "박서준", "start_time": "08:00", "end_time": "08:00", "description": "24시간"}
  ]
}`

func TestLoadSeed(t *testing.T) {
	store, err := LoadSeed(strings.NewReader(seedJSON), kst)
	require.NoError(t, err)
	ctx := context.Background()

	depts, err := store.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"순환기내과", "외과 당직의"}, depts)

	got, err := store.FindAssignments(ctx, day(2025, 1, 11), "순환기내과")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "김민준", got[0].DoctorName)
	assert.Equal(t, "010-1234-5678", got[0].DoctorPhone, "phone filled from doctor list")
	assert.True(t, got[0].OnCall)

	got, err = store.FindAssignments(ctx, day(2025, 1, 11), "외과 당직의")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Window.FullDay())

	doc, err := store.FindDoctor(ctx, "박서준")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "010-2222-3333", doc.Phone)

	doc, err = store.FindDoctor(ctx, "없는사람")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestLoadSeedRejectsBadRows(t *testing.T) {
	_, err := LoadSeed(strings.NewReader(`{"schedules":[{"date":"2025-13-40","doctor":"x","start_time":"08:00","end_time":"09:00"}]}`), kst)
	assert.Error(t, err)

	_, err = LoadSeed(strings.NewReader(`{"schedules":[{"date":"2025-01-01","doctor":"x","start_time":"8","end_time":"09:00"}]}`), kst)
	assert.Error(t, err)

	_, err = LoadSeed(strings.NewReader(`not json`), kst)
	assert.Error(t, err)
}

func TestMemoryStoreDefaultsDepartments(t *testing.T) {
	store := NewMemoryStore(nil)
	depts, err := store.ListDepartments(context.Background())
	require.NoError(t, err)
	assert.Len(t, depts, 24)
}
