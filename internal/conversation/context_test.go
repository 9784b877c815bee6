package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wolfman30/oncall-chatbot/internal/schedule"
)

func TestContextRememberKeepsDepartment(t *testing.T) {
	c := newContext("s1")
	c.remember("외과 당직의", schedule.RoleOnCall, kstDate(2025, 1, 16))
	c.remember("", schedule.RoleNone, kstDate(2025, 1, 17))

	assert.Equal(t, "외과 당직의", c.LastDepartment)
	assert.Equal(t, schedule.RoleNone, c.LastRole)
	assert.Equal(t, kstDate(2025, 1, 17), c.LastDate)
}

func TestContextRememberDoctors(t *testing.T) {
	c := newContext("s1")
	c.rememberDoctors(true, "김민준")
	assert.Equal(t, "김민준", c.contactTarget())

	c.rememberDoctors(false, "이서연", "김민준", "박지훈")
	assert.Empty(t, c.LastDoctor)
	assert.Equal(t, []string{"이서연", "김민준", "박지훈"}, c.LastDoctors)
	assert.Equal(t, "이서연", c.contactTarget())

	c.rememberDoctors(false)
	assert.Equal(t, "이서연", c.contactTarget(), "empty call leaves state alone")
}

func TestContextRecordBoundsHistory(t *testing.T) {
	c := newContext("s1")
	for i := 0; i < 15; i++ {
		c.record("q", "a", Entities{CurrentHour: i}, wednesday, 10)
	}
	assert.Len(t, c.History, 10)
	assert.Equal(t, 5, c.History[0].Entities.CurrentHour)
	assert.Equal(t, 14, c.History[9].Entities.CurrentHour)
}

func TestContextCloneIsDeep(t *testing.T) {
	c := newContext("s1")
	c.rememberDoctors(false, "김민준", "이서연")
	c.record("q", "a", Entities{}, wednesday, 10)

	clone := c.Clone()
	clone.LastDoctors[0] = "변경"
	clone.History[0].Query = "변경"

	assert.Equal(t, "김민준", c.LastDoctors[0])
	assert.Equal(t, "q", c.History[0].Query)
	assert.Nil(t, (*Context)(nil).Clone())
}
