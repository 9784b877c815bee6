package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wolfman30/oncall-chatbot/internal/schedule"
)

func TestMatchDepartment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"내일 순환기내과 당직 누구야", "순환기내과"},
		{"순내 당직", "순환기내과"},
		{"심장내과 오늘 누구야", "순환기내과"},
		{"순환기내과 병동 당직", "순환기내과 병동"},
		{"응급실 당직 누구", "응급의학과"},
		{"소아 응급실 당직", "소아과 ER"},
		{"외과 중환자실 당직", "외과계 중환자실"},
		{"내과 중환자실 당직", "내과계 중환자실"},
		{"ENT 오늘", "이비인후과(on call)"},
		{"외과 당직", "외과 당직의"},
		{"외과 수술 누구", "외과 수술의"},
		{"신경외과 내일", "신경외과"},
		{"정형 당직", "정형외과"},
		{"마취과 당직", "마취통증의학과"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := MatchDepartment(tt.text, schedule.DefaultDepartments)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchDepartmentPrefersFullName(t *testing.T) {
	for _, dept := range schedule.DefaultDepartments {
		got, ok := MatchDepartment(dept+" 당직 누구야", schedule.DefaultDepartments)
		assert.True(t, ok, dept)
		assert.Equal(t, dept, got)
	}
}

func TestMatchDepartmentUnknown(t *testing.T) {
	_, ok := MatchDepartment("치과 당직", schedule.DefaultDepartments)
	assert.False(t, ok)

	_, ok = MatchDepartment("순환기내과", nil)
	assert.False(t, ok)
}

func TestMatchDepartmentRespectsVocabulary(t *testing.T) {
	_, ok := MatchDepartment("순내 당직", []string{"외과"})
	assert.False(t, ok, "aliases only resolve to known departments")
}

func TestLooksLikeDepartment(t *testing.T) {
	assert.True(t, LooksLikeDepartment("치과 당직 누구야?"))
	assert.True(t, LooksLikeDepartment("재활센터는"))
	assert.False(t, LooksLikeDepartment("결과는?"))
	assert.False(t, LooksLikeDepartment("안녕"))
}
