package schedule

// DefaultDepartments is the hospital's duty department vocabulary in display
// order. Stores without their own department table serve this list.
var DefaultDepartments = []string{
	"순환기내과",
	"순환기내과 병동",
	"분과통합(순환기내과 제외)",
	"내과계 중환자실",
	"소화기내과 응급내시경(on call)",
	"외과(ER call only)",
	"외과 당직의",
	"외과 수술의",
	"외과계 중환자실",
	"산부인과",
	"소아과 ER",
	"소아과 병동",
	"소아과 NICU",
	"신경과",
	"신경외과",
	"정형외과",
	"재활의학과",
	"성형외과",
	"폐식도외과",
	"심장혈관외과",
	"비뇨의학과",
	"이비인후과(on call)",
	"마취통증의학과",
	"응급의학과",
}
