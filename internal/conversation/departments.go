package conversation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// alias maps an informal department name to a vocabulary entry. The alias only
// counts as a whole word, optionally followed by a particle.
type alias struct {
	pattern *regexp.Regexp
	target  string
	exclude []string
}

const (
	wordStart = `(?:^|[^\p{Hangul}A-Za-z])`
	wordEnd   = `(?:$|[^\p{Hangul}A-Za-z]|은|는|이|가|의|도|에|당직|담당|선생|교수|쪽)`
)

func newAlias(word, target string, exclude ...string) alias {
	return alias{
		pattern: regexp.MustCompile(`(?i)` + wordStart + regexp.QuoteMeta(word) + wordEnd),
		target:  target,
		exclude: exclude,
	}
}

var aliases = []alias{
	newAlias("순내", "순환기내과"),
	newAlias("심장내과", "순환기내과"),
	newAlias("흉부외과", "심장혈관외과"),
	newAlias("응급실", "응급의학과", "소아", "외과"),
	newAlias("ER", "응급의학과", "소아", "외과"),
	newAlias("마취과", "마취통증의학과"),
	newAlias("비뇨기과", "비뇨의학과"),
	newAlias("비뇨과", "비뇨의학과"),
	newAlias("재활과", "재활의학과"),
	newAlias("이비인후과", "이비인후과(on call)"),
	newAlias("ENT", "이비인후과(on call)"),
	newAlias("소화기내과", "소화기내과 응급내시경(on call)"),
	newAlias("내시경", "소화기내과 응급내시경(on call)"),
	newAlias("NICU", "소아과 NICU"),
	newAlias("신생아중환자실", "소아과 NICU"),
	newAlias("MICU", "내과계 중환자실"),
	newAlias("내과 중환자실", "내과계 중환자실"),
	newAlias("내과중환자실", "내과계 중환자실"),
	newAlias("SICU", "외과계 중환자실"),
	newAlias("외과 중환자실", "외과계 중환자실"),
	newAlias("외과중환자실", "외과계 중환자실"),
	newAlias("산과", "산부인과"),
	newAlias("부인과", "산부인과"),
	newAlias("분과통합", "분과통합(순환기내과 제외)"),
}

// keywordRule is the last-resort mapping from a stem to a department. When
// requireAny is set, one of those words must also appear.
type keywordRule struct {
	keyword    string
	requireAny []string
	department string
}

var departmentKeywords = []keywordRule{
	{keyword: "외과", requireAny: []string{"수술"}, department: "외과 수술의"},
	{keyword: "외과", requireAny: []string{"중환자"}, department: "외과계 중환자실"},
	{keyword: "외과", requireAny: []string{"응급", "ER", "er"}, department: "외과(ER call only)"},
	{keyword: "순환기", requireAny: []string{"병동"}, department: "순환기내과 병동"},
	{keyword: "순환기", department: "순환기내과"},
	{keyword: "소화기", department: "소화기내과 응급내시경(on call)"},
	{keyword: "이비인후", department: "이비인후과(on call)"},
	{keyword: "중환자", requireAny: []string{"내과"}, department: "내과계 중환자실"},
	{keyword: "소아", requireAny: []string{"NICU", "nicu", "신생아"}, department: "소아과 NICU"},
	{keyword: "소아", requireAny: []string{"ER", "er", "응급"}, department: "소아과 ER"},
	{keyword: "소아", requireAny: []string{"병동"}, department: "소아과 병동"},
	{keyword: "산부인", department: "산부인과"},
	{keyword: "정형", department: "정형외과"},
	{keyword: "신경외", department: "신경외과"},
	{keyword: "성형", department: "성형외과"},
	{keyword: "흉부", department: "심장혈관외과"},
	{keyword: "심장혈관", department: "심장혈관외과"},
	{keyword: "폐식도", department: "폐식도외과"},
	{keyword: "마취", department: "마취통증의학과"},
	{keyword: "비뇨", department: "비뇨의학과"},
	{keyword: "재활", department: "재활의학과"},
	{keyword: "응급의학", department: "응급의학과"},
	{keyword: "외과", department: "외과 당직의"},
}

// MatchDepartment finds the vocabulary department named in text. Aliases are
// tried first, then vocabulary names longest first, then the same ignoring
// whitespace, then the keyword table.
func MatchDepartment(text string, vocabulary []string) (string, bool) {
	if len(vocabulary) == 0 {
		return "", false
	}
	known := make(map[string]bool, len(vocabulary))
	for _, d := range vocabulary {
		known[d] = true
	}

	for _, a := range aliases {
		if !known[a.target] || containsAny(text, a.exclude...) {
			continue
		}
		if a.pattern.MatchString(text) {
			return a.target, true
		}
	}

	byLength := append([]string(nil), vocabulary...)
	sort.SliceStable(byLength, func(i, j int) bool {
		return utf8.RuneCountInString(byLength[i]) > utf8.RuneCountInString(byLength[j])
	})
	for _, d := range byLength {
		if strings.Contains(text, d) {
			return d, true
		}
	}

	compactText := compact(text)
	for _, d := range byLength {
		if strings.Contains(compactText, compact(d)) {
			return d, true
		}
	}

	for _, rule := range departmentKeywords {
		if !known[rule.department] || !strings.Contains(text, rule.keyword) {
			continue
		}
		if len(rule.requireAny) > 0 && !containsAny(text, rule.requireAny...) {
			continue
		}
		return rule.department, true
	}
	return "", false
}

var (
	particleSuffix = regexp.MustCompile(`(은|는|이|가|의|도|에|를|을)$`)
	notDepartments = map[string]bool{"결과": true, "효과": true, "사과": true, "교과": true}
)

// LooksLikeDepartment reports whether text carries a department-shaped word
// (…과, …실, …병동, …센터) that the vocabulary did not recognise.
func LooksLikeDepartment(text string) bool {
	for _, f := range strings.Fields(stripPunct(text)) {
		word := particleSuffix.ReplaceAllString(f, "")
		if utf8.RuneCountInString(word) < 2 || notDepartments[word] {
			continue
		}
		for _, suffix := range []string{"과", "실", "병동", "센터"} {
			if strings.HasSuffix(word, suffix) {
				return true
			}
		}
	}
	return false
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

var punct = regexp.MustCompile(`[?!.,~]+`)

func stripPunct(s string) string {
	return punct.ReplaceAllString(s, " ")
}
