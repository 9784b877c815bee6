package schedule

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSuggestions caps the department recommendation list.
const MaxSuggestions = 5

var (
	suggestStopwords = regexp.MustCompile(`당직|연락처|번호|누구|의사|담당의|오늘|내일|지금|현재|알려줘|알려주세요`)
	suggestPunct     = regexp.MustCompile(`[?!.,~]`)
	parenthetical    = regexp.MustCompile(`\([^)]*\)`)
	deptSuffix       = regexp.MustCompile(`\s+(당직의|수술의|병동|응급내시경|ER|NICU|중환자실|on call)`)
)

// departmentCore strips qualifiers: "외과 수술의" becomes "외과".
func departmentCore(dept string) string {
	core := parenthetical.ReplaceAllString(dept, "")
	core = deptSuffix.ReplaceAllString(core, "")
	return strings.TrimSpace(core)
}

// SuggestDepartments recommends departments for text that named an unknown
// one. Keywords of two or more characters are compared against each
// department and its core name. With no candidate the whole vocabulary is
// returned.
func SuggestDepartments(text string, vocabulary []string) []string {
	cleaned := suggestStopwords.ReplaceAllString(text, " ")
	cleaned = suggestPunct.ReplaceAllString(cleaned, " ")

	var keywords []string
	for _, f := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(f) >= 2 {
			keywords = append(keywords, f)
		}
	}

	var out []string
	for _, dept := range vocabulary {
		core := departmentCore(dept)
		for _, kw := range keywords {
			if strings.Contains(core, kw) || strings.Contains(dept, kw) {
				out = append(out, dept)
				break
			}
		}
		if len(out) == MaxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), vocabulary...)
	}
	return out
}
