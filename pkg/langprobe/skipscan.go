package langprobe

import (
	"fmt"
	"regexp"
	"strings"
)

// skipPattern is a compiled regex identifying a skip/ignore marker in a
// source file, per the per-language patterns in spec.md §4.9.
var skipPatterns = map[Language]*regexp.Regexp{
	LanguagePython: regexp.MustCompile(`@pytest\.mark\.skip(?:if)?\(|@unittest\.skip(?:If|Unless)?\(`),
	LanguageJS:     regexp.MustCompile(`\bit\.skip\(|\bxit\(|\bdescribe\.skip\(|\btest\.skip\(`),
	LanguageTS:     regexp.MustCompile(`\bit\.skip\(|\bxit\(|\bdescribe\.skip\(|\btest\.skip\(`),
	LanguageGo:     regexp.MustCompile(`\bt\.Skip\(`),
	LanguageRust:   regexp.MustCompile(`#\[ignore\]`),
	LanguageJava:   regexp.MustCompile(`@Ignore\b|@Disabled\b`),
	LanguageRuby:   regexp.MustCompile(`\bskip\b|\bpending\b|\bxit\b`),
	LanguageCSharp: regexp.MustCompile(`\[Ignore\]|\[Skip\]`),
}

// ScanForSkips scans source (the contents of a single file) for
// language-specific skip/ignore markers and returns one violation string
// per matching line, formatted "<file>:<line>: <matched text>".
func ScanForSkips(lang Language, file, source string) []string {
	pattern, ok := skipPatterns[lang]
	if !ok {
		return nil
	}
	var violations []string
	for i, line := range strings.Split(source, "\n") {
		if matched := pattern.FindString(line); matched != "" {
			violations = append(violations, fmt.Sprintf("%s:%d: %s", file, i+1, matched))
		}
	}
	return violations
}
