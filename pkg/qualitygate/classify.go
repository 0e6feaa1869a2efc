// Package qualitygate implements the QualityGateRunner: task classification,
// per-category gate selection, and the code-review/security/complexity
// scoring pipeline. Grounded on pkg/agent/controller/scoring.go's
// weighted-subscore-then-decision shape, and on pkg/masking/pattern.go's
// compiled-regex registry for the security pattern overlay.
package qualitygate

import (
	"regexp"
	"strings"

	"github.com/taskforge/conductor/pkg/domain"
)

// wordBoundary wraps a keyword so it only matches whole words.
func wordBoundary(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
}

func anyMatch(text string, keywords []string) bool {
	for _, kw := range keywords {
		if wordBoundary(kw).MatchString(text) {
			return true
		}
	}
	return false
}

var (
	testingKeywords = []string{
		"test", "tests", "testing", "unit test", "integration test", "test suite", "test coverage",
	}
	refactoringKeywords = []string{
		"refactor", "refactoring", "restructure", "cleanup", "rewrite",
	}
	designKeywords = []string{
		"design", "architecture", "spec", "specification", "rfc", "proposal", "diagram",
	}
	documentationKeywords = []string{
		"document", "documentation", "docs", "readme", "changelog",
	}
	configurationKeywords = []string{
		"config", "configuration", "yaml", "env var", "environment variable", "settings",
	}
	codeKeywords = []string{
		"implement", "implementation", "code", "function", "method", "class", "api", "endpoint",
		"feature", "bug", "fix", "build",
	}
)

// Classify determines a Task's TaskCategory from its title+description,
// using case-insensitive, word-boundary matched keyword detection, with
// priority: testing > refactoring > (strong non-code AND strong code) =
// mixed > strong non-code (design/documentation/configuration in that
// order) > any code keyword > code_implementation (conservative default).
//
// "spec" maps to design only when no testing keyword is present, since
// "test spec" and similar phrases should classify as testing.
func Classify(title, description string) domain.TaskCategory {
	text := strings.ToLower(title + " " + description)

	hasTesting := anyMatch(text, testingKeywords)
	if hasTesting {
		return domain.CategoryTesting
	}

	if anyMatch(text, refactoringKeywords) {
		return domain.CategoryRefactoring
	}

	hasDesign := anyMatch(text, designKeywords)
	hasDocumentation := anyMatch(text, documentationKeywords)
	hasConfiguration := anyMatch(text, configurationKeywords)
	hasNonCode := hasDesign || hasDocumentation || hasConfiguration
	hasCode := anyMatch(text, codeKeywords)

	if hasNonCode && hasCode {
		return domain.CategoryMixed
	}
	if hasDesign {
		return domain.CategoryDesign
	}
	if hasDocumentation {
		return domain.CategoryDocumentation
	}
	if hasConfiguration {
		return domain.CategoryConfiguration
	}
	if hasCode {
		return domain.CategoryCodeImplementation
	}
	return domain.CategoryCodeImplementation
}
