// Package tactical implements the TacticalPatternMatcher: an ordered list
// of recoverable-error recipes mapping agent error text to an intervention
// strategy. Grounded on the compiled-regex-registry shape of
// pkg/masking/pattern.go (invalid patterns are logged and skipped, not
// fatal) and on the first-match-wins dispatch style of pkg/mcp/recovery.go.
package tactical

import (
	"log/slog"
	"regexp"
)

// Strategy is the prescribed intervention for a matched error.
type Strategy string

const (
	StrategyConvertCreateToEdit Strategy = "CONVERT_CREATE_TO_EDIT"
	StrategySkipFileCreation    Strategy = "SKIP_FILE_CREATION"
	StrategyCreateBackup        Strategy = "CREATE_BACKUP"
	StrategyRetryWithContext    Strategy = "RETRY_WITH_CONTEXT"
)

// Pattern is a recoverable-error recipe: errorRegex is matched
// case-insensitively against raw agent error text.
type Pattern struct {
	ID          string
	ErrorRegex  string
	Category    string
	Strategy    Strategy
	Description string

	compiled *regexp.Regexp
}

// Diagnostics is the extra detail returned by MatchWithDiagnostics.
type Diagnostics struct {
	PatternsChecked   int
	MatchedPattern    string
	ErrorMessageEmpty bool
}

// Matcher holds an ordered set of patterns; the first match wins.
type Matcher struct {
	patterns []*Pattern
}

// NewMatcher creates a Matcher seeded with the default pattern set.
func NewMatcher() *Matcher {
	m := &Matcher{}
	for _, p := range defaultPatterns() {
		_ = m.Add(p)
	}
	return m
}

// defaultPatterns is the minimum pattern set spec.md §4.3 requires.
func defaultPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "file_already_exists",
			ErrorRegex:  `(file already exists|fileexistserror|errno 17)`,
			Category:    "file_conflict",
			Strategy:    StrategyConvertCreateToEdit,
			Description: "the agent tried to create a file that already exists; convert the create into an edit",
		},
		{
			ID:          "file_not_found",
			ErrorRegex:  `(no such file|filenotfounderror|errno 2|cannot modify non-existent)`,
			Category:    "missing_file",
			Strategy:    StrategyRetryWithContext,
			Description: "the agent tried to modify a file that does not exist; retry with additional context",
		},
	}
}

// Add appends a pattern to the ordered list. A pattern whose ErrorRegex
// fails to compile is logged and skipped — it never participates in
// matching — and Add returns the compile error to the caller.
func (m *Matcher) Add(p *Pattern) error {
	compiled, err := regexp.Compile("(?i)" + p.ErrorRegex)
	if err != nil {
		slog.Warn("tactical pattern matcher: skipping pattern with invalid regex",
			"pattern_id", p.ID, "error", err)
		return err
	}
	cp := *p
	cp.compiled = compiled
	m.patterns = append(m.patterns, &cp)
	return nil
}

// Remove deletes a pattern by id, if present.
func (m *Matcher) Remove(id string) {
	out := m.patterns[:0]
	for _, p := range m.patterns {
		if p.ID != id {
			out = append(out, p)
		}
	}
	m.patterns = out
}

// Match returns the first pattern whose ErrorRegex matches errorText
// case-insensitively, or nil if none match or errorText is empty.
func (m *Matcher) Match(errorText string) *Pattern {
	if errorText == "" {
		return nil
	}
	for _, p := range m.patterns {
		if p.compiled != nil && p.compiled.MatchString(errorText) {
			return p
		}
	}
	return nil
}

// MatchWithDiagnostics behaves like Match but also reports how many
// patterns were checked and whether the input was empty.
func (m *Matcher) MatchWithDiagnostics(errorText string) (*Pattern, Diagnostics) {
	diag := Diagnostics{ErrorMessageEmpty: errorText == ""}
	if diag.ErrorMessageEmpty {
		return nil, diag
	}
	for _, p := range m.patterns {
		diag.PatternsChecked++
		if p.compiled != nil && p.compiled.MatchString(errorText) {
			diag.MatchedPattern = p.ID
			return p, diag
		}
	}
	return nil, diag
}
