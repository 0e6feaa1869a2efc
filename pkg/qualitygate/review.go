package qualitygate

import (
	"fmt"
	"math"
)

// ReviewDecision is the outcome of the code-review gate.
type ReviewDecision string

const (
	DecisionApproved         ReviewDecision = "approved"
	DecisionChangesRequested ReviewDecision = "changes_requested"
	DecisionRejected         ReviewDecision = "rejected"
)

// ReviewOutcome is the scored result of a code-review gate run.
type ReviewOutcome struct {
	ComplexityScore float64
	SecurityScore   float64
	StyleScore      float64
	CoverageScore   float64
	TotalScore      float64
	Decision        ReviewDecision
	Excellent       bool // true when approved with score >= 90
	Findings        []Finding
}

// reviewWeights are the spec.md §4.4 weighted-combination coefficients.
const (
	weightComplexity = 0.3
	weightSecurity   = 0.4
	weightStyle      = 0.2
	weightCoverage   = 0.1
)

// Review combines the four sub-scores into a total score and decision.
// Any critical finding forces rejection regardless of score.
func Review(complexity, security, style, coverage float64, findings []Finding) *ReviewOutcome {
	total := weightComplexity*complexity + weightSecurity*security + weightStyle*style + weightCoverage*coverage
	total = math.Round(total*10) / 10

	hasCritical := false
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			hasCritical = true
			break
		}
	}

	out := &ReviewOutcome{
		ComplexityScore: complexity,
		SecurityScore:   security,
		StyleScore:      style,
		CoverageScore:   coverage,
		TotalScore:      total,
		Findings:        findings,
	}

	switch {
	case hasCritical:
		out.Decision = DecisionRejected
	case total >= 90:
		out.Decision = DecisionApproved
		out.Excellent = true
	case total >= 70:
		out.Decision = DecisionApproved
	case total >= 50:
		out.Decision = DecisionChangesRequested
	default:
		out.Decision = DecisionRejected
	}
	return out
}

// FormatBlockerQuestion renders the review's findings as the SYNC blocker
// question text raised on changes_requested/rejected.
func FormatBlockerQuestion(taskNumber string, outcome *ReviewOutcome) string {
	msg := fmt.Sprintf("Code review for task %s resulted in %s (score %.1f). Findings:\n",
		taskNumber, outcome.Decision, outcome.TotalScore)
	for _, f := range outcome.Findings {
		line := fmt.Sprintf("- [%s/%s] %s: %s", f.Severity, f.Category, f.File, f.Message)
		if f.Suggestion != "" {
			line += " (suggestion: " + f.Suggestion + ")"
		}
		msg += line + "\n"
	}
	return msg
}
