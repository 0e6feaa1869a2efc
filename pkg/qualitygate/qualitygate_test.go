package qualitygate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/qualitygate"
)

func TestClassify_PriorityOrder(t *testing.T) {
	assert.Equal(t, domain.CategoryTesting, qualitygate.Classify("Write unit tests for the parser", ""))
	assert.Equal(t, domain.CategoryRefactoring, qualitygate.Classify("Refactor the billing module", ""))
	assert.Equal(t, domain.CategoryMixed, qualitygate.Classify("Implement the design for the new API", "update the architecture doc"))
	assert.Equal(t, domain.CategoryDesign, qualitygate.Classify("Draft an architecture proposal", ""))
	assert.Equal(t, domain.CategoryCodeImplementation, qualitygate.Classify("Fix the login bug", ""))
}

// S5 — a design task bypasses the test gate entirely.
func TestRun_DesignTaskBypassesTestGate(t *testing.T) {
	task := &domain.Task{
		TaskNumber: "1.1",
		Title:      "Design the authentication flow",
		Category:   domain.CategoryDesign,
	}
	r := qualitygate.NewRunner()
	result := r.Run(qualitygate.RunInput{Task: task})

	outcome, ok := result.Outcomes[qualitygate.GateTests]
	require.True(t, ok)
	assert.False(t, outcome.Ran)
	assert.True(t, outcome.Passed)
	assert.NotEmpty(t, outcome.SkipReason)

	gates := qualitygate.ApplicableGates(domain.CategoryDesign)
	assert.Equal(t, []qualitygate.Gate{qualitygate.GateCodeReview}, gates)
}

// S6 — a low aggregate review score produces a changes_requested SYNC blocker.
func TestRun_LowReviewScoreRaisesBlocker(t *testing.T) {
	task := &domain.Task{
		TaskNumber: "2.3",
		Title:      "Implement the payment handler",
		Category:   domain.CategoryCodeImplementation,
	}
	input := qualitygate.RunInput{
		Task:        task,
		TestsPassed: true,
		Coverage:    50,
		FunctionMetrics: []qualitygate.FunctionMetric{
			{File: "pay.go", Name: "Charge", Line: 10, Cyclomatic: 18, Lines: 130},
			{File: "pay.go", Name: "Refund", Line: 80, Cyclomatic: 16, Lines: 120},
		},
		ScannerFindings: []qualitygate.ScannerFinding{
			{RuleID: "gosec-G101", Severity: "MEDIUM", File: "pay.go", Line: 5, Message: "possible hardcoded secret"},
			{RuleID: "gosec-G204", Severity: "MEDIUM", File: "pay.go", Line: 30, Message: "subprocess launched with variable"},
		},
		Sources: map[string]string{
			"pay.go": "func Charge() {}\n",
		},
		LintFindings: []qualitygate.Finding{
			{Category: qualitygate.FindingStyle, Severity: qualitygate.SeverityHigh, Message: "unused import"},
			{Category: qualitygate.FindingStyle, Severity: qualitygate.SeverityHigh, Message: "inconsistent naming"},
		},
	}
	r := qualitygate.NewRunner()
	result := r.Run(input)

	require.NotNil(t, result.Review)
	assert.InDelta(t, 60, result.Review.TotalScore, 5)
	assert.Equal(t, qualitygate.DecisionChangesRequested, result.Review.Decision)
	assert.NotEmpty(t, result.BlockerText)
	assert.Contains(t, result.BlockerText, "2.3")
	assert.False(t, result.Passed())
}

func TestReview_CriticalFindingForcesRejection(t *testing.T) {
	findings := []qualitygate.Finding{{Category: qualitygate.FindingSecurity, Severity: qualitygate.SeverityCritical}}
	out := qualitygate.Review(95, 95, 95, 95, findings)
	assert.Equal(t, qualitygate.DecisionRejected, out.Decision)
}

func TestReview_ExcellentThreshold(t *testing.T) {
	out := qualitygate.Review(100, 100, 100, 100, nil)
	assert.Equal(t, qualitygate.DecisionApproved, out.Decision)
	assert.True(t, out.Excellent)
}

func TestReview_LowScoreRejected(t *testing.T) {
	out := qualitygate.Review(10, 10, 10, 10, nil)
	assert.Equal(t, qualitygate.DecisionRejected, out.Decision)
}

func TestSecurityFindings_SQLConcatDetected(t *testing.T) {
	src := `query := "SELECT * FROM users WHERE id = " + userID`
	score, findings := qualitygate.SecurityFindings("db.go", src, nil)
	assert.Less(t, score, 100.0)
	require.NotEmpty(t, findings)
	assert.Equal(t, qualitygate.SeverityCritical, findings[0].Severity)
}

func TestSecurityFindings_ExcludedInTestContext(t *testing.T) {
	src := `// test: query := "SELECT * FROM users WHERE id = " + userID`
	score, findings := qualitygate.SecurityFindings("db_test.go", src, nil)
	assert.Equal(t, 100.0, score)
	assert.Empty(t, findings)
}

func TestApplicableGates_CodeImplementationRunsAll(t *testing.T) {
	gates := qualitygate.ApplicableGates(domain.CategoryCodeImplementation)
	assert.Contains(t, gates, qualitygate.GateTests)
	assert.Contains(t, gates, qualitygate.GateCoverage)
	assert.Contains(t, gates, qualitygate.GateCodeReview)
	assert.Contains(t, gates, qualitygate.GateSkipDetection)
}
