package qualitygate

import (
	"github.com/taskforge/conductor/pkg/domain"
)

const coverageThreshold = 80.0

// RunInput bundles the raw evidence a QualityGateRunner needs to evaluate
// every gate applicable to a task. Fields that don't apply to the task's
// category are simply left at their zero value and ignored.
type RunInput struct {
	Task *domain.Task

	TestsPassed  bool
	TestFailures []string

	Coverage float64

	TypeCheckErrors []string

	LintFindings []Finding

	FunctionMetrics []FunctionMetric
	ScannerFindings []ScannerFinding
	Sources         map[string]string // file path -> source text, for the review gate

	SkippedTests []string // test names detected as skipped/disabled
}

// Runner is the QualityGateRunner: it classifies a task, selects the
// gates applicable to its category, runs each, and aggregates the result
// into a pass/fail Result plus any SYNC blocker text that must be raised.
type Runner struct{}

// NewRunner constructs a Runner. It holds no state; its methods are pure
// functions of RunInput.
func NewRunner() *Runner {
	return &Runner{}
}

// Run classifies input.Task if it has no category yet, selects the
// category's applicable gates, executes each, and returns the aggregate
// Result.
func (r *Runner) Run(input RunInput) *Result {
	category := input.Task.Category
	if category == "" {
		category = Classify(input.Task.Title, input.Task.Description)
	}

	result := &Result{
		Category: string(category),
		Outcomes: make(map[Gate]GateOutcome),
	}

	applicable := ApplicableGates(category)
	for gate, reason := range SkippedGates(category) {
		result.Outcomes[gate] = GateOutcome{Gate: gate, Ran: false, Passed: true, SkipReason: reason}
	}

	var review *ReviewOutcome
	for _, gate := range applicable {
		switch gate {
		case GateTests:
			result.Outcomes[gate] = r.runTests(input)
		case GateCoverage:
			result.Outcomes[gate] = r.runCoverage(input)
		case GateTypeCheck:
			result.Outcomes[gate] = r.runTypeCheck(input)
		case GateLinting:
			result.Outcomes[gate] = r.runLinting(input)
		case GateSkipDetection:
			result.Outcomes[gate] = r.runSkipDetection(input)
		case GateCodeReview:
			outcome, rev := r.runCodeReview(input)
			result.Outcomes[gate] = outcome
			review = rev
		}
	}

	for _, outcome := range result.Outcomes {
		result.Findings = append(result.Findings, outcome.Findings...)
	}
	result.Review = review

	if review != nil && (review.Decision == DecisionChangesRequested || review.Decision == DecisionRejected) {
		result.BlockerText = FormatBlockerQuestion(input.Task.TaskNumber, review)
	}

	return result
}

func (r *Runner) runTests(input RunInput) GateOutcome {
	if input.TestsPassed {
		return GateOutcome{Gate: GateTests, Ran: true, Passed: true}
	}
	var findings []Finding
	for _, f := range input.TestFailures {
		findings = append(findings, Finding{
			Category: FindingMaintainability,
			Severity: SeverityHigh,
			Message:  f,
			Tool:     "test-runner",
		})
	}
	return GateOutcome{Gate: GateTests, Ran: true, Passed: false, Findings: findings}
}

func (r *Runner) runCoverage(input RunInput) GateOutcome {
	if input.Coverage >= coverageThreshold {
		return GateOutcome{Gate: GateCoverage, Ran: true, Passed: true}
	}
	return GateOutcome{
		Gate: GateCoverage, Ran: true, Passed: false,
		Findings: []Finding{{
			Category: FindingMaintainability,
			Severity: SeverityMedium,
			Message:  "coverage below threshold",
			Tool:     "coverage-reporter",
		}},
	}
}

func (r *Runner) runTypeCheck(input RunInput) GateOutcome {
	if len(input.TypeCheckErrors) == 0 {
		return GateOutcome{Gate: GateTypeCheck, Ran: true, Passed: true}
	}
	var findings []Finding
	for _, e := range input.TypeCheckErrors {
		findings = append(findings, Finding{Category: FindingStyle, Severity: SeverityHigh, Message: e, Tool: "type-checker"})
	}
	return GateOutcome{Gate: GateTypeCheck, Ran: true, Passed: false, Findings: findings}
}

func (r *Runner) runLinting(input RunInput) GateOutcome {
	passed := true
	for _, f := range input.LintFindings {
		if f.Severity == SeverityCritical || f.Severity == SeverityHigh {
			passed = false
			break
		}
	}
	return GateOutcome{Gate: GateLinting, Ran: true, Passed: passed, Findings: input.LintFindings}
}

func (r *Runner) runSkipDetection(input RunInput) GateOutcome {
	if len(input.SkippedTests) == 0 {
		return GateOutcome{Gate: GateSkipDetection, Ran: true, Passed: true}
	}
	var findings []Finding
	for _, name := range input.SkippedTests {
		findings = append(findings, Finding{
			Category: FindingMaintainability,
			Severity: SeverityMedium,
			Message:  "test skipped: " + name,
			Tool:     "skip-detector",
		})
	}
	return GateOutcome{Gate: GateSkipDetection, Ran: true, Passed: false, Findings: findings}
}

// styleScore derives the style sub-score from lint findings: 100 docked by
// severity-weighted penalties, floored at 0.
func styleScore(findings []Finding) float64 {
	score := 100.0
	for _, f := range findings {
		score -= securityPenalty(f.Severity) / 2
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (r *Runner) runCodeReview(input RunInput) (GateOutcome, *ReviewOutcome) {
	complexity, complexityFindings := ComplexityFindings(input.FunctionMetrics)

	security := 100.0
	var securityFindings []Finding
	for file, source := range input.Sources {
		var scannerForFile []ScannerFinding
		for _, sf := range input.ScannerFindings {
			if sf.File == file {
				scannerForFile = append(scannerForFile, sf)
			}
		}
		s, f := SecurityFindings(file, source, scannerForFile)
		if s < security {
			security = s
		}
		securityFindings = append(securityFindings, f...)
	}
	if len(input.Sources) == 0 {
		security, securityFindings = SecurityFindings("", "", input.ScannerFindings)
	}

	style := styleScore(input.LintFindings)
	coverage := input.Coverage

	allFindings := append(append([]Finding{}, complexityFindings...), securityFindings...)
	allFindings = append(allFindings, input.LintFindings...)

	review := Review(complexity, security, style, coverage, allFindings)

	outcome := GateOutcome{
		Gate:     GateCodeReview,
		Ran:      true,
		Passed:   review.Decision == DecisionApproved,
		Findings: review.Findings,
	}
	return outcome, review
}
