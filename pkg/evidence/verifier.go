// Package evidence implements the EvidenceVerifier: it gates task
// completion on empirical test/coverage/skip-scan evidence rather than an
// agent's self-report. Grounded on pkg/services/errors.go's sentinel-error
// plus typed-ValidationError classification, generalized here to
// accumulate every violation into the Evidence envelope's error list
// instead of returning on the first one.
package evidence

import (
	"fmt"

	"github.com/taskforge/conductor/pkg/domain"
)

const (
	minTestOutputLen = 10
)

// Thresholds are the default gating requirements; a zero-value Thresholds
// is invalid, use DefaultThresholds.
type Thresholds struct {
	RequireCoverage  bool
	MinCoveragePct   float64
	DisallowSkipped  bool
	MinPassRatePct   float64
}

// DefaultThresholds matches spec.md §4.8's stated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RequireCoverage: true,
		MinCoveragePct:  85,
		DisallowSkipped: true,
		MinPassRatePct:  100,
	}
}

// Verifier is the EvidenceVerifier.
type Verifier struct {
	thresholds Thresholds
}

// New constructs a Verifier. A zero Thresholds value is replaced with
// DefaultThresholds.
func New(thresholds Thresholds) *Verifier {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Verifier{thresholds: thresholds}
}

// Verify builds the Evidence envelope for a single task run, accumulating
// every threshold violation into ev.Errors rather than stopping at the
// first one, and sets ev.Verified accordingly.
func (v *Verifier) Verify(outcome domain.TestOutcome, skipViolations []string, agentID, taskDescription, language, framework string) *domain.Evidence {
	ev := &domain.Evidence{
		TestOutcome:     outcome,
		SkipViolations:  skipViolations,
		AgentID:         agentID,
		TaskDescription: taskDescription,
		Language:        language,
		Framework:       framework,
		QualityMetrics:  make(map[string]float64),
	}

	if outcome.Failed > 0 {
		ev.Errors = append(ev.Errors, fmt.Sprintf("Tests failed: %d failures", outcome.Failed))
	}
	if outcome.PassRate < v.thresholds.MinPassRatePct {
		ev.Errors = append(ev.Errors, fmt.Sprintf("Pass rate too low: %.0f%% (min %.0f%%)", outcome.PassRate, v.thresholds.MinPassRatePct))
	}

	if v.thresholds.RequireCoverage {
		if outcome.Coverage == nil {
			ev.Errors = append(ev.Errors, "Coverage data missing (required)")
		} else if *outcome.Coverage < v.thresholds.MinCoveragePct {
			ev.Errors = append(ev.Errors, fmt.Sprintf("Coverage too low: %.0f%% (min %.0f%%)", *outcome.Coverage, v.thresholds.MinCoveragePct))
		}
	}

	if v.thresholds.DisallowSkipped && len(skipViolations) > 0 {
		ev.Errors = append(ev.Errors, fmt.Sprintf("Skip violations detected: %d", len(skipViolations)))
	}

	if len(outcome.RawOutput) < minTestOutputLen {
		ev.Errors = append(ev.Errors, "Test output missing or too short")
	}

	if outcome.Skipped > 0 {
		ev.Errors = append(ev.Errors, fmt.Sprintf("Skipped tests detected: %d", outcome.Skipped))
	}

	if outcome.Coverage != nil {
		ev.QualityMetrics["coverage"] = *outcome.Coverage
	}
	ev.QualityMetrics["pass_rate"] = outcome.PassRate

	ev.Verified = len(ev.Errors) == 0
	return ev
}

// Claim is an agent's self-reported completion summary, compared against
// the gathered Evidence by ValidateClaim.
type Claim struct {
	ClaimsTestsPassed bool
	ClaimedCoverage   *float64
	ClaimsNoSkips     bool
}

// ValidateClaim compares an agent's self-report against evidence and
// returns the list of discrepancies found (empty when the claim matches).
func ValidateClaim(claim Claim, ev *domain.Evidence) []string {
	var discrepancies []string

	if claim.ClaimsTestsPassed && ev.TestOutcome.Failed > 0 {
		discrepancies = append(discrepancies, fmt.Sprintf(
			"agent claimed tests passed but evidence shows %d failures", ev.TestOutcome.Failed))
	}

	if claim.ClaimedCoverage != nil {
		switch {
		case ev.TestOutcome.Coverage == nil:
			discrepancies = append(discrepancies, fmt.Sprintf(
				"agent claimed %.0f%% coverage but no coverage data was gathered", *claim.ClaimedCoverage))
		case *claim.ClaimedCoverage > *ev.TestOutcome.Coverage+0.5:
			discrepancies = append(discrepancies, fmt.Sprintf(
				"agent claimed %.0f%% coverage but evidence shows %.0f%%", *claim.ClaimedCoverage, *ev.TestOutcome.Coverage))
		}
	}

	if claim.ClaimsNoSkips && len(ev.SkipViolations) > 0 {
		discrepancies = append(discrepancies, fmt.Sprintf(
			"agent claimed no skipped tests but evidence shows %d skip violations", len(ev.SkipViolations)))
	}

	return discrepancies
}
