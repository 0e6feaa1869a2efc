package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/evidence"
)

func coveragePtr(v float64) *float64 { return &v }

func TestVerify_AllPassing(t *testing.T) {
	v := evidence.New(evidence.DefaultThresholds())
	ev := v.Verify(domain.TestOutcome{
		Total: 10, Passed: 10, Failed: 0, PassRate: 100,
		Coverage: coveragePtr(90), RawOutput: "10 passed in 1.2s",
	}, nil, "agent-1", "add auth", "go", "go test")

	assert.True(t, ev.Verified)
	assert.Empty(t, ev.Errors)
}

func TestVerify_AccumulatesEveryViolation(t *testing.T) {
	v := evidence.New(evidence.DefaultThresholds())
	ev := v.Verify(domain.TestOutcome{
		Total: 10, Passed: 7, Failed: 3, PassRate: 70,
		Coverage: coveragePtr(50), RawOutput: "",
	}, []string{"test_x skipped"}, "agent-1", "add auth", "go", "go test")

	assert.False(t, ev.Verified)
	assert.Contains(t, ev.Errors, "Tests failed: 3 failures")
	assert.Contains(t, ev.Errors, "Coverage too low: 50% (min 85%)")
	assert.Contains(t, ev.Errors, "Skip violations detected: 1")
	assert.Contains(t, ev.Errors, "Test output missing or too short")
}

func TestVerify_MissingCoverage(t *testing.T) {
	v := evidence.New(evidence.DefaultThresholds())
	ev := v.Verify(domain.TestOutcome{
		Total: 1, Passed: 1, PassRate: 100, RawOutput: "1 passed in 0.1s",
	}, nil, "agent-1", "x", "go", "go test")

	assert.False(t, ev.Verified)
	assert.Contains(t, ev.Errors, "Coverage data missing (required)")
}

func TestValidateClaim_DetectsDiscrepancies(t *testing.T) {
	v := evidence.New(evidence.DefaultThresholds())
	ev := v.Verify(domain.TestOutcome{
		Total: 5, Passed: 4, Failed: 1, PassRate: 80,
		Coverage: coveragePtr(60), RawOutput: "4 passed, 1 failed",
	}, []string{"skipped one"}, "agent-1", "x", "go", "go test")

	claim := evidence.Claim{
		ClaimsTestsPassed: true,
		ClaimedCoverage:   coveragePtr(95),
		ClaimsNoSkips:     true,
	}
	discrepancies := evidence.ValidateClaim(claim, ev)
	require.Len(t, discrepancies, 3)
}

func TestValidateClaim_NoDiscrepancies(t *testing.T) {
	v := evidence.New(evidence.DefaultThresholds())
	ev := v.Verify(domain.TestOutcome{
		Total: 5, Passed: 5, PassRate: 100, Coverage: coveragePtr(90), RawOutput: "5 passed",
	}, nil, "agent-1", "x", "go", "go test")

	claim := evidence.Claim{ClaimsTestsPassed: true, ClaimedCoverage: coveragePtr(90), ClaimsNoSkips: true}
	assert.Empty(t, evidence.ValidateClaim(claim, ev))
}
