package qualitygate

import "github.com/taskforge/conductor/pkg/domain"

// Gate is one of the six pass/fail checks the runner can apply to a task.
type Gate string

const (
	GateTests         Gate = "tests"
	GateCoverage      Gate = "coverage"
	GateTypeCheck     Gate = "type_check"
	GateLinting       Gate = "linting"
	GateCodeReview    Gate = "code_review"
	GateSkipDetection Gate = "skip_detection"
)

var allGates = []Gate{GateTests, GateCoverage, GateTypeCheck, GateLinting, GateCodeReview, GateSkipDetection}

// applicabilityMatrix is the gate applicability table from spec.md §4.4.
var applicabilityMatrix = map[domain.TaskCategory]map[Gate]bool{
	domain.CategoryCodeImplementation: {GateTests: true, GateCoverage: true, GateTypeCheck: true, GateLinting: true, GateCodeReview: true, GateSkipDetection: true},
	domain.CategoryDesign:             {GateCodeReview: true},
	domain.CategoryDocumentation:      {GateLinting: true},
	domain.CategoryConfiguration:      {GateTypeCheck: true, GateLinting: true},
	domain.CategoryTesting:            {GateTests: true, GateCoverage: true, GateSkipDetection: true},
	domain.CategoryRefactoring:        {GateTests: true, GateCoverage: true, GateTypeCheck: true, GateLinting: true, GateCodeReview: true, GateSkipDetection: true},
	domain.CategoryMixed:              {GateTests: true, GateCoverage: true, GateTypeCheck: true, GateLinting: true, GateCodeReview: true, GateSkipDetection: true},
}

// skipReasons explains, per category, why a gate not in that category's
// applicability set is skipped.
var skipReasons = map[domain.TaskCategory]string{
	domain.CategoryDesign:        "design tasks do not produce executable code",
	domain.CategoryDocumentation: "documentation tasks do not produce executable code",
	domain.CategoryConfiguration: "configuration tasks are not tested like application code",
}

func defaultSkipReason(g Gate, category domain.TaskCategory) string {
	if reason, ok := skipReasons[category]; ok {
		return reason
	}
	return string(category) + " tasks do not require the " + string(g) + " gate"
}

// ApplicableGates returns the ordered list of gates that apply to category,
// in the canonical order defined by allGates.
func ApplicableGates(category domain.TaskCategory) []Gate {
	set := applicabilityMatrix[category]
	var out []Gate
	for _, g := range allGates {
		if set[g] {
			out = append(out, g)
		}
	}
	return out
}

// SkippedGates returns the gates NOT applicable to category, each paired
// with a human-readable reason.
func SkippedGates(category domain.TaskCategory) map[Gate]string {
	set := applicabilityMatrix[category]
	out := make(map[Gate]string)
	for _, g := range allGates {
		if !set[g] {
			out[g] = defaultSkipReason(g, category)
		}
	}
	return out
}
