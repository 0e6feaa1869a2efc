package agentregistry

import (
	"github.com/taskforge/conductor/pkg/domain"
)

// categoryCapability maps a task category to the capability name an agent
// must declare to be eligible for tasks of that category.
var categoryCapability = map[domain.TaskCategory]string{
	domain.CategoryCodeImplementation: "code_implementation",
	domain.CategoryDesign:             "design",
	domain.CategoryDocumentation:      "documentation",
	domain.CategoryConfiguration:      "configuration",
	domain.CategoryTesting:            "testing",
	domain.CategoryRefactoring:        "refactoring",
	domain.CategoryMixed:              "code_implementation",
}

// Selector chooses the AgentDefinition to run a task, implementing
// pkg/supervisor's AgentSelector interface.
type Selector struct {
	registry *Registry
}

// NewSelector wraps registry as a supervisor.AgentSelector.
func NewSelector(registry *Registry) *Selector {
	return &Selector{registry: registry}
}

// SelectAgent picks the highest-maturity agent declaring the capability
// required by task's category. Ties are broken by name for determinism.
func (s *Selector) SelectAgent(task *domain.Task) (*domain.AgentDefinition, error) {
	capability, ok := categoryCapability[task.Category]
	if !ok {
		capability = "code_implementation"
	}

	candidates := s.registry.ByCapability(capability)
	if len(candidates) == 0 {
		return nil, ErrNoCapableAgent
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if maturityRank(c.Maturity) > maturityRank(best.Maturity) {
			best = c
		}
	}
	return best, nil
}

func maturityRank(m domain.Maturity) int {
	switch m {
	case domain.MaturityD4:
		return 4
	case domain.MaturityD3:
		return 3
	case domain.MaturityD2:
		return 2
	case domain.MaturityD1:
		return 1
	default:
		return 0
	}
}
