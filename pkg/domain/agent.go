package domain

// Maturity is the agent capability ladder carried in an AgentDefinition and
// consumed as metadata by the prompt builder (spec.md §9).
type Maturity string

const (
	MaturityD1 Maturity = "D1"
	MaturityD2 Maturity = "D2"
	MaturityD3 Maturity = "D3"
	MaturityD4 Maturity = "D4"
)

// ExecutionConstraints bounds a single LLM call.
type ExecutionConstraints struct {
	MaxTokens      int
	Temperature    float64
	TimeoutSeconds int
}

// AgentDefinition is a declarative worker spec loaded by pkg/agentregistry.
type AgentDefinition struct {
	Name          string
	Type          string
	Maturity      Maturity
	SystemPrompt  string
	Capabilities  []string
	Tools         []string
	Constraints   ExecutionConstraints
	Metadata      map[string]any
}
