package agentregistry

import (
	"errors"
	"fmt"

	"github.com/taskforge/conductor/pkg/domain"
)

// ErrAgentNotFound indicates an agent name was not found in the registry.
var ErrAgentNotFound = errors.New("agentregistry: agent not found")

// ErrNoCapableAgent indicates no registered agent declares the capability
// a task requires.
var ErrNoCapableAgent = errors.New("agentregistry: no agent declares the required capability")

var validMaturities = map[domain.Maturity]bool{
	domain.MaturityD1: true,
	domain.MaturityD2: true,
	domain.MaturityD3: true,
	domain.MaturityD4: true,
}

// ValidationError wraps an agent definition validation failure with the
// offending agent's name and field, mirroring pkg/config's
// component/id/field error shape.
type ValidationError struct {
	Agent string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("agent %q: field %q: %v", e.Agent, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks the structural invariants an AgentDefinition must
// satisfy before it can be registered.
func Validate(def *domain.AgentDefinition) error {
	if def.Name == "" {
		return &ValidationError{Agent: "<unnamed>", Field: "name", Err: errors.New("required")}
	}
	if def.Type == "" {
		return &ValidationError{Agent: def.Name, Field: "type", Err: errors.New("required")}
	}
	if def.SystemPrompt == "" {
		return &ValidationError{Agent: def.Name, Field: "system_prompt", Err: errors.New("required")}
	}
	if def.Maturity != "" && !validMaturities[def.Maturity] {
		return &ValidationError{Agent: def.Name, Field: "maturity", Err: fmt.Errorf("unknown maturity %q", def.Maturity)}
	}
	if def.Constraints.MaxTokens <= 0 {
		return &ValidationError{Agent: def.Name, Field: "max_tokens", Err: errors.New("must be positive")}
	}
	if def.Constraints.Temperature < 0 || def.Constraints.Temperature > 2 {
		return &ValidationError{Agent: def.Name, Field: "temperature", Err: errors.New("must be in [0,2]")}
	}
	if def.Constraints.TimeoutSeconds <= 0 {
		return &ValidationError{Agent: def.Name, Field: "timeout_seconds", Err: errors.New("must be positive")}
	}
	return nil
}
