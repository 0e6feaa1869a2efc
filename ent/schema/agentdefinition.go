package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// AgentDefinition holds the schema definition for a persisted snapshot
// of a pkg/agentregistry agent definition, kept for audit/history of
// which agent version executed a given task.
type AgentDefinition struct {
	ent.Schema
}

// Fields of the AgentDefinition.
func (AgentDefinition) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name"),
		field.String("type"),
		field.Enum("maturity").
			Values("D1", "D2", "D3", "D4"),
		field.Text("system_prompt").
			Optional(),
		field.JSON("capabilities", []string{}).
			Optional(),
		field.JSON("tools", []string{}).
			Optional(),
		field.Int("max_tokens").
			Optional(),
		field.Float("temperature").
			Optional(),
		field.Int("timeout_seconds").
			Optional(),
		field.JSON("metadata", map[string]any{}).
			Optional(),
	}
}
