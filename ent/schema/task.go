package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Task holds the schema definition for the Task entity: the atomic
// unit of agent work, adapted from the teacher's AgentExecution schema
// shape (status + assigned agent + timestamps) generalized with the
// dependency/category/intervention fields pkg/domain.Task needs.
type Task struct {
	ent.Schema
}

// Fields of the Task.
func (Task) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("project_id").
			Immutable(),
		field.String("task_number").
			Comment("pattern <issue>.<idx>"),
		field.String("issue_number"),
		field.String("title"),
		field.Text("description").
			Optional(),
		field.Enum("status").
			Values("PENDING", "READY", "IN_PROGRESS", "BLOCKED", "COMPLETED", "FAILED", "ABANDONED").
			Default("PENDING"),
		field.JSON("depends_on", []string{}).
			Optional(),
		field.Bool("can_parallelize").
			Default(false),
		field.Int("priority").
			Default(0),
		field.Float("estimated_hours").
			Default(0),
		field.Int("complexity_score").
			Optional(),
		field.Enum("uncertainty_level").
			Values("low", "medium", "high").
			Optional(),
		field.JSON("intervention_context", map[string]any{}).
			Optional(),
		field.String("assigned_agent_id").
			Optional(),
		field.Enum("category").
			Values("code_implementation", "design", "documentation", "configuration", "testing", "refactoring", "mixed").
			Optional(),
		field.JSON("files_changed", []string{}).
			Optional(),
		field.Int("intervention_count").
			Default(0),
	}
}

// Edges of the Task.
func (Task) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("tasks").
			Field("project_id").
			Unique().
			Required().
			Immutable(),
		edge.From("issue", Issue.Type).
			Ref("tasks").
			Unique(),
	}
}

// Indexes of the Task.
func (Task) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("project_id", "task_number").Unique(),
		index.Fields("project_id", "status"),
	}
}
