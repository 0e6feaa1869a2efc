package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Project holds the schema definition for the Project entity, adapted
// from the teacher's AlertSession schema: a root container owning
// Issues, Tasks and Blockers instead of stages and interactions.
type Project struct {
	ent.Schema
}

// Fields of the Project.
func (Project) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Enum("phase").
			Values("discovery", "planning", "active", "review", "complete").
			Default("discovery"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Project.
func (Project) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("issues", Issue.Type),
		edge.To("tasks", Task.Type),
		edge.To("blockers", Blocker.Type),
		edge.To("memories", Memory.Type),
		edge.To("token_usages", TokenUsage.Type),
	}
}

// Indexes of the Project.
func (Project) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("phase"),
	}
}
