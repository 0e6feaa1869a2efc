package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Blocker holds the schema definition for the Blocker entity: a
// persisted pause reason awaiting a human or asynchronous answer.
type Blocker struct {
	ent.Schema
}

// Fields of the Blocker.
func (Blocker) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("project_id").
			Immutable(),
		field.Enum("kind").
			Values("SYNC", "ASYNC"),
		field.Text("question"),
		field.String("task_number").
			Optional(),
		field.String("session_id").
			Optional(),
		field.String("answer").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("answered_at").
			Optional().
			Nillable(),
		field.JSON("resume_metadata", map[string]any{}).
			Optional(),
	}
}

// Edges of the Blocker.
func (Blocker) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("blockers").
			Field("project_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Blocker.
func (Blocker) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("project_id", "answered_at"),
	}
}
