package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentFailure holds the schema definition for the AgentFailure entity.
type AgentFailure struct {
	ent.Schema
}

// Fields of the AgentFailure.
func (AgentFailure) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("failure_id").
			Unique().
			Immutable(),
		field.String("run_id").
			Immutable(),
		field.String("step_id").
			Optional().
			Nillable().
			Immutable(),
		field.Enum("failure_type").
			Values("tool", "model", "retrieval", "orchestration").
			Immutable(),
		field.String("failure_code").
			NotEmpty().
			Immutable(),
		field.Text("message").
			Immutable().
			Comment("Must not contain credential keywords, validated at ingest"),
	}
}

// Edges of the AgentFailure.
func (AgentFailure) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("failures").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AgentFailure.
func (AgentFailure) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
		index.Fields("failure_type"),
	}
}
