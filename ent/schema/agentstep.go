package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentStep holds the schema definition for the AgentStep entity.
// One unit of work within a run. Each retry is a distinct step.
type AgentStep struct {
	ent.Schema
}

// Fields of the AgentStep.
func (AgentStep) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("step_id").
			Unique().
			Immutable(),
		field.String("run_id").
			Immutable(),
		field.Int("seq").
			Min(0).
			Immutable().
			Comment("Position within the run: 0, 1, 2... no gaps"),
		field.Enum("step_type").
			Values("plan", "retrieve", "tool", "respond", "other").
			Immutable(),
		field.String("name").
			Immutable(),
		field.Int("latency_ms").
			Min(0).
			Immutable(),
		field.Time("started_at").
			Immutable(),
		field.Time("ended_at").
			Immutable(),
		field.JSON("metadata", map[string]interface{}{}).
			Optional().
			Immutable().
			Comment("Safe scalar-only metadata, validated at ingest"),
	}
}

// Edges of the AgentStep.
func (AgentStep) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("steps").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AgentStep.
func (AgentStep) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id", "seq").
			Unique(),
	}
}
