package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentDecision holds the schema definition for the AgentDecision entity.
// A structured record of a choice the agent made, drawn from a closed catalog.
type AgentDecision struct {
	ent.Schema
}

// Fields of the AgentDecision.
func (AgentDecision) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("decision_id").
			Unique().
			Immutable(),
		field.String("run_id").
			Immutable(),
		field.String("step_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("decision_type").
			Immutable().
			Comment("Validated against the enum catalog at ingest"),
		field.String("selected").
			Immutable(),
		field.String("reason_code").
			Immutable().
			Comment("Must be legal for decision_type per the catalog"),
		field.Float("confidence").
			Optional().
			Nillable().
			Min(0).
			Max(1).
			Immutable(),
		field.JSON("metadata", map[string]interface{}{}).
			Optional().
			Immutable(),
	}
}

// Edges of the AgentDecision.
func (AgentDecision) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("decisions").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AgentDecision.
func (AgentDecision) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
		index.Fields("decision_type", "selected"),
	}
}
