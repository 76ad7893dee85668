package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentQualitySignal holds the schema definition for the AgentQualitySignal entity.
// A boolean observation, drawn from a closed catalog, about run/step quality.
type AgentQualitySignal struct {
	ent.Schema
}

// Fields of the AgentQualitySignal.
func (AgentQualitySignal) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("signal_id").
			Unique().
			Immutable(),
		field.String("run_id").
			Immutable(),
		field.String("step_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("signal_type").
			Immutable().
			Comment("Validated against the enum catalog at ingest"),
		field.String("signal_code").
			Immutable().
			Comment("Must be legal for signal_type per the catalog"),
		field.Bool("value").
			Immutable(),
		field.Float("weight").
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

// Edges of the AgentQualitySignal.
func (AgentQualitySignal) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", AgentRun.Type).
			Ref("quality_signals").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AgentQualitySignal.
func (AgentQualitySignal) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
		index.Fields("signal_type", "signal_code"),
	}
}
