package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BehaviorDrift holds the schema definition for the BehaviorDrift entity.
// An append-only observation that a metric diverged from its baseline value.
// Append-only except resolved_at.
type BehaviorDrift struct {
	ent.Schema
}

// Fields of the BehaviorDrift.
func (BehaviorDrift) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("drift_id").
			Unique().
			Immutable(),
		field.String("baseline_id").
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.String("agent_version").
			Immutable(),
		field.String("environment").
			Immutable(),
		field.Enum("drift_type").
			Values("decision", "signal", "latency").
			Immutable(),
		field.String("metric").
			Immutable().
			Comment("<tag>.<option> for distributions, mean/p95 duration for latency"),
		field.Float("baseline_value").
			Immutable(),
		field.Float("observed_value").
			Immutable(),
		field.Float("delta").
			Immutable(),
		field.Float("delta_percent").
			Immutable(),
		field.Float("significance").
			Min(0).
			Max(1).
			Immutable(),
		field.String("test_method").
			Immutable(),
		field.Enum("severity").
			Values("low", "medium", "high").
			Immutable(),
		field.Time("detected_at").
			Immutable(),
		field.Time("observation_window_start").
			Immutable(),
		field.Time("observation_window_end").
			Immutable(),
		field.Int("observation_sample_size").
			Min(0).
			Immutable(),
		field.Time("resolved_at").
			Optional().
			Nillable(),
	}
}

// Edges of the BehaviorDrift.
func (BehaviorDrift) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("baseline", BehaviorBaseline.Type).
			Ref("drift_events").
			Field("baseline_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the BehaviorDrift.
func (BehaviorDrift) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("baseline_id"),
		index.Fields("agent_id", "detected_at"),
		index.Fields("drift_type"),
		index.Fields("severity"),
		index.Fields("resolved_at"),
	}
}
