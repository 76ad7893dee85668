package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BehaviorProfile holds the schema definition for the BehaviorProfile entity.
// A statistical snapshot over a (agent, version, environment, window) tuple.
// Immutable after creation — a pure function of the window it was built from.
type BehaviorProfile struct {
	ent.Schema
}

// Fields of the BehaviorProfile.
func (BehaviorProfile) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("profile_id").
			Unique().
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.String("agent_version").
			Immutable(),
		field.String("environment").
			Immutable(),
		field.Time("window_start").
			Immutable(),
		field.Time("window_end").
			Immutable(),
		field.Int("sample_size").
			Min(0).
			Immutable(),
		field.JSON("decision_distributions", map[string]map[string]float64{}).
			Immutable().
			Comment("tag -> option -> probability, inner values sum to 1.0 or empty"),
		field.JSON("signal_distributions", map[string]map[string]float64{}).
			Immutable(),
		field.JSON("latency_stats", map[string]float64{}).
			Immutable().
			Comment("mean, p50, p95, p99, sample_count, all in ms"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the BehaviorProfile.
func (BehaviorProfile) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("baseline", BehaviorBaseline.Type),
	}
}

// Indexes of the BehaviorProfile.
func (BehaviorProfile) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("agent_id", "agent_version", "environment"),
		index.Fields("window_start", "window_end"),
	}
}
