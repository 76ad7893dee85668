package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BehaviorBaseline holds the schema definition for the BehaviorBaseline entity.
// An approved, immutable profile designated as the drift-comparison reference.
// Immutable except is_active, approved_by, approved_at.
type BehaviorBaseline struct {
	ent.Schema
}

// Fields of the BehaviorBaseline.
func (BehaviorBaseline) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("baseline_id").
			Unique().
			Immutable(),
		field.String("profile_id").
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.String("agent_version").
			Immutable(),
		field.String("environment").
			Immutable(),
		field.Enum("baseline_type").
			Values("version", "time_window", "manual").
			Immutable(),
		field.String("approved_by").
			Optional().
			Nillable(),
		field.Time("approved_at").
			Optional().
			Nillable(),
		field.String("description").
			Optional().
			Nillable().
			MaxLen(200).
			Immutable(),
		field.Bool("is_active").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the BehaviorBaseline.
func (BehaviorBaseline) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("profile", BehaviorProfile.Type).
			Ref("baseline").
			Field("profile_id").
			Unique().
			Required().
			Immutable(),
		edge.To("drift_events", BehaviorDrift.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the BehaviorBaseline.
func (BehaviorBaseline) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("profile_id").
			Unique(),
		index.Fields("agent_id", "agent_version", "environment"),
		// Enforces "at most one active baseline per key" — partial unique index.
		index.Fields("agent_id", "agent_version", "environment").
			Unique().
			StorageKey("idx_behavior_baselines_one_active_per_key").
			Annotations(entsql.IndexWhere("is_active")),
	}
}
