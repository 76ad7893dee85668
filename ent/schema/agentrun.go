package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentRun holds the schema definition for the AgentRun entity.
// One end-to-end execution of an agent task.
type AgentRun struct {
	ent.Schema
}

// Fields of the AgentRun.
func (AgentRun) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("run_id").
			Unique().
			Immutable(),
		field.String("agent_id").
			Immutable(),
		field.String("agent_version").
			Immutable(),
		field.String("environment").
			Immutable(),
		field.Enum("status").
			Values("success", "failure", "partial").
			Comment("Terminal status of the run"),
		field.Time("started_at").
			Immutable(),
		field.Time("ended_at").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the AgentRun.
func (AgentRun) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("steps", AgentStep.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("failures", AgentFailure.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("decisions", AgentDecision.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("quality_signals", AgentQualitySignal.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the AgentRun.
func (AgentRun) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("agent_id", "agent_version", "environment"),
		index.Fields("status"),
		index.Fields("started_at"),
		index.Fields("agent_id", "agent_version", "environment", "started_at"),
	}
}
