package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CaseRecord holds the schema definition for the CaseRecord entity: the
// durable row a run's case_key upserts into, so repeat investigations of
// the same underlying incident share one case identity.
type CaseRecord struct {
	ent.Schema
}

// Fields of the CaseRecord.
func (CaseRecord) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("case_id").
			Unique().
			Immutable(),
		field.String("case_key").
			Unique().
			Comment("Deterministic identity key; upsert target"),
		field.Enum("status").
			Values("open", "closed").
			Default("open"),
		field.String("cluster").
			Optional().
			Nillable(),
		field.String("target_type").
			Optional().
			Nillable(),
		field.String("namespace").
			Optional().
			Nillable(),
		field.String("workload_kind").
			Optional().
			Nillable(),
		field.String("workload_name").
			Optional().
			Nillable(),
		field.String("service").
			Optional().
			Nillable(),
		field.String("instance").
			Optional().
			Nillable(),
		field.String("family").
			Optional().
			Nillable(),
		field.Int("run_count").
			Default(0),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the CaseRecord.
func (CaseRecord) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("cluster", "namespace", "workload_name"),
	}
}

// Annotations for PostgreSQL-specific features.
func (CaseRecord) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
