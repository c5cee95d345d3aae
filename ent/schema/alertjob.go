package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AlertJob holds the schema definition for the AlertJob entity: one durable
// queue entry per investigation, claimed with FOR UPDATE SKIP LOCKED and
// dispositioned ack/nak/DLQ by the worker pool. This is the Postgres
// reinterpretation of a JetStream-shaped durable queue (delivery_count,
// max_deliver, ack_wait all map onto ordinary columns here instead of
// broker-native redelivery).
type AlertJob struct {
	ent.Schema
}

// Fields of the AlertJob.
func (AlertJob) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("job_id").
			Unique().
			Immutable().
			Comment("Dedup key string: <alertname>/<hash>"),
		field.String("alertname").
			Comment("alertname label, denormalized for indexing"),
		field.Text("alert_data").
			Comment("JSON-encoded AlertInstance"),
		field.Text("target_data").
			Optional().
			Comment("JSON-encoded best-effort TargetRef derived at ingest time"),
		field.Enum("status").
			Values("pending", "in_progress", "completed", "failed", "dead_letter").
			Default("pending"),
		field.Int("delivery_count").
			Default(0).
			Comment("Incremented on every claim; DLQ'd once it reaches max_deliver"),
		field.Time("created_at").
			Default(time.Now),
		field.Time("available_at").
			Default(time.Now).
			Comment("Claim is only eligible once now() >= available_at (nak backoff)"),
		field.String("pod_id").
			Optional().
			Nillable().
			Comment("Worker identity holding the current claim"),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Time("last_heartbeat_at").
			Optional().
			Nillable().
			Comment("For orphan/stuck-claim detection"),
		field.String("last_error").
			Optional().
			Nillable(),
	}
}

// Indexes of the AlertJob.
func (AlertJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "available_at"),
		index.Fields("alertname"),
		index.Fields("status", "last_heartbeat_at").
			Annotations(entsql.IndexWhere("status = 'in_progress'")),
	}
}

// Annotations for PostgreSQL-specific features.
func (AlertJob) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
