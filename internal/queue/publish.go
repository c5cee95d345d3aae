package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/ent/alertjob"
	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Publisher implements ingest.Enqueuer against the durable queue table.
// Publish is idempotent on id: a second publish of the same id is folded
// into a no-op update rather than creating a duplicate job row, matching
// the at-least-once, exactly-once-effect contract spec.md requires of the
// ingest-to-queue handoff.
type Publisher struct {
	client *ent.Client
}

// NewPublisher wraps an ent client as a Publisher.
func NewPublisher(client *ent.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a pending job for id, or is a no-op if id already exists.
func (p *Publisher) Publish(ctx context.Context, id string, alert *domain.AlertInstance, target domain.TargetRef) error {
	alertData, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert for job %s: %w", id, err)
	}
	targetData, err := json.Marshal(target)
	if err != nil {
		return fmt.Errorf("marshal target for job %s: %w", id, err)
	}

	err = p.client.AlertJob.Create().
		SetID(id).
		SetAlertname(alert.AlertName()).
		SetAlertData(string(alertData)).
		SetTargetData(string(targetData)).
		SetStatus(alertjob.StatusPending).
		OnConflictColumns(alertjob.FieldID).
		DoNothing().
		Exec(ctx)
	if err != nil && !ent.IsConstraintError(err) {
		return fmt.Errorf("publish job %s: %w", id, err)
	}
	return nil
}
