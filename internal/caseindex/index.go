package caseindex

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/ent/caserecord"
	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Index implements providers.CaseIndexer against Postgres via ent, using an
// INSERT ... ON CONFLICT(case_key) DO UPDATE upsert so concurrent workers
// racing to create the same case converge on one row instead of erroring.
type Index struct {
	client *ent.Client
	now    func() time.Time
}

// NewIndex wraps an ent client as a CaseIndexer.
func NewIndex(client *ent.Client) *Index {
	return &Index{client: client, now: time.Now}
}

// IndexIncidentRun upserts the case row for caseKey and reports whether a
// new case was created versus an existing one reused.
func (i *Index) IndexIncidentRun(ctx context.Context, caseKey string, inv *domain.Investigation) (bool, string, string, error) {
	in := InputFromInvestigation(inv)
	id := uuid.NewString()

	create := i.client.CaseRecord.Create().
		SetID(id).
		SetCaseKey(caseKey).
		SetStatus(caserecord.StatusOpen).
		SetRunCount(1)
	if in.Cluster != "" {
		create = create.SetCluster(in.Cluster)
	}
	if in.TargetType != "" {
		create = create.SetTargetType(in.TargetType)
	}
	if in.Namespace != "" {
		create = create.SetNamespace(in.Namespace)
	}
	if in.WorkloadKind != "" {
		create = create.SetWorkloadKind(in.WorkloadKind)
	}
	if in.WorkloadName != "" {
		create = create.SetWorkloadName(in.WorkloadName)
	}
	if in.Service != "" {
		create = create.SetService(in.Service)
	}
	if in.Instance != "" {
		create = create.SetInstance(in.Instance)
	}
	if in.Family != "" {
		create = create.SetFamily(in.Family)
	}

	storedID, err := create.
		OnConflictColumns(caserecord.FieldCaseKey).
		Update(func(u *ent.CaseRecordUpsert) {
			u.SetUpdatedAt(i.now())
			u.AddRunCount(1)
			if in.Cluster != "" {
				u.SetCluster(in.Cluster)
			}
			if in.Namespace != "" {
				u.SetNamespace(in.Namespace)
			}
			if in.WorkloadKind != "" {
				u.SetWorkloadKind(in.WorkloadKind)
			}
			if in.WorkloadName != "" {
				u.SetWorkloadName(in.WorkloadName)
			}
			if in.Family != "" {
				u.SetFamily(in.Family)
			}
		}).
		ID(ctx)
	if err != nil {
		return false, "", "", fmt.Errorf("upsert case %s: %w", caseKey, err)
	}

	created := storedID == id
	reason := "case_reused"
	if created {
		reason = "case_created"
	}
	return created, reason, storedID, nil
}
