package retention

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/ent/alertjob"
	"github.com/codeready-toolchain/tarka/ent/caserecord"
	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/testutil"
)

func TestPruneClosedCasesDeletesOnlyOldClosedCases(t *testing.T) {
	client := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	_, err := client.CaseRecord.Create().
		SetID(uuid.NewString()).
		SetCaseKey("old-closed").
		SetStatus(caserecord.StatusClosed).
		SetUpdatedAt(old).
		Save(ctx)
	require.NoError(t, err)

	_, err = client.CaseRecord.Create().
		SetID(uuid.NewString()).
		SetCaseKey("recent-closed").
		SetStatus(caserecord.StatusClosed).
		Save(ctx)
	require.NoError(t, err)

	_, err = client.CaseRecord.Create().
		SetID(uuid.NewString()).
		SetCaseKey("old-open").
		SetStatus(caserecord.StatusOpen).
		SetUpdatedAt(old).
		Save(ctx)
	require.NoError(t, err)

	svc := NewService(config.RetentionConfig{CaseRetention: 24 * time.Hour}, client)
	svc.pruneClosedCases(ctx)

	remaining, err := client.CaseRecord.Query().All(ctx)
	require.NoError(t, err)
	keys := make([]string, 0, len(remaining))
	for _, r := range remaining {
		keys = append(keys, r.CaseKey)
	}
	assert.ElementsMatch(t, []string{"recent-closed", "old-open"}, keys)
}

func TestPruneFinishedJobsDeletesOnlyOldTerminalJobs(t *testing.T) {
	client := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	_, err := client.AlertJob.Create().
		SetID("old-completed").
		SetAlertname("KubeJobFailed").
		SetAlertData("{}").
		SetStatus(alertjob.StatusCompleted).
		SetCreatedAt(old).
		Save(ctx)
	require.NoError(t, err)

	_, err = client.AlertJob.Create().
		SetID("recent-completed").
		SetAlertname("KubeJobFailed").
		SetAlertData("{}").
		SetStatus(alertjob.StatusCompleted).
		Save(ctx)
	require.NoError(t, err)

	_, err = client.AlertJob.Create().
		SetID("old-pending").
		SetAlertname("KubeJobFailed").
		SetAlertData("{}").
		SetStatus(alertjob.StatusPending).
		SetCreatedAt(old).
		Save(ctx)
	require.NoError(t, err)

	svc := NewService(config.RetentionConfig{JobRetention: 24 * time.Hour}, client)
	svc.pruneFinishedJobs(ctx)

	remaining, err := client.AlertJob.Query().All(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(remaining))
	for _, r := range remaining {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"recent-completed", "old-pending"}, ids)
}
