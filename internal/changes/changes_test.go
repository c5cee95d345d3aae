package changes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func investigationWithWindow(start, end time.Time) *domain.Investigation {
	alert := domain.NewAlertInstance("fp1", map[string]string{"alertname": "KubePodCrashLooping"}, nil, "", "", "", "firing", "firing")
	return domain.NewInvestigation(alert, domain.TimeWindow{StartTime: start, EndTime: end})
}

func TestAnalyzeScoresWithinWindowHigh(t *testing.T) {
	end := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	start := end.Add(-30 * time.Minute)
	inv := investigationWithWindow(start, end)
	inv.Evidence.K8s.RolloutStatus = map[string]any{
		"kind":               "Deployment",
		"name":               "checkout",
		"creation_timestamp": "2026-07-29T09:50:00Z",
	}

	Analyze(inv)

	require.Equal(t, 0.9, inv.Analysis.Change.Score)
	assert.NotEmpty(t, inv.Analysis.Change.Timeline)
}

func TestAnalyzeNoChangeTimestampScoresZero(t *testing.T) {
	inv := investigationWithWindow(time.Now().Add(-time.Hour), time.Now())

	Analyze(inv)

	assert.Equal(t, 0.0, inv.Analysis.Change.Score)
}

func TestAnalyzeFarChangeScoresLow(t *testing.T) {
	end := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	start := end.Add(-30 * time.Minute)
	inv := investigationWithWindow(start, end)
	inv.Evidence.K8s.RolloutStatus = map[string]any{
		"kind":               "Deployment",
		"name":               "checkout",
		"creation_timestamp": "2026-07-01T00:00:00Z",
	}

	Analyze(inv)

	assert.Equal(t, 0.1, inv.Analysis.Change.Score)
}
