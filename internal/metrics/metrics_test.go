package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestObserveInvestigationRecordsClassificationAndStageErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	inv := domain.NewInvestigation(domain.NewAlertInstance("fp", map[string]string{"alertname": "KubePodCrashLooping"}, nil, "", "", "", "firing", "firing"), domain.TimeWindow{})
	inv.Meta.Family = "crashloop"
	inv.Analysis.Verdict.Classification = domain.ClassActionable
	inv.AddError("evidence:k8s.pod_info", assert.AnError)

	m.ObserveInvestigation(inv, "KubePodCrashLooping", 1.5)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.True(t, hasMetric(families, "tarka_scoring_classification_total"))
	assert.True(t, hasMetric(families, "tarka_pipeline_evidence_errors_total"))
	assert.True(t, hasMetric(families, "tarka_pipeline_investigation_duration_seconds"))
}

func hasMetric(families []*dto.MetricFamily, name string) bool {
	for _, f := range families {
		if f.GetName() == name {
			return true
		}
	}
	return false
}
