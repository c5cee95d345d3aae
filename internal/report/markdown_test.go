package report

import (
	"strings"
	"testing"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInvestigation() *domain.Investigation {
	alert := domain.NewAlertInstance("fp1", map[string]string{
		"alertname": "CrashLoopBackOff",
		"severity":  "critical",
	}, nil, "", "", "", "firing", "firing")
	inv := domain.NewInvestigation(alert, domain.TimeWindow{Window: "15m"})
	inv.Target = domain.TargetRef{TargetType: domain.TargetPod, Namespace: "payments", Pod: "api-0"}
	inv.Meta.Family = "crashloop"
	inv.Analysis.Verdict = domain.DeterministicVerdict{
		Classification: domain.ClassActionable,
		PrimaryDriver:  "crashloop",
		OneLiner:       "CrashLoopBackOff: restart_rate_5m_max=5.00",
		Severity:       domain.SeverityWarning,
	}
	inv.Analysis.Scores = domain.DeterministicScores{Impact: 80, Confidence: 70, Noise: 20, ReasonCodes: []string{"CRASHLOOPBACKOFF"}}
	return inv
}

func TestRenderIncludesHeaderAndVerdict(t *testing.T) {
	inv := baseInvestigation()
	out := Render(inv, time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "# Incident Report: CrashLoopBackOff")
	assert.Contains(t, out, "**Namespace:** `payments`")
	assert.Contains(t, out, "**Pod:** `api-0`")
	assert.Contains(t, out, "## Verdict")
	assert.Contains(t, out, "**Classification:** `actionable`")
	assert.Contains(t, out, "CrashLoopBackOff: restart_rate_5m_max=5.00")
	assert.Contains(t, out, "**Generated:** 2026-07-29 12:00:00")
}

func TestRenderOmitsEmptySections(t *testing.T) {
	inv := baseInvestigation()
	out := Render(inv, time.Now().UTC())

	assert.NotContains(t, out, "## Likely causes")
	assert.NotContains(t, out, "## Triage")
	assert.NotContains(t, out, "## Root cause analysis")
}

func TestRenderNextStepsFormatsCommandsAsFences(t *testing.T) {
	inv := baseInvestigation()
	inv.Analysis.Verdict.NextSteps = []string{
		"Check pod events for OOM signals",
		"kubectl describe pod api-0 -n payments",
	}
	out := Render(inv, time.Now().UTC())

	assert.Contains(t, out, "- Check pod events for OOM signals")
	assert.Contains(t, out, "```bash\nkubectl describe pod api-0 -n payments\n```")
}

func TestRenderHypothesesRankedWithConfidence(t *testing.T) {
	inv := baseInvestigation()
	inv.Analysis.Hypotheses = []domain.Hypothesis{
		{Title: "Dependency connection refused", Confidence0To100: 85, Why: []string{"log pattern matched"}},
	}
	out := Render(inv, time.Now().UTC())

	assert.Contains(t, out, "### Dependency connection refused (85/100)")
	assert.Contains(t, out, "- log pattern matched")
}

func TestRenderLogsSnippetUsesLogselect(t *testing.T) {
	inv := baseInvestigation()
	inv.Evidence.Logs.Status = "ok"
	inv.Evidence.Logs.Raw = []domain.LogEntry{
		{Timestamp: time.Unix(100, 0), Message: "starting up"},
		{Timestamp: time.Unix(200, 0), Message: "FATAL: could not bind to port 8080"},
	}
	out := Render(inv, time.Now().UTC())

	assert.Contains(t, out, "### Logs")
	assert.Contains(t, out, "FATAL: could not bind to port 8080")
}

func TestRenderNoiseInsightsOnlyShownAboveThreshold(t *testing.T) {
	inv := baseInvestigation()
	inv.Analysis.Noise = domain.NoiseInsights{FlapScore: 10}
	out := Render(inv, time.Now().UTC())
	assert.NotContains(t, out, "## Noise insights")

	inv.Analysis.Noise = domain.NoiseInsights{FlapScore: 55}
	out = Render(inv, time.Now().UTC())
	assert.Contains(t, out, "## Noise insights")
	assert.Contains(t, out, "Flap score (0-100):** 55")
}

func TestRenderAWSSkippedWhenNoResources(t *testing.T) {
	inv := baseInvestigation()
	out := Render(inv, time.Now().UTC())
	assert.NotContains(t, out, "### AWS")
}

func TestRenderAWSListsResourcesByKind(t *testing.T) {
	inv := baseInvestigation()
	inv.Evidence.AWS.Resources = map[string]map[string]any{
		"ec2": {"i-0123": {"status": "running"}},
	}
	out := Render(inv, time.Now().UTC())
	require.Contains(t, out, "### AWS")
	assert.Contains(t, out, "EC2 Instances")
	assert.Contains(t, out, "i-0123")
}

func TestIsCommandLineDetectsPromQL(t *testing.T) {
	assert.True(t, isCommandLine(`rate(http_requests_total{job="api"}[5m])`))
	assert.True(t, isCommandLine("aws ecr describe-images --region us-east-1"))
	assert.False(t, isCommandLine("check pod events for OOM signals"))
	assert.False(t, isCommandLine(""))
}

func TestRenderNextStepsPreservesFencedBlocks(t *testing.T) {
	var lines []string
	renderNextSteps([]string{"```json", `{"key": "value"}`, "```"}, &lines)
	assert.Equal(t, []string{"```json", `{"key": "value"}`, "```"}, lines)
}

func TestRenderDerivedFeaturesSection(t *testing.T) {
	inv := baseInvestigation()
	inv.Analysis.Features.Quality.MissingInputs = []string{"logs"}
	out := Render(inv, time.Now().UTC())
	assert.True(t, strings.Contains(out, "### Derived features"))
	assert.Contains(t, out, "**Missing inputs:** logs")
}
