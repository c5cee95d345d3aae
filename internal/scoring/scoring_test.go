package scoring

import (
	"strings"
	"testing"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInvestigation(family string) *domain.Investigation {
	inv := domain.NewInvestigation(&domain.AlertInstance{Labels: map[string]string{}}, domain.TimeWindow{})
	inv.Meta.Family = family
	return inv
}

func TestScoreInvestigationUnsupportedFamilyFallsBack(t *testing.T) {
	inv := baseInvestigation("totally_unknown")
	ScoreInvestigation(inv)
	assert.Equal(t, domain.ClassInformational, inv.Analysis.Verdict.Classification)
	assert.Contains(t, inv.Analysis.Scores.ReasonCodes, "UNSUPPORTED_FAMILY")
}

func TestScoreCrashloopActionableOnStrongSignal(t *testing.T) {
	inv := baseInvestigation("crashloop")
	inv.Analysis.Features.K8s.WaitingReason = "CrashLoopBackOff"
	rate := 5.0
	inv.Analysis.Features.K8s.RestartRate5mMax = &rate
	ready := false
	inv.Analysis.Features.K8s.Ready = &ready

	ScoreInvestigation(inv)
	scores := inv.Analysis.Scores
	require.True(t, scores.Impact >= 60)
	require.True(t, scores.Confidence >= 60)
	assert.Equal(t, "crashloop", inv.Analysis.Verdict.PrimaryDriver)
}

func TestScoreCrashloopLowConfidenceBecomesArtifact(t *testing.T) {
	inv := baseInvestigation("crashloop")
	inv.Analysis.Features.Quality.MissingInputs = []string{"logs", "labels.namespace", "labels.pod"}

	ScoreInvestigation(inv)
	assert.Equal(t, domain.ClassArtifact, inv.Analysis.Verdict.Classification)
	assert.Contains(t, inv.Analysis.Scores.ReasonCodes, "ARTIFACT_LOW_CONFIDENCE")
}

func TestScoreCrashloopRecoveredArtifact(t *testing.T) {
	inv := baseInvestigation("crashloop")
	inv.Analysis.Features.Quality.ContradictionFlags = []string{domain.ContradictionCrashloopReadyNoRestarts}
	inv.Analysis.Features.Quality.MissingInputs = []string{"logs", "labels.namespace", "labels.pod"}

	ScoreInvestigation(inv)
	assert.Equal(t, domain.ClassArtifact, inv.Analysis.Verdict.Classification)
	assert.Contains(t, inv.Analysis.Scores.ReasonCodes, "ARTIFACT_RECOVERED")
}

func TestScoreCPUThrottlingNotReproducedAddsNoise(t *testing.T) {
	inv := baseInvestigation("cpu_throttling")
	p95 := 0.5
	inv.Analysis.Features.Metrics.ThrottlingP95 = &p95

	ScoreInvestigation(inv)
	assert.Contains(t, inv.Analysis.Scores.ReasonCodes, "THROTTLING_NOT_REPRODUCED")
}

func TestScoreOOMKilledConfirmedVsUnconfirmed(t *testing.T) {
	confirmed := baseInvestigation("oom_killed")
	confirmed.Analysis.Features.K8s.OOMKilled = true
	ScoreInvestigation(confirmed)
	assert.Contains(t, confirmed.Analysis.Scores.ReasonCodes, "OOM_CONFIRMED")

	unconfirmed := baseInvestigation("oom_killed")
	ScoreInvestigation(unconfirmed)
	assert.Contains(t, unconfirmed.Analysis.Scores.ReasonCodes, "OOM_CORROBORATION_MISSING")
}

func TestSeverityCriticalRequiresAllGuardrails(t *testing.T) {
	inv := baseInvestigation("target_down")
	inv.Alert.Labels["alertname"] = "TargetDown"
	inv.Alert.Labels["instance"] = "10.0.0.1:9100"
	firing := 30
	inv.Analysis.Noise.Prometheus.FiringInstances = &firing

	ScoreInvestigation(inv)
	scores := inv.Analysis.Scores
	if inv.Analysis.Verdict.Classification == domain.ClassActionable {
		if scores.Confidence >= 70 && scores.Noise <= 40 && scores.Impact >= 85 {
			assert.Equal(t, domain.SeverityCritical, inv.Analysis.Verdict.Severity)
		} else {
			assert.Equal(t, domain.SeverityWarning, inv.Analysis.Verdict.Severity)
		}
	}
}

func TestScoreMetaAlwaysInformational(t *testing.T) {
	inv := baseInvestigation("meta")
	ScoreInvestigation(inv)
	assert.Equal(t, domain.ClassInformational, inv.Analysis.Verdict.Classification)
	assert.Equal(t, 0, inv.Analysis.Scores.Impact)
}

func TestScoreJobFailedFatalLogsRaiseImpact(t *testing.T) {
	inv := baseInvestigation("job_failed")
	inv.Target.Namespace = "batch"
	inv.Target.Job = "nightly-28391"
	inv.Evidence.Logs.Status = "ok"
	inv.Evidence.Logs.ParsedErrors = []domain.ParsedLogError{{Message: "FATAL: could not connect"}}
	inv.Evidence.Logs.ParsingMetadata = map[string]any{"fatal_count": 1}

	ScoreInvestigation(inv)
	assert.Contains(t, inv.Analysis.Scores.ReasonCodes, "JOB_FATAL_IN_LOGS")
	assert.True(t, inv.Analysis.Scores.Impact >= 70)
}

func TestScoreTargetDownContradictionUsesSpecReasonCode(t *testing.T) {
	inv := baseInvestigation("target_down")
	inv.Alert.Labels["alertname"] = "TargetDown"
	inv.Alert.Labels["instance"] = "10.0.0.1:9100"
	zero := 0
	inv.Analysis.Noise.Prometheus.FiringInstances = &zero

	ScoreInvestigation(inv)
	assert.Contains(t, inv.Analysis.Scores.ReasonCodes, domain.ContradictionTargetDownUpNone)
	assert.Equal(t, domain.ClassArtifact, inv.Analysis.Verdict.Classification)
}

func TestClassifyCPUThrottlingUsesOwnThirtyThreshold(t *testing.T) {
	// confidence=35 sits below the shared classify()'s <40 cutoff but above
	// cpu_throttling's own <30 cutoff; the family-specific gate must not
	// force artifact here.
	got := classifyCPUThrottling(65, 35, 20, true, false)
	assert.NotEqual(t, domain.ClassArtifact, got)
	assert.Equal(t, classify(65, 35, 20), domain.ClassArtifact, "sanity: generic classify would have forced artifact at this confidence")
}

func TestClassifyCPUThrottlingArtifactBelowOwnThreshold(t *testing.T) {
	got := classifyCPUThrottling(65, 25, 20, true, false)
	assert.Equal(t, domain.ClassArtifact, got)
}

func TestClassifyCPUThrottlingActionableRequiresNearLimitGate(t *testing.T) {
	notNear := classifyCPUThrottling(70, 70, 30, false, false)
	assert.NotEqual(t, domain.ClassActionable, notNear, "actionable requires the cpu_near_limit extra gate")

	near := classifyCPUThrottling(70, 70, 30, true, false)
	assert.Equal(t, domain.ClassActionable, near)
}

func TestCPUThrottlingNotReproducedForcesArtifactBelow40Threshold(t *testing.T) {
	inv := baseInvestigation("cpu_throttling")
	p95 := 0.5
	inv.Analysis.Features.Metrics.ThrottlingP95 = &p95

	ScoreInvestigation(inv)
	assert.Equal(t, domain.ClassArtifact, inv.Analysis.Verdict.Classification)
}

func TestScorePodNotHealthyImagePullBackOffECRNotFound(t *testing.T) {
	inv := baseInvestigation("pod_not_healthy")
	inv.Target.Namespace = "accept-0"
	inv.Target.Pod = "p1"
	inv.Analysis.Features.K8s.WaitingReason = "ImagePullBackOff"
	inv.Evidence.K8s.ImagePullDiagnostics = map[string]any{
		"image":          "123456789012.dkr.ecr.us-east-1.amazonaws.com/example-org/example-app:badtag",
		"error_bucket":   "not_found",
		"error_evidence": "rpc error: code = NotFound",
	}

	ScoreInvestigation(inv)
	verdict := inv.Analysis.Verdict
	assert.Contains(t, verdict.OneLiner, "Registry reported **NotFound**")
	steps := strings.Join(verdict.NextSteps, "\n")
	assert.Contains(t, steps, `aws ecr describe-images --region us-east-1 --repository-name example-org/example-app --image-ids imageTag=badtag`)
}

func TestLongRunningInformationalGetsTip(t *testing.T) {
	inv := baseInvestigation("meta")
	inv.Analysis.Features.Quality.IsLongRunning = true

	ScoreInvestigation(inv)
	require.NotEmpty(t, inv.Analysis.Verdict.NextSteps)
}
