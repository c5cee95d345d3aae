// Package family implements canonical family detection and the
// meta.family/meta.family_source precedence rule (§4.4): family is
// detected once, early in the pipeline, and every downstream stage
// (features, enrichment, diagnostics, scoring) must read it from
// investigation.Meta rather than re-derive it, so a later stage's
// narrower view of the evidence can never cause classification drift.
package family

import (
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Canonical family identifiers. These are the only strings scoring's
// familyScorers map and enrichment's dispatch recognize; anything else
// (including the zero value) falls back to "generic".
const (
	Crashloop              = "crashloop"
	PodNotHealthy          = "pod_not_healthy"
	CPUThrottling          = "cpu_throttling"
	HTTP5xx                = "http_5xx"
	OOMKilled              = "oom_killed"
	MemoryPressure         = "memory_pressure"
	Meta                   = "meta"
	TargetDown             = "target_down"
	K8sRolloutHealth       = "k8s_rollout_health"
	ObservabilityPipeline  = "observability_pipeline"
	JobFailed              = "job_failed"
	Generic                = "generic"
)

// Detection sources, recorded in meta.family_source for auditability.
const (
	SourcePlaybook  = "playbook"
	SourceAlertname = "alertname"
	SourceWorkload  = "workload_kind"
	SourceDefault   = "default"
)

// Set assigns the canonical family, preferring stability over
// re-detection: once set, later calls are expected not to happen for the
// same investigation (the pipeline calls this exactly once, before
// feature extraction), but Set does not itself enforce that — it simply
// overwrites, mirroring the permissive original.
func Set(inv *domain.Investigation, fam, source string) {
	fam = strings.TrimSpace(fam)
	if fam == "" {
		fam = Generic
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = "unknown"
	}
	inv.Meta.Family = fam
	inv.Meta.FamilySource = source
}

// Get returns the investigation's canonical family, defaulting to
// "generic" when none has been set yet.
func Get(inv *domain.Investigation) string {
	if inv.Meta.Family != "" {
		return inv.Meta.Family
	}
	return Generic
}

// alertnamePattern maps a case-insensitive substring of the raw alertname
// to a canonical family. Order matters: the first match wins, so more
// specific patterns (e.g. "crashloop") are listed ahead of broad ones.
var alertnamePatterns = []struct {
	substr string
	family string
}{
	{"infoinhibitor", Meta},
	{"watchdog", Meta},
	{"deadmansswitch", Meta},
	{"targetdown", TargetDown},
	{"kubejobfailed", JobFailed},
	{"jobfailed", JobFailed},
	{"oomkill", OOMKilled},
	{"outofmemory", MemoryPressure},
	{"memory", MemoryPressure},
	{"crashloop", Crashloop},
	{"podnothealthy", PodNotHealthy},
	{"podcrashlooping", Crashloop},
	{"cputhrottling", CPUThrottling},
	{"throttl", CPUThrottling},
	{"5xx", HTTP5xx},
	{"errorrate", HTTP5xx},
	{"rolloutstuck", K8sRolloutHealth},
	{"replicasmismatch", K8sRolloutHealth},
	{"daemonsetrolloutstuck", K8sRolloutHealth},
	{"statefulsetupdatenotrolledout", K8sRolloutHealth},
	{"deploymentgenerationmismatch", K8sRolloutHealth},
	{"alertingruleserror", ObservabilityPipeline},
	{"recordingrulesnodata", ObservabilityPipeline},
	{"rowsrejectedoningestion", ObservabilityPipeline},
	{"toomanylogs", ObservabilityPipeline},
	{"ingestionrejected", ObservabilityPipeline},
}

// workloadKindFallback maps a workload kind to a family when the
// alertname itself carries no recognizable signal — e.g. a generic
// "KubeDeploymentGenerationMismatch"-shaped custom rule on a Job.
var workloadKindFallback = map[string]string{
	"Job":         JobFailed,
	"Deployment":  K8sRolloutHealth,
	"StatefulSet": K8sRolloutHealth,
	"DaemonSet":   K8sRolloutHealth,
}

// Detect determines the canonical family for an alert, in priority order:
// a playbook claim (set by evidence-collection playbook selection) wins
// outright; then alertname pattern matching; then workload-kind fallback;
// otherwise "generic". Returns the family and the source that decided it.
func Detect(alertname, workloadKind, playbook string) (string, string) {
	if playbook != "" {
		if fam, ok := playbookFamily[playbook]; ok {
			return fam, SourcePlaybook
		}
	}

	lname := strings.ToLower(alertname)
	for _, p := range alertnamePatterns {
		if strings.Contains(lname, p.substr) {
			return p.family, SourceAlertname
		}
	}

	if fam, ok := workloadKindFallback[workloadKind]; ok {
		return fam, SourceWorkload
	}

	return Generic, SourceDefault
}

// playbookFamily maps a playbook name (set on TargetRef.Playbook by the
// evidence-collection stage when a family-specific playbook claims the
// target, e.g. the Job-failure playbook locating a Job's pod) directly to
// its family, bypassing alertname matching entirely — the playbook has
// already done the harder job of confirming what kind of thing this is.
var playbookFamily = map[string]string{
	"job_failure": JobFailed,
	"crashloop":   Crashloop,
	"rollout":     K8sRolloutHealth,
	"oom":         OOMKilled,
}

// DetectForInvestigation runs Detect using an investigation's own alert
// and target, and assigns the result via Set. This is the pipeline's
// single family-detection call site (stage 2 of §4.3).
func DetectForInvestigation(inv *domain.Investigation) {
	alertname := ""
	if inv.Alert != nil {
		alertname = inv.Alert.AlertName()
	}
	fam, source := Detect(alertname, inv.Target.WorkloadKind, inv.Target.Playbook)
	Set(inv, fam, source)
}
