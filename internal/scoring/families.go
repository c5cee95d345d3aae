package scoring

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/diagnostics"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/logselect"
)

// scoreCrashloop ports score_crashloop: restart/waiting-reason driven
// impact, k8s-evidence driven confidence, flap/cardinality driven noise.
func scoreCrashloop(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	f := inv.Analysis.Features
	impact, confidence, noise := 0, 0, 0

	waiting := strings.ToLower(f.K8s.WaitingReason)
	if waiting == "crashloopbackoff" {
		impact += acc.add("impact", "CRASHLOOPBACKOFF", 60, "k8s.waiting_reason", "CrashLoopBackOff")
	}
	if f.K8s.RestartRate5mMax != nil && *f.K8s.RestartRate5mMax >= 3 {
		impact += acc.add("impact", "RESTART_RATE_HIGH", 35, "k8s.restart_rate_5m_max", fnum(*f.K8s.RestartRate5mMax))
	}
	if f.K8s.Ready != nil && !*f.K8s.Ready {
		impact += acc.add("impact", "POD_NOT_READY", 20, "k8s.ready", "Ready=False")
	}
	if f.K8s.WarningEventsCount >= 1 {
		impact += acc.add("impact", "WARNING_EVENTS", 10, "k8s.warning_events_count", "warning events present")
	}
	if fi, ok := firingInstances(inv); ok {
		if fi >= 20 {
			impact += acc.add("impact", "SCOPE_WIDESPREAD", 20, "noise.prometheus.firing_instances", fnum(fi))
		} else if fi >= 5 {
			impact += acc.add("impact", "SCOPE_MULTI_INSTANCE", 10, "noise.prometheus.firing_instances", fnum(fi))
		}
	}

	if waiting == "crashloopbackoff" {
		confidence += acc.add("confidence", "EVID_K8S_WAITING_REASON", 35, "k8s.waiting_reason", "waiting_reason present")
	}
	if f.K8s.RestartRate5mMax != nil && *f.K8s.RestartRate5mMax > 0 {
		confidence += acc.add("confidence", "EVID_RESTART_METRIC", 35, "k8s.restart_rate_5m_max", "restart metric corroborates")
	}
	if f.K8s.WarningEventsCount >= 1 {
		confidence += acc.add("confidence", "EVID_WARNING_EVENTS", 10, "k8s.warning_events_count", "warning events corroborate")
	}
	if hasAnyEventReason(f.K8s.RecentEventReasonsTop, "backoff", "unhealthy", "killing") {
		confidence += acc.add("confidence", "EVID_K8S_EVENTS_CRASHLOOP", 20, "k8s.recent_event_reasons_top", "BackOff/Unhealthy/Killing events present")
	}
	if containsStr(f.Quality.MissingInputs, "logs") {
		confidence += acc.add("confidence", "MISSING_LOGS", -15, "quality.missing_inputs", "logs unavailable")
	}
	if containsStr(f.Quality.MissingInputs, "labels.namespace") {
		confidence += acc.add("confidence", "MISSING_LABEL_NAMESPACE", -30, "quality.missing_inputs", "namespace label missing")
	}
	if containsStr(f.Quality.MissingInputs, "labels.pod") {
		confidence += acc.add("confidence", "MISSING_LABEL_POD", -30, "quality.missing_inputs", "pod label missing")
	}
	for _, cf := range f.Quality.ContradictionFlags {
		confidence += acc.add("confidence", cf, -40, "quality.contradiction_flags", "contradiction detected")
	}

	noise += metaAlertNoise(inv, &acc)
	noise += flapNoise(inv, &acc)
	noise += cardinalityNoise(inv, &acc, "pod", "pod_name")
	if waiting == "crashloopbackoff" {
		noise += acc.add("noise", "STRONG_SYMPTOM_CRASHLOOP", -30, "k8s.waiting_reason", "strong symptom reduces noise")
	}
	if f.K8s.RestartRate5mMax != nil && *f.K8s.RestartRate5mMax >= 3 {
		noise += acc.add("noise", "STRONG_SYMPTOM_RESTARTS", -10, "k8s.restart_rate_5m_max", "restart spike reduces noise")
	}

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	prefix := "Crashloop symptoms"
	if waiting == "crashloopbackoff" {
		prefix = "CrashLoopBackOff"
	}
	var bits []string
	if f.K8s.RestartRate5mMax != nil {
		bits = append(bits, "restart_rate_5m_max="+fnum(*f.K8s.RestartRate5mMax))
	}
	if len(f.K8s.ContainerLastTerminatedTop) > 0 {
		bits = append(bits, "last_terminated="+f.K8s.ContainerLastTerminatedTop[0])
	}
	oneLiner := prefix
	if len(bits) > 0 {
		oneLiner += ": " + strings.Join(bits, "; ")
	}
	if topLog := logselect.SelectBestLine(inv.Evidence.Logs.Raw); topLog != "" {
		oneLiner += "; top_log=" + topLog
	}

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "crashloop",
			OneLiner:       oneLiner,
			NextSteps: []string{
				"Check the Top events and last termination in the Appendix (probe failures vs BackOff vs explicit errors).",
				"Use the Appendix Logs snippet (prioritized errors); if it's only startup noise, expand the time window and re-run.",
				"If probes are failing, validate the dependency/readiness endpoint and consider rollback if there was a recent change.",
			},
		}
}

// scorePodNotHealthy ports score_pod_not_healthy: phase/ready/restart
// driven impact, target-label and k8s-api driven confidence.
func scorePodNotHealthy(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	f := inv.Analysis.Features
	impact, confidence, noise := 0, 0, 0

	phase := strings.ToLower(f.K8s.PodPhase)
	switch phase {
	case "failed":
		impact += acc.add("impact", "POD_PHASE_FAILED", 40, "k8s.pod_phase", "phase=Failed")
	case "pending":
		impact += acc.add("impact", "POD_PHASE_PENDING", 35, "k8s.pod_phase", "phase=Pending")
	case "unknown":
		impact += acc.add("impact", "POD_PHASE_UNKNOWN", 30, "k8s.pod_phase", "phase=Unknown")
	}
	if f.K8s.Ready != nil && !*f.K8s.Ready {
		impact += acc.add("impact", "POD_NOT_READY", 25, "k8s.ready", "ready=False")
	}
	if f.K8s.RestartRate5mMax != nil {
		if *f.K8s.RestartRate5mMax >= 3 {
			impact += acc.add("impact", "RESTART_RATE_HIGH", 30, "k8s.restart_rate_5m_max", fnum(*f.K8s.RestartRate5mMax))
		} else if *f.K8s.RestartRate5mMax >= 1 {
			impact += acc.add("impact", "RESTART_RATE_ELEVATED", 15, "k8s.restart_rate_5m_max", fnum(*f.K8s.RestartRate5mMax))
		}
	}
	switch f.K8s.WaitingReason {
	case "CrashLoopBackOff", "ImagePullBackOff", "ErrImagePull", "CreateContainerConfigError":
		impact += acc.add("impact", "WAITING_REASON_CRITICAL", 35, "k8s.waiting_reason", f.K8s.WaitingReason)
	case "ContainerCreating", "PodInitializing":
		impact += acc.add("impact", "WAITING_REASON_PROGRESSING", 10, "k8s.waiting_reason", f.K8s.WaitingReason)
	}
	if fi, ok := firingInstances(inv); ok {
		if fi >= 50 {
			impact += acc.add("impact", "IMPACT_WIDESPREAD", 25, "noise.prometheus.firing_instances", fnum(fi))
		} else if fi >= 20 {
			impact += acc.add("impact", "IMPACT_BROAD", 15, "noise.prometheus.firing_instances", fnum(fi))
		} else if fi >= 5 {
			impact += acc.add("impact", "IMPACT_MULTI", 5, "noise.prometheus.firing_instances", fnum(fi))
		}
	}

	if inv.Target.Namespace != "" && inv.Target.Pod != "" {
		confidence += acc.add("confidence", "EVID_TARGET_LABELS", 20, "target.namespace,target.pod", "namespace+pod present")
	}
	if phase == "pending" || phase == "failed" || phase == "unknown" {
		confidence += acc.add("confidence", "EVID_K8S_PHASE", 25, "k8s.pod_phase", "phase="+f.K8s.PodPhase)
	}
	if f.K8s.Ready != nil {
		confidence += acc.add("confidence", "EVID_K8S_READY_FIELD", 10, "k8s.ready", "ready field present")
	}
	if f.K8s.RestartCount != nil || f.K8s.RestartRate5mMax != nil {
		confidence += acc.add("confidence", "EVID_RESTART_SIGNAL", 10, "k8s.restart_count,k8s.restart_rate_5m_max", "restart signal present")
	}
	confidence += acc.add("confidence", "EVID_EVENTS_QUERIED", 5, "k8s.warning_events_count", "warnings="+fnum(float64(f.K8s.WarningEventsCount)))
	if containsStr(f.Quality.MissingInputs, "labels.namespace") {
		confidence += acc.add("confidence", "MISSING_LABEL_NAMESPACE", -30, "quality.missing_inputs", "namespace label missing")
	}
	if containsStr(f.Quality.MissingInputs, "labels.pod") {
		confidence += acc.add("confidence", "MISSING_LABEL_POD", -30, "quality.missing_inputs", "pod label missing")
	}
	hasRootcause := f.K8s.WaitingReason != "" || len(f.K8s.NotReadyConditions) > 0 ||
		len(f.K8s.ContainerWaitingReasonsTop) > 0 || len(f.K8s.ContainerLastTerminatedTop) > 0 ||
		len(f.K8s.RecentEventReasonsTop) > 0 || f.K8s.StatusReason != "" || f.K8s.StatusMessage != ""
	if f.K8s.Ready == nil && f.K8s.RestartCount == nil && f.K8s.RestartRate5mMax == nil && f.K8s.WarningEventsCount == 0 && !hasRootcause {
		confidence += acc.add("confidence", "MISSING_ROOTCAUSE_SIGNALS", -15, "k8s.ready,k8s.restart_count,k8s.warning_events_count,k8s.waiting_reason", "ready/restarts/events/waiting_reason not available")
	}

	noise += flapNoise(inv, &acc)
	noise += cardinalityNoiseExcluding(inv, &acc, []string{"job", "instance", "endpoint", "service", "container"}, "pod", "pod_name")
	if phase == "failed" || phase == "pending" {
		noise += acc.add("noise", "STRONG_SYMPTOM_PHASE", -20, "k8s.pod_phase", "explicit bad phase reduces noise")
	}

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	oneLiner := "Pod health alert: phase=" + f.K8s.PodPhase
	nextSteps := []string{
		"Check pod events and conditions in the Appendix for scheduling, mount, or image-pull failures.",
		"If phase is Pending, verify node capacity and PVC/ConfigMap/Secret availability.",
	}
	if f.K8s.WaitingReason == "ImagePullBackOff" || f.K8s.WaitingReason == "ErrImagePull" {
		oneLiner, nextSteps = imagePullOneLinerAndNextSteps(inv, f.K8s.WaitingReason)
	}

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "pod_not_healthy",
			OneLiner:       oneLiner,
			NextSteps:      nextSteps,
		}
}

// imagePullOneLinerAndNextSteps turns Evidence.K8s.ImagePullDiagnostics
// (populated at collection time by diagnostics.PopulateImagePullDiagnostics)
// into evidence-cited next steps instead of the generic image-pull advice:
// which bucket the kubelet error falls into, whether the ServiceAccount is
// missing imagePullSecrets, and — for an ECR-hosted image — a copy/paste
// `aws ecr describe-images` command scoped to the actual region/repo/tag.
func imagePullOneLinerAndNextSteps(inv *domain.Investigation, reason string) (string, []string) {
	diag := inv.Evidence.K8s.ImagePullDiagnostics
	image, _ := diag["image"].(string)
	bucket, _ := diag["error_bucket"].(string)
	evidence, _ := diag["error_evidence"].(string)

	oneLiner := "Container: " + reason
	if bucket == "" {
		bucket, evidence = diagnostics.ClassifyPullError(evidence)
	}

	ref := diagnostics.ParseImageRef(image)

	var nextSteps []string
	if sa, ok := diag["service_account_name"].(string); ok && sa != "" {
		if secrets, ok := diag["service_account_image_pull_secrets"].([]any); ok && len(secrets) == 0 {
			nextSteps = append(nextSteps, fmt.Sprintf("ServiceAccount `%s` has **no** `imagePullSecrets` configured.", sa))
		}
	}

	switch bucket {
	case "not_found":
		switch {
		case ref.Tag != "":
			oneLiner = "Registry reported **NotFound** pulling `" + ref.Repository + ":" + ref.Tag + "`"
			nextSteps = append(nextSteps, fmt.Sprintf("Registry reported **NotFound**; image tag likely missing: `%s:%s`", ref.Repository, ref.Tag))
		case ref.Digest != "":
			oneLiner = "Registry reported **NotFound** pulling `" + ref.Repository + "@" + ref.Digest + "`"
			nextSteps = append(nextSteps, fmt.Sprintf("Registry reported **NotFound**; image digest likely missing: `%s@%s`", ref.Repository, ref.Digest))
		default:
			oneLiner = "Registry reported **NotFound** for the container image"
			nextSteps = append(nextSteps, "Registry reported **NotFound**; image reference (repo/tag/digest) is likely wrong.")
		}
	case "auth":
		oneLiner = "Registry denied the image pull (auth/permissions)"
		nextSteps = append(nextSteps, "Registry reported **unauthorized/denied**; likely an auth/permissions issue (imagePullSecrets/IAM).")
	case "tls":
		oneLiner = "Image pull failed on a TLS/certificate error"
		nextSteps = append(nextSteps, "Registry pull failed due to **TLS/certificate** errors; validate the trust chain/proxy/registry certs on nodes.")
	case "network":
		oneLiner = "Image pull failed on a network/DNS error"
		nextSteps = append(nextSteps, "Registry pull failed due to **network/DNS/timeouts**; validate node egress and DNS to the registry endpoint.")
	default:
		oneLiner = "Image pull failed (" + reason + ")"
		nextSteps = append(nextSteps, "Image pull failed; use the exact kubelet error to distinguish NotFound vs auth vs network/TLS.")
	}

	if ref.IsECR && ref.ECRRegion != "" && ref.Repository != "" {
		switch {
		case ref.Tag != "":
			nextSteps = append(nextSteps, fmt.Sprintf("aws ecr describe-images --region %s --repository-name %s --image-ids imageTag=%s", ref.ECRRegion, ref.Repository, ref.Tag))
		case ref.Digest != "":
			nextSteps = append(nextSteps, fmt.Sprintf("aws ecr describe-images --region %s --repository-name %s --image-ids imageDigest=%s", ref.ECRRegion, ref.Repository, ref.Digest))
		}
	}
	if evidence != "" {
		nextSteps = append(nextSteps, fmt.Sprintf("Error excerpt: `%s`", evidence))
	}
	return oneLiner, nextSteps
}

// scoreCPUThrottling ports score_cpu_throttling: near-limit-scaled impact,
// usage/limit-ratio driven confidence, and a "not reproduced" contradiction.
func scoreCPUThrottling(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	f := inv.Analysis.Features
	impact, confidence, noise := 0, 0, 0

	t := f.Metrics.ThrottlingP95
	near := f.Metrics.CPUNearLimit

	var usageVsLimit *float64
	if f.Metrics.ThrottlingTopCont != nil {
		usageVsLimit = &f.Metrics.ThrottlingTopCont.Ratio
	} else if f.Metrics.CPUTopCont != nil {
		usageVsLimit = &f.Metrics.CPUTopCont.Ratio
	}

	if t != nil && *t > 25 {
		delta := 30
		if near {
			delta = 60
		}
		impact += acc.add("impact", "THROTTLING_P95_HIGH", delta, "metrics.throttling_p95", fnum(*t))
	}

	if t != nil {
		confidence += acc.add("confidence", "EVID_THROTTLING_METRIC", 40, "metrics.throttling_p95", "throttling series present")
	}
	if usageVsLimit != nil {
		confidence += acc.add("confidence", "EVID_USAGE_LIMIT_COMPUTED", 20, "metrics.cpu_top_container", fnum(*usageVsLimit))
	}
	if f.K8s.Ready != nil && *f.K8s.Ready {
		confidence += acc.add("confidence", "EVID_K8S_READY", 10, "k8s.ready", "pod Ready=True")
	}
	if inv.Target.Namespace != "" && inv.Target.Pod != "" {
		confidence += acc.add("confidence", "EVID_TARGET_LABELS", 10, "target.namespace,target.pod", "namespace+pod present")
	}
	notReproduced := t != nil && *t <= 1.0
	if notReproduced {
		confidence += acc.add("confidence", "THROTTLING_NOT_REPRODUCED", -40, "metrics.throttling_p95", fnum(*t))
		noise += acc.add("noise", "NOISE_RECOVERED_OR_MISMATCH", 20, "metrics.throttling_p95", "alert may have recovered or query/label mismatch")
	}
	if t != nil && *t > 25 && usageVsLimit != nil && *usageVsLimit < 0.2 {
		confidence += acc.add("confidence", "THROTTLING_USAGE_MISMATCH", -20, "metrics.cpu_top_container", "high throttling but low CPU usage")
		noise += acc.add("noise", "NOISE_THROTTLING_BURSTY", 15, "metrics.cpu_top_container", "likely bursty or metrics artifact")
	}

	noise += flapNoise(inv, &acc)
	if t != nil && *t > 25 {
		noise += acc.add("noise", "STRONG_SYMPTOM_THROTTLING", -20, "metrics.throttling_p95", "strong symptom reduces noise")
	}

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	oneLiner := "CPU throttling"
	if t != nil {
		oneLiner += ": p95=" + fnum(*t) + "%"
	}

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classifyCPUThrottling(impact, confidence, noise, near, notReproduced),
			PrimaryDriver:  "cpu_throttling",
			OneLiner:       oneLiner,
			NextSteps:      []string{"Compare the throttled container's CPU usage p95 against its configured limit; raise the limit or reduce the workload if consistently near it."},
		}
}

// scoreHTTP5xx ports score_http_5xx's core shape: 5xx-rate driven impact,
// metric-presence driven confidence.
func scoreHTTP5xx(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	f := inv.Analysis.Features
	impact, confidence, noise := 0, 0, 0

	r := f.Metrics.HTTP5xxRateP95
	if r != nil {
		switch {
		case *r >= 0.1:
			impact += acc.add("impact", "HTTP_5XX_RATE_HIGH", 60, "metrics.http_5xx_rate_p95", fnum(*r))
		case *r >= 0.02:
			impact += acc.add("impact", "HTTP_5XX_RATE_ELEVATED", 30, "metrics.http_5xx_rate_p95", fnum(*r))
		}
		confidence += acc.add("confidence", "EVID_5XX_METRIC", 40, "metrics.http_5xx_rate_p95", "5xx rate series present")
		if *r < 0.001 {
			confidence += acc.add("confidence", "5XX_NOT_REPRODUCED", -30, "metrics.http_5xx_rate_p95", fnum(*r))
			noise += acc.add("noise", "NOISE_RECOVERED_OR_MISMATCH", 20, "metrics.http_5xx_rate_p95", "alert may have recovered")
		}
	}
	if f.Logs.ErrorHits > 0 {
		confidence += acc.add("confidence", "EVID_LOGS_ERRORS", 15, "logs.error_hits", "error hits in logs corroborate")
	}
	if inv.Target.Namespace != "" && (inv.Target.Service != "" || inv.Target.WorkloadName != "") {
		confidence += acc.add("confidence", "EVID_TARGET_LABELS", 10, "target.namespace,target.service", "namespace+service present")
	}

	noise += flapNoise(inv, &acc)

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "http_5xx",
			OneLiner:       "Elevated HTTP 5xx error rate",
			NextSteps:      []string{"Check the Appendix logs snippet for the dominant error pattern, and whether a recent rollout correlates with the start of the 5xx increase."},
		}
}

// scoreOOMKilled ports score_oom_killed: OOM-confirmed impact, with an
// explicit corroboration-missing penalty when K8s evidence can't confirm
// the metrics-derived OOM signal.
func scoreOOMKilled(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	f := inv.Analysis.Features
	impact, confidence, noise := 0, 0, 0

	if f.K8s.OOMKilled {
		impact += acc.add("impact", "OOM_CONFIRMED", 70, "k8s.oom_killed", "OOMKilled observed")
		confidence += acc.add("confidence", "EVID_K8S_OOM", 50, "k8s.oom_killed", "K8s confirms OOMKilled")
	} else {
		impact += acc.add("impact", "OOM_ALERT_BASELINE", 40, "alert.alertname", "OOM alert fired")
		confidence += acc.add("confidence", "OOM_CORROBORATION_MISSING", -30, "k8s.oom_killed", "no K8s OOM corroboration")
	}
	if f.Metrics.MemoryNearLimit {
		impact += acc.add("impact", "MEMORY_NEAR_LIMIT", 20, "metrics.memory_near_limit", "memory usage near limit")
		confidence += acc.add("confidence", "EVID_MEMORY_METRIC", 25, "metrics.memory_p95", "memory usage metric corroborates")
	}
	if containsStr(f.Quality.ContradictionFlags, domain.ContradictionCrashloopReadyNoRestarts) {
		confidence += acc.add("confidence", domain.ContradictionCrashloopReadyNoRestarts, -40, "quality.contradiction_flags", "contradiction detected")
	}

	noise += flapNoise(inv, &acc)
	if f.K8s.OOMKilled {
		noise += acc.add("noise", "STRONG_SYMPTOM_OOM", -30, "k8s.oom_killed", "confirmed OOM reduces noise")
	}

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "oom_killed",
			OneLiner:       "Container memory usage triggered an OOM kill",
			NextSteps:      []string{"Compare memory usage p95 against the configured limit; raise the limit or investigate a leak if usage trends up across deploys."},
		}
}

// scoreMemoryPressure ports score_memory_pressure's shape as a near-limit,
// not-yet-killed variant of the OOM family.
func scoreMemoryPressure(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	f := inv.Analysis.Features
	impact, confidence, noise := 0, 0, 0

	if f.Metrics.MemoryP95 != nil {
		confidence += acc.add("confidence", "EVID_MEMORY_METRIC", 40, "metrics.memory_p95", fnum(*f.Metrics.MemoryP95))
	}
	if f.Metrics.MemoryNearLimit {
		impact += acc.add("impact", "MEMORY_NEAR_LIMIT", 50, "metrics.memory_near_limit", "memory usage near limit")
	}
	if f.K8s.OOMKilled {
		impact += acc.add("impact", "OOM_ALREADY_OCCURRED", 30, "k8s.oom_killed", "an OOM kill already occurred in-window")
		confidence += acc.add("confidence", "EVID_K8S_OOM", 20, "k8s.oom_killed", "K8s confirms a prior OOMKilled")
	}
	if inv.Target.Namespace != "" && inv.Target.Pod != "" {
		confidence += acc.add("confidence", "EVID_TARGET_LABELS", 10, "target.namespace,target.pod", "namespace+pod present")
	}

	noise += flapNoise(inv, &acc)
	if f.Metrics.MemoryNearLimit {
		noise += acc.add("noise", "STRONG_SYMPTOM_MEMORY", -15, "metrics.memory_near_limit", "near-limit usage reduces noise")
	}

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "memory_pressure",
			OneLiner:       "Container memory usage is approaching its configured limit",
			NextSteps:      []string{"Consider raising the memory limit proactively, or investigate usage trend before an OOM kill occurs."},
		}
}

// scoreMeta ports score_meta for Alertmanager-internal meta-alerts
// (InfoInhibitor, Watchdog, DeadMansSwitch): always low impact, high noise.
func scoreMeta(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	noise := acc.add("noise", "META_ALERT", 80, "alert.alertname", "Alertmanager meta-alert, not an investigation target")
	confidence := acc.add("confidence", "EVID_ALERTNAME", 60, "alert.alertname", "alertname identifies a known meta-alert")

	return domain.DeterministicScores{
			Impact: 0, Confidence: clamp0to100(confidence), Noise: clamp0to100(noise),
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: domain.ClassInformational,
			PrimaryDriver:  "meta",
			OneLiner:       "Alertmanager meta-alert; no investigation action needed",
			NextSteps:      []string{"No action needed; this alert monitors the alerting pipeline itself."},
		}
}

// scoreTargetDown ports score_target_down: firing-instance-count driven
// impact, alertname/label driven confidence, and a no-firing contradiction.
func scoreTargetDown(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	impact, confidence, noise := 0, 0, 0

	alertname := ""
	if inv.Alert != nil {
		alertname = inv.Alert.Labels["alertname"]
	}
	fi, ok := firingInstances(inv)
	switch {
	case ok && fi >= 1:
		impact += acc.add("impact", "TARGETS_DOWN", 70, "noise.prometheus.firing_instances", fnum(fi))
		if fi >= 5 {
			impact += acc.add("impact", "TARGETS_DOWN_MANY", 20, "noise.prometheus.firing_instances", fnum(fi))
		}
		if fi >= 20 {
			impact += acc.add("impact", "TARGETS_DOWN_MASS", 10, "noise.prometheus.firing_instances", fnum(fi))
		}
	default:
		impact += acc.add("impact", "TARGET_DOWN_ALERT", 50, "alert.alertname", alertname)
	}

	if strings.EqualFold(alertname, "targetdown") {
		confidence += acc.add("confidence", "EVID_TARGETDOWN_NAME", 60, "alert.alertname", "alertname=TargetDown")
	}
	if inv.Alert != nil && inv.Alert.Labels["instance"] != "" {
		confidence += acc.add("confidence", "EVID_INSTANCE_LABEL", 20, "labels.instance", inv.Alert.Labels["instance"])
	}
	if inv.Alert != nil && inv.Alert.Labels["job"] != "" {
		confidence += acc.add("confidence", "EVID_JOB_LABEL", 10, "labels.job", inv.Alert.Labels["job"])
	}
	if ok && fi == 0 {
		confidence += acc.add("confidence", domain.ContradictionTargetDownUpNone, -50, "noise.prometheus.firing_instances", "alert present but no firing instances found")
	}

	noise += flapNoise(inv, &acc)

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "target_down",
			OneLiner:       "Prometheus scrape target(s) unreachable",
			NextSteps:      []string{"Check whether the target pod/service is running and whether its metrics port/path is reachable from the scraper."},
		}
}

// scoreK8sRolloutHealth ports score_k8s_rollout_health, reusing change
// correlation's own score rather than recomputing rollout timing.
func scoreK8sRolloutHealth(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	impact, confidence, noise := 0, 0, 0

	cc := inv.Analysis.Change
	if f := inv.Analysis.Features; f.Changes.RolloutWithinWindow {
		impact += acc.add("impact", "ROLLOUT_WITHIN_WINDOW", 50, "features.changes.rollout_within_window", "recent rollout correlates with the incident window")
		confidence += acc.add("confidence", "EVID_CHANGE_CORRELATION", int(cc.Score*60), "change.score", fnum(cc.Score))
	} else {
		confidence += acc.add("confidence", "ROLLOUT_CONTRADICTION_NO_FIRING", -20, "change.score", "no correlated change found")
	}
	if inv.Target.WorkloadKind != "" && inv.Target.WorkloadName != "" {
		confidence += acc.add("confidence", "EVID_TARGET_LABELS", 15, "target.workload_kind,target.workload_name", "workload identity present")
	}

	noise += flapNoise(inv, &acc)

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "k8s_rollout_health",
			OneLiner:       "Workload rollout health degraded: " + cc.Summary,
			NextSteps:      []string{"Check rollout status conditions for Progressing=False or a stalled ReplicaSet; diff the current and previous pod template."},
		}
}

// scoreObservabilityPipeline ports score_observability_pipeline for alerts
// about the monitoring stack itself (logs/metrics backend unavailable).
func scoreObservabilityPipeline(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	f := inv.Analysis.Features
	impact, confidence, noise := 0, 0, 0

	if f.Logs.Status == "unavailable" {
		impact += acc.add("impact", "LOGS_BACKEND_UNAVAILABLE", 40, "logs.status", "logs backend unavailable")
		confidence += acc.add("confidence", "EVID_LOGS_STATUS", 40, "logs.status", "logs.status=unavailable")
	}
	if inv.Analysis.Noise.Prometheus.Status == "unavailable" {
		impact += acc.add("impact", "METRICS_BACKEND_UNAVAILABLE", 40, "noise.prometheus.status", "metrics backend unavailable")
		confidence += acc.add("confidence", "EVID_METRICS_STATUS", 40, "noise.prometheus.status", "noise.prometheus.status=unavailable")
	}

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "observability_pipeline",
			OneLiner:       "Observability backend degraded; evidence collection may be incomplete",
			NextSteps:      []string{"Check the logs/metrics backend's own health before trusting this investigation's evidence quality."},
		}
}

// scoreJobFailed ports score_job_failed: log-parsing-metadata driven
// impact tiers (fatal > exception > error), restart/repeated-failure
// bumps, and alert/log/context driven confidence.
func scoreJobFailed(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{}
	impact, confidence, noise := 0, 0, 0

	impact += acc.add("impact", "JOB_FAILED_BASELINE", 40, "alert.alertname", "Job failed")

	logs := inv.Evidence.Logs
	if len(logs.ParsedErrors) > 0 {
		fatal, exception, errorCount := countCountOf(logs.ParsingMetadata, "fatal_count"), countCountOf(logs.ParsingMetadata, "exception_count"), countCountOf(logs.ParsingMetadata, "error_count")
		if fatal > 0 {
			impact += acc.add("impact", "JOB_FATAL_IN_LOGS", 30, "evidence.logs.parsing_metadata.fatal_count", "FATAL patterns present")
		}
		if exception > 0 {
			impact += acc.add("impact", "JOB_EXCEPTION_IN_LOGS", 20, "evidence.logs.parsing_metadata.exception_count", "Exception patterns present")
		}
		if errorCount > 0 {
			impact += acc.add("impact", "JOB_ERROR_IN_LOGS", 15, "evidence.logs.parsing_metadata.error_count", "ERROR patterns present")
		}
		confidence += acc.add("confidence", "EVID_PARSED_ERRORS", 25, "evidence.logs.parsed_errors", "parsed errors present")
	} else if logs.Status == "ok" {
		noise += acc.add("noise", "JOB_EMPTY_LOGS", 15, "evidence.logs.status", "job logs are empty despite a successful fetch")
	}

	if restartCount := countCountOf(restartDataOf(inv), "restart_count"); restartCount > 1 {
		impact += acc.add("impact", "JOB_MULTIPLE_RESTARTS", 15, "evidence.metrics.restart_data.restart_count", "multiple restarts")
	}
	if rollout := inv.Evidence.K8s.RolloutStatus; rollout != nil {
		if failed := countCountOf(rollout, "failed"); failed > 1 {
			impact += acc.add("impact", "JOB_REPEATED_FAILURES", 10, "evidence.k8s.rollout_status.failed", "repeated failed attempts")
		}
	}

	confidence += acc.add("confidence", "EVID_ALERT_CONFIRMS_FAILURE", 60, "alert.alertname", "job-failure alert fired")
	if logs.Status == "ok" {
		confidence += acc.add("confidence", "EVID_LOGS_AVAILABLE", 15, "evidence.logs.status", "logs were retrievable")
	}
	if inv.Target.Namespace != "" && inv.Target.WorkloadName != "" {
		confidence += acc.add("confidence", "EVID_K8S_CONTEXT", 10, "target.namespace,target.workload_name", "job identity present")
	}

	impact, confidence, noise = clamp0to100(impact), clamp0to100(confidence), clamp0to100(noise)

	return domain.DeterministicScores{
			Impact: impact, Confidence: confidence, Noise: noise,
			ReasonCodes: acc.reasons, Breakdown: acc.breakdown,
		}, domain.DeterministicVerdict{
			Classification: classify(impact, confidence, noise),
			PrimaryDriver:  "job_failed",
			OneLiner:       "Kubernetes Job failed",
			NextSteps:      []string{"Check the Appendix logs snippet for the dominant error pattern, and any diagnostics hypotheses (S3/RDS/ECR access, crash-on-start) for a concrete fix."},
		}
}

// --- shared helpers ---

func firingInstances(inv *domain.Investigation) (float64, bool) {
	fi := inv.Analysis.Noise.Prometheus.FiringInstances
	if fi == nil {
		return 0, false
	}
	return float64(*fi), true
}

func hasAnyEventReason(reasons []string, targets ...string) bool {
	for _, r := range reasons {
		lr := strings.ToLower(r)
		for _, t := range targets {
			if strings.Contains(lr, t) {
				return true
			}
		}
	}
	return false
}

func metaAlertNoise(inv *domain.Investigation, acc *accumulator) int {
	if inv.Alert != nil && inv.Alert.Labels["alertname"] == "InfoInhibitor" {
		return acc.add("noise", "META_ALERT", 60, "alert.alertname", "InfoInhibitor is meta")
	}
	return 0
}

func flapNoise(inv *domain.Investigation, acc *accumulator) int {
	score := inv.Analysis.Noise.FlapScore
	switch {
	case score >= 80:
		return acc.add("noise", "NOISE_FLAP_HIGH", 40, "noise.flap_score", fnum(float64(score)))
	case score >= 40:
		return acc.add("noise", "NOISE_FLAP_MED", 20, "noise.flap_score", fnum(float64(score)))
	}
	return 0
}

func cardinalityNoise(inv *domain.Investigation, acc *accumulator, excludeIfWorkloadKnown ...string) int {
	return cardinalityNoiseExcluding(inv, acc, nil, excludeIfWorkloadKnown...)
}

func cardinalityNoiseExcluding(inv *domain.Investigation, acc *accumulator, alwaysExclude []string, excludeIfWorkloadKnown ...string) int {
	eph := filterOut(inv.Analysis.Noise.EphemeralLabels, alwaysExclude)
	if inv.Target.WorkloadKind != "" && inv.Target.WorkloadName != "" {
		eph = filterOut(eph, excludeIfWorkloadKnown)
	}
	if len(eph) == 0 {
		return 0
	}
	delta := 10 * len(eph)
	if delta > 30 {
		delta = 30
	}
	return acc.add("noise", "NOISE_CARDINALITY", delta, "noise.ephemeral_labels", strings.Join(firstN(eph, 6), ","))
}

func filterOut(xs, exclude []string) []string {
	if len(exclude) == 0 {
		return xs
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if !containsStr(exclude, x) {
			out = append(out, x)
		}
	}
	return out
}

func firstN(xs []string, n int) []string {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}

func countCountOf(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func restartDataOf(inv *domain.Investigation) map[string]any {
	for _, s := range inv.Evidence.Metrics.Restarts {
		if len(s.Values) > 0 {
			return map[string]any{"restart_count": len(s.Values)}
		}
	}
	return nil
}
