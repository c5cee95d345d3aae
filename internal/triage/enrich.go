package triage

import (
	"fmt"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/family"
)

// FamilyEnrichment builds the family-specific enrichment Decision (§4.3
// stage 11). It is additive: nil means "no enrichment profile for this
// family yet", in which case the report only shows the base triage
// Decision. Every branch resolves concrete PromQL/kubectl next steps from
// evidence already on the investigation rather than emitting templates
// with unresolved placeholders.
func FamilyEnrichment(inv *domain.Investigation) *domain.Decision {
	switch family.Get(inv) {
	case family.K8sRolloutHealth:
		return enrichK8sRolloutHealth(inv)
	case family.TargetDown:
		return enrichTargetDown(inv)
	case family.PodNotHealthy:
		return enrichPodNotHealthy(inv)
	case family.OOMKilled:
		return enrichOOMKilled(inv)
	case family.HTTP5xx:
		return enrichHTTP5xx(inv)
	case family.MemoryPressure:
		return enrichMemoryPressure(inv)
	case family.CPUThrottling:
		return enrichCPUThrottling(inv)
	case family.ObservabilityPipeline:
		return enrichObservabilityPipeline(inv)
	case family.Meta:
		return enrichMeta(inv)
	case family.JobFailed:
		return enrichJobFailed(inv)
	case family.Crashloop:
		return enrichCrashloop(inv)
	default:
		return nil
	}
}

func rolloutSummary(rs map[string]any) (why string, label string) {
	kind, _ := rs["kind"].(string)
	name, _ := rs["name"].(string)
	if kind == "" || name == "" {
		return "", ""
	}
	switch kind {
	case "Deployment":
		why = fmt.Sprintf("Rollout: Deployment/%s ready=%v/%v updated=%v unavailable=%v",
			name, rs["ready_replicas"], rs["replicas"], rs["updated_replicas"], rs["unavailable_replicas"])
		if n, ok := rs["unavailable_replicas"].(int); ok && n > 0 {
			label = "suspected_rollout_stuck"
		} else if r, ok1 := rs["replicas"].(int); ok1 {
			if ready, ok2 := rs["ready_replicas"].(int); ok2 && ready != r {
				label = "suspected_replicas_mismatch"
			}
		}
	case "StatefulSet":
		why = fmt.Sprintf("Rollout: StatefulSet/%s ready=%v/%v current=%v updated=%v",
			name, rs["ready_replicas"], rs["replicas"], rs["current_replicas"], rs["updated_replicas"])
	case "DaemonSet":
		why = fmt.Sprintf("Rollout: DaemonSet/%s ready=%v/%v updated=%v",
			name, rs["number_ready"], rs["desired_number_scheduled"], rs["updated_number_scheduled"])
	case "Job":
		why = fmt.Sprintf("Job status: active=%v succeeded=%v failed=%v", rs["active"], rs["succeeded"], rs["failed"])
		if f, ok := rs["failed"].(int); ok && f > 0 {
			label = "suspected_job_failed"
		}
	}
	return why, label
}

func enrichK8sRolloutHealth(inv *domain.Investigation) *domain.Decision {
	rs := inv.Evidence.K8s.RolloutStatus
	ns, wk, wn := inv.Target.Namespace, inv.Target.WorkloadKind, inv.Target.WorkloadName

	var why, next []string
	if wk != "" && wn != "" {
		why = append(why, fmt.Sprintf("Workload: %s/%s", wk, wn))
	}
	label := "unknown_needs_human"
	if rs != nil {
		if w, l := rolloutSummary(rs); w != "" {
			why = append(why, w)
			if l != "" {
				label = l
			}
		}
	}

	if ns != "" && wk != "" && wn != "" {
		switch wk {
		case "Deployment":
			next = append(next,
				fmt.Sprintf(`kube_deployment_status_replicas{namespace="%s",deployment="%s"}`, ns, wn),
				fmt.Sprintf(`kube_deployment_status_replicas_unavailable{namespace="%s",deployment="%s"}`, ns, wn),
				fmt.Sprintf("kubectl -n %s rollout status deployment/%s", ns, wn))
		case "StatefulSet":
			next = append(next,
				fmt.Sprintf(`kube_statefulset_status_replicas_ready{namespace="%s",statefulset="%s"}`, ns, wn),
				fmt.Sprintf("kubectl -n %s rollout status statefulset/%s", ns, wn))
		case "DaemonSet":
			next = append(next,
				fmt.Sprintf(`kube_daemonset_status_number_ready{namespace="%s",daemonset="%s"}`, ns, wn),
				fmt.Sprintf("kubectl -n %s rollout status daemonset/%s", ns, wn))
		case "Job":
			next = append(next,
				fmt.Sprintf(`kube_job_status_failed{namespace="%s",job_name="%s"}`, ns, wn),
				fmt.Sprintf("kubectl -n %s describe job %s", ns, wn))
		}
	} else {
		next = append(next, "Workload identity missing; follow base triage to discover workload/namespace first.")
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichTargetDown(inv *domain.Investigation) *domain.Decision {
	labels := inv.Alert.Labels
	ns := firstNonEmpty(inv.Target.Namespace, labels["namespace"])
	job := firstNonEmpty(inv.Target.Job, labels["job"])
	instance := firstNonEmpty(inv.Target.Instance, labels["instance"])
	service := firstNonEmpty(inv.Target.Service, labels["service"])

	var why, next []string
	if job != "" {
		w := "Scrape target: job=" + job
		if instance != "" {
			w += " instance=" + instance
		}
		why = append(why, w)
	} else if instance != "" {
		why = append(why, "Scrape target: instance="+instance)
	}
	if ns != "" && service != "" {
		why = append(why, fmt.Sprintf("Service label: %s/%s", ns, service))
	}
	if firing := inv.Analysis.Noise.Prometheus.FiringInstances; firing != nil {
		why = append(why, fmt.Sprintf("Targets reported down (best-effort): %d", *firing))
	}

	label := "unknown_needs_human"
	if instance != "" {
		label = "suspected_single_endpoint_down"
	} else if job != "" {
		label = "suspected_job_wide_scrape_failure"
	}

	if job != "" && instance != "" {
		next = append(next, fmt.Sprintf(`up{job="%s",instance="%s"}`, job, instance))
	}
	if job != "" {
		next = append(next, fmt.Sprintf(`sum(up{job="%s"} == 0)`, job))
	}
	if ns != "" && service != "" {
		next = append(next, fmt.Sprintf(`sum(up{namespace="%s",service="%s"} == 0)`, ns, service))
	}
	next = append(next, "Check Prometheus /targets for the affected job/instance and inspect the last scrape error.")

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichObservabilityPipeline(inv *domain.Investigation) *domain.Decision {
	alertname := ""
	if inv.Alert != nil {
		alertname = inv.Alert.AlertName()
	}
	labels := inv.Alert.Labels
	job := firstNonEmpty(inv.Target.Job, labels["job"])
	instance := firstNonEmpty(inv.Target.Instance, labels["instance"])

	why := []string{"Alert: " + orUnknown(alertname)}
	if job != "" || instance != "" {
		why = append(why, fmt.Sprintf("Component labels: job=%s instance=%s", orNA(job), orNA(instance)))
	}

	label := "suspected_prometheus_or_vm_incident"

	var next []string
	if job != "" && instance != "" {
		next = append(next, fmt.Sprintf(`up{job="%s",instance="%s"}`, job, instance))
	} else if job != "" {
		next = append(next, fmt.Sprintf(`sum(up{job="%s"} == 0)`, job))
	}
	next = append(next,
		`topk(20, count by (alertname) (ALERTS{alertstate="firing"}))`,
		"If many observability-related alerts are firing at once, treat as a platform incident.",
		"Check the affected component logs (vmalert/prometheus/agent) for rule evaluation or ingestion errors.")

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichMeta(inv *domain.Investigation) *domain.Decision {
	alertname := ""
	if inv.Alert != nil {
		alertname = inv.Alert.AlertName()
	}
	why := []string{"This is a meta/inhibitor alert intended to suppress other alerts, not a direct symptom."}
	if alertname != "" {
		why = append(why, "Alert: "+alertname)
	}
	label := "misrouted_meta_alert"
	if alertname == "InfoInhibitor" {
		label = "expected_inhibitor"
	}
	next := []string{
		"Confirm this alert is routed to a non-paging receiver, not to on-call paging.",
		"Verify Alertmanager inhibition rules and grouping are configured as expected.",
	}
	return &domain.Decision{Label: label, Why: why, Next: next}
}

func enrichPodNotHealthy(inv *domain.Investigation) *domain.Decision {
	f := inv.Analysis.Features
	ns, pod := inv.Target.Namespace, inv.Target.Pod

	var why []string
	if f.K8s.PodPhase != "" {
		bits := "phase=" + f.K8s.PodPhase
		if f.K8s.Ready != nil {
			bits += fmt.Sprintf(" ready=%v", *f.K8s.Ready)
		}
		if f.K8s.StatusReason != "" {
			bits += " reason=" + f.K8s.StatusReason
		}
		why = append(why, "Pod status: "+bits)
	}
	for _, w := range take(f.K8s.ContainerWaitingReasonsTop, 3) {
		why = append(why, "Container waiting: "+w)
	}
	for _, t := range take(f.K8s.ContainerLastTerminatedTop, 3) {
		why = append(why, "Last terminated: "+t)
	}
	if f.K8s.RestartRate5mMax != nil {
		why = append(why, fmt.Sprintf("Restart spike: restart_rate_5m_max=%.2f", *f.K8s.RestartRate5mMax))
	} else if f.K8s.RestartCount != nil {
		why = append(why, fmt.Sprintf("Restart count: %d", *f.K8s.RestartCount))
	}
	if f.K8s.WarningEventsCount == 0 {
		why = append(why, "Warnings queried: 0")
	} else {
		why = append(why, take(f.K8s.RecentEventReasonsTop, 3)...)
	}

	label := podNotHealthyLabel(f)
	if containsStr(f.Quality.MissingInputs, "k8s.pod_info") {
		label = "blocked_no_k8s_context"
		why = append([]string{"K8s context unavailable; cannot extract waiting reasons/events/status."}, why...)
	}

	var next []string
	if ns != "" && pod != "" {
		next = append(next,
			fmt.Sprintf(`max by (namespace, pod, phase) (kube_pod_status_phase{namespace="%s",pod="%s"})`, ns, pod),
			fmt.Sprintf(`increase(kube_pod_container_status_restarts_total{namespace="%s",pod="%s"}[30m])`, ns, pod),
			fmt.Sprintf("kubectl -n %s describe pod %s", ns, pod))
	} else {
		next = append(next, "Target pod identity missing; follow base triage to discover namespace/pod first.")
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func podNotHealthyLabel(f domain.DerivedFeatures) string {
	if f.K8s.OOMKilled {
		return "suspected_oom_killed"
	}
	if f.K8s.Evicted {
		return "suspected_evicted"
	}
	if len(f.K8s.ContainerWaitingReasonsTop) > 0 {
		return "suspected_container_waiting"
	}
	return "unknown_needs_human"
}

func enrichOOMKilled(inv *domain.Investigation) *domain.Decision {
	f := inv.Analysis.Features
	ns, pod, c := inv.Target.Namespace, inv.Target.Pod, inv.Target.Container

	var why []string
	if len(f.K8s.ContainerLastTerminatedTop) > 0 {
		why = append(why, "Last terminated: "+f.K8s.ContainerLastTerminatedTop[0])
	}
	if f.K8s.RestartRate5mMax != nil {
		why = append(why, fmt.Sprintf("Restart spike: restart_rate_5m_max=%.2f", *f.K8s.RestartRate5mMax))
	}
	if f.Metrics.MemoryP95 != nil {
		why = append(why, fmt.Sprintf("Memory p95: %.0f", *f.Metrics.MemoryP95))
	}

	label := "unknown_needs_human"
	if f.K8s.Evicted {
		label = "suspected_node_pressure"
	} else if f.Metrics.MemoryNearLimit {
		label = "suspected_oom_limit_too_low"
	} else if f.K8s.OOMKilled {
		label = "suspected_memory_leak_or_spike"
	}

	var next []string
	if ns != "" && pod != "" {
		csel := c
		if csel == "" {
			csel = "<container>"
		}
		next = append(next,
			fmt.Sprintf(`quantile_over_time(0.95, sum by (namespace, pod, container) (container_memory_working_set_bytes{namespace="%s",pod="%s",container="%s"})[30m])`, ns, pod, csel),
			fmt.Sprintf(`max by (namespace, pod, container) (kube_pod_container_resource_limits{namespace="%s",pod="%s",container="%s",resource="memory"})`, ns, pod, csel),
			fmt.Sprintf("kubectl -n %s describe pod %s", ns, pod))
	} else {
		next = append(next, "Target identity missing; follow base triage to discover namespace/pod/container first.")
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichHTTP5xx(inv *domain.Investigation) *domain.Decision {
	f := inv.Analysis.Features

	var why []string
	if f.Metrics.HTTP5xxRateP95 != nil {
		why = append(why, fmt.Sprintf("HTTP 5xx rate p95: %.3f", *f.Metrics.HTTP5xxRateP95))
	}
	if f.Changes.RolloutWithinWindow {
		why = append(why, "Recent change detected within window (possible rollout regression).")
	}

	label := "unknown_needs_human"
	if f.Changes.RolloutWithinWindow {
		label = "suspected_rollout_regression"
	} else if f.Logs.TimeoutHits > 0 {
		label = "suspected_infra_network"
	}

	next := []string{
		`topk(10, sum by (namespace, service) (rate(http_requests_total{status=~"5.."}[5m])))`,
	}
	if inv.Target.TargetType == domain.TargetPod && inv.Target.Namespace != "" && inv.Target.Pod != "" {
		next = append(next, fmt.Sprintf("kubectl -n %s describe pod %s", inv.Target.Namespace, inv.Target.Pod))
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichMemoryPressure(inv *domain.Investigation) *domain.Decision {
	f := inv.Analysis.Features
	ns, pod, c := inv.Target.Namespace, inv.Target.Pod, inv.Target.Container

	var why []string
	if f.K8s.PodPhase != "" || f.K8s.StatusReason != "" {
		why = append(why, fmt.Sprintf("Pod status: phase=%s reason=%s", f.K8s.PodPhase, f.K8s.StatusReason))
	}
	if f.Metrics.MemoryP95 != nil {
		why = append(why, fmt.Sprintf("Memory p95: %.0f", *f.Metrics.MemoryP95))
	}
	if f.Metrics.MemoryNearLimit {
		why = append(why, "Memory near limit: yes (p95 >= 90% of limit)")
	}

	label := "unknown_needs_human"
	if f.K8s.Evicted {
		label = "suspected_node_pressure_or_eviction"
	} else if f.Metrics.MemoryNearLimit {
		label = "suspected_container_near_limit"
	} else if f.Metrics.MemoryP95 != nil {
		label = "suspected_memory_leak_or_spike"
	}

	var next []string
	if ns != "" && pod != "" {
		csel := c
		if csel == "" {
			csel = "<container>"
		}
		next = append(next,
			fmt.Sprintf(`quantile_over_time(0.95, sum by (namespace, pod, container) (container_memory_working_set_bytes{namespace="%s",pod="%s",container="%s"})[30m])`, ns, pod, csel),
			fmt.Sprintf("kubectl -n %s describe pod %s", ns, pod))
	} else {
		next = append(next, "Target identity missing; follow base triage to discover namespace/pod/container first.")
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichCPUThrottling(inv *domain.Investigation) *domain.Decision {
	f := inv.Analysis.Features
	ns, pod := inv.Target.Namespace, inv.Target.Pod
	c := inv.Target.Container
	if c == "" && f.Metrics.ThrottlingTopCont != nil {
		c = f.Metrics.ThrottlingTopCont.Container
	}

	var why []string
	if f.Metrics.ThrottlingP95 != nil {
		why = append(why, fmt.Sprintf("CPU throttling p95: %.1f%%", *f.Metrics.ThrottlingP95))
	}
	if f.Metrics.ThrottlingTopCont != nil {
		why = append(why, fmt.Sprintf("Top throttled container (inferred): %s (p95=%.1f%%)",
			f.Metrics.ThrottlingTopCont.Container, f.Metrics.ThrottlingTopCont.P95))
	}
	if f.Metrics.CPUNearLimit {
		why = append(why, "CPU near limit: yes (p95 >= 80% of limit)")
	}

	label := "unknown_needs_human"
	if f.Metrics.ThrottlingP95 != nil && *f.Metrics.ThrottlingP95 >= 25 {
		if f.Metrics.CPUNearLimit {
			label = "suspected_cpu_limit_too_low"
		} else {
			label = "suspected_cfs_throttle_but_usage_low"
		}
	}

	var next []string
	if ns != "" && pod != "" {
		csel := c
		if csel == "" {
			csel = "<container>"
		}
		next = append(next,
			fmt.Sprintf(`100 * sum by(container,pod,namespace) (increase(container_cpu_cfs_throttled_periods_total{namespace="%s",pod="%s",container="%s"}[5m])) / clamp_min(sum by(container,pod,namespace) (increase(container_cpu_cfs_periods_total{namespace="%s",pod="%s",container="%s"}[5m])), 1)`, ns, pod, csel, ns, pod, csel),
			fmt.Sprintf("kubectl -n %s describe pod %s", ns, pod))
	} else {
		next = append(next, "Target identity missing; follow base triage to discover namespace/pod/container first.")
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichJobFailed(inv *domain.Investigation) *domain.Decision {
	f := inv.Analysis.Features
	ns, wn, pod := inv.Target.Namespace, inv.Target.WorkloadName, inv.Target.Pod

	var why []string
	if rs := inv.Evidence.K8s.RolloutStatus; rs != nil {
		if kind, _ := rs["kind"].(string); kind == "Job" {
			why = append(why, fmt.Sprintf("Job status: active=%v succeeded=%v failed=%v", rs["active"], rs["succeeded"], rs["failed"]))
		}
	}
	if len(f.K8s.ContainerLastTerminatedTop) > 0 {
		why = append(why, "Container exit: "+f.K8s.ContainerLastTerminatedTop[0])
	}
	if f.Logs.ErrorHits > 0 {
		why = append(why, fmt.Sprintf("Error patterns in logs: %d occurrences", f.Logs.ErrorHits))
	}

	label := "job_failed"

	var next []string
	if ns != "" && wn != "" {
		next = append(next,
			fmt.Sprintf(`kube_job_status_failed{namespace="%s",job_name="%s"}`, ns, wn),
			fmt.Sprintf("kubectl -n %s describe job %s", ns, wn),
			fmt.Sprintf("kubectl -n %s get pods -l job-name=%s", ns, wn))
	}
	if ns != "" && pod != "" {
		next = append(next, fmt.Sprintf("kubectl -n %s logs %s", ns, pod))
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func enrichCrashloop(inv *domain.Investigation) *domain.Decision {
	f := inv.Analysis.Features
	ns, pod, c := inv.Target.Namespace, inv.Target.Pod, inv.Target.Container

	var why []string
	if f.K8s.PodPhase != "" || f.K8s.WaitingReason != "" {
		why = append(why, fmt.Sprintf("Pod status: phase=%s waiting_reason=%s", f.K8s.PodPhase, f.K8s.WaitingReason))
	}
	if f.K8s.RestartRate5mMax != nil {
		why = append(why, fmt.Sprintf("Restart spike: restart_rate_5m_max=%.2f", *f.K8s.RestartRate5mMax))
	}
	if inv.Meta.CrashDurationSeconds > 0 {
		why = append(why, fmt.Sprintf("Observed crash-to-crash interval: %.0fs", inv.Meta.CrashDurationSeconds))
	}
	if inv.Meta.ProbeFailureType != "" {
		why = append(why, "Probe failure type: "+inv.Meta.ProbeFailureType)
	}

	label := "suspected_crashloop"
	if f.K8s.WaitingReason == "CrashLoopBackOff" {
		label = "confirmed_crashloop"
	}

	var next []string
	if ns != "" && pod != "" {
		csel := c
		if csel == "" {
			csel = "<container>"
		}
		next = append(next,
			fmt.Sprintf(`increase(kube_pod_container_status_restarts_total{namespace="%s",pod="%s",container="%s"}[30m])`, ns, pod, csel),
			fmt.Sprintf("kubectl -n %s logs %s --previous", ns, pod),
			fmt.Sprintf("kubectl -n %s describe pod %s", ns, pod))
	} else {
		next = append(next, "Target identity missing; follow base triage to discover namespace/pod/container first.")
	}

	return &domain.Decision{Label: label, Why: take(why, 10), Next: take(next, 10)}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func containsStr(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
