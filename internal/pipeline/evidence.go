package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/codeready-toolchain/tarka/internal/diagnostics"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/providers"
	"github.com/codeready-toolchain/tarka/internal/redact"
)

// logRedactor scrubs secret-shaped content out of raw log lines before
// they reach a persisted report. Stateless, shared across investigations.
var logRedactor = redact.New()

// metricsRangeStep is the sampling resolution used for metrics-evidence
// range queries, matching the capacity analyzer's own lookback resolution
// so the two stages agree on what "one data point" means.
const metricsRangeStep = 60 * time.Second

// collectK8s populates Evidence.K8s via the Kubernetes API, best-effort:
// a pod-shaped target fetches pod-level evidence, a workload-shaped one
// (or a pod whose owning workload is known) fetches rollout status. A Job
// target never carries a Pod (the ingest-time label for one was the
// kube-state-metrics scrape pod, sanitized away in targetFromLabels), so
// its actual pods are discovered here via a job-name label selector;
// finding none means the Job's pods were already TTL-deleted, recorded as
// Meta.BlockedMode so triage can surface it instead of silently skipping
// pod evidence. Failures are recorded as non-fatal investigation errors;
// nothing here aborts the run.
func collectK8s(ctx context.Context, k8s providers.K8sProvider, inv *domain.Investigation) {
	if k8s == nil {
		return
	}
	t := inv.Target

	pod := t.Pod
	if t.WorkloadKind == "Job" && pod == "" && t.Namespace != "" && t.WorkloadName != "" {
		pods, err := k8s.ListPods(ctx, t.Namespace, map[string]string{"job-name": t.WorkloadName})
		switch {
		case err != nil:
			inv.AddError("evidence:k8s.list_pods", err)
		case len(pods) == 0:
			inv.Meta.BlockedMode = "job_pods_not_found"
		default:
			if name, ok := pods[0]["name"].(string); ok && name != "" {
				pod = name
				inv.Target.Pod = name
			}
		}
	}

	if t.TargetType == domain.TargetPod && t.Namespace != "" && pod != "" {
		if info, err := k8s.PodInfo(ctx, t.Namespace, pod); err != nil {
			inv.AddError("evidence:k8s.pod_info", err)
		} else {
			inv.Evidence.K8s.PodInfo = info
			diagnostics.PopulateImagePullDiagnostics(inv, info)
		}
		if conds, err := k8s.PodConditions(ctx, t.Namespace, pod); err != nil {
			inv.AddError("evidence:k8s.pod_conditions", err)
		} else {
			inv.Evidence.K8s.PodConditions = conds
		}
		if events, err := k8s.PodEvents(ctx, t.Namespace, pod); err != nil {
			inv.AddError("evidence:k8s.pod_events", err)
		} else {
			inv.Evidence.K8s.PodEvents = events
		}
		if chain, err := k8s.OwnerChain(ctx, t.Namespace, pod); err != nil {
			inv.AddError("evidence:k8s.owner_chain", err)
		} else {
			inv.Evidence.K8s.OwnerChain = chain
		}
	}

	if t.WorkloadKind != "" && t.WorkloadName != "" && t.Namespace != "" {
		status, err := k8s.WorkloadRolloutStatus(ctx, t.Namespace, t.WorkloadKind, t.WorkloadName)
		if err != nil {
			inv.AddError("evidence:k8s.rollout_status", err)
		} else {
			inv.Evidence.K8s.RolloutStatus = status
		}
	}
}

// collectMetrics populates Evidence.Metrics, the raw series feeding
// features.Metrics, using the same container/pod-selector PromQL idiom
// [[capacity]] uses for its own rightsizing lookback.
func collectMetrics(ctx context.Context, prom providers.PrometheusProvider, inv *domain.Investigation) {
	if prom == nil || inv.Target.Namespace == "" {
		return
	}
	t := inv.Target

	queries := []struct {
		query string
		dest  *[]domain.PromSeries
	}{
		{throttlingQuery(t), &inv.Evidence.Metrics.Throttling},
		{cpuUsageQuery(t), &inv.Evidence.Metrics.CPU},
		{memUsageQuery(t), &inv.Evidence.Metrics.Memory},
		{restartsQuery(t), &inv.Evidence.Metrics.Restarts},
		{podPhaseQuery(t), &inv.Evidence.Metrics.PodPhase},
	}
	for _, q := range queries {
		series, err := prom.RangeQuery(ctx, q.query, inv.Window, metricsRangeStep)
		if err != nil {
			inv.AddError("evidence:metrics", err)
			continue
		}
		*q.dest = series
	}

	if t.Service != "" {
		series, err := prom.RangeQuery(ctx, http5xxQuery(t), inv.Window, metricsRangeStep)
		if err != nil {
			inv.AddError("evidence:metrics.http_5xx", err)
		} else {
			inv.Evidence.Metrics.HTTP5xx = series
		}
	}
}

func throttlingQuery(t domain.TargetRef) string {
	return fmt.Sprintf(`100 * sum by(container,pod,namespace) (increase(container_cpu_cfs_throttled_periods_total{namespace=%q,pod=~%q}[5m])) / clamp_min(sum by(container,pod,namespace) (increase(container_cpu_cfs_periods_total{namespace=%q,pod=~%q}[5m])), 1)`,
		t.Namespace, podSelector(t), t.Namespace, podSelector(t))
}

func cpuUsageQuery(t domain.TargetRef) string {
	return fmt.Sprintf(`rate(container_cpu_usage_seconds_total{namespace=%q,pod=~%q}[5m])`, t.Namespace, podSelector(t))
}

func memUsageQuery(t domain.TargetRef) string {
	return fmt.Sprintf(`container_memory_working_set_bytes{namespace=%q,pod=~%q}`, t.Namespace, podSelector(t))
}

func restartsQuery(t domain.TargetRef) string {
	return fmt.Sprintf(`increase(kube_pod_container_status_restarts_total{namespace=%q,pod=~%q}[30m])`, t.Namespace, podSelector(t))
}

func podPhaseQuery(t domain.TargetRef) string {
	return fmt.Sprintf(`max by (namespace, pod, phase) (kube_pod_status_phase{namespace=%q,pod=~%q})`, t.Namespace, podSelector(t))
}

func http5xxQuery(t domain.TargetRef) string {
	return fmt.Sprintf(`sum by (namespace, service) (rate(http_requests_total{namespace=%q,service=%q,status=~"5.."}[5m]))`, t.Namespace, t.Service)
}

func podSelector(t domain.TargetRef) string {
	if t.Pod != "" {
		return t.Pod
	}
	if t.WorkloadName != "" {
		return t.WorkloadName + ".*"
	}
	return ".*"
}

// collectLogs populates Evidence.Logs. Status/Reason are left to the
// provider to set on its own LogsEvidence return value (e.g. "unavailable"
// on a backend error, "empty" on zero matches); this stage only decides
// whether there's enough target identity to query at all.
func collectLogs(ctx context.Context, logs providers.LogsProvider, inv *domain.Investigation) {
	if logs == nil || inv.Target.Namespace == "" {
		return
	}
	query := logsSelector(inv.Target)
	ev, err := logs.Query(ctx, query, inv.Window)
	if err != nil {
		inv.AddError("evidence:logs", err)
		inv.Evidence.Logs.Status = "unavailable"
		inv.Evidence.Logs.Reason = err.Error()
		inv.Evidence.Logs.Query = query
		return
	}
	if ev.Query == "" {
		ev.Query = query
	}
	for i := range ev.Raw {
		ev.Raw[i].Message = logRedactor.Redact(ev.Raw[i].Message)
	}
	for i := range ev.ParsedErrors {
		ev.ParsedErrors[i].Message = logRedactor.Redact(ev.ParsedErrors[i].Message)
	}
	inv.Evidence.Logs = ev
}

func logsSelector(t domain.TargetRef) string {
	if t.Pod != "" {
		return fmt.Sprintf(`{namespace=%q, pod=%q}`, t.Namespace, t.Pod)
	}
	if t.WorkloadName != "" {
		return fmt.Sprintf(`{namespace=%q, pod=~%q}`, t.Namespace, t.WorkloadName+".*")
	}
	return fmt.Sprintf(`{namespace=%q}`, t.Namespace)
}

// awsResourceLabelKeys is the closed set of alert-label/annotation keys
// recognized as AWS resource identifiers, keyed by the ResourceStatus kind
// they belong to. An alert carries at most a handful of these; any present
// are resolved in one ResourceStatus call per kind.
var awsResourceLabelKeys = map[string]string{
	"instance_id":             "ec2",
	"ec2_instance_id":         "ec2",
	"volume_id":               "ebs",
	"db_instance_identifier":  "rds",
	"load_balancer_name":      "elb",
	"repository_name":        "ecr",
}

// awsInstanceIDPattern recognizes the literal shape of an EC2 instance id
// so a node target's Instance field (which may otherwise be an IP:port
// scrape address) is only treated as an AWS resource when it plausibly is
// one.
var awsInstanceIDPattern = regexp.MustCompile(`^i-[0-9a-f]{8,17}$`)

// collectAWS populates Evidence.AWS when the alert's labels/annotations
// carry a recognizable AWS resource identifier. Most alerts carry none, so
// this is a no-op for the common case, not a fallback path.
func collectAWS(ctx context.Context, aws providers.AWSProvider, inv *domain.Investigation) {
	if aws == nil || inv.Alert == nil {
		return
	}
	byKind := map[string][]string{}
	for key, kind := range awsResourceLabelKeys {
		if v := inv.Alert.Labels[key]; v != "" {
			byKind[kind] = append(byKind[kind], v)
		}
		if v := inv.Alert.Annotations[key]; v != "" {
			byKind[kind] = append(byKind[kind], v)
		}
	}
	if inv.Target.TargetType == domain.TargetNode && awsInstanceIDPattern.MatchString(inv.Target.Instance) {
		byKind["ec2"] = append(byKind["ec2"], inv.Target.Instance)
	}
	if len(byKind) == 0 {
		return
	}

	resources := map[string]map[string]any{}
	for kind, ids := range byKind {
		status, err := aws.ResourceStatus(ctx, kind, ids)
		if err != nil {
			inv.AddError("evidence:aws."+kind, err)
			continue
		}
		for id, s := range status {
			if resources[kind] == nil {
				resources[kind] = map[string]any{}
			}
			resources[kind][id] = s
		}
	}
	inv.Evidence.AWS.Resources = resources

	for kind, ids := range byKind {
		for _, id := range ids {
			events, err := aws.CloudTrailEvents(ctx, id, inv.Window)
			if err != nil {
				inv.AddError("evidence:aws.cloudtrail."+kind, err)
				continue
			}
			inv.Evidence.AWS.CloudTrail = append(inv.Evidence.AWS.CloudTrail, events...)
		}
	}
}

// githubRepoLabelKeys is the closed set of alert-label/annotation keys
// that may carry an "owner/repo" reference for the workload's source
// repository.
var githubRepoLabelKeys = []string{"github_repo", "repo", "source_repo"}

var githubRepoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// collectGitHub populates Evidence.GitHub when the alert carries an
// "owner/repo" reference, so a rollout-health or crashloop investigation
// can correlate a recent deploy with a recent commit/workflow run.
func collectGitHub(ctx context.Context, gh providers.GitHubProvider, inv *domain.Investigation, since time.Time) {
	if gh == nil || inv.Alert == nil {
		return
	}
	ref := ""
	for _, key := range githubRepoLabelKeys {
		if v := inv.Alert.Labels[key]; v != "" {
			ref = v
			break
		}
		if v := inv.Alert.Annotations[key]; v != "" {
			ref = v
			break
		}
	}
	if ref == "" || !githubRepoPattern.MatchString(ref) {
		return
	}
	owner, repo := splitRepoRef(ref)

	if meta, err := gh.RepoMetadata(ctx, owner, repo); err != nil {
		inv.AddError("evidence:github.repo", err)
	} else {
		inv.Evidence.GitHub.Repo = meta
	}
	if commits, err := gh.RecentCommits(ctx, owner, repo, since); err != nil {
		inv.AddError("evidence:github.commits", err)
	} else {
		inv.Evidence.GitHub.Commits = commits
	}
	if runs, err := gh.WorkflowRuns(ctx, owner, repo, since); err != nil {
		inv.AddError("evidence:github.workflow_runs", err)
	} else {
		inv.Evidence.GitHub.WorkflowRuns = runs
	}
}

func splitRepoRef(ref string) (owner, repo string) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '/' {
			return ref[:i], ref[i+1:]
		}
	}
	return ref, ""
}
