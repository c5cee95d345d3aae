package ingest

import (
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// jobAlertnames is the closed set of alertnames kube-state-metrics reports
// through its own scrape-target labels (job, service, instance, pod all
// naming the kube-state-metrics scraper, not the actual failing Job) but
// that also carry a job_name label naming the real Job. Matching is
// case-insensitive since Alertmanager rule authors vary casing.
var jobAlertnames = map[string]bool{
	"kubejobfailed": true,
	"jobfailed":     true,
}

// targetFromLabels derives a best-effort TargetRef from alert labels alone.
// This is the sole target-resolution step: ingest uses its result to
// compute the rollout-workload dedup key, and the pipeline carries it
// through unchanged as the investigation's Target, so the scrape-metadata
// sanitization rules (spec.md §3's TargetRef invariant) must be applied
// here, before the target reaches anything downstream. There is no richer
// re-resolution step later; owner-chain lookups against the Kubernetes API
// enrich Evidence, not Target.
func targetFromLabels(a *domain.AlertInstance, clusterName string) domain.TargetRef {
	l := a.Labels

	if jobName := l["job_name"]; jobName != "" && jobAlertnames[strings.ToLower(a.AlertName())] {
		// The pod label here names the kube-state-metrics scrape pod, not
		// a pod belonging to the Job; job/service/instance are likewise
		// scrape-target metadata, not the Job's identity. Evidence
		// collection discovers the Job's actual pods via a label
		// selector on job_name instead of trusting this label.
		return domain.TargetRef{
			TargetType:   domain.TargetPod,
			Cluster:      clusterName,
			Namespace:    l["namespace"],
			WorkloadKind: "Job",
			WorkloadName: jobName,
		}
	}

	return domain.TargetRef{
		TargetType:   domain.TargetPod,
		Cluster:      clusterName,
		Namespace:    l["namespace"],
		Pod:          l["pod"],
		Container:    l["container"],
		WorkloadKind: firstNonEmpty(l["workload_kind"], l["owner_kind"], "Deployment"),
		WorkloadName: firstNonEmpty(l["workload"], l["deployment"], l["owner_name"]),
		// job/service/instance are kube-state-metrics scrape-target
		// labels, never the pod-scoped alert's own identity; they are
		// legitimate Target fields only for scrape-target alerts like
		// TargetDown, which [[triage/enrich.go]]'s enrichTargetDown reads
		// straight from inv.Alert.Labels rather than from Target.
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
