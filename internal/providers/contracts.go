// Package providers defines the narrow interfaces the investigation core
// consumes from its upstream collaborators (Kubernetes, Prometheus, logs,
// AWS, GitHub, Alertmanager, object storage, the durable queue, and the
// case-index database). Concrete implementations live in sibling packages
// and are swappable; the core never imports a concrete client directly.
package providers

import (
	"context"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// AlertmanagerProvider is the seam onto the Alertmanager API.
type AlertmanagerProvider interface {
	FetchActiveAlerts(ctx context.Context, selector map[string]string) ([]*domain.AlertInstance, error)
	// ExtractPodInfoFromAlert must never infer a pod from the "instance"
	// label — see the instance-as-pod-safety testable property.
	ExtractPodInfoFromAlert(alert *domain.AlertInstance) (namespace, pod string, ok bool)
	GetAlertContext(ctx context.Context, alert *domain.AlertInstance) (map[string]any, error)
}

// PrometheusProvider is the seam onto Prometheus/VictoriaMetrics.
type PrometheusProvider interface {
	InstantQuery(ctx context.Context, query string, at time.Time) ([]domain.PromSeries, error)
	RangeQuery(ctx context.Context, query string, window domain.TimeWindow, step time.Duration) ([]domain.PromSeries, error)
}

// K8sProvider is the seam onto the Kubernetes API.
type K8sProvider interface {
	PodInfo(ctx context.Context, namespace, pod string) (map[string]any, error)
	PodConditions(ctx context.Context, namespace, pod string) ([]map[string]any, error)
	PodEvents(ctx context.Context, namespace, pod string) ([]map[string]any, error)
	ListPods(ctx context.Context, namespace string, selector map[string]string) ([]map[string]any, error)
	OwnerChain(ctx context.Context, namespace, pod string) ([]map[string]any, error)
	WorkloadRolloutStatus(ctx context.Context, namespace, kind, name string) (map[string]any, error)
}

// LogsProvider is the seam onto Loki/VictoriaLogs.
type LogsProvider interface {
	Query(ctx context.Context, query string, window domain.TimeWindow) (domain.LogsEvidence, error)
}

// AWSProvider is the seam onto AWS resource status and CloudTrail.
type AWSProvider interface {
	ResourceStatus(ctx context.Context, kind string, ids []string) (map[string]map[string]any, error)
	CloudTrailEvents(ctx context.Context, resourceID string, window domain.TimeWindow) ([]map[string]any, error)
}

// GitHubProvider is the seam onto GitHub repo/commit/workflow data.
type GitHubProvider interface {
	RepoMetadata(ctx context.Context, owner, repo string) (map[string]any, error)
	RecentCommits(ctx context.Context, owner, repo string, since time.Time) ([]map[string]any, error)
	WorkflowRuns(ctx context.Context, owner, repo string, since time.Time) ([]map[string]any, error)
}

// ObjectStore is the §6 object store contract: head + two typed puts.
// 404 and 403 on Head are both "does not exist" — writes are idempotent.
type ObjectStore interface {
	Head(ctx context.Context, key string) (exists bool, lastModified time.Time, err error)
	PutMarkdown(ctx context.Context, key, body string) error
	PutJSON(ctx context.Context, key string, body []byte) error
}

// CaseIndexer is the §6 case index contract.
type CaseIndexer interface {
	IndexIncidentRun(ctx context.Context, caseKey string, inv *domain.Investigation) (stored bool, reason string, caseID string, err error)
}
