// Package caseindex groups repeat investigations of the same underlying
// incident into a stable "case" so noisy rollout-keyed alerts and repeat
// fingerprints don't each produce an unrelated-looking report. It is the
// Go counterpart of the case-identity rules the investigation agent
// originally implemented as a database-side upsert.
package caseindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// rolloutCaseAlertnames is the closed set of alertnames whose case identity
// is keyed by workload rather than by alert fingerprint, so pod churn
// across a rollout collapses into one case.
var rolloutCaseAlertnames = map[string]bool{
	"KubernetesPodNotHealthy":         true,
	"KubernetesPodNotHealthyCritical": true,
	"KubernetesContainerOomKiller":    true,
	"KubeJobFailed":                   true,
}

// Input carries the fields case-key derivation needs out of an Investigation.
type Input struct {
	AlertFingerprint string
	Alertname        string
	Family           string
	Cluster          string
	TargetType       string
	Namespace        string
	Container        string
	WorkloadKind     string
	WorkloadName     string
	Service          string
	Instance         string
}

// InputFromInvestigation projects the fields CaseKey needs from an
// Investigation's alert and target.
func InputFromInvestigation(inv *domain.Investigation) Input {
	return Input{
		AlertFingerprint: inv.Alert.Fingerprint,
		Alertname:        inv.Alert.AlertName(),
		Family:           inv.Meta.Family,
		Cluster:          inv.Target.Cluster,
		TargetType:       string(inv.Target.TargetType),
		Namespace:        inv.Target.Namespace,
		Container:        inv.Target.Container,
		WorkloadKind:     inv.Target.WorkloadKind,
		WorkloadName:     inv.Target.WorkloadName,
		Service:          inv.Target.Service,
		Instance:         inv.Target.Instance,
	}
}

// CaseKey computes the deterministic case key for one investigation run.
// Workload identity wins for the closed rollout-noisy alertname set (so
// pod churn doesn't fragment a single incident into many cases); otherwise
// the key falls back to the alert fingerprint, and finally to a UTC
// day-bucketed group key so concurrent first-seen runs for the same
// identity don't race into two case rows.
func CaseKey(in Input, now time.Time) string {
	if k, ok := workloadKey(in); ok {
		return k
	}
	if in.AlertFingerprint != "" {
		return "fp:" + in.AlertFingerprint
	}
	return groupKey(in, now.UTC().Format("2006-01-02"))
}

func workloadKey(in Input) (string, bool) {
	if in.Cluster == "" || in.Namespace == "" || in.WorkloadKind == "" || in.WorkloadName == "" || in.Alertname == "" || in.Family == "" {
		return "", false
	}
	if !rolloutCaseAlertnames[in.Alertname] {
		return "", false
	}
	container := ""
	if in.Alertname == "KubernetesContainerOomKiller" {
		container = in.Container
	}
	payload := map[string]any{
		"k":             "workload",
		"cluster":       in.Cluster,
		"namespace":     in.Namespace,
		"workload_kind": in.WorkloadKind,
		"workload_name": in.WorkloadName,
		"family":        in.Family,
		"alertname":     in.Alertname,
		"container":     container,
	}
	return "wl:" + hashJSON(payload), true
}

func groupKey(in Input, dayBucket string) string {
	payload := map[string]any{
		"k":             "group_day",
		"day":           dayBucket,
		"cluster":       in.Cluster,
		"target_type":   in.TargetType,
		"namespace":     in.Namespace,
		"workload_kind": in.WorkloadKind,
		"workload_name": in.WorkloadName,
		"service":       in.Service,
		"instance":      in.Instance,
		"family":        in.Family,
		"alertname":     in.Alertname,
	}
	return "g:" + hashJSON(payload)
}

func hashJSON(payload map[string]any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Marshalling a map of strings never fails; this is unreachable.
		raw = []byte(err.Error())
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
