package domain

// TargetType discriminates the shape of a TargetRef.
type TargetType string

// Target type values.
const (
	TargetPod      TargetType = "pod"
	TargetWorkload TargetType = "workload"
	TargetService  TargetType = "service"
	TargetNode     TargetType = "node"
	TargetCluster  TargetType = "cluster"
	TargetUnknown  TargetType = "unknown"
)

// TargetRef identifies what an alert is about. Only the fields relevant to
// TargetType are expected to be populated; callers must not infer identity
// from fields outside that shape.
type TargetRef struct {
	TargetType   TargetType `json:"target_type"`
	Namespace    string     `json:"namespace,omitempty"`
	Pod          string     `json:"pod,omitempty"`
	Container    string     `json:"container,omitempty"`
	WorkloadKind string     `json:"workload_kind,omitempty"`
	WorkloadName string     `json:"workload_name,omitempty"`
	Service      string     `json:"service,omitempty"`
	Instance     string     `json:"instance,omitempty"`
	Job          string     `json:"job,omitempty"`
	Cluster      string     `json:"cluster,omitempty"`
	Team         string     `json:"team,omitempty"`
	Environment  string     `json:"environment,omitempty"`
	// Playbook, when set by a family-specific evidence-collection playbook
	// (e.g. the Job-failure playbook), overrides alertname/workload_kind
	// based family detection. Empty unless a playbook claimed the target.
	Playbook string `json:"playbook,omitempty"`
}

// HasIdentity reports whether enough fields are populated to act on this
// target (used by the blocked_no_target_identity discriminator).
func (t TargetRef) HasIdentity() bool {
	switch t.TargetType {
	case TargetPod:
		return t.Namespace != "" && t.Pod != ""
	case TargetWorkload:
		return t.Namespace != "" && t.WorkloadKind != "" && t.WorkloadName != ""
	case TargetService:
		return t.Namespace != "" && t.Service != ""
	case TargetNode:
		return t.Instance != "" || t.Cluster != ""
	case TargetCluster:
		return t.Cluster != ""
	default:
		return false
	}
}
