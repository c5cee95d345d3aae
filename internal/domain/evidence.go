package domain

import "time"

// Evidence aggregates everything collected for one investigation. Each
// sub-record is permissive: upstream provider shapes vary, so the open
// fields are carried as maps/any rather than forced into a strict schema.
// The strict boundary is the Analysis layer (see analysis.go), not here.
type Evidence struct {
	K8s     K8sEvidence     `json:"k8s"`
	Metrics MetricsEvidence `json:"metrics"`
	Logs    LogsEvidence    `json:"logs"`
	AWS     AWSEvidence     `json:"aws"`
	GitHub  GitHubEvidence  `json:"github"`
}

// K8sEvidence holds everything collected from the Kubernetes API.
type K8sEvidence struct {
	PodInfo               map[string]any   `json:"pod_info,omitempty"`
	PodConditions         []map[string]any `json:"pod_conditions,omitempty"`
	PodEvents             []map[string]any `json:"pod_events,omitempty"`
	OwnerChain            []map[string]any `json:"owner_chain,omitempty"`
	RolloutStatus         map[string]any   `json:"rollout_status,omitempty"`
	ImagePullDiagnostics  map[string]any   `json:"image_pull_diagnostics,omitempty"`
}

// PromSeries is one labeled time series as returned by a Prometheus-shaped
// instant/range query: pairs of (unix-seconds-as-float, sample-as-string).
type PromSeries struct {
	Metric map[string]string `json:"metric"`
	Values [][2]any          `json:"values"`
}

// MetricsEvidence holds everything collected from Prometheus/VictoriaMetrics.
type MetricsEvidence struct {
	Throttling   []PromSeries `json:"throttling,omitempty"`
	CPU          []PromSeries `json:"cpu,omitempty"`
	Memory       []PromSeries `json:"memory,omitempty"`
	Restarts     []PromSeries `json:"restarts,omitempty"`
	PodPhase     []PromSeries `json:"pod_phase,omitempty"`
	HTTP5xx      []PromSeries `json:"http_5xx,omitempty"`
	PromBaseline []PromSeries `json:"prom_baseline,omitempty"`
}

// ParsedLogError is one structured error extracted from a raw log entry by
// the upstream log backend or the ingestion layer's lightweight parser.
type ParsedLogError struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Container string    `json:"container,omitempty"`
	Level     string    `json:"level,omitempty"`
}

// LogEntry is one raw log line as returned by the logs provider.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// LogsEvidence holds everything collected from Loki/VictoriaLogs.
type LogsEvidence struct {
	Raw             []LogEntry        `json:"raw,omitempty"`
	Status          string            `json:"status,omitempty"` // ok, empty, unavailable
	Backend         string            `json:"backend,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	Query           string            `json:"query,omitempty"`
	ParsedErrors    []ParsedLogError  `json:"parsed_errors,omitempty"`
	ParsingMetadata map[string]any    `json:"parsing_metadata,omitempty"`
}

// AWSEvidence holds per-resource-kind status maps plus CloudTrail events.
type AWSEvidence struct {
	Resources  map[string]map[string]any `json:"resources,omitempty"` // kind -> id -> status
	CloudTrail []map[string]any         `json:"cloudtrail,omitempty"`
}

// GitHubEvidence holds repo metadata, recent commits, and workflow runs.
type GitHubEvidence struct {
	Repo          map[string]any   `json:"repo,omitempty"`
	Commits       []map[string]any `json:"commits,omitempty"`
	WorkflowRuns  []map[string]any `json:"workflow_runs,omitempty"`
	Docs          []map[string]any `json:"docs,omitempty"`
}
