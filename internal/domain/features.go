package domain

// DerivedFeatures is the strict, stable projection of Evidence used by
// scoring and enrichment. Every field here must be byte-stable given
// identical evidence (see the determinism rule in the pipeline).
type DerivedFeatures struct {
	K8s     FeaturesK8s     `json:"k8s"`
	Metrics FeaturesMetrics `json:"metrics"`
	Logs    FeaturesLogs    `json:"logs"`
	Changes FeaturesChanges `json:"changes"`
	Quality FeaturesQuality `json:"quality"`
}

// WaitingReasonRank orders container waiting reasons by diagnostic priority
// (lower rank = surfaced first in container_waiting_reasons_top).
var WaitingReasonRank = map[string]int{
	"ImagePullBackOff":         0,
	"ErrImagePull":             1,
	"CreateContainerConfigError": 2,
	"CrashLoopBackOff":         3,
	"InvalidImageName":         4,
	"ContainerCreating":        5,
}

// TerminatedReasonRank orders container last-terminated reasons.
var TerminatedReasonRank = map[string]int{
	"OOMKilled": 0,
	"Error":     1,
	"Completed": 2,
}

// FeaturesK8s is the typed projection of K8sEvidence.
type FeaturesK8s struct {
	PodPhase                   string   `json:"pod_phase,omitempty"`
	Ready                      *bool    `json:"ready,omitempty"`
	WaitingReason              string   `json:"waiting_reason,omitempty"`
	RestartCount               *int     `json:"restart_count,omitempty"`
	RestartRate5mMax           *float64 `json:"restart_rate_5m_max,omitempty"`
	WarningEventsCount         int      `json:"warning_events_count"`
	OOMKilled                  bool     `json:"oom_killed"`
	Evicted                    bool     `json:"evicted"`
	StatusReason               string   `json:"status_reason,omitempty"`
	StatusMessage               string   `json:"status_message,omitempty"`
	NotReadyConditions         []string `json:"not_ready_conditions,omitempty"`
	ContainerWaitingReasonsTop []string `json:"container_waiting_reasons_top,omitempty"`
	ContainerLastTerminatedTop []string `json:"container_last_terminated_top,omitempty"`
	RecentEventReasonsTop      []string `json:"recent_event_reasons_top,omitempty"`
}

// ContainerRatio is a usage/limit ratio attributed to a specific container.
type ContainerRatio struct {
	Container string  `json:"container"`
	P95       float64 `json:"p95"`
	Ratio     float64 `json:"ratio"`
}

// FeaturesMetrics is the typed projection of MetricsEvidence.
type FeaturesMetrics struct {
	ThrottlingP95      *float64        `json:"throttling_p95,omitempty"`
	ThrottlingTopCont  *ContainerRatio `json:"throttling_top_container,omitempty"`
	CPUP95             *float64        `json:"cpu_p95,omitempty"`
	CPUTopCont         *ContainerRatio `json:"cpu_top_container,omitempty"`
	MemoryP95          *float64        `json:"memory_p95,omitempty"`
	MemoryTopCont      *ContainerRatio `json:"memory_top_container,omitempty"`
	HTTP5xxRateP95     *float64        `json:"http_5xx_rate_p95,omitempty"`
	CPUNearLimit       bool            `json:"cpu_near_limit"`
	MemoryNearLimit    bool            `json:"memory_near_limit"`
}

// FeaturesLogs is the typed projection of LogsEvidence.
type FeaturesLogs struct {
	Status      string `json:"status,omitempty"`
	Backend     string `json:"backend,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Query       string `json:"query,omitempty"`
	TimeoutHits int    `json:"timeout_hits"`
	ErrorHits   int    `json:"error_hits"`
}

// FeaturesChanges is the typed projection feeding change correlation.
type FeaturesChanges struct {
	RolloutWithinWindow bool   `json:"rollout_within_window"`
	LastChangeTS        string `json:"last_change_ts,omitempty"`
	OwningWorkload       string `json:"owning_workload,omitempty"`
}

// Evidence quality buckets.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// Known contradiction flags.
const (
	ContradictionCrashloopReadyNoRestarts = "CRASHLOOP_CONTRADICTION_READY_NO_RESTARTS"
	ContradictionThrottlingHighUsageLow   = "THROTTLING_HIGH_BUT_USAGE_LOW"
	ContradictionTargetDownUpNone         = "TARGETDOWN_CONTRADICTION_UP_NONE"
)

// FeaturesQuality captures evidence completeness and internal contradictions.
type FeaturesQuality struct {
	EvidenceQuality     string   `json:"evidence_quality"`
	MissingInputs       []string `json:"missing_inputs,omitempty"`
	ContradictionFlags  []string `json:"contradiction_flags,omitempty"`
	AlertAgeHours       float64  `json:"alert_age_hours"`
	IsLongRunning       bool     `json:"is_long_running"`
	IsRecentlyStarted   bool     `json:"is_recently_started"`
}
