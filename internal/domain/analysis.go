package domain

// Classification is the terminal triage bucket for an alert.
type Classification string

// Classification values.
const (
	ClassActionable    Classification = "actionable"
	ClassInformational Classification = "informational"
	ClassNoisy         Classification = "noisy"
	ClassArtifact      Classification = "artifact"
)

// Severity is the derived severity shown to an on-call reader.
type Severity string

// Severity values.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// NoiseInsights is the output of the noise analyzer (C7).
type NoiseInsights struct {
	MissingCriticalLabels []string          `json:"missing_critical_labels,omitempty"`
	EphemeralLabels       []string          `json:"ephemeral_labels,omitempty"`
	SuggestedGroupBy      []string          `json:"suggested_group_by,omitempty"`
	InferredLabels        []string          `json:"inferred_labels,omitempty"`
	Prometheus            PrometheusScope   `json:"prometheus"`
	FlapScore             int               `json:"flap_score"`
	Recommendations       []string          `json:"recommendations,omitempty"`
}

// PrometheusScope is the ALERTS-query derived scope for the firing alert.
type PrometheusScope struct {
	Status          string `json:"status"` // ok, unavailable
	FiringInstances *int   `json:"firing_instances,omitempty"`
	ActiveInstances *int   `json:"active_instances,omitempty"`
	Flaps           *int   `json:"flaps,omitempty"`
}

// ChangeEvent is one entry in the workload change timeline.
type ChangeEvent struct {
	Timestamp string `json:"timestamp"`
	Kind       string `json:"kind"` // rollout, scale, image-change, config-change
	Summary    string `json:"summary"`
	Source     string `json:"source"` // owner_chain, rollout_status
}

// ChangeCorrelation is the output of change correlation (C7).
type ChangeCorrelation struct {
	Timeline []ChangeEvent `json:"timeline,omitempty"`
	Score    float64       `json:"score"`
	Summary  string        `json:"summary,omitempty"`
}

// RightsizingRow is one container's observed-vs-requested resource row.
type RightsizingRow struct {
	Container      string  `json:"container"`
	Resource       string  `json:"resource"` // cpu, memory
	CurrentRequest string  `json:"current_request,omitempty"`
	CurrentLimit   string  `json:"current_limit,omitempty"`
	ObservedP95    float64 `json:"observed_p95"`
	Recommendation string  `json:"recommendation"`
}

// CapacityReport is the output of capacity analysis (C7, optional).
type CapacityReport struct {
	Recommendations []string         `json:"recommendations,omitempty"`
	Rightsizing     []RightsizingRow `json:"rightsizing,omitempty"`
}

// Decision is a short, human-facing triage statement.
type Decision struct {
	Label          string   `json:"label"`
	Why            []string `json:"why,omitempty"`
	Next           []string `json:"next,omitempty"`
	Discriminators []string `json:"discriminators,omitempty"`
}

// Hypothesis is one ranked root-cause candidate.
type Hypothesis struct {
	HypothesisID      string   `json:"hypothesis_id"`
	Title             string   `json:"title"`
	Confidence0To100  int      `json:"confidence_0_100"`
	Why               []string `json:"why,omitempty"`
	SupportingRefs    []string `json:"supporting_refs,omitempty"`
	CounterRefs       []string `json:"counter_refs,omitempty"`
	NextTests         []string `json:"next_tests,omitempty"`
	ProposedActions   []string `json:"proposed_actions,omitempty"`
}

// ScoreBreakdownItem records one scoring delta and its justification.
type ScoreBreakdownItem struct {
	Code       string  `json:"code"`
	Axis       string  `json:"axis"` // impact, confidence, noise
	Delta      float64 `json:"delta"`
	FeatureRef string  `json:"feature_ref,omitempty"`
	Why        string  `json:"why,omitempty"`
}

// DeterministicScores is the three-axis score plus its reasoned breakdown.
type DeterministicScores struct {
	Impact      int                  `json:"impact"`
	Confidence  int                  `json:"confidence"`
	Noise       int                  `json:"noise"`
	ReasonCodes []string             `json:"reason_codes"`
	Breakdown   []ScoreBreakdownItem `json:"breakdown"`
}

// DeterministicVerdict is the final classification and on-call summary.
type DeterministicVerdict struct {
	Classification Classification `json:"classification"`
	PrimaryDriver  string         `json:"primary_driver,omitempty"`
	OneLiner       string         `json:"one_liner"`
	NextSteps      []string       `json:"next_steps,omitempty"`
	Severity       Severity       `json:"severity"`
}

// Analysis is the strict output of an investigation run.
type Analysis struct {
	Features    DerivedFeatures       `json:"features"`
	Noise       NoiseInsights         `json:"noise"`
	Change      ChangeCorrelation     `json:"change"`
	Capacity    CapacityReport        `json:"capacity"`
	Decision    Decision              `json:"decision"`
	Enrichment  Decision              `json:"enrichment"`
	Hypotheses  []Hypothesis          `json:"hypotheses"`
	Scores      DeterministicScores   `json:"scores"`
	Verdict     DeterministicVerdict  `json:"verdict"`
	Actions     []ActionProposal      `json:"actions,omitempty"`
	RCA         map[string]any        `json:"rca,omitempty"`
	LLM         map[string]any        `json:"llm,omitempty"`
}

// ActionProposal is a remediation proposal requiring external approval.
// The pipeline never executes these — see the Non-goals in spec.md §1.
type ActionProposal struct {
	Kind              string `json:"kind"`
	Command           string `json:"command"`
	RiskLevel         string `json:"risk_level"` // low, medium, high
	RequiresApproval  bool   `json:"requires_approval"`
	Rationale         string `json:"rationale,omitempty"`
}
