// Package domain holds the canonical data types shared across the
// investigation pipeline: alerts, targets, evidence, and the analysis
// produced for them.
package domain

import "time"

// NormalizedState is the canonical firing/resolved classification of an
// alert, independent of how the source expressed it.
type NormalizedState string

// Normalized alert states.
const (
	StateFiring   NormalizedState = "firing"
	StateResolved NormalizedState = "resolved"
	StateUnknown  NormalizedState = "unknown"
)

// EndsAtKind records why EndsAt has the value it does, so normalization
// logic never has to re-derive it from a raw string.
type EndsAtKind string

// EndsAt provenance.
const (
	EndsAtExpiresAt  EndsAtKind = "expires_at"
	EndsAtResolvedAt EndsAtKind = "resolved_at"
	EndsAtUnknown    EndsAtKind = "unknown"
)

// zeroTimePlaceholder is the RFC3339 zero-time Alertmanager sends for an
// alert that has not resolved. It must never be treated as a resolution.
const zeroTimePlaceholder = "0001-01-01T00:00:00Z"

// AlertInstance is one immutable alert as received from Alertmanager,
// after parsing but before pipeline mutation. The normalized fields are
// computed once at construction time.
type AlertInstance struct {
	Fingerprint   string            `json:"fingerprint"`
	Labels        map[string]string `json:"labels"`
	Annotations   map[string]string `json:"annotations"`
	StartsAt      string            `json:"starts_at,omitempty"`
	EndsAt        string            `json:"ends_at,omitempty"`
	GeneratorURL  string            `json:"generator_url,omitempty"`
	State         string            `json:"state"`
	NormState     NormalizedState   `json:"normalized_state"`
	EndsAtKind    EndsAtKind        `json:"ends_at_kind"`
	ParentStatus  string            `json:"parent_status,omitempty"`
}

// NewAlertInstance builds an AlertInstance from raw Alertmanager fields,
// computing NormState/EndsAtKind per the invariant: normalized_state is
// "resolved" iff EndsAt is present, parseable, and not the zero-time
// placeholder. A per-alert EndsAt always wins over the webhook's parent
// status, because Alertmanager batches can report status=firing while
// individual alerts inside it have already resolved.
func NewAlertInstance(fingerprint string, labels, annotations map[string]string, startsAt, endsAt, generatorURL, state, parentStatus string) *AlertInstance {
	a := &AlertInstance{
		Fingerprint:  fingerprint,
		Labels:       labels,
		Annotations:  annotations,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		GeneratorURL: generatorURL,
		State:        state,
		ParentStatus: parentStatus,
	}
	a.NormState, a.EndsAtKind = normalizeState(endsAt, state, parentStatus)
	return a
}

func normalizeState(endsAt, state, parentStatus string) (NormalizedState, EndsAtKind) {
	if endsAt == "" {
		return fallbackState(state, parentStatus), EndsAtUnknown
	}
	if endsAt == zeroTimePlaceholder {
		return StateFiring, EndsAtExpiresAt
	}
	t, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return fallbackState(state, parentStatus), EndsAtUnknown
	}
	if t.IsZero() {
		return StateFiring, EndsAtExpiresAt
	}
	return StateResolved, EndsAtResolvedAt
}

func fallbackState(state, parentStatus string) NormalizedState {
	switch state {
	case "firing":
		return StateFiring
	case "resolved":
		return StateResolved
	}
	switch parentStatus {
	case "firing":
		return StateFiring
	case "resolved":
		return StateResolved
	}
	return StateUnknown
}

// AlertName returns the alertname label, or "" if absent.
func (a *AlertInstance) AlertName() string {
	return a.Labels["alertname"]
}

// IsFiring reports whether this alert should be investigated.
func (a *AlertInstance) IsFiring() bool {
	return a.NormState == StateFiring
}
