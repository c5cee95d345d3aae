// Package changes builds a K8s-centric change timeline for the owning
// workload (from owner_chain + rollout_status evidence) and correlates its
// most recent change against the incident time window, producing a 0..1
// score. Read-only and best-effort: any malformed evidence degrades the
// result rather than failing the investigation.
package changes

import (
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Correlation score tiers, by how far the most recent workload change sits
// from the incident window relative to the window's own length.
const (
	scoreWithinWindow = 0.9
	scoreNearWindow   = 0.5
	scoreFarWindow    = 0.2
	scoreVeryFar      = 0.1
	nearWindowMult    = 2.0
	farWindowMult     = 6.0
)

// Analyze builds the change timeline from K8s evidence and correlates it
// against inv.Window, writing the result onto inv.Analysis.Change. It never
// returns an error; failures are recorded via inv.AddError.
func Analyze(inv *domain.Investigation) {
	defer func() {
		if r := recover(); r != nil {
			inv.AddError("changes", fmt.Errorf("panic: %v", r))
		}
	}()

	timeline, lastChange := buildTimeline(inv)
	inv.Analysis.Change = correlate(inv.Window, timeline, lastChange)
}

func buildTimeline(inv *domain.Investigation) ([]domain.ChangeEvent, *time.Time) {
	var events []domain.ChangeEvent
	var candidates []time.Time

	for _, o := range inv.Evidence.K8s.OwnerChain {
		kind, _ := o["kind"].(string)
		name, _ := o["name"].(string)
		if kind == "ReplicaSet" && name != "" {
			events = append(events, domain.ChangeEvent{
				Kind:    "ReplicaSet",
				Summary: fmt.Sprintf("Pod owned by ReplicaSet %s (often created during Deployment rollout).", name),
				Source:  "owner_chain",
			})
		}
	}

	rs := inv.Evidence.K8s.RolloutStatus
	kind, _ := rs["kind"].(string)
	name, _ := rs["name"].(string)
	if kind != "" && name != "" {
		if created, _ := rs["creation_timestamp"].(string); created != "" {
			events = append(events, domain.ChangeEvent{
				Timestamp: created,
				Kind:      kind,
				Summary:   fmt.Sprintf("%s %s creation timestamp.", kind, name),
				Source:    "rollout_status",
			})
			if t, ok := parseISO(created); ok {
				candidates = append(candidates, t)
			}
		}
		if rev := stringOrNumber(rs["revision"]); rev != "" {
			events = append(events, domain.ChangeEvent{
				Kind:    kind,
				Summary: fmt.Sprintf("Current rollout revision: %s", rev),
				Source:  "rollout_status",
			})
		}
		for _, c := range conditionsOf(rs["conditions"]) {
			ctype, _ := c["type"].(string)
			status, _ := c["status"].(string)
			reason, _ := c["reason"].(string)
			msg, _ := c["message"].(string)
			ts := firstNonEmpty(stringOrNumber(c["last_update_time"]), stringOrNumber(c["last_transition_time"]))
			if ts != "" {
				if t, ok := parseISO(ts); ok {
					candidates = append(candidates, t)
				}
			}
			if ctype != "" && status != "" {
				events = append(events, domain.ChangeEvent{
					Timestamp: ts,
					Kind:      kind,
					Summary:   truncate(fmt.Sprintf("condition:%s:%s:%s %s", ctype, status, reason, msg), 240),
					Source:    "rollout_status",
				})
			}
		}
		for _, img := range imagesOf(rs["images"]) {
			cname, _ := img["name"].(string)
			cimg, _ := img["image"].(string)
			if cname != "" && cimg != "" {
				events = append(events, domain.ChangeEvent{
					Kind:    kind,
					Summary: fmt.Sprintf("%s -> %s", cname, cimg),
					Source:  "rollout_status",
				})
			}
		}
	}

	if len(candidates) == 0 {
		return events, nil
	}
	latest := candidates[0]
	for _, t := range candidates[1:] {
		if t.After(latest) {
			latest = t
		}
	}
	return events, &latest
}

func correlate(window domain.TimeWindow, timeline []domain.ChangeEvent, lastChange *time.Time) domain.ChangeCorrelation {
	if window.StartTime.IsZero() || window.EndTime.IsZero() {
		return domain.ChangeCorrelation{Timeline: timeline, Score: 0, Summary: "Incident time window is missing; cannot correlate changes."}
	}
	if lastChange == nil {
		return domain.ChangeCorrelation{Timeline: timeline, Score: 0, Summary: "No workload change timestamp found to correlate with this incident window."}
	}

	start, end := window.StartTime, window.EndTime
	windowSeconds := end.Sub(start).Seconds()
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	delta := end.Sub(*lastChange).Seconds()
	if delta < 0 {
		delta = -delta
	}
	within := !lastChange.Before(start) && !lastChange.After(end)

	var score float64
	var summary string
	switch {
	case within:
		score, summary = scoreWithinWindow, "A workload change occurred within the incident time window (high correlation likelihood)."
	case delta <= nearWindowMult*windowSeconds:
		score, summary = scoreNearWindow, "A workload change occurred near the incident window (moderate correlation likelihood)."
	case delta <= farWindowMult*windowSeconds:
		score, summary = scoreFarWindow, "A workload change occurred, but not near the incident window (low correlation likelihood)."
	default:
		score, summary = scoreVeryFar, "Workload change appears far from the incident window (very low correlation likelihood)."
	}

	return domain.ChangeCorrelation{Timeline: timeline, Score: score, Summary: summary}
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func conditionsOf(v any) []map[string]any {
	switch x := v.(type) {
	case []map[string]any:
		return x
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, e := range x {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func imagesOf(v any) []map[string]any {
	out := conditionsOf(v)
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

func stringOrNumber(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return fmt.Sprintf("%d", x)
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return fmt.Sprintf("%v", x)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
