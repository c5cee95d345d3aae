package features

import (
	"sort"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// K8s projects K8sEvidence into FeaturesK8s: pod phase/readiness, ranked
// waiting/terminated container summaries, and warning-event/OOM/eviction
// counts. When target.Container is set, container-scoped fields prefer
// that container's status entry.
func K8s(ev domain.K8sEvidence, target domain.TargetRef) domain.FeaturesK8s {
	podInfo := ev.PodInfo
	phase, _ := podInfo["phase"].(string)
	statusReason, _ := podInfo["status_reason"].(string)
	statusMessage := truncate(stringOf(podInfo["status_message"]), 200)

	var ready *bool
	var notReady []string
	for _, c := range ev.PodConditions {
		ctype, _ := c["type"].(string)
		cstatus, _ := c["status"].(string)
		if ctype == "" || cstatus == "" {
			continue
		}
		if ctype == "Ready" && ready == nil {
			v := cstatus == "True"
			ready = &v
		}
		if cstatus != "True" {
			notReady = append(notReady, ctype)
		}
	}
	sort.Strings(notReady)

	var waitingReason string
	var restartCount *int
	var waitingSummaries []summary
	var terminatedSummaries []summary

	statuses := asMapSlice(podInfo["container_statuses"])
	for _, cs := range statuses {
		name, _ := cs["name"].(string)
		if target.Container != "" && name != target.Container {
			continue
		}
		if rc, ok := asInt(cs["restart_count"]); ok {
			restartCount = &rc
		}
		if state, ok := cs["state"].(map[string]any); ok {
			if w, ok := state["waiting"].(map[string]any); ok {
				if r, _ := w["reason"].(string); r != "" {
					waitingReason = r
				}
			}
		}
		if name != "" {
			if w, ok := dig(cs, "state", "waiting").(map[string]any); ok {
				if r, _ := w["reason"].(string); r != "" {
					waitingSummaries = append(waitingSummaries, summary{container: name, reason: r})
				}
			}
			term := dig(cs, "last_state", "terminated")
			if term == nil {
				term = dig(cs, "state", "terminated")
			}
			if t, ok := term.(map[string]any); ok {
				if r, _ := t["reason"].(string); r != "" {
					terminatedSummaries = append(terminatedSummaries, summary{container: name, reason: r})
				}
			}
		}
	}

	sort.SliceStable(waitingSummaries, func(i, j int) bool {
		ri, rj := rankOrDefault(domain.WaitingReasonRank, waitingSummaries[i].reason), rankOrDefault(domain.WaitingReasonRank, waitingSummaries[j].reason)
		if ri != rj {
			return ri < rj
		}
		return waitingSummaries[i].container < waitingSummaries[j].container
	})
	if len(waitingSummaries) > 3 {
		waitingSummaries = waitingSummaries[:3]
	}

	sort.SliceStable(terminatedSummaries, func(i, j int) bool {
		ri, rj := rankOrDefault(domain.TerminatedReasonRank, terminatedSummaries[i].reason), rankOrDefault(domain.TerminatedReasonRank, terminatedSummaries[j].reason)
		if ri != rj {
			return ri < rj
		}
		return terminatedSummaries[i].container < terminatedSummaries[j].container
	})
	if len(terminatedSummaries) > 3 {
		terminatedSummaries = terminatedSummaries[:3]
	}

	warningEvents := 0
	oomEvents := 0
	evicted := false
	for _, e := range ev.PodEvents {
		typ := strings.ToLower(stringOf(e["type"]))
		if typ == "warning" {
			warningEvents++
		}
		reason := strings.ToLower(stringOf(e["reason"]))
		msg := strings.ToLower(stringOf(e["message"]))
		if strings.Contains(reason, "oom") || strings.Contains(msg, "oomkilled") {
			oomEvents++
		}
		if strings.Contains(reason, "evict") || strings.Contains(msg, "evicted") {
			evicted = true
		}
	}

	recentReasons := topEventReasons(ev.PodEvents, 5)

	oomKilled := oomEvents > 0 || strings.Contains(strings.ToLower(waitingReason), "oom")
	for _, t := range terminatedSummaries {
		if strings.EqualFold(t.reason, "OOMKilled") {
			oomKilled = true
		}
	}

	return domain.FeaturesK8s{
		PodPhase:                   phase,
		Ready:                      ready,
		WaitingReason:              waitingReason,
		RestartCount:               restartCount,
		WarningEventsCount:         warningEvents,
		OOMKilled:                  oomKilled,
		Evicted:                    evicted,
		StatusReason:               statusReason,
		StatusMessage:              statusMessage,
		NotReadyConditions:         notReady,
		ContainerWaitingReasonsTop: summaryReasons(waitingSummaries),
		ContainerLastTerminatedTop: summaryReasons(terminatedSummaries),
		RecentEventReasonsTop:      recentReasons,
	}
}

type summary struct {
	container string
	reason    string
}

func summaryReasons(s []summary) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.container + ":" + v.reason
	}
	return out
}

func topEventReasons(events []map[string]any, n int) []string {
	type scored struct {
		reason string
		count  int
	}
	var out []scored
	for _, e := range events {
		reason := stringOf(e["reason"])
		if reason == "" {
			continue
		}
		count, _ := asInt(e["count"])
		out = append(out, scored{reason: reason, count: count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if len(out) > n {
		out = out[:n]
	}
	reasons := make([]string, len(out))
	for i, s := range out {
		reasons[i] = s.reason
	}
	return reasons
}

func rankOrDefault(ranks map[string]int, key string) int {
	if r, ok := ranks[key]; ok {
		return r
	}
	return 100
}

// asMapSlice normalizes evidence fields that may arrive either as
// []map[string]any (constructed directly in-process) or []any holding
// map[string]any elements (decoded from JSON), since K8sEvidence's open
// fields carry permissive upstream provider shapes.
func asMapSlice(v any) []map[string]any {
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

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = asMap[k]
	}
	return cur
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
