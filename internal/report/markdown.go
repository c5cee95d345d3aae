// Package report renders a completed Investigation as the two artifacts
// persisted to object storage: a human-facing Markdown incident report and
// a structured JSON analysis dump (see dump.go). Rendering is a pure
// function of Investigation state — it never mutates it and never fails;
// a malformed sub-section is simply omitted.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/logselect"
)

var commandPrefixes = []string{
	"kubectl", "aws", "gcloud", "curl", "docker", "helm", "git", "python", "pip", "npm", "yarn",
}

var promqlSignatures = []string{
	"ALERTS{", "kube_", "rate(", "sum(", "increase(", "count(",
}

// isCommandLine reports whether s looks like a shell command or PromQL
// query that should be rendered as a fenced code block rather than a
// bullet point.
func isCommandLine(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || strings.HasPrefix(t, "```") {
		return false
	}
	for _, p := range commandPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	for _, p := range promqlSignatures {
		if strings.Contains(t, p) && strings.Contains(t, "{") && (strings.Contains(t, "=") || strings.Contains(t, "}")) {
			return true
		}
	}
	return false
}

// renderNextSteps appends steps to lines using the same smart formatting
// the verdict/hypothesis/enrichment sections all share: fenced ```-blocks
// pass through untouched, blank lines preserve spacing, recognized
// command/PromQL lines become bash fences, everything else becomes a
// bullet.
func renderNextSteps(steps []string, lines *[]string) {
	i := 0
	for i < len(steps) {
		step := steps[i]
		trimmed := strings.TrimSpace(step)

		if strings.HasPrefix(trimmed, "```") {
			block := []string{step}
			i++
			for i < len(steps) && !strings.HasPrefix(strings.TrimSpace(steps[i]), "```") {
				block = append(block, steps[i])
				i++
			}
			if i < len(steps) {
				block = append(block, steps[i])
				i++
			}
			*lines = append(*lines, block...)
			continue
		}

		if trimmed == "" {
			*lines = append(*lines, "")
			i++
			continue
		}

		if isCommandLine(step) {
			*lines = append(*lines, fmt.Sprintf("```bash\n%s\n```", step))
			i++
			continue
		}

		*lines = append(*lines, "- "+step)
		i++
	}
}

func takeN[T any](xs []T, n int) []T {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Render produces the full Markdown incident report for inv, as of
// generatedAt (callers pass the pipeline's run timestamp so output stays
// deterministic in tests).
func Render(inv *domain.Investigation, generatedAt time.Time) string {
	generatedAt = generatedAt.UTC()

	alertname := labelOr(inv.Alert.Labels, "alertname", "Unknown")
	severityTxt := labelOr(inv.Alert.Labels, "severity", "unknown")

	var lines []string
	lines = append(lines, fmt.Sprintf("# Incident Report: %s", alertname))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("**Alert:** `%s`", alertname))
	lines = append(lines, fmt.Sprintf("**Severity:** `%s`", severityTxt))
	lines = append(lines, fmt.Sprintf("**Target type:** `%s`", inv.Target.TargetType))
	if inv.Target.Environment != "" {
		lines = append(lines, fmt.Sprintf("**Environment:** `%s`", inv.Target.Environment))
	}

	switch inv.Target.TargetType {
	case domain.TargetPod:
		lines = append(lines, fmt.Sprintf("**Namespace:** `%s`", orUnknown(inv.Target.Namespace)))
		lines = append(lines, fmt.Sprintf("**Pod:** `%s`", orUnknown(inv.Target.Pod)))
		if inv.Target.Container != "" {
			lines = append(lines, fmt.Sprintf("**Container:** `%s`", inv.Target.Container))
		}
		lines = appendScrapeMetadata(lines, inv)
	case domain.TargetService:
		lines = append(lines, fmt.Sprintf("**Namespace:** `%s`", orUnknown(inv.Target.Namespace)))
		lines = append(lines, fmt.Sprintf("**Service:** `%s`", orUnknown(inv.Target.Service)))
	case domain.TargetNode:
		lines = append(lines, fmt.Sprintf("**Instance:** `%s`", orUnknown(inv.Target.Instance)))
	case domain.TargetCluster:
		lines = append(lines, fmt.Sprintf("**Cluster:** `%s`", orUnknown(inv.Target.Cluster)))
	default:
		lines = append(lines, fmt.Sprintf("**Namespace:** `%s`", orUnknown(inv.Target.Namespace)))
		lines = append(lines, fmt.Sprintf("**Pod:** `%s`", orUnknown(inv.Target.Pod)))
	}

	lines = append(lines, fmt.Sprintf("**Time Window:** `%s`", inv.Window.Window))
	if inv.Alert.NormState != "" {
		lines = append(lines, fmt.Sprintf("**Alert state:** `%s`", inv.Alert.NormState))
	}
	if inv.Alert.StartsAt != "" {
		lines = append(lines, fmt.Sprintf("**Alert starts_at:** `%s`", inv.Alert.StartsAt))
	}
	lines = append(lines, fmt.Sprintf("**Generated:** %s", generatedAt.Format("2006-01-02 15:04:05")))
	lines = append(lines, "")

	renderTriage(inv.Analysis.Decision, "Triage", &lines)
	renderTriage(inv.Analysis.Enrichment, "Enrichment", &lines)
	renderHypotheses(inv, &lines)

	// Concise section.
	lines = append(lines, "## Verdict")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("**Classification:** `%s`", inv.Analysis.Verdict.Classification))
	lines = append(lines, fmt.Sprintf("**Primary driver:** `%s`", inv.Analysis.Verdict.PrimaryDriver))
	lines = append(lines, "")
	lines = append(lines, inv.Analysis.Verdict.OneLiner)
	if q := inv.Analysis.Features.Quality; q.AlertAgeHours > 0 {
		ageTxt := fmt.Sprintf("~%.1fh", q.AlertAgeHours)
		if q.AlertAgeHours >= 24 {
			ageTxt = fmt.Sprintf("~%.1fd", q.AlertAgeHours/24)
		}
		if q.IsLongRunning {
			lines = append(lines, fmt.Sprintf("- **Alert age:** %s (**long-running**)", ageTxt))
		} else {
			lines = append(lines, fmt.Sprintf("- **Alert age:** %s", ageTxt))
		}
	}
	lines = append(lines, "")

	lines = append(lines, "## Scores")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("- **Impact:** %d/100", inv.Analysis.Scores.Impact))
	lines = append(lines, fmt.Sprintf("- **Confidence:** %d/100", inv.Analysis.Scores.Confidence))
	lines = append(lines, fmt.Sprintf("- **Noise:** %d/100", inv.Analysis.Scores.Noise))
	lines = append(lines, "")

	if len(inv.Analysis.Scores.ReasonCodes) > 0 {
		lines = append(lines, "## Reason codes")
		lines = append(lines, "")
		for _, c := range takeN(inv.Analysis.Scores.ReasonCodes, 12) {
			lines = append(lines, fmt.Sprintf("- `%s`", c))
		}
		lines = append(lines, "")
	}

	renderNoiseInsights(inv.Analysis.Noise, &lines)

	if len(inv.Analysis.Verdict.NextSteps) > 0 {
		lines = append(lines, "## On-call next steps")
		lines = append(lines, "")
		renderNextSteps(inv.Analysis.Verdict.NextSteps, &lines)
		lines = append(lines, "")
	}

	renderRCA(inv, &lines)
	renderLLM(inv, &lines)

	// Appendix.
	lines = append(lines, "## Appendix: Evidence")
	lines = append(lines, "")
	renderDerivedFeatures(inv, &lines)
	renderNoiseStructured(inv.Analysis.Noise, &lines)
	renderCapacity(inv.Analysis.Capacity, &lines)
	renderK8s(inv, &lines)
	renderMetrics(inv, &lines)
	renderLogs(inv, &lines)
	renderAWS(inv, &lines)
	renderGitHub(inv, &lines)

	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func appendScrapeMetadata(lines []string, inv *domain.Investigation) []string {
	labels := inv.Alert.Labels
	var parts []string
	if v := labels["job"]; v != "" {
		parts = append(parts, "job="+v)
	}
	if v := labels["service"]; v != "" {
		parts = append(parts, "service="+v)
	}
	if v := labels["instance"]; v != "" {
		parts = append(parts, "instance="+v)
	}
	if v := labels["container"]; v != "" && (inv.Target.Container == "" || v != inv.Target.Container) {
		parts = append(parts, "scrape_container="+v)
	}
	if len(parts) > 0 {
		lines = append(lines, fmt.Sprintf("**Metric source (scrape metadata):** `%s`", strings.Join(parts, ", ")))
	}
	return lines
}

func renderTriage(d domain.Decision, heading string, lines *[]string) {
	if d.Label == "" && len(d.Why) == 0 && len(d.Next) == 0 {
		return
	}
	*lines = append(*lines, "## "+heading, "")
	label := d.Label
	if label == "" {
		label = "n/a"
	}
	*lines = append(*lines, "**Summary:** "+label)
	if len(d.Why) > 0 {
		*lines = append(*lines, "", "### Why", "")
		for _, w := range takeN(d.Why, 10) {
			*lines = append(*lines, "- "+w)
		}
	}
	if len(d.Next) > 0 {
		sub := "### To unblock"
		if heading == "Enrichment" {
			sub = "### On-call next"
		}
		*lines = append(*lines, "", sub, "")
		renderNextSteps(takeN(d.Next, 7), lines)
	}
	*lines = append(*lines, "")
}

func renderHypotheses(inv *domain.Investigation, lines *[]string) {
	hyps := inv.Analysis.Hypotheses
	if len(hyps) == 0 {
		return
	}
	*lines = append(*lines, "## Likely causes (ranked)", "")
	for _, h := range takeN(hyps, 3) {
		*lines = append(*lines, fmt.Sprintf("### %s (%d/100)", h.Title, h.Confidence0To100))
		if len(h.Why) > 0 {
			*lines = append(*lines, "")
			for _, w := range takeN(h.Why, 6) {
				*lines = append(*lines, "- "+w)
			}
		}
		if len(h.NextTests) > 0 {
			*lines = append(*lines, "", "**Next tests:**", "")
			renderNextSteps(h.NextTests, lines)
		}
		if len(h.ProposedActions) > 0 {
			*lines = append(*lines, "", "**Suggested actions (approval required):**", "")
			for _, a := range takeN(h.ProposedActions, 3) {
				*lines = append(*lines, "- "+a)
			}
		}
		*lines = append(*lines, "")
	}
}

func renderRCA(inv *domain.Investigation, lines *[]string) {
	rca := inv.Analysis.RCA
	if rca == nil {
		return
	}
	*lines = append(*lines, "## Root cause analysis (RCA)", "")
	if status, ok := rca["status"].(string); ok && status != "" {
		*lines = append(*lines, fmt.Sprintf("- **Status:** `%s`", status))
	} else {
		*lines = append(*lines, "- **Status:** `unknown`")
	}
	if conf, ok := rca["confidence_0_1"].(float64); ok {
		*lines = append(*lines, fmt.Sprintf("- **Confidence:** %.2f", conf))
	}
	if summary, ok := rca["summary"].(string); ok && summary != "" {
		*lines = append(*lines, "- **Summary:** "+summary)
	}
	if rootCause, ok := rca["root_cause"].(string); ok && rootCause != "" {
		*lines = append(*lines, "- **Root cause:** "+rootCause)
	}
	if evs := stringSliceOf(rca["evidence"]); len(evs) > 0 {
		*lines = append(*lines, "", "### Evidence cited", "")
		for _, e := range takeN(evs, 6) {
			if strings.TrimSpace(e) != "" {
				*lines = append(*lines, "- "+e)
			}
		}
	}
	if rem := stringSliceOf(rca["remediation"]); len(rem) > 0 {
		*lines = append(*lines, "", "### Remediation", "")
		for _, r := range takeN(rem, 8) {
			if strings.TrimSpace(r) != "" {
				*lines = append(*lines, "- "+r)
			}
		}
	}
	if unk := stringSliceOf(rca["unknowns"]); len(unk) > 0 {
		*lines = append(*lines, "", "### Unknowns / open questions", "")
		for _, u := range takeN(unk, 6) {
			if strings.TrimSpace(u) != "" {
				*lines = append(*lines, "- "+u)
			}
		}
	}
	*lines = append(*lines, "")
}

func stringSliceOf(v any) []string {
	xs, ok := v.([]any)
	if !ok {
		if ss, ok2 := v.([]string); ok2 {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func renderLLM(inv *domain.Investigation, lines *[]string) {
	llm := inv.Analysis.LLM
	if llm == nil {
		return
	}
	provider, _ := llm["provider"].(string)
	if provider == "" {
		provider = "unknown"
	}
	status, _ := llm["status"].(string)
	if status == "" {
		status = "unknown"
	}
	*lines = append(*lines, "## LLM Insights", "")
	*lines = append(*lines, fmt.Sprintf("- **Provider:** `%s`", provider))
	*lines = append(*lines, fmt.Sprintf("- **Status:** `%s`", status))
	if model, _ := llm["model"].(string); model != "" {
		*lines = append(*lines, fmt.Sprintf("- **Model:** `%s`", model))
	}
	if errTxt, _ := llm["error"].(string); errTxt != "" {
		*lines = append(*lines, "- **Error:** "+errTxt)
	}
	if output, ok := llm["output"].(map[string]any); ok {
		if summary, _ := output["summary"].(string); summary != "" {
			*lines = append(*lines, "- **Summary:** "+summary)
		}
		if rootCause, _ := output["likely_root_cause"].(string); rootCause != "" {
			*lines = append(*lines, "- **Likely root cause:** "+rootCause)
		}
	}
	*lines = append(*lines, "")
}

func renderNoiseInsights(ni domain.NoiseInsights, lines *[]string) {
	showNoise := len(ni.MissingCriticalLabels) > 0 || len(ni.EphemeralLabels) > 0 || ni.FlapScore >= 40
	if !showNoise {
		return
	}
	*lines = append(*lines, "## Noise insights", "")
	if ni.FlapScore > 0 {
		*lines = append(*lines, fmt.Sprintf("- **Flap score (0-100):** %d", ni.FlapScore))
	}
	if len(ni.EphemeralLabels) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **High-cardinality labels present:** %s", strings.Join(ni.EphemeralLabels, ", ")))
		if len(ni.SuggestedGroupBy) > 0 {
			*lines = append(*lines, fmt.Sprintf("- **Suggested Alertmanager group_by:** %s", strings.Join(ni.SuggestedGroupBy, ", ")))
		}
	}
	if len(ni.MissingCriticalLabels) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **Missing critical labels:** %s", strings.Join(ni.MissingCriticalLabels, ", ")))
		if len(ni.Recommendations) > 0 {
			*lines = append(*lines, "- **Recommendation:** "+ni.Recommendations[0])
			if len(ni.Recommendations) > 1 {
				*lines = append(*lines, "- **Also:** "+ni.Recommendations[1])
			}
		} else {
			*lines = append(*lines, "- **Recommendation:** add missing labels in alert rules/relabeling so investigations can correlate evidence.")
		}
	}
	*lines = append(*lines, "")
}

func renderDerivedFeatures(inv *domain.Investigation, lines *[]string) {
	f := inv.Analysis.Features
	*lines = append(*lines, "### Derived features", "")
	*lines = append(*lines, fmt.Sprintf("- **Family:** `%s`", inv.Meta.Family))
	q := f.Quality
	evidenceQuality := q.EvidenceQuality
	if evidenceQuality == "" {
		evidenceQuality = "unknown"
	}
	*lines = append(*lines, fmt.Sprintf("- **Evidence quality:** `%s`", evidenceQuality))
	if q.AlertAgeHours > 0 {
		*lines = append(*lines, fmt.Sprintf("- **Alert age (hours):** %.1f", q.AlertAgeHours))
		*lines = append(*lines, fmt.Sprintf("- **is_long_running:** %t", q.IsLongRunning))
		*lines = append(*lines, fmt.Sprintf("- **is_recently_started:** %t", q.IsRecentlyStarted))
	}
	if len(q.MissingInputs) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **Missing inputs:** %s", strings.Join(q.MissingInputs, ", ")))
	}
	if len(q.ContradictionFlags) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **Contradictions:** %s", strings.Join(q.ContradictionFlags, ", ")))
	}
	*lines = append(*lines, "")
}

func renderNoiseStructured(ni domain.NoiseInsights, lines *[]string) {
	if ni.FlapScore == 0 && len(ni.EphemeralLabels) == 0 && len(ni.MissingCriticalLabels) == 0 {
		return
	}
	*lines = append(*lines, "### Noise (structured)", "")
	if ni.FlapScore > 0 {
		*lines = append(*lines, fmt.Sprintf("- **flap_score_0_100:** %d", ni.FlapScore))
	}
	if len(ni.EphemeralLabels) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **ephemeral_labels_present:** %s", strings.Join(ni.EphemeralLabels, ", ")))
	}
	if len(ni.SuggestedGroupBy) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **recommended_group_by:** %s", strings.Join(ni.SuggestedGroupBy, ", ")))
	}
	if len(ni.MissingCriticalLabels) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **missing_labels:** %s", strings.Join(ni.MissingCriticalLabels, ", ")))
	}
	*lines = append(*lines, "")
}

func renderCapacity(cap domain.CapacityReport, lines *[]string) {
	if len(cap.Recommendations) == 0 {
		return
	}
	*lines = append(*lines, "### Capacity / Rightsizing", "")
	for _, r := range takeN(cap.Recommendations, 5) {
		*lines = append(*lines, "- "+r)
	}
	*lines = append(*lines, "")
}

func renderK8s(inv *domain.Investigation, lines *[]string) {
	*lines = append(*lines, "### Kubernetes", "")
	pi := inv.Evidence.K8s.PodInfo
	if pi != nil {
		*lines = append(*lines, fmt.Sprintf("- **Phase:** %v", pi["phase"]))
		*lines = append(*lines, fmt.Sprintf("- **Node:** %v", pi["node_name"]))
	}
	kf := inv.Analysis.Features.K8s
	if kf.StatusReason != "" || kf.StatusMessage != "" {
		var bits []string
		if kf.StatusReason != "" {
			bits = append(bits, kf.StatusReason)
		}
		if kf.StatusMessage != "" {
			bits = append(bits, kf.StatusMessage)
		}
		*lines = append(*lines, "- **Pod status:** "+strings.Join(bits, " - "))
	}
	if len(kf.NotReadyConditions) > 0 {
		*lines = append(*lines, "- **Not-ready conditions:**")
		for _, c := range takeN(kf.NotReadyConditions, 6) {
			*lines = append(*lines, "  - "+c)
		}
	}
	if len(kf.ContainerWaitingReasonsTop) > 0 {
		*lines = append(*lines, "- **Container waiting:**")
		for _, w := range takeN(kf.ContainerWaitingReasonsTop, 3) {
			*lines = append(*lines, "  - "+w)
		}
	}
	if len(kf.ContainerLastTerminatedTop) > 0 {
		*lines = append(*lines, "- **Container last terminated:**")
		for _, t := range takeN(kf.ContainerLastTerminatedTop, 3) {
			*lines = append(*lines, "  - "+t)
		}
	}
	if len(kf.RecentEventReasonsTop) > 0 {
		*lines = append(*lines, "- **Top events:**")
		for _, ev := range takeN(kf.RecentEventReasonsTop, 5) {
			*lines = append(*lines, "  - "+ev)
		}
	}
	if len(inv.Evidence.K8s.PodConditions) > 0 && len(kf.NotReadyConditions) == 0 {
		*lines = append(*lines, "- **Conditions (non-True / scheduled):**")
		for _, c := range takeN(inv.Evidence.K8s.PodConditions, 10) {
			t, _ := c["type"].(string)
			s, _ := c["status"].(string)
			if t == "PodScheduled" || (s != "" && s != "True") {
				*lines = append(*lines, fmt.Sprintf("  - %s: status=%s, reason=%v", t, s, c["reason"]))
			}
		}
	}
	*lines = append(*lines, "")
}

func renderMetrics(inv *domain.Investigation, lines *[]string) {
	*lines = append(*lines, "### Metrics", "")
	f := inv.Analysis.Features
	if f.Metrics.ThrottlingP95 != nil {
		*lines = append(*lines, fmt.Sprintf("- **cpu_throttle_p95_pct:** %.2f", *f.Metrics.ThrottlingP95))
	}
	if f.Metrics.CPUP95 != nil {
		*lines = append(*lines, fmt.Sprintf("- **cpu_usage_p95_cores:** %.3f", *f.Metrics.CPUP95))
	}
	if f.Metrics.CPUNearLimit {
		*lines = append(*lines, fmt.Sprintf("- **cpu_near_limit:** %t", f.Metrics.CPUNearLimit))
	}
	if f.K8s.RestartRate5mMax != nil {
		*lines = append(*lines, fmt.Sprintf("- **restart_rate_5m_max:** %.2f", *f.K8s.RestartRate5mMax))
	}
	*lines = append(*lines, "")
}

func renderLogs(inv *domain.Investigation, lines *[]string) {
	*lines = append(*lines, "### Logs", "")
	logs := inv.Evidence.Logs
	status := logs.Status
	if status == "" {
		status = "unknown"
	}
	*lines = append(*lines, fmt.Sprintf("- **Status:** `%s`", status))
	if logs.Reason != "" {
		*lines = append(*lines, fmt.Sprintf("- **Reason:** `%s`", logs.Reason))
	}
	if logs.Backend != "" {
		*lines = append(*lines, fmt.Sprintf("- **Backend:** `%s`", logs.Backend))
	}
	if logs.Query != "" {
		*lines = append(*lines, fmt.Sprintf("- **Selector:** `%s`", logs.Query))
	}
	if len(logs.Raw) > 0 {
		*lines = append(*lines, fmt.Sprintf("- **Entries:** %d", len(logs.Raw)))
		snippet := logselect.SelectSnippet(logs.Raw)
		if len(snippet) > 0 {
			*lines = append(*lines, fmt.Sprintf("- **Shown:** %d (prioritized errors; otherwise tail)", len(snippet)))
		} else {
			*lines = append(*lines, "- **Shown:** 0 (all collected lines looked like startup noise; try expanding the time window)")
		}
		*lines = append(*lines, "", "```")
		for _, ln := range snippet {
			*lines = append(*lines, truncate(ln, 240))
		}
		*lines = append(*lines, "```")
	}
	*lines = append(*lines, "")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func statusEmoji(ok bool) string {
	if ok {
		return "[ok]"
	}
	return "[warn]"
}

func renderAWS(inv *domain.Investigation, lines *[]string) {
	aws := inv.Evidence.AWS
	if len(aws.Resources) == 0 {
		return
	}
	*lines = append(*lines, "### AWS", "")

	kindOrder := []string{"ec2", "ebs", "elb", "rds", "ecr"}
	kindLabels := map[string]string{
		"ec2": "EC2 Instances", "ebs": "EBS Volumes", "elb": "Load Balancer Health",
		"rds": "RDS Instances", "ecr": "ECR Images",
	}
	rendered := false
	for _, kind := range kindOrder {
		byID, ok := aws.Resources[kind]
		if !ok || len(byID) == 0 {
			continue
		}
		rendered = true
		*lines = append(*lines, "", "**"+kindLabels[kind]+":**")
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			data := byID[id]
			if errMsg, isErr := data["error"].(string); isErr && errMsg != "" {
				*lines = append(*lines, fmt.Sprintf("- [error] **%s:** %s", id, errMsg))
				continue
			}
			status, _ := data["status"].(string)
			if status == "" {
				status, _ = data["state"].(string)
			}
			*lines = append(*lines, fmt.Sprintf("- %s **%s:** status=%v", statusEmoji(status == "ok" || status == "available" || status == "running"), id, status))
		}
	}
	if !rendered {
		*lines = (*lines)[:len(*lines)-2]
		return
	}
	*lines = append(*lines, "")
}

func renderGitHub(inv *domain.Investigation, lines *[]string) {
	gh := inv.Evidence.GitHub
	if gh.Repo == nil {
		return
	}
	repo, _ := gh.Repo["full_name"].(string)
	if repo == "" {
		repo, _ = gh.Repo["name"].(string)
	}
	if repo == "" {
		return
	}
	*lines = append(*lines, "### GitHub / Changes", "")
	*lines = append(*lines, fmt.Sprintf("**Repository:** `%s`", repo))
	*lines = append(*lines, "")

	if len(gh.Commits) > 0 {
		*lines = append(*lines, "**Recent Commits** (time window before alert):")
		for _, c := range takeN(gh.Commits, 5) {
			sha, _ := c["sha"].(string)
			sha = truncate(sha, 7)
			author, _ := c["author"].(string)
			message, _ := c["message"].(string)
			message = strings.SplitN(message, "\n", 2)[0]
			message = truncate(message, 80)
			*lines = append(*lines, fmt.Sprintf("- `%s` by %s: %s", sha, author, message))
		}
		*lines = append(*lines, "")
	}

	if len(gh.WorkflowRuns) > 0 {
		*lines = append(*lines, "**Recent Builds:**")
		for _, run := range takeN(gh.WorkflowRuns, 5) {
			name, _ := run["workflow_name"].(string)
			conclusion, _ := run["conclusion"].(string)
			status, _ := run["status"].(string)
			id := run["id"]
			*lines = append(*lines, fmt.Sprintf("- Workflow `%s` #%v: %s/%s", name, id, status, conclusion))
		}
		*lines = append(*lines, "")
	}

	if len(gh.Docs) > 0 {
		*lines = append(*lines, "**Documentation:**")
		for _, d := range takeN(gh.Docs, 3) {
			path, _ := d["path"].(string)
			*lines = append(*lines, "- "+path+" available")
		}
		*lines = append(*lines, "")
	}
}
