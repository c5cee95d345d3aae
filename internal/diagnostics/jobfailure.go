package diagnostics

import (
	"fmt"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// JobFailureModule diagnoses failed Kubernetes Jobs/CronJobs by matching
// their parsed log errors against the shared log pattern library and, for
// patterns with a known remediation, emitting a low-risk action proposal
// alongside the hypothesis.
type JobFailureModule struct {
	Matcher LogPatternMatcher
}

// NewJobFailureModule builds a JobFailureModule backed by the given log
// pattern library (typically patterns.All).
func NewJobFailureModule(library []LogPattern) *JobFailureModule {
	return &JobFailureModule{Matcher: LogPatternMatcher{Patterns: library}}
}

// ID implements Module.
func (m *JobFailureModule) ID() string { return "job_failure" }

// Applies implements Module: fires for Job/CronJob targets or the
// job_failed family.
func (m *JobFailureModule) Applies(inv *domain.Investigation) bool {
	if inv.Meta.Family == "job_failed" {
		return true
	}
	return inv.Target.WorkloadKind == "Job" || inv.Target.WorkloadKind == "CronJob"
}

// Collect implements Module.
func (m *JobFailureModule) Collect(inv *domain.Investigation) {}

// Diagnose implements Module.
func (m *JobFailureModule) Diagnose(inv *domain.Investigation) []domain.Hypothesis {
	messages := parsedErrorMessages(inv)
	if len(messages) == 0 {
		return []domain.Hypothesis{{
			HypothesisID:     "job_failure_generic",
			Title:            "Job failed; no parsed log errors available to pinpoint a cause",
			Confidence0To100: 25,
			Why:              []string{"No parsed error lines were available from the job's logs for this window."},
			NextTests:        []string{fmt.Sprintf("Fetch the full logs for %s/%s manually and inspect the final lines before exit.", inv.Target.Namespace, inv.Target.WorkloadName)},
		}}
	}

	matches := m.Matcher.FindMatches(messages)
	if len(matches) == 0 {
		return []domain.Hypothesis{{
			HypothesisID:     "job_failure_generic",
			Title:            "Job failed with an unrecognized error pattern",
			Confidence0To100: 35,
			Why:              []string{"Parsed log errors were present but matched no known failure pattern."},
			SupportingRefs:   []string{"logs.parsed_errors"},
		}}
	}

	hyps := make([]domain.Hypothesis, 0, len(matches))
	for _, mt := range matches {
		h := hypothesisFromMatch(mt)
		if action, ok := actionForPattern(mt); ok {
			inv.Analysis.Actions = append(inv.Analysis.Actions, action)
		}
		hyps = append(hyps, h)
	}
	return hyps
}

// actionForPattern proposes a concrete, approval-gated remediation for
// patterns where the fix is a well-known IAM/config change. The pipeline
// never executes these; they are surfaced for a human to approve.
func actionForPattern(mt Match) (domain.ActionProposal, bool) {
	switch mt.Pattern.PatternID {
	case "s3_access_denied":
		bucket := mt.Context["bucket"]
		if bucket == "" {
			bucket = "<bucket>"
		}
		return domain.ActionProposal{
			Kind:             "iam_policy_attach",
			Command:          fmt.Sprintf("aws iam put-role-policy --role-name <job-role> --policy-name s3-access --policy-document '{\"Statement\":[{\"Effect\":\"Allow\",\"Action\":[\"s3:GetObject\",\"s3:ListBucket\"],\"Resource\":[\"arn:aws:s3:::%s\",\"arn:aws:s3:::%s/*\"]}]}'", bucket, bucket),
			RiskLevel:        "medium",
			RequiresApproval: true,
			Rationale:        fmt.Sprintf("Grants the job's IAM role read access to bucket '%s', which the job was denied access to.", bucket),
		}, true
	case "ecr_pull_unauthorized":
		return domain.ActionProposal{
			Kind:             "iam_policy_attach",
			Command:          "aws iam attach-role-policy --role-name <node-role> --policy-arn arn:aws:iam::aws:policy/AmazonEC2ContainerRegistryReadOnly",
			RiskLevel:        "medium",
			RequiresApproval: true,
			Rationale:        "Grants the node's IAM role permission to pull from ECR.",
		}, true
	}
	return domain.ActionProposal{}, false
}
