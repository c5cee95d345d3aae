package features

import (
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Logs projects LogsEvidence into FeaturesLogs: passthrough of the backend's
// own status/reason/query, plus deterministic keyword counts over whatever
// log text was actually returned (parsed errors first, falling back to raw
// lines when the backend didn't produce structured parse output).
func Logs(ev domain.LogsEvidence) domain.FeaturesLogs {
	out := domain.FeaturesLogs{
		Status:  ev.Status,
		Backend: ev.Backend,
		Reason:  ev.Reason,
		Query:   ev.Query,
	}

	if len(ev.ParsedErrors) > 0 {
		for _, e := range ev.ParsedErrors {
			countHit(&out, e.Message)
		}
		return out
	}
	for _, l := range ev.Raw {
		countHit(&out, l.Message)
	}
	return out
}

func countHit(out *domain.FeaturesLogs, message string) {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") || strings.Contains(lower, "deadline exceeded") {
		out.TimeoutHits++
	}
	if strings.Contains(lower, "error") || strings.Contains(lower, "exception") || strings.Contains(lower, "panic") || strings.Contains(lower, "fatal") {
		out.ErrorHits++
	}
}
