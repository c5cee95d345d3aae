package features

import "github.com/codeready-toolchain/tarka/internal/domain"

// correlationThreshold is the minimum change-correlation score (0..1) for
// a change to be considered "within window" of the incident.
const correlationThreshold = 0.5

// Changes projects a ChangeCorrelation result (already computed against the
// incident window by the change-correlation stage) plus the investigation's
// target into FeaturesChanges.
func Changes(cc domain.ChangeCorrelation, target domain.TargetRef) domain.FeaturesChanges {
	out := domain.FeaturesChanges{
		RolloutWithinWindow: cc.Score >= correlationThreshold,
		OwningWorkload:      target.WorkloadName,
	}
	if len(cc.Timeline) > 0 {
		out.LastChangeTS = cc.Timeline[len(cc.Timeline)-1].Timestamp
	}
	return out
}
