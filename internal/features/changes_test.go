package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestChangesWithinWindowWhenScoreAboveThreshold(t *testing.T) {
	cc := domain.ChangeCorrelation{
		Score:    0.8,
		Timeline: []domain.ChangeEvent{{Timestamp: "2026-07-29T10:00:00Z", Kind: "rollout"}},
	}
	f := Changes(cc, domain.TargetRef{WorkloadName: "checkout"})
	assert.True(t, f.RolloutWithinWindow)
	assert.Equal(t, "2026-07-29T10:00:00Z", f.LastChangeTS)
	assert.Equal(t, "checkout", f.OwningWorkload)
}

func TestChangesNotWithinWindowWhenScoreLow(t *testing.T) {
	cc := domain.ChangeCorrelation{Score: 0.1}
	f := Changes(cc, domain.TargetRef{})
	assert.False(t, f.RolloutWithinWindow)
	assert.Empty(t, f.LastChangeTS)
}
