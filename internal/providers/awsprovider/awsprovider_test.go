package awsprovider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestResourceStatusRejectsUnsupportedKind(t *testing.T) {
	p := &Provider{}
	_, err := p.ResourceStatus(context.Background(), "lambda", []string{"fn-1"})
	assert.Error(t, err)
}

func TestCloudTrailEventsIsANoOp(t *testing.T) {
	p := &Provider{}
	events, err := p.CloudTrailEvents(context.Background(), "i-123", domain.TimeWindow{})
	assert.NoError(t, err)
	assert.Nil(t, events)
}
