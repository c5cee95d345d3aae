package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestLogsCountsTimeoutAndErrorHits(t *testing.T) {
	ev := domain.LogsEvidence{
		Status:  "ok",
		Backend: "loki",
		Raw: []domain.LogEntry{
			{Message: "connection timeout reached"},
			{Message: "panic: nil pointer dereference"},
			{Message: "request completed in 12ms"},
		},
	}
	f := Logs(ev)
	assert.Equal(t, 1, f.TimeoutHits)
	assert.Equal(t, 1, f.ErrorHits)
	assert.Equal(t, "ok", f.Status)
	assert.Equal(t, "loki", f.Backend)
}

func TestLogsPrefersParsedErrorsOverRaw(t *testing.T) {
	ev := domain.LogsEvidence{
		ParsedErrors: []domain.ParsedLogError{{Message: "fatal error occurred"}},
		Raw:          []domain.LogEntry{{Message: "timeout"}},
	}
	f := Logs(ev)
	assert.Equal(t, 1, f.ErrorHits)
	assert.Equal(t, 0, f.TimeoutHits)
}
