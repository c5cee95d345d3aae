package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPatternMatchesAndExtractsContext(t *testing.T) {
	p := NewLogPattern(
		"test_pattern", "Test",
		[]string{`bucket '([a-z-]+)' not found`},
		80, "Bucket {bucket} missing", nil, nil,
		map[string]string{"bucket": `bucket '([a-z-]+)' not found`},
	)

	assert.True(t, p.Matches("error: bucket 'my-data' not found"))
	assert.False(t, p.Matches("everything is fine"))

	ctx := p.ExtractContext("error: bucket 'my-data' not found")
	assert.Equal(t, "my-data", ctx["bucket"])
}

func TestLogPatternRenderFallsBackToUnknown(t *testing.T) {
	p := LogPattern{}
	out := p.Render("missing {field} here", map[string]string{})
	assert.Equal(t, "missing unknown here", out)
}

func TestLogPatternMatcherCombinesMessages(t *testing.T) {
	a := NewLogPattern("a", "A", []string{"foo"}, 50, "", nil, nil, nil)
	b := NewLogPattern("b", "B", []string{"bar"}, 60, "", nil, nil, nil)
	m := LogPatternMatcher{Patterns: []LogPattern{a, b}}

	matches := m.FindMatches([]string{"line one has foo in it", "line two is clean"})
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Pattern.PatternID)
}

func TestLogPatternMatcherEmptyMessages(t *testing.T) {
	m := LogPatternMatcher{Patterns: []LogPattern{NewLogPattern("a", "A", []string{"foo"}, 50, "", nil, nil, nil)}}
	assert.Nil(t, m.FindMatches(nil))
}
