package diagnostics

import (
	"regexp"
	"strings"
)

// LogPattern is a known error signature matched against parsed log text,
// shared across every diagnostic module that interprets log content. It is
// the foundation for deterministic, explainable pattern-based diagnosis:
// a regex match yields a fixed confidence and a templated explanation,
// never an LLM guess.
type LogPattern struct {
	PatternID         string
	Title             string
	Patterns          []*regexp.Regexp
	Confidence        int
	WhyTemplate       string
	NextTests         []string
	RemediationSteps  []string
	ContextExtractors map[string]*regexp.Regexp
}

// NewLogPattern compiles a pattern's regexes once, at construction time, so
// matching against log text at diagnosis time never pays compilation cost
// or can fail on a malformed pattern.
func NewLogPattern(id, title string, patterns []string, confidence int, whyTemplate string, nextTests, remediation []string, extractors map[string]string) LogPattern {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+p))
	}
	extr := make(map[string]*regexp.Regexp, len(extractors))
	for field, p := range extractors {
		extr[field] = regexp.MustCompile("(?i)" + p)
	}
	return LogPattern{
		PatternID:         id,
		Title:             title,
		Patterns:          compiled,
		Confidence:        confidence,
		WhyTemplate:       whyTemplate,
		NextTests:         nextTests,
		RemediationSteps:  remediation,
		ContextExtractors: extr,
	}
}

// Matches reports whether any of the pattern's regexes match logText.
func (p LogPattern) Matches(logText string) bool {
	for _, re := range p.Patterns {
		if re.MatchString(logText) {
			return true
		}
	}
	return false
}

// ExtractContext pulls named capture-group values out of logText for every
// configured extractor field.
func (p LogPattern) ExtractContext(logText string) map[string]string {
	ctx := make(map[string]string)
	for field, re := range p.ContextExtractors {
		if m := re.FindStringSubmatch(logText); len(m) >= 2 {
			ctx[field] = m[1]
		}
	}
	return ctx
}

// Render substitutes "{field}" placeholders in a template using ctx,
// falling back to "unknown" for any field the pattern's extractors or
// investigation context did not supply.
func (p LogPattern) Render(template string, ctx map[string]string) string {
	out := template
	for strings.Contains(out, "{") {
		start := strings.IndexByte(out, '{')
		end := strings.IndexByte(out[start:], '}')
		if end < 0 {
			break
		}
		end += start
		field := out[start+1 : end]
		val, ok := ctx[field]
		if !ok {
			val = "unknown"
		}
		out = out[:start] + val + out[end+1:]
	}
	return out
}

// Match is one (pattern, extracted-context) pair produced by LogPatternMatcher.
type Match struct {
	Pattern LogPattern
	Context map[string]string
}

// LogPatternMatcher matches parsed log errors against a library of known
// patterns, combining every error message into one searchable text blob
// per investigation (matching the source data's own "parsed errors as a
// batch" shape).
type LogPatternMatcher struct {
	Patterns []LogPattern
}

// FindMatches returns every pattern that matched, with its extracted
// context.
func (m LogPatternMatcher) FindMatches(messages []string) []Match {
	if len(messages) == 0 {
		return nil
	}
	text := strings.Join(messages, "\n")
	var out []Match
	for _, p := range m.Patterns {
		if p.Matches(text) {
			out = append(out, Match{Pattern: p, Context: p.ExtractContext(text)})
		}
	}
	return out
}
