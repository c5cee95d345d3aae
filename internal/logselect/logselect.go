// Package logselect picks a small, actionable slice of raw log lines for
// reports and one-liners: it prefers real failure signals (ERROR/FATAL/
// panic, tracebacks, stack frames) over startup banners, VictoriaLogs
// missing-field warnings, and config keys that merely mention "exception".
package logselect

import (
	"regexp"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

const maxBestLineLen = 180

func looksLikeStartupBanner(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	if strings.Contains(t, "____") && (strings.Contains(t, "|_|") || strings.Contains(t, "___")) {
		return true
	}
	for _, p := range []string{" .   ____", "\\/  ___", " \\\\/  ___", " ========="} {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(t), ":: spring boot ::")
}

func isNoiseLine(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return true
	}
	if looksLikeStartupBanner(s) {
		return true
	}
	sl := strings.ToLower(s)
	if strings.Contains(sl, "missing _msg field") {
		return true
	}
	return strings.Contains(s, "docs.victoriametrics.com/victorialogs/keyconcepts/#message-field")
}

var cfgKVRe = regexp.MustCompile(`^\s*[\w.\-]+\s*=\s*.+$`)

func looksLikeConfigNoise(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return false
	}
	sl := strings.ToLower(s)
	if strings.Contains(sl, "exception.handler") {
		return true
	}
	if strings.Contains(sl, "exceptionhandler") && cfgKVRe.MatchString(s) {
		return true
	}
	return strings.Contains(sl, "exception") && cfgKVRe.MatchString(s)
}

var (
	stackAtRe       = regexp.MustCompile(`^\s+at\s+\S+`)
	stackMoreRe     = regexp.MustCompile(`^\s*\.\.\. \d+ more\s*$`)
	fatalPanicRe    = regexp.MustCompile(`\b(fatal|panic)\b`)
	errorWordRe     = regexp.MustCompile(`\b(error)\b`)
	errorLeadingRe  = regexp.MustCompile(`^\s*error\b`)
	exceptionLeadRe = regexp.MustCompile(`^\s*exception(\b|:)`)
	warnRe          = regexp.MustCompile(`\bwarn(ing)?\b`)
)

func isStackContinuation(line string) bool {
	s := strings.TrimRight(line, "\r")
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "\tat ") || stackAtRe.MatchString(s) {
		return true
	}
	sl := strings.ToLower(s)
	if strings.HasPrefix(sl, "caused by:") || strings.HasPrefix(sl, "suppressed:") {
		return true
	}
	return stackMoreRe.MatchString(s)
}

func scoreLine(line string) int {
	s := strings.TrimSpace(line)
	if s == "" {
		return 0
	}
	if isNoiseLine(s) {
		return 0
	}
	if looksLikeConfigNoise(s) {
		return 1
	}
	sl := strings.ToLower(s)
	switch {
	case fatalPanicRe.MatchString(sl):
		return 110
	case errorWordRe.MatchString(sl) || errorLeadingRe.MatchString(sl):
		return 100
	case strings.Contains(sl, "traceback"):
		return 100
	case exceptionLeadRe.MatchString(sl) || strings.Contains(sl, "exception:"):
		return 95
	case strings.Contains(sl, "caused by:"):
		return 92
	case isStackContinuation(s):
		return 70
	case strings.Contains(sl, "probe") && strings.Contains(sl, "failed"):
		return 90
	case warnRe.MatchString(sl):
		return 20
	default:
		return 5
	}
}

type flatEntry struct {
	tsKey   float64
	entryI  int
	lines   []string
}

func flattenEntries(entries []domain.LogEntry) []flatEntry {
	out := make([]flatEntry, 0, len(entries))
	for i, e := range entries {
		var lines []string
		for _, ln := range strings.Split(e.Message, "\n") {
			ln = strings.TrimRight(ln, "\r")
			if strings.TrimSpace(ln) != "" {
				lines = append(lines, ln)
			}
		}
		if len(lines) == 0 {
			continue
		}
		ts := 0.0
		if !e.Timestamp.IsZero() {
			ts = float64(e.Timestamp.Unix())
		}
		out = append(out, flatEntry{tsKey: ts, entryI: i, lines: lines})
	}
	return out
}

type candidate struct {
	tsKey  float64
	entryI int
	lineI  int
	line   string
	score  int
}

func isNewer(a, b candidate) bool {
	if a.tsKey != b.tsKey {
		return a.tsKey > b.tsKey
	}
	if a.entryI != b.entryI {
		return a.entryI > b.entryI
	}
	return a.lineI > b.lineI
}

// SelectBestLine picks a single best log line for one-liners: the highest-
// signal line, preferring the most recent on a score tie.
func SelectBestLine(entries []domain.LogEntry) string {
	flat := flattenEntries(entries)

	var best *candidate
	for _, fe := range flat {
		for lineI, ln := range fe.lines {
			s := strings.TrimSpace(ln)
			if isNoiseLine(s) {
				continue
			}
			cur := candidate{tsKey: fe.tsKey, entryI: fe.entryI, lineI: lineI, line: s, score: scoreLine(s)}
			if best == nil || cur.score > best.score || (cur.score == best.score && isNewer(cur, *best)) {
				best = &cur
			}
		}
	}

	if best == nil {
		return ""
	}
	if len(best.line) > maxBestLineLen {
		return best.line[:maxBestLineLen]
	}
	return best.line
}

const (
	defaultMaxLines = 12
	defaultBefore   = 1
	defaultAfter    = 6
	highSignalCut   = 90
)

// SelectSnippet picks a small, actionable snippet for a report appendix:
// the most recent high-signal line plus a little surrounding context from
// the same entry (extended to keep contiguous stack frames), falling back
// to a tail of non-noise lines when nothing scores high enough.
func SelectSnippet(entries []domain.LogEntry) []string {
	flat := flattenEntries(entries)
	if len(flat) == 0 {
		return nil
	}

	var winnerEntry, winnerLine int = -1, -1
	var winnerKey float64 = -1
	for _, fe := range flat {
		for lineI, ln := range fe.lines {
			s := strings.TrimSpace(ln)
			if isNoiseLine(s) {
				continue
			}
			if scoreLine(s) >= highSignalCut {
				if winnerEntry < 0 || fe.tsKey > winnerKey || (fe.tsKey == winnerKey && fe.entryI > winnerEntry) {
					winnerKey, winnerEntry, winnerLine = fe.tsKey, fe.entryI, lineI
				}
			}
		}
	}

	var chosen []string
	if winnerEntry >= 0 {
		for _, fe := range flat {
			if fe.entryI != winnerEntry {
				continue
			}
			lo := winnerLine - defaultBefore
			if lo < 0 {
				lo = 0
			}
			hi := winnerLine + defaultAfter + 1
			if hi > len(fe.lines) {
				hi = len(fe.lines)
			}
			window := append([]string{}, fe.lines[lo:hi]...)

			j := hi
			for j < len(fe.lines) && len(window) < defaultMaxLines {
				if isStackContinuation(fe.lines[j]) || strings.TrimSpace(fe.lines[j]) == "" {
					window = append(window, fe.lines[j])
					j++
					continue
				}
				break
			}

			for _, ln := range window {
				s := strings.TrimSpace(ln)
				if s == "" || isNoiseLine(s) {
					continue
				}
				chosen = append(chosen, s)
			}
			break
		}
	}

	if len(chosen) == 0 {
		var tail []string
		for _, fe := range flat {
			for _, ln := range fe.lines {
				s := strings.TrimSpace(ln)
				if s == "" || isNoiseLine(s) || looksLikeConfigNoise(s) {
					continue
				}
				tail = append(tail, s)
			}
		}
		if len(tail) == 0 {
			return nil
		}
		if len(tail) > defaultMaxLines {
			tail = tail[len(tail)-defaultMaxLines:]
		}
		return tail
	}

	if len(chosen) > defaultMaxLines {
		chosen = chosen[:defaultMaxLines]
	}
	return chosen
}
