package logselect

import (
	"testing"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
)

func entry(ts time.Time, msg string) domain.LogEntry {
	return domain.LogEntry{Timestamp: ts, Message: msg}
}

func TestSelectBestLinePrefersErrorOverBanner(t *testing.T) {
	entries := []domain.LogEntry{
		entry(time.Unix(100, 0), "  .   ____          _            __ _ _\nSpring Boot banner"),
		entry(time.Unix(200, 0), "ERROR: could not connect to database"),
	}
	best := SelectBestLine(entries)
	assert.Contains(t, best, "ERROR")
}

func TestSelectBestLineIgnoresConfigNoise(t *testing.T) {
	entries := []domain.LogEntry{
		entry(time.Unix(100, 0), "default.production.exception.handler = class Foo"),
	}
	best := SelectBestLine(entries)
	assert.Equal(t, "default.production.exception.handler = class Foo", best)
}

func TestSelectBestLinePrefersMostRecentOnTie(t *testing.T) {
	entries := []domain.LogEntry{
		entry(time.Unix(100, 0), "WARNING: old warning"),
		entry(time.Unix(200, 0), "WARNING: new warning"),
	}
	assert.Equal(t, "WARNING: new warning", SelectBestLine(entries))
}

func TestSelectBestLineEmptyEntries(t *testing.T) {
	assert.Equal(t, "", SelectBestLine(nil))
}

func TestSelectSnippetIncludesStackTrace(t *testing.T) {
	msg := "java.lang.NullPointerException: oops\n\tat com.example.Foo.bar(Foo.java:10)\n\tat com.example.Main.main(Main.java:5)"
	entries := []domain.LogEntry{entry(time.Unix(100, 0), msg)}
	snippet := SelectSnippet(entries)
	assert.NotEmpty(t, snippet)
	assert.Contains(t, snippet[0], "NullPointerException")
}

func TestSelectSnippetFallsBackToTail(t *testing.T) {
	entries := []domain.LogEntry{
		entry(time.Unix(100, 0), "starting up"),
		entry(time.Unix(200, 0), "listening on :8080"),
	}
	snippet := SelectSnippet(entries)
	assert.NotEmpty(t, snippet)
}

func TestSelectSnippetEmptyEntries(t *testing.T) {
	assert.Nil(t, SelectSnippet(nil))
}
