// Package logsprovider implements providers.LogsProvider against a
// Loki-compatible HTTP query API, using the same stdlib net/http client
// with a fixed request timeout and log/slog warning idiom the teacher's
// pkg/runbook.GitHubClient uses for its own HTTP integration.
package logsprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Provider implements providers.LogsProvider against Loki's
// /loki/api/v1/query_range endpoint.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a provider against baseURL (e.g. "http://loki:3100").
func New(baseURL string) *Provider {
	return &Provider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "logsprovider"),
	}
}

type lokiResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Stream map[string]string `json:"stream"`
			Values [][2]string       `json:"values"`
		} `json:"result"`
	} `json:"data"`
}

// Query runs a LogQL query across window and returns whatever log lines
// Loki returned, degrading to an "unavailable" evidence status on any
// transport or decode failure rather than erroring, matching the
// graceful-degradation contract the rest of the evidence pipeline
// follows.
func (p *Provider) Query(ctx context.Context, query string, window domain.TimeWindow) (domain.LogsEvidence, error) {
	if p.baseURL == "" {
		return domain.LogsEvidence{Status: "unavailable", Backend: "loki", Reason: "no loki endpoint configured", Query: query}, nil
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("start", strconv.FormatInt(window.StartTime.UnixNano(), 10))
	q.Set("end", strconv.FormatInt(window.EndTime.UnixNano(), 10))
	q.Set("limit", "1000")

	reqURL := p.baseURL + "/loki/api/v1/query_range?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.LogsEvidence{}, fmt.Errorf("build loki request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("loki query failed", "query", query, "error", err)
		return domain.LogsEvidence{Status: "unavailable", Backend: "loki", Reason: err.Error(), Query: query}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("loki returned non-200", "status", resp.StatusCode, "query", query)
		return domain.LogsEvidence{Status: "unavailable", Backend: "loki", Reason: fmt.Sprintf("HTTP %d", resp.StatusCode), Query: query}, nil
	}

	var parsed lokiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		p.logger.Warn("loki response decode failed", "query", query, "error", err)
		return domain.LogsEvidence{Status: "unavailable", Backend: "loki", Reason: err.Error(), Query: query}, nil
	}

	var entries []domain.LogEntry
	for _, stream := range parsed.Data.Result {
		for _, pair := range stream.Values {
			nanos, err := strconv.ParseInt(pair[0], 10, 64)
			if err != nil {
				continue
			}
			entries = append(entries, domain.LogEntry{
				Timestamp: time.Unix(0, nanos).UTC(),
				Message:   pair[1],
				Labels:    stream.Stream,
			})
		}
	}

	status := "ok"
	if len(entries) == 0 {
		status = "empty"
	}
	return domain.LogsEvidence{Raw: entries, Status: status, Backend: "loki", Query: query}, nil
}
