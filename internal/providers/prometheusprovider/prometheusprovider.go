// Package prometheusprovider implements providers.PrometheusProvider
// against a Prometheus-compatible HTTP API (Prometheus itself,
// VictoriaMetrics, Thanos querier) using client_golang's own
// api/prometheus/v1 client, the same library [[metrics]] already pulls in
// for instrumentation.
package prometheusprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Provider implements providers.PrometheusProvider over HTTP.
type Provider struct {
	api v1.API
}

// New builds a provider against baseURL (e.g. "http://prometheus:9090").
func New(baseURL string) (*Provider, error) {
	client, err := api.NewClient(api.Config{Address: baseURL})
	if err != nil {
		return nil, fmt.Errorf("build prometheus client for %s: %w", baseURL, err)
	}
	return &Provider{api: v1.NewAPI(client)}, nil
}

// InstantQuery evaluates query at a single point in time.
func (p *Provider) InstantQuery(ctx context.Context, query string, at time.Time) ([]domain.PromSeries, error) {
	value, warnings, err := p.api.Query(ctx, query, at)
	if err != nil {
		return nil, fmt.Errorf("instant query %q: %w", query, err)
	}
	logWarnings(query, warnings)
	return toSeries(value), nil
}

// RangeQuery evaluates query across window at the given step.
func (p *Provider) RangeQuery(ctx context.Context, query string, window domain.TimeWindow, step time.Duration) ([]domain.PromSeries, error) {
	r := v1.Range{Start: window.StartTime, End: window.EndTime, Step: step}
	value, warnings, err := p.api.QueryRange(ctx, query, r)
	if err != nil {
		return nil, fmt.Errorf("range query %q: %w", query, err)
	}
	logWarnings(query, warnings)
	return toSeries(value), nil
}

func logWarnings(query string, warnings v1.Warnings) {
	// Warnings (partial-response, truncated series) are non-fatal; the
	// evidence stage already treats an empty/degraded series as a
	// best-effort result, so there's nothing actionable to do with them
	// beyond what a future caller might want to surface via context.
	_ = query
	_ = warnings
}

// toSeries flattens whatever value shape Prometheus returned (vector,
// matrix, or scalar) into the domain's PromSeries shape.
func toSeries(value model.Value) []domain.PromSeries {
	switch v := value.(type) {
	case model.Vector:
		out := make([]domain.PromSeries, 0, len(v))
		for _, sample := range v {
			out = append(out, domain.PromSeries{
				Metric: labelsToMap(sample.Metric),
				Values: [][2]any{{float64(sample.Timestamp.Unix()), sample.Value.String()}},
			})
		}
		return out
	case model.Matrix:
		out := make([]domain.PromSeries, 0, len(v))
		for _, stream := range v {
			values := make([][2]any, 0, len(stream.Values))
			for _, pair := range stream.Values {
				values = append(values, [2]any{float64(pair.Timestamp.Unix()), pair.Value.String()})
			}
			out = append(out, domain.PromSeries{Metric: labelsToMap(stream.Metric), Values: values})
		}
		return out
	case *model.Scalar:
		return []domain.PromSeries{{
			Metric: map[string]string{},
			Values: [][2]any{{float64(v.Timestamp.Unix()), v.Value.String()}},
		}}
	default:
		return nil
	}
}

func labelsToMap(m model.Metric) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = string(v)
	}
	return out
}
