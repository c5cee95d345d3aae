// Package alertmanagerprovider implements providers.AlertmanagerProvider
// against Alertmanager's v2 HTTP API, using the same stdlib net/http
// client-with-timeout idiom [[logsprovider]] and the teacher's
// pkg/runbook.GitHubClient both use.
package alertmanagerprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Provider implements providers.AlertmanagerProvider.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a provider against baseURL (e.g. "http://alertmanager:9093").
func New(baseURL string) *Provider {
	return &Provider{baseURL: baseURL, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

type amAlert struct {
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     string            `json:"startsAt"`
	EndsAt       string            `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint"`
	Status       struct {
		State string `json:"state"`
	} `json:"status"`
}

// FetchActiveAlerts lists currently-active alerts matching selector's
// label equality filters, via GET /api/v2/alerts.
func (p *Provider) FetchActiveAlerts(ctx context.Context, selector map[string]string) ([]*domain.AlertInstance, error) {
	q := url.Values{}
	for k, v := range selector {
		q.Add("filter", fmt.Sprintf("%s=%q", k, v))
	}
	reqURL := p.baseURL + "/api/v2/alerts"
	if encoded := q.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build alertmanager request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch active alerts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alertmanager returned HTTP %d", resp.StatusCode)
	}

	var raw []amAlert
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode alertmanager response: %w", err)
	}

	out := make([]*domain.AlertInstance, 0, len(raw))
	for _, a := range raw {
		out = append(out, domain.NewAlertInstance(a.Fingerprint, a.Labels, a.Annotations, a.StartsAt, a.EndsAt, a.GeneratorURL, a.Status.State, a.Status.State))
	}
	return out, nil
}

// ExtractPodInfoFromAlert reads the namespace/pod labels Alertmanager
// alerts carry directly. It never infers a pod from the "instance" label
// (which is typically an IP:port or node identity, not a pod name) —
// callers that need pod identity from an instance-shaped alert must go
// through a separate lookup, not this method.
func (p *Provider) ExtractPodInfoFromAlert(alert *domain.AlertInstance) (namespace, pod string, ok bool) {
	if alert == nil {
		return "", "", false
	}
	namespace = alert.Labels["namespace"]
	pod = alert.Labels["pod"]
	if namespace == "" || pod == "" {
		return "", "", false
	}
	return namespace, pod, true
}

// GetAlertContext returns the alert's labels and annotations as a single
// generic context map, the minimal extra context Alertmanager itself can
// offer beyond what's already on the AlertInstance.
func (p *Provider) GetAlertContext(ctx context.Context, alert *domain.AlertInstance) (map[string]any, error) {
	if alert == nil {
		return nil, fmt.Errorf("nil alert")
	}
	return map[string]any{
		"labels":      alert.Labels,
		"annotations": alert.Annotations,
		"generator_url": alert.GeneratorURL,
	}, nil
}
