// Package ingest implements the Alertmanager webhook front door (C3):
// payload parsing, firing/resolved normalization, in-batch and
// object-store dedup, and enqueueing onto the durable queue.
package ingest

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// WebhookAlert mirrors one entry in Alertmanager's v4 webhook "alerts" array.
type WebhookAlert struct {
	Status       string            `json:"status" binding:"required"`
	Labels       map[string]string `json:"labels" binding:"required"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     string            `json:"startsAt"`
	EndsAt       string            `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint" binding:"required"`
}

// WebhookPayload mirrors Alertmanager's v4 webhook body.
type WebhookPayload struct {
	Version           string            `json:"version"`
	GroupKey          string            `json:"groupKey"`
	Status            string            `json:"status" binding:"required"`
	Receiver          string            `json:"receiver"`
	GroupLabels       map[string]string `json:"groupLabels"`
	CommonLabels      map[string]string `json:"commonLabels"`
	CommonAnnotations map[string]string `json:"commonAnnotations"`
	ExternalURL       string            `json:"externalURL"`
	Alerts            []WebhookAlert    `json:"alerts" binding:"required,dive"`
}

// Server exposes the webhook HTTP surface on top of a Pipeline.
type Server struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewServer wires a gin-based webhook server around pipeline.
func NewServer(pipeline *Pipeline) *Server {
	return &Server{pipeline: pipeline, logger: slog.Default().With("component", "ingest")}
}

// Register attaches the webhook and health routes to an existing engine.
func (s *Server) Register(r gin.IRouter) {
	r.POST("/webhook/alertmanager", s.HandleAlertmanagerWebhook)
	r.GET("/healthz", s.HandleHealthz)
}

// HandleAlertmanagerWebhook handles POST /webhook/alertmanager.
func (s *Server) HandleAlertmanagerWebhook(c *gin.Context) {
	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instances := make([]*domain.AlertInstance, 0, len(payload.Alerts))
	for _, a := range payload.Alerts {
		instances = append(instances, domain.NewAlertInstance(
			a.Fingerprint, a.Labels, a.Annotations, a.StartsAt, a.EndsAt,
			a.GeneratorURL, a.Status, payload.Status,
		))
	}

	stats, err := s.pipeline.Ingest(c.Request.Context(), instances)
	if err != nil {
		s.logger.Error("ingest failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HandleHealthz handles GET /healthz.
func (s *Server) HandleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
