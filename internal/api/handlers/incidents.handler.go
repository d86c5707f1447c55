package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crashlens/crashlens-core/internal/judge"
	"github.com/crashlens/crashlens-core/internal/models"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

const defaultListLimit = 50

// Store is the slice of the document store the handlers use.
type Store interface {
	CreateIncident(ctx context.Context, inc *models.EnrichedIncident) (string, error)
	RecentIncidents(ctx context.Context, limit int) ([]*models.EnrichedIncident, error)
	TopPatterns(ctx context.Context, limit int) ([]*models.Pattern, error)
	RecentResolutions(ctx context.Context, limit int) ([]*models.Resolution, error)
}

// IncidentsHandler accepts crash reports at ingress and serves the read
// endpoints over the document store.
type IncidentsHandler struct {
	client   streams.Client
	store    Store
	fallback judge.Provider
	logger   logger.Logger
}

func NewIncidentsHandler(client streams.Client, store Store, log logger.Logger) *IncidentsHandler {
	return &IncidentsHandler{
		client:   client,
		store:    store,
		fallback: judge.NewRulesProvider(),
		logger:   log,
	}
}

// crashReport is the ingress payload. request_body accepts any JSON value and
// is persisted serialized.
type crashReport struct {
	Endpoint     string          `json:"endpoint" binding:"required"`
	StatusCode   int             `json:"status_code" binding:"required"`
	ErrorMessage string          `json:"error_message" binding:"required"`
	StackTrace   string          `json:"stack_trace"`
	RequestBody  json.RawMessage `json:"request_body"`
	Timestamp    string          `json:"timestamp"`
}

// ReportCrash handles POST /api/report-crash: assign an id, append the
// incident to the incidents stream and return immediately. If the transport
// is down the incident is triaged inline with the rule-based judgment and
// persisted directly, so a report is never lost to a transport outage.
func (h *IncidentsHandler) ReportCrash(c *gin.Context) {
	var report crashReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "endpoint, status_code and error_message are required",
		})
		return
	}

	ts := time.Now().UTC()
	if report.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, report.Timestamp); err == nil {
			ts = parsed.UTC()
		}
	}

	inc := models.Incident{
		IncidentID:   "inc_" + uuid.NewString(),
		Endpoint:     report.Endpoint,
		StatusCode:   report.StatusCode,
		ErrorMessage: report.ErrorMessage,
		StackTrace:   report.StackTrace,
		RequestBody:  string(report.RequestBody),
		Timestamp:    ts,
	}

	if _, err := h.client.Append(c.Request.Context(), streams.StreamIncidents, streams.IncidentValues(inc)); err != nil {
		h.logger.Error("Incident append failed, triaging inline", "incident_id", inc.IncidentID, "error", err)

		analysis := h.fallback.AnalyzeIncident(c.Request.Context(), inc)
		enriched := models.EnrichedIncident{
			Incident:     inc,
			Severity:     analysis.Severity,
			RootCause:    analysis.RootCause,
			SuggestedFix: analysis.SuggestedFix,
			AnalyzedBy:   "fallback",
		}
		if _, err := h.store.CreateIncident(c.Request.Context(), &enriched); err != nil {
			h.logger.Error("Inline persist failed", "incident_id", inc.IncidentID, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"error":  "incident could not be accepted",
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":      "accepted",
			"incident_id": inc.IncidentID,
			"mode":        "fallback",
			"severity":    enriched.Severity,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "accepted",
		"incident_id": inc.IncidentID,
	})
}

// ListIncidents handles GET /api/incidents.
func (h *IncidentsHandler) ListIncidents(c *gin.Context) {
	incidents, err := h.store.RecentIncidents(c.Request.Context(), listLimit(c))
	if err != nil {
		h.logger.Error("Incident query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "incident query failed"})
		return
	}
	if incidents == nil {
		incidents = []*models.EnrichedIncident{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "incidents": incidents, "count": len(incidents)})
}

// ListPatterns handles GET /api/patterns.
func (h *IncidentsHandler) ListPatterns(c *gin.Context) {
	patterns, err := h.store.TopPatterns(c.Request.Context(), listLimit(c))
	if err != nil {
		h.logger.Error("Pattern query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "pattern query failed"})
		return
	}
	if patterns == nil {
		patterns = []*models.Pattern{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "patterns": patterns, "count": len(patterns)})
}

// ListResolutions handles GET /api/resolutions.
func (h *IncidentsHandler) ListResolutions(c *gin.Context) {
	resolutions, err := h.store.RecentResolutions(c.Request.Context(), listLimit(c))
	if err != nil {
		h.logger.Error("Resolution query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "resolution query failed"})
		return
	}
	if resolutions == nil {
		resolutions = []*models.Resolution{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "resolutions": resolutions, "count": len(resolutions)})
}

func listLimit(c *gin.Context) int {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return limit
}
