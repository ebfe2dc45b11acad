package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
)

// Handler wires the JSON API to the discovery service.
type Handler struct {
	discoverySvc discovery.Service
	logger       *slog.Logger
}

// NewHandler constructs the API handler.
func NewHandler(discoverySvc discovery.Service, logger *slog.Logger) *Handler {
	return &Handler{
		discoverySvc: discoverySvc,
		logger:       logger.With("component", "http.handler"),
	}
}

// Analyze runs one Synergy Circle analysis.
func (h *Handler) Analyze(c *gin.Context) {
	var req discovery.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	h.logger.Debug("analysis requested", "subject", callerSubject(c), "profile_url", req.ProfileURL)

	result, err := h.discoverySvc.Analyze(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAnalysis returns one recorded analysis.
func (h *Handler) GetAnalysis(c *gin.Context) {
	rec, err := h.discoverySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListAnalyses returns summaries of the most recent analyses.
func (h *Handler) ListAnalyses(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		limit = parsed
	}
	items, err := h.discoverySvc.Recent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": items})
}

// Platforms lists the platform classification set.
func (h *Handler) Platforms(c *gin.Context) {
	platforms := discovery.Platforms()
	out := make([]gin.H, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, gin.H{"id": p, "label": p.Label()})
	}
	c.JSON(http.StatusOK, gin.H{"platforms": out})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
