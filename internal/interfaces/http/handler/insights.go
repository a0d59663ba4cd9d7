package handler

import (
	"github.com/gin-gonic/gin"

	insightsapp "github.com/marsops/backend/internal/application/insights"
)

// InsightsHandler serves the memoized dashboard aggregates
type InsightsHandler struct {
	BaseHandler
	insightsService *insightsapp.InsightsService
}

// NewInsightsHandler creates a new InsightsHandler
func NewInsightsHandler(insightsService *insightsapp.InsightsService) *InsightsHandler {
	return &InsightsHandler{
		insightsService: insightsService,
	}
}

// Overview handles GET /insights/overview
func (h *InsightsHandler) Overview(c *gin.Context) {
	overview, err := h.insightsService.Overview(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, overview)
}

// Refresh handles POST /insights/refresh. It drops the cached aggregate so
// the next read recomputes from current data.
func (h *InsightsHandler) Refresh(c *gin.Context) {
	h.insightsService.Invalidate()

	overview, err := h.insightsService.Overview(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, overview)
}
