package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/marsops/backend/internal/application/identity"
)

// DashboardHandler handles the dashboard catalog administration endpoints
type DashboardHandler struct {
	BaseHandler
	dashboardService *identityapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *identityapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Create handles POST /dashboards
func (h *DashboardHandler) Create(c *gin.Context) {
	var req identityapp.CreateDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	dashboard, err := h.dashboardService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dashboard)
}

// List handles GET /dashboards
func (h *DashboardHandler) List(c *gin.Context) {
	dashboards, err := h.dashboardService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dashboards)
}

// Update handles PUT /dashboards/:key
func (h *DashboardHandler) Update(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		h.BadRequest(c, "Dashboard key is required")
		return
	}

	var req identityapp.UpdateDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	dashboard, err := h.dashboardService.Update(c.Request.Context(), key, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dashboard)
}

// Delete handles DELETE /dashboards/:key
func (h *DashboardHandler) Delete(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		h.BadRequest(c, "Dashboard key is required")
		return
	}

	if err := h.dashboardService.Delete(c.Request.Context(), key); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
