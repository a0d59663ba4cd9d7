package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	obligationapp "github.com/marsops/backend/internal/application/obligations"
)

// ObligationHandler handles contract obligation endpoints
type ObligationHandler struct {
	BaseHandler
	obligationService *obligationapp.ObligationService
}

// NewObligationHandler creates a new ObligationHandler
func NewObligationHandler(obligationService *obligationapp.ObligationService) *ObligationHandler {
	return &ObligationHandler{
		obligationService: obligationService,
	}
}

// Create handles POST /obligations
func (h *ObligationHandler) Create(c *gin.Context) {
	var req obligationapp.CreateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	obligation, err := h.obligationService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, obligation)
}

// GetByID handles GET /obligations/:id
func (h *ObligationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID format")
		return
	}

	obligation, err := h.obligationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, obligation)
}

// List handles GET /obligations
func (h *ObligationHandler) List(c *gin.Context) {
	var filter obligationapp.ObligationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	obligations, total, err := h.obligationService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, obligations, total, page, pageSize)
}

// Update handles PUT /obligations/:id
func (h *ObligationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID format")
		return
	}

	var req obligationapp.UpdateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	obligation, err := h.obligationService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, obligation)
}

// Delete handles DELETE /obligations/:id
func (h *ObligationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID format")
		return
	}

	if err := h.obligationService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Complete handles POST /obligations/:id/complete
func (h *ObligationHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID format")
		return
	}

	result, err := h.obligationService.Complete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Upcoming handles GET /obligations/upcoming?days=14
func (h *ObligationHandler) Upcoming(c *gin.Context) {
	days := 14
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			h.BadRequest(c, "days must be an integer between 1 and 365")
			return
		}
		days = parsed
	}

	obligations, err := h.obligationService.Upcoming(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, obligations)
}

// Refresh handles POST /obligations/refresh
func (h *ObligationHandler) Refresh(c *gin.Context) {
	result, err := h.obligationService.Refresh(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
