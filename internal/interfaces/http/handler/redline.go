package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	contractapp "github.com/marsops/backend/internal/application/contracts"
)

// RedlineHandler handles contract redline comparison endpoints
type RedlineHandler struct {
	BaseHandler
	redlineService *contractapp.RedlineService
}

// NewRedlineHandler creates a new RedlineHandler
func NewRedlineHandler(redlineService *contractapp.RedlineService) *RedlineHandler {
	return &RedlineHandler{
		redlineService: redlineService,
	}
}

// Create handles POST /contracts/:id/redlines
func (h *RedlineHandler) Create(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req contractapp.CreateRedlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	redline, err := h.redlineService.Create(c.Request.Context(), contractID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// format=pdf renders the artifact in the same request
	if c.Query("format") == "pdf" {
		redline, err = h.redlineService.RenderPDF(c.Request.Context(), redline.ID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	h.Created(c, redline)
}

// GetByID handles GET /redlines/:id
func (h *RedlineHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid redline ID format")
		return
	}

	redline, err := h.redlineService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, redline)
}

// ListByContract handles GET /contracts/:id/redlines
func (h *RedlineHandler) ListByContract(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	page, pageSize := paginationParams(c)
	redlines, err := h.redlineService.ListByContract(c.Request.Context(), contractID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, redlines)
}

// Delete handles DELETE /redlines/:id
func (h *RedlineHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid redline ID format")
		return
	}

	if err := h.redlineService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RenderPDF handles POST /redlines/:id/render
func (h *RedlineHandler) RenderPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid redline ID format")
		return
	}

	redline, err := h.redlineService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, redline)
}

// ArtifactURL handles GET /redlines/:id/artifact
func (h *RedlineHandler) ArtifactURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid redline ID format")
		return
	}

	url, err := h.redlineService.ArtifactURL(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"url": url})
}
