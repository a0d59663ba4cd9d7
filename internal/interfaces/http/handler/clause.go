package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	clauseapp "github.com/marsops/backend/internal/application/clauses"
)

// ClauseHandler handles clause library endpoints
type ClauseHandler struct {
	BaseHandler
	clauseService *clauseapp.ClauseService
}

// NewClauseHandler creates a new ClauseHandler
func NewClauseHandler(clauseService *clauseapp.ClauseService) *ClauseHandler {
	return &ClauseHandler{
		clauseService: clauseService,
	}
}

// Create handles POST /clauses
func (h *ClauseHandler) Create(c *gin.Context) {
	var req clauseapp.CreateClauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	clause, err := h.clauseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, clause)
}

// GetByID handles GET /clauses/:id
func (h *ClauseHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid clause ID format")
		return
	}

	clause, err := h.clauseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, clause)
}

// List handles GET /clauses
func (h *ClauseHandler) List(c *gin.Context) {
	var filter clauseapp.ClauseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	clauses, total, err := h.clauseService.List(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, clauses, total, page, pageSize)
}

// Update handles PUT /clauses/:id
func (h *ClauseHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid clause ID format")
		return
	}

	var req clauseapp.UpdateClauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	clause, err := h.clauseService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, clause)
}

// Delete handles DELETE /clauses/:id
func (h *ClauseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid clause ID format")
		return
	}

	if err := h.clauseService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RecordUsage handles POST /clauses/:id/use
func (h *ClauseHandler) RecordUsage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid clause ID format")
		return
	}

	clause, err := h.clauseService.RecordUsage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, clause)
}

// Search handles GET /clauses/search
func (h *ClauseHandler) Search(c *gin.Context) {
	var req clauseapp.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	matches, err := h.clauseService.Search(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, matches)
}
