package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	contractapp "github.com/marsops/backend/internal/application/contracts"
)

// ReviewHandler handles automated contract review endpoints
type ReviewHandler struct {
	BaseHandler
	reviewService *contractapp.ReviewService
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService *contractapp.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// Run handles POST /contracts/:id/reviews
func (h *ReviewHandler) Run(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req contractapp.StartReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	review, err := h.reviewService.Run(c.Request.Context(), contractID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, review)
}

// GetByID handles GET /reviews/:id
func (h *ReviewHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review ID format")
		return
	}

	review, err := h.reviewService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, review)
}

// ListByContract handles GET /contracts/:id/reviews
func (h *ReviewHandler) ListByContract(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	page, pageSize := paginationParams(c)
	reviews, err := h.reviewService.ListByContract(c.Request.Context(), contractID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reviews)
}
