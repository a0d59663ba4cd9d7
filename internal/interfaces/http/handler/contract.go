package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	contractapp "github.com/marsops/backend/internal/application/contracts"
)

// maxDocumentSize caps uploaded contract documents at 25MB
const maxDocumentSize = 25 << 20

// ContractHandler handles contract CRUD and approval lifecycle endpoints
type ContractHandler struct {
	BaseHandler
	contractService *contractapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *contractapp.ContractService) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
	}
}

// Create handles POST /contracts
func (h *ContractHandler) Create(c *gin.Context) {
	var req contractapp.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	contract, err := h.contractService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, contract)
}

// GetByID handles GET /contracts/:id
func (h *ContractHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	contract, err := h.contractService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contract)
}

// GetByNumber handles GET /contracts/number/:number
func (h *ContractHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Contract number is required")
		return
	}

	contract, err := h.contractService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contract)
}

// List handles GET /contracts
func (h *ContractHandler) List(c *gin.Context) {
	var filter contractapp.ContractListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	contracts, total, err := h.contractService.List(c.Request.Context(), filter)
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
	h.SuccessWithMeta(c, contracts, total, page, pageSize)
}

// Update handles PUT /contracts/:id
func (h *ContractHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req contractapp.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	contract, err := h.contractService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contract)
}

// Delete handles DELETE /contracts/:id
func (h *ContractHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	if err := h.contractService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Submit handles POST /contracts/:id/submit
func (h *ContractHandler) Submit(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, id uuid.UUID) (*contractapp.ContractResponse, error) {
		return h.contractService.Submit(ctx.Request.Context(), id)
	})
}

// Approve handles POST /contracts/:id/approve
func (h *ContractHandler) Approve(c *gin.Context) {
	h.decide(c, h.contractService.Approve)
}

// Reject handles POST /contracts/:id/reject
func (h *ContractHandler) Reject(c *gin.Context) {
	h.decide(c, h.contractService.Reject)
}

// Revise handles POST /contracts/:id/revise
func (h *ContractHandler) Revise(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, id uuid.UUID) (*contractapp.ContractResponse, error) {
		return h.contractService.Revise(ctx.Request.Context(), id)
	})
}

func (h *ContractHandler) transition(c *gin.Context, apply func(*gin.Context, uuid.UUID) (*contractapp.ContractResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	contract, err := apply(c, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contract)
}

func (h *ContractHandler) decide(c *gin.Context, apply func(ctx context.Context, id uuid.UUID, req contractapp.DecisionRequest) (*contractapp.ContractResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req contractapp.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	contract, err := apply(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contract)
}

// LinkEnvelopeRequest names the e-signature envelope to attach
type LinkEnvelopeRequest struct {
	EnvelopeID string `json:"envelope_id" binding:"required,max=100"`
}

// LinkEnvelope handles POST /contracts/:id/envelope
func (h *ContractHandler) LinkEnvelope(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req LinkEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	contract, err := h.contractService.LinkEnvelope(c.Request.Context(), id, req.EnvelopeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contract)
}

// UploadDocument handles POST /contracts/:id/document (multipart form, field "file")
func (h *ContractHandler) UploadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A multipart file field named 'file' is required")
		return
	}
	if fileHeader.Size > maxDocumentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "Document exceeds the 25MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDocumentSize+1))
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	if len(data) > maxDocumentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "Document exceeds the 25MB limit")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	contract, err := h.contractService.UploadDocument(c.Request.Context(), id, fileHeader.Filename, contentType, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contract)
}

// DocumentURL handles GET /contracts/:id/document
func (h *ContractHandler) DocumentURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	url, expiresAt, err := h.contractService.DocumentURL(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"url":        url,
		"expires_at": expiresAt,
	})
}

// Expiring handles GET /contracts/expiring?days=30
func (h *ContractHandler) Expiring(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			h.BadRequest(c, "days must be an integer between 1 and 365")
			return
		}
		days = parsed
	}

	contracts, err := h.contractService.ExpiringSoon(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contracts)
}
