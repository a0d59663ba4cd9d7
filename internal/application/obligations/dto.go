package obligations

import (
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/obligation"
)

// CreateObligationRequest represents a request to create an obligation
type CreateObligationRequest struct {
	ContractID  uuid.UUID `json:"contract_id" binding:"required"`
	Description string    `json:"description" binding:"required,min=1,max=1000"`
	Owner       string    `json:"owner" binding:"max=100"`
	DueDate     time.Time `json:"due_date" binding:"required"`
	Recurrence  string    `json:"recurrence" binding:"omitempty,oneof=NONE MONTHLY QUARTERLY ANNUAL"`
}

// UpdateObligationRequest represents a request to update an obligation
type UpdateObligationRequest struct {
	Description *string    `json:"description" binding:"omitempty,min=1,max=1000"`
	Owner       *string    `json:"owner" binding:"omitempty,max=100"`
	DueDate     *time.Time `json:"due_date"`
}

// ObligationResponse represents an obligation in API responses
type ObligationResponse struct {
	ID          uuid.UUID  `json:"id"`
	ContractID  uuid.UUID  `json:"contract_id"`
	Description string     `json:"description"`
	Owner       string     `json:"owner,omitempty"`
	DueDate     time.Time  `json:"due_date"`
	Recurrence  string     `json:"recurrence"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ObligationListFilter represents filter options for the obligation list
type ObligationListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=PENDING UPCOMING DUE OVERDUE COMPLETED"`
	Owner      string     `form:"owner"`
	ContractID *uuid.UUID `form:"contract_id"`
	DueBefore  *time.Time `form:"due_before"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CompleteResponse reports a completion plus the successor occurrence, if any
type CompleteResponse struct {
	Completed ObligationResponse  `json:"completed"`
	Successor *ObligationResponse `json:"successor,omitempty"`
}

// RefreshResult reports how many obligations changed status
type RefreshResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}

// ToObligationResponse converts a domain obligation to a response DTO
func ToObligationResponse(o *obligation.Obligation) ObligationResponse {
	return ObligationResponse{
		ID:          o.ID,
		ContractID:  o.ContractID,
		Description: o.Description,
		Owner:       o.Owner,
		DueDate:     o.DueDate,
		Recurrence:  string(o.Recurrence),
		Status:      string(o.Status),
		CompletedAt: o.CompletedAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// ToObligationResponses converts a slice of domain obligations
func ToObligationResponses(items []obligation.Obligation) []ObligationResponse {
	out := make([]ObligationResponse, len(items))
	for i := range items {
		out[i] = ToObligationResponse(&items[i])
	}
	return out
}
