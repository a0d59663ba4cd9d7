package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Contract DTOs
// =============================================================================

// CreateContractRequest represents a request to create a new contract
type CreateContractRequest struct {
	Number        string           `json:"number" binding:"required,min=1,max=50"`
	Name          string           `json:"name" binding:"required,min=1,max=300"`
	Counterparty  string           `json:"counterparty" binding:"required,min=1,max=200"`
	Type          string           `json:"type" binding:"required,oneof=MSA SOW NDA PURCHASE_ORDER AMENDMENT"`
	Value         *decimal.Decimal `json:"value"`
	Currency      string           `json:"currency" binding:"omitempty,len=3"`
	EffectiveDate *time.Time       `json:"effective_date"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	NotionPageID  string           `json:"notion_page_id" binding:"max=64"`
	Notes         string           `json:"notes"`
}

// UpdateContractRequest represents a request to update a draft contract
type UpdateContractRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=300"`
	Counterparty  *string          `json:"counterparty" binding:"omitempty,min=1,max=200"`
	Value         *decimal.Decimal `json:"value"`
	Currency      *string          `json:"currency" binding:"omitempty,len=3"`
	EffectiveDate *time.Time       `json:"effective_date"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	NotionPageID  *string          `json:"notion_page_id" binding:"omitempty,max=64"`
	Notes         *string          `json:"notes"`
}

// DecisionRequest carries the approval or rejection comment
type DecisionRequest struct {
	Comment string `json:"comment" binding:"max=1000"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID               uuid.UUID       `json:"id"`
	Number           string          `json:"number"`
	Name             string          `json:"name"`
	Counterparty     string          `json:"counterparty"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	Value            decimal.Decimal `json:"value"`
	Currency         string          `json:"currency"`
	EffectiveDate    *time.Time      `json:"effective_date"`
	ExpiryDate       *time.Time      `json:"expiry_date"`
	DocumentKey      string          `json:"document_key,omitempty"`
	NotionPageID     string          `json:"notion_page_id,omitempty"`
	EnvelopeID       string          `json:"envelope_id,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	SubmittedAt      *time.Time      `json:"submitted_at"`
	DecidedAt        *time.Time      `json:"decided_at"`
	DecisionComment  string          `json:"decision_comment,omitempty"`
	SignatureStatus  string          `json:"signature_status,omitempty"`
	SignatureUpdated *time.Time      `json:"signature_updated"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ContractListFilter represents filter options for the contract list
type ContractListFilter struct {
	Search       string `form:"search"`
	Status       string `form:"status" binding:"omitempty,oneof=DRAFT PENDING APPROVED REJECTED"`
	Type         string `form:"type" binding:"omitempty,oneof=MSA SOW NDA PURCHASE_ORDER AMENDMENT"`
	Counterparty string `form:"counterparty"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToContractResponse converts a domain contract to a response DTO
func ToContractResponse(c *contract.Contract) ContractResponse {
	return ContractResponse{
		ID:               c.ID,
		Number:           c.Number,
		Name:             c.Name,
		Counterparty:     c.Counterparty,
		Type:             string(c.Type),
		Status:           string(c.Status),
		Value:            c.Value,
		Currency:         c.Currency,
		EffectiveDate:    c.EffectiveDate,
		ExpiryDate:       c.ExpiryDate,
		DocumentKey:      c.DocumentKey,
		NotionPageID:     c.NotionPageID,
		EnvelopeID:       c.EnvelopeID,
		Notes:            c.Notes,
		SubmittedAt:      c.SubmittedAt,
		DecidedAt:        c.DecidedAt,
		DecisionComment:  c.DecisionComment,
		SignatureStatus:  c.SignatureStatus,
		SignatureUpdated: c.SignatureUpdated,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ToContractResponses converts a slice of domain contracts
func ToContractResponses(items []contract.Contract) []ContractResponse {
	out := make([]ContractResponse, len(items))
	for i := range items {
		out[i] = ToContractResponse(&items[i])
	}
	return out
}

// =============================================================================
// Review DTOs
// =============================================================================

// StartReviewRequest represents a request to run an automated review
type StartReviewRequest struct {
	// Text is the contract body to analyze. When empty the stored source
	// document is used.
	Text string `json:"text"`
	// DrivePath optionally names a OneDrive document to fetch when the
	// contract has no stored source yet.
	DrivePath string `json:"drive_path" binding:"max=500"`
}

// ReviewResponse represents a review in API responses
type ReviewResponse struct {
	ID            uuid.UUID          `json:"id"`
	ContractID    uuid.UUID          `json:"contract_id"`
	Status        string             `json:"status"`
	Model         string             `json:"model"`
	SectionCount  int                `json:"section_count"`
	Findings      []contract.Finding `json:"findings"`
	Summary       string             `json:"summary,omitempty"`
	CriticalCount int                `json:"critical_count"`
	PromptTokens  int                `json:"prompt_tokens"`
	OutputTokens  int                `json:"output_tokens"`
	Error         string             `json:"error,omitempty"`
	StartedAt     *time.Time         `json:"started_at"`
	CompletedAt   *time.Time         `json:"completed_at"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ToReviewResponse converts a domain review to a response DTO
func ToReviewResponse(r *contract.ContractReview) ReviewResponse {
	return ReviewResponse{
		ID:            r.ID,
		ContractID:    r.ContractID,
		Status:        string(r.Status),
		Model:         r.Model,
		SectionCount:  r.SectionCount,
		Findings:      r.Findings,
		Summary:       r.Summary,
		CriticalCount: r.CriticalCount(),
		PromptTokens:  r.PromptTokens,
		OutputTokens:  r.OutputTokens,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
	}
}

// ToReviewResponses converts a slice of domain reviews
func ToReviewResponses(items []contract.ContractReview) []ReviewResponse {
	out := make([]ReviewResponse, len(items))
	for i := range items {
		out[i] = ToReviewResponse(&items[i])
	}
	return out
}

// =============================================================================
// Redline DTOs
// =============================================================================

// CreateRedlineRequest represents a request to diff two contract versions
type CreateRedlineRequest struct {
	Label    string `json:"label" binding:"max=200"`
	Original string `json:"original" binding:"required"`
	Revised  string `json:"revised" binding:"required"`
}

// RedlineResponse represents a redline in API responses
type RedlineResponse struct {
	ID          uuid.UUID `json:"id"`
	ContractID  uuid.UUID `json:"contract_id"`
	Label       string    `json:"label,omitempty"`
	HTML        string    `json:"html"`
	Insertions  int       `json:"insertions"`
	Deletions   int       `json:"deletions"`
	Unchanged   int       `json:"unchanged"`
	HasChanges  bool      `json:"has_changes"`
	ArtifactKey string    `json:"artifact_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToRedlineResponse converts a domain redline to a response DTO
func ToRedlineResponse(r *contract.Redline) RedlineResponse {
	return RedlineResponse{
		ID:          r.ID,
		ContractID:  r.ContractID,
		Label:       r.Label,
		HTML:        r.HTML,
		Insertions:  r.Insertions,
		Deletions:   r.Deletions,
		Unchanged:   r.Unchanged,
		HasChanges:  r.HasChanges(),
		ArtifactKey: r.ArtifactKey,
		CreatedAt:   r.CreatedAt,
	}
}

// ToRedlineResponses converts a slice of domain redlines
func ToRedlineResponses(items []contract.Redline) []RedlineResponse {
	out := make([]RedlineResponse, len(items))
	for i := range items {
		out[i] = ToRedlineResponse(&items[i])
	}
	return out
}
