package clauses

import (
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/clause"
)

// CreateClauseRequest represents a request to add a library clause
type CreateClauseRequest struct {
	Title    string   `json:"title" binding:"required,min=1,max=200"`
	Body     string   `json:"body" binding:"required,min=1"`
	Category string   `json:"category" binding:"omitempty,oneof=LIABILITY INDEMNIFICATION TERMINATION PAYMENT CONFIDENTIALITY IP GENERAL"`
	Tags     []string `json:"tags" binding:"max=20"`
}

// UpdateClauseRequest represents a request to update a library clause
type UpdateClauseRequest struct {
	Title    *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Body     *string   `json:"body" binding:"omitempty,min=1"`
	Category *string   `json:"category" binding:"omitempty,oneof=LIABILITY INDEMNIFICATION TERMINATION PAYMENT CONFIDENTIALITY IP GENERAL"`
	Tags     *[]string `json:"tags" binding:"omitempty,max=20"`
}

// SearchRequest represents a similarity search over the library
type SearchRequest struct {
	Query    string `form:"q" binding:"required,min=1,max=1000"`
	Category string `form:"category" binding:"omitempty,oneof=LIABILITY INDEMNIFICATION TERMINATION PAYMENT CONFIDENTIALITY IP GENERAL"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ClauseResponse represents a clause in API responses
type ClauseResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ClauseListFilter represents filter options for the clause list
type ClauseListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category" binding:"omitempty,oneof=LIABILITY INDEMNIFICATION TERMINATION PAYMENT CONFIDENTIALITY IP GENERAL"`
	Tag      string `form:"tag"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MatchResponse pairs a clause with its search score
type MatchResponse struct {
	Clause ClauseResponse `json:"clause"`
	Score  float64        `json:"score"`
}

// ToClauseResponse converts a domain clause to a response DTO
func ToClauseResponse(c *clause.Clause) ClauseResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return ClauseResponse{
		ID:         c.ID,
		Title:      c.Title,
		Body:       c.Body,
		Category:   string(c.Category),
		Tags:       tags,
		UsageCount: c.UsageCount,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ToClauseResponses converts a slice of domain clauses
func ToClauseResponses(items []clause.Clause) []ClauseResponse {
	out := make([]ClauseResponse, len(items))
	for i := range items {
		out[i] = ToClauseResponse(&items[i])
	}
	return out
}

// ToMatchResponses converts ranked matches to response DTOs
func ToMatchResponses(matches []clause.Match) []MatchResponse {
	out := make([]MatchResponse, len(matches))
	for i := range matches {
		out[i] = MatchResponse{
			Clause: ToClauseResponse(&matches[i].Clause),
			Score:  matches[i].Score,
		}
	}
	return out
}
