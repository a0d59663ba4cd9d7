package clause

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// Category groups clauses in the library
type Category string

const (
	CategoryLiability       Category = "LIABILITY"
	CategoryIndemnification Category = "INDEMNIFICATION"
	CategoryTermination     Category = "TERMINATION"
	CategoryPayment         Category = "PAYMENT"
	CategoryConfidentiality Category = "CONFIDENTIALITY"
	CategoryIP              Category = "IP"
	CategoryGeneral         Category = "GENERAL"
)

// IsValid checks if the category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryLiability, CategoryIndemnification, CategoryTermination,
		CategoryPayment, CategoryConfidentiality, CategoryIP, CategoryGeneral:
		return true
	}
	return false
}

// Clause is a reusable contract clause kept in the library
type Clause struct {
	shared.BaseEntity
	Title      string `gorm:"size:200;not null"`
	Body       string `gorm:"type:text;not null"`
	Category   Category
	Tags       []string `gorm:"serializer:json"`
	UsageCount int
}

// NewClause creates a new library clause
func NewClause(title, body string, category Category) (*Clause, error) {
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Clause title cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "Clause body cannot be empty")
	}
	if !category.IsValid() {
		category = CategoryGeneral
	}
	return &Clause{
		BaseEntity: shared.NewBaseEntity(),
		Title:      strings.TrimSpace(title),
		Body:       body,
		Category:   category,
	}, nil
}

// Update changes the clause content
func (c *Clause) Update(title, body string, category Category) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Clause title cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return shared.NewDomainError("INVALID_BODY", "Clause body cannot be empty")
	}
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Unknown clause category")
	}
	c.Title = strings.TrimSpace(title)
	c.Body = body
	c.Category = category
	c.Touch()
	return nil
}

// SetTags replaces the clause tags, lowercased and deduplicated
func (c *Clause) SetTags(tags []string) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	c.Tags = out
	c.Touch()
}

// RecordUsage increments the usage counter
func (c *Clause) RecordUsage() {
	c.UsageCount++
	c.Touch()
}

// ClauseRepository defines persistence operations for library clauses
type ClauseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Clause, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Clause, error)
	FindByCategory(ctx context.Context, category Category, filter shared.Filter) ([]Clause, error)
	Save(ctx context.Context, clause *Clause) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
