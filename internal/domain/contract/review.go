package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// ReviewStatus represents the state of an automated contract review
type ReviewStatus string

const (
	ReviewStatusQueued    ReviewStatus = "QUEUED"
	ReviewStatusRunning   ReviewStatus = "RUNNING"
	ReviewStatusCompleted ReviewStatus = "COMPLETED"
	ReviewStatusFailed    ReviewStatus = "FAILED"
)

// IsValid checks if the status is a valid ReviewStatus
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusQueued, ReviewStatusRunning, ReviewStatusCompleted, ReviewStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the review has finished
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusCompleted || s == ReviewStatusFailed
}

// Severity grades a review finding
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Finding is a single issue raised by the model for one contract section
type Finding struct {
	Section    int      `json:"section"`
	Severity   Severity `json:"severity"`
	Title      string   `json:"title"`
	Detail     string   `json:"detail"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// ContractReview is one automated review run over a contract's text.
// Sections are analyzed independently and the findings merged.
type ContractReview struct {
	shared.BaseEntity
	ContractID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Status       ReviewStatus
	Model        string `gorm:"size:100"`
	SectionCount int
	Findings     []Finding `gorm:"serializer:json"`
	Summary      string    `gorm:"type:text"`
	PromptTokens int
	OutputTokens int
	Error        string `gorm:"size:2000"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// NewContractReview creates a queued review for a contract
func NewContractReview(contractID uuid.UUID, model string) (*ContractReview, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if model == "" {
		return nil, shared.NewDomainError("INVALID_MODEL", "Model name cannot be empty")
	}
	return &ContractReview{
		BaseEntity: shared.NewBaseEntity(),
		ContractID: contractID,
		Status:     ReviewStatusQueued,
		Model:      model,
	}, nil
}

// Start marks the review running
func (r *ContractReview) Start(sectionCount int) error {
	if r.Status != ReviewStatusQueued {
		return shared.NewDomainError("INVALID_STATE", "Review has already started")
	}
	now := time.Now()
	r.Status = ReviewStatusRunning
	r.SectionCount = sectionCount
	r.StartedAt = &now
	r.Touch()
	return nil
}

// Complete stores the merged findings and marks the review done
func (r *ContractReview) Complete(findings []Finding, summary string, promptTokens, outputTokens int) error {
	if r.Status != ReviewStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only a running review can complete")
	}
	now := time.Now()
	r.Status = ReviewStatusCompleted
	r.Findings = findings
	r.Summary = summary
	r.PromptTokens = promptTokens
	r.OutputTokens = outputTokens
	r.CompletedAt = &now
	r.Touch()
	return nil
}

// Fail marks the review failed with the given reason
func (r *ContractReview) Fail(reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Review has already finished")
	}
	now := time.Now()
	r.Status = ReviewStatusFailed
	r.Error = reason
	r.CompletedAt = &now
	r.Touch()
	return nil
}

// CriticalCount returns the number of critical findings
func (r *ContractReview) CriticalCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
