package obligation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// Status represents the derived state of a contract obligation
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusUpcoming  Status = "UPCOMING"
	StatusDue       Status = "DUE"
	StatusOverdue   Status = "OVERDUE"
	StatusCompleted Status = "COMPLETED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUpcoming, StatusDue, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}

// Derivation windows: an obligation is DUE inside one week of its deadline
// and UPCOMING inside thirty days.
const (
	DueWindow      = 7 * 24 * time.Hour
	UpcomingWindow = 30 * 24 * time.Hour
)

// Recurrence describes how often an obligation repeats
type Recurrence string

const (
	RecurrenceNone      Recurrence = "NONE"
	RecurrenceMonthly   Recurrence = "MONTHLY"
	RecurrenceQuarterly Recurrence = "QUARTERLY"
	RecurrenceAnnual    Recurrence = "ANNUAL"
)

// IsValid checks if the recurrence is known
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceMonthly, RecurrenceQuarterly, RecurrenceAnnual:
		return true
	}
	return false
}

// NextDue returns the next due date after the given one, or the zero time
// for non-recurring obligations.
func (r Recurrence) NextDue(after time.Time) time.Time {
	switch r {
	case RecurrenceMonthly:
		return after.AddDate(0, 1, 0)
	case RecurrenceQuarterly:
		return after.AddDate(0, 3, 0)
	case RecurrenceAnnual:
		return after.AddDate(1, 0, 0)
	}
	return time.Time{}
}

// Obligation is a dated commitment arising from a contract: a deliverable,
// a renewal notice, a payment milestone. Its status is derived from the due
// date and persisted so list filters stay cheap.
type Obligation struct {
	shared.BaseEntity
	ContractID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"size:1000;not null"`
	Owner       string    `gorm:"size:100"`
	DueDate     time.Time `gorm:"not null;index"`
	Recurrence  Recurrence
	Status      Status `gorm:"size:20;not null;index"`
	CompletedAt *time.Time
}

// NewObligation creates a new obligation for a contract
func NewObligation(contractID uuid.UUID, description string, dueDate time.Time, recurrence Recurrence) (*Obligation, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be empty")
	}
	if !recurrence.IsValid() {
		recurrence = RecurrenceNone
	}

	o := &Obligation{
		BaseEntity:  shared.NewBaseEntity(),
		ContractID:  contractID,
		Description: strings.TrimSpace(description),
		DueDate:     dueDate,
		Recurrence:  recurrence,
	}
	o.Status = o.DeriveStatus(time.Now())
	return o, nil
}

// DeriveStatus computes the status implied by the due date at the given time.
// Completed obligations keep their status.
func (o *Obligation) DeriveStatus(now time.Time) Status {
	if o.CompletedAt != nil {
		return StatusCompleted
	}
	switch until := o.DueDate.Sub(now); {
	case until < 0:
		return StatusOverdue
	case until <= DueWindow:
		return StatusDue
	case until <= UpcomingWindow:
		return StatusUpcoming
	default:
		return StatusPending
	}
}

// Refresh re-derives and persists the status field. It returns true when the
// status changed.
func (o *Obligation) Refresh(now time.Time) bool {
	derived := o.DeriveStatus(now)
	if derived == o.Status {
		return false
	}
	o.Status = derived
	o.Touch()
	return true
}

// Complete marks the obligation done. For recurring obligations the next
// occurrence is returned so the caller can persist it.
func (o *Obligation) Complete(now time.Time) (*Obligation, error) {
	if o.CompletedAt != nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Obligation is already completed")
	}
	o.CompletedAt = &now
	o.Status = StatusCompleted
	o.Touch()

	next := o.Recurrence.NextDue(o.DueDate)
	if next.IsZero() {
		return nil, nil
	}
	successor, err := NewObligation(o.ContractID, o.Description, next, o.Recurrence)
	if err != nil {
		return nil, err
	}
	successor.Owner = o.Owner
	successor.Status = successor.DeriveStatus(now)
	return successor, nil
}

// AssignOwner sets the person responsible for the obligation
func (o *Obligation) AssignOwner(owner string) {
	o.Owner = strings.TrimSpace(owner)
	o.Touch()
}

// Reschedule moves the due date and re-derives the status
func (o *Obligation) Reschedule(dueDate time.Time, now time.Time) error {
	if o.CompletedAt != nil {
		return shared.NewDomainError("INVALID_STATE", "Completed obligations cannot be rescheduled")
	}
	if dueDate.IsZero() {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be empty")
	}
	o.DueDate = dueDate
	o.Status = o.DeriveStatus(now)
	o.Touch()
	return nil
}

// ObligationRepository defines persistence operations for obligations
type ObligationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Obligation, error)
	FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) ([]Obligation, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Obligation, error)
	FindDueBefore(ctx context.Context, cutoff time.Time) ([]Obligation, error)
	FindOpen(ctx context.Context) ([]Obligation, error)
	Save(ctx context.Context, obligation *Obligation) error
	SaveBatch(ctx context.Context, obligations []*Obligation) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
