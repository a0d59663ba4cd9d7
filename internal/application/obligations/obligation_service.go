// Package obligations implements tracking of dated contract commitments
// and the derived-status refresh that keeps their states current.
package obligations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/obligation"
	"github.com/marsops/backend/internal/domain/shared"
)

// ObligationService handles obligation operations
type ObligationService struct {
	obligationRepo obligation.ObligationRepository
	contractRepo   contract.ContractRepository
}

// NewObligationService creates a new ObligationService
func NewObligationService(obligationRepo obligation.ObligationRepository, contractRepo contract.ContractRepository) *ObligationService {
	return &ObligationService{
		obligationRepo: obligationRepo,
		contractRepo:   contractRepo,
	}
}

// Create creates an obligation under an existing contract
func (s *ObligationService) Create(ctx context.Context, req CreateObligationRequest) (*ObligationResponse, error) {
	// The contract must exist; a dangling obligation is never useful
	if _, err := s.contractRepo.FindByID(ctx, req.ContractID); err != nil {
		return nil, err
	}

	o, err := obligation.NewObligation(req.ContractID, req.Description, req.DueDate, obligation.Recurrence(req.Recurrence))
	if err != nil {
		return nil, err
	}
	if req.Owner != "" {
		o.AssignOwner(req.Owner)
	}

	if err := s.obligationRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToObligationResponse(o)
	return &response, nil
}

// GetByID retrieves an obligation by ID
func (s *ObligationService) GetByID(ctx context.Context, id uuid.UUID) (*ObligationResponse, error) {
	o, err := s.obligationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToObligationResponse(o)
	return &response, nil
}

// List retrieves obligations with filtering and pagination
func (s *ObligationService) List(ctx context.Context, filter ObligationListFilter) ([]ObligationResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "due_date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Owner != "" {
		domainFilter.Filters["owner"] = filter.Owner
	}
	if filter.ContractID != nil {
		domainFilter.Filters["contract_id"] = *filter.ContractID
	}
	if filter.DueBefore != nil {
		domainFilter.Filters["due_before"] = *filter.DueBefore
	}

	items, err := s.obligationRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.obligationRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToObligationResponses(items), total, nil
}

// Update updates an obligation's editable fields
func (s *ObligationService) Update(ctx context.Context, id uuid.UUID, req UpdateObligationRequest) (*ObligationResponse, error) {
	o, err := s.obligationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		if *req.Description == "" {
			return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
		}
		o.Description = *req.Description
		o.Touch()
	}
	if req.Owner != nil {
		o.AssignOwner(*req.Owner)
	}
	if req.DueDate != nil {
		if err := o.Reschedule(*req.DueDate, time.Now()); err != nil {
			return nil, err
		}
	}

	if err := s.obligationRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToObligationResponse(o)
	return &response, nil
}

// Delete removes an obligation
func (s *ObligationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.obligationRepo.Delete(ctx, id)
}

// Complete marks an obligation done. Recurring obligations spawn their next
// occurrence, which is persisted and returned alongside.
func (s *ObligationService) Complete(ctx context.Context, id uuid.UUID) (*CompleteResponse, error) {
	o, err := s.obligationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	successor, err := o.Complete(time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.obligationRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	result := &CompleteResponse{Completed: ToObligationResponse(o)}
	if successor != nil {
		if err := s.obligationRepo.Save(ctx, successor); err != nil {
			return nil, err
		}
		next := ToObligationResponse(successor)
		result.Successor = &next
	}
	return result, nil
}

// Upcoming lists open obligations due within the window, soonest first
func (s *ObligationService) Upcoming(ctx context.Context, window time.Duration) ([]ObligationResponse, error) {
	if window <= 0 {
		window = obligation.UpcomingWindow
	}
	items, err := s.obligationRepo.FindDueBefore(ctx, time.Now().Add(window))
	if err != nil {
		return nil, err
	}
	return ToObligationResponses(items), nil
}

// Refresh re-derives the status of every open obligation and persists the
// ones that changed. The nightly job and the manual refresh endpoint both
// land here.
func (s *ObligationService) Refresh(ctx context.Context) (*RefreshResult, error) {
	open, err := s.obligationRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	changed := make([]*obligation.Obligation, 0)
	for i := range open {
		if open[i].Refresh(now) {
			changed = append(changed, &open[i])
		}
	}

	if len(changed) > 0 {
		if err := s.obligationRepo.SaveBatch(ctx, changed); err != nil {
			return nil, err
		}
	}

	return &RefreshResult{Checked: len(open), Updated: len(changed)}, nil
}

// CountByStatus returns obligation counts grouped by status
func (s *ObligationService) CountByStatus(ctx context.Context) (map[obligation.Status]int64, error) {
	return s.obligationRepo.CountByStatus(ctx)
}
