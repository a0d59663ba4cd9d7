package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/obligation"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormObligationRepository implements ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// FindByID finds an obligation by its ID
func (r *GormObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*obligation.Obligation, error) {
	var o obligation.Obligation
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByContract returns obligations attached to a contract, earliest due first
func (r *GormObligationRepository) FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) ([]obligation.Obligation, error) {
	var obligations []obligation.Obligation
	query := r.db.WithContext(ctx).
		Model(&obligation.Obligation{}).
		Where("contract_id = ?", contractID).
		Order("due_date ASC")

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&obligations).Error; err != nil {
		return nil, err
	}
	return obligations, nil
}

// FindAll returns obligations matching the filter
func (r *GormObligationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]obligation.Obligation, error) {
	var obligations []obligation.Obligation
	query := r.applyFilter(r.db.WithContext(ctx).Model(&obligation.Obligation{}), filter)
	if err := query.Find(&obligations).Error; err != nil {
		return nil, err
	}
	return obligations, nil
}

// FindDueBefore returns open obligations due on or before the cutoff
func (r *GormObligationRepository) FindDueBefore(ctx context.Context, cutoff time.Time) ([]obligation.Obligation, error) {
	var obligations []obligation.Obligation
	err := r.db.WithContext(ctx).
		Where("status <> ? AND due_date <= ?", obligation.StatusCompleted, cutoff).
		Order("due_date ASC").
		Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

// FindOpen returns all obligations that are not completed
func (r *GormObligationRepository) FindOpen(ctx context.Context) ([]obligation.Obligation, error) {
	var obligations []obligation.Obligation
	err := r.db.WithContext(ctx).
		Where("status <> ?", obligation.StatusCompleted).
		Order("due_date ASC").
		Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

// Save creates or updates an obligation
func (r *GormObligationRepository) Save(ctx context.Context, o *obligation.Obligation) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// SaveBatch persists a batch of obligations in one transaction
func (r *GormObligationRepository) SaveBatch(ctx context.Context, obligations []*obligation.Obligation) error {
	if len(obligations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range obligations {
			if err := tx.Save(o).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes an obligation
func (r *GormObligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&obligation.Obligation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts obligations matching the filter
func (r *GormObligationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&obligation.Obligation{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns the number of obligations per status
func (r *GormObligationRepository) CountByStatus(ctx context.Context) (map[obligation.Status]int64, error) {
	type statusCount struct {
		Status obligation.Status
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&obligation.Obligation{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[obligation.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// applyFilter applies search, filters, ordering and pagination
func (r *GormObligationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.OrderBy != "" {
		direction := "ASC"
		if filter.OrderDir == "desc" {
			direction = "DESC"
		}
		query = query.Order(ValidateSortField(filter.OrderBy, ObligationSortFields, "due_date") + " " + direction)
	} else {
		query = query.Order("due_date ASC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// applyFilterWithoutPagination applies search and filters but not pagination
func (r *GormObligationRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("description ILIKE ? OR owner ILIKE ?", searchPattern, searchPattern)
	}

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if owner, ok := filter.Filters["owner"]; ok {
		query = query.Where("owner = ?", owner)
	}
	if contractID, ok := filter.Filters["contract_id"]; ok {
		query = query.Where("contract_id = ?", contractID)
	}
	if dueBefore, ok := filter.Filters["due_before"]; ok {
		query = query.Where("due_date <= ?", dueBefore)
	}

	return query
}

// Ensure GormObligationRepository implements ObligationRepository
var _ obligation.ObligationRepository = (*GormObligationRepository)(nil)
