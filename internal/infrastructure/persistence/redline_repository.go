package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRedlineRepository implements RedlineRepository using GORM
type GormRedlineRepository struct {
	db *gorm.DB
}

// NewGormRedlineRepository creates a new GormRedlineRepository
func NewGormRedlineRepository(db *gorm.DB) *GormRedlineRepository {
	return &GormRedlineRepository{db: db}
}

// FindByID finds a redline by its ID
func (r *GormRedlineRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Redline, error) {
	var redline contract.Redline
	if err := r.db.WithContext(ctx).First(&redline, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &redline, nil
}

// FindByContract finds redlines for a contract, newest first
func (r *GormRedlineRepository) FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) ([]contract.Redline, error) {
	var redlines []contract.Redline
	query := r.db.WithContext(ctx).
		Model(&contract.Redline{}).
		Where("contract_id = ?", contractID).
		Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&redlines).Error; err != nil {
		return nil, err
	}
	return redlines, nil
}

// Save creates or updates a redline
func (r *GormRedlineRepository) Save(ctx context.Context, redline *contract.Redline) error {
	return r.db.WithContext(ctx).Save(redline).Error
}

// Delete deletes a redline
func (r *GormRedlineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&contract.Redline{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormRedlineRepository implements RedlineRepository
var _ contract.RedlineRepository = (*GormRedlineRepository)(nil)
