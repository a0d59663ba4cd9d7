package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/identity"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDashboardRepository implements DashboardRepository using GORM
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// FindByKey finds a dashboard by its catalog key
func (r *GormDashboardRepository) FindByKey(ctx context.Context, key string) (*identity.Dashboard, error) {
	var dashboard identity.Dashboard
	err := r.db.WithContext(ctx).
		First(&dashboard, "key = ?", strings.ToLower(strings.TrimSpace(key))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &dashboard, nil
}

// FindAll returns the full dashboard catalog ordered for display
func (r *GormDashboardRepository) FindAll(ctx context.Context) ([]identity.Dashboard, error) {
	var dashboards []identity.Dashboard
	err := r.db.WithContext(ctx).
		Order("sort_order ASC, key ASC").
		Find(&dashboards).Error
	if err != nil {
		return nil, err
	}
	return dashboards, nil
}

// Save creates or updates a dashboard
func (r *GormDashboardRepository) Save(ctx context.Context, dashboard *identity.Dashboard) error {
	return r.db.WithContext(ctx).Save(dashboard).Error
}

// Delete deletes a dashboard from the catalog
func (r *GormDashboardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.Dashboard{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDashboardRepository implements DashboardRepository
var _ identity.DashboardRepository = (*GormDashboardRepository)(nil)

// GormOverrideRepository implements OverrideRepository using GORM
type GormOverrideRepository struct {
	db *gorm.DB
}

// NewGormOverrideRepository creates a new GormOverrideRepository
func NewGormOverrideRepository(db *gorm.DB) *GormOverrideRepository {
	return &GormOverrideRepository{db: db}
}

// FindByUser returns the overrides attached to a user
func (r *GormOverrideRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.DashboardOverride, error) {
	var overrides []identity.DashboardOverride
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("dashboard_key ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}

// Save creates or updates an override
func (r *GormOverrideRepository) Save(ctx context.Context, override *identity.DashboardOverride) error {
	return r.db.WithContext(ctx).Save(override).Error
}

// Delete deletes an override by ID
func (r *GormOverrideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.DashboardOverride{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByUserAndKey removes the override a user holds for a dashboard key
func (r *GormOverrideRepository) DeleteByUserAndKey(ctx context.Context, userID uuid.UUID, key string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND dashboard_key = ?", userID, strings.ToLower(strings.TrimSpace(key))).
		Delete(&identity.DashboardOverride{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormOverrideRepository implements OverrideRepository
var _ identity.OverrideRepository = (*GormOverrideRepository)(nil)
