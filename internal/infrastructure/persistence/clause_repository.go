package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/clause"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormClauseRepository implements ClauseRepository using GORM
type GormClauseRepository struct {
	db *gorm.DB
}

// NewGormClauseRepository creates a new GormClauseRepository
func NewGormClauseRepository(db *gorm.DB) *GormClauseRepository {
	return &GormClauseRepository{db: db}
}

// FindByID finds a clause by its ID
func (r *GormClauseRepository) FindByID(ctx context.Context, id uuid.UUID) (*clause.Clause, error) {
	var c clause.Clause
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindAll returns clauses matching the filter
func (r *GormClauseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]clause.Clause, error) {
	var clauses []clause.Clause
	query := r.applyFilter(r.db.WithContext(ctx).Model(&clause.Clause{}), filter)
	if err := query.Find(&clauses).Error; err != nil {
		return nil, err
	}
	return clauses, nil
}

// FindByCategory returns clauses in a category
func (r *GormClauseRepository) FindByCategory(ctx context.Context, category clause.Category, filter shared.Filter) ([]clause.Clause, error) {
	var clauses []clause.Clause
	query := r.applyFilter(r.db.WithContext(ctx).Model(&clause.Clause{}), filter).
		Where("category = ?", category)
	if err := query.Find(&clauses).Error; err != nil {
		return nil, err
	}
	return clauses, nil
}

// Save creates or updates a clause
func (r *GormClauseRepository) Save(ctx context.Context, c *clause.Clause) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete deletes a clause
func (r *GormClauseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&clause.Clause{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts clauses matching the filter
func (r *GormClauseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&clause.Clause{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies search, category/tag filters, ordering and pagination
func (r *GormClauseRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.OrderBy != "" {
		direction := "ASC"
		if filter.OrderDir == "desc" {
			direction = "DESC"
		}
		query = query.Order(ValidateSortField(filter.OrderBy, ClauseSortFields, "usage_count") + " " + direction)
	} else {
		query = query.Order("usage_count DESC, created_at DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// applyFilterWithoutPagination applies search and filters but not pagination
func (r *GormClauseRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR body ILIKE ?", searchPattern, searchPattern)
	}

	if category, ok := filter.Filters["category"]; ok {
		query = query.Where("category = ?", category)
	}
	if tag, ok := filter.Filters["tag"].(string); ok && tag != "" {
		// Tags are stored as a JSON array of lowercase strings
		query = query.Where("tags LIKE ?", "%\""+tag+"\"%")
	}

	return query
}

// Ensure GormClauseRepository implements ClauseRepository
var _ clause.ClauseRepository = (*GormClauseRepository)(nil)
