package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReviewRepository implements ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindByID finds a review by its ID
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.ContractReview, error) {
	var review contract.ContractReview
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// FindByContract finds reviews for a contract, newest first by default
func (r *GormReviewRepository) FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) ([]contract.ContractReview, error) {
	var reviews []contract.ContractReview
	query := r.db.WithContext(ctx).
		Model(&contract.ContractReview{}).
		Where("contract_id = ?", contractID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(ValidateSortField(filter.OrderBy, ReviewSortFields, "created_at") + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// Save creates or updates a review
func (r *GormReviewRepository) Save(ctx context.Context, review *contract.ContractReview) error {
	return r.db.WithContext(ctx).Save(review).Error
}

// Ensure GormReviewRepository implements ReviewRepository
var _ contract.ReviewRepository = (*GormReviewRepository)(nil)
