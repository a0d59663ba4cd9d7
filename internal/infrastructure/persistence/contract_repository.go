package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormContractRepository implements ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var c contract.Contract
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByNumber finds a contract by its number
func (r *GormContractRepository) FindByNumber(ctx context.Context, number string) (*contract.Contract, error) {
	var c contract.Contract
	if err := r.db.WithContext(ctx).
		Where("number = ?", strings.ToUpper(strings.TrimSpace(number))).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByEnvelopeID finds the contract linked to a DocuSign envelope
func (r *GormContractRepository) FindByEnvelopeID(ctx context.Context, envelopeID string) (*contract.Contract, error) {
	var c contract.Contract
	if err := r.db.WithContext(ctx).
		Where("envelope_id = ?", envelopeID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindAll finds all contracts matching the filter
func (r *GormContractRepository) FindAll(ctx context.Context, filter shared.Filter) ([]contract.Contract, error) {
	var contracts []contract.Contract
	query := r.applyFilter(r.db.WithContext(ctx).Model(&contract.Contract{}), filter)

	if err := query.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// FindExpiringBefore finds active contracts whose term ends before the cutoff
func (r *GormContractRepository) FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]contract.Contract, error) {
	var contracts []contract.Contract
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date <= ?", contract.ApprovalStatusApproved, cutoff).
		Order("expiry_date ASC").
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// SaveWithLock updates a contract guarded by its optimistic version. A
// stale version means a concurrent writer got there first.
func (r *GormContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract) error {
	currentVersion := c.Version
	c.Version++
	c.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&contract.Contract{}).
		Where("id = ? AND version = ?", c.ID, currentVersion).
		Updates(map[string]interface{}{
			"number":            c.Number,
			"name":              c.Name,
			"counterparty":      c.Counterparty,
			"type":              c.Type,
			"status":            c.Status,
			"value":             c.Value,
			"currency":          c.Currency,
			"effective_date":    c.EffectiveDate,
			"expiry_date":       c.ExpiryDate,
			"document_key":      c.DocumentKey,
			"notion_page_id":    c.NotionPageID,
			"envelope_id":       c.EnvelopeID,
			"notes":             c.Notes,
			"submitted_at":      c.SubmittedAt,
			"decided_at":        c.DecidedAt,
			"decision_comment":  c.DecisionComment,
			"signature_status":  c.SignatureStatus,
			"signature_updated": c.SignatureUpdated,
			"version":           c.Version,
			"updated_at":        c.UpdatedAt,
		})
	if result.Error != nil {
		c.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		c.Version = currentVersion
		return shared.NewDomainError("CONCURRENT_MODIFICATION", "The contract has been modified by another user")
	}
	return nil
}

// Delete deletes a contract and its dependent records
func (r *GormContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&contract.ContractReview{}, "contract_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&contract.Redline{}, "contract_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&contract.Contract{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts contracts matching the filter
func (r *GormContractRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&contract.Contract{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns contract counts grouped by approval status
func (r *GormContractRepository) CountByStatus(ctx context.Context) ([]contract.StatusCount, error) {
	var counts []contract.StatusCount
	if err := r.db.WithContext(ctx).
		Model(&contract.Contract{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// ExistsByNumber checks if a contract with the given number exists
func (r *GormContractRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&contract.Contract{}).
		Where("number = ?", strings.ToUpper(strings.TrimSpace(number))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormContractRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, ContractSortFields, "created_at")
		direction := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			direction = "DESC"
		}
		query = query.Order(field + " " + direction)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormContractRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ? OR name ILIKE ? OR counterparty ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "counterparty":
			query = query.Where("counterparty = ?", value)
		case "currency":
			query = query.Where("currency = ?", value)
		case "signature_status":
			query = query.Where("signature_status = ?", value)
		case "expiring_before":
			query = query.Where("expiry_date IS NOT NULL AND expiry_date <= ?", value)
		}
	}

	return query
}

// Ensure GormContractRepository implements ContractRepository
var _ contract.ContractRepository = (*GormContractRepository)(nil)
