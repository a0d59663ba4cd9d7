package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByInternalID finds a sales order by its NetSuite internal ID
func (r *GormSalesOrderRepository) FindByInternalID(ctx context.Context, internalID int64) (*netsuite.SalesOrder, error) {
	var order netsuite.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "internal_id = ?", internalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByTranID finds a sales order by its document number
func (r *GormSalesOrderRepository) FindByTranID(ctx context.Context, tranID string) (*netsuite.SalesOrder, error) {
	var order netsuite.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "tran_id = ?", tranID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll returns sales orders matching the filter, lines excluded
func (r *GormSalesOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]netsuite.SalesOrder, error) {
	var orders []netsuite.SalesOrder
	query := r.applyFilter(r.db.WithContext(ctx).Model(&netsuite.SalesOrder{}), filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts sales orders matching the filter
func (r *GormSalesOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&netsuite.SalesOrder{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpsertBatch inserts or updates orders by internal ID and replaces their lines
func (r *GormSalesOrderRepository) UpsertBatch(ctx context.Context, orders []netsuite.SalesOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]int64, 0, len(orders))
		headers := make([]netsuite.SalesOrder, 0, len(orders))
		lines := make([]netsuite.SalesOrderLine, 0, len(orders))
		for i := range orders {
			ids = append(ids, orders[i].InternalID)
			header := orders[i]
			header.Lines = nil
			headers = append(headers, header)
			lines = append(lines, orders[i].Lines...)
		}

		// Lines are replaced wholesale rather than diffed
		if err := tx.Where("order_internal_id IN ?", ids).
			Delete(&netsuite.SalesOrderLine{}).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "internal_id"}},
			UpdateAll: true,
		}).Create(&headers).Error; err != nil {
			return err
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ExistingInternalIDs reports which of the given internal IDs are already mirrored
func (r *GormSalesOrderRepository) ExistingInternalIDs(ctx context.Context, internalIDs []int64) (map[int64]struct{}, error) {
	existing := make(map[int64]struct{}, len(internalIDs))
	if len(internalIDs) == 0 {
		return existing, nil
	}
	var found []int64
	if err := r.db.WithContext(ctx).Model(&netsuite.SalesOrder{}).
		Where("internal_id IN ?", internalIDs).
		Pluck("internal_id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		existing[id] = struct{}{}
	}
	return existing, nil
}

// DeleteByYear removes all orders dated within the calendar year
func (r *GormSalesOrderRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&netsuite.SalesOrder{}).
			Where("tran_date >= ? AND tran_date < ?", start, end).
			Pluck("internal_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("order_internal_id IN ?", ids).
			Delete(&netsuite.SalesOrderLine{}).Error; err != nil {
			return err
		}
		result := tx.Where("internal_id IN ?", ids).Delete(&netsuite.SalesOrder{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// CountByStatus returns the number of orders per NetSuite status
func (r *GormSalesOrderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&netsuite.SalesOrder{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// applyFilter applies search, filters, ordering and pagination
func (r *GormSalesOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.OrderBy != "" {
		direction := "ASC"
		if filter.OrderDir == "desc" {
			direction = "DESC"
		}
		query = query.Order(ValidateSortField(filter.OrderBy, OrderSortFields, "tran_date") + " " + direction)
	} else {
		query = query.Order("tran_date DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// applyFilterWithoutPagination applies search and filters but not pagination
func (r *GormSalesOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("tran_id ILIKE ? OR entity ILIKE ? OR memo ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if entity, ok := filter.Filters["entity"]; ok {
		query = query.Where("entity = ?", entity)
	}
	if subsidiary, ok := filter.Filters["subsidiary"]; ok {
		query = query.Where("subsidiary = ?", subsidiary)
	}
	if from, ok := filter.Filters["tran_date_from"]; ok {
		query = query.Where("tran_date >= ?", from)
	}
	if to, ok := filter.Filters["tran_date_to"]; ok {
		query = query.Where("tran_date <= ?", to)
	}

	return query
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ netsuite.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
