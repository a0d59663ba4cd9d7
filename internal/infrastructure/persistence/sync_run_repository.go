package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/marsops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSyncRunRepository implements SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// FindByID finds a sync run by its ID
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*netsuite.SyncRun, error) {
	var run netsuite.SyncRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindLatest returns the most recently started run of the given type
func (r *GormSyncRunRepository) FindLatest(ctx context.Context, recordType netsuite.RecordType) (*netsuite.SyncRun, error) {
	var run netsuite.SyncRun
	err := r.db.WithContext(ctx).
		Where("record_type = ?", recordType).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindAll returns sync runs matching the filter, newest first
func (r *GormSyncRunRepository) FindAll(ctx context.Context, filter shared.Filter) ([]netsuite.SyncRun, error) {
	var runs []netsuite.SyncRun
	query := r.db.WithContext(ctx).Model(&netsuite.SyncRun{})

	if recordType, ok := filter.Filters["record_type"]; ok {
		query = query.Where("record_type = ?", recordType)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if year, ok := filter.Filters["year"]; ok {
		query = query.Where("year = ?", year)
	}

	query = query.Order("started_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Save creates or updates a sync run
func (r *GormSyncRunRepository) Save(ctx context.Context, run *netsuite.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// HasRunning reports whether a run of the given type is still in flight
func (r *GormSyncRunRepository) HasRunning(ctx context.Context, recordType netsuite.RecordType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&netsuite.SyncRun{}).
		Where("record_type = ? AND status = ?", recordType, netsuite.SyncRunning).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormSyncRunRepository implements SyncRunRepository
var _ netsuite.SyncRunRepository = (*GormSyncRunRepository)(nil)
