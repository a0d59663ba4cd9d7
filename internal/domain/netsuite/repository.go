package netsuite

import (
	"context"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// SalesOrderRepository defines persistence for mirrored sales orders
type SalesOrderRepository interface {
	FindByInternalID(ctx context.Context, internalID int64) (*SalesOrder, error)
	FindByTranID(ctx context.Context, tranID string) (*SalesOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesOrder, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// UpsertBatch inserts or replaces orders keyed by internal ID,
	// replacing their lines wholesale.
	UpsertBatch(ctx context.Context, orders []SalesOrder) error
	// ExistingInternalIDs reports which of the given internal IDs are
	// already mirrored, so sync runs can split inserts from updates.
	ExistingInternalIDs(ctx context.Context, internalIDs []int64) (map[int64]struct{}, error)
	// DeleteByYear removes all orders dated within the calendar year.
	DeleteByYear(ctx context.Context, year int) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// WorkOrderRepository defines persistence for mirrored work orders
type WorkOrderRepository interface {
	FindByInternalID(ctx context.Context, internalID int64) (*WorkOrder, error)
	FindByTranID(ctx context.Context, tranID string) (*WorkOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]WorkOrder, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	UpsertBatch(ctx context.Context, orders []WorkOrder) error
	ExistingInternalIDs(ctx context.Context, internalIDs []int64) (map[int64]struct{}, error)
	DeleteByYear(ctx context.Context, year int) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// SyncRunRepository defines persistence for sync run audit records
type SyncRunRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SyncRun, error)
	FindLatest(ctx context.Context, recordType RecordType) (*SyncRun, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SyncRun, error)
	Save(ctx context.Context, run *SyncRun) error
	// HasRunning reports whether a sync of the given type is in flight,
	// used to reject overlapping triggers.
	HasRunning(ctx context.Context, recordType RecordType) (bool, error)
}
