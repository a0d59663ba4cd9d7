package sync

import (
	"context"

	"github.com/marsops/backend/internal/application/obligations"
	"github.com/marsops/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// ObligationRefresher is the slice of the obligation service the scheduler
// needs for the nightly status refresh.
type ObligationRefresher interface {
	Refresh(ctx context.Context) (*obligations.RefreshResult, error)
}

// JobDispatcher maps scheduler jobs onto the sync and obligation services.
// It is the single JobExecutor the worker pool runs.
type JobDispatcher struct {
	syncService *NetSuiteSyncService
	obligations ObligationRefresher
	logger      *zap.Logger
}

// NewJobDispatcher creates a new job dispatcher
func NewJobDispatcher(syncService *NetSuiteSyncService, obligations ObligationRefresher, logger *zap.Logger) *JobDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobDispatcher{
		syncService: syncService,
		obligations: obligations,
		logger:      logger,
	}
}

// Execute runs the work a job describes
func (d *JobDispatcher) Execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Kind {
	case scheduler.JobKindSyncSalesOrders:
		_, err := d.syncService.SyncSalesOrders(ctx, TriggerSyncRequest{Year: job.Year}, job.TriggeredBy)
		return err
	case scheduler.JobKindSyncWorkOrders:
		_, err := d.syncService.SyncWorkOrders(ctx, TriggerSyncRequest{Year: job.Year}, job.TriggeredBy)
		return err
	case scheduler.JobKindRefreshObligations:
		result, err := d.obligations.Refresh(ctx)
		if err != nil {
			return err
		}
		d.logger.Info("obligation refresh completed",
			zap.Int("checked", result.Checked),
			zap.Int("updated", result.Updated))
		return nil
	default:
		return scheduler.ErrUnknownJobKind
	}
}
