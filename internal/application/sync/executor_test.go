package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/marsops/backend/internal/application/obligations"
	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/marsops/backend/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	result *obligations.RefreshResult
	err    error
	calls  int
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*obligations.RefreshResult, error) {
	f.calls++
	return f.result, f.err
}

func TestJobDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches sales order sync", func(t *testing.T) {
		querier := &fakeQuerier{pages: salesOrderPages()}
		soRepo := new(mockSalesOrderRepository)
		runRepo := new(mockSyncRunRepository)
		runRepo.On("HasRunning", ctx, netsuite.RecordSalesOrder).Return(false, nil)
		runRepo.On("Save", ctx, mock.AnythingOfType("*netsuite.SyncRun")).Return(nil)
		soRepo.On("ExistingInternalIDs", ctx, mock.AnythingOfType("[]int64")).
			Return(map[int64]struct{}{}, nil)
		soRepo.On("UpsertBatch", ctx, mock.AnythingOfType("[]netsuite.SalesOrder")).Return(nil)

		service := NewNetSuiteSyncService(querier, soRepo, new(mockWorkOrderRepository), runRepo, nil)
		dispatcher := NewJobDispatcher(service, &fakeRefresher{}, nil)

		job := scheduler.NewJob(scheduler.JobKindSyncSalesOrders, 2026, "cron", 0)
		require.NoError(t, dispatcher.Execute(ctx, job))
		soRepo.AssertCalled(t, "UpsertBatch", ctx, mock.AnythingOfType("[]netsuite.SalesOrder"))
	})

	t.Run("dispatches obligation refresh", func(t *testing.T) {
		refresher := &fakeRefresher{result: &obligations.RefreshResult{Checked: 12, Updated: 3}}
		dispatcher := NewJobDispatcher(nil, refresher, nil)

		job := scheduler.NewJob(scheduler.JobKindRefreshObligations, 0, "cron", 0)
		require.NoError(t, dispatcher.Execute(ctx, job))
		assert.Equal(t, 1, refresher.calls)
	})

	t.Run("propagates refresh errors", func(t *testing.T) {
		refresher := &fakeRefresher{err: errors.New("db unavailable")}
		dispatcher := NewJobDispatcher(nil, refresher, nil)

		job := scheduler.NewJob(scheduler.JobKindRefreshObligations, 0, "cron", 0)
		assert.Error(t, dispatcher.Execute(ctx, job))
	})

	t.Run("rejects unknown job kinds", func(t *testing.T) {
		dispatcher := NewJobDispatcher(nil, &fakeRefresher{}, nil)

		job := scheduler.NewJob(scheduler.JobKind("VACUUM"), 0, "cron", 0)
		assert.ErrorIs(t, dispatcher.Execute(ctx, job), scheduler.ErrUnknownJobKind)
	})
}
