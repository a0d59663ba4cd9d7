package sync

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/suiteql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeQuerier serves canned pages per query, keyed by a substring match
type fakeQuerier struct {
	pages   map[string][]*suiteql.Page
	queries []string
}

func (f *fakeQuerier) QueryAll(ctx context.Context, query string, maxPages int, handler func(page *suiteql.Page) error) (int, error) {
	f.queries = append(f.queries, query)
	for key, pages := range f.pages {
		if strings.Contains(query, key) {
			for _, page := range pages {
				if err := handler(page); err != nil {
					return 0, err
				}
			}
			return len(pages), nil
		}
	}
	return 0, nil
}

type mockSalesOrderRepository struct {
	mock.Mock
}

func (m *mockSalesOrderRepository) FindByInternalID(ctx context.Context, internalID int64) (*netsuite.SalesOrder, error) {
	args := m.Called(ctx, internalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*netsuite.SalesOrder), args.Error(1)
}

func (m *mockSalesOrderRepository) FindByTranID(ctx context.Context, tranID string) (*netsuite.SalesOrder, error) {
	args := m.Called(ctx, tranID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*netsuite.SalesOrder), args.Error(1)
}

func (m *mockSalesOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]netsuite.SalesOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]netsuite.SalesOrder), args.Error(1)
}

func (m *mockSalesOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSalesOrderRepository) UpsertBatch(ctx context.Context, orders []netsuite.SalesOrder) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
}

func (m *mockSalesOrderRepository) ExistingInternalIDs(ctx context.Context, internalIDs []int64) (map[int64]struct{}, error) {
	args := m.Called(ctx, internalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]struct{}), args.Error(1)
}

func (m *mockSalesOrderRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSalesOrderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

type mockWorkOrderRepository struct {
	mock.Mock
}

func (m *mockWorkOrderRepository) FindByInternalID(ctx context.Context, internalID int64) (*netsuite.WorkOrder, error) {
	args := m.Called(ctx, internalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*netsuite.WorkOrder), args.Error(1)
}

func (m *mockWorkOrderRepository) FindByTranID(ctx context.Context, tranID string) (*netsuite.WorkOrder, error) {
	args := m.Called(ctx, tranID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*netsuite.WorkOrder), args.Error(1)
}

func (m *mockWorkOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]netsuite.WorkOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]netsuite.WorkOrder), args.Error(1)
}

func (m *mockWorkOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWorkOrderRepository) UpsertBatch(ctx context.Context, orders []netsuite.WorkOrder) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
}

func (m *mockWorkOrderRepository) ExistingInternalIDs(ctx context.Context, internalIDs []int64) (map[int64]struct{}, error) {
	args := m.Called(ctx, internalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]struct{}), args.Error(1)
}

func (m *mockWorkOrderRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWorkOrderRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

type mockSyncRunRepository struct {
	mock.Mock
}

func (m *mockSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*netsuite.SyncRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*netsuite.SyncRun), args.Error(1)
}

func (m *mockSyncRunRepository) FindLatest(ctx context.Context, recordType netsuite.RecordType) (*netsuite.SyncRun, error) {
	args := m.Called(ctx, recordType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*netsuite.SyncRun), args.Error(1)
}

func (m *mockSyncRunRepository) FindAll(ctx context.Context, filter shared.Filter) ([]netsuite.SyncRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]netsuite.SyncRun), args.Error(1)
}

func (m *mockSyncRunRepository) Save(ctx context.Context, run *netsuite.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockSyncRunRepository) HasRunning(ctx context.Context, recordType netsuite.RecordType) (bool, error) {
	args := m.Called(ctx, recordType)
	return args.Bool(0), args.Error(1)
}

// failingQuerier simulates a fetch-level SuiteQL failure
type failingQuerier struct {
	err error
}

func (f *failingQuerier) QueryAll(context.Context, string, int, func(page *suiteql.Page) error) (int, error) {
	return 0, f.err
}

func raw(v string) json.RawMessage {
	return json.RawMessage(v)
}

func salesOrderPages() map[string][]*suiteql.Page {
	return map[string][]*suiteql.Page{
		"transactionline": {
			{Rows: []suiteql.Row{
				{
					"transaction":        raw(`101`),
					"linesequencenumber": raw(`1`),
					"item":               raw(`"Widget A"`),
					"quantity":           raw(`4`),
					"rate":               raw(`"25.00"`),
					"netamount":          raw(`"100.00"`),
				},
			}},
		},
		"FROM transaction t LEFT JOIN": {
			{Rows: []suiteql.Row{
				{
					"id":           raw(`101`),
					"tranid":       raw(`"SO-1001"`),
					"status":       raw(`"Pending Fulfillment"`),
					"entity":       raw(`"Acme Corp"`),
					"trandate":     raw(`"3/14/2026"`),
					"foreigntotal": raw(`"100.00"`),
					"currency":     raw(`"USD"`),
				},
				{
					"id":           raw(`102`),
					"tranid":       raw(`"SO-1002"`),
					"status":       raw(`"Billed"`),
					"entity":       raw(`"Globex"`),
					"trandate":     raw(`"4/2/2026"`),
					"foreigntotal": raw(`"250.00"`),
					"currency":     raw(`"USD"`),
				},
			}},
		},
	}
}

func TestSyncSalesOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("successful sync", func(t *testing.T) {
		querier := &fakeQuerier{pages: salesOrderPages()}
		soRepo := new(mockSalesOrderRepository)
		runRepo := new(mockSyncRunRepository)

		runRepo.On("HasRunning", ctx, netsuite.RecordSalesOrder).Return(false, nil)
		runRepo.On("Save", ctx, mock.AnythingOfType("*netsuite.SyncRun")).Return(nil)

		// SO-1002 is already mirrored, so the run splits one insert from one update
		soRepo.On("ExistingInternalIDs", ctx, []int64{101, 102}).
			Return(map[int64]struct{}{102: {}}, nil)

		var upserted []netsuite.SalesOrder
		soRepo.On("UpsertBatch", ctx, mock.AnythingOfType("[]netsuite.SalesOrder")).
			Run(func(args mock.Arguments) {
				upserted = append(upserted, args.Get(1).([]netsuite.SalesOrder)...)
			}).Return(nil)

		service := NewNetSuiteSyncService(querier, soRepo, new(mockWorkOrderRepository), runRepo, nil)
		resp, err := service.SyncSalesOrders(ctx, TriggerSyncRequest{Year: 2026}, "api")

		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)
		assert.Equal(t, 2026, resp.Year)
		assert.Equal(t, 2, resp.RowsFetched)
		assert.Equal(t, 1, resp.RowsInserted)
		assert.Equal(t, 1, resp.RowsUpdated)
		assert.Equal(t, 0, resp.RowsFailed)
		assert.Equal(t, 0, resp.RowsDeleted)

		require.Len(t, upserted, 2)
		assert.Equal(t, int64(101), upserted[0].InternalID)
		assert.Equal(t, "SO-1001", upserted[0].TranID)
		assert.Equal(t, "Acme Corp", upserted[0].Entity)
		assert.Equal(t, 2026, upserted[0].TranDate.Year())
		assert.Equal(t, "100", upserted[0].Total.String())
		require.Len(t, upserted[0].Lines, 1)
		assert.Equal(t, "Widget A", upserted[0].Lines[0].Item)
		assert.Equal(t, "25", upserted[0].Lines[0].Rate.String())
		assert.Empty(t, upserted[1].Lines)
	})

	t.Run("rejects overlapping runs", func(t *testing.T) {
		runRepo := new(mockSyncRunRepository)
		runRepo.On("HasRunning", ctx, netsuite.RecordSalesOrder).Return(true, nil)

		service := NewNetSuiteSyncService(&fakeQuerier{}, new(mockSalesOrderRepository), new(mockWorkOrderRepository), runRepo, nil)
		_, err := service.SyncSalesOrders(ctx, TriggerSyncRequest{Year: 2026}, "api")

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SYNC_IN_PROGRESS", domainErr.Code)
	})

	t.Run("clean slate deletes before reload", func(t *testing.T) {
		querier := &fakeQuerier{pages: salesOrderPages()}
		soRepo := new(mockSalesOrderRepository)
		runRepo := new(mockSyncRunRepository)

		runRepo.On("HasRunning", ctx, netsuite.RecordSalesOrder).Return(false, nil)
		runRepo.On("Save", ctx, mock.AnythingOfType("*netsuite.SyncRun")).Return(nil)
		soRepo.On("DeleteByYear", ctx, 2026).Return(int64(37), nil)
		soRepo.On("ExistingInternalIDs", ctx, mock.AnythingOfType("[]int64")).
			Return(map[int64]struct{}{}, nil)
		soRepo.On("UpsertBatch", ctx, mock.AnythingOfType("[]netsuite.SalesOrder")).Return(nil)

		service := NewNetSuiteSyncService(querier, soRepo, new(mockWorkOrderRepository), runRepo, nil)
		resp, err := service.SyncSalesOrders(ctx, TriggerSyncRequest{Year: 2026, CleanSlate: true}, "api")

		require.NoError(t, err)
		assert.Equal(t, 37, resp.RowsDeleted)
		soRepo.AssertCalled(t, "DeleteByYear", ctx, 2026)
	})

	t.Run("failing batch is counted, not aborted", func(t *testing.T) {
		querier := &fakeQuerier{pages: salesOrderPages()}
		soRepo := new(mockSalesOrderRepository)
		runRepo := new(mockSyncRunRepository)

		runRepo.On("HasRunning", ctx, netsuite.RecordSalesOrder).Return(false, nil)
		runRepo.On("Save", ctx, mock.AnythingOfType("*netsuite.SyncRun")).Return(nil)
		soRepo.On("ExistingInternalIDs", ctx, mock.AnythingOfType("[]int64")).
			Return(map[int64]struct{}{}, nil)
		soRepo.On("UpsertBatch", ctx, mock.AnythingOfType("[]netsuite.SalesOrder")).
			Return(errors.New("deadlock detected"))

		service := NewNetSuiteSyncService(querier, soRepo, new(mockWorkOrderRepository), runRepo, nil)
		resp, err := service.SyncSalesOrders(ctx, TriggerSyncRequest{Year: 2026}, "api")

		require.NoError(t, err)
		assert.Equal(t, "FAILED", resp.Status)
		assert.Equal(t, 2, resp.RowsFetched)
		assert.Equal(t, 0, resp.RowsInserted)
		assert.Equal(t, 2, resp.RowsFailed)
		assert.Contains(t, resp.Error, "deadlock detected")
		assert.NotNil(t, resp.CompletedAt)
	})

	t.Run("query failure aborts the run", func(t *testing.T) {
		soRepo := new(mockSalesOrderRepository)
		runRepo := new(mockSyncRunRepository)

		var saved *netsuite.SyncRun
		runRepo.On("HasRunning", ctx, netsuite.RecordSalesOrder).Return(false, nil)
		runRepo.On("Save", ctx, mock.AnythingOfType("*netsuite.SyncRun")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*netsuite.SyncRun)
			}).Return(nil)

		service := NewNetSuiteSyncService(&failingQuerier{err: errors.New("suiteql: 401 Unauthorized")},
			soRepo, new(mockWorkOrderRepository), runRepo, nil)
		_, err := service.SyncSalesOrders(ctx, TriggerSyncRequest{Year: 2026}, "api")

		require.Error(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, netsuite.SyncFailed, saved.Status)
		assert.Contains(t, saved.Error, "401 Unauthorized")
	})
}

func TestSyncWorkOrders(t *testing.T) {
	ctx := context.Background()

	querier := &fakeQuerier{pages: map[string][]*suiteql.Page{
		"'WorkOrd' AND tl.mainline = 'F'": {
			{Rows: []suiteql.Row{
				{
					"transaction":        raw(`201`),
					"linesequencenumber": raw(`1`),
					"item":               raw(`"Bracket"`),
					"quantity":           raw(`8`),
				},
			}},
		},
		"tl.mainline = 'T'": {
			{Rows: []suiteql.Row{
				{
					"id":           raw(`201`),
					"tranid":       raw(`"WO-3001"`),
					"status":       raw(`"In Process"`),
					"assemblyitem": raw(`"Rover Chassis"`),
					"location":     raw(`"Plant 1"`),
					"trandate":     raw(`"5/9/2026"`),
					"quantity":     raw(`10`),
					"built":        raw(`4`),
				},
			}},
		},
	}}

	woRepo := new(mockWorkOrderRepository)
	runRepo := new(mockSyncRunRepository)
	runRepo.On("HasRunning", ctx, netsuite.RecordWorkOrder).Return(false, nil)
	runRepo.On("Save", ctx, mock.AnythingOfType("*netsuite.SyncRun")).Return(nil)

	woRepo.On("ExistingInternalIDs", ctx, mock.AnythingOfType("[]int64")).
		Return(map[int64]struct{}{}, nil)

	var upserted []netsuite.WorkOrder
	woRepo.On("UpsertBatch", ctx, mock.AnythingOfType("[]netsuite.WorkOrder")).
		Run(func(args mock.Arguments) {
			upserted = append(upserted, args.Get(1).([]netsuite.WorkOrder)...)
		}).Return(nil)

	service := NewNetSuiteSyncService(querier, new(mockSalesOrderRepository), woRepo, runRepo, nil)
	resp, err := service.SyncWorkOrders(ctx, TriggerSyncRequest{Year: 2026}, "scheduler")

	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "scheduler", resp.TriggeredBy)

	require.Len(t, upserted, 1)
	assert.Equal(t, "WO-3001", upserted[0].TranID)
	assert.Equal(t, "Rover Chassis", upserted[0].AssemblyItem)
	assert.False(t, upserted[0].IsComplete())
	assert.Equal(t, "6", upserted[0].OpenQuantity().String())
	require.Len(t, upserted[0].Lines, 1)
	assert.Equal(t, "Bracket", upserted[0].Lines[0].Item)
}

func TestChunkSalesOrders(t *testing.T) {
	orders := make([]netsuite.SalesOrder, 1201)
	chunks := chunkSalesOrders(orders, 500)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 201)

	assert.Nil(t, chunkSalesOrders(nil, 500))
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	runRepo := new(mockSyncRunRepository)

	run, err := netsuite.NewSyncRun(netsuite.RecordSalesOrder, 2026, "api")
	require.NoError(t, err)
	run.RecordUpsert(1400, 12)
	require.NoError(t, run.Complete(0))

	runRepo.On("FindAll", ctx, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "started_at" &&
			f.Filters["record_type"] == "SALES_ORDER"
	})).Return([]netsuite.SyncRun{*run}, nil)

	service := NewNetSuiteSyncService(&fakeQuerier{}, new(mockSalesOrderRepository), new(mockWorkOrderRepository), runRepo, nil)
	runs, err := service.ListRuns(ctx, SyncRunListFilter{RecordType: "SALES_ORDER"})

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "COMPLETED", runs[0].Status)
	assert.Equal(t, 1400, runs[0].RowsInserted)
	assert.Equal(t, 12, runs[0].RowsUpdated)
}
