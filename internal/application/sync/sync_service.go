package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/suiteql"
	"github.com/marsops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// upsertBatchSize caps how many mirror rows go into one upsert statement.
const upsertBatchSize = 500

// Querier is the slice of the SuiteQL client the sync needs.
type Querier interface {
	QueryAll(ctx context.Context, query string, maxPages int, handler func(page *suiteql.Page) error) (int, error)
}

// NetSuiteSyncService pulls sales and work orders from NetSuite into the
// local mirror tables. Each run is recorded as a SyncRun so operators can
// see when the mirror last refreshed and how many rows moved.
type NetSuiteSyncService struct {
	querier        Querier
	salesOrderRepo netsuite.SalesOrderRepository
	workOrderRepo  netsuite.WorkOrderRepository
	syncRunRepo    netsuite.SyncRunRepository
	logger         *zap.Logger
}

// NewNetSuiteSyncService creates a new sync service
func NewNetSuiteSyncService(
	querier Querier,
	salesOrderRepo netsuite.SalesOrderRepository,
	workOrderRepo netsuite.WorkOrderRepository,
	syncRunRepo netsuite.SyncRunRepository,
	logger *zap.Logger,
) *NetSuiteSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetSuiteSyncService{
		querier:        querier,
		salesOrderRepo: salesOrderRepo,
		workOrderRepo:  workOrderRepo,
		syncRunRepo:    syncRunRepo,
		logger:         logger,
	}
}

// SyncSalesOrders mirrors one calendar year of sales orders. When cleanSlate
// is set the year's mirror rows are deleted first and the year is reloaded
// in full.
func (s *NetSuiteSyncService) SyncSalesOrders(ctx context.Context, req TriggerSyncRequest, triggeredBy string) (*SyncRunResponse, error) {
	return s.run(ctx, netsuite.RecordSalesOrder, req, triggeredBy)
}

// SyncWorkOrders mirrors one calendar year of work orders
func (s *NetSuiteSyncService) SyncWorkOrders(ctx context.Context, req TriggerSyncRequest, triggeredBy string) (*SyncRunResponse, error) {
	return s.run(ctx, netsuite.RecordWorkOrder, req, triggeredBy)
}

func (s *NetSuiteSyncService) run(ctx context.Context, recordType netsuite.RecordType, req TriggerSyncRequest, triggeredBy string) (*SyncRunResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "netsuite_sync", "run")
	defer span.End()

	if s.querier == nil {
		err := shared.NewDomainError("UPSTREAM_UNAVAILABLE", "NetSuite integration is not configured")
		telemetry.RecordError(span, err)
		return nil, err
	}

	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSyncType, string(recordType),
		telemetry.SpanAttrSyncYear, year,
	)

	running, err := s.syncRunRepo.HasRunning(ctx, recordType)
	if err != nil {
		return nil, fmt.Errorf("failed to check running syncs: %w", err)
	}
	if running {
		return nil, shared.NewDomainError("SYNC_IN_PROGRESS", "A sync of this record type is already running")
	}

	run, err := netsuite.NewSyncRun(recordType, year, triggeredBy)
	if err != nil {
		return nil, err
	}
	if err := s.syncRunRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save sync run: %w", err)
	}

	s.logger.Info("netsuite sync started",
		zap.String("record_type", string(recordType)),
		zap.Int("year", year),
		zap.Bool("clean_slate", req.CleanSlate),
		zap.String("triggered_by", triggeredBy))

	deleted, syncErr := s.execute(ctx, recordType, year, req.CleanSlate, run)
	if syncErr != nil {
		if failErr := run.Fail(syncErr.Error()); failErr == nil {
			if saveErr := s.syncRunRepo.Save(ctx, run); saveErr != nil {
				s.logger.Error("failed to record sync failure", zap.Error(saveErr))
			}
		}
		s.logger.Error("netsuite sync failed",
			zap.String("record_type", string(recordType)),
			zap.Int("year", year),
			zap.Error(syncErr))
		err := shared.NewDomainError("SYNC_FAILED", syncErr.Error())
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := run.Complete(deleted); err != nil {
		return nil, err
	}
	if err := s.syncRunRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save sync run: %w", err)
	}

	s.logger.Info("netsuite sync completed",
		zap.String("record_type", string(recordType)),
		zap.Int("year", year),
		zap.String("status", string(run.Status)),
		zap.Int("pages", run.PagesFetched),
		zap.Int("rows_fetched", run.RowsFetched),
		zap.Int("rows_inserted", run.RowsInserted),
		zap.Int("rows_updated", run.RowsUpdated),
		zap.Int("rows_failed", run.RowsFailed),
		zap.Int("rows_deleted", deleted),
		zap.Duration("duration", run.Duration()))

	telemetry.AddEvent(span, "sync_completed",
		telemetry.SpanAttrRunID, run.ID.String(),
		"rows_inserted", run.RowsInserted,
		"rows_updated", run.RowsUpdated,
		"rows_failed", run.RowsFailed,
		"rows_deleted", deleted,
	)

	resp := ToSyncRunResponse(run)
	return &resp, nil
}

func (s *NetSuiteSyncService) execute(ctx context.Context, recordType netsuite.RecordType, year int, cleanSlate bool, run *netsuite.SyncRun) (deleted int, err error) {
	if cleanSlate {
		var n int64
		switch recordType {
		case netsuite.RecordSalesOrder:
			n, err = s.salesOrderRepo.DeleteByYear(ctx, year)
		case netsuite.RecordWorkOrder:
			n, err = s.workOrderRepo.DeleteByYear(ctx, year)
		}
		if err != nil {
			return 0, fmt.Errorf("clean slate delete failed: %w", err)
		}
		deleted = int(n)
	}

	switch recordType {
	case netsuite.RecordSalesOrder:
		err = s.syncSalesOrders(ctx, year, run)
	case netsuite.RecordWorkOrder:
		err = s.syncWorkOrders(ctx, year, run)
	}
	return deleted, err
}

// A batch that fails to write is counted on the run and the sync moves on;
// only fetch-level errors abort it.
func (s *NetSuiteSyncService) syncSalesOrders(ctx context.Context, year int, run *netsuite.SyncRun) error {
	lines, err := s.fetchSalesOrderLines(ctx, year)
	if err != nil {
		return err
	}

	_, err = s.querier.QueryAll(ctx, salesOrderQuery(year), 0, func(page *suiteql.Page) error {
		run.RecordPage(len(page.Rows))

		orders := make([]netsuite.SalesOrder, 0, len(page.Rows))
		for _, row := range page.Rows {
			order := rowToSalesOrder(row)
			order.Lines = lines[order.InternalID]
			orders = append(orders, order)
		}

		for _, batch := range chunkSalesOrders(orders, upsertBatchSize) {
			ids := make([]int64, 0, len(batch))
			for i := range batch {
				ids = append(ids, batch[i].InternalID)
			}
			existing, err := s.salesOrderRepo.ExistingInternalIDs(ctx, ids)
			if err != nil {
				run.RecordFailure(len(batch), fmt.Sprintf("sales order lookup failed: %v", err))
				continue
			}
			if err := s.salesOrderRepo.UpsertBatch(ctx, batch); err != nil {
				run.RecordFailure(len(batch), fmt.Sprintf("sales order upsert failed: %v", err))
				continue
			}
			run.RecordUpsert(len(batch)-len(existing), len(existing))
		}
		return nil
	})
	return err
}

func (s *NetSuiteSyncService) syncWorkOrders(ctx context.Context, year int, run *netsuite.SyncRun) error {
	lines, err := s.fetchWorkOrderLines(ctx, year)
	if err != nil {
		return err
	}

	_, err = s.querier.QueryAll(ctx, workOrderQuery(year), 0, func(page *suiteql.Page) error {
		run.RecordPage(len(page.Rows))

		orders := make([]netsuite.WorkOrder, 0, len(page.Rows))
		for _, row := range page.Rows {
			order := rowToWorkOrder(row)
			order.Lines = lines[order.InternalID]
			orders = append(orders, order)
		}

		for _, batch := range chunkWorkOrders(orders, upsertBatchSize) {
			ids := make([]int64, 0, len(batch))
			for i := range batch {
				ids = append(ids, batch[i].InternalID)
			}
			existing, err := s.workOrderRepo.ExistingInternalIDs(ctx, ids)
			if err != nil {
				run.RecordFailure(len(batch), fmt.Sprintf("work order lookup failed: %v", err))
				continue
			}
			if err := s.workOrderRepo.UpsertBatch(ctx, batch); err != nil {
				run.RecordFailure(len(batch), fmt.Sprintf("work order upsert failed: %v", err))
				continue
			}
			run.RecordUpsert(len(batch)-len(existing), len(existing))
		}
		return nil
	})
	return err
}

// fetchSalesOrderLines loads the whole year's lines up front, keyed by order
// internal ID. Line volumes are modest so this beats a per-order query.
func (s *NetSuiteSyncService) fetchSalesOrderLines(ctx context.Context, year int) (map[int64][]netsuite.SalesOrderLine, error) {
	lines := make(map[int64][]netsuite.SalesOrderLine)
	_, err := s.querier.QueryAll(ctx, salesOrderLineQuery(year), 0, func(page *suiteql.Page) error {
		for _, row := range page.Rows {
			orderID := row.Int64("transaction")
			lines[orderID] = append(lines[orderID], netsuite.SalesOrderLine{
				OrderInternalID: orderID,
				LineNumber:      int(row.Int64("linesequencenumber")),
				Item:            row.String("item"),
				Description:     row.String("memo"),
				Quantity:        decimal.NewFromFloat(row.Float64("quantity")),
				Rate:            decimal.NewFromFloat(row.Float64("rate")),
				Amount:          decimal.NewFromFloat(row.Float64("netamount")),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sales order line fetch failed: %w", err)
	}
	return lines, nil
}

func (s *NetSuiteSyncService) fetchWorkOrderLines(ctx context.Context, year int) (map[int64][]netsuite.WorkOrderLine, error) {
	lines := make(map[int64][]netsuite.WorkOrderLine)
	_, err := s.querier.QueryAll(ctx, workOrderLineQuery(year), 0, func(page *suiteql.Page) error {
		for _, row := range page.Rows {
			orderID := row.Int64("transaction")
			lines[orderID] = append(lines[orderID], netsuite.WorkOrderLine{
				OrderInternalID: orderID,
				LineNumber:      int(row.Int64("linesequencenumber")),
				Item:            row.String("item"),
				Description:     row.String("memo"),
				Quantity:        decimal.NewFromFloat(row.Float64("quantity")),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("work order line fetch failed: %w", err)
	}
	return lines, nil
}

func rowToSalesOrder(row suiteql.Row) netsuite.SalesOrder {
	return netsuite.SalesOrder{
		InternalID: row.Int64("id"),
		TranID:     row.String("tranid"),
		Status:     row.String("status"),
		Entity:     row.String("entity"),
		Subsidiary: row.String("subsidiary"),
		Memo:       row.String("memo"),
		TranDate:   row.Time("trandate"),
		Total:      decimal.NewFromFloat(row.Float64("foreigntotal")),
		Currency:   row.String("currency"),
		SyncedAt:   time.Now(),
	}
}

func rowToWorkOrder(row suiteql.Row) netsuite.WorkOrder {
	return netsuite.WorkOrder{
		InternalID:   row.Int64("id"),
		TranID:       row.String("tranid"),
		Status:       row.String("status"),
		AssemblyItem: row.String("assemblyitem"),
		Location:     row.String("location"),
		TranDate:     row.Time("trandate"),
		Quantity:     decimal.NewFromFloat(row.Float64("quantity")),
		Built:        decimal.NewFromFloat(row.Float64("built")),
		SyncedAt:     time.Now(),
	}
}

func chunkSalesOrders(orders []netsuite.SalesOrder, size int) [][]netsuite.SalesOrder {
	var chunks [][]netsuite.SalesOrder
	for start := 0; start < len(orders); start += size {
		end := start + size
		if end > len(orders) {
			end = len(orders)
		}
		chunks = append(chunks, orders[start:end])
	}
	return chunks
}

func chunkWorkOrders(orders []netsuite.WorkOrder, size int) [][]netsuite.WorkOrder {
	var chunks [][]netsuite.WorkOrder
	for start := 0; start < len(orders); start += size {
		end := start + size
		if end > len(orders) {
			end = len(orders)
		}
		chunks = append(chunks, orders[start:end])
	}
	return chunks
}

// =============================================================================
// Run history
// =============================================================================

// GetRun retrieves one sync run by ID
func (s *NetSuiteSyncService) GetRun(ctx context.Context, id uuid.UUID) (*SyncRunResponse, error) {
	run, err := s.syncRunRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSyncRunResponse(run)
	return &resp, nil
}

// LatestRun retrieves the most recent run for a record type
func (s *NetSuiteSyncService) LatestRun(ctx context.Context, recordType netsuite.RecordType) (*SyncRunResponse, error) {
	run, err := s.syncRunRepo.FindLatest(ctx, recordType)
	if err != nil {
		return nil, err
	}
	resp := ToSyncRunResponse(run)
	return &resp, nil
}

// ListRuns retrieves the sync run history with filters
func (s *NetSuiteSyncService) ListRuns(ctx context.Context, filter SyncRunListFilter) ([]SyncRunResponse, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	filters := make(map[string]interface{})
	if filter.RecordType != "" {
		filters["record_type"] = filter.RecordType
	}
	if filter.Status != "" {
		filters["status"] = filter.Status
	}
	if filter.Year != 0 {
		filters["year"] = filter.Year
	}

	runs, err := s.syncRunRepo.FindAll(ctx, shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "started_at",
		OrderDir: "desc",
		Filters:  filters,
	})
	if err != nil {
		return nil, err
	}
	return ToSyncRunResponses(runs), nil
}

// =============================================================================
// SuiteQL queries
// =============================================================================

func salesOrderQuery(year int) string {
	return fmt.Sprintf(`SELECT t.id, t.tranid, BUILTIN.DF(t.status) AS status, BUILTIN.DF(t.entity) AS entity, BUILTIN.DF(s.name) AS subsidiary, t.memo, t.trandate, t.foreigntotal, BUILTIN.DF(t.currency) AS currency FROM transaction t LEFT JOIN subsidiary s ON s.id = t.subsidiary WHERE t.type = 'SalesOrd' AND t.trandate BETWEEN TO_DATE('%d-01-01', 'YYYY-MM-DD') AND TO_DATE('%d-12-31', 'YYYY-MM-DD') ORDER BY t.id`, year, year)
}

func salesOrderLineQuery(year int) string {
	return fmt.Sprintf(`SELECT tl.transaction, tl.linesequencenumber, BUILTIN.DF(tl.item) AS item, tl.memo, ABS(tl.quantity) AS quantity, tl.rate, ABS(tl.netamount) AS netamount FROM transactionline tl JOIN transaction t ON t.id = tl.transaction WHERE t.type = 'SalesOrd' AND tl.mainline = 'F' AND tl.taxline = 'F' AND t.trandate BETWEEN TO_DATE('%d-01-01', 'YYYY-MM-DD') AND TO_DATE('%d-12-31', 'YYYY-MM-DD') ORDER BY tl.transaction, tl.linesequencenumber`, year, year)
}

func workOrderQuery(year int) string {
	return fmt.Sprintf(`SELECT t.id, t.tranid, BUILTIN.DF(t.status) AS status, BUILTIN.DF(tl.item) AS assemblyitem, BUILTIN.DF(t.location) AS location, t.trandate, ABS(tl.quantity) AS quantity, ABS(tl.quantityshiprecv) AS built FROM transaction t JOIN transactionline tl ON tl.transaction = t.id AND tl.mainline = 'T' WHERE t.type = 'WorkOrd' AND t.trandate BETWEEN TO_DATE('%d-01-01', 'YYYY-MM-DD') AND TO_DATE('%d-12-31', 'YYYY-MM-DD') ORDER BY t.id`, year, year)
}

func workOrderLineQuery(year int) string {
	return fmt.Sprintf(`SELECT tl.transaction, tl.linesequencenumber, BUILTIN.DF(tl.item) AS item, tl.memo, ABS(tl.quantity) AS quantity FROM transactionline tl JOIN transaction t ON t.id = tl.transaction WHERE t.type = 'WorkOrd' AND tl.mainline = 'F' AND t.trandate BETWEEN TO_DATE('%d-01-01', 'YYYY-MM-DD') AND TO_DATE('%d-12-31', 'YYYY-MM-DD') ORDER BY tl.transaction, tl.linesequencenumber`, year, year)
}
