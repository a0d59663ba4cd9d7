package insights

import (
	"context"
	"time"

	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/marsops/backend/internal/domain/obligation"
	"github.com/marsops/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// expiringWindow is how far ahead the expiring-contracts count looks.
const expiringWindow = 30 * 24 * time.Hour

// Overview is the aggregate snapshot behind the landing dashboard
type Overview struct {
	GeneratedAt        time.Time          `json:"generated_at"`
	Contracts          ContractInsights   `json:"contracts"`
	Obligations        ObligationInsights `json:"obligations"`
	SalesOrders        OrderInsights      `json:"sales_orders"`
	WorkOrders         OrderInsights      `json:"work_orders"`
	LastSalesOrderSync *SyncInfo          `json:"last_sales_order_sync,omitempty"`
	LastWorkOrderSync  *SyncInfo          `json:"last_work_order_sync,omitempty"`
}

// ContractInsights aggregates the contract portfolio
type ContractInsights struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"by_status"`
	ExpiringSoon  int              `json:"expiring_soon"`
	ExpiringValue decimal.Decimal  `json:"expiring_value"`
}

// ObligationInsights aggregates obligation statuses
type ObligationInsights struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	Overdue  int64            `json:"overdue"`
}

// OrderInsights aggregates one mirror table
type OrderInsights struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// SyncInfo summarizes the most recent sync run of a record type
type SyncInfo struct {
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	RowsFetched int        `json:"rows_fetched"`
}

// InsightsService computes the dashboard overview. Results are memoized so
// a page full of widgets does not fan out into repeated aggregate queries.
type InsightsService struct {
	contractRepo   contract.ContractRepository
	obligationRepo obligation.ObligationRepository
	salesOrderRepo netsuite.SalesOrderRepository
	workOrderRepo  netsuite.WorkOrderRepository
	syncRunRepo    netsuite.SyncRunRepository
	memo           *cache.Memo[*Overview]
	logger         *zap.Logger
}

// NewInsightsService creates a new insights service
func NewInsightsService(
	contractRepo contract.ContractRepository,
	obligationRepo obligation.ObligationRepository,
	salesOrderRepo netsuite.SalesOrderRepository,
	workOrderRepo netsuite.WorkOrderRepository,
	syncRunRepo netsuite.SyncRunRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *InsightsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsService{
		contractRepo:   contractRepo,
		obligationRepo: obligationRepo,
		salesOrderRepo: salesOrderRepo,
		workOrderRepo:  workOrderRepo,
		syncRunRepo:    syncRunRepo,
		memo:           cache.NewMemo[*Overview](cacheTTL),
		logger:         logger,
	}
}

// Overview returns the aggregate snapshot, served from cache within the TTL
func (s *InsightsService) Overview(ctx context.Context) (*Overview, error) {
	return s.memo.Get(ctx, s.compute)
}

// Invalidate drops the cached snapshot so the next read recomputes. Called
// after syncs and bulk mutations.
func (s *InsightsService) Invalidate() {
	s.memo.Invalidate()
}

func (s *InsightsService) compute(ctx context.Context) (*Overview, error) {
	started := time.Now()

	contracts, err := s.contractInsights(ctx)
	if err != nil {
		return nil, err
	}
	obligations, err := s.obligationInsights(ctx)
	if err != nil {
		return nil, err
	}
	salesOrders, err := s.orderInsights(ctx, s.salesOrderRepo.CountByStatus)
	if err != nil {
		return nil, err
	}
	workOrders, err := s.orderInsights(ctx, s.workOrderRepo.CountByStatus)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		GeneratedAt: time.Now(),
		Contracts:   contracts,
		Obligations: obligations,
		SalesOrders: salesOrders,
		WorkOrders:  workOrders,
	}
	overview.LastSalesOrderSync = s.lastSync(ctx, netsuite.RecordSalesOrder)
	overview.LastWorkOrderSync = s.lastSync(ctx, netsuite.RecordWorkOrder)

	s.logger.Debug("insights recomputed", zap.Duration("elapsed", time.Since(started)))
	return overview, nil
}

func (s *InsightsService) contractInsights(ctx context.Context) (ContractInsights, error) {
	counts, err := s.contractRepo.CountByStatus(ctx)
	if err != nil {
		return ContractInsights{}, err
	}

	insights := ContractInsights{
		ByStatus:      make(map[string]int64, len(counts)),
		ExpiringValue: decimal.Zero,
	}
	for _, row := range counts {
		insights.ByStatus[string(row.Status)] = row.Count
		insights.Total += row.Count
	}

	expiring, err := s.contractRepo.FindExpiringBefore(ctx, time.Now().Add(expiringWindow))
	if err != nil {
		return ContractInsights{}, err
	}
	insights.ExpiringSoon = len(expiring)
	for i := range expiring {
		insights.ExpiringValue = insights.ExpiringValue.Add(expiring[i].Value)
	}

	return insights, nil
}

func (s *InsightsService) obligationInsights(ctx context.Context) (ObligationInsights, error) {
	counts, err := s.obligationRepo.CountByStatus(ctx)
	if err != nil {
		return ObligationInsights{}, err
	}

	insights := ObligationInsights{ByStatus: make(map[string]int64, len(counts))}
	for status, count := range counts {
		insights.ByStatus[string(status)] = count
		insights.Total += count
	}
	insights.Overdue = counts[obligation.StatusOverdue]

	return insights, nil
}

func (s *InsightsService) orderInsights(ctx context.Context, countByStatus func(ctx context.Context) (map[string]int64, error)) (OrderInsights, error) {
	counts, err := countByStatus(ctx)
	if err != nil {
		return OrderInsights{}, err
	}

	insights := OrderInsights{ByStatus: counts}
	if insights.ByStatus == nil {
		insights.ByStatus = map[string]int64{}
	}
	for _, count := range counts {
		insights.Total += count
	}
	return insights, nil
}

// lastSync is best effort. A missing or failing run lookup never blocks
// the overview.
func (s *InsightsService) lastSync(ctx context.Context, recordType netsuite.RecordType) *SyncInfo {
	run, err := s.syncRunRepo.FindLatest(ctx, recordType)
	if err != nil || run == nil {
		return nil
	}
	return &SyncInfo{
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		RowsFetched: run.RowsFetched,
	}
}
