package sync

import (
	"context"

	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/marsops/backend/internal/domain/shared"
)

// OrderQueryService serves reads over the mirrored NetSuite orders
type OrderQueryService struct {
	salesOrderRepo netsuite.SalesOrderRepository
	workOrderRepo  netsuite.WorkOrderRepository
}

// NewOrderQueryService creates a new order query service
func NewOrderQueryService(salesOrderRepo netsuite.SalesOrderRepository, workOrderRepo netsuite.WorkOrderRepository) *OrderQueryService {
	return &OrderQueryService{
		salesOrderRepo: salesOrderRepo,
		workOrderRepo:  workOrderRepo,
	}
}

// ListSalesOrders retrieves mirrored sales orders with filters. Line items
// are omitted from list responses.
func (s *OrderQueryService) ListSalesOrders(ctx context.Context, filter OrderListFilter) ([]SalesOrderResponse, int64, error) {
	f := toSharedFilter(filter)
	if filter.Entity != "" {
		f.Filters["entity"] = filter.Entity
	}

	orders, err := s.salesOrderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.salesOrderRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToSalesOrderResponse(&orders[i], false)
	}
	return responses, total, nil
}

// GetSalesOrder retrieves one mirrored sales order by transaction number,
// lines included
func (s *OrderQueryService) GetSalesOrder(ctx context.Context, tranID string) (*SalesOrderResponse, error) {
	order, err := s.salesOrderRepo.FindByTranID(ctx, tranID)
	if err != nil {
		return nil, err
	}
	resp := ToSalesOrderResponse(order, true)
	return &resp, nil
}

// ListWorkOrders retrieves mirrored work orders with filters
func (s *OrderQueryService) ListWorkOrders(ctx context.Context, filter OrderListFilter) ([]WorkOrderResponse, int64, error) {
	f := toSharedFilter(filter)
	if filter.Location != "" {
		f.Filters["location"] = filter.Location
	}

	orders, err := s.workOrderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.workOrderRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]WorkOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToWorkOrderResponse(&orders[i], false)
	}
	return responses, total, nil
}

// GetWorkOrder retrieves one mirrored work order by transaction number,
// lines included
func (s *OrderQueryService) GetWorkOrder(ctx context.Context, tranID string) (*WorkOrderResponse, error) {
	order, err := s.workOrderRepo.FindByTranID(ctx, tranID)
	if err != nil {
		return nil, err
	}
	resp := ToWorkOrderResponse(order, true)
	return &resp, nil
}

// SalesOrderCounts returns mirrored sales order counts grouped by status
func (s *OrderQueryService) SalesOrderCounts(ctx context.Context) (map[string]int64, error) {
	return s.salesOrderRepo.CountByStatus(ctx)
}

// WorkOrderCounts returns mirrored work order counts grouped by status
func (s *OrderQueryService) WorkOrderCounts(ctx context.Context) (map[string]int64, error) {
	return s.workOrderRepo.CountByStatus(ctx)
}

func toSharedFilter(filter OrderListFilter) shared.Filter {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "tran_date"
		filter.OrderDir = "desc"
	}

	filters := make(map[string]interface{})
	if filter.Status != "" {
		filters["status"] = filter.Status
	}
	if filter.DateFrom != "" {
		filters["date_from"] = filter.DateFrom
	}
	if filter.DateTo != "" {
		filters["date_to"] = filter.DateTo
	}

	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  filters,
	}
}
