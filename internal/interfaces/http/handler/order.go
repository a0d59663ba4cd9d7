package handler

import (
	"github.com/gin-gonic/gin"

	syncapp "github.com/marsops/backend/internal/application/sync"
)

// OrderHandler exposes the synced NetSuite order mirror
type OrderHandler struct {
	BaseHandler
	orderService *syncapp.OrderQueryService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *syncapp.OrderQueryService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// ListSalesOrders handles GET /netsuite/sales-orders
func (h *OrderHandler) ListSalesOrders(c *gin.Context) {
	var filter syncapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	orders, total, err := h.orderService.ListSalesOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// GetSalesOrder handles GET /netsuite/sales-orders/:tranId
func (h *OrderHandler) GetSalesOrder(c *gin.Context) {
	tranID := c.Param("tranId")
	if tranID == "" {
		h.BadRequest(c, "Transaction ID is required")
		return
	}

	order, err := h.orderService.GetSalesOrder(c.Request.Context(), tranID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// SalesOrderCounts handles GET /netsuite/sales-orders/counts
func (h *OrderHandler) SalesOrderCounts(c *gin.Context) {
	counts, err := h.orderService.SalesOrderCounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counts)
}

// ListWorkOrders handles GET /netsuite/work-orders
func (h *OrderHandler) ListWorkOrders(c *gin.Context) {
	var filter syncapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	orders, total, err := h.orderService.ListWorkOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// GetWorkOrder handles GET /netsuite/work-orders/:tranId
func (h *OrderHandler) GetWorkOrder(c *gin.Context) {
	tranID := c.Param("tranId")
	if tranID == "" {
		h.BadRequest(c, "Transaction ID is required")
		return
	}

	order, err := h.orderService.GetWorkOrder(c.Request.Context(), tranID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// WorkOrderCounts handles GET /netsuite/work-orders/counts
func (h *OrderHandler) WorkOrderCounts(c *gin.Context) {
	counts, err := h.orderService.WorkOrderCounts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counts)
}
