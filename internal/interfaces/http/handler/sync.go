package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/marsops/backend/internal/application/sync"
	"github.com/marsops/backend/internal/domain/netsuite"
)

// SyncHandler handles NetSuite sync trigger and audit endpoints
type SyncHandler struct {
	BaseHandler
	syncService *syncapp.NetSuiteSyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *syncapp.NetSuiteSyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// TriggerSalesOrders handles POST /netsuite/sync/sales-orders
func (h *SyncHandler) TriggerSalesOrders(c *gin.Context) {
	h.trigger(c, h.syncService.SyncSalesOrders)
}

// TriggerWorkOrders handles POST /netsuite/sync/work-orders
func (h *SyncHandler) TriggerWorkOrders(c *gin.Context) {
	h.trigger(c, h.syncService.SyncWorkOrders)
}

func (h *SyncHandler) trigger(c *gin.Context, run func(ctx context.Context, req syncapp.TriggerSyncRequest, triggeredBy string) (*syncapp.SyncRunResponse, error)) {
	var req syncapp.TriggerSyncRequest
	// The body is optional, an empty POST syncs the current year
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindingError(c, err)
			return
		}
	}

	result, err := run(c.Request.Context(), req, actorEmail(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// CleanSlateRequest selects the mirror and year to wipe and reload
type CleanSlateRequest struct {
	RecordType string `json:"record_type" binding:"required,oneof=SALES_ORDER WORK_ORDER"`
	Year       int    `json:"year" binding:"omitempty,min=2000,max=2100"`
}

// CleanSlate handles POST /netsuite/sync/clean-slate. It wipes the mirror
// rows for the target year and reloads them from NetSuite.
func (h *SyncHandler) CleanSlate(c *gin.Context) {
	var req CleanSlateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	trigger := syncapp.TriggerSyncRequest{Year: req.Year, CleanSlate: true}
	var (
		result *syncapp.SyncRunResponse
		err    error
	)
	if req.RecordType == string(netsuite.RecordSalesOrder) {
		result, err = h.syncService.SyncSalesOrders(c.Request.Context(), trigger, actorEmail(c))
	} else {
		result, err = h.syncService.SyncWorkOrders(c.Request.Context(), trigger, actorEmail(c))
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetRun handles GET /netsuite/sync/runs/:id
func (h *SyncHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync run ID format")
		return
	}

	run, err := h.syncService.GetRun(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, run)
}

// ListRuns handles GET /netsuite/sync/runs
func (h *SyncHandler) ListRuns(c *gin.Context) {
	var filter syncapp.SyncRunListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	runs, err := h.syncService.ListRuns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, runs)
}

// LatestSalesOrderRun handles GET /netsuite/sync/sales-orders/latest
func (h *SyncHandler) LatestSalesOrderRun(c *gin.Context) {
	h.latest(c, netsuite.RecordSalesOrder)
}

// LatestWorkOrderRun handles GET /netsuite/sync/work-orders/latest
func (h *SyncHandler) LatestWorkOrderRun(c *gin.Context) {
	h.latest(c, netsuite.RecordWorkOrder)
}

func (h *SyncHandler) latest(c *gin.Context, recordType netsuite.RecordType) {
	run, err := h.syncService.LatestRun(c.Request.Context(), recordType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, run)
}
