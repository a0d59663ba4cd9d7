package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/netsuite"
	"github.com/shopspring/decimal"
)

// TriggerSyncRequest asks for a mirror sync run
type TriggerSyncRequest struct {
	// Year scopes the sync to one calendar year. Zero means the current year.
	Year int `json:"year" binding:"omitempty,min=2000,max=2100"`
	// CleanSlate wipes the year's mirror rows before reloading
	CleanSlate bool `json:"clean_slate"`
}

// SyncRunResponse represents a sync run in API responses
type SyncRunResponse struct {
	ID           uuid.UUID  `json:"id"`
	RecordType   string     `json:"record_type"`
	Status       string     `json:"status"`
	Year         int        `json:"year"`
	PagesFetched int        `json:"pages_fetched"`
	RowsFetched  int        `json:"rows_fetched"`
	RowsInserted int        `json:"rows_inserted"`
	RowsUpdated  int        `json:"rows_updated"`
	RowsFailed   int        `json:"rows_failed"`
	RowsDeleted  int        `json:"rows_deleted"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	DurationMS   int64      `json:"duration_ms"`
	TriggeredBy  string     `json:"triggered_by,omitempty"`
}

// SyncRunListFilter represents filter options for the run history
type SyncRunListFilter struct {
	RecordType string `form:"record_type" binding:"omitempty,oneof=SALES_ORDER WORK_ORDER"`
	Status     string `form:"status" binding:"omitempty,oneof=RUNNING COMPLETED FAILED"`
	Year       int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToSyncRunResponse converts a domain sync run to a response DTO
func ToSyncRunResponse(r *netsuite.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:           r.ID,
		RecordType:   string(r.RecordType),
		Status:       string(r.Status),
		Year:         r.Year,
		PagesFetched: r.PagesFetched,
		RowsFetched:  r.RowsFetched,
		RowsInserted: r.RowsInserted,
		RowsUpdated:  r.RowsUpdated,
		RowsFailed:   r.RowsFailed,
		RowsDeleted:  r.RowsDeleted,
		Error:        r.Error,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
		DurationMS:   r.Duration().Milliseconds(),
		TriggeredBy:  r.TriggeredBy,
	}
}

// ToSyncRunResponses converts a slice of domain sync runs
func ToSyncRunResponses(items []netsuite.SyncRun) []SyncRunResponse {
	out := make([]SyncRunResponse, len(items))
	for i := range items {
		out[i] = ToSyncRunResponse(&items[i])
	}
	return out
}

// =============================================================================
// Mirror read DTOs
// =============================================================================

// SalesOrderResponse represents a mirrored sales order
type SalesOrderResponse struct {
	InternalID int64                    `json:"internal_id"`
	TranID     string                   `json:"tran_id"`
	Status     string                   `json:"status"`
	Entity     string                   `json:"entity"`
	Subsidiary string                   `json:"subsidiary,omitempty"`
	Memo       string                   `json:"memo,omitempty"`
	TranDate   time.Time                `json:"tran_date"`
	Total      decimal.Decimal          `json:"total"`
	Currency   string                   `json:"currency"`
	SyncedAt   time.Time                `json:"synced_at"`
	Lines      []SalesOrderLineResponse `json:"lines,omitempty"`
}

// SalesOrderLineResponse represents one sales order line
type SalesOrderLineResponse struct {
	LineNumber  int             `json:"line_number"`
	Item        string          `json:"item"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// WorkOrderResponse represents a mirrored work order
type WorkOrderResponse struct {
	InternalID   int64                   `json:"internal_id"`
	TranID       string                  `json:"tran_id"`
	Status       string                  `json:"status"`
	AssemblyItem string                  `json:"assembly_item"`
	Location     string                  `json:"location,omitempty"`
	TranDate     time.Time               `json:"tran_date"`
	Quantity     decimal.Decimal         `json:"quantity"`
	Built        decimal.Decimal         `json:"built"`
	Open         decimal.Decimal         `json:"open"`
	Complete     bool                    `json:"complete"`
	SyncedAt     time.Time               `json:"synced_at"`
	Lines        []WorkOrderLineResponse `json:"lines,omitempty"`
}

// WorkOrderLineResponse represents one work order component line
type WorkOrderLineResponse struct {
	LineNumber  int             `json:"line_number"`
	Item        string          `json:"item"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// OrderListFilter represents filter options for mirror order lists
type OrderListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Entity   string `form:"entity"`
	Location string `form:"location"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToSalesOrderResponse converts a mirrored sales order
func ToSalesOrderResponse(o *netsuite.SalesOrder, includeLines bool) SalesOrderResponse {
	resp := SalesOrderResponse{
		InternalID: o.InternalID,
		TranID:     o.TranID,
		Status:     o.Status,
		Entity:     o.Entity,
		Subsidiary: o.Subsidiary,
		Memo:       o.Memo,
		TranDate:   o.TranDate,
		Total:      o.Total,
		Currency:   o.Currency,
		SyncedAt:   o.SyncedAt,
	}
	if includeLines {
		resp.Lines = make([]SalesOrderLineResponse, len(o.Lines))
		for i, l := range o.Lines {
			resp.Lines[i] = SalesOrderLineResponse{
				LineNumber:  l.LineNumber,
				Item:        l.Item,
				Description: l.Description,
				Quantity:    l.Quantity,
				Rate:        l.Rate,
				Amount:      l.Amount,
			}
		}
	}
	return resp
}

// ToWorkOrderResponse converts a mirrored work order
func ToWorkOrderResponse(o *netsuite.WorkOrder, includeLines bool) WorkOrderResponse {
	resp := WorkOrderResponse{
		InternalID:   o.InternalID,
		TranID:       o.TranID,
		Status:       o.Status,
		AssemblyItem: o.AssemblyItem,
		Location:     o.Location,
		TranDate:     o.TranDate,
		Quantity:     o.Quantity,
		Built:        o.Built,
		Open:         o.OpenQuantity(),
		Complete:     o.IsComplete(),
		SyncedAt:     o.SyncedAt,
	}
	if includeLines {
		resp.Lines = make([]WorkOrderLineResponse, len(o.Lines))
		for i, l := range o.Lines {
			resp.Lines[i] = WorkOrderLineResponse{
				LineNumber:  l.LineNumber,
				Item:        l.Item,
				Description: l.Description,
				Quantity:    l.Quantity,
			}
		}
	}
	return resp
}
