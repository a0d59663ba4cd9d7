package netsuite

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mirror records for NetSuite transactions. Rows are keyed by the NetSuite
// internal ID rather than a generated UUID so repeated syncs upsert in place.

// SalesOrder mirrors a NetSuite sales order header
type SalesOrder struct {
	InternalID  int64     `gorm:"primaryKey;autoIncrement:false"`
	TranID      string    `gorm:"size:50;not null;uniqueIndex"`
	Status      string    `gorm:"size:50;index"`
	Entity      string    `gorm:"size:255"`
	Subsidiary  string    `gorm:"size:255"`
	Memo        string    `gorm:"size:1000"`
	TranDate    time.Time `gorm:"index"`
	Total       decimal.Decimal `gorm:"type:decimal(15,2)"`
	Currency    string    `gorm:"size:10"`
	SyncedAt    time.Time `gorm:"not null"`
	Lines       []SalesOrderLine `gorm:"foreignKey:OrderInternalID;references:InternalID;constraint:OnDelete:CASCADE"`
}

// SalesOrderLine mirrors one line of a sales order
type SalesOrderLine struct {
	ID              uint `gorm:"primaryKey"`
	OrderInternalID int64 `gorm:"not null;index"`
	LineNumber      int   `gorm:"not null"`
	Item            string `gorm:"size:255"`
	Description     string `gorm:"size:1000"`
	Quantity        decimal.Decimal `gorm:"type:decimal(15,4)"`
	Rate            decimal.Decimal `gorm:"type:decimal(15,4)"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2)"`
}

// WorkOrder mirrors a NetSuite work order header
type WorkOrder struct {
	InternalID   int64     `gorm:"primaryKey;autoIncrement:false"`
	TranID       string    `gorm:"size:50;not null;uniqueIndex"`
	Status       string    `gorm:"size:50;index"`
	AssemblyItem string    `gorm:"size:255"`
	Location     string    `gorm:"size:255"`
	TranDate     time.Time `gorm:"index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(15,4)"`
	Built        decimal.Decimal `gorm:"type:decimal(15,4)"`
	SyncedAt     time.Time `gorm:"not null"`
	Lines        []WorkOrderLine `gorm:"foreignKey:OrderInternalID;references:InternalID;constraint:OnDelete:CASCADE"`
}

// WorkOrderLine mirrors a component line of a work order
type WorkOrderLine struct {
	ID              uint `gorm:"primaryKey"`
	OrderInternalID int64 `gorm:"not null;index"`
	LineNumber      int   `gorm:"not null"`
	Item            string `gorm:"size:255"`
	Description     string `gorm:"size:1000"`
	Quantity        decimal.Decimal `gorm:"type:decimal(15,4)"`
}

// IsComplete reports whether the work order has built its full quantity
func (w *WorkOrder) IsComplete() bool {
	return !w.Quantity.IsZero() && w.Built.GreaterThanOrEqual(w.Quantity)
}

// OpenQuantity returns the quantity still to be built, floored at zero
func (w *WorkOrder) OpenQuantity() decimal.Decimal {
	open := w.Quantity.Sub(w.Built)
	if open.IsNegative() {
		return decimal.Zero
	}
	return open
}
