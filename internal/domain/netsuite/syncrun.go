package netsuite

import (
	"time"

	"github.com/marsops/backend/internal/domain/shared"
)

// SyncStatus represents the state of a sync run
type SyncStatus string

const (
	SyncRunning   SyncStatus = "RUNNING"
	SyncCompleted SyncStatus = "COMPLETED"
	SyncFailed    SyncStatus = "FAILED"
)

// RecordType identifies which transaction type a sync run covered
type RecordType string

const (
	RecordSalesOrder RecordType = "SALES_ORDER"
	RecordWorkOrder  RecordType = "WORK_ORDER"
)

// IsValid checks if the record type is known
func (r RecordType) IsValid() bool {
	return r == RecordSalesOrder || r == RecordWorkOrder
}

// SyncRun records one execution of the NetSuite mirror sync. Runs are kept
// as an audit trail so operators can see when the mirror last refreshed and
// how many rows moved.
type SyncRun struct {
	shared.BaseEntity
	RecordType   RecordType `gorm:"size:20;not null;index"`
	Status       SyncStatus `gorm:"size:20;not null;index"`
	Year         int        `gorm:"not null"`
	PagesFetched int
	RowsFetched  int
	RowsInserted int
	RowsUpdated  int
	RowsFailed   int
	RowsDeleted  int
	Error        string     `gorm:"size:2000"`
	StartedAt    time.Time  `gorm:"not null"`
	CompletedAt  *time.Time
	TriggeredBy  string `gorm:"size:100"`

	errorSamples int
}

// NewSyncRun starts tracking a sync of the given record type for a calendar year
func NewSyncRun(recordType RecordType, year int, triggeredBy string) (*SyncRun, error) {
	if !recordType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RECORD_TYPE", "Unknown record type")
	}
	if year < 2000 || year > 2100 {
		return nil, shared.NewDomainError("INVALID_YEAR", "Year is out of range")
	}
	return &SyncRun{
		BaseEntity:  shared.NewBaseEntity(),
		RecordType:  recordType,
		Status:      SyncRunning,
		Year:        year,
		StartedAt:   time.Now(),
		TriggeredBy: triggeredBy,
	}, nil
}

// errorSampleLimit caps how many batch failure reasons are kept on the run
const errorSampleLimit = 3

// RecordPage accumulates counters for one fetched page
func (s *SyncRun) RecordPage(rowsFetched int) {
	s.PagesFetched++
	s.RowsFetched += rowsFetched
}

// RecordUpsert accumulates one written batch's insert/update split
func (s *SyncRun) RecordUpsert(inserted, updated int) {
	s.RowsInserted += inserted
	s.RowsUpdated += updated
}

// RecordFailure counts rows that could not be written and keeps the first
// few reasons as a sample on the run's error field.
func (s *SyncRun) RecordFailure(rows int, reason string) {
	s.RowsFailed += rows
	if s.errorSamples >= errorSampleLimit || reason == "" {
		return
	}
	if s.Error != "" {
		s.Error += "; "
	}
	s.Error += reason
	s.errorSamples++
}

// Complete finishes the run with the accumulated row counts. A run with
// failed rows completes as FAILED but keeps its counters and error sample
// so operators can see the partial progress.
func (s *SyncRun) Complete(deleted int) error {
	if s.Status != SyncRunning {
		return shared.NewDomainError("INVALID_STATE", "Sync run is not running")
	}
	now := time.Now()
	s.Status = SyncCompleted
	if s.RowsFailed > 0 {
		s.Status = SyncFailed
	}
	s.RowsDeleted = deleted
	s.CompletedAt = &now
	s.Touch()
	return nil
}

// Fail marks the run failed with the given reason
func (s *SyncRun) Fail(reason string) error {
	if s.Status != SyncRunning {
		return shared.NewDomainError("INVALID_STATE", "Sync run is not running")
	}
	now := time.Now()
	s.Status = SyncFailed
	s.Error = reason
	s.CompletedAt = &now
	s.Touch()
	return nil
}

// Duration returns the elapsed run time, using now for runs still in flight
func (s *SyncRun) Duration() time.Duration {
	if s.CompletedAt != nil {
		return s.CompletedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}
