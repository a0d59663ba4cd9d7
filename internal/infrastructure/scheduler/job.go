package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobKind identifies the background work a job carries
type JobKind string

const (
	JobKindSyncSalesOrders    JobKind = "SYNC_SALES_ORDERS"
	JobKindSyncWorkOrders     JobKind = "SYNC_WORK_ORDERS"
	JobKindRefreshObligations JobKind = "REFRESH_OBLIGATIONS"
)

// JobStatus represents the lifecycle state of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one unit of scheduled background work
type Job struct {
	ID          uuid.UUID
	Kind        JobKind
	Year        int
	TriggeredBy string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(kind JobKind, year int, triggeredBy string, maxRetries int) *Job {
	return &Job{
		ID:          uuid.New(),
		Kind:        kind,
		Year:        year,
		TriggeredBy: triggeredBy,
		Status:      JobStatusPending,
		MaxRetries:  maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *Job) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor runs the work a job describes
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobExecutorFunc adapts a function to the JobExecutor interface
type JobExecutorFunc func(ctx context.Context, job *Job) error

// Execute calls the wrapped function
func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}
