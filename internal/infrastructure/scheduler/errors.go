package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrUnknownJobKind is returned for job kinds no executor handles
	ErrUnknownJobKind = errors.New("unknown job kind")

	// ErrSyncAlreadyInProgress is returned when a sync of the same record type is still running
	ErrSyncAlreadyInProgress = errors.New("sync already in progress for this record type")
)
