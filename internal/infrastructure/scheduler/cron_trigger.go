package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the trigger checks the clock
const cronTickerInterval = 1 * time.Minute

// CronTriggerConfig holds the daily schedules for background work
type CronTriggerConfig struct {
	// Enabled indicates if the cron trigger is enabled
	Enabled bool
	// SyncCronSchedule is the cron expression for the nightly record sync ("minute hour * * *")
	SyncCronSchedule string
	// RefreshCronSchedule is the cron expression for the obligation status refresh
	RefreshCronSchedule string
	// SyncYear is the calendar year the nightly sync mirrors
	SyncYear int
	// MaxRetries is the retry budget handed to each triggered job
	MaxRetries int
}

// DefaultCronTriggerConfig returns default configuration: sync at 02:00,
// refresh at 06:00
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Enabled:             true,
		SyncCronSchedule:    "0 2 * * *",
		RefreshCronSchedule: "0 6 * * *",
		SyncYear:            time.Now().Year(),
		MaxRetries:          3,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract
// hour and minute. Returns defaults (2:00) if the expression is empty.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 2
	minute = 0

	if cronExpr == "" {
		return hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 0); parseErr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, parseErr := parseIntOrDefault(parts[1], 2); parseErr == nil {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return 2, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 2, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}

	return hour, minute, nil
}

// parseIntOrDefault parses an int string or returns default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// cronSlot is one daily firing time plus the jobs it enqueues
type cronSlot struct {
	hour    int
	minute  int
	kinds   []JobKind
	lastRun time.Time
}

// CronTrigger fires scheduled jobs at their configured daily times
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	slots []*cronSlot
}

// NewCronTrigger creates a cron trigger wired to the scheduler
func NewCronTrigger(config CronTriggerConfig, sched *Scheduler, logger *zap.Logger) (*CronTrigger, error) {
	syncHour, syncMinute, err := ParseCronSchedule(config.SyncCronSchedule)
	if err != nil {
		return nil, err
	}
	refreshHour, refreshMinute, err := ParseCronSchedule(config.RefreshCronSchedule)
	if err != nil {
		return nil, err
	}

	return &CronTrigger{
		config:    config,
		scheduler: sched,
		logger:    logger,
		slots: []*cronSlot{
			{hour: syncHour, minute: syncMinute, kinds: []JobKind{JobKindSyncSalesOrders, JobKindSyncWorkOrders}},
			{hour: refreshHour, minute: refreshMinute, kinds: []JobKind{JobKindRefreshObligations}},
		},
	}, nil
}

// Start starts the cron loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.String("sync_schedule", c.config.SyncCronSchedule),
		zap.String("refresh_schedule", c.config.RefreshCronSchedule),
	)

	return nil
}

// Stop stops the cron loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks every minute whether a slot is due
func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.fireDueSlots(now)
		}
	}
}

// fireDueSlots enqueues jobs for every slot whose time matches the clock.
// A slot fires at most once per day.
func (c *CronTrigger) fireDueSlots(now time.Time) {
	for _, slot := range c.slots {
		if now.Hour() != slot.hour || now.Minute() != slot.minute {
			continue
		}
		if sameDay(slot.lastRun, now) {
			continue
		}
		slot.lastRun = now

		for _, kind := range slot.kinds {
			job := NewJob(kind, c.config.SyncYear, "cron", c.config.MaxRetries)
			if err := c.scheduler.Submit(job); err != nil {
				c.logger.Error("Failed to submit scheduled job",
					zap.String("kind", string(kind)),
					zap.Error(err),
				)
			}
		}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TriggerNow submits a job immediately, outside the daily schedule
func (c *CronTrigger) TriggerNow(kind JobKind, year int, triggeredBy string) (*Job, error) {
	if year == 0 {
		year = c.config.SyncYear
	}
	job := NewJob(kind, year, triggeredBy, c.config.MaxRetries)
	if err := c.scheduler.Submit(job); err != nil {
		return nil, err
	}
	return job, nil
}
