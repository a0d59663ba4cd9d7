package obligation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObligation(t *testing.T) {
	contractID := uuid.New()
	due := time.Now().AddDate(0, 2, 0)

	o, err := NewObligation(contractID, "Deliver quarterly usage report", due, RecurrenceQuarterly)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, contractID, o.ContractID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Nil(t, o.CompletedAt)
}

func TestNewObligation_Validation(t *testing.T) {
	due := time.Now().AddDate(0, 1, 0)

	_, err := NewObligation(uuid.Nil, "report", due, RecurrenceNone)
	assert.Error(t, err)

	_, err = NewObligation(uuid.New(), "  ", due, RecurrenceNone)
	assert.Error(t, err)

	_, err = NewObligation(uuid.New(), "report", time.Time{}, RecurrenceNone)
	assert.Error(t, err)
}

func TestNewObligation_UnknownRecurrenceDefaultsToNone(t *testing.T) {
	o, err := NewObligation(uuid.New(), "report", time.Now().AddDate(0, 1, 0), Recurrence("WEEKLY"))

	require.NoError(t, err)
	assert.Equal(t, RecurrenceNone, o.Recurrence)
}

func TestDeriveStatus_Windows(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want Status
	}{
		{"past due date", now.Add(-time.Hour), StatusOverdue},
		{"due tomorrow", now.AddDate(0, 0, 1), StatusDue},
		{"due in exactly seven days", now.Add(DueWindow), StatusDue},
		{"due in eight days", now.AddDate(0, 0, 8), StatusUpcoming},
		{"due in thirty days", now.Add(UpcomingWindow), StatusUpcoming},
		{"due in sixty days", now.AddDate(0, 0, 60), StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Obligation{DueDate: tt.due}
			assert.Equal(t, tt.want, o.DeriveStatus(now))
		})
	}
}

func TestDeriveStatus_CompletedWins(t *testing.T) {
	now := time.Now()
	done := now.Add(-time.Hour)
	o := &Obligation{DueDate: now.Add(-48 * time.Hour), CompletedAt: &done}

	assert.Equal(t, StatusCompleted, o.DeriveStatus(now))
}

func TestRefresh(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	o := &Obligation{DueDate: now.AddDate(0, 0, 3), Status: StatusUpcoming}

	changed := o.Refresh(now)

	assert.True(t, changed)
	assert.Equal(t, StatusDue, o.Status)

	assert.False(t, o.Refresh(now))
}

func TestComplete_NonRecurring(t *testing.T) {
	o, err := NewObligation(uuid.New(), "one-off filing", time.Now().AddDate(0, 0, 3), RecurrenceNone)
	require.NoError(t, err)

	next, err := o.Complete(time.Now())

	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.NotNil(t, o.CompletedAt)

	_, err = o.Complete(time.Now())
	assert.Error(t, err)
}

func TestComplete_RecurringSpawnsSuccessor(t *testing.T) {
	due := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	o, err := NewObligation(uuid.New(), "quarterly report", due, RecurrenceQuarterly)
	require.NoError(t, err)
	o.AssignOwner("ops@example.com")

	next, err := o.Complete(time.Now())

	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, o.ContractID, next.ContractID)
	assert.Equal(t, "ops@example.com", next.Owner)
	assert.Equal(t, due.AddDate(0, 3, 0), next.DueDate)
	assert.NotEqual(t, o.ID, next.ID)
}

func TestReschedule(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	o, err := NewObligation(uuid.New(), "renewal notice", now.AddDate(0, 2, 0), RecurrenceNone)
	require.NoError(t, err)

	err = o.Reschedule(now.AddDate(0, 0, 2), now)

	require.NoError(t, err)
	assert.Equal(t, StatusDue, o.Status)

	assert.Error(t, o.Reschedule(time.Time{}, now))

	done := now
	o.CompletedAt = &done
	assert.Error(t, o.Reschedule(now.AddDate(0, 1, 0), now))
}
