package netsuite

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncRun(t *testing.T) {
	run, err := NewSyncRun(RecordSalesOrder, 2025, "scheduler")

	require.NoError(t, err)
	assert.Equal(t, SyncRunning, run.Status)
	assert.Equal(t, 2025, run.Year)
	assert.Equal(t, "scheduler", run.TriggeredBy)
	assert.False(t, run.StartedAt.IsZero())
}

func TestNewSyncRun_Validation(t *testing.T) {
	_, err := NewSyncRun(RecordType("INVOICE"), 2025, "api")
	assert.Error(t, err)

	_, err = NewSyncRun(RecordWorkOrder, 1985, "api")
	assert.Error(t, err)
}

func TestSyncRun_Lifecycle(t *testing.T) {
	run, err := NewSyncRun(RecordWorkOrder, 2025, "api")
	require.NoError(t, err)

	run.RecordPage(1000)
	run.RecordPage(412)
	run.RecordUpsert(900, 100)
	run.RecordUpsert(312, 100)

	require.NoError(t, run.Complete(37))

	assert.Equal(t, SyncCompleted, run.Status)
	assert.Equal(t, 2, run.PagesFetched)
	assert.Equal(t, 1412, run.RowsFetched)
	assert.Equal(t, 1212, run.RowsInserted)
	assert.Equal(t, 200, run.RowsUpdated)
	assert.Zero(t, run.RowsFailed)
	assert.Equal(t, 37, run.RowsDeleted)
	assert.NotNil(t, run.CompletedAt)

	assert.Error(t, run.Complete(0))
	assert.Error(t, run.Fail("late failure"))
}

func TestSyncRun_PartialFailure(t *testing.T) {
	run, err := NewSyncRun(RecordSalesOrder, 2025, "api")
	require.NoError(t, err)

	run.RecordPage(1000)
	run.RecordUpsert(400, 100)
	run.RecordFailure(500, "upsert failed: deadlock detected")

	require.NoError(t, run.Complete(0))

	assert.Equal(t, SyncFailed, run.Status)
	assert.Equal(t, 400, run.RowsInserted)
	assert.Equal(t, 100, run.RowsUpdated)
	assert.Equal(t, 500, run.RowsFailed)
	assert.Contains(t, run.Error, "deadlock detected")
	assert.NotNil(t, run.CompletedAt)
}

func TestSyncRun_FailureSampleCapped(t *testing.T) {
	run, err := NewSyncRun(RecordSalesOrder, 2025, "api")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		run.RecordFailure(500, fmt.Sprintf("batch %d failed", i))
	}

	assert.Equal(t, 5000, run.RowsFailed)
	assert.Contains(t, run.Error, "batch 0 failed")
	assert.Contains(t, run.Error, "batch 2 failed")
	assert.NotContains(t, run.Error, "batch 3 failed")
}

func TestSyncRun_Fail(t *testing.T) {
	run, err := NewSyncRun(RecordSalesOrder, 2025, "scheduler")
	require.NoError(t, err)

	require.NoError(t, run.Fail("suiteql timeout"))

	assert.Equal(t, SyncFailed, run.Status)
	assert.Equal(t, "suiteql timeout", run.Error)
	assert.NotNil(t, run.CompletedAt)
}

func TestWorkOrder_Quantities(t *testing.T) {
	wo := &WorkOrder{
		Quantity: decimal.NewFromInt(100),
		Built:    decimal.NewFromInt(40),
	}

	assert.False(t, wo.IsComplete())
	assert.True(t, wo.OpenQuantity().Equal(decimal.NewFromInt(60)))

	wo.Built = decimal.NewFromInt(110)
	assert.True(t, wo.IsComplete())
	assert.True(t, wo.OpenQuantity().IsZero())

	empty := &WorkOrder{}
	assert.False(t, empty.IsComplete())
}
