package contract

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContract(t *testing.T) *Contract {
	t.Helper()
	c, err := NewContract("msa-2025-001", "Master Services Agreement", "Acme Corp", ContractTypeMSA)
	require.NoError(t, err)
	return c
}

func TestNewContract_Defaults(t *testing.T) {
	c := newTestContract(t)

	assert.Equal(t, "MSA-2025-001", c.Number)
	assert.Equal(t, ApprovalStatusDraft, c.Status)
	assert.Equal(t, "USD", c.Currency)
	assert.True(t, c.Value.IsZero())
	assert.Equal(t, 1, c.Version)
}

func TestNewContract_Validation(t *testing.T) {
	_, err := NewContract("", "Name", "Acme", ContractTypeMSA)
	assert.Error(t, err)

	_, err = NewContract("C-1", "  ", "Acme", ContractTypeMSA)
	assert.Error(t, err)

	_, err = NewContract("C-1", "Name", "Acme", ContractType("LEASE"))
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TYPE", domainErr.Code)
}

func TestApprovalStatus_Transitions(t *testing.T) {
	cases := []struct {
		from    ApprovalStatus
		to      ApprovalStatus
		allowed bool
	}{
		{ApprovalStatusDraft, ApprovalStatusPending, true},
		{ApprovalStatusDraft, ApprovalStatusApproved, false},
		{ApprovalStatusPending, ApprovalStatusApproved, true},
		{ApprovalStatusPending, ApprovalStatusRejected, true},
		{ApprovalStatusPending, ApprovalStatusDraft, false},
		{ApprovalStatusRejected, ApprovalStatusDraft, true},
		{ApprovalStatusApproved, ApprovalStatusDraft, false},
		{ApprovalStatusApproved, ApprovalStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestContract_ApprovalCycle(t *testing.T) {
	c := newTestContract(t)

	require.NoError(t, c.Submit())
	assert.Equal(t, ApprovalStatusPending, c.Status)
	assert.NotNil(t, c.SubmittedAt)

	require.NoError(t, c.Reject("missing indemnification clause"))
	assert.Equal(t, ApprovalStatusRejected, c.Status)
	assert.Equal(t, "missing indemnification clause", c.DecisionComment)

	require.NoError(t, c.Revise())
	assert.Equal(t, ApprovalStatusDraft, c.Status)
	assert.Nil(t, c.SubmittedAt)
	assert.Empty(t, c.DecisionComment)

	require.NoError(t, c.Submit())
	require.NoError(t, c.Approve("looks good"))
	assert.Equal(t, ApprovalStatusApproved, c.Status)

	// Approved is terminal
	assert.Error(t, c.Submit())
	assert.Error(t, c.Revise())
}

func TestContract_Reject_RequiresComment(t *testing.T) {
	c := newTestContract(t)
	require.NoError(t, c.Submit())

	err := c.Reject("  ")
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "COMMENT_REQUIRED", domainErr.Code)
	assert.Equal(t, ApprovalStatusPending, c.Status)
}

func TestContract_SetValue(t *testing.T) {
	c := newTestContract(t)

	require.NoError(t, c.SetValue(decimal.NewFromInt(250000), "eur"))
	assert.Equal(t, "EUR", c.Currency)
	assert.True(t, c.Value.Equal(decimal.NewFromInt(250000)))

	assert.Error(t, c.SetValue(decimal.NewFromInt(-1), "USD"))
	assert.Error(t, c.SetValue(decimal.NewFromInt(1), "EURO"))
}

func TestContract_SetTerm(t *testing.T) {
	c := newTestContract(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := c.SetTerm(&start, &end)
	assert.Error(t, err)

	end = start.AddDate(1, 0, 0)
	require.NoError(t, c.SetTerm(&start, &end))
	assert.Equal(t, &start, c.EffectiveDate)
}

func TestContract_IsExpiringSoon(t *testing.T) {
	c := newTestContract(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 20)
	require.NoError(t, c.SetTerm(nil, &expiry))

	// Draft contracts never count as expiring
	assert.False(t, c.IsExpiringSoon(now, 30*24*time.Hour))

	require.NoError(t, c.Submit())
	require.NoError(t, c.Approve(""))
	assert.True(t, c.IsExpiringSoon(now, 30*24*time.Hour))
	assert.False(t, c.IsExpiringSoon(now, 10*24*time.Hour))
}

func TestContractReview_Lifecycle(t *testing.T) {
	r, err := NewContractReview(uuid.New(), "anthropic/claude-sonnet-4")
	require.NoError(t, err)
	assert.Equal(t, ReviewStatusQueued, r.Status)

	require.NoError(t, r.Start(4))
	assert.Equal(t, ReviewStatusRunning, r.Status)
	assert.Equal(t, 4, r.SectionCount)

	findings := []Finding{
		{Section: 0, Severity: SeverityCritical, Title: "Uncapped liability"},
		{Section: 2, Severity: SeverityInfo, Title: "Governing law present"},
	}
	require.NoError(t, r.Complete(findings, "one critical issue", 1200, 400))
	assert.Equal(t, ReviewStatusCompleted, r.Status)
	assert.Equal(t, 1, r.CriticalCount())

	// Terminal states stay terminal
	assert.Error(t, r.Fail("late failure"))
	assert.Error(t, r.Start(1))
}

func TestContractReview_Fail(t *testing.T) {
	r, err := NewContractReview(uuid.New(), "anthropic/claude-sonnet-4")
	require.NoError(t, err)

	require.NoError(t, r.Start(2))
	require.NoError(t, r.Fail("upstream timeout"))
	assert.Equal(t, ReviewStatusFailed, r.Status)
	assert.Equal(t, "upstream timeout", r.Error)
}

func TestNewRedline(t *testing.T) {
	_, err := NewRedline(uuid.Nil, "v1 vs v2", "<p>x</p>", 1, 0, 3)
	assert.Error(t, err)

	rl, err := NewRedline(uuid.New(), "v1 vs v2", "<p>x</p>", 2, 1, 10)
	require.NoError(t, err)
	assert.True(t, rl.HasChanges())

	rl2, err := NewRedline(uuid.New(), "identical", "<p>same</p>", 0, 0, 5)
	require.NoError(t, err)
	assert.False(t, rl2.HasChanges())
}
