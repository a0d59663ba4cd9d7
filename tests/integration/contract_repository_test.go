package integration

import (
	"context"
	"testing"
	"time"

	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContractRepository_Integration exercises the contract repositories
// against a real PostgreSQL database
func TestContractRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormContractRepository(testDB.DB)
	ctx := context.Background()

	t.Run("Save and FindByID", func(t *testing.T) {
		c, err := contract.NewContract("MSA-2026-001", "Master Services Agreement", "Acme Water Co", contract.ContractTypeMSA)
		require.NoError(t, err)
		require.NoError(t, c.SetValue(decimal.NewFromInt(250000), "USD"))

		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Number, found.Number)
		assert.Equal(t, contract.ApprovalStatusDraft, found.Status)
		assert.True(t, found.Value.Equal(decimal.NewFromInt(250000)))
	})

	t.Run("FindByNumber and ExistsByNumber", func(t *testing.T) {
		c, err := contract.NewContract("SOW-2026-014", "Pump Station SOW", "Globex", contract.ContractTypeSOW)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByNumber(ctx, "SOW-2026-014")
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)

		exists, err := repo.ExistsByNumber(ctx, "SOW-2026-014")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByNumber(ctx, "SOW-9999")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("FindByEnvelopeID", func(t *testing.T) {
		c, err := contract.NewContract("NDA-33", "Mutual NDA", "Initech", contract.ContractTypeNDA)
		require.NoError(t, err)
		c.LinkEnvelope("env-abc-123")
		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByEnvelopeID(ctx, "env-abc-123")
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)

		_, err = repo.FindByEnvelopeID(ctx, "env-missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Approval state round trip", func(t *testing.T) {
		c, err := contract.NewContract("MSA-55", "Agreement", "Umbrella", contract.ContractTypeMSA)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		require.NoError(t, c.Submit())
		require.NoError(t, c.Approve("looks good"))
		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, contract.ApprovalStatusApproved, found.Status)
		assert.Equal(t, "looks good", found.DecisionComment)
		require.NotNil(t, found.SubmittedAt)
		require.NotNil(t, found.DecidedAt)
	})

	t.Run("SaveWithLock rejects a stale snapshot", func(t *testing.T) {
		c, err := contract.NewContract("MSA-58", "Contested agreement", "Initech", contract.ContractTypeMSA)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		first, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)

		require.NoError(t, first.Submit())
		require.NoError(t, first.Approve("approved first"))
		require.NoError(t, repo.SaveWithLock(ctx, first))

		require.NoError(t, second.Submit())
		require.NoError(t, second.Reject("rejected second"))
		err = repo.SaveWithLock(ctx, second)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, contract.ApprovalStatusApproved, found.Status)
		assert.Equal(t, "approved first", found.DecisionComment)
	})

	t.Run("FindExpiringBefore", func(t *testing.T) {
		expiring, err := contract.NewContract("MSA-60", "Expiring soon", "Acme", contract.ContractTypeMSA)
		require.NoError(t, err)
		effective := time.Now().AddDate(-1, 0, 0)
		expiry := time.Now().AddDate(0, 0, 14)
		require.NoError(t, expiring.SetTerm(&effective, &expiry))
		require.NoError(t, expiring.Submit())
		require.NoError(t, expiring.Approve(""))
		require.NoError(t, repo.Save(ctx, expiring))

		distant, err := contract.NewContract("MSA-61", "Expiring later", "Acme", contract.ContractTypeMSA)
		require.NoError(t, err)
		farExpiry := time.Now().AddDate(2, 0, 0)
		require.NoError(t, distant.SetTerm(&effective, &farExpiry))
		require.NoError(t, distant.Submit())
		require.NoError(t, distant.Approve(""))
		require.NoError(t, repo.Save(ctx, distant))

		items, err := repo.FindExpiringBefore(ctx, time.Now().AddDate(0, 1, 0))
		require.NoError(t, err)

		numbers := make([]string, 0, len(items))
		for _, item := range items {
			numbers = append(numbers, item.Number)
		}
		assert.Contains(t, numbers, "MSA-60")
		assert.NotContains(t, numbers, "MSA-61")
	})

	t.Run("FindAll with status filter", func(t *testing.T) {
		items, err := repo.FindAll(ctx, shared.Filter{
			Page:     1,
			PageSize: 50,
			Filters:  map[string]interface{}{"status": "APPROVED"},
		})
		require.NoError(t, err)
		for _, item := range items {
			assert.Equal(t, contract.ApprovalStatusApproved, item.Status)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c, err := contract.NewContract("MSA-70", "Short lived", "Acme", contract.ContractTypeMSA)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		require.NoError(t, repo.Delete(ctx, c.ID))
		_, err = repo.FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// TestReviewAndRedlineRepository_Integration covers the review and redline
// repositories, which hang off a contract
func TestReviewAndRedlineRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	contractRepo := persistence.NewGormContractRepository(testDB.DB)
	reviewRepo := persistence.NewGormReviewRepository(testDB.DB)
	redlineRepo := persistence.NewGormRedlineRepository(testDB.DB)
	ctx := context.Background()

	c, err := contract.NewContract("MSA-100", "Agreement", "Acme", contract.ContractTypeMSA)
	require.NoError(t, err)
	require.NoError(t, contractRepo.Save(ctx, c))

	t.Run("Review round trip with JSON findings", func(t *testing.T) {
		review, err := contract.NewContractReview(c.ID, "test-model")
		require.NoError(t, err)
		require.NoError(t, review.Start(2))
		findings := []contract.Finding{
			{Section: 1, Severity: contract.SeverityCritical, Title: "Uncapped liability", Detail: "No cap"},
			{Section: 2, Severity: contract.SeverityInfo, Title: "Standard term", Detail: "Fine"},
		}
		require.NoError(t, review.Complete(findings, "Two sections reviewed.", 200, 80))
		require.NoError(t, reviewRepo.Save(ctx, review))

		found, err := reviewRepo.FindByID(ctx, review.ID)
		require.NoError(t, err)
		assert.Equal(t, contract.ReviewStatusCompleted, found.Status)
		require.Len(t, found.Findings, 2)
		assert.Equal(t, "Uncapped liability", found.Findings[0].Title)
		assert.Equal(t, 1, found.CriticalCount())

		list, err := reviewRepo.FindByContract(ctx, c.ID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Redline round trip", func(t *testing.T) {
		redline, err := contract.NewRedline(c.ID, "v1 vs v2", "old <del>a</del><ins>b</ins>", 1, 1, 4)
		require.NoError(t, err)
		require.NoError(t, redlineRepo.Save(ctx, redline))

		found, err := redlineRepo.FindByID(ctx, redline.ID)
		require.NoError(t, err)
		assert.Equal(t, redline.HTML, found.HTML)
		assert.True(t, found.HasChanges())

		require.NoError(t, redlineRepo.Delete(ctx, redline.ID))
		_, err = redlineRepo.FindByID(ctx, redline.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
