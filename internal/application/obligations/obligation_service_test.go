package obligations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/obligation"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubContractRepo only resolves contract existence, which is all the
// obligation service needs from it
type stubContractRepo struct {
	contract.ContractRepository
	known map[uuid.UUID]bool
}

func (r *stubContractRepo) FindByID(_ context.Context, id uuid.UUID) (*contract.Contract, error) {
	if !r.known[id] {
		return nil, shared.ErrNotFound
	}
	return &contract.Contract{}, nil
}

// fakeObligationRepo is an in-memory ObligationRepository
type fakeObligationRepo struct {
	obligations map[uuid.UUID]*obligation.Obligation
}

func newFakeObligationRepo() *fakeObligationRepo {
	return &fakeObligationRepo{obligations: make(map[uuid.UUID]*obligation.Obligation)}
}

func (r *fakeObligationRepo) FindByID(_ context.Context, id uuid.UUID) (*obligation.Obligation, error) {
	o, ok := r.obligations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeObligationRepo) FindByContract(_ context.Context, contractID uuid.UUID, _ shared.Filter) ([]obligation.Obligation, error) {
	var out []obligation.Obligation
	for _, o := range r.obligations {
		if o.ContractID == contractID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeObligationRepo) FindAll(_ context.Context, _ shared.Filter) ([]obligation.Obligation, error) {
	out := make([]obligation.Obligation, 0, len(r.obligations))
	for _, o := range r.obligations {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeObligationRepo) FindDueBefore(_ context.Context, cutoff time.Time) ([]obligation.Obligation, error) {
	var out []obligation.Obligation
	for _, o := range r.obligations {
		if o.CompletedAt == nil && o.DueDate.Before(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeObligationRepo) FindOpen(_ context.Context) ([]obligation.Obligation, error) {
	var out []obligation.Obligation
	for _, o := range r.obligations {
		if o.CompletedAt == nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeObligationRepo) Save(_ context.Context, o *obligation.Obligation) error {
	cp := *o
	r.obligations[o.ID] = &cp
	return nil
}

func (r *fakeObligationRepo) SaveBatch(ctx context.Context, obligations []*obligation.Obligation) error {
	for _, o := range obligations {
		if err := r.Save(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeObligationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.obligations, id)
	return nil
}

func (r *fakeObligationRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.obligations)), nil
}

func (r *fakeObligationRepo) CountByStatus(_ context.Context) (map[obligation.Status]int64, error) {
	counts := make(map[obligation.Status]int64)
	for _, o := range r.obligations {
		counts[o.Status]++
	}
	return counts, nil
}

func newTestService() (*ObligationService, *fakeObligationRepo, uuid.UUID) {
	repo := newFakeObligationRepo()
	contractID := uuid.New()
	contracts := &stubContractRepo{known: map[uuid.UUID]bool{contractID: true}}
	return NewObligationService(repo, contracts), repo, contractID
}

func TestObligationServiceCreate(t *testing.T) {
	service, repo, contractID := newTestService()

	due := time.Now().Add(90 * 24 * time.Hour)
	resp, err := service.Create(context.Background(), CreateObligationRequest{
		ContractID:  contractID,
		Description: "Renew certificate of insurance",
		Owner:       "ops@example.com",
		DueDate:     due,
		Recurrence:  "ANNUAL",
	})

	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "ANNUAL", resp.Recurrence)
	assert.Equal(t, "ops@example.com", resp.Owner)
	assert.Len(t, repo.obligations, 1)
}

func TestObligationServiceCreate_UnknownContract(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.Create(context.Background(), CreateObligationRequest{
		ContractID:  uuid.New(),
		Description: "Orphan",
		DueDate:     time.Now().Add(time.Hour),
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestObligationServiceComplete_Recurring(t *testing.T) {
	ctx := context.Background()
	service, repo, contractID := newTestService()

	due := time.Now().Add(3 * 24 * time.Hour)
	created, err := service.Create(ctx, CreateObligationRequest{
		ContractID:  contractID,
		Description: "Monthly usage report",
		DueDate:     due,
		Recurrence:  "MONTHLY",
	})
	require.NoError(t, err)

	result, err := service.Complete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", result.Completed.Status)
	assert.NotNil(t, result.Completed.CompletedAt)

	require.NotNil(t, result.Successor)
	assert.True(t, result.Successor.DueDate.Equal(due.AddDate(0, 1, 0)))
	assert.Equal(t, "MONTHLY", result.Successor.Recurrence)
	assert.Len(t, repo.obligations, 2)

	// Completing twice is rejected
	_, err = service.Complete(ctx, created.ID)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestObligationServiceComplete_NonRecurring(t *testing.T) {
	ctx := context.Background()
	service, repo, contractID := newTestService()

	created, err := service.Create(ctx, CreateObligationRequest{
		ContractID:  contractID,
		Description: "One-time deliverable",
		DueDate:     time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	result, err := service.Complete(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Successor)
	assert.Len(t, repo.obligations, 1)
}

func TestObligationServiceUpdate(t *testing.T) {
	ctx := context.Background()
	service, _, contractID := newTestService()

	created, err := service.Create(ctx, CreateObligationRequest{
		ContractID:  contractID,
		Description: "Quarterly review",
		DueDate:     time.Now().Add(20 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "UPCOMING", created.Status)

	// Rescheduling inside the due window re-derives the status
	sooner := time.Now().Add(2 * 24 * time.Hour)
	resp, err := service.Update(ctx, created.ID, UpdateObligationRequest{DueDate: &sooner})
	require.NoError(t, err)
	assert.Equal(t, "DUE", resp.Status)

	owner := "legal@example.com"
	resp, err = service.Update(ctx, created.ID, UpdateObligationRequest{Owner: &owner})
	require.NoError(t, err)
	assert.Equal(t, owner, resp.Owner)

	empty := ""
	_, err = service.Update(ctx, created.ID, UpdateObligationRequest{Description: &empty})
	assert.Error(t, err)
}

func TestObligationServiceRefresh(t *testing.T) {
	ctx := context.Background()
	service, repo, contractID := newTestService()

	// Stale PENDING status on an obligation that is now overdue
	overdue, err := obligation.NewObligation(contractID, "Slipped deadline", time.Now().Add(-time.Hour), obligation.RecurrenceNone)
	require.NoError(t, err)
	overdue.Status = obligation.StatusPending
	require.NoError(t, repo.Save(ctx, overdue))

	current, err := obligation.NewObligation(contractID, "Far future", time.Now().Add(365*24*time.Hour), obligation.RecurrenceNone)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, current))

	result, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Updated)

	saved, err := repo.FindByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusOverdue, saved.Status)

	// A second pass finds nothing to change
	result, err = service.Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Updated)
}

func TestObligationServiceUpcoming(t *testing.T) {
	ctx := context.Background()
	service, repo, contractID := newTestService()

	soon, err := obligation.NewObligation(contractID, "Due soon", time.Now().Add(5*24*time.Hour), obligation.RecurrenceNone)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, soon))

	far, err := obligation.NewObligation(contractID, "Due much later", time.Now().Add(200*24*time.Hour), obligation.RecurrenceNone)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, far))

	items, err := service.Upcoming(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Due soon", items[0].Description)
}
