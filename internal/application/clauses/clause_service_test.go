package clauses

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/clause"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClauseRepo is an in-memory ClauseRepository
type fakeClauseRepo struct {
	clauses map[uuid.UUID]*clause.Clause
}

func newFakeClauseRepo() *fakeClauseRepo {
	return &fakeClauseRepo{clauses: make(map[uuid.UUID]*clause.Clause)}
}

func (r *fakeClauseRepo) FindByID(_ context.Context, id uuid.UUID) (*clause.Clause, error) {
	c, ok := r.clauses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClauseRepo) FindAll(_ context.Context, _ shared.Filter) ([]clause.Clause, error) {
	out := make([]clause.Clause, 0, len(r.clauses))
	for _, c := range r.clauses {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeClauseRepo) FindByCategory(_ context.Context, category clause.Category, _ shared.Filter) ([]clause.Clause, error) {
	var out []clause.Clause
	for _, c := range r.clauses {
		if c.Category == category {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeClauseRepo) Save(_ context.Context, c *clause.Clause) error {
	cp := *c
	r.clauses[c.ID] = &cp
	return nil
}

func (r *fakeClauseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.clauses, id)
	return nil
}

func (r *fakeClauseRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.clauses)), nil
}

func (r *fakeClauseRepo) mustAdd(t *testing.T, title, body string, category clause.Category) *clause.Clause {
	t.Helper()
	c, err := clause.NewClause(title, body, category)
	require.NoError(t, err)
	require.NoError(t, r.Save(context.Background(), c))
	return c
}

func TestClauseServiceCreate(t *testing.T) {
	repo := newFakeClauseRepo()
	service := NewClauseService(repo)

	resp, err := service.Create(context.Background(), CreateClauseRequest{
		Title:    "Limitation of Liability",
		Body:     "Neither party shall be liable for indirect damages.",
		Category: "LIABILITY",
		Tags:     []string{"Liability", "CAP"},
	})

	require.NoError(t, err)
	assert.Equal(t, "LIABILITY", resp.Category)
	assert.Equal(t, []string{"liability", "cap"}, resp.Tags)
	assert.Zero(t, resp.UsageCount)
}

func TestClauseServiceUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeClauseRepo()
	c := repo.mustAdd(t, "Termination", "Either party may terminate with 30 days notice.", clause.CategoryTermination)
	service := NewClauseService(repo)

	newBody := "Either party may terminate with 60 days notice."
	resp, err := service.Update(ctx, c.ID, UpdateClauseRequest{Body: &newBody})
	require.NoError(t, err)
	assert.Equal(t, newBody, resp.Body)
	assert.Equal(t, "Termination", resp.Title)

	empty := ""
	_, err = service.Update(ctx, c.ID, UpdateClauseRequest{Title: &empty})
	assert.Error(t, err)
}

func TestClauseServiceRecordUsage(t *testing.T) {
	ctx := context.Background()
	repo := newFakeClauseRepo()
	c := repo.mustAdd(t, "NDA Term", "Confidentiality survives for five years.", clause.CategoryConfidentiality)
	service := NewClauseService(repo)

	resp, err := service.RecordUsage(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.UsageCount)

	resp, err = service.RecordUsage(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.UsageCount)
}

func TestClauseServiceSearch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeClauseRepo()
	repo.mustAdd(t, "Limitation of Liability", "Liability is capped at fees paid in the prior twelve months.", clause.CategoryLiability)
	repo.mustAdd(t, "Indemnification", "Vendor shall indemnify the customer against third party claims.", clause.CategoryIndemnification)
	repo.mustAdd(t, "Payment Terms", "Invoices are payable within thirty days of receipt.", clause.CategoryPayment)
	service := NewClauseService(repo)

	matches, err := service.Search(ctx, SearchRequest{Query: "liability capped at fees paid"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Limitation of Liability", matches[0].Clause.Title)
	assert.Greater(t, matches[0].Score, 0.0)
}

func TestClauseServiceSearch_CategoryNarrowsCandidates(t *testing.T) {
	ctx := context.Background()
	repo := newFakeClauseRepo()
	repo.mustAdd(t, "Liability Cap", "Liability for payment defaults is capped.", clause.CategoryLiability)
	repo.mustAdd(t, "Payment Terms", "Payment of invoices is due in thirty days.", clause.CategoryPayment)
	service := NewClauseService(repo)

	matches, err := service.Search(ctx, SearchRequest{Query: "payment", Category: "PAYMENT"})
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, "PAYMENT", m.Clause.Category)
	}
}

func TestClauseServiceSearch_WeakOverlapFiltered(t *testing.T) {
	ctx := context.Background()
	repo := newFakeClauseRepo()
	repo.mustAdd(t, "Governing Law", "This agreement is governed by the laws of the state of Delaware without notice.", clause.CategoryGeneral)
	service := NewClauseService(repo)

	// One shared token out of sixteen is noise, not a match
	matches, err := service.Search(ctx, SearchRequest{Query: "termination notice period"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestClauseServiceSearch_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	repo := newFakeClauseRepo()
	for i := 0; i < 25; i++ {
		repo.mustAdd(t, fmt.Sprintf("Confidentiality %d", i),
			fmt.Sprintf("Confidential information must be protected marker%d.", i),
			clause.CategoryConfidentiality)
	}
	service := NewClauseService(repo)

	matches, err := service.Search(ctx, SearchRequest{Query: "confidential information must be protected"})
	require.NoError(t, err)
	assert.Len(t, matches, 20)
}

// pagedClauseRepo serves clauses page by page so scans past the first
// repository page are visible to the test.
type pagedClauseRepo struct {
	fakeClauseRepo
	ordered []clause.Clause
}

func (r *pagedClauseRepo) FindAll(_ context.Context, filter shared.Filter) ([]clause.Clause, error) {
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(r.ordered) {
		return nil, nil
	}
	end := start + filter.PageSize
	if end > len(r.ordered) {
		end = len(r.ordered)
	}
	return r.ordered[start:end], nil
}

func TestClauseServiceSearch_ScansWholeLibrary(t *testing.T) {
	ctx := context.Background()
	repo := &pagedClauseRepo{fakeClauseRepo: *newFakeClauseRepo()}
	for i := 0; i < 500; i++ {
		c, err := clause.NewClause(fmt.Sprintf("Filler %d", i),
			fmt.Sprintf("Boilerplate filler text entry number%d.", i), clause.CategoryGeneral)
		require.NoError(t, err)
		repo.ordered = append(repo.ordered, *c)
	}
	target, err := clause.NewClause("Audit Rights",
		"Customer may audit vendor records once per year.", clause.CategoryGeneral)
	require.NoError(t, err)
	repo.ordered = append(repo.ordered, *target)
	service := NewClauseService(repo)

	// The match sits on the second repository page
	matches, err := service.Search(ctx, SearchRequest{Query: "audit vendor records"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Audit Rights", matches[0].Clause.Title)
}

func TestClauseServiceSearch_EmptyQuery(t *testing.T) {
	service := NewClauseService(newFakeClauseRepo())

	_, err := service.Search(context.Background(), SearchRequest{Query: "   "})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_QUERY", domainErr.Code)
}

func TestClauseServiceDelete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeClauseRepo()
	c := repo.mustAdd(t, "IP Assignment", "All work product is assigned to the customer.", clause.CategoryIP)
	service := NewClauseService(repo)

	require.NoError(t, service.Delete(ctx, c.ID))
	_, err := service.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
