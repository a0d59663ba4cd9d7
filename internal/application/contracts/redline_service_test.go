package contracts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/pdf"
	"github.com/marsops/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedlineRepo is an in-memory RedlineRepository
type fakeRedlineRepo struct {
	redlines map[uuid.UUID]*contract.Redline
}

func newFakeRedlineRepo() *fakeRedlineRepo {
	return &fakeRedlineRepo{redlines: make(map[uuid.UUID]*contract.Redline)}
}

func (r *fakeRedlineRepo) FindByID(_ context.Context, id uuid.UUID) (*contract.Redline, error) {
	redline, ok := r.redlines[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *redline
	return &cp, nil
}

func (r *fakeRedlineRepo) FindByContract(_ context.Context, contractID uuid.UUID, _ shared.Filter) ([]contract.Redline, error) {
	var out []contract.Redline
	for _, redline := range r.redlines {
		if redline.ContractID == contractID {
			out = append(out, *redline)
		}
	}
	return out, nil
}

func (r *fakeRedlineRepo) Save(_ context.Context, redline *contract.Redline) error {
	cp := *redline
	r.redlines[redline.ID] = &cp
	return nil
}

func (r *fakeRedlineRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.redlines, id)
	return nil
}

func TestRedlineServiceCreate(t *testing.T) {
	ctx := context.Background()
	contractRepo := newFakeContractRepo()
	c := contractRepo.mustAdd(t, "MSA-10", "Agreement", "Acme")
	service := NewRedlineService(contractRepo, newFakeRedlineRepo(), nil, storage.NewMemoryObjectStorage())

	resp, err := service.Create(ctx, c.ID, CreateRedlineRequest{
		Original: "Payment is due net 30.",
		Revised:  "Payment is due net 90.",
	})

	require.NoError(t, err)
	assert.Equal(t, "Redline MSA-10", resp.Label)
	assert.Contains(t, resp.HTML, "<ins>")
	assert.Contains(t, resp.HTML, "<del>")
	assert.True(t, resp.HasChanges)
	assert.Greater(t, resp.Unchanged, 0)
}

func TestRedlineServiceCreate_ContractNotFound(t *testing.T) {
	service := NewRedlineService(newFakeContractRepo(), newFakeRedlineRepo(), nil, storage.NewMemoryObjectStorage())

	_, err := service.Create(context.Background(), uuid.New(), CreateRedlineRequest{Original: "a", Revised: "b"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRedlineServiceRenderPDF(t *testing.T) {
	ctx := context.Background()
	contractRepo := newFakeContractRepo()
	c := contractRepo.mustAdd(t, "MSA-11", "Agreement", "Acme")
	redlineRepo := newFakeRedlineRepo()
	objects := storage.NewMemoryObjectStorage()
	service := NewRedlineService(contractRepo, redlineRepo, pdf.NewStubRenderer(), objects)

	created, err := service.Create(ctx, c.ID, CreateRedlineRequest{Original: "old terms", Revised: "new terms"})
	require.NoError(t, err)

	rendered, err := service.RenderPDF(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, rendered.ArtifactKey)

	exists, err := objects.Exists(ctx, rendered.ArtifactKey)
	require.NoError(t, err)
	assert.True(t, exists)

	// Re-rendering returns the existing artifact
	again, err := service.RenderPDF(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, rendered.ArtifactKey, again.ArtifactKey)

	url, err := service.ArtifactURL(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, url, rendered.ArtifactKey)
}

func TestRedlineServiceRenderPDF_Disabled(t *testing.T) {
	ctx := context.Background()
	contractRepo := newFakeContractRepo()
	c := contractRepo.mustAdd(t, "MSA-12", "Agreement", "Acme")
	service := NewRedlineService(contractRepo, newFakeRedlineRepo(), nil, storage.NewMemoryObjectStorage())

	created, err := service.Create(ctx, c.ID, CreateRedlineRequest{Original: "a", Revised: "b"})
	require.NoError(t, err)

	_, err = service.RenderPDF(ctx, created.ID)
	assertDomainError(t, err, "RENDERING_DISABLED")

	_, err = service.ArtifactURL(ctx, created.ID)
	assertDomainError(t, err, "NO_ARTIFACT")
}

func TestDiffHTML(t *testing.T) {
	body, insertions, deletions, unchanged := DiffHTML("the cat sat", "the dog sat")

	assert.Contains(t, body, "<ins>")
	assert.Contains(t, body, "<del>")
	assert.Greater(t, insertions, 0)
	assert.Greater(t, deletions, 0)
	assert.Greater(t, unchanged, 0)
}

func TestDiffHTML_EscapesMarkup(t *testing.T) {
	body, _, _, _ := DiffHTML("<script>alert(1)</script>", "<b>safe</b>")

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestDiffHTML_Identical(t *testing.T) {
	body, insertions, deletions, unchanged := DiffHTML("same text", "same text")

	assert.Equal(t, "same text", body)
	assert.Zero(t, insertions)
	assert.Zero(t, deletions)
	assert.Equal(t, len("same text"), unchanged)
}
