package contracts

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/pdf"
	"github.com/marsops/backend/internal/infrastructure/storage"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// redlineStyle is embedded in rendered artifacts so insertions and
// deletions print the way reviewers expect tracked changes to look
const redlineStyle = `<style>
body { font-family: Georgia, serif; font-size: 11pt; line-height: 1.5; white-space: pre-wrap; }
ins { color: #1a7f37; background: #e6ffec; text-decoration: none; }
del { color: #cf222e; background: #ffebe9; }
</style>`

// RedlineService builds tracked-changes diffs between contract versions
type RedlineService struct {
	contractRepo contract.ContractRepository
	redlineRepo  contract.RedlineRepository
	renderer     pdf.Renderer // optional, nil disables PDF artifacts
	objects      storage.ObjectStorage
}

// NewRedlineService creates a new RedlineService
func NewRedlineService(
	contractRepo contract.ContractRepository,
	redlineRepo contract.RedlineRepository,
	renderer pdf.Renderer,
	objects storage.ObjectStorage,
) *RedlineService {
	return &RedlineService{
		contractRepo: contractRepo,
		redlineRepo:  redlineRepo,
		renderer:     renderer,
		objects:      objects,
	}
}

// Create diffs two versions of a contract's text and stores the result
func (s *RedlineService) Create(ctx context.Context, contractID uuid.UUID, req CreateRedlineRequest) (*RedlineResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	body, insertions, deletions, unchanged := DiffHTML(req.Original, req.Revised)

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = "Redline " + c.Number
	}

	redline, err := contract.NewRedline(c.ID, label, body, insertions, deletions, unchanged)
	if err != nil {
		return nil, err
	}
	if err := s.redlineRepo.Save(ctx, redline); err != nil {
		return nil, err
	}

	response := ToRedlineResponse(redline)
	return &response, nil
}

// GetByID retrieves a redline by ID
func (s *RedlineService) GetByID(ctx context.Context, id uuid.UUID) (*RedlineResponse, error) {
	redline, err := s.redlineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToRedlineResponse(redline)
	return &response, nil
}

// ListByContract retrieves the redlines of one contract, newest first
func (s *RedlineService) ListByContract(ctx context.Context, contractID uuid.UUID, page, pageSize int) ([]RedlineResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	items, err := s.redlineRepo.FindByContract(ctx, contractID, shared.Filter{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	return ToRedlineResponses(items), nil
}

// Delete removes a redline
func (s *RedlineService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.redlineRepo.Delete(ctx, id)
}

// RenderPDF renders the redline to a PDF artifact in object storage and
// returns the updated redline. Re-rendering an already rendered redline
// returns the existing artifact.
func (s *RedlineService) RenderPDF(ctx context.Context, id uuid.UUID) (*RedlineResponse, error) {
	if s.renderer == nil {
		return nil, shared.NewDomainError("RENDERING_DISABLED", "PDF rendering is not configured")
	}

	redline, err := s.redlineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if redline.ArtifactKey == "" {
		result, err := s.renderer.Render(ctx, &pdf.RenderRequest{
			HTML:    redlineStyle + redline.HTML,
			Title:   redline.Label,
			Margins: pdf.DefaultMargins(),
			FooterHTML: `<div style="font-size:8pt;width:100%;text-align:center;">` +
				`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render redline: %w", err)
		}

		key := fmt.Sprintf("redlines/%s/%s.pdf", redline.ContractID, redline.ID)
		if err := s.objects.Upload(ctx, key, result.PDFData, "application/pdf"); err != nil {
			return nil, fmt.Errorf("failed to store redline artifact: %w", err)
		}
		if err := redline.AttachArtifact(key); err != nil {
			return nil, err
		}
		if err := s.redlineRepo.Save(ctx, redline); err != nil {
			return nil, err
		}
	}

	response := ToRedlineResponse(redline)
	return &response, nil
}

// ArtifactURL returns a presigned download URL for the rendered artifact
func (s *RedlineService) ArtifactURL(ctx context.Context, id uuid.UUID) (string, error) {
	redline, err := s.redlineRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if redline.ArtifactKey == "" {
		return "", shared.NewDomainError("NO_ARTIFACT", "Redline has not been rendered yet")
	}
	url, _, err := s.objects.PresignDownload(ctx, redline.ArtifactKey, 0)
	return url, err
}

// DiffHTML computes a character-level diff of the two texts and renders it
// as HTML with ins/del markup. The counts are in characters.
func DiffHTML(original, revised string) (body string, insertions, deletions, unchanged int) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, revised, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		escaped := html.EscapeString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			insertions += len(d.Text)
			b.WriteString("<ins>")
			b.WriteString(escaped)
			b.WriteString("</ins>")
		case diffmatchpatch.DiffDelete:
			deletions += len(d.Text)
			b.WriteString("<del>")
			b.WriteString(escaped)
			b.WriteString("</del>")
		default:
			unchanged += len(d.Text)
			b.WriteString(escaped)
		}
	}
	return b.String(), insertions, deletions, unchanged
}
