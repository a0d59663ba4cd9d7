package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/llm"
	"github.com/marsops/backend/internal/infrastructure/msgraph"
	"github.com/marsops/backend/internal/infrastructure/storage"
	"github.com/marsops/backend/internal/infrastructure/telemetry"
	"golang.org/x/sync/errgroup"
)

const (
	// maxSectionChars bounds the text sent per model call
	maxSectionChars = 4000

	// defaultReviewConcurrency caps parallel section calls
	defaultReviewConcurrency = 5
)

const reviewSystemPrompt = `You are a contract analyst for an operations team.
Analyze the given contract section and respond with ONLY a JSON object:
{"findings":[{"severity":"INFO|WARNING|CRITICAL","title":"...","detail":"...","suggestion":"..."}],"summary":"one-sentence section summary"}
Flag unusual liability, indemnification, termination, payment and IP terms.
An empty findings array is a valid answer for unremarkable sections.`

// ChatClient is the LLM surface the review service depends on
type ChatClient interface {
	Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error)
}

// DocumentSource fetches contract text that is not stored locally yet.
// The Graph client satisfies it.
type DocumentSource interface {
	GetItemByPath(ctx context.Context, path string) (*msgraph.DriveItem, error)
	DownloadItem(ctx context.Context, itemID string) ([]byte, error)
}

// ReviewService runs sectioned LLM analysis over contract text
type ReviewService struct {
	contractRepo contract.ContractRepository
	reviewRepo   contract.ReviewRepository
	chat         ChatClient
	objects      storage.ObjectStorage
	documents    DocumentSource // optional

	model       string
	concurrency int
}

// ReviewOption is a functional option for the review service
type ReviewOption func(*ReviewService)

// WithDocumentSource wires an external document source for contracts whose
// text is not cached in object storage
func WithDocumentSource(source DocumentSource) ReviewOption {
	return func(s *ReviewService) { s.documents = source }
}

// WithConcurrency overrides the parallel section call limit
func WithConcurrency(n int) ReviewOption {
	return func(s *ReviewService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	contractRepo contract.ContractRepository,
	reviewRepo contract.ReviewRepository,
	chat ChatClient,
	objects storage.ObjectStorage,
	model string,
	opts ...ReviewOption,
) *ReviewService {
	s := &ReviewService{
		contractRepo: contractRepo,
		reviewRepo:   reviewRepo,
		chat:         chat,
		objects:      objects,
		model:        model,
		concurrency:  defaultReviewConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reviews a contract: resolve its text, split it into sections, analyze
// the sections concurrently and persist the merged result. The review record
// is saved in every outcome so failures stay visible.
func (s *ReviewService) Run(ctx context.Context, contractID uuid.UUID, req StartReviewRequest) (*ReviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "review", "run")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrContractID, contractID.String(),
		telemetry.SpanAttrModel, s.model,
	)

	if s.chat == nil {
		err := shared.NewDomainError("UPSTREAM_UNAVAILABLE", "LLM review integration is not configured")
		telemetry.RecordError(span, err)
		return nil, err
	}

	c, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	review, err := contract.NewContractReview(c.ID, s.model)
	if err != nil {
		return nil, err
	}

	text, err := s.resolveText(ctx, c, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	sections := SplitSections(text, maxSectionChars)
	telemetry.SetAttribute(span, telemetry.SpanAttrSectionCount, len(sections))
	if err := review.Start(len(sections)); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}

	findings, summary, usage, analyzeErr := s.analyzeSections(ctx, sections)
	if analyzeErr != nil {
		_ = review.Fail(analyzeErr.Error())
	} else if err := review.Complete(findings, summary, usage.PromptTokens, usage.CompletionTokens); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}
	if analyzeErr != nil {
		err := shared.NewDomainError("REVIEW_FAILED", analyzeErr.Error())
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "review_completed",
		telemetry.SpanAttrReviewID, review.ID.String(),
		"finding_count", len(review.Findings),
		"output_tokens", review.OutputTokens,
	)

	response := ToReviewResponse(review)
	return &response, nil
}

// GetByID retrieves a review by ID
func (s *ReviewService) GetByID(ctx context.Context, id uuid.UUID) (*ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToReviewResponse(review)
	return &response, nil
}

// ListByContract retrieves the reviews of one contract, newest first
func (s *ReviewService) ListByContract(ctx context.Context, contractID uuid.UUID, page, pageSize int) ([]ReviewResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	items, err := s.reviewRepo.FindByContract(ctx, contractID, shared.Filter{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	return ToReviewResponses(items), nil
}

// resolveText picks the contract body to analyze: the request text, the
// stored source document, or a fetch from the external drive.
func (s *ReviewService) resolveText(ctx context.Context, c *contract.Contract, req StartReviewRequest) (string, error) {
	if strings.TrimSpace(req.Text) != "" {
		return req.Text, nil
	}

	if c.DocumentKey != "" {
		data, err := s.objects.Download(ctx, c.DocumentKey)
		if err != nil {
			return "", fmt.Errorf("failed to load stored document: %w", err)
		}
		return string(data), nil
	}

	if s.documents != nil && strings.TrimSpace(req.DrivePath) != "" {
		item, err := s.documents.GetItemByPath(ctx, req.DrivePath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve drive document: %w", err)
		}
		data, err := s.documents.DownloadItem(ctx, item.ID)
		if err != nil {
			return "", fmt.Errorf("failed to fetch drive document: %w", err)
		}
		return string(data), nil
	}

	return "", shared.NewDomainError("NO_TEXT", "No contract text available to review")
}

// sectionResult is the decoded model answer for one section
type sectionResult struct {
	Findings []contract.Finding `json:"findings"`
	Summary  string             `json:"summary"`
}

// analyzeSections fans the sections out to the model with bounded
// concurrency and merges the per-section results in section order
func (s *ReviewService) analyzeSections(ctx context.Context, sections []string) ([]contract.Finding, string, llm.Usage, error) {
	results := make([]sectionResult, len(sections))
	var mu sync.Mutex
	var usage llm.Usage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, section := range sections {
		i, section := i, section
		g.Go(func() error {
			completion, err := s.chat.Complete(gctx, []llm.Message{
				{Role: "system", Content: reviewSystemPrompt},
				{Role: "user", Content: fmt.Sprintf("Section %d of %d:\n\n%s", i+1, len(sections), section)},
			})
			if err != nil {
				return fmt.Errorf("section %d: %w", i+1, err)
			}

			result, err := parseSectionResult(completion.Content)
			if err != nil {
				return fmt.Errorf("section %d: %w", i+1, err)
			}
			for j := range result.Findings {
				result.Findings[j].Section = i + 1
			}

			mu.Lock()
			results[i] = *result
			usage.PromptTokens += completion.Usage.PromptTokens
			usage.CompletionTokens += completion.Usage.CompletionTokens
			usage.TotalTokens += completion.Usage.TotalTokens
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, "", usage, err
	}

	var findings []contract.Finding
	var summaries []string
	for _, r := range results {
		findings = append(findings, r.Findings...)
		if strings.TrimSpace(r.Summary) != "" {
			summaries = append(summaries, strings.TrimSpace(r.Summary))
		}
	}

	// Critical findings first, then by section
	sort.SliceStable(findings, func(a, b int) bool {
		return severityRank(findings[a].Severity) > severityRank(findings[b].Severity)
	})

	return findings, strings.Join(summaries, " "), usage, nil
}

func severityRank(s contract.Severity) int {
	switch s {
	case contract.SeverityCritical:
		return 2
	case contract.SeverityWarning:
		return 1
	}
	return 0
}

// parseSectionResult decodes the model answer, tolerating fenced code blocks
func parseSectionResult(content string) (*sectionResult, error) {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "{"); idx > 0 {
		content = content[idx:]
	}
	if idx := strings.LastIndex(content, "}"); idx >= 0 {
		content = content[:idx+1]
	}

	var result sectionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("unparseable model answer: %w", err)
	}
	for _, f := range result.Findings {
		switch f.Severity {
		case contract.SeverityInfo, contract.SeverityWarning, contract.SeverityCritical:
		default:
			return nil, fmt.Errorf("unknown severity %q in model answer", f.Severity)
		}
	}
	return &result, nil
}

// SplitSections splits text into chunks of at most maxChars, preferring
// paragraph boundaries and falling back to a hard cut for runs without one
func SplitSections(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	var sections []string
	remaining := text
	for len(remaining) > maxChars {
		cut := strings.LastIndex(remaining[:maxChars], "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(remaining[:maxChars], "\n")
		}
		if cut <= 0 {
			cut = strings.LastIndex(remaining[:maxChars], " ")
		}
		if cut <= 0 {
			cut = maxChars
		}
		sections = append(sections, strings.TrimSpace(remaining[:cut]))
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		sections = append(sections, remaining)
	}
	return sections
}
