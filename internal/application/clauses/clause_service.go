// Package clauses implements the reusable clause library with
// similarity-ranked search.
package clauses

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/clause"
	"github.com/marsops/backend/internal/domain/shared"
)

const (
	// searchThreshold filters out matches with weak token overlap
	searchThreshold = 0.12

	// searchDefaultLimit is the result count when the caller does not set one
	searchDefaultLimit = 20

	// searchScanPageSize is the repository page size while scanning the library
	searchScanPageSize = 500
)

// ClauseService handles clause library operations
type ClauseService struct {
	clauseRepo clause.ClauseRepository
}

// NewClauseService creates a new ClauseService
func NewClauseService(clauseRepo clause.ClauseRepository) *ClauseService {
	return &ClauseService{clauseRepo: clauseRepo}
}

// Create adds a clause to the library
func (s *ClauseService) Create(ctx context.Context, req CreateClauseRequest) (*ClauseResponse, error) {
	c, err := clause.NewClause(req.Title, req.Body, clause.Category(req.Category))
	if err != nil {
		return nil, err
	}
	if len(req.Tags) > 0 {
		c.SetTags(req.Tags)
	}

	if err := s.clauseRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToClauseResponse(c)
	return &response, nil
}

// GetByID retrieves a clause by ID
func (s *ClauseService) GetByID(ctx context.Context, id uuid.UUID) (*ClauseResponse, error) {
	c, err := s.clauseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToClauseResponse(c)
	return &response, nil
}

// List retrieves clauses with filtering and pagination
func (s *ClauseService) List(ctx context.Context, filter ClauseListFilter) ([]ClauseResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}
	if filter.Tag != "" {
		domainFilter.Filters["tag"] = strings.ToLower(filter.Tag)
	}

	items, err := s.clauseRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clauseRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToClauseResponses(items), total, nil
}

// Update changes a clause's content
func (s *ClauseService) Update(ctx context.Context, id uuid.UUID, req UpdateClauseRequest) (*ClauseResponse, error) {
	c, err := s.clauseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title := c.Title
	body := c.Body
	category := c.Category
	if req.Title != nil {
		title = *req.Title
	}
	if req.Body != nil {
		body = *req.Body
	}
	if req.Category != nil {
		category = clause.Category(*req.Category)
	}
	if err := c.Update(title, body, category); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		c.SetTags(*req.Tags)
	}

	if err := s.clauseRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToClauseResponse(c)
	return &response, nil
}

// Delete removes a clause from the library
func (s *ClauseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.clauseRepo.Delete(ctx, id)
}

// RecordUsage bumps a clause's usage counter, used when a clause is
// inserted into a contract draft
func (s *ClauseService) RecordUsage(ctx context.Context, id uuid.UUID) (*ClauseResponse, error) {
	c, err := s.clauseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.RecordUsage()
	if err := s.clauseRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	response := ToClauseResponse(c)
	return &response, nil
}

// Search ranks library clauses against the query by token similarity.
// An optional category narrows the candidate set before scoring.
func (s *ClauseService) Search(ctx context.Context, req SearchRequest) ([]MatchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, shared.NewDomainError("INVALID_QUERY", "Search query cannot be empty")
	}
	limit := req.Limit
	if limit <= 0 || limit > 50 {
		limit = searchDefaultLimit
	}

	// Every clause in the library (or category) is scored, paging through
	// the repository until a short page signals the end.
	var candidates []clause.Clause
	for page := 1; ; page++ {
		scanFilter := shared.Filter{Page: page, PageSize: searchScanPageSize}
		var batch []clause.Clause
		var err error
		if req.Category != "" {
			batch, err = s.clauseRepo.FindByCategory(ctx, clause.Category(req.Category), scanFilter)
		} else {
			batch, err = s.clauseRepo.FindAll(ctx, scanFilter)
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, batch...)
		if len(batch) < searchScanPageSize {
			break
		}
	}

	matches := clause.Rank(req.Query, candidates, searchThreshold, limit)
	return ToMatchResponses(matches), nil
}
