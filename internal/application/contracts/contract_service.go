// Package contracts implements the contract lifecycle use cases: CRUD and
// approval flow, automated LLM reviews and redline generation.
package contracts

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/docusign"
	"github.com/marsops/backend/internal/infrastructure/storage"
	"github.com/marsops/backend/internal/infrastructure/telemetry"
)

// Envelope statuses that close out the signing ceremony
const (
	envelopeCompleted = "completed"
	envelopeDeclined  = "declined"
	envelopeVoided    = "voided"
)

// EnvelopeReader is the slice of the e-sign client used to validate an
// envelope before it is linked to a contract.
type EnvelopeReader interface {
	GetEnvelope(ctx context.Context, envelopeID string) (*docusign.Envelope, error)
}

// ContractService handles contract lifecycle operations
type ContractService struct {
	contractRepo contract.ContractRepository
	objects      storage.ObjectStorage
	envelopes    EnvelopeReader
}

// NewContractService creates a new ContractService. A nil envelopes client
// disables upstream envelope validation.
func NewContractService(contractRepo contract.ContractRepository, objects storage.ObjectStorage, envelopes EnvelopeReader) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		objects:      objects,
		envelopes:    envelopes,
	}
}

// Create creates a new draft contract
func (s *ContractService) Create(ctx context.Context, req CreateContractRequest) (*ContractResponse, error) {
	exists, err := s.contractRepo.ExistsByNumber(ctx, req.Number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Contract with this number already exists")
	}

	c, err := contract.NewContract(req.Number, req.Name, req.Counterparty, contract.ContractType(req.Type))
	if err != nil {
		return nil, err
	}

	if req.Value != nil {
		currency := req.Currency
		if currency == "" {
			currency = "USD"
		}
		if err := c.SetValue(*req.Value, currency); err != nil {
			return nil, err
		}
	}
	if req.EffectiveDate != nil || req.ExpiryDate != nil {
		if err := c.SetTerm(req.EffectiveDate, req.ExpiryDate); err != nil {
			return nil, err
		}
	}
	if req.NotionPageID != "" {
		c.LinkNotionPage(req.NotionPageID)
	}
	if req.Notes != "" {
		c.SetNotes(req.Notes)
	}

	if err := s.contractRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// GetByID retrieves a contract by ID
func (s *ContractService) GetByID(ctx context.Context, id uuid.UUID) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToContractResponse(c)
	return &response, nil
}

// GetByNumber retrieves a contract by its number
func (s *ContractService) GetByNumber(ctx context.Context, number string) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToContractResponse(c)
	return &response, nil
}

// List retrieves contracts with filtering and pagination
func (s *ContractService) List(ctx context.Context, filter ContractListFilter) ([]ContractResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Counterparty != "" {
		domainFilter.Filters["counterparty"] = filter.Counterparty
	}

	items, err := s.contractRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contractRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToContractResponses(items), total, nil
}

// Update updates an editable (draft) contract
func (s *ContractService) Update(ctx context.Context, id uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Counterparty != nil {
		name := c.Name
		counterparty := c.Counterparty
		if req.Name != nil {
			name = *req.Name
		}
		if req.Counterparty != nil {
			counterparty = *req.Counterparty
		}
		if err := c.Update(name, counterparty); err != nil {
			return nil, err
		}
	}
	if req.Value != nil {
		currency := c.Currency
		if req.Currency != nil {
			currency = *req.Currency
		}
		if err := c.SetValue(*req.Value, currency); err != nil {
			return nil, err
		}
	}
	if req.EffectiveDate != nil || req.ExpiryDate != nil {
		effective := c.EffectiveDate
		expiry := c.ExpiryDate
		if req.EffectiveDate != nil {
			effective = req.EffectiveDate
		}
		if req.ExpiryDate != nil {
			expiry = req.ExpiryDate
		}
		if err := c.SetTerm(effective, expiry); err != nil {
			return nil, err
		}
	}
	if req.NotionPageID != nil {
		c.LinkNotionPage(*req.NotionPageID)
	}
	if req.Notes != nil {
		c.SetNotes(*req.Notes)
	}

	if err := s.contractRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// Delete removes a contract. Only drafts may be deleted; everything past
// submission stays as the audit trail.
func (s *ContractService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != contract.ApprovalStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft contracts can be deleted")
	}
	return s.contractRepo.Delete(ctx, id)
}

// Submit moves a draft contract into the approval queue
func (s *ContractService) Submit(ctx context.Context, id uuid.UUID) (*ContractResponse, error) {
	return s.transition(ctx, id, func(c *contract.Contract) error {
		return c.Submit()
	})
}

// Approve approves a pending contract
func (s *ContractService) Approve(ctx context.Context, id uuid.UUID, req DecisionRequest) (*ContractResponse, error) {
	return s.transition(ctx, id, func(c *contract.Contract) error {
		return c.Approve(req.Comment)
	})
}

// Reject rejects a pending contract with a mandatory comment
func (s *ContractService) Reject(ctx context.Context, id uuid.UUID, req DecisionRequest) (*ContractResponse, error) {
	return s.transition(ctx, id, func(c *contract.Contract) error {
		return c.Reject(req.Comment)
	})
}

// Revise returns a rejected contract to draft
func (s *ContractService) Revise(ctx context.Context, id uuid.UUID) (*ContractResponse, error) {
	return s.transition(ctx, id, func(c *contract.Contract) error {
		return c.Revise()
	})
}

func (s *ContractService) transition(ctx context.Context, id uuid.UUID, apply func(*contract.Contract) error) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(c); err != nil {
		return nil, err
	}
	if err := s.contractRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	response := ToContractResponse(c)
	return &response, nil
}

// UploadDocument stores the source document in object storage and records
// its key on the contract
func (s *ContractService) UploadDocument(ctx context.Context, id uuid.UUID, filename, contentType string, data []byte) (*ContractResponse, error) {
	if len(data) == 0 {
		return nil, shared.NewDomainError("EMPTY_DOCUMENT", "Document content cannot be empty")
	}
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, shared.NewDomainError("INVALID_FILENAME", "A document filename is required")
	}

	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("contracts/%s/%s", c.ID, filename)
	if err := s.objects.Upload(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	if err := c.AttachDocument(key); err != nil {
		return nil, err
	}
	if err := s.contractRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// DocumentURL returns a presigned download URL for the stored source document
func (s *ContractService) DocumentURL(ctx context.Context, id uuid.UUID) (string, time.Time, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if c.DocumentKey == "" {
		return "", time.Time{}, shared.NewDomainError("NO_DOCUMENT", "Contract has no stored document")
	}
	return s.objects.PresignDownload(ctx, c.DocumentKey, 15*time.Minute)
}

// RecordEnvelopeStatus applies an e-signature envelope status update to the
// contract owning the envelope. Unknown envelopes are reported as not found
// so the webhook handler can acknowledge and drop them.
func (s *ContractService) RecordEnvelopeStatus(ctx context.Context, envelopeID, status string, at time.Time) (*ContractResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "record_envelope_status")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrEnvelopeID, envelopeID,
		"envelope_status", status,
	)

	if envelopeID == "" {
		return nil, shared.NewDomainError("INVALID_ENVELOPE", "Envelope ID cannot be empty")
	}

	c, err := s.contractRepo.FindByEnvelopeID(ctx, envelopeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrContractNumber, c.Number)

	c.RecordSignatureStatus(status, at)

	// A completed ceremony on a pending contract resolves the approval too;
	// a declined or voided envelope sends it back for rework.
	if c.Status == contract.ApprovalStatusPending {
		switch strings.ToLower(strings.TrimSpace(status)) {
		case envelopeCompleted:
			if err := c.Approve("Signed via e-signature envelope " + envelopeID); err != nil {
				return nil, err
			}
		case envelopeDeclined, envelopeVoided:
			if err := c.Reject("Envelope " + envelopeID + " was " + strings.ToLower(status)); err != nil {
				return nil, err
			}
		}
	}

	if err := s.contractRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// LinkEnvelope attaches an e-signature envelope to a contract. When an
// envelope client is configured the envelope is looked up first so typos
// and envelopes from other accounts are rejected.
func (s *ContractService) LinkEnvelope(ctx context.Context, id uuid.UUID, envelopeID string) (*ContractResponse, error) {
	envelopeID = strings.TrimSpace(envelopeID)
	if envelopeID == "" {
		return nil, shared.NewDomainError("INVALID_ENVELOPE", "Envelope ID cannot be empty")
	}

	var envelope *docusign.Envelope
	if s.envelopes != nil {
		var err error
		envelope, err = s.envelopes.GetEnvelope(ctx, envelopeID)
		if errors.Is(err, docusign.ErrEnvelopeNotFound) {
			return nil, shared.NewDomainError("INVALID_ENVELOPE", "Envelope does not exist")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up envelope: %w", err)
		}
	}

	return s.transition(ctx, id, func(c *contract.Contract) error {
		c.LinkEnvelope(envelopeID)
		if envelope != nil && envelope.Status != "" {
			c.RecordSignatureStatus(strings.ToLower(envelope.Status), time.Now())
		}
		return nil
	})
}

// ExpiringSoon lists approved contracts expiring within the window
func (s *ContractService) ExpiringSoon(ctx context.Context, window time.Duration) ([]ContractResponse, error) {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	items, err := s.contractRepo.FindExpiringBefore(ctx, time.Now().Add(window))
	if err != nil {
		return nil, err
	}
	return ToContractResponses(items), nil
}
