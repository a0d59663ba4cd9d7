package contract

import (
	"strings"
	"time"

	"github.com/marsops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApprovalStatus represents the approval state of a contract
type ApprovalStatus string

const (
	ApprovalStatusDraft    ApprovalStatus = "DRAFT"
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusDraft, ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ApprovalStatus) CanTransitionTo(target ApprovalStatus) bool {
	switch s {
	case ApprovalStatusDraft:
		return target == ApprovalStatusPending
	case ApprovalStatusPending:
		return target == ApprovalStatusApproved || target == ApprovalStatusRejected
	case ApprovalStatusRejected:
		// A rejected contract re-enters the draft cycle after revision
		return target == ApprovalStatusDraft
	case ApprovalStatusApproved:
		return false
	}
	return false
}

// ContractType categorizes a contract
type ContractType string

const (
	ContractTypeMSA ContractType = "MSA"
	ContractTypeSOW ContractType = "SOW"
	ContractTypeNDA ContractType = "NDA"
	ContractTypePO  ContractType = "PURCHASE_ORDER"
	ContractTypeAmd ContractType = "AMENDMENT"
)

// IsValid checks if the type is a known ContractType
func (t ContractType) IsValid() bool {
	switch t {
	case ContractTypeMSA, ContractTypeSOW, ContractTypeNDA, ContractTypePO, ContractTypeAmd:
		return true
	}
	return false
}

// Contract represents a counterparty agreement tracked by the operations team.
// It carries the approval lifecycle plus the references that tie it to the
// surrounding systems: the stored source document, the Notion record and the
// e-signature envelope.
type Contract struct {
	shared.BaseAggregateRoot
	Number           string `gorm:"size:50;uniqueIndex;not null"`
	Name             string `gorm:"size:300;not null"`
	Counterparty     string `gorm:"size:200;not null;index"`
	Type             ContractType
	Status           ApprovalStatus `gorm:"size:20;not null;index"`
	Value            decimal.Decimal
	Currency         string `gorm:"size:3"`
	EffectiveDate    *time.Time
	ExpiryDate       *time.Time
	DocumentKey      string `gorm:"size:500"` // object storage key of the source document
	NotionPageID     string `gorm:"size:64;index"`
	EnvelopeID       string `gorm:"size:64;index"` // DocuSign envelope
	Notes            string `gorm:"type:text"`
	SubmittedAt      *time.Time
	DecidedAt        *time.Time
	DecisionComment  string `gorm:"size:1000"`
	SignatureStatus  string `gorm:"size:30"` // latest envelope status reported by the webhook
	SignatureUpdated *time.Time
}

// NewContract creates a new contract in draft state
func NewContract(number, name, counterparty string, contractType ContractType) (*Contract, error) {
	number = strings.TrimSpace(strings.ToUpper(number))
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Contract number cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Contract name cannot be empty")
	}
	if strings.TrimSpace(counterparty) == "" {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty cannot be empty")
	}
	if !contractType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown contract type")
	}

	return &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Name:              strings.TrimSpace(name),
		Counterparty:      strings.TrimSpace(counterparty),
		Type:              contractType,
		Status:            ApprovalStatusDraft,
		Value:             decimal.Zero,
		Currency:          "USD",
	}, nil
}

// SetValue sets the contract value and currency
func (c *Contract) SetValue(value decimal.Decimal, currency string) error {
	if value.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Contract value cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}
	c.Value = value
	c.Currency = currency
	c.Touch()
	return nil
}

// SetTerm sets the effective and expiry dates
func (c *Contract) SetTerm(effective, expiry *time.Time) error {
	if effective != nil && expiry != nil && expiry.Before(*effective) {
		return shared.NewDomainError("INVALID_TERM", "Expiry date cannot precede effective date")
	}
	c.EffectiveDate = effective
	c.ExpiryDate = expiry
	c.Touch()
	return nil
}

// AttachDocument records the object storage key of the source document
func (c *Contract) AttachDocument(key string) error {
	if strings.TrimSpace(key) == "" {
		return shared.NewDomainError("INVALID_DOCUMENT_KEY", "Document key cannot be empty")
	}
	c.DocumentKey = key
	c.Touch()
	return nil
}

// LinkNotionPage records the Notion page backing this contract
func (c *Contract) LinkNotionPage(pageID string) {
	c.NotionPageID = pageID
	c.Touch()
}

// LinkEnvelope records the e-signature envelope for this contract
func (c *Contract) LinkEnvelope(envelopeID string) {
	c.EnvelopeID = envelopeID
	c.Touch()
}

// Submit moves the contract from draft to pending approval
func (c *Contract) Submit() error {
	if !c.Status.CanTransitionTo(ApprovalStatusPending) {
		return shared.NewDomainError("INVALID_STATE", "Only draft contracts can be submitted for approval")
	}
	now := time.Now()
	c.Status = ApprovalStatusPending
	c.SubmittedAt = &now
	c.Touch()
	return nil
}

// Approve marks a pending contract approved
func (c *Contract) Approve(comment string) error {
	if !c.Status.CanTransitionTo(ApprovalStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", "Only pending contracts can be approved")
	}
	now := time.Now()
	c.Status = ApprovalStatusApproved
	c.DecidedAt = &now
	c.DecisionComment = comment
	c.Touch()
	return nil
}

// Reject marks a pending contract rejected. A rejection comment is required
// so the requester knows what to fix.
func (c *Contract) Reject(comment string) error {
	if !c.Status.CanTransitionTo(ApprovalStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", "Only pending contracts can be rejected")
	}
	if strings.TrimSpace(comment) == "" {
		return shared.NewDomainError("COMMENT_REQUIRED", "A rejection comment is required")
	}
	now := time.Now()
	c.Status = ApprovalStatusRejected
	c.DecidedAt = &now
	c.DecisionComment = comment
	c.Touch()
	return nil
}

// Revise returns a rejected contract to draft so it can be edited and resubmitted
func (c *Contract) Revise() error {
	if !c.Status.CanTransitionTo(ApprovalStatusDraft) {
		return shared.NewDomainError("INVALID_STATE", "Only rejected contracts can be revised")
	}
	c.Status = ApprovalStatusDraft
	c.SubmittedAt = nil
	c.DecidedAt = nil
	c.DecisionComment = ""
	c.Touch()
	return nil
}

// RecordSignatureStatus stores the latest envelope status reported by the
// e-signature webhook. Unknown statuses are stored as-is; mapping to the
// approval lifecycle happens in the application layer.
func (c *Contract) RecordSignatureStatus(status string, at time.Time) {
	c.SignatureStatus = strings.ToLower(strings.TrimSpace(status))
	c.SignatureUpdated = &at
	c.Touch()
}

// IsExpiringSoon reports whether the contract expires within the given window
func (c *Contract) IsExpiringSoon(now time.Time, window time.Duration) bool {
	if c.ExpiryDate == nil || c.Status != ApprovalStatusApproved {
		return false
	}
	return c.ExpiryDate.After(now) && c.ExpiryDate.Sub(now) <= window
}

// SetNotes sets free-form notes on the contract
func (c *Contract) SetNotes(notes string) {
	c.Notes = notes
	c.Touch()
}

// Update changes the editable fields. Only draft contracts may be edited.
func (c *Contract) Update(name, counterparty string) error {
	if c.Status != ApprovalStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft contracts can be edited")
	}
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Contract name cannot be empty")
	}
	if strings.TrimSpace(counterparty) == "" {
		return shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty cannot be empty")
	}
	c.Name = strings.TrimSpace(name)
	c.Counterparty = strings.TrimSpace(counterparty)
	c.Touch()
	return nil
}
