package contract

import (
	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// Redline is a tracked-changes rendering of the difference between two
// versions of a contract's text. The HTML body is stored inline; a rendered
// PDF, when requested, lives in object storage under ArtifactKey.
type Redline struct {
	shared.BaseEntity
	ContractID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Label       string    `gorm:"size:200"`
	HTML        string    `gorm:"type:text"`
	Insertions  int
	Deletions   int
	Unchanged   int
	ArtifactKey string `gorm:"size:500"` // object storage key of the rendered PDF, if any
}

// NewRedline creates a redline artifact for a contract
func NewRedline(contractID uuid.UUID, label, html string, insertions, deletions, unchanged int) (*Redline, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if html == "" {
		return nil, shared.NewDomainError("EMPTY_REDLINE", "Redline body cannot be empty")
	}
	return &Redline{
		BaseEntity: shared.NewBaseEntity(),
		ContractID: contractID,
		Label:      label,
		HTML:       html,
		Insertions: insertions,
		Deletions:  deletions,
		Unchanged:  unchanged,
	}, nil
}

// HasChanges reports whether the redline contains any edits
func (r *Redline) HasChanges() bool {
	return r.Insertions > 0 || r.Deletions > 0
}

// AttachArtifact records the storage key of a rendered artifact
func (r *Redline) AttachArtifact(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_ARTIFACT_KEY", "Artifact key cannot be empty")
	}
	r.ArtifactKey = key
	r.Touch()
	return nil
}
