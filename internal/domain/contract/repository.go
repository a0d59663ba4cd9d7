package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// StatusCount is an aggregate row used by the insights endpoints
type StatusCount struct {
	Status ApprovalStatus
	Count  int64
}

// ContractRepository defines persistence operations for contracts
type ContractRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	FindByNumber(ctx context.Context, number string) (*Contract, error)
	FindByEnvelopeID(ctx context.Context, envelopeID string) (*Contract, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Contract, error)
	FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]Contract, error)
	Save(ctx context.Context, contract *Contract) error
	// SaveWithLock updates an existing contract only if its version still
	// matches the stored row, bumping the version on success.
	SaveWithLock(ctx context.Context, contract *Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// ReviewRepository defines persistence operations for contract reviews
type ReviewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ContractReview, error)
	FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) ([]ContractReview, error)
	Save(ctx context.Context, review *ContractReview) error
}

// RedlineRepository defines persistence operations for redline artifacts
type RedlineRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Redline, error)
	FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) ([]Redline, error)
	Save(ctx context.Context, redline *Redline) error
	Delete(ctx context.Context, id uuid.UUID) error
}
