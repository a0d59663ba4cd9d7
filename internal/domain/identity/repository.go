package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]User, error)
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RoleRepository defines persistence operations for roles
type RoleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Role, error)
	Save(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DashboardRepository defines persistence for the dashboard catalog
type DashboardRepository interface {
	FindByKey(ctx context.Context, key string) (*Dashboard, error)
	FindAll(ctx context.Context) ([]Dashboard, error)
	Save(ctx context.Context, dashboard *Dashboard) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OverrideRepository defines persistence for per-user dashboard overrides
type OverrideRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]DashboardOverride, error)
	Save(ctx context.Context, override *DashboardOverride) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserAndKey(ctx context.Context, userID uuid.UUID, key string) error
}
