package identity

import (
	"strings"

	"github.com/marsops/backend/internal/domain/shared"
)

// Role groups users and carries the default set of dashboards they can see
type Role struct {
	shared.BaseAggregateRoot
	Name          string   `gorm:"size:100;not null;uniqueIndex"`
	Description   string   `gorm:"size:500"`
	IsAdmin       bool     // Admins see every dashboard regardless of grants
	DashboardKeys []string `gorm:"serializer:json"`
}

// NewRole creates a new role
func NewRole(name, description string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Role name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Role name cannot exceed 100 characters")
	}

	return &Role{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       strings.TrimSpace(description),
		DashboardKeys:     make([]string, 0),
	}, nil
}

// GrantDashboard adds a dashboard to the role's default set
func (r *Role) GrantDashboard(key string) error {
	key = normalizeDashboardKey(key)
	if key == "" {
		return shared.NewDomainError("INVALID_DASHBOARD_KEY", "Dashboard key cannot be empty")
	}

	for _, k := range r.DashboardKeys {
		if k == key {
			return shared.NewDomainError("ALREADY_GRANTED", "Role already has this dashboard")
		}
	}

	r.DashboardKeys = append(r.DashboardKeys, key)
	r.Touch()
	r.IncrementVersion()

	return nil
}

// RevokeDashboard removes a dashboard from the role's default set
func (r *Role) RevokeDashboard(key string) error {
	key = normalizeDashboardKey(key)

	kept := make([]string, 0, len(r.DashboardKeys))
	found := false
	for _, k := range r.DashboardKeys {
		if k == key {
			found = true
			continue
		}
		kept = append(kept, k)
	}
	if !found {
		return shared.NewDomainError("NOT_GRANTED", "Role does not have this dashboard")
	}

	r.DashboardKeys = kept
	r.Touch()
	r.IncrementVersion()

	return nil
}

// HasDashboard reports whether the role's default set includes the key
func (r *Role) HasDashboard(key string) bool {
	key = normalizeDashboardKey(key)
	for _, k := range r.DashboardKeys {
		if k == key {
			return true
		}
	}
	return false
}

func normalizeDashboardKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
