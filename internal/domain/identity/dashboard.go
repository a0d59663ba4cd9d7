package identity

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/shared"
)

// Dashboard is a navigable page of the application. The catalog is stored
// so roles and per-user overrides can reference pages by a stable key.
type Dashboard struct {
	shared.BaseEntity
	Key       string `gorm:"size:100;not null;uniqueIndex"`
	Title     string `gorm:"size:200;not null"`
	Path      string `gorm:"size:200;not null"`
	SortOrder int    `gorm:"not null;default:0"`
	Enabled   bool   `gorm:"not null;default:true"`
}

// NewDashboard creates a catalog entry for a page
func NewDashboard(key, title, path string, sortOrder int) (*Dashboard, error) {
	key = normalizeDashboardKey(key)
	if key == "" {
		return nil, shared.NewDomainError("INVALID_DASHBOARD_KEY", "Dashboard key cannot be empty")
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Dashboard title cannot be empty")
	}
	if !strings.HasPrefix(path, "/") {
		return nil, shared.NewDomainError("INVALID_PATH", "Dashboard path must start with /")
	}

	return &Dashboard{
		BaseEntity: shared.NewBaseEntity(),
		Key:        key,
		Title:      strings.TrimSpace(title),
		Path:       path,
		SortOrder:  sortOrder,
		Enabled:    true,
	}, nil
}

// Disable hides the dashboard from everyone without deleting grants
func (d *Dashboard) Disable() {
	d.Enabled = false
	d.Touch()
}

// Enable makes the dashboard visible again
func (d *Dashboard) Enable() {
	d.Enabled = true
	d.Touch()
}

// OverrideMode says whether a per-user override adds or removes access
type OverrideMode string

const (
	OverrideAllow OverrideMode = "ALLOW"
	OverrideDeny  OverrideMode = "DENY"
)

// DashboardOverride is a per-user exception to the role's default set.
// ALLOW grants a dashboard the role does not include, DENY hides one it does.
type DashboardOverride struct {
	shared.BaseEntity
	UserID       uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_override_user_key"`
	DashboardKey string       `gorm:"size:100;not null;uniqueIndex:idx_override_user_key"`
	Mode         OverrideMode `gorm:"size:10;not null"`
	Reason       string       `gorm:"size:500"`
}

// NewDashboardOverride creates a per-user access exception
func NewDashboardOverride(userID uuid.UUID, dashboardKey string, mode OverrideMode, reason string) (*DashboardOverride, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER_ID", "User ID cannot be empty")
	}
	dashboardKey = normalizeDashboardKey(dashboardKey)
	if dashboardKey == "" {
		return nil, shared.NewDomainError("INVALID_DASHBOARD_KEY", "Dashboard key cannot be empty")
	}
	if mode != OverrideAllow && mode != OverrideDeny {
		return nil, shared.NewDomainError("INVALID_MODE", "Override mode must be ALLOW or DENY")
	}

	return &DashboardOverride{
		BaseEntity:   shared.NewBaseEntity(),
		UserID:       userID,
		DashboardKey: dashboardKey,
		Mode:         mode,
		Reason:       strings.TrimSpace(reason),
	}, nil
}

// EffectiveDashboards resolves the set of dashboards a user can see: the
// role's defaults with overrides applied, restricted to enabled catalog
// entries and ordered by sort order. Admin roles see the whole catalog and
// DENY overrides still apply to them.
func EffectiveDashboards(role *Role, overrides []DashboardOverride, catalog []Dashboard) []Dashboard {
	allowed := make(map[string]bool)
	if role != nil {
		if role.IsAdmin {
			for _, d := range catalog {
				allowed[d.Key] = true
			}
		} else {
			for _, k := range role.DashboardKeys {
				allowed[k] = true
			}
		}
	}

	for _, o := range overrides {
		switch o.Mode {
		case OverrideAllow:
			allowed[o.DashboardKey] = true
		case OverrideDeny:
			delete(allowed, o.DashboardKey)
		}
	}

	result := make([]Dashboard, 0, len(allowed))
	for _, d := range catalog {
		if d.Enabled && allowed[d.Key] {
			result = append(result, d)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SortOrder < result[j].SortOrder
	})

	return result
}
