package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/identity"
	"github.com/marsops/backend/internal/domain/shared"
)

// DashboardService manages the dashboard catalog and resolves per-user access
type DashboardService struct {
	dashboardRepo identity.DashboardRepository
	overrideRepo  identity.OverrideRepository
	userRepo      identity.UserRepository
	roleRepo      identity.RoleRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	dashboardRepo identity.DashboardRepository,
	overrideRepo identity.OverrideRepository,
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
) *DashboardService {
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		overrideRepo:  overrideRepo,
		userRepo:      userRepo,
		roleRepo:      roleRepo,
	}
}

// Create adds a dashboard to the catalog
func (s *DashboardService) Create(ctx context.Context, req CreateDashboardRequest) (*DashboardResponse, error) {
	if existing, err := s.dashboardRepo.FindByKey(ctx, normalizeKey(req.Key)); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A dashboard with this key already exists")
	}

	dashboard, err := identity.NewDashboard(req.Key, req.Title, req.Path, req.SortOrder)
	if err != nil {
		return nil, err
	}
	if err := s.dashboardRepo.Save(ctx, dashboard); err != nil {
		return nil, err
	}

	resp := ToDashboardResponse(dashboard)
	return &resp, nil
}

// List returns the full catalog, disabled entries included
func (s *DashboardService) List(ctx context.Context) ([]DashboardResponse, error) {
	catalog, err := s.dashboardRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToDashboardResponses(catalog), nil
}

// Update changes a catalog entry
func (s *DashboardService) Update(ctx context.Context, key string, req UpdateDashboardRequest) (*DashboardResponse, error) {
	dashboard, err := s.dashboardRepo.FindByKey(ctx, normalizeKey(key))
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		dashboard.Title = *req.Title
		dashboard.Touch()
	}
	if req.Path != nil {
		dashboard.Path = *req.Path
		dashboard.Touch()
	}
	if req.SortOrder != nil {
		dashboard.SortOrder = *req.SortOrder
		dashboard.Touch()
	}
	if req.Enabled != nil {
		if *req.Enabled {
			dashboard.Enable()
		} else {
			dashboard.Disable()
		}
	}

	if err := s.dashboardRepo.Save(ctx, dashboard); err != nil {
		return nil, err
	}

	resp := ToDashboardResponse(dashboard)
	return &resp, nil
}

// Delete removes a catalog entry
func (s *DashboardService) Delete(ctx context.Context, key string) error {
	dashboard, err := s.dashboardRepo.FindByKey(ctx, normalizeKey(key))
	if err != nil {
		return err
	}
	return s.dashboardRepo.Delete(ctx, dashboard.ID)
}

// ForUser resolves the dashboards a user can see: the role's defaults with
// per-user overrides applied, restricted to enabled catalog entries.
func (s *DashboardService) ForUser(ctx context.Context, userID uuid.UUID) ([]DashboardResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var role *identity.Role
	if user.RoleID != nil {
		role, err = s.roleRepo.FindByID(ctx, *user.RoleID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	overrides, err := s.overrideRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.dashboardRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	effective := identity.EffectiveDashboards(role, overrides, catalog)
	return ToDashboardResponses(effective), nil
}

// ListOverrides returns a user's access exceptions
func (s *DashboardService) ListOverrides(ctx context.Context, userID uuid.UUID) ([]OverrideResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	overrides, err := s.overrideRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToOverrideResponses(overrides), nil
}

// SetOverride puts a per-user access exception, replacing any existing
// override for the same dashboard.
func (s *DashboardService) SetOverride(ctx context.Context, userID uuid.UUID, req SetOverrideRequest) (*OverrideResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	key := normalizeKey(req.DashboardKey)
	if _, err := s.dashboardRepo.FindByKey(ctx, key); err != nil {
		return nil, shared.NewDomainError("UNKNOWN_DASHBOARD", "Dashboard key is not in the catalog: "+key)
	}

	override, err := identity.NewDashboardOverride(userID, key, identity.OverrideMode(req.Mode), req.Reason)
	if err != nil {
		return nil, err
	}

	if err := s.overrideRepo.DeleteByUserAndKey(ctx, userID, override.DashboardKey); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := s.overrideRepo.Save(ctx, override); err != nil {
		return nil, err
	}

	resp := ToOverrideResponse(override)
	return &resp, nil
}

// RemoveOverride deletes a user's access exception for one dashboard
func (s *DashboardService) RemoveOverride(ctx context.Context, userID uuid.UUID, key string) error {
	return s.overrideRepo.DeleteByUserAndKey(ctx, userID, normalizeKey(key))
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
