package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/identity"
	"github.com/marsops/backend/internal/domain/shared"
)

// RoleService handles role administration
type RoleService struct {
	roleRepo      identity.RoleRepository
	dashboardRepo identity.DashboardRepository
}

// NewRoleService creates a new role service
func NewRoleService(roleRepo identity.RoleRepository, dashboardRepo identity.DashboardRepository) *RoleService {
	return &RoleService{
		roleRepo:      roleRepo,
		dashboardRepo: dashboardRepo,
	}
}

// Create creates a new role with an optional initial dashboard set
func (s *RoleService) Create(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	if existing, err := s.roleRepo.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A role with this name already exists")
	}

	role, err := identity.NewRole(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	role.IsAdmin = req.IsAdmin

	for _, key := range req.DashboardKeys {
		if _, err := s.dashboardRepo.FindByKey(ctx, key); err != nil {
			return nil, shared.NewDomainError("UNKNOWN_DASHBOARD", "Dashboard key is not in the catalog: "+key)
		}
		if err := role.GrantDashboard(key); err != nil {
			return nil, err
		}
	}

	if err := s.roleRepo.Save(ctx, role); err != nil {
		return nil, err
	}

	resp := ToRoleResponse(role)
	return &resp, nil
}

// GetByID retrieves a role by ID
func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRoleResponse(role)
	return &resp, nil
}

// List retrieves all roles
func (s *RoleService) List(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 100, OrderBy: "name", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}
	return ToRoleResponses(roles), nil
}

// Update updates a role's description and admin flag
func (s *RoleService) Update(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		role.Description = *req.Description
		role.Touch()
		role.IncrementVersion()
	}
	if req.IsAdmin != nil {
		role.IsAdmin = *req.IsAdmin
		role.Touch()
		role.IncrementVersion()
	}

	if err := s.roleRepo.Save(ctx, role); err != nil {
		return nil, err
	}

	resp := ToRoleResponse(role)
	return &resp, nil
}

// GrantDashboard adds a dashboard to the role's default set
func (s *RoleService) GrantDashboard(ctx context.Context, id uuid.UUID, key string) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.dashboardRepo.FindByKey(ctx, key); err != nil {
		return nil, shared.NewDomainError("UNKNOWN_DASHBOARD", "Dashboard key is not in the catalog: "+key)
	}
	if err := role.GrantDashboard(key); err != nil {
		return nil, err
	}
	if err := s.roleRepo.Save(ctx, role); err != nil {
		return nil, err
	}
	resp := ToRoleResponse(role)
	return &resp, nil
}

// RevokeDashboard removes a dashboard from the role's default set
func (s *RoleService) RevokeDashboard(ctx context.Context, id uuid.UUID, key string) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := role.RevokeDashboard(key); err != nil {
		return nil, err
	}
	if err := s.roleRepo.Save(ctx, role); err != nil {
		return nil, err
	}
	resp := ToRoleResponse(role)
	return &resp, nil
}

// Delete removes a role
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.roleRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.roleRepo.Delete(ctx, id)
}
