package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/identity"
	"github.com/marsops/backend/internal/infrastructure/auth"
)

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest carries a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

// LoginResponse is returned on successful authentication
type LoginResponse struct {
	User   UserResponse    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=8,max=128"`
	DisplayName string     `json:"display_name" binding:"omitempty,max=200"`
	RoleID      *uuid.UUID `json:"role_id"`
}

// UpdateUserRequest represents a request to update a user
type UpdateUserRequest struct {
	DisplayName *string    `json:"display_name" binding:"omitempty,max=200"`
	RoleID      *uuid.UUID `json:"role_id"`
	ClearRole   bool       `json:"clear_role"`
}

// ResetPasswordRequest represents an admin password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	Status      string     `json:"status"`
	RoleID      *uuid.UUID `json:"role_id,omitempty"`
	RoleName    string     `json:"role_name,omitempty"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserListFilter represents filter options for user queries
type UserListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active locked deactivated"`
	RoleID   string `form:"role_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CreateRoleRequest represents a request to create a role
type CreateRoleRequest struct {
	Name          string   `json:"name" binding:"required,max=100"`
	Description   string   `json:"description" binding:"omitempty,max=500"`
	IsAdmin       bool     `json:"is_admin"`
	DashboardKeys []string `json:"dashboard_keys"`
}

// UpdateRoleRequest represents a request to update a role
type UpdateRoleRequest struct {
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsAdmin     *bool   `json:"is_admin"`
}

// RoleResponse represents a role in API responses
type RoleResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	IsAdmin       bool      `json:"is_admin"`
	DashboardKeys []string  `json:"dashboard_keys"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateDashboardRequest represents a new dashboard catalog entry
type CreateDashboardRequest struct {
	Key       string `json:"key" binding:"required,max=100"`
	Title     string `json:"title" binding:"required,max=200"`
	Path      string `json:"path" binding:"required,max=200,startswith=/"`
	SortOrder int    `json:"sort_order"`
}

// UpdateDashboardRequest represents a catalog entry update
type UpdateDashboardRequest struct {
	Title     *string `json:"title" binding:"omitempty,max=200"`
	Path      *string `json:"path" binding:"omitempty,max=200,startswith=/"`
	SortOrder *int    `json:"sort_order"`
	Enabled   *bool   `json:"enabled"`
}

// DashboardResponse represents a catalog entry in API responses
type DashboardResponse struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	SortOrder int       `json:"sort_order"`
	Enabled   bool      `json:"enabled"`
}

// SetOverrideRequest represents a per-user dashboard access exception
type SetOverrideRequest struct {
	DashboardKey string `json:"dashboard_key" binding:"required,max=100"`
	Mode         string `json:"mode" binding:"required,oneof=ALLOW DENY"`
	Reason       string `json:"reason" binding:"omitempty,max=500"`
}

// OverrideResponse represents an override in API responses
type OverrideResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	DashboardKey string    `json:"dashboard_key"`
	Mode         string    `json:"mode"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToUserResponse converts a domain user to a response DTO
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Status:      string(u.Status),
		RoleID:      u.RoleID,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToUserResponses converts a slice of domain users
func ToUserResponses(users []identity.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return out
}

// ToRoleResponse converts a domain role to a response DTO
func ToRoleResponse(r *identity.Role) RoleResponse {
	keys := r.DashboardKeys
	if keys == nil {
		keys = []string{}
	}
	return RoleResponse{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		IsAdmin:       r.IsAdmin,
		DashboardKeys: keys,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ToRoleResponses converts a slice of domain roles
func ToRoleResponses(roles []identity.Role) []RoleResponse {
	out := make([]RoleResponse, len(roles))
	for i := range roles {
		out[i] = ToRoleResponse(&roles[i])
	}
	return out
}

// ToDashboardResponse converts a catalog entry to a response DTO
func ToDashboardResponse(d *identity.Dashboard) DashboardResponse {
	return DashboardResponse{
		ID:        d.ID,
		Key:       d.Key,
		Title:     d.Title,
		Path:      d.Path,
		SortOrder: d.SortOrder,
		Enabled:   d.Enabled,
	}
}

// ToDashboardResponses converts a slice of catalog entries
func ToDashboardResponses(items []identity.Dashboard) []DashboardResponse {
	out := make([]DashboardResponse, len(items))
	for i := range items {
		out[i] = ToDashboardResponse(&items[i])
	}
	return out
}

// ToOverrideResponse converts an override to a response DTO
func ToOverrideResponse(o *identity.DashboardOverride) OverrideResponse {
	return OverrideResponse{
		ID:           o.ID,
		UserID:       o.UserID,
		DashboardKey: o.DashboardKey,
		Mode:         string(o.Mode),
		Reason:       o.Reason,
		CreatedAt:    o.CreatedAt,
	}
}

// ToOverrideResponses converts a slice of overrides
func ToOverrideResponses(items []identity.DashboardOverride) []OverrideResponse {
	out := make([]OverrideResponse, len(items))
	for i := range items {
		out[i] = ToOverrideResponse(&items[i])
	}
	return out
}
