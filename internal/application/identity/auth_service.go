package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/identity"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	errAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked due to repeated failed logins")
	errAccountDisabled    = shared.NewDomainError("ACCOUNT_DISABLED", "Account has been deactivated")
)

// AuthService handles login, token refresh, and password changes
type AuthService struct {
	userRepo     identity.UserRepository
	roleRepo     identity.RoleRepository
	jwtService   *auth.JWTService
	blacklist    auth.TokenBlacklist
	maxAttempts  int
	lockDuration time.Duration
	logger       *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	maxAttempts int,
	lockDuration time.Duration,
	logger *zap.Logger,
) *AuthService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockDuration <= 0 {
		lockDuration = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		jwtService:   jwtService,
		blacklist:    blacklist,
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
		logger:       logger,
	}
}

// Login authenticates a user and issues a token pair. Credential failures
// and unknown emails return the same error so callers cannot probe for
// registered accounts.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, clientIP string) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if user.Status == identity.UserStatusDeactivated {
		return nil, errAccountDisabled
	}
	if user.IsLocked() {
		return nil, errAccountLocked
	}

	if !user.VerifyPassword(req.Password) {
		locked := user.RecordLoginFailure(s.maxAttempts, s.lockDuration)
		if err := s.userRepo.Save(ctx, user); err != nil {
			s.logger.Error("failed to record login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("account locked after repeated failures",
				zap.String("email", email),
				zap.String("client_ip", clientIP))
			return nil, errAccountLocked
		}
		return nil, errInvalidCredentials
	}

	// A correct password on a locked account with an expired lock window
	// reactivates it.
	if user.Status == identity.UserStatusLocked {
		if err := user.Activate(); err != nil {
			return nil, err
		}
	}

	user.RecordLoginSuccess(clientIP)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	role, err := s.loadRole(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		RoleID:  user.RoleID,
		IsAdmin: role != nil && role.IsAdmin,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("client_ip", clientIP))

	resp := s.userWithRole(user, role)
	return &LoginResponse{User: resp, Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The used
// refresh token is blacklisted so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token is invalid or expired")
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if !revoked {
			invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAt.Time)
			if err != nil {
				return nil, err
			}
			revoked = invalidated
		}
		if revoked {
			return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token has been revoked")
		}
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token is invalid or expired")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.CanLogin() {
		return nil, errAccountDisabled
	}

	role, err := s.loadRole(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:  user.ID,
		Email:   user.Email,
		RoleID:  user.RoleID,
		IsAdmin: role != nil && role.IsAdmin,
	})
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.logger.Warn("failed to blacklist used refresh token", zap.Error(err))
		}
	}

	resp := s.userWithRole(user, role)
	return &LoginResponse{User: resp, Tokens: tokens}, nil
}

// Logout revokes the presented access token
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil || claims == nil {
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
}

// Me returns the authenticated user's profile
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, err := s.loadRole(ctx, user)
	if err != nil {
		return nil, err
	}
	resp := s.userWithRole(user, role)
	return &resp, nil
}

// ChangePassword changes the caller's password and revokes all of their
// outstanding tokens.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	if s.blacklist != nil {
		ttl := s.jwtService.GetRefreshTokenExpiration()
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), ttl); err != nil {
			s.logger.Warn("failed to revoke tokens after password change", zap.Error(err))
		}
	}

	s.logger.Info("password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) loadRole(ctx context.Context, user *identity.User) (*identity.Role, error) {
	if user.RoleID == nil {
		return nil, nil
	}
	role, err := s.roleRepo.FindByID(ctx, *user.RoleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return role, nil
}

func (s *AuthService) userWithRole(user *identity.User, role *identity.Role) UserResponse {
	resp := ToUserResponse(user)
	if role != nil {
		resp.RoleName = role.Name
		resp.IsAdmin = role.IsAdmin
	}
	return resp
}
