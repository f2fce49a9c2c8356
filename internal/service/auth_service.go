package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a requester account. Agent and admin accounts are
// created by an admin through CreateAccount.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	return s.createWithToken(ctx, name, email, password, domain.RoleUser)
}

// CreateAccount lets an admin provision an account with an explicit role.
// The system role is reserved for the startup-provisioned actor.
func (s *AuthService) CreateAccount(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAgent && role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(role)})
	}
	user, _, _, err := s.createWithToken(ctx, name, email, password, role)
	return user, err
}

// Login authenticates and issues a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.Active || user.Role == domain.RoleSystem {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Bootstrap provisions the system actor and, when configured, a first
// admin account for fresh installs.
func (s *AuthService) Bootstrap(ctx context.Context, adminEmail, adminPassword string) (*domain.User, error) {
	system, err := s.users.EnsureSystemUser(ctx)
	if err != nil {
		return nil, err
	}

	if adminEmail != "" && adminPassword != "" {
		if _, err := s.users.GetByEmail(ctx, adminEmail); errors.Is(err, pgx.ErrNoRows) {
			if _, err := s.CreateAccount(ctx, "Administrator", adminEmail, adminPassword, domain.RoleAdmin); err != nil {
				return nil, err
			}
			s.logger.Info("seeded admin account", zap.String("email", adminEmail))
		} else if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return system, nil
}

func (s *AuthService) createWithToken(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(password) < minPasswordLength {
		return nil, "", time.Time{}, apperrors.NewValidationError("password too short", map[string]any{"min": minPasswordLength})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}
