package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// UserService coordinates account management and login.
type UserService struct {
	Base
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// UserDependencies encapsulates repo requirements for the user service.
type UserDependencies struct {
	Base
	UserRepo repository.UserRepository
}

// RegisterUserInput describes a new account.
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// NewUserService builds the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies) *UserService {
	return &UserService{
		Base:       deps.Base,
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterUser creates an account. Emails are unique, case-insensitively.
func (s *UserService) RegisterUser(ctx context.Context, actor domain.Actor, input RegisterUserInput) (*domain.User, error) {
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleRequester
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, &domain.ConflictError{
			Message: "email already registered",
			Details: map[string]any{"email": email},
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUser(input.Name, email, hash, input.Role, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, domain.AuditUserCreated, domain.AuditEntityUser, user.ID,
		nil, userSnapshot(user), user.CreatedAt))
	return user, nil
}

// Login authenticates an active user and issues an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, errorutil.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !user.Active {
		return nil, "", time.Time{}, errorutil.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errorutil.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// DeactivateUser disables an account. Existing tokens stop working because
// the auth middleware reloads the user on every request.
func (s *UserService) DeactivateUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	before := userSnapshot(user)
	if err := user.Deactivate(s.now()); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFound(err, "user", id)
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, domain.AuditUserDeactivated, domain.AuditEntityUser, user.ID,
		before, userSnapshot(user), user.UpdatedAt))
	return user, nil
}

// BootstrapAdmin creates an administrator when no user exists yet. It
// returns nil when accounts are already present.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}
	user, err := s.RegisterUser(ctx, domain.SystemActor, RegisterUserInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info("bootstrap administrator created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *UserService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func userSnapshot(u *domain.User) map[string]any {
	return map[string]any{
		"name":   u.Name,
		"email":  u.Email,
		"role":   u.Role,
		"active": u.Active,
	}
}
