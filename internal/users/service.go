package users

import (
	"context"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
)

// Service manages employee accounts.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateInput describes a new account.
type CreateInput struct {
	Username         string
	Name             string
	Password         string
	Role             string
	BranchID         int64
	CanOverridePrice bool
	ActorID          int64
}

// Create hashes the password and stores the account. The role must be one of
// the closed role set.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	role, ok := rbac.ParseRole(input.Role)
	if !ok {
		return User{}, ErrBadRole
	}
	if len(input.Password) < 8 {
		return User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	created, err := s.repo.Create(ctx, User{
		Username:         input.Username,
		Name:             input.Name,
		Role:             role,
		BranchID:         input.BranchID,
		CanOverridePrice: input.CanOverridePrice,
		IsActive:         true,
		PasswordHash:     string(hash),
	})
	if err != nil {
		return User{}, err
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "users.create",
		Entity:   "user",
		EntityID: strconv.FormatInt(created.ID, 10),
		Meta:     map[string]any{"role": string(role)},
	})
	return created, nil
}

// UpdateInput describes mutable account fields. Username is immutable.
type UpdateInput struct {
	Name             string
	Role             string
	BranchID         int64
	CanOverridePrice bool
	IsActive         bool
	ActorID          int64
}

// Update changes profile, role assignment and flags.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) error {
	role, ok := rbac.ParseRole(input.Role)
	if !ok {
		return ErrBadRole
	}
	err := s.repo.Update(ctx, id, User{
		Name:             input.Name,
		Role:             role,
		BranchID:         input.BranchID,
		CanOverridePrice: input.CanOverridePrice,
		IsActive:         input.IsActive,
	})
	if err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "users.update",
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"role": string(role), "is_active": input.IsActive},
	})
	return nil
}

// SetPassword replaces an account password.
func (s *Service) SetPassword(ctx context.Context, id int64, password string, actorID int64) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "users.set_password",
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

// Authenticate checks credentials against an active account.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return User{}, shared.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// List pages through accounts.
func (s *Service) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Deactivate disables login without destroying history.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "users.deactivate",
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}
