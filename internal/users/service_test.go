package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
)

type memoryRepo struct {
	byID       map[int64]User
	byUsername map[string]int64
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]User), byUsername: make(map[string]int64)}
}

func (m *memoryRepo) List(_ context.Context, _, _ int) ([]User, int, error) {
	var out []User
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := m.byID[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) GetByUsername(_ context.Context, username string) (User, error) {
	id, ok := m.byUsername[username]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memoryRepo) Create(_ context.Context, user User) (User, error) {
	if _, exists := m.byUsername[user.Username]; exists {
		return User{}, httpx.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = user
	m.byUsername[user.Username] = user.ID
	return user, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, user User) error {
	existing, ok := m.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = user.Name
	existing.Role = user.Role
	existing.BranchID = user.BranchID
	existing.CanOverridePrice = user.CanOverridePrice
	existing.IsActive = user.IsActive
	m.byID[id] = existing
	return nil
}

func (m *memoryRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	existing, ok := m.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.PasswordHash = hash
	m.byID[id] = existing
	return nil
}

func (m *memoryRepo) Deactivate(_ context.Context, id int64) error {
	existing, ok := m.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.IsActive = false
	m.byID[id] = existing
	return nil
}

func create(t *testing.T, svc *Service) User {
	t.Helper()
	user, err := svc.Create(context.Background(), CreateInput{
		Username: "anna.k",
		Name:     "Anna K",
		Password: "correct horse",
		Role:     "sales_manager",
	})
	require.NoError(t, err)
	return user
}

func TestCreateHashesPassword(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	user := create(t, svc)

	require.Equal(t, rbac.RoleSalesManager, user.Role)
	require.True(t, user.IsActive)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "correct horse", user.PasswordHash)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Create(context.Background(), CreateInput{Username: "x", Password: "correct horse", Role: "sysadmin"})
	require.ErrorIs(t, err, ErrBadRole)

	_, err = svc.Create(context.Background(), CreateInput{Username: "x", Password: "short", Role: "cashier"})
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	created := create(t, svc)

	user, err := svc.Authenticate(context.Background(), "anna.k", "correct horse")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(context.Background(), "anna.k", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsDeactivated(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	user := create(t, svc)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID, 1))

	_, err := svc.Authenticate(context.Background(), "anna.k", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSetPassword(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	user := create(t, svc)

	require.ErrorIs(t, svc.SetPassword(context.Background(), user.ID, "short", 1), ErrWeakPassword)
	require.NoError(t, svc.SetPassword(context.Background(), user.ID, "new password", 1))

	_, err := svc.Authenticate(context.Background(), "anna.k", "new password")
	require.NoError(t, err)
}
