package users

import (
	"errors"
	"time"

	"github.com/helios-erp/helios-erp/internal/rbac"
)

// User is an employee account. PasswordHash never leaves the package
// boundary in JSON.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Name             string    `json:"name"`
	Role             rbac.Role `json:"role"`
	BranchID         int64     `json:"branch_id,omitempty"`
	CanOverridePrice bool      `json:"can_override_price"`
	IsActive         bool      `json:"is_active"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

var (
	// ErrBadRole indicates a role outside the closed role set.
	ErrBadRole = errors.New("users: unknown role")
	// ErrWeakPassword indicates a password under the minimum length.
	ErrWeakPassword = errors.New("users: password must be at least 8 characters")
)
