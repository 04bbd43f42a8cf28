package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateTableComplete(t *testing.T) {
	resolver := NewResolver()
	require.NoError(t, resolver.Validate())
}

func TestGetPermissionsTotalOverEnumeration(t *testing.T) {
	resolver := NewResolver()
	for _, role := range Roles() {
		_, err := resolver.GetPermissions(role)
		require.NoError(t, err, "role %s must have a table row", role)
	}
}

func TestGetPermissionsUnknownRole(t *testing.T) {
	resolver := NewResolver()
	_, err := resolver.GetPermissions(Role("intern"))
	require.Error(t, err)

	var confErr *ConfigurationError
	require.True(t, errors.As(err, &confErr))
	require.Equal(t, Role("intern"), confErr.Role)
}

func TestHasPermissionAbsentRole(t *testing.T) {
	resolver := NewResolver()
	for _, capability := range Capabilities() {
		require.False(t, resolver.HasPermission("", capability))
	}
}

func TestHasPermissionUnknownRole(t *testing.T) {
	resolver := NewResolver()
	require.False(t, resolver.HasPermission(Role("intern"), CapUsePOS))
}

func TestSuperAdminHasEveryCapability(t *testing.T) {
	resolver := NewResolver()
	for _, capability := range Capabilities() {
		require.True(t, resolver.HasPermission(RoleSuperAdmin, capability),
			"super_admin must be granted %s", capability)
	}
}

func TestCashierIsPOSOnly(t *testing.T) {
	resolver := NewResolver()
	require.True(t, resolver.HasPermission(RoleCashier, CapUsePOS))
	require.False(t, resolver.HasPermission(RoleCashier, CapManageBranches))

	for _, capability := range Capabilities() {
		if capability == CapUsePOS {
			continue
		}
		require.False(t, resolver.HasPermission(RoleCashier, capability),
			"cashier must not be granted %s", capability)
	}
}

func TestOnlySuperAdminHasFullAccess(t *testing.T) {
	resolver := NewResolver()
	for _, role := range Roles() {
		if role == RoleSuperAdmin {
			continue
		}
		full := true
		for _, capability := range Capabilities() {
			if !resolver.HasPermission(role, capability) {
				full = false
				break
			}
		}
		require.False(t, full, "role %s must not have full access", role)
	}
}

func TestAllowsUnknownCapability(t *testing.T) {
	perms, err := NewResolver().GetPermissions(RoleSuperAdmin)
	require.NoError(t, err)
	require.False(t, perms.Allows(Capability("fly")))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("cashier")
	require.True(t, ok)
	require.Equal(t, RoleCashier, role)

	_, ok = ParseRole("")
	require.False(t, ok)

	_, ok = ParseRole("root")
	require.False(t, ok)
}
