package rbac

import "fmt"

// ConfigurationError reports a role with no row in the permission table.
// This is a static data defect, not a user error: Validate surfaces it at
// startup so it never has to be handled per call.
type ConfigurationError struct {
	Role Role
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rbac: role %q has no permission table entry", e.Role)
}

// Resolver answers permission lookups against the static table. It is
// immutable after construction and safe for concurrent use.
type Resolver struct {
	table map[Role]PermissionSet
}

// NewResolver constructs a Resolver over a private copy of the table.
func NewResolver() *Resolver {
	table := make(map[Role]PermissionSet, len(permissionTable))
	for role, perms := range permissionTable {
		table[role] = perms
	}
	return &Resolver{table: table}
}

// Validate checks that every enumerated role has a table row. It is meant
// to run once at process start; a failure is fatal.
func (r *Resolver) Validate() error {
	for _, role := range Roles() {
		if _, ok := r.table[role]; !ok {
			return &ConfigurationError{Role: role}
		}
	}
	return nil
}

// GetPermissions returns the PermissionSet for the given role. The lookup is
// total over the enumeration; a missing row is a ConfigurationError.
func (r *Resolver) GetPermissions(role Role) (PermissionSet, error) {
	perms, ok := r.table[role]
	if !ok {
		return PermissionSet{}, &ConfigurationError{Role: role}
	}
	return perms, nil
}

// HasPermission reports whether the role grants the capability. An empty
// role (no user context) and an unknown role both simply yield false:
// absence of permission is a normal outcome, never an error.
func (r *Resolver) HasPermission(role Role, capability Capability) bool {
	if role == "" {
		return false
	}
	perms, ok := r.table[role]
	if !ok {
		return false
	}
	return perms.Allows(capability)
}
