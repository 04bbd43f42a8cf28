// Package rbac implements the static role/permission model: a closed Role
// enumeration, a fixed-shape PermissionSet per role, and a resolver that
// answers capability checks. The package performs no I/O and never logs;
// callers own all user-facing messaging.
package rbac

// Role is a closed enumeration of user categories. A role is assigned once
// per user account and never inferred.
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleBranchManager    Role = "branch_manager"
	RoleSalesManager     Role = "sales_manager"
	RoleInventoryManager Role = "inventory_manager"
	RoleCashier          Role = "cashier"
	RolePartnerManager   Role = "partner_manager"
	RoleInstaller        Role = "installer"
)

// Roles returns every value of the Role enumeration.
func Roles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleBranchManager,
		RoleSalesManager,
		RoleInventoryManager,
		RoleCashier,
		RolePartnerManager,
		RoleInstaller,
	}
}

// ParseRole maps a stored role name onto the enumeration.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	switch role {
	case RoleSuperAdmin, RoleBranchManager, RoleSalesManager, RoleInventoryManager,
		RoleCashier, RolePartnerManager, RoleInstaller:
		return role, true
	}
	return "", false
}

// Capability is a single named boolean authorization flag.
type Capability string

const (
	CapViewDashboard       Capability = "view_dashboard"
	CapManageProducts      Capability = "manage_products"
	CapManageInventory     Capability = "manage_inventory"
	CapCreateSales         Capability = "create_sales"
	CapOverridePrices      Capability = "override_prices"
	CapManagePartners      Capability = "manage_partners"
	CapManageBarter        Capability = "manage_barter"
	CapManageInstallations Capability = "manage_installations"
	CapManageBranches      Capability = "manage_branches"
	CapViewReports         Capability = "view_reports"
	CapManageUsers         Capability = "manage_users"
	CapApproveShortages    Capability = "approve_shortages"
	CapUsePOS              Capability = "use_pos"
)

// Capabilities returns every named capability.
func Capabilities() []Capability {
	return []Capability{
		CapViewDashboard,
		CapManageProducts,
		CapManageInventory,
		CapCreateSales,
		CapOverridePrices,
		CapManagePartners,
		CapManageBarter,
		CapManageInstallations,
		CapManageBranches,
		CapViewReports,
		CapManageUsers,
		CapApproveShortages,
		CapUsePOS,
	}
}

// PermissionSet is the fixed-shape record of capabilities granted to a role.
// One set exists per role and is never mutated at runtime.
type PermissionSet struct {
	ViewDashboard       bool `json:"view_dashboard"`
	ManageProducts      bool `json:"manage_products"`
	ManageInventory     bool `json:"manage_inventory"`
	CreateSales         bool `json:"create_sales"`
	OverridePrices      bool `json:"override_prices"`
	ManagePartners      bool `json:"manage_partners"`
	ManageBarter        bool `json:"manage_barter"`
	ManageInstallations bool `json:"manage_installations"`
	ManageBranches      bool `json:"manage_branches"`
	ViewReports         bool `json:"view_reports"`
	ManageUsers         bool `json:"manage_users"`
	ApproveShortages    bool `json:"approve_shortages"`
	UsePOS              bool `json:"use_pos"`
}

// Allows reports whether the set grants the named capability. Unknown
// capability names are simply not granted.
func (p PermissionSet) Allows(c Capability) bool {
	switch c {
	case CapViewDashboard:
		return p.ViewDashboard
	case CapManageProducts:
		return p.ManageProducts
	case CapManageInventory:
		return p.ManageInventory
	case CapCreateSales:
		return p.CreateSales
	case CapOverridePrices:
		return p.OverridePrices
	case CapManagePartners:
		return p.ManagePartners
	case CapManageBarter:
		return p.ManageBarter
	case CapManageInstallations:
		return p.ManageInstallations
	case CapManageBranches:
		return p.ManageBranches
	case CapViewReports:
		return p.ViewReports
	case CapManageUsers:
		return p.ManageUsers
	case CapApproveShortages:
		return p.ApproveShortages
	case CapUsePOS:
		return p.UsePOS
	}
	return false
}
