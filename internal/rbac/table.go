package rbac

// permissionTable is the single source of truth for role capabilities.
// Every row is authored in full, field by field: no row is derived from,
// or shares structure with, another. Editing one role must never change
// what a different role can do.
var permissionTable = map[Role]PermissionSet{
	RoleSuperAdmin: {
		ViewDashboard:       true,
		ManageProducts:      true,
		ManageInventory:     true,
		CreateSales:         true,
		OverridePrices:      true,
		ManagePartners:      true,
		ManageBarter:        true,
		ManageInstallations: true,
		ManageBranches:      true,
		ViewReports:         true,
		ManageUsers:         true,
		ApproveShortages:    true,
		UsePOS:              true,
	},
	RoleBranchManager: {
		ViewDashboard:       true,
		ManageProducts:      false,
		ManageInventory:     true,
		CreateSales:         true,
		OverridePrices:      true,
		ManagePartners:      false,
		ManageBarter:        false,
		ManageInstallations: true,
		ManageBranches:      false,
		ViewReports:         true,
		ManageUsers:         false,
		ApproveShortages:    true,
		UsePOS:              true,
	},
	RoleSalesManager: {
		ViewDashboard:       true,
		ManageProducts:      false,
		ManageInventory:     false,
		CreateSales:         true,
		OverridePrices:      true,
		ManagePartners:      false,
		ManageBarter:        false,
		ManageInstallations: false,
		ManageBranches:      false,
		ViewReports:         true,
		ManageUsers:         false,
		ApproveShortages:    false,
		UsePOS:              true,
	},
	RoleInventoryManager: {
		ViewDashboard:       true,
		ManageProducts:      true,
		ManageInventory:     true,
		CreateSales:         false,
		OverridePrices:      false,
		ManagePartners:      false,
		ManageBarter:        false,
		ManageInstallations: false,
		ManageBranches:      false,
		ViewReports:         true,
		ManageUsers:         false,
		ApproveShortages:    true,
		UsePOS:              false,
	},
	RoleCashier: {
		ViewDashboard:       false,
		ManageProducts:      false,
		ManageInventory:     false,
		CreateSales:         false,
		OverridePrices:      false,
		ManagePartners:      false,
		ManageBarter:        false,
		ManageInstallations: false,
		ManageBranches:      false,
		ViewReports:         false,
		ManageUsers:         false,
		ApproveShortages:    false,
		UsePOS:              true,
	},
	RolePartnerManager: {
		ViewDashboard:       true,
		ManageProducts:      false,
		ManageInventory:     false,
		CreateSales:         false,
		OverridePrices:      false,
		ManagePartners:      true,
		ManageBarter:        true,
		ManageInstallations: false,
		ManageBranches:      false,
		ViewReports:         true,
		ManageUsers:         false,
		ApproveShortages:    false,
		UsePOS:              false,
	},
	RoleInstaller: {
		ViewDashboard:       true,
		ManageProducts:      false,
		ManageInventory:     false,
		CreateSales:         false,
		OverridePrices:      false,
		ManagePartners:      false,
		ManageBarter:        false,
		ManageInstallations: true,
		ManageBranches:      false,
		ViewReports:         false,
		ManageUsers:         false,
		ApproveShortages:    false,
		UsePOS:              false,
	},
}
