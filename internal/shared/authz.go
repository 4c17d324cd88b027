package shared

// Permissions checked by route guards.
const (
	PermPlatformView  = "platform.view"
	PermCompaniesView = "companies.view"
	PermAuditView     = "audit.view"

	PermDashboardView   = "dashboard.view"
	PermDashboardManage = "dashboard.manage"
	PermDashboardExport = "dashboard.export"

	PermSalesView      = "sales.view"
	PermSalesEdit      = "sales.edit"
	PermSalesDelete    = "sales.delete"
	PermPaymentsRecord = "payments.record"

	PermProductsView = "products.view"
	PermProductsEdit = "products.edit"

	PermSwapsView = "swaps.view"
	PermSwapsEdit = "swaps.edit"

	PermRepairsView = "repairs.view"
	PermRepairsEdit = "repairs.edit"

	PermBackupsView     = "backups.view"
	PermBackupsManage   = "backups.manage"
	PermBackupsSchedule = "backups.schedule"
)

// ManagerScopes lists the permissions of a company manager.
func ManagerScopes() []string {
	return []string{
		PermDashboardView,
		PermDashboardManage,
		PermDashboardExport,
		PermSalesView,
		PermSalesEdit,
		PermSalesDelete,
		PermPaymentsRecord,
		PermProductsView,
		PermProductsEdit,
		PermSwapsView,
		PermSwapsEdit,
		PermRepairsView,
		PermRepairsEdit,
		PermBackupsView,
		PermBackupsManage,
	}
}

// CashierScopes lists the permissions of a cashier.
func CashierScopes() []string {
	return []string{
		PermSalesView,
		PermPaymentsRecord,
		PermProductsView,
		PermSwapsView,
		PermRepairsView,
		PermRepairsEdit,
	}
}

// AdminScopes lists every permission; system admins hold all of them.
func AdminScopes() []string {
	return append([]string{
		PermPlatformView,
		PermCompaniesView,
		PermAuditView,
		PermBackupsSchedule,
	}, ManagerScopes()...)
}

// RoleScopes returns the permissions granted to role.
func RoleScopes(role string) []string {
	switch role {
	case RoleSystemAdmin:
		return AdminScopes()
	case RoleManager:
		return ManagerScopes()
	case RoleCashier:
		return CashierScopes()
	default:
		return nil
	}
}
