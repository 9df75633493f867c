package auth

import "lab-inventory/internal/models"

type Permission string

const (
	PermViewDashboard        Permission = "view_dashboard"
	PermViewSupplies         Permission = "view_supplies"
	PermManageSupplies       Permission = "manage_supplies"
	PermAdjustStock          Permission = "adjust_stock"
	PermManageSuppliers      Permission = "manage_suppliers"
	PermManagePurchaseOrders Permission = "manage_purchase_orders"
	PermExportReports        Permission = "export_reports"
	PermManageUsers          Permission = "manage_users"
	PermViewAuditLog         Permission = "view_audit_log"
)

var allPermissions = []Permission{
	PermViewDashboard,
	PermViewSupplies,
	PermManageSupplies,
	PermAdjustStock,
	PermManageSuppliers,
	PermManagePurchaseOrders,
	PermExportReports,
	PermManageUsers,
	PermViewAuditLog,
}

var rolePermissions = map[models.UserRole][]Permission{
	models.RoleAdmin: allPermissions,
	models.RoleManager: {
		PermViewDashboard,
		PermViewSupplies,
		PermManageSupplies,
		PermAdjustStock,
		PermManageSuppliers,
		PermManagePurchaseOrders,
		PermExportReports,
		PermViewAuditLog,
	},
	models.RoleEmployee: {
		PermViewDashboard,
		PermViewSupplies,
		PermAdjustStock,
		PermManagePurchaseOrders,
		PermExportReports,
	},
	models.RoleViewer: {
		PermViewDashboard,
		PermViewSupplies,
	},
}

// Can reports whether role grants perm. Unknown roles grant nothing.
func Can(role models.UserRole, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsFor returns a copy of the permissions granted to role.
func PermissionsFor(role models.UserRole) []Permission {
	return append([]Permission(nil), rolePermissions[role]...)
}
