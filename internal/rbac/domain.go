package rbac

import "github.com/odyssey-erp/textile-erp/internal/shared"

// Role names understood by the default role map.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleCashier    = "cashier"
	RoleWarehouse  = "warehouse"
	RoleProduction = "production"
	RoleAccountant = "accountant"
)

// Role represents a high-level permission grouping.
type Role struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// DefaultRoles maps the textile mill job roles onto ledger permissions.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RoleAdmin: shared.AllScopes(),
		RoleManager: {
			shared.PermInventoryView, shared.PermInventoryAdjust, shared.PermInventoryMove, shared.PermInventoryAudit,
			shared.PermInvoiceView, shared.PermInvoiceCreate, shared.PermInvoiceCancel,
			shared.PermCreditView, shared.PermCreditPayment, shared.PermCreditAudit,
			shared.PermProductionView, shared.PermProductionOrder,
			shared.PermAuditView, shared.PermRolesView,
		},
		RoleCashier: {
			shared.PermInventoryView,
			shared.PermInvoiceView, shared.PermInvoiceCreate,
			shared.PermCreditView, shared.PermCreditPayment,
		},
		RoleWarehouse: {
			shared.PermInventoryView, shared.PermInventoryAdjust, shared.PermInventoryMove,
		},
		RoleProduction: {
			shared.PermInventoryView,
			shared.PermProductionView, shared.PermProductionRecord, shared.PermProductionOrder,
		},
		RoleAccountant: {
			shared.PermInvoiceView,
			shared.PermCreditView, shared.PermCreditAudit, shared.PermInventoryAudit,
			shared.PermAuditView,
		},
	}
}
