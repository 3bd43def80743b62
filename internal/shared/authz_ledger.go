package shared

// Ledger permissions declared for RBAC.
const (
	// Inventory permissions
	PermInventoryView   = "inventory.view"
	PermInventoryAdjust = "inventory.adjust"
	PermInventoryMove   = "inventory.transfer"
	PermInventoryAudit  = "inventory.reconcile"

	// Sales invoice permissions
	PermInvoiceView   = "sales.invoice.view"
	PermInvoiceCreate = "sales.invoice.create"
	PermInvoiceCancel = "sales.invoice.cancel"

	// Credit permissions
	PermCreditView    = "credit.view"
	PermCreditPayment = "credit.payment.record"
	PermCreditAudit   = "credit.reconcile"

	// Production permissions
	PermProductionView   = "production.view"
	PermProductionRecord = "production.record"
	PermProductionOrder  = "production.order.manage"
)

// InventoryScopes lists all permissions related to the inventory module.
func InventoryScopes() []string {
	return []string{PermInventoryView, PermInventoryAdjust, PermInventoryMove, PermInventoryAudit}
}

// SalesScopes lists all permissions related to sales invoicing.
func SalesScopes() []string {
	return []string{PermInvoiceView, PermInvoiceCreate, PermInvoiceCancel}
}

// CreditScopes lists all permissions related to the credit ledger.
func CreditScopes() []string {
	return []string{PermCreditView, PermCreditPayment, PermCreditAudit}
}

// ProductionScopes lists all permissions related to production.
func ProductionScopes() []string {
	return []string{PermProductionView, PermProductionRecord, PermProductionOrder}
}

// AllScopes returns every permission known to the service.
func AllScopes() []string {
	all := append([]string{}, InventoryScopes()...)
	all = append(all, SalesScopes()...)
	all = append(all, CreditScopes()...)
	all = append(all, ProductionScopes()...)
	return append(all, CoreScopes()...)
}
