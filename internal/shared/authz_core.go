package shared

// Platform permissions that sit outside the ledgers.
const (
	PermJobsRun   = "jobs.run"
	PermAuditView = "audit.view"
	PermRolesView = "rbac.roles.view"
)

// CoreScopes lists all platform permissions.
func CoreScopes() []string {
	return []string{
		PermJobsRun,
		PermAuditView,
		PermRolesView,
	}
}
