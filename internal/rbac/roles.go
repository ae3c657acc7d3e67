package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleManager    = "manager"
	RoleViewer     = "viewer"
	RoleSuperAdmin = "super_admin"
	RoleOperator   = "operator" // hidden role, platform staff only
)

// DashboardRoles may read a tenant's aggregated call data.
var DashboardRoles = []string{RoleOwner, RoleManager, RoleViewer}

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleOperator }
