package domain

import "fmt"

// Permission is a capability key checked before a mutating action
type Permission string

const (
	CanAddProducts    Permission = "canAddProducts"
	CanEditProducts   Permission = "canEditProducts"
	CanDeleteProducts Permission = "canDeleteProducts"
	CanAdjustQuantity Permission = "canAdjustQuantity"
	CanManageUsers    Permission = "canManageUsers"
	CanViewAuditLogs  Permission = "canViewAuditLogs"
)

// Permissions lists every declared key
var Permissions = []Permission{
	CanAddProducts,
	CanEditProducts,
	CanDeleteProducts,
	CanAdjustQuantity,
	CanManageUsers,
	CanViewAuditLogs,
}

// PermissionSet is the full capability map of one role
type PermissionSet map[Permission]bool

var permissionTable = map[Role]PermissionSet{
	RoleOwner: {
		CanAddProducts:    true,
		CanEditProducts:   true,
		CanDeleteProducts: true,
		CanAdjustQuantity: true,
		CanManageUsers:    true,
		CanViewAuditLogs:  true,
	},
	RoleAdmin: {
		CanAddProducts:    true,
		CanEditProducts:   true,
		CanDeleteProducts: true,
		CanAdjustQuantity: true,
		CanManageUsers:    true,
		CanViewAuditLogs:  true,
	},
	RoleManager: {
		CanAddProducts:    true,
		CanEditProducts:   true,
		CanDeleteProducts: false,
		CanAdjustQuantity: true,
		CanManageUsers:    false,
		CanViewAuditLogs:  true,
	},
	RoleEmployee: {
		CanAddProducts:    false,
		CanEditProducts:   false,
		CanDeleteProducts: false,
		CanAdjustQuantity: true,
		CanManageUsers:    false,
		CanViewAuditLogs:  false,
	},
}

// Gate answers permission lookups against the static table.
// A strict gate panics on an undeclared key; otherwise it denies.
type Gate struct {
	Strict bool
}

// NewGate returns a gate that fails fast in development
func NewGate(dev bool) Gate {
	return Gate{Strict: dev}
}

// HasPermission is a pure lookup. Unknown roles are treated as employee.
func (g Gate) HasPermission(role Role, key Permission) bool {
	set := permissionTable[ParseRole(string(role))]
	allowed, declared := set[key]
	if !declared {
		if g.Strict {
			panic(fmt.Sprintf("permission gate: unknown permission key %q", key))
		}
		return false
	}
	return allowed
}

// PermissionsFor returns a copy of the role's permission set
func (g Gate) PermissionsFor(role Role) PermissionSet {
	src := permissionTable[ParseRole(string(role))]
	out := make(PermissionSet, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
