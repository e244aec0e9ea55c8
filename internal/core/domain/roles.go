package domain

import "strings"

// Role represents a staff role, ranked owner > admin > manager > employee
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Roles lists every role from least to most privileged
var Roles = []Role{RoleEmployee, RoleManager, RoleAdmin, RoleOwner}

var roleRank = map[Role]int{
	RoleEmployee: 1,
	RoleManager:  2,
	RoleAdmin:    3,
	RoleOwner:    4,
}

// ParseRole maps a stored or claimed role to a known role.
// Anything unrecognised becomes the least-privileged role.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; ok {
		return r
	}
	return RoleEmployee
}

// Valid reports whether r is one of the declared roles
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the privilege rank, 0 for unknown roles
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r is as privileged as other
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// Invitable reports whether an invite may grant r. Owner is never handed out.
func (r Role) Invitable() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

func (r Role) String() string { return string(r) }
