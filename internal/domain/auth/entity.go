package auth

type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// CanProcessAttendance reports whether the role may trigger reconciliation and punch syncs.
func (r Role) CanProcessAttendance() bool {
	return r == RoleOwner || r == RoleManager
}
