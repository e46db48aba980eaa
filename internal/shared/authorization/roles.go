package authorization

type UserRole string

const (
	// RoleAdmin may read abuse alerts and clear rate limits.
	RoleAdmin UserRole = "admin"
	// RoleOperator may read abuse alerts only.
	RoleOperator UserRole = "operator"
	RoleUser     UserRole = "user"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleUser:
		return true
	}
	return false
}

// ParseUserRole maps unknown or empty roles to RoleUser.
func ParseUserRole(s string) UserRole {
	role := UserRole(s)
	if role.IsValid() {
		return role
	}
	return RoleUser
}
