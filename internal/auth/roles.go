package auth

// Role represents a caller role. Farmers own fields and read their own
// data; service is the delivery-confirmation integration; operators may
// trigger jobs; admins may mutate base data.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleService  Role = "service"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleFarmer, RoleService, RoleOperator, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleFarmer:
		return 1
	case RoleService:
		return 2
	case RoleOperator:
		return 3
	case RoleAdmin:
		return 4
	default:
		return 0
	}
}
