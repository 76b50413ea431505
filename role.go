package ratehub

// Role is the authorization role carried by an authenticated identity.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
)

// Known reports whether the role is one of the fixed enumeration.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleStoreOwner:
		return true
	}
	return false
}

// DashboardPath maps a role to its dashboard route. Unrecognized roles land
// on the root path.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleUser:
		return "/user"
	case RoleStoreOwner:
		return "/store"
	default:
		return "/"
	}
}
