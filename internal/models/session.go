package models

// Role is the authorization level carried by an authenticated identity.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Identity is the display identity of the authenticated user.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
}

// Session pairs an identity with the bearer credential that proves it.
// The two are always written and cleared together.
type Session struct {
	Identity Identity
	Token    string
}
