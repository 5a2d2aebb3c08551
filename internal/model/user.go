package model

// Role values mirror the users.role column.
const (
	RoleSuperAdmin  = "super_admin"
	RoleClientAdmin = "client_admin"
	RoleUser        = "user"
)

// AuthUser is the in-memory representation of an authenticated principal,
// populated at token validation time.
type AuthUser struct {
	UserID   string
	Email    string
	Name     string
	Role     string
	ClientID string // empty for super admins not bound to a tenant
}

func NewAuthUser(userID, email, name, role, clientID string) *AuthUser {
	return &AuthUser{
		UserID:   userID,
		Email:    email,
		Name:     name,
		Role:     role,
		ClientID: clientID,
	}
}

// IsSuperAdmin reports whether the principal holds the platform-wide role.
func (u *AuthUser) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// CanAdminClient reports whether the principal may administer the given tenant.
func (u *AuthUser) CanAdminClient(clientID string) bool {
	if u.Role == RoleSuperAdmin {
		return true
	}
	return u.Role == RoleClientAdmin && u.ClientID == clientID
}

// BelongsTo reports whether the principal is scoped to the given tenant.
func (u *AuthUser) BelongsTo(clientID string) bool {
	return u.ClientID == clientID
}
