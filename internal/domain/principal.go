package domain

import "slices"

// Principal is a resolved identity. A nil *Principal means the caller is anonymous.
type Principal struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// NewPrincipal copies roles and permissions so later changes to the inputs
// cannot leak into the principal.
func NewPrincipal(id int64, username string, roles, permissions []string) *Principal {
	return &Principal{
		ID:          id,
		Username:    username,
		Roles:       slices.Clone(roles),
		Permissions: slices.Clone(permissions),
	}
}

// HasRole reports whether the principal carries the role
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// HasPermission reports whether the principal carries the permission
func (p *Principal) HasPermission(permission string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Permissions, permission)
}

// IsAdmin reports whether the principal has the admin role
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// RegularUserPrincipal returns the fixed shape issued for a valid bearer token
func RegularUserPrincipal() *Principal {
	return NewPrincipal(1, "testuser",
		[]string{RoleUser},
		[]string{PermissionRead, PermissionWrite},
	)
}

// AdminPrincipal returns the fixed shape issued for valid admin credentials.
// Its roles and permissions are a strict superset of RegularUserPrincipal.
func AdminPrincipal(username string) *Principal {
	return NewPrincipal(0, username,
		[]string{RoleAdmin, RoleUser},
		[]string{PermissionRead, PermissionWrite, PermissionDelete, PermissionAdmin, PermissionBatchOperations},
	)
}
