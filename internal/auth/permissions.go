package auth

// Permission represents a named capability on the node API.
type Permission string

// Permission constants.
const (
	PermNamespaceRead  Permission = "namespace:read"
	PermNamespaceWrite Permission = "namespace:write"
	PermAliasManage    Permission = "alias:manage"
	PermSnapshotRead   Permission = "snapshot:read"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermNamespaceRead,
		PermSnapshotRead,
	},
	RoleOperator: {
		PermNamespaceRead,
		PermNamespaceWrite,
		PermAliasManage,
		PermSnapshotRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
