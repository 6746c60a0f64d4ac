package auth

import "strings"

// Role 内置角色
type Role string

const (
	RoleSystemAdmin  Role = "system_admin"
	RoleSystemViewer Role = "system_viewer"
	RoleMember       Role = "member"
)

// Permission 内置权限
type Permission string

const (
	PermCredentialManage Permission = "credential:manage"
	PermCredentialView   Permission = "credential:view"
	PermRepositorySync   Permission = "repository:sync"
	PermRepositoryView   Permission = "repository:view"
	PermUserView         Permission = "user:view"
)

// RolePermissions 每个角色拥有的权限集合
var RolePermissions = map[Role][]Permission{
	RoleSystemAdmin: {
		"*",
	},
	RoleSystemViewer: {
		"*:view",
	},
	RoleMember: {
		"credential:view",
		"repository:*",
	},
}

// Roles 返回全部内置角色, 按权限从高到低
func Roles() []Role {
	return []Role{RoleSystemAdmin, RoleSystemViewer, RoleMember}
}

// Allow 判断一组角色是否包含所需权限，支持通配符
func Allow(roles []string, need Permission) bool {
	for _, r := range roles {
		for _, p := range RolePermissions[Role(r)] {
			if match(p, need) {
				return true
			}
		}
	}
	return false
}

// match 按段匹配, "*" 段匹配该位置及其后的所有段
func match(have, need Permission) bool {
	if have == need || have == "*" {
		return true
	}

	haveParts := strings.Split(string(have), ":")
	needParts := strings.Split(string(need), ":")

	for i, part := range haveParts {
		if part == "*" {
			// 首段通配仅匹配同段数, 例如 *:view 不匹配 credential:manage
			if i == 0 && len(haveParts) > 1 {
				continue
			}
			return true
		}
		if i >= len(needParts) || part != needParts[i] {
			return false
		}
	}
	return len(haveParts) == len(needParts)
}
