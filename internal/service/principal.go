package service

import "gh-integration/internal/pkg/auth"

// Principal 当前请求的用户, 由认证中间件从 Token 中解析
type Principal struct {
	UserID int64
	Roles  []string
}

func (p Principal) Can(perm auth.Permission) bool {
	return auth.Allow(p.Roles, perm)
}
