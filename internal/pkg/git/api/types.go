package api

import (
	"time"
)

// UserInfo 当前认证用户
type UserInfo struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AppInfo 当前认证的 GitHub App
type AppInfo struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// ProviderConfig 平台客户端配置
type ProviderConfig struct {
	BaseURL    string            // API 地址, 为空时使用 https://api.github.com/
	APIVersion string            // X-GitHub-Api-Version
	Headers    map[string]string // 认证头, 由凭据管理生成
	PerPage    int               // 每页数量, 最大 100
	MaxPages   int               // 0 表示拉取全部分页
	Timeout    time.Duration
}
