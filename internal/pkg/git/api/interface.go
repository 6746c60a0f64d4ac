package api

import (
	"context"
	"encoding/json"
)

// GitProvider Git平台提供者接口
type GitProvider interface {
	// ListUserRepositories 拉取当前认证身份可见的全部仓库, 保留每条记录的原始报文
	ListUserRepositories(ctx context.Context) ([]json.RawMessage, error)

	// GetCurrentUser 获取 token 对应的用户, 用于校验 token 类凭据
	GetCurrentUser(ctx context.Context) (*UserInfo, error)

	// GetCurrentApp 获取 JWT 对应的 GitHub App, 用于校验 App 凭据
	GetCurrentApp(ctx context.Context) (*AppInfo, error)
}

// ProviderFactory 按配置创建提供者
type ProviderFactory func(cfg *ProviderConfig) (GitProvider, error)
