// Package credential 管理 GitHub 认证凭据: 状态推导、请求头生成、GitHub App JWT 签发与缓存
package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"gh-integration/internal/model"
	"gh-integration/internal/pkg/jwt"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
)

// AppTokenTTL GitHub App JWT 有效期
const AppTokenTTL = constants.GitHubAppTokenTTLSecond * time.Second

// Store 凭据持久化
type Store interface {
	UpdateFields(ctx context.Context, c *model.Credential, columns ...string) error
	ListActiveForPrincipal(ctx context.Context, userID int64) ([]*model.Credential, error)
}

// Signer 签发 GitHub App JWT
type Signer func(appID, privateKeyPEM string, now time.Time, ttl time.Duration) (string, error)

type Manager struct {
	store  Store
	now    func() time.Time
	sign   Signer
	logger *zap.Logger
}

type Option func(*Manager)

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithSigner 替换 JWT 签名实现
func WithSigner(sign Signer) Option {
	return func(m *Manager) {
		m.sign = sign
	}
}

func NewManager(store Store, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		sign:   jwt.GenerateAppToken,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status 按当前时间推导凭据状态
func (m *Manager) Status(c *model.Credential) model.CredentialStatus {
	return c.ComputeStatus(m.now())
}

// MintAppToken 为 GitHub App 签发新的 JWT 并缓存到凭据上
func (m *Manager) MintAppToken(ctx context.Context, c *model.Credential) (string, error) {
	if c.Kind != model.CredentialKindApp {
		return "", pkgErrors.User("仅 GitHub App 认证支持生成 JWT")
	}
	if c.AppID == "" || c.PrivateKey == "" {
		return "", pkgErrors.User("生成 JWT 需要 App ID 和 Private Key")
	}

	// 时钟只读一次, iat/exp 基于同一时刻
	now := m.now().Truncate(time.Second)
	expiration := now.Add(AppTokenTTL)

	token, err := m.sign(c.AppID, c.PrivateKey, now, AppTokenTTL)
	if err != nil {
		m.logger.Error("生成 JWT 失败", zap.Int64("credential_id", c.ID), zap.Error(err))
		return "", pkgErrors.WrapUser("生成 JWT 失败", err)
	}

	c.JWTToken = token
	c.JWTExpiration = &expiration
	c.LastValidation = &now
	if err := m.store.UpdateFields(ctx, c, "jwt_token", "jwt_expiration", "last_validation"); err != nil {
		return "", err
	}

	m.logger.Info("GitHub App JWT 已生成",
		zap.Int64("credential_id", c.ID),
		zap.String("app_id", c.AppID),
		zap.Time("expires_at", expiration),
	)
	return token, nil
}

// CheckAuth token 类凭据必须已设置 token
func (m *Manager) CheckAuth(c *model.Credential) error {
	if c.Kind.IsToken() && c.Token == "" {
		return pkgErrors.User(fmt.Sprintf("凭据 %s 未设置 token", c.Name))
	}
	return nil
}

// GetAuthHeaders 生成 GitHub API 认证请求头, GitHub App 的 JWT 缺失或过期时先重新签发
func (m *Manager) GetAuthHeaders(ctx context.Context, c *model.Credential) (map[string]string, error) {
	if err := m.CheckAuth(c); err != nil {
		return nil, err
	}

	switch {
	case c.Kind.IsToken():
		return map[string]string{constants.HeaderAuthorization: "token " + c.Token}, nil
	case c.Kind == model.CredentialKindApp:
		if c.JWTToken == "" || c.JWTExpiration == nil || c.JWTExpiration.Before(m.now()) {
			if _, err := m.MintAppToken(ctx, c); err != nil {
				return nil, err
			}
		}
		return map[string]string{constants.HeaderAuthorization: constants.HeaderBearerPrefix + c.JWTToken}, nil
	default:
		return nil, pkgErrors.User("不支持的认证方式: " + string(c.Kind))
	}
}

// IsAuthorized 判断用户能否使用该凭据
func (m *Manager) IsAuthorized(c *model.Credential, userID int64) bool {
	return c.IsAuthorized(userID)
}

// ResolveForPrincipal 返回用户可用的启用凭据, 按名称升序
func (m *Manager) ResolveForPrincipal(ctx context.Context, userID int64) ([]*model.Credential, error) {
	candidates, err := m.store.ListActiveForPrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(candidates, func(c *model.Credential, _ int) bool {
		return m.IsAuthorized(c, userID)
	}), nil
}

// ValidateToken 记录最近一次校验时间
func (m *Manager) ValidateToken(ctx context.Context, c *model.Credential) error {
	now := m.now()
	c.LastValidation = &now
	return m.store.UpdateFields(ctx, c, "last_validation")
}
