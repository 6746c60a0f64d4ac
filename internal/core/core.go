// Package core 组装凭据管理、仓库合并以及对外暴露的业务服务
package core

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gh-integration/internal/core/credential"
	"gh-integration/internal/core/reconcile"
	"gh-integration/internal/pkg/config"
	"gh-integration/internal/pkg/git/api"
	"gh-integration/internal/pkg/git/github"
	"gh-integration/internal/repository"
	"gh-integration/internal/service"
)

// Engine 服务依赖容器, 路由与定时任务共用同一组实例
type Engine struct {
	DB          *gorm.DB
	Credentials *credential.Manager
	Reconciler  *reconcile.Reconciler

	Auth         service.AuthService
	Users        service.UserService
	Credential   service.CredentialService
	Repositories service.RepositoryService
	Sync         *service.RepoSyncService
}

type engineOptions struct {
	newProvider api.ProviderFactory
	ldap        service.LDAPService
	managerOpts []credential.Option
}

type EngineOption func(*engineOptions)

// WithProviderFactory 替换 GitHub 客户端实现
func WithProviderFactory(f api.ProviderFactory) EngineOption {
	return func(o *engineOptions) {
		o.newProvider = f
	}
}

// WithLDAPService 替换 LDAP 认证实现
func WithLDAPService(s service.LDAPService) EngineOption {
	return func(o *engineOptions) {
		o.ldap = s
	}
}

// WithManagerOptions 传递给凭据管理器的选项
func WithManagerOptions(opts ...credential.Option) EngineOption {
	return func(o *engineOptions) {
		o.managerOpts = append(o.managerOpts, opts...)
	}
}

// NewEngine 创建服务依赖
func NewEngine(db *gorm.DB, cfg *config.Config, logger *zap.Logger, opts ...EngineOption) *Engine {
	o := &engineOptions{
		newProvider: github.NewProvider,
		ldap:        service.NewLDAPService(&cfg.Auth.LDAP),
	}
	for _, opt := range opts {
		opt(o)
	}

	userRepo := repository.NewUserRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	repositoryRepo := repository.NewRepositoryRepository(db)
	syncRunRepo := repository.NewSyncRunRepository(db)

	manager := credential.NewManager(credentialRepo, logger.Named("credential"), o.managerOpts...)
	reconciler := reconcile.NewReconciler(db, logger.Named("reconcile"))

	return &Engine{
		DB:           db,
		Credentials:  manager,
		Reconciler:   reconciler,
		Auth:         service.NewAuthService(&cfg.Auth, userRepo, o.ldap, logger.Named("auth")),
		Users:        service.NewUserService(userRepo, logger.Named("user")),
		Credential:   service.NewCredentialService(credentialRepo, userRepo, manager, &cfg.GitHub, o.newProvider, logger.Named("credential")),
		Repositories: service.NewRepositoryService(repositoryRepo, manager),
		Sync:         service.NewRepoSyncService(manager, reconciler, userRepo, syncRunRepo, &cfg.GitHub, o.newProvider, logger.Named("sync")),
	}
}
