package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"gh-integration/internal/core/credential"
	"gh-integration/internal/core/reconcile"
	"gh-integration/internal/dto"
	"gh-integration/internal/model"
	"gh-integration/internal/pkg/auth"
	"gh-integration/internal/pkg/config"
	"gh-integration/internal/pkg/git/api"
	"gh-integration/internal/repository"
	pkgErrors "gh-integration/pkg/errors"
)

type CredentialService interface {
	Create(ctx context.Context, p Principal, req *dto.CreateCredentialRequest) (*dto.CredentialResponse, error)
	GetByID(ctx context.Context, p Principal, id int64) (*dto.CredentialResponse, error)
	List(ctx context.Context, query *dto.CredentialQuery) ([]*dto.CredentialResponse, int64, error)
	Available(ctx context.Context, p Principal) (*dto.AvailableCredentialsResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateCredentialRequest) (*dto.CredentialResponse, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetAuthorizedUsers(ctx context.Context, id int64, userIDs []int64) (*dto.CredentialResponse, error)
	Mint(ctx context.Context, p Principal, id int64) (*dto.MintTokenResponse, error)
	Validate(ctx context.Context, p Principal, id int64) (*dto.ValidateCredentialResponse, error)
}

type credentialService struct {
	repo        repository.CredentialRepository
	userRepo    repository.UserRepository
	manager     *credential.Manager
	githubCfg   *config.GitHubConfig
	newProvider api.ProviderFactory
	logger      *zap.Logger
}

func NewCredentialService(
	repo repository.CredentialRepository,
	userRepo repository.UserRepository,
	manager *credential.Manager,
	githubCfg *config.GitHubConfig,
	newProvider api.ProviderFactory,
	logger *zap.Logger,
) CredentialService {
	return &credentialService{
		repo:        repo,
		userRepo:    userRepo,
		manager:     manager,
		githubCfg:   githubCfg,
		newProvider: newProvider,
		logger:      logger,
	}
}

func (s *credentialService) Create(ctx context.Context, p Principal, req *dto.CreateCredentialRequest) (*dto.CredentialResponse, error) {
	c := &model.Credential{
		Name:            req.Name,
		Active:          true,
		Kind:            model.CredentialKind(req.Kind),
		Token:           req.Token,
		TokenExpiration: req.TokenExpiration,
		AppID:           req.AppID,
		AppName:         req.AppName,
		PrivateKey:      req.PrivateKey,
		InstallationID:  req.InstallationID,
		OwnerID:         p.UserID,
	}
	if err := c.ValidateRequiredFields(); err != nil {
		return nil, err
	}

	if len(req.AuthorizedUsers) > 0 {
		users, err := s.loadAuthorizedUsers(ctx, c, req.AuthorizedUsers)
		if err != nil {
			return nil, err
		}
		c.AuthorizedUsers = users
	}

	// 凭据与授权用户在同一事务内写入
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("凭据已创建",
		zap.Int64("credential_id", c.ID),
		zap.String("kind", string(c.Kind)),
		zap.Int64("owner_id", c.OwnerID),
	)
	return s.toResponse(c), nil
}

func (s *credentialService) GetByID(ctx context.Context, p Principal, id int64) (*dto.CredentialResponse, error) {
	c, err := s.getAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

func (s *credentialService) List(ctx context.Context, query *dto.CredentialQuery) ([]*dto.CredentialResponse, int64, error) {
	list, total, err := s.repo.List(ctx, repository.CredentialFilter{
		Keyword: query.Keyword,
		Kind:    query.Kind,
		Active:  query.Active,
		Offset:  query.GetOffset(),
		Limit:   query.GetPageSize(),
	})
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(list), total, nil
}

func (s *credentialService) Available(ctx context.Context, p Principal) (*dto.AvailableCredentialsResponse, error) {
	available, err := s.manager.ResolveForPrincipal(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.AvailableCredentialsResponse{
		Items:     s.toResponses(available),
		DefaultID: reconcile.DefaultCredentialID(available),
	}, nil
}

func (s *credentialService) Update(ctx context.Context, id int64, req *dto.UpdateCredentialRequest) (*dto.CredentialResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Token != nil {
		c.Token = *req.Token
	}
	if req.ClearTokenExpiration {
		c.TokenExpiration = nil
	} else if req.TokenExpiration != nil {
		c.TokenExpiration = req.TokenExpiration
	}
	if req.AppName != nil {
		c.AppName = *req.AppName
	}
	if req.InstallationID != nil {
		c.InstallationID = *req.InstallationID
	}

	// 签发参数变化后缓存的 JWT 作废
	resign := false
	if req.AppID != nil && *req.AppID != c.AppID {
		c.AppID = *req.AppID
		resign = true
	}
	if req.PrivateKey != nil && *req.PrivateKey != c.PrivateKey {
		c.PrivateKey = *req.PrivateKey
		resign = true
	}
	if resign {
		c.JWTToken = ""
		c.JWTExpiration = nil
	}

	if err := c.ValidateRequiredFields(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

func (s *credentialService) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info("凭据启用状态已变更", zap.Int64("credential_id", id), zap.Bool("active", active))
	return nil
}

func (s *credentialService) SetAuthorizedUsers(ctx context.Context, id int64, userIDs []int64) (*dto.CredentialResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	users, err := s.loadAuthorizedUsers(ctx, c, userIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceAuthorizedUsers(ctx, c, users); err != nil {
		return nil, err
	}
	c.AuthorizedUsers = users
	return s.toResponse(c), nil
}

func (s *credentialService) Mint(ctx context.Context, p Principal, id int64) (*dto.MintTokenResponse, error) {
	c, err := s.getAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.manager.MintAppToken(ctx, c); err != nil {
		return nil, err
	}
	return &dto.MintTokenResponse{
		JWTExpiration: c.JWTExpiration,
		State:         string(s.manager.Status(c)),
	}, nil
}

// Validate 用凭据请求一次 GitHub, 成功后记录校验时间
func (s *credentialService) Validate(ctx context.Context, p Principal, id int64) (*dto.ValidateCredentialResponse, error) {
	c, err := s.getAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}

	headers, err := s.manager.GetAuthHeaders(ctx, c)
	if err != nil {
		return nil, err
	}
	provider, err := s.newProvider(providerConfig(s.githubCfg, headers))
	if err != nil {
		return nil, pkgErrors.WrapUser("创建 GitHub 客户端失败", err)
	}

	var login string
	if c.Kind == model.CredentialKindApp {
		app, err := provider.GetCurrentApp(ctx)
		if err != nil {
			return nil, err
		}
		login = app.Slug
	} else {
		user, err := provider.GetCurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		login = user.Login
	}

	if err := s.manager.ValidateToken(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("凭据校验通过", zap.Int64("credential_id", c.ID), zap.String("login", login))

	return &dto.ValidateCredentialResponse{
		Login:          login,
		State:          string(s.manager.Status(c)),
		LastValidation: c.LastValidation,
	}, nil
}

// getAccessible 管理员可访问全部凭据, 其他用户只能访问自己可用的凭据
func (s *credentialService) getAccessible(ctx context.Context, p Principal, id int64) (*model.Credential, error) {
	if !p.Can(auth.PermCredentialManage) {
		available, err := s.manager.ResolveForPrincipal(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		if !lo.ContainsBy(available, func(c *model.Credential) bool { return c.ID == id }) {
			return nil, pkgErrors.ErrAuthNotAuthorized
		}
	}
	return s.repo.GetByID(ctx, id)
}

// loadAuthorizedUsers 仅 GitHub App 凭据可以设置授权用户
func (s *credentialService) loadAuthorizedUsers(ctx context.Context, c *model.Credential, userIDs []int64) ([]model.User, error) {
	if c.Kind != model.CredentialKindApp {
		return nil, pkgErrors.Validation("仅 GitHub App 凭据可以设置授权用户")
	}

	ids := lo.Uniq(userIDs)
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, pkgErrors.New(pkgErrors.CodeNotFound, "部分授权用户不存在")
	}
	return users, nil
}

func (s *credentialService) toResponses(list []*model.Credential) []*dto.CredentialResponse {
	return lo.Map(list, func(c *model.Credential, _ int) *dto.CredentialResponse {
		return s.toResponse(c)
	})
}

// toResponse 不回传任何明文密钥, 状态按当前时间重新计算
func (s *credentialService) toResponse(c *model.Credential) *dto.CredentialResponse {
	return &dto.CredentialResponse{
		ID:                c.ID,
		Name:              c.Name,
		Active:            c.Active,
		Kind:              string(c.Kind),
		State:             string(s.manager.Status(c)),
		HasToken:          c.Token != "",
		TokenExpiration:   c.TokenExpiration,
		AppID:             c.AppID,
		AppName:           c.AppName,
		InstallationID:    c.InstallationID,
		HasPrivateKey:     c.PrivateKey != "",
		HasJWTToken:       c.JWTToken != "",
		JWTExpiration:     c.JWTExpiration,
		OwnerID:           c.OwnerID,
		AuthorizedUserIDs: c.AuthorizedUserIDs(),
		LastValidation:    c.LastValidation,
		CreatedAt:         c.CreatedAt.Format(time.DateTime),
		UpdatedAt:         c.UpdatedAt.Format(time.DateTime),
	}
}

func providerConfig(cfg *config.GitHubConfig, headers map[string]string) *api.ProviderConfig {
	return &api.ProviderConfig{
		BaseURL:    cfg.BaseURL,
		APIVersion: cfg.APIVersion,
		Headers:    headers,
		PerPage:    cfg.PerPage,
		MaxPages:   cfg.MaxPages,
		Timeout:    cfg.RequestTimeout(),
	}
}
