package service

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"gh-integration/internal/dto"
	"gh-integration/internal/model"
	"gh-integration/internal/pkg/auth"
	"gh-integration/internal/pkg/config"
	"gh-integration/internal/pkg/crypto"
	"gh-integration/internal/pkg/jwt"
	"gh-integration/internal/repository"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
)

type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CurrentUser(ctx context.Context, userID int64) (*dto.UserInfo, error)
}

type authService struct {
	cfg         *config.AuthConfig
	userRepo    repository.UserRepository
	ldapService LDAPService
	logger      *zap.Logger
}

func NewAuthService(
	cfg *config.AuthConfig,
	userRepo repository.UserRepository,
	ldapService LDAPService,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:         cfg,
		userRepo:    userRepo,
		ldapService: ldapService,
		logger:      logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	var (
		user *model.User
		err  error
	)

	switch req.AuthType {
	case constants.AuthTypeLDAP:
		if !s.cfg.LDAP.Enabled {
			return nil, pkgErrors.New(pkgErrors.CodeAuthError, "LDAP认证未启用")
		}
		entry, err := s.ldapService.Authenticate(req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		if user, err = s.syncLDAPUser(ctx, entry); err != nil {
			return nil, err
		}

	case constants.AuthTypeLocal:
		if !s.cfg.Local.Enabled {
			return nil, pkgErrors.New(pkgErrors.CodeAuthError, "本地认证未启用")
		}
		if user, err = s.authenticateLocal(ctx, req.Username, req.Password); err != nil {
			return nil, err
		}

	default:
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "不支持的认证类型")
	}

	if user.Status != constants.StatusEnabled {
		return nil, pkgErrors.ErrUserDisabled
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("更新最后登录时间失败", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("用户登录成功", zap.String("username", user.Username), zap.String("auth_type", req.AuthType))
	return s.issueTokens(user)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := jwt.ValidateToken(refreshToken, constants.JWTTypeRefresh)
	if err != nil {
		return nil, err
	}

	// 重新读取用户, 角色与状态以数据库为准
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrInvalidToken
		}
		return nil, err
	}
	if user.Status != constants.StatusEnabled {
		return nil, pkgErrors.ErrUserDisabled
	}
	return s.issueTokens(user)
}

func (s *authService) CurrentUser(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrUserNotFound
		}
		return nil, err
	}
	return toUserInfo(user), nil
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	info := toUserInfo(user)
	subject := jwt.Subject{
		UserID:      info.ID,
		Username:    info.Username,
		DisplayName: info.DisplayName,
		AuthType:    info.AuthType,
		Roles:       info.Roles,
	}

	accessToken, err := jwt.GenerateAccessToken(subject)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成AccessToken失败", err)
	}
	refreshToken, err := jwt.GenerateRefreshToken(subject)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成RefreshToken失败", err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.JWT.AccessTokenExpire,
		User:         info,
	}, nil
}

func (s *authService) authenticateLocal(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.AuthProvider != constants.AuthTypeLocal {
		return nil, pkgErrors.ErrInvalidCredentials
	}
	if !crypto.CheckPassword(password, user.Password) {
		return nil, pkgErrors.ErrInvalidCredentials
	}
	return user, nil
}

// syncLDAPUser LDAP 用户首次登录时建档, 之后同步邮箱与显示名
func (s *authService) syncLDAPUser(ctx context.Context, entry *LDAPEntry) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, entry.Username)
	if err != nil && !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}

	if user == nil {
		user = &model.User{
			Username:     entry.Username,
			AuthProvider: constants.AuthTypeLDAP,
			Email:        lo.EmptyableToPtr(entry.Email),
			DisplayName:  lo.EmptyableToPtr(entry.DisplayName),
			SystemRoles:  model.StringList{string(auth.RoleMember)},
		}
		user.Status = constants.StatusEnabled
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("LDAP 用户首次登录, 已创建本地档案", zap.String("username", user.Username))
		return user, nil
	}

	if user.AuthProvider != constants.AuthTypeLDAP {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "同名本地用户已存在")
	}

	user.Email = lo.EmptyableToPtr(entry.Email)
	user.DisplayName = lo.EmptyableToPtr(entry.DisplayName)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// toUserInfo 未分配角色的用户按普通成员处理
func toUserInfo(user *model.User) *dto.UserInfo {
	roles := []string(user.SystemRoles)
	if len(roles) == 0 {
		roles = []string{string(auth.RoleMember)}
	}
	return &dto.UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       lo.FromPtr(user.Email),
		DisplayName: lo.FromPtrOr(user.DisplayName, user.Username),
		AuthType:    user.AuthProvider,
		Roles:       roles,
	}
}
