package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"gh-integration/internal/dto"
	"gh-integration/internal/model"
	"gh-integration/internal/pkg/auth"
	"gh-integration/internal/pkg/config"
	"gh-integration/internal/pkg/crypto"
	"gh-integration/internal/repository"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
)

type UserService interface {
	Search(ctx context.Context, req *dto.UserSearchQuery) ([]*dto.UserSimpleResponse, int64, error)
	CreateLocal(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserSimpleResponse, error)
	EnsureAdmin(ctx context.Context, cfg *config.LocalConfig) error
	ListRoles() []string
}

type userService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

func (s *userService) Search(ctx context.Context, req *dto.UserSearchQuery) ([]*dto.UserSimpleResponse, int64, error) {
	// 选择授权用户时使用, 每页最多 20
	pageSize := min(req.GetPageSize(), 20)
	offset := (req.GetPage() - 1) * pageSize

	users, total, err := s.userRepo.Search(ctx, req.Keyword, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	return lo.Map(users, func(u *model.User, _ int) *dto.UserSimpleResponse {
		return toUserSimpleResponse(u)
	}), total, nil
}

func (s *userService) CreateLocal(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserSimpleResponse, error) {
	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "密码加密失败", err)
	}

	roles := lo.Uniq(req.Roles)
	if len(roles) == 0 {
		roles = []string{string(auth.RoleMember)}
	}

	user := &model.User{
		Username:     req.Username,
		Password:     hash,
		AuthProvider: constants.AuthTypeLocal,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		SystemRoles:  roles,
	}
	user.Status = constants.StatusEnabled
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserSimpleResponse(user), nil
}

// EnsureAdmin 配置了初始管理员且用户不存在时创建
func (s *userService) EnsureAdmin(ctx context.Context, cfg *config.LocalConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := s.userRepo.FindByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return err
	}

	_, err = s.CreateLocal(ctx, &dto.CreateUserRequest{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Roles:    []string{string(auth.RoleSystemAdmin)},
	})
	if err != nil {
		return err
	}
	s.logger.Info("已创建初始管理员", zap.String("username", cfg.AdminUsername))
	return nil
}

func (s *userService) ListRoles() []string {
	return lo.Map(auth.Roles(), func(r auth.Role, _ int) string {
		return string(r)
	})
}

func toUserSimpleResponse(u *model.User) *dto.UserSimpleResponse {
	return &dto.UserSimpleResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
}
