package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gh-integration/internal/model"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Search(ctx context.Context, keyword string, offset, limit int) ([]*model.User, int64, error)
	ListSyncCandidates(ctx context.Context) ([]*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if IsDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建用户失败", err)
	}
	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新用户失败", err)
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login_at", at).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新登录时间失败", err)
	}
	return nil
}

func (r *userRepository) Search(ctx context.Context, keyword string, offset, limit int) ([]*model.User, int64, error) {
	var users []*model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})
	if keyword != "" {
		pattern := likePattern(keyword)
		query = query.Where("(username LIKE ? OR display_name LIKE ? OR email LIKE ?)", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户总数失败", err)
	}
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户列表失败", err)
	}
	return users, total, nil
}

// ListSyncCandidates 拥有有效凭据或被授权使用 GitHub App 的启用用户
func (r *userRepository) ListSyncCandidates(ctx context.Context) ([]*model.User, error) {
	var users []*model.User

	owners := r.db.Model(&model.Credential{}).Select("owner_id").Where("active = ?", true)
	grantees := r.db.Table(model.CredentialAuthorizedUserTable+" AS cu").
		Select("cu.user_id").
		Joins("JOIN "+model.CredentialTableName+" AS c ON c.id = cu.credential_id").
		Where("c.active = ? AND c.kind = ?", true, model.CredentialKindApp)

	err := r.db.WithContext(ctx).
		Where("status = ?", constants.StatusEnabled).
		Where("(id IN (?) OR id IN (?))", owners, grantees).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询同步用户失败", err)
	}
	return users, nil
}
