package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gh-integration/internal/model"
	pkgErrors "gh-integration/pkg/errors"
)

// CredentialFilter 凭据列表过滤条件
type CredentialFilter struct {
	Keyword string
	Kind    string
	Active  *bool
	Offset  int
	Limit   int
}

type CredentialRepository interface {
	Create(ctx context.Context, c *model.Credential) error
	GetByID(ctx context.Context, id int64) (*model.Credential, error)
	Update(ctx context.Context, c *model.Credential) error
	UpdateFields(ctx context.Context, c *model.Credential, columns ...string) error
	ReplaceAuthorizedUsers(ctx context.Context, c *model.Credential, users []model.User) error
	SetActive(ctx context.Context, id int64, active bool) error
	ListActiveForPrincipal(ctx context.Context, userID int64) ([]*model.Credential, error)
	List(ctx context.Context, filter CredentialFilter) ([]*model.Credential, int64, error)
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// Create 凭据与 AuthorizedUsers 关联在同一事务内写入, 任一失败整体回滚
func (r *credentialRepository) Create(ctx context.Context, c *model.Credential) error {
	users := c.AuthorizedUsers
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return wrapWriteError("创建凭据失败", err)
		}
		if len(users) == 0 {
			return nil
		}
		if err := tx.Model(c).Association("AuthorizedUsers").Replace(users); err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新授权用户失败", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.AuthorizedUsers = users
	return nil
}

func (r *credentialRepository) GetByID(ctx context.Context, id int64) (*model.Credential, error) {
	var c model.Credential
	if err := r.db.WithContext(ctx).Preload("AuthorizedUsers").First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询凭据失败", err)
	}
	return &c, nil
}

// Update 保存全部字段, 授权用户通过 ReplaceAuthorizedUsers 维护
func (r *credentialRepository) Update(ctx context.Context, c *model.Credential) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error; err != nil {
		return wrapWriteError("更新凭据失败", err)
	}
	return nil
}

// UpdateFields 仅更新指定列, state 总是随之刷新
func (r *credentialRepository) UpdateFields(ctx context.Context, c *model.Credential, columns ...string) error {
	columns = append(columns, "state")
	if err := r.db.WithContext(ctx).Model(c).Select(columns).Updates(c).Error; err != nil {
		return wrapWriteError("更新凭据失败", err)
	}
	return nil
}

func (r *credentialRepository) ReplaceAuthorizedUsers(ctx context.Context, c *model.Credential, users []model.User) error {
	if err := r.db.WithContext(ctx).Model(c).Association("AuthorizedUsers").Replace(users); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新授权用户失败", err)
	}
	c.AuthorizedUsers = users
	return nil
}

// SetActive 软停用/启用, 不触发校验钩子
func (r *credentialRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result := r.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).UpdateColumn("active", active)
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新凭据状态失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}

// ListActiveForPrincipal 启用中且 (GitHub App 或 本人创建) 的凭据, 按名称、ID 升序
func (r *credentialRepository) ListActiveForPrincipal(ctx context.Context, userID int64) ([]*model.Credential, error) {
	var list []*model.Credential
	err := r.db.WithContext(ctx).
		Preload("AuthorizedUsers").
		Where("active = ?", true).
		Where("(kind = ? OR owner_id = ?)", model.CredentialKindApp, userID).
		Order("name ASC").
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询可用凭据失败", err)
	}
	return list, nil
}

func (r *credentialRepository) List(ctx context.Context, filter CredentialFilter) ([]*model.Credential, int64, error) {
	var list []*model.Credential
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Credential{})
	if filter.Keyword != "" {
		q = q.Where("name LIKE ?", likePattern(filter.Keyword))
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询凭据总数失败", err)
	}
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Preload("AuthorizedUsers").Order("name ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询凭据列表失败", err)
	}
	return list, total, nil
}

// wrapWriteError 保留校验错误原样返回, 其余包装为数据库错误
func wrapWriteError(message string, err error) error {
	var appErr *pkgErrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if IsDuplicateKey(err) {
		return pkgErrors.Wrap(pkgErrors.CodeConflict, message, err)
	}
	return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, message, err)
}
