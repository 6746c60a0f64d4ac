package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gh-integration/internal/model"
	pkgErrors "gh-integration/pkg/errors"
)

// RepositoryFilter 仓库镜像列表过滤条件
// CredentialIDs 为调用者可用的凭据, 为空时不返回任何记录
type RepositoryFilter struct {
	CredentialIDs []int64
	CredentialID  *int64
	Keyword       string
	Private       *bool
	Offset        int
	Limit         int
}

type RepositoryRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Repository, error)
	List(ctx context.Context, filter RepositoryFilter) ([]*model.Repository, int64, error)
	CountByCredential(ctx context.Context, credentialID int64) (int64, error)
}

type repositoryRepository struct {
	db *gorm.DB
}

func NewRepositoryRepository(db *gorm.DB) RepositoryRepository {
	return &repositoryRepository{db: db}
}

func (r *repositoryRepository) FindByID(ctx context.Context, id int64) (*model.Repository, error) {
	var repo model.Repository
	if err := r.db.WithContext(ctx).First(&repo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码库失败", err)
	}
	return &repo, nil
}

func (r *repositoryRepository) List(ctx context.Context, filter RepositoryFilter) ([]*model.Repository, int64, error) {
	var repos []*model.Repository
	var total int64

	if len(filter.CredentialIDs) == 0 {
		return repos, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&model.Repository{}).Where("credential_id IN ?", filter.CredentialIDs)
	if filter.CredentialID != nil {
		query = query.Where("credential_id = ?", *filter.CredentialID)
	}
	if filter.Private != nil {
		query = query.Where("private = ?", *filter.Private)
	}
	if filter.Keyword != "" {
		pattern := likePattern(filter.Keyword)
		query = query.Where("(name LIKE ? OR full_name LIKE ? OR description LIKE ?)", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码库总数失败", err)
	}
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}
	// 列表不返回原始报文
	if err := query.Omit("raw_data").Order("full_name ASC").Order("id ASC").Find(&repos).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码库列表失败", err)
	}
	return repos, total, nil
}

func (r *repositoryRepository) CountByCredential(ctx context.Context, credentialID int64) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Repository{}).Where("credential_id = ?", credentialID).Count(&total).Error; err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计代码库失败", err)
	}
	return total, nil
}
