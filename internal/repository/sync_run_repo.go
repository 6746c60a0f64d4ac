package repository

import (
	"context"

	"gorm.io/gorm"

	"gh-integration/internal/model"
	pkgErrors "gh-integration/pkg/errors"
)

type SyncRunRepository interface {
	Create(ctx context.Context, run *model.SyncRun) error
	Finish(ctx context.Context, run *model.SyncRun) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.SyncRun, error)
}

type syncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r *syncRunRepository) Create(ctx context.Context, run *model.SyncRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建同步记录失败", err)
	}
	return nil
}

func (r *syncRunRepository) Finish(ctx context.Context, run *model.SyncRun) error {
	err := r.db.WithContext(ctx).Model(run).
		Select("credential_id", "status", "fetched", "inserted", "updated", "message", "finished_at").
		Updates(run).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新同步记录失败", err)
	}
	return nil
}

func (r *syncRunRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.SyncRun, error) {
	var runs []*model.SyncRun
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询同步记录失败", err)
	}
	return runs, nil
}
