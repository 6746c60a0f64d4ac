// Package reconcile 将拉取到的 GitHub 仓库列表合并到本地镜像表
package reconcile

import (
	"context"
	"encoding/json"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gh-integration/internal/model"
	"gh-integration/internal/repository"
	pkgErrors "gh-integration/pkg/errors"
)

// maxPlaceholders 单条语句的绑定参数上限, 取 SQLite(32766) 与 MySQL/Postgres(65535) 中较小者并留余量
const maxPlaceholders = 30000

// Result 一次合并的结果
type Result struct {
	Received int `json:"received"` // 去重后的记录数
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

type Reconciler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewReconciler(db *gorm.DB, logger *zap.Logger) *Reconciler {
	return &Reconciler{db: db, logger: logger}
}

// insertBatchSize 每条 INSERT 的行数, 行数 × 列数不超过 maxPlaceholders
func insertBatchSize(db *gorm.DB) int {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&model.Repository{}); err != nil || len(stmt.Schema.DBNames) == 0 {
		return 500
	}
	return maxPlaceholders / len(stmt.Schema.DBNames)
}

// dedupe 按 github_id 去重, 重复时后出现的覆盖先出现的, 顺序按首次出现
func (r *Reconciler) dedupe(raws []json.RawMessage) ([]int64, map[int64]Fields, error) {
	order := make([]int64, 0, len(raws))
	byID := make(map[int64]Fields, len(raws))
	for _, raw := range raws {
		f, err := Serialize(raw)
		if err != nil {
			return nil, nil, err
		}
		if len(f.InvalidTimestamps) > 0 {
			r.logger.Warn("仓库时间字段格式错误, 已置空",
				zap.Int64("github_id", f.GitHubID),
				zap.Strings("fields", f.InvalidTimestamps),
			)
		}
		if _, seen := byID[f.GitHubID]; !seen {
			order = append(order, f.GitHubID)
		}
		byID[f.GitHubID] = f
	}
	return order, byID, nil
}

// Reconcile 在同一事务内完成: 批量查询已有记录, 逐条更新已有记录, 多行 INSERT 写入新记录
// 查询与插入按 maxPlaceholders 分批, 常规规模下各只有一条语句
func (r *Reconciler) Reconcile(ctx context.Context, userID int64, credential *model.Credential, raws []json.RawMessage) (Result, error) {
	order, byID, err := r.dedupe(raws)
	if err != nil {
		return Result{}, err
	}

	result := Result{Received: len(order)}
	if len(order) == 0 {
		return result, nil
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rowID := make(map[int64]int64, len(order))
		for _, ids := range lo.Chunk(order, maxPlaceholders-1) {
			var existing []model.Repository
			if err := tx.Select("id", "github_id").
				Where("credential_id = ? AND github_id IN ?", credential.ID, ids).
				Find(&existing).Error; err != nil {
				return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询已有仓库失败", err)
			}
			for _, row := range existing {
				rowID[row.GitHubID] = row.ID
			}
		}

		inserts := make([]model.Repository, 0, len(order)-len(rowID))
		for _, githubID := range order {
			fields := byID[githubID]

			id, found := rowID[githubID]
			if !found {
				repo := model.Repository{GitHubID: githubID, CredentialID: credential.ID, UserID: userID}
				fields.Apply(&repo)
				inserts = append(inserts, repo)
				continue
			}

			var values model.Repository
			fields.Apply(&values)
			if err := tx.Model(&model.Repository{}).Where("id = ?", id).Select(mutableColumns).Updates(&values).Error; err != nil {
				return mapWriteError("更新仓库失败", err)
			}
			result.Updated++
		}

		if len(inserts) > 0 {
			if err := tx.CreateInBatches(&inserts, insertBatchSize(tx)).Error; err != nil {
				return mapWriteError("写入仓库失败", err)
			}
			result.Inserted = len(inserts)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("仓库合并失败",
			zap.Int64("user_id", userID),
			zap.Int64("credential_id", credential.ID),
			zap.Error(err),
		)
		return Result{}, err
	}

	r.logger.Info("仓库合并完成",
		zap.Int64("user_id", userID),
		zap.Int64("credential_id", credential.ID),
		zap.Int("received", result.Received),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

// mapWriteError 唯一键冲突映射为冲突错误, 通常由同一凭据的并发同步引起
func mapWriteError(message string, err error) error {
	if repository.IsDuplicateKey(err) {
		return pkgErrors.Wrap(pkgErrors.CodeConflict, "仓库记录冲突, 请稍后重试", err)
	}
	return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, message, err)
}
