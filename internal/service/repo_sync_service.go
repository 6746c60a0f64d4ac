package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"gh-integration/internal/core/credential"
	"gh-integration/internal/core/reconcile"
	"gh-integration/internal/dto"
	"gh-integration/internal/model"
	"gh-integration/internal/pkg/config"
	"gh-integration/internal/pkg/git/api"
	"gh-integration/internal/repository"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
)

// RepoSyncService 从 GitHub 拉取仓库并合并到本地镜像表
type RepoSyncService struct {
	manager     *credential.Manager
	reconciler  *reconcile.Reconciler
	userRepo    repository.UserRepository
	runRepo     repository.SyncRunRepository
	githubCfg   *config.GitHubConfig
	newProvider api.ProviderFactory
	logger      *zap.Logger
}

// NewRepoSyncService 创建代码库同步服务
func NewRepoSyncService(
	manager *credential.Manager,
	reconciler *reconcile.Reconciler,
	userRepo repository.UserRepository,
	runRepo repository.SyncRunRepository,
	githubCfg *config.GitHubConfig,
	newProvider api.ProviderFactory,
	logger *zap.Logger,
) *RepoSyncService {
	return &RepoSyncService{
		manager:     manager,
		reconciler:  reconciler,
		userRepo:    userRepo,
		runRepo:     runRepo,
		githubCfg:   githubCfg,
		newProvider: newProvider,
		logger:      logger,
	}
}

// SyncForPrincipal 使用选定凭据同步用户可见的仓库, credentialID 为 0 时使用默认凭据
// 每次调用都会留下一条同步记录, 失败时记录错误信息
func (s *RepoSyncService) SyncForPrincipal(ctx context.Context, userID, credentialID int64, trigger string) (*dto.SyncRepositoriesResponse, error) {
	run := &model.SyncRun{
		RunID:   uuid.NewString(),
		UserID:  userID,
		Trigger: trigger,
		Status:  constants.SyncStatusRunning,
	}
	if credentialID > 0 {
		run.CredentialID = lo.ToPtr(credentialID)
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("run_id", run.RunID), zap.Int64("user_id", userID))
	log.Info("开始同步仓库", zap.Int64("credential_id", credentialID), zap.String("trigger", trigger))

	fetched, result, err := s.sync(ctx, run, userID, credentialID)

	now := time.Now()
	run.FinishedAt = &now
	run.Fetched = fetched
	run.Inserted = result.Inserted
	run.Updated = result.Updated
	if err != nil {
		run.Status = constants.SyncStatusFailed
		run.Message = lo.ToPtr(err.Error())
		log.Error("同步仓库失败", zap.Error(err))
	} else {
		run.Status = constants.SyncStatusSuccess
		run.Message = lo.ToPtr(fmt.Sprintf("同步完成: 新增 %d 个, 更新 %d 个", result.Inserted, result.Updated))
		log.Info("同步仓库完成",
			zap.Int("fetched", fetched),
			zap.Int("inserted", result.Inserted),
			zap.Int("updated", result.Updated),
		)
	}

	// 请求已取消时仍需落库同步结果
	if finishErr := s.runRepo.Finish(context.WithoutCancel(ctx), run); finishErr != nil {
		log.Warn("更新同步记录失败", zap.Error(finishErr))
	}
	if err != nil {
		return nil, err
	}

	return &dto.SyncRepositoriesResponse{
		RunID:        run.RunID,
		CredentialID: lo.FromPtr(run.CredentialID),
		Fetched:      fetched,
		Inserted:     result.Inserted,
		Updated:      result.Updated,
	}, nil
}

func (s *RepoSyncService) sync(ctx context.Context, run *model.SyncRun, userID, credentialID int64) (int, reconcile.Result, error) {
	cred, err := reconcile.SelectCredential(ctx, s.manager, userID, credentialID)
	if err != nil {
		return 0, reconcile.Result{}, err
	}
	run.CredentialID = lo.ToPtr(cred.ID)

	headers, err := s.manager.GetAuthHeaders(ctx, cred)
	if err != nil {
		return 0, reconcile.Result{}, err
	}

	provider, err := s.newProvider(providerConfig(s.githubCfg, headers))
	if err != nil {
		return 0, reconcile.Result{}, pkgErrors.WrapUser("创建 GitHub 客户端失败", err)
	}

	raws, err := provider.ListUserRepositories(ctx)
	if err != nil {
		return 0, reconcile.Result{}, err
	}

	result, err := s.reconciler.Reconcile(ctx, userID, cred, raws)
	if err != nil {
		return len(raws), reconcile.Result{}, err
	}
	return len(raws), result, nil
}

// SyncAll 定时任务入口: 遍历所有可同步用户, 每个凭据每轮只同步一次
// 单个用户或凭据失败只记录日志, 不影响其他同步
func (s *RepoSyncService) SyncAll(ctx context.Context) error {
	users, err := s.userRepo.ListSyncCandidates(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		s.logger.Info("没有可同步的用户，跳过同步")
		return nil
	}

	s.logger.Info("开始定时同步仓库", zap.Int("user_count", len(users)))

	done := make(map[int64]struct{})
	success, failed := 0, 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		available, err := s.manager.ResolveForPrincipal(ctx, user.ID)
		if err != nil {
			s.logger.Error("查询用户可用凭据失败", zap.Int64("user_id", user.ID), zap.Error(err))
			failed++
			continue
		}

		for _, cred := range available {
			if _, ok := done[cred.ID]; ok {
				continue
			}
			done[cred.ID] = struct{}{}

			if _, err := s.SyncForPrincipal(ctx, user.ID, cred.ID, constants.SyncTriggerSchedule); err != nil {
				failed++
				continue
			}
			success++
		}
	}

	s.logger.Info("定时同步仓库结束", zap.Int("success", success), zap.Int("failed", failed))
	return nil
}

// ListRuns 用户最近的同步记录
func (s *RepoSyncService) ListRuns(ctx context.Context, userID int64, limit int) ([]*dto.SyncRunResponse, error) {
	runs, err := s.runRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(runs, func(r *model.SyncRun, _ int) *dto.SyncRunResponse {
		return &dto.SyncRunResponse{
			RunID:        r.RunID,
			CredentialID: r.CredentialID,
			Trigger:      r.Trigger,
			Status:       r.Status,
			Fetched:      r.Fetched,
			Inserted:     r.Inserted,
			Updated:      r.Updated,
			Message:      r.Message,
			CreatedAt:    r.CreatedAt.Format(time.DateTime),
			FinishedAt:   r.FinishedAt,
		}
	}), nil
}
