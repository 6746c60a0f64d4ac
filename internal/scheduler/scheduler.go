package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gh-integration/internal/pkg/config"
)

const (
	defaultSyncCron = "0 0 2 * * *" // 每天凌晨2点
	jobRepoSync     = "repo_sync"
)

// ErrSyncRunning 已有一轮同步在执行
var ErrSyncRunning = errors.New("代码库同步正在执行中")

// Syncer 定时同步入口
type Syncer interface {
	SyncAll(ctx context.Context) error
}

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	syncer        Syncer
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理

	// 上一轮同步未结束时跳过本轮
	running sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler 创建调度器
func NewScheduler(syncer Syncer, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		// cron 表达式格式: 秒 分 时 日 月 周
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger,
		syncer:        syncer,
		cronSchedules: make(map[string]cron.EntryID),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start 注册同步任务并启动调度器, sync.enabled=false 时不注册任何任务
func (s *Scheduler) Start(cfg *config.SyncConfig) error {
	log := s.logger.Sugar()

	if !cfg.Enabled {
		log.Info("定时同步未启用，跳过注册")
		return nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultSyncCron
		log.Warnw("未配置sync.cron，使用默认值", "cron", cronExpr)
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.runRepoSync)
	if err != nil {
		log.Errorf("注册代码库: %v 同步任务失败: %v", cronExpr, err)
		return err
	}

	s.cronSchedules[jobRepoSync] = entryID
	log.Infof("代码库同步任务已注册: %s entry_id=%d", cronExpr, entryID)

	s.cron.Start()
	log.Info("定时任务调度器启动成功")
	return nil
}

// Stop 停止调度器, 取消正在执行的同步并等待其退出
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

// TriggerRepoSync 手动触发一轮全量同步
func (s *Scheduler) TriggerRepoSync() error {
	if !s.running.TryLock() {
		return ErrSyncRunning
	}
	defer s.running.Unlock()

	s.logger.Info("手动触发代码库同步")
	return s.syncer.SyncAll(s.ctx)
}

// Entries 已注册的任务
func (s *Scheduler) Entries() map[string]cron.EntryID {
	return s.cronSchedules
}

func (s *Scheduler) runRepoSync() {
	if !s.running.TryLock() {
		s.logger.Warn("上一轮代码库同步尚未结束，跳过本轮")
		return
	}
	defer s.running.Unlock()

	s.logger.Info("执行定时任务: 代码库同步")
	if err := s.syncer.SyncAll(s.ctx); err != nil {
		s.logger.Error("代码库同步任务执行失败", zap.Error(err))
	}
}
