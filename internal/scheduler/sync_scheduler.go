package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/wuchunfu/promch/internal/service"
	"go.uber.org/zap"
)

// SyncScheduler 周期同步调度器（serve 模式）
// 每个间隔执行一次快照同步并重新生成报表；上一轮未结束时跳过本轮。
type SyncScheduler struct {
	mu      sync.Mutex
	running bool

	cron          *cron.Cron
	syncService   *service.SyncService
	reportService *service.ReportService
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewSyncScheduler 创建调度器
func NewSyncScheduler(syncService *service.SyncService, reportService *service.ReportService, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{
		cron:          cron.New(cron.WithSeconds()), // 支持秒级调度
		syncService:   syncService,
		reportService: reportService,
		logger:        logger,
	}
}

// Start 启动调度器，按 intervalSeconds 周期执行
func (s *SyncScheduler) Start(ctx context.Context, intervalSeconds int) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	spec := fmt.Sprintf("@every %ds", intervalSeconds)
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return fmt.Errorf("添加同步任务失败: %w", err)
	}

	s.logger.Info("启动同步调度器", zap.Int("interval", intervalSeconds))
	s.cron.Start()
	return nil
}

// Stop 停止调度器，等待在途任务结束
func (s *SyncScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("同步调度器已停止")
}

// runOnce 执行一轮同步 + 报表
func (s *SyncScheduler) runOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("上一轮同步尚未结束，跳过本轮")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.syncService.Run(s.ctx); err != nil {
		s.logger.Error("同步运行失败", zap.Error(err))
		// 同步失败仍然尝试生成报表，尽力输出可得数据
	}
	if _, err := s.reportService.Generate(s.ctx); err != nil {
		s.logger.Error("生成报表失败", zap.Error(err))
	}
}
