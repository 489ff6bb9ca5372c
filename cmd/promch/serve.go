package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wuchunfu/promch/internal/scheduler"
	"github.com/wuchunfu/promch/internal/server"
	"go.uber.org/zap"
)

// serveCmd 常驻模式：周期同步 + 报表 + HTTP 服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "常驻运行：周期同步并通过 HTTP 提供报表",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		if err := a.preflight(cmd); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// 启动时先完整跑一轮，保证 HTTP 服务一开始就有数据可展示
		if err := a.syncService.Run(ctx); err != nil {
			a.logger.Error("首次同步失败", zap.Error(err))
			return err
		}
		if _, err := a.reportService.Generate(ctx); err != nil {
			a.logger.Error("首次报表生成失败", zap.Error(err))
		}

		sched := scheduler.NewSyncScheduler(a.syncService, a.reportService, a.logger)
		if err := sched.Start(ctx, a.cfg.Serve.SyncInterval); err != nil {
			return err
		}
		defer sched.Stop()

		srv := server.New(a.cfg.Serve, a.cfg.Report, a.reportService, a.logger)
		go func() {
			if err := srv.Start(); err != nil {
				a.logger.Error("HTTP 服务退出", zap.Error(err))
				cancel()
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			a.logger.Info("收到退出信号")
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	},
}
