package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wuchunfu/promch/internal/chclient"
	"github.com/wuchunfu/promch/internal/config"
	"github.com/wuchunfu/promch/internal/promclient"
	"github.com/wuchunfu/promch/internal/service"
	"github.com/wuchunfu/promch/internal/xlog"
	"go.uber.org/zap"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "promch",
	Short:         "Prometheus 快照同步 ClickHouse 与主机概览报表工具",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(syncCmd, reportCmd, serveCmd, initCmd)
}

// app 单次命令运行的依赖集合
type app struct {
	cfg           *config.Config
	logger        *zap.Logger
	prom          *promclient.Client
	store         *chclient.Client
	syncService   *service.SyncService
	overview      *service.OverviewService
	reportService *service.ReportService
}

// newApp 构建配置与依赖：配置只在这里加载一次，之后全部按参数传递
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger := xlog.New(cfg.Log).With(zap.String("run_id", uuid.NewString()))
	prom := promclient.NewClient(cfg.Prometheus, logger)
	store := chclient.NewClient(cfg.ClickHouse, logger)
	overview := service.NewOverviewService(logger, prom)

	return &app{
		cfg:           cfg,
		logger:        logger,
		prom:          prom,
		store:         store,
		syncService:   service.NewSyncService(logger, prom, store),
		overview:      overview,
		reportService: service.NewReportService(logger, store, overview, cfg.Report),
	}, nil
}

// preflight 服务预检：指标源与存储都可达才继续
func (a *app) preflight(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.logger.Info("检查服务状态")

	if err := a.prom.Healthy(ctx); err != nil {
		a.logger.Error("Prometheus 无法连接", zap.Error(err))
		return fmt.Errorf("服务检查失败: %w", err)
	}
	a.logger.Info("Prometheus 正常")

	if err := a.store.Ping(ctx); err != nil {
		a.logger.Error("ClickHouse 无法连接", zap.Error(err))
		return fmt.Errorf("服务检查失败: %w", err)
	}
	a.logger.Info("ClickHouse 正常")
	return nil
}
