package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd 单次快照同步：预检、建表、抓取、写入、校验
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "执行一次 Prometheus 到 ClickHouse 的快照同步",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		a.logger.Info("启动 Prometheus 到 ClickHouse 数据同步")
		if err := a.preflight(cmd); err != nil {
			return err
		}
		if err := a.syncService.Run(cmd.Context()); err != nil {
			a.logger.Error("数据同步失败", zap.Error(err))
			return err
		}
		a.logger.Info("数据同步完成")
		return nil
	},
}

// initCmd 仅执行数据库与指标表的初始化
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化 ClickHouse 数据库和指标表",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		ctx := cmd.Context()
		if err := a.store.EnsureDatabase(ctx); err != nil {
			a.logger.Error("创建数据库失败", zap.Error(err))
			return err
		}
		if err := a.store.EnsureTable(ctx); err != nil {
			a.logger.Error("创建指标表失败", zap.Error(err))
			return err
		}
		a.logger.Info("ClickHouse 初始化完成", zap.String("database", a.store.Database()))
		return nil
	},
}
