package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// reportCmd 单次报表生成
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "生成 HTML 监控报表",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		a.logger.Info("启动监控报表生成器")
		filename, err := a.reportService.Generate(cmd.Context())
		if err != nil {
			a.logger.Error("报表生成失败", zap.Error(err))
			return err
		}
		a.logger.Info("报表文件已生成", zap.String("file", filename))
		return nil
	},
}
