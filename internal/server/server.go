package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wuchunfu/promch/internal/config"
	"github.com/wuchunfu/promch/internal/service"
	"go.uber.org/zap"
)

// Server serve 模式的 HTTP 服务
// 对外提供最新报表、历史报表文件与存活探针。
type Server struct {
	echo          *echo.Echo
	reportService *service.ReportService
	logger        *zap.Logger
	listen        string
}

// New 创建 HTTP 服务
func New(cfg config.ServeConfig, reportCfg config.ReportConfig, reportService *service.ReportService, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:          e,
		reportService: reportService,
		logger:        logger,
		listen:        cfg.Listen,
	}

	e.GET("/", s.latestReport)
	e.GET("/healthz", s.healthz)
	e.Static("/reports", reportCfg.OutputDir)

	return s
}

// latestReport 渲染（或返回缓存的）最新报表
func (s *Server) latestReport(c echo.Context) error {
	html, err := s.reportService.RenderCached(c.Request().Context())
	if err != nil {
		s.logger.Error("渲染报表失败", zap.Error(err))
		return c.String(http.StatusInternalServerError, "report unavailable")
	}
	return c.HTML(http.StatusOK, html)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start 启动监听（阻塞）
func (s *Server) Start() error {
	s.logger.Info("启动 HTTP 服务", zap.String("listen", s.listen))
	return s.echo.Start(s.listen)
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
