package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-orz/cache"
	"github.com/wuchunfu/promch/internal/chclient"
	"github.com/wuchunfu/promch/internal/config"
	"github.com/wuchunfu/promch/internal/report"
	"go.uber.org/zap"
)

// ReportService 报表生成服务
// 只做取数与格式化，不包含业务逻辑；任一数据段取数失败都降级为空段，
// 报表整体仍然生成（宁可输出降级报表也不中断）。
type ReportService struct {
	logger    *zap.Logger
	store     *chclient.Client
	overview  *OverviewService
	outputDir string

	// serve 模式下缓存渲染结果，避免每次请求都打满存储
	htmlCache cache.Cache[string, string]
}

const htmlCacheKey = "latest"

// NewReportService 创建报表服务
func NewReportService(logger *zap.Logger, store *chclient.Client, overview *OverviewService, cfg config.ReportConfig) *ReportService {
	return &ReportService{
		logger:    logger,
		store:     store,
		overview:  overview,
		outputDir: cfg.OutputDir,
		htmlCache: cache.New[string, string](time.Minute),
	}
}

// Build 收集并格式化报表数据
func (s *ReportService) Build(ctx context.Context) *report.Data {
	data := &report.Data{
		GeneratedAt:  time.Now().Format("2006-01-02 15:04:05"),
		TotalRecords: "0",
		EarliestTime: "N/A",
		LatestTime:   "N/A",
	}

	total, err := s.store.CountRecords(ctx)
	if err != nil {
		s.logger.Warn("查询总记录数失败", zap.Error(err))
	} else {
		data.TotalRecords = groupDigits(total)
	}

	metricTypes, err := s.store.CountDistinctMetrics(ctx)
	if err != nil {
		s.logger.Warn("查询指标类型数失败", zap.Error(err))
	} else {
		data.MetricTypes = metricTypes
	}

	if total > 0 {
		earliest, latest, err := s.store.TimeBounds(ctx)
		if err != nil {
			s.logger.Warn("查询数据时间范围失败", zap.Error(err))
		} else {
			if earliest != "" {
				data.EarliestTime = earliest
			}
			if latest != "" {
				data.LatestTime = latest
			}
		}
	}

	topMetrics, err := s.store.TopMetrics(ctx, 10)
	if err != nil {
		s.logger.Warn("查询 Top 指标失败", zap.Error(err))
	}
	data.TopMetrics = buildTopMetricRows(topMetrics)

	jobStats, err := s.store.JobStats(ctx)
	if err != nil {
		s.logger.Warn("查询 Job 统计失败", zap.Error(err))
	}
	data.JobStats = buildJobStatRows(jobStats)

	recent, err := s.store.RecentRecords(ctx, 20)
	if err != nil {
		s.logger.Warn("查询最新数据失败", zap.Error(err))
	}
	data.RecentData = buildRecentRows(recent)

	data.NodeOverview = buildNodeRows(s.overview.Aggregate(ctx))
	return data
}

// Generate 生成报表文件：时间戳命名的快照 + latest_report.html
func (s *ReportService) Generate(ctx context.Context) (string, error) {
	s.logger.Info("生成监控数据报表")

	html, err := report.Render(s.Build(ctx))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建报表目录失败: %w", err)
	}

	filename := filepath.Join(s.outputDir,
		fmt.Sprintf("prometheus_report_%s.html", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(filename, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("写入报表文件失败: %w", err)
	}

	latest := filepath.Join(s.outputDir, "latest_report.html")
	if err := os.WriteFile(latest, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("写入最新报表失败: %w", err)
	}

	s.htmlCache.Set(htmlCacheKey, html, time.Minute)
	s.logger.Info("报表生成完成",
		zap.String("file", filename),
		zap.String("latest", latest))
	return filename, nil
}

// RenderCached 返回缓存的渲染结果，过期则重新取数渲染（serve 模式用）
func (s *ReportService) RenderCached(ctx context.Context) (string, error) {
	if html, ok := s.htmlCache.Get(htmlCacheKey); ok {
		return html, nil
	}
	html, err := report.Render(s.Build(ctx))
	if err != nil {
		return "", err
	}
	s.htmlCache.Set(htmlCacheKey, html, time.Minute)
	return html, nil
}

// ===== 展示格式化 =====
// 格式化对缺失值一律输出 "N/A"，绝不因字段缺失而失败。

func buildTopMetricRows(metrics []chclient.TopMetric) []report.TopMetricRow {
	rows := make([]report.TopMetricRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, report.TopMetricRow{
			MetricName: m.MetricName,
			Count:      groupDigits(uint64(m.Count)),
			AvgValue:   fmt.Sprintf("%.2f", m.AvgValue),
			MaxValue:   fmt.Sprintf("%.2f", m.MaxValue),
			MinValue:   fmt.Sprintf("%.2f", m.MinValue),
		})
	}
	return rows
}

func buildJobStatRows(stats []chclient.JobStat) []report.JobStatRow {
	rows := make([]report.JobStatRow, 0, len(stats))
	for _, stat := range stats {
		rows = append(rows, report.JobStatRow{
			Job:         stat.Job,
			Count:       groupDigits(uint64(stat.Count)),
			MetricTypes: uint64(stat.MetricTypes),
			LatestTime:  stat.LatestTime,
		})
	}
	return rows
}

func buildRecentRows(records []chclient.RecentRecord) []report.RecentRow {
	rows := make([]report.RecentRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, report.RecentRow{
			MetricName: record.MetricName,
			Value:      record.Value,
			Job:        record.Job,
			Instance:   record.Instance,
			Time:       record.Time,
		})
	}
	return rows
}

func buildNodeRows(overview []HostOverview) []report.NodeRow {
	rows := make([]report.NodeRow, 0, len(overview))
	for _, entry := range overview {
		hostname := entry.Hostname
		if hostname == "" {
			hostname = "-"
		}
		rows = append(rows, report.NodeRow{
			Instance:   entry.Instance,
			Hostname:   hostname,
			Online:     entry.Reachable(),
			CPU:        formatOptional(entry.CPU, "%.2f%%"),
			Memory:     formatOptional(entry.Memory, "%.2f%%"),
			Disk:       formatOptional(entry.Disk, "%.2f%%"),
			NetIn:      formatOptional(entry.NetIn, "%.2f MB/s"),
			NetOut:     formatOptional(entry.NetOut, "%.2f MB/s"),
			Load1:      formatOptional(entry.Load1, "%.2f"),
			LastScrape: formatTimestamp(entry.LatestTS),
		})
	}
	return rows
}

// formatOptional 缺失值输出 N/A
func formatOptional(value *float64, layout string) string {
	if value == nil {
		return "N/A"
	}
	return fmt.Sprintf(layout, *value)
}

// formatTimestamp 格式化 Unix 秒级时间戳，零值输出 N/A
func formatTimestamp(ts float64) string {
	if ts <= 0 {
		return "N/A"
	}
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).Format("2006-01-02 15:04:05")
}

// groupDigits 千分位格式化
func groupDigits(n uint64) string {
	digits := strconv.FormatUint(n, 10)
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}
