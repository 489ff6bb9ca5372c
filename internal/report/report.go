package report

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed template.html
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "template.html"))

// Data 报表渲染数据（纯展示值，格式化已完成）
type Data struct {
	GeneratedAt  string
	TotalRecords string // 千分位格式
	MetricTypes  uint64
	EarliestTime string // 无数据时为 "N/A"
	LatestTime   string
	TopMetrics   []TopMetricRow
	JobStats     []JobStatRow
	NodeOverview []NodeRow
	RecentData   []RecentRow
}

// TopMetricRow Top 指标统计行
type TopMetricRow struct {
	MetricName string
	Count      string
	AvgValue   string
	MaxValue   string
	MinValue   string
}

// JobStatRow 按 Job 统计行
type JobStatRow struct {
	Job         string
	Count       string
	MetricTypes uint64
	LatestTime  string
}

// NodeRow 主机概览行（缺失字段已替换为 N/A）
type NodeRow struct {
	Instance   string
	Hostname   string
	Online     bool
	CPU        string
	Memory     string
	Disk       string
	NetIn      string
	NetOut     string
	Load1      string
	LastScrape string
}

// RecentRow 最新数据行
type RecentRow struct {
	MetricName string
	Value      float64
	Job        string
	Instance   string
	Time       string
}

// Render 渲染 HTML 报表
func Render(data *Data) (string, error) {
	var builder strings.Builder
	if err := reportTemplate.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("渲染报表模板失败: %w", err)
	}
	return builder.String(), nil
}
