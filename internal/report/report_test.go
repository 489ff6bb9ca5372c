package report

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	data := &Data{
		GeneratedAt:  "2025-06-01 12:30:45",
		TotalRecords: "1,234",
		MetricTypes:  4,
		EarliestTime: "2025-06-01 00:00:00",
		LatestTime:   "2025-06-01 12:30:00",
		TopMetrics: []TopMetricRow{
			{MetricName: "up", Count: "3", AvgValue: "0.67", MaxValue: "1.00", MinValue: "0.00"},
		},
		JobStats: []JobStatRow{
			{Job: "node-exporter", Count: "1,000", MetricTypes: 2, LatestTime: "2025-06-01 12:30:00"},
		},
		NodeOverview: []NodeRow{
			{Instance: "host-a:9100", Hostname: "web-01", Online: true, CPU: "12.35%", Memory: "45.00%", Disk: "60.00%", NetIn: "2.00 MB/s", NetOut: "1.50 MB/s", Load1: "0.50", LastScrape: "2025-06-01 12:30:00"},
			{Instance: "host-b:9100", Hostname: "-", Online: false, CPU: "N/A", Memory: "N/A", Disk: "N/A", NetIn: "N/A", NetOut: "N/A", Load1: "N/A", LastScrape: "N/A"},
		},
		RecentData: []RecentRow{
			{MetricName: "up", Value: 1, Job: "node-exporter", Instance: "host-a:9100", Time: "2025-06-01 12:30:00"},
		},
	}

	html, err := Render(data)
	if err != nil {
		t.Fatalf("渲染不应失败: %v", err)
	}
	for _, fragment := range []string{
		"1,234",
		"host-a:9100",
		"web-01",
		"在线",
		"离线",
		"N/A",
		"2.00 MB/s",
		"0.67",
	} {
		if !strings.Contains(html, fragment) {
			t.Errorf("渲染结果缺少片段 %q", fragment)
		}
	}
}

func TestRenderEmptyData(t *testing.T) {
	html, err := Render(&Data{
		GeneratedAt:  "2025-06-01 12:30:45",
		TotalRecords: "0",
		EarliestTime: "N/A",
		LatestTime:   "N/A",
	})
	if err != nil {
		t.Fatalf("空数据渲染不应失败: %v", err)
	}
	if !strings.Contains(html, "暂无 Node Exporter 指标数据") {
		t.Error("无主机数据时应显示空状态提示")
	}
}
