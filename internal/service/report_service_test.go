package service

import (
	"testing"

	"github.com/wuchunfu/promch/internal/chclient"
)

func floatPtr(v float64) *float64 { return &v }

func TestFormatOptional(t *testing.T) {
	tests := []struct {
		name   string
		value  *float64
		layout string
		want   string
	}{
		{"缺失值", nil, "%.2f%%", "N/A"},
		{"百分比", floatPtr(85.678), "%.2f%%", "85.68%"},
		{"网络速率", floatPtr(2.0), "%.2f MB/s", "2.00 MB/s"},
		{"负载", floatPtr(0.5), "%.2f", "0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatOptional(tt.value, tt.layout); got != tt.want {
				t.Errorf("formatOptional = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp(0); got != "N/A" {
		t.Errorf("零时间戳 = %q, want N/A", got)
	}
	if got := formatTimestamp(-1); got != "N/A" {
		t.Errorf("负时间戳 = %q, want N/A", got)
	}
	if got := formatTimestamp(1748774445); len(got) != len("2006-01-02 15:04:05") {
		t.Errorf("时间戳格式不正确: %q", got)
	}
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{1000000000, "1,000,000,000"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.input); got != tt.want {
			t.Errorf("groupDigits(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildTopMetricRows(t *testing.T) {
	rows := buildTopMetricRows([]chclient.TopMetric{
		{MetricName: "up", Count: 3, AvgValue: 0.6666666666666666, MaxValue: 1, MinValue: 0},
	})
	if len(rows) != 1 {
		t.Fatalf("行数 = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Count != "3" {
		t.Errorf("count = %q, want 3", row.Count)
	}
	if row.AvgValue != "0.67" {
		t.Errorf("avg = %q, want 0.67（保留两位小数）", row.AvgValue)
	}
	if row.MaxValue != "1.00" || row.MinValue != "0.00" {
		t.Errorf("max/min 格式不正确: %+v", row)
	}
}

func TestBuildNodeRows(t *testing.T) {
	rows := buildNodeRows([]HostOverview{
		{
			Instance: "host-a:9100",
			Hostname: "web-01",
			Status:   floatPtr(1),
			CPU:      floatPtr(12.345),
			NetIn:    floatPtr(2.0),
			LatestTS: 1748774445,
		},
		{
			Instance: "host-b:9100",
			Status:   floatPtr(0),
		},
	})
	if len(rows) != 2 {
		t.Fatalf("行数 = %d, want 2", len(rows))
	}
	online, offline := rows[0], rows[1]
	if !online.Online {
		t.Error("status=1 的主机应标记为在线")
	}
	if online.CPU != "12.35%" {
		t.Errorf("cpu = %q, want 12.35%%", online.CPU)
	}
	if online.NetIn != "2.00 MB/s" {
		t.Errorf("net_in = %q, want 2.00 MB/s", online.NetIn)
	}
	if offline.Online {
		t.Error("status=0 的主机应标记为离线")
	}
	if offline.Hostname != "-" {
		t.Errorf("缺失主机名应显示为 -, got %q", offline.Hostname)
	}
	if offline.Memory != "N/A" || offline.LastScrape != "N/A" {
		t.Errorf("缺失字段应显示为 N/A: %+v", offline)
	}
}
