package models

import (
	"reflect"
	"testing"
)

func TestEncodeLabelsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
	}{
		{"常规标签集", map[string]string{"__name__": "up", "job": "node-exporter", "instance": "host-a:9100"}},
		{"含特殊字符", map[string]string{"path": `C:\data`, "desc": `it's "quoted"`}},
		{"含中文", map[string]string{"region": "华东", "env": "生产"}},
		{"空标签集", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeLabels(tt.labels)
			decoded, err := DecodeLabels(encoded)
			if err != nil {
				t.Fatalf("解码失败: %v", err)
			}
			if !reflect.DeepEqual(decoded, tt.labels) {
				t.Errorf("往返后标签集不一致: got %v, want %v", decoded, tt.labels)
			}
		})
	}
}

func TestEncodeLabelsNil(t *testing.T) {
	if got := EncodeLabels(nil); got != "{}" {
		t.Errorf("EncodeLabels(nil) = %q, want %q", got, "{}")
	}
}

func TestDecodeLabelsInvalid(t *testing.T) {
	if _, err := DecodeLabels("not json"); err == nil {
		t.Error("非法输入应返回错误")
	}
}

func TestTableName(t *testing.T) {
	if got := (MetricRecord{}).TableName(); got != "prometheus_metrics" {
		t.Errorf("表名 = %q, want prometheus_metrics", got)
	}
}
