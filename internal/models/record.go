package models

import (
	"encoding/json"
	"time"
)

// MetricRecord 一条可入库的扁平指标记录
// 每次采集运行时创建，写入一次后不再变更；过期清理由存储端 TTL 负责。
type MetricRecord struct {
	// Timestamp 为本次抓取的墙钟时间，不是数据源自带的采样时间——
	// 存储的时间轴表达的是"我们何时观测到"，二者不可混用。
	Timestamp  time.Time `json:"timestamp"`
	MetricName string    `json:"metric_name"` // 始终非空（无 __name__ 时回退为查询表达式）
	Value      float64   `json:"value"`       // 始终为有限值
	Labels     string    `json:"labels"`      // 完整标签集的 JSON 编码（无损，可解码）
	Job        string    `json:"job"`         // 标签缺失时为空字符串
	Instance   string    `json:"instance"`    // 标签缺失时为空字符串
}

// TableName 存储端表名
func (MetricRecord) TableName() string {
	return "prometheus_metrics"
}

// EncodeLabels 将标签集编码为规范的 JSON 字符串
func EncodeLabels(labels map[string]string) string {
	if labels == nil {
		labels = map[string]string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DecodeLabels 解码 EncodeLabels 的输出（用于调试与测试中的等值比较）
func DecodeLabels(encoded string) (map[string]string, error) {
	labels := make(map[string]string)
	if err := json.Unmarshal([]byte(encoded), &labels); err != nil {
		return nil, err
	}
	return labels, nil
}
