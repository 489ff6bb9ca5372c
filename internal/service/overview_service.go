package service

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
)

// HostOverview 单台主机的概览条目（按 instance 唯一）
// 每个指标字段均为可选：nil 表示该指标对这台主机不可用，
// 某个指标缺失不影响同一条目的其他字段，也不会抑制整行输出。
type HostOverview struct {
	Instance string   `json:"instance"`
	Hostname string   `json:"hostname,omitempty"` // 来自 node_uname_info 的 nodename 标签
	Status   *float64 `json:"status,omitempty"`   // up 数值原样保留，不做布尔化
	CPU      *float64 `json:"cpu,omitempty"`      // 使用率(%)
	Memory   *float64 `json:"memory,omitempty"`   // 使用率(%)
	Disk     *float64 `json:"disk,omitempty"`     // 使用率(%)
	NetIn    *float64 `json:"net_in,omitempty"`   // MB/s
	NetOut   *float64 `json:"net_out,omitempty"`  // MB/s
	Load1    *float64 `json:"load1,omitempty"`    // 1 分钟负载
	LatestTS float64  `json:"latest_ts"`          // 各查询观测到的最大时间戳(秒)，仅用于陈旧度展示
}

// Reachable 在线判定：状态值 >= 0.5 视为可达
func (h *HostOverview) Reachable() bool {
	return h.Status != nil && *h.Status >= 0.5
}

const bytesPerMB = 1024 * 1024

// overviewQuery 概览查询定义
// setValue 为数值模式：变换后的有限值写入目标字段；
// fromLabel 非空时为标签复制模式：仅更新目标字段与 LatestTS，不触碰数值字段。
type overviewQuery struct {
	name      string
	query     string
	transform func(float64) float64
	setValue  func(entry *HostOverview, value float64)
	fromLabel string
	setLabel  func(entry *HostOverview, value string)
}

// overviewQueries 固定有序的概览查询集（node-exporter 核心指标）
func overviewQueries() []overviewQuery {
	return []overviewQuery{
		{
			name:     "cpu",
			query:    `100 - (avg by(instance) (rate(node_cpu_seconds_total{job="node-exporter",mode="idle"}[5m])) * 100)`,
			setValue: func(e *HostOverview, v float64) { e.CPU = &v },
		},
		{
			name:     "memory",
			query:    `((node_memory_MemTotal_bytes{job="node-exporter"} - node_memory_MemAvailable_bytes{job="node-exporter"}) / node_memory_MemTotal_bytes{job="node-exporter"}) * 100`,
			setValue: func(e *HostOverview, v float64) { e.Memory = &v },
		},
		{
			name:     "disk",
			query:    `max by(instance) ((node_filesystem_size_bytes{job="node-exporter",fstype!~"tmpfs|fuse.lxcfs|overlay",mountpoint!~"^/(sys|proc|dev|run)($|/)"} - node_filesystem_avail_bytes{job="node-exporter",fstype!~"tmpfs|fuse.lxcfs|overlay",mountpoint!~"^/(sys|proc|dev|run)($|/)"}) / node_filesystem_size_bytes{job="node-exporter",fstype!~"tmpfs|fuse.lxcfs|overlay",mountpoint!~"^/(sys|proc|dev|run)($|/)"} * 100)`,
			setValue: func(e *HostOverview, v float64) { e.Disk = &v },
		},
		{
			name:      "net_in",
			query:     `sum by(instance) (rate(node_network_receive_bytes_total{job="node-exporter"}[5m]))`,
			transform: func(v float64) float64 { return v / bytesPerMB },
			setValue:  func(e *HostOverview, v float64) { e.NetIn = &v },
		},
		{
			name:      "net_out",
			query:     `sum by(instance) (rate(node_network_transmit_bytes_total{job="node-exporter"}[5m]))`,
			transform: func(v float64) float64 { return v / bytesPerMB },
			setValue:  func(e *HostOverview, v float64) { e.NetOut = &v },
		},
		{
			name:     "load1",
			query:    `node_load1{job="node-exporter"}`,
			setValue: func(e *HostOverview, v float64) { e.Load1 = &v },
		},
		{
			name:     "status",
			query:    `up{job="node-exporter"}`,
			setValue: func(e *HostOverview, v float64) { e.Status = &v },
		},
		{
			name:      "hostname",
			query:     `node_uname_info{job="node-exporter"}`,
			fromLabel: "nodename",
			setLabel:  func(e *HostOverview, v string) { e.Hostname = v },
		},
	}
}

// OverviewService 主机概览聚合服务
type OverviewService struct {
	logger *zap.Logger
	prom   Querier
}

// NewOverviewService 创建概览聚合服务
func NewOverviewService(logger *zap.Logger, prom Querier) *OverviewService {
	return &OverviewService{
		logger: logger,
		prom:   prom,
	}
}

// Aggregate 按序执行概览查询集，按 instance 合并为概览条目
// 条目在任一查询首次命中该 instance 时惰性创建，单轮聚合内不会删除；
// 同一查询对同一 instance 出现多个采样时后写覆盖（last-write-wins）；
// 单个查询整体失败只会让对应字段缺失，聚合始终跑完全部查询；
// 输出按 instance 升序排列，保证报表与测试的稳定顺序。
func (s *OverviewService) Aggregate(ctx context.Context) []HostOverview {
	entries := make(map[string]*HostOverview)
	ensure := func(instance string) *HostOverview {
		entry, ok := entries[instance]
		if !ok {
			entry = &HostOverview{Instance: instance}
			entries[instance] = entry
		}
		return entry
	}

	for _, q := range overviewQueries() {
		samples, err := s.prom.Query(ctx, q.query)
		if err != nil {
			s.logger.Warn("概览查询失败",
				zap.String("name", q.name),
				zap.Error(err))
			continue
		}

		for _, sample := range samples {
			// 无 instance 标签的采样无法归属主机，丢弃
			instance := sample.Labels["instance"]
			if instance == "" {
				continue
			}

			// 标签复制模式：仅更新目标字段与 LatestTS
			if q.fromLabel != "" {
				entry := ensure(instance)
				q.setLabel(entry, sample.Labels[q.fromLabel])
				raiseLatest(entry, sample.Timestamp)
				continue
			}

			value := sample.Value
			if !isFinite(value) {
				continue
			}
			if q.transform != nil {
				value = q.transform(value)
				// 变换后再次检查有限性
				if !isFinite(value) {
					continue
				}
			}

			entry := ensure(instance)
			q.setValue(entry, value)
			raiseLatest(entry, sample.Timestamp)
		}
	}

	overview := make([]HostOverview, 0, len(entries))
	for _, entry := range entries {
		overview = append(overview, *entry)
	}
	sort.Slice(overview, func(i, j int) bool {
		return overview[i].Instance < overview[j].Instance
	})
	return overview
}

func raiseLatest(entry *HostOverview, ts float64) {
	if ts > entry.LatestTS {
		entry.LatestTS = ts
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
