package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wuchunfu/promch/internal/chclient"
	"github.com/wuchunfu/promch/internal/models"
	"github.com/wuchunfu/promch/internal/promclient"
	"go.uber.org/zap"
)

// Querier 即时查询接口（由 promclient.Client 实现）
type Querier interface {
	Query(ctx context.Context, expression string) ([]promclient.Sample, error)
}

// snapshotQueries 每次同步运行抓取的固定指标集
var snapshotQueries = []string{
	"up",
	"prometheus_tsdb_head_samples_appended_total",
	"node_cpu_seconds_total",
	"process_resident_memory_bytes",
}

// SyncService 快照同步服务：查询 -> 规范化 -> 写入
type SyncService struct {
	logger *zap.Logger
	prom   Querier
	store  *chclient.Client
}

// NewSyncService 创建同步服务
func NewSyncService(logger *zap.Logger, prom Querier, store *chclient.Client) *SyncService {
	return &SyncService{
		logger: logger,
		prom:   prom,
		store:  store,
	}
}

// Collect 执行固定查询集并规范化为可入库记录
// 单个查询失败只记录日志并继续，不影响其余查询。
func (s *SyncService) Collect(ctx context.Context) []models.MetricRecord {
	fetchedAt := time.Now()
	var records []models.MetricRecord

	for _, expression := range snapshotQueries {
		samples, err := s.prom.Query(ctx, expression)
		if err != nil {
			s.logger.Error("获取 Prometheus 指标失败",
				zap.String("query", expression),
				zap.Error(err))
			continue
		}
		for _, sample := range samples {
			record, ok := normalizeSample(expression, sample, fetchedAt)
			if !ok {
				continue
			}
			records = append(records, record)
		}
	}
	return records
}

// normalizeSample 将单个采样点规范化为 MetricRecord
// 指标名取 __name__ 标签，缺失时回退为查询表达式（聚合/派生查询也有稳定命名）；
// 非有限值（NaN/Inf）直接丢弃，不会以零值或空值形式入库；
// 记录时间戳取本次抓取时间，而非数据源采样时间（见 models.MetricRecord）。
func normalizeSample(expression string, sample promclient.Sample, fetchedAt time.Time) (models.MetricRecord, bool) {
	if math.IsNaN(sample.Value) || math.IsInf(sample.Value, 0) {
		return models.MetricRecord{}, false
	}

	metricName := sample.Labels["__name__"]
	if metricName == "" {
		metricName = expression
	}

	return models.MetricRecord{
		Timestamp:  fetchedAt,
		MetricName: metricName,
		Value:      sample.Value,
		Labels:     models.EncodeLabels(sample.Labels),
		Job:        sample.Labels["job"], // 缺失时为空字符串，下游分组把 "" 当独立桶
		Instance:   sample.Labels["instance"],
	}, true
}

// Run 执行一次完整同步：建库建表、抓取、写入、校验
// 仅存储连通性失败向上返回错误（以非零退出码上报）；其余失败降级为日志。
func (s *SyncService) Run(ctx context.Context) error {
	if err := s.store.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("初始化数据库失败: %w", err)
	}
	if err := s.store.EnsureTable(ctx); err != nil {
		return fmt.Errorf("初始化指标表失败: %w", err)
	}

	records := s.Collect(ctx)
	s.logger.Info("获取到指标", zap.Int("count", len(records)))

	if err := s.store.InsertRecords(ctx, records); err != nil {
		return err
	}
	if len(records) > 0 {
		s.logger.Info("成功写入记录到 ClickHouse", zap.Int("count", len(records)))
	}

	s.verify(ctx)
	return nil
}

// verify 写入后的尽力校验：总行数 + 最新若干条
func (s *SyncService) verify(ctx context.Context) {
	total, err := s.store.CountRecords(ctx)
	if err != nil {
		s.logger.Warn("查询总记录数失败", zap.Error(err))
		return
	}
	s.logger.Info("ClickHouse 当前记录总数", zap.Uint64("total", total))

	recent, err := s.store.RecentRecords(ctx, 5)
	if err != nil {
		s.logger.Warn("查询最新记录失败", zap.Error(err))
		return
	}
	for _, row := range recent {
		s.logger.Info("最新记录",
			zap.String("metric", row.MetricName),
			zap.Float64("value", row.Value),
			zap.String("job", row.Job),
			zap.String("time", row.Time))
	}
}
