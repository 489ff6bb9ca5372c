package chclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/wuchunfu/promch/internal/config"
	"github.com/wuchunfu/promch/internal/models"
	"go.uber.org/zap"
)

// Client ClickHouse HTTP 接口客户端
// 查询文本经 POST 提交，结果集统一使用 JSONEachRow 格式返回。
type Client struct {
	baseURL  string
	user     string
	password string
	database string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient 创建存储客户端
func NewClient(cfg config.ClickHouseConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  fmt.Sprintf("http://%s:%d/", cfg.Host, cfg.Port),
		user:     cfg.User,
		password: cfg.Password,
		database: cfg.Database,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Database 返回配置的库名
func (c *Client) Database() string {
	return c.database
}

// exec 执行一条查询，返回原始响应体
func (c *Client) exec(ctx context.Context, query string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("X-ClickHouse-User", c.user)
	req.Header.Set("X-ClickHouse-Key", c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("连接 ClickHouse 失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ClickHouse 返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// queryRows 执行查询并按 JSONEachRow 逐行解码到 dest 切片元素类型
func queryRows[T any](ctx context.Context, c *Client, query string) ([]T, error) {
	body, err := c.exec(ctx, query+" FORMAT JSONEachRow")
	if err != nil {
		return nil, err
	}

	var rows []T
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var row T
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("解析结果行失败: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Ping 存储探活
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.exec(ctx, "SELECT 1")
	return err
}

// EnsureDatabase 创建数据库（幂等）
func (c *Client) EnsureDatabase(ctx context.Context) error {
	_, err := c.exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", c.database))
	return err
}

// EnsureTable 创建指标表（幂等）
func (c *Client) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.prometheus_metrics (
    timestamp DateTime64(3),
    metric_name String,
    value Float64,
    labels String,
    job String DEFAULT '',
    instance String DEFAULT ''
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(timestamp)
ORDER BY (metric_name, timestamp)
TTL timestamp + INTERVAL 30 DAY
SETTINGS index_granularity = 8192`, c.database)
	_, err := c.exec(ctx, ddl)
	return err
}

// InsertRecords 批量写入指标记录
// 时间戳截断到毫秒；所有字符串字段在嵌入查询文本前统一转义。
// 批次不重试不拆分，失败由调用方上报运行状态。
func (c *Client) InsertRecords(ctx context.Context, records []models.MetricRecord) error {
	if len(records) == 0 {
		c.logger.Warn("没有指标数据需要写入")
		return nil
	}

	values := make([]string, 0, len(records))
	for _, record := range records {
		values = append(values, fmt.Sprintf("('%s', '%s', %s, '%s', '%s', '%s')",
			record.Timestamp.Format("2006-01-02 15:04:05.000"),
			Escape(record.MetricName),
			strconv.FormatFloat(record.Value, 'g', -1, 64),
			Escape(record.Labels),
			Escape(record.Job),
			Escape(record.Instance)))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s.prometheus_metrics (timestamp, metric_name, value, labels, job, instance) VALUES %s",
		c.database, strings.Join(values, ","))
	if _, err := c.exec(ctx, query); err != nil {
		return fmt.Errorf("写入 ClickHouse 失败: %w", err)
	}
	return nil
}

// flexUint 兼容 ClickHouse JSON 输出中 64 位整数默认带引号的行为
type flexUint uint64

func (f *flexUint) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexUint(v)
	return nil
}

// TopMetric 按指标名分组的统计行
type TopMetric struct {
	MetricName string   `json:"metric_name"`
	Count      flexUint `json:"count"`
	AvgValue   float64  `json:"avg_value"`
	MaxValue   float64  `json:"max_value"`
	MinValue   float64  `json:"min_value"`
}

// JobStat 按 Job 分组的统计行
type JobStat struct {
	Job         string   `json:"job"`
	Count       flexUint `json:"count"`
	MetricTypes flexUint `json:"metric_types"`
	LatestTime  string   `json:"latest_time"`
}

// RecentRecord 最新数据行
type RecentRecord struct {
	MetricName string  `json:"metric_name"`
	Value      float64 `json:"value"`
	Job        string  `json:"job"`
	Instance   string  `json:"instance"`
	Time       string  `json:"time"`
}

// CountRecords 指标表总行数
func (c *Client) CountRecords(ctx context.Context) (uint64, error) {
	type row struct {
		Total flexUint `json:"total"`
	}
	rows, err := queryRows[row](ctx, c,
		fmt.Sprintf("SELECT count() as total FROM %s.prometheus_metrics", c.database))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return uint64(rows[0].Total), nil
}

// CountDistinctMetrics 指标类型数量
func (c *Client) CountDistinctMetrics(ctx context.Context) (uint64, error) {
	type row struct {
		MetricCount flexUint `json:"metric_count"`
	}
	rows, err := queryRows[row](ctx, c,
		fmt.Sprintf("SELECT count(DISTINCT metric_name) as metric_count FROM %s.prometheus_metrics", c.database))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return uint64(rows[0].MetricCount), nil
}

// TimeBounds 数据时间范围（最早/最新），表为空时二者皆为空字符串
func (c *Client) TimeBounds(ctx context.Context) (earliest, latest string, err error) {
	type row struct {
		Earliest string `json:"earliest"`
		Latest   string `json:"latest"`
	}
	rows, err := queryRows[row](ctx, c, fmt.Sprintf(
		"SELECT formatDateTime(min(timestamp), '%%Y-%%m-%%d %%H:%%M:%%S') as earliest, formatDateTime(max(timestamp), '%%Y-%%m-%%d %%H:%%M:%%S') as latest FROM %s.prometheus_metrics WHERE timestamp > toDateTime64(0, 3)",
		c.database))
	if err != nil {
		return "", "", err
	}
	if len(rows) == 0 {
		return "", "", nil
	}
	return rows[0].Earliest, rows[0].Latest, nil
}

// TopMetrics 记录数最多的前 N 个指标及其 count/avg/max/min
func (c *Client) TopMetrics(ctx context.Context, limit int) ([]TopMetric, error) {
	query := fmt.Sprintf(`SELECT
    metric_name,
    count() as count,
    avg(value) as avg_value,
    max(value) as max_value,
    min(value) as min_value
FROM %s.prometheus_metrics
GROUP BY metric_name
ORDER BY count DESC
LIMIT %d`, c.database, limit)
	return queryRows[TopMetric](ctx, c, query)
}

// JobStats 按 Job 统计
func (c *Client) JobStats(ctx context.Context) ([]JobStat, error) {
	query := fmt.Sprintf(`SELECT
    job,
    count() as count,
    count(DISTINCT metric_name) as metric_types,
    formatDateTime(max(timestamp), '%%Y-%%m-%%d %%H:%%M:%%S') as latest_time
FROM %s.prometheus_metrics
GROUP BY job
ORDER BY count DESC`, c.database)
	return queryRows[JobStat](ctx, c, query)
}

// RecentRecords 最近写入的 N 条记录（按时间倒序）
func (c *Client) RecentRecords(ctx context.Context, limit int) ([]RecentRecord, error) {
	query := fmt.Sprintf(`SELECT
    metric_name,
    value,
    job,
    instance,
    formatDateTime(timestamp, '%%Y-%%m-%%d %%H:%%M:%%S') as time
FROM %s.prometheus_metrics
ORDER BY timestamp DESC
LIMIT %d`, c.database, limit)
	return queryRows[RecentRecord](ctx, c, query)
}
