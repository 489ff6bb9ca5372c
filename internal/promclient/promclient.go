package promclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wuchunfu/promch/internal/config"
	"go.uber.org/zap"
)

// Sample 即时查询返回的单个采样点
type Sample struct {
	Labels    map[string]string // 标签集合（含 __name__、job、instance 等）
	Timestamp float64           // 数据源时间戳（秒，浮点）
	Value     float64           // 采样值（可能为 NaN/Inf，由下游过滤）
}

// Client Prometheus 即时查询客户端
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient 创建查询客户端（每次请求带固定超时）
func NewClient(cfg config.PrometheusConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.QueryTimeout},
		logger:  logger,
	}
}

// queryEnvelope /api/v1/query 响应格式
type queryEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Metric map[string]string `json:"metric"`
			Value  []any             `json:"value"` // [timestamp(float64), value(string)]
		} `json:"result"`
	} `json:"data"`
}

// Query 执行一次同步即时查询
// 传输失败、非 2xx 响应或响应体报告 error 状态时返回错误；
// 调用方统一将错误按零采样处理（记录日志后继续），不中断整个运行。
// 无法解析为数字的采样点会被静默丢弃；非有限值（NaN/Inf）原样返回，由下游过滤。
func (c *Client) Query(ctx context.Context, expression string) ([]Sample, error) {
	endpoint := fmt.Sprintf("%s/api/v1/query?%s", c.baseURL,
		url.Values{"query": []string{expression}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构造查询请求失败: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("查询 Prometheus 失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Prometheus 返回状态码 %d", resp.StatusCode)
	}

	var envelope queryEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if envelope.Status != "success" {
		msg := envelope.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("Prometheus 查询失败: %s", msg)
	}

	samples := make([]Sample, 0, len(envelope.Data.Result))
	for _, result := range envelope.Data.Result {
		ts, value, ok := parseValuePair(result.Value)
		if !ok {
			continue
		}
		samples = append(samples, Sample{
			Labels:    result.Metric,
			Timestamp: ts,
			Value:     value,
		})
	}
	return samples, nil
}

// Healthy 服务探活（查询 up 指标）
func (c *Client) Healthy(ctx context.Context) error {
	_, err := c.Query(ctx, "up")
	return err
}

// parseValuePair 解析 [timestamp, "value"] 对，任一项无法解析为数字则丢弃
func parseValuePair(pair []any) (ts float64, value float64, ok bool) {
	if len(pair) < 2 {
		return 0, 0, false
	}
	ts, tsOK := pair[0].(float64)
	if !tsOK {
		return 0, 0, false
	}
	valueStr, strOK := pair[1].(string)
	if !strOK {
		return 0, 0, false
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, 0, false
	}
	return ts, value, true
}
