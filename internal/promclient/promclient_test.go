package promclient

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		baseURL: server.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  zap.NewNop(),
	}
}

func TestQuery(t *testing.T) {
	var gotPath, gotExpr string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotExpr = r.URL.Query().Get("query")
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "vector",
				"result": [
					{"metric": {"__name__": "up", "job": "node-exporter", "instance": "host-a:9100"}, "value": [1748774445.123, "1"]},
					{"metric": {"__name__": "up", "job": "node-exporter", "instance": "host-b:9100"}, "value": [1748774445.123, "0"]}
				]
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	samples, err := client.Query(context.Background(), `up{job="node-exporter"}`)
	if err != nil {
		t.Fatalf("查询不应失败: %v", err)
	}
	if gotPath != "/api/v1/query" {
		t.Errorf("请求路径 = %s, want /api/v1/query", gotPath)
	}
	if gotExpr != `up{job="node-exporter"}` {
		t.Errorf("query 参数 = %s, 表达式应原样传递", gotExpr)
	}
	if len(samples) != 2 {
		t.Fatalf("采样数 = %d, want 2", len(samples))
	}
	first := samples[0]
	if first.Labels["instance"] != "host-a:9100" {
		t.Errorf("标签解析不正确: %v", first.Labels)
	}
	if first.Timestamp != 1748774445.123 {
		t.Errorf("timestamp = %v, want 1748774445.123", first.Timestamp)
	}
	if first.Value != 1 {
		t.Errorf("value = %v, want 1", first.Value)
	}
}

func TestQueryErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "error": "parse error: unexpected end of input"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Query(context.Background(), "up{")
	if err == nil {
		t.Fatal("error 状态应返回错误")
	}
	if !strings.Contains(err.Error(), "parse error") {
		t.Errorf("错误信息应包含服务端原因: %v", err)
	}
}

func TestQueryHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.Query(context.Background(), "up"); err == nil {
		t.Fatal("非 2xx 响应应返回错误")
	}
}

func TestQuerySkipsMalformedPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "vector",
				"result": [
					{"metric": {"instance": "host-a:9100"}, "value": [1748774445, "not-a-number"]},
					{"metric": {"instance": "host-b:9100"}, "value": [1748774445]},
					{"metric": {"instance": "host-c:9100"}, "value": [1748774445, "2.5"]}
				]
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	samples, err := client.Query(context.Background(), "node_load1")
	if err != nil {
		t.Fatalf("个别坏采样不应导致整体失败: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("采样数 = %d, want 1（坏采样应被丢弃）", len(samples))
	}
	if samples[0].Value != 2.5 {
		t.Errorf("value = %v, want 2.5", samples[0].Value)
	}
}

func TestQueryKeepsNonFiniteValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "vector",
				"result": [
					{"metric": {"instance": "host-a:9100"}, "value": [1748774445, "NaN"]},
					{"metric": {"instance": "host-b:9100"}, "value": [1748774445, "+Inf"]}
				]
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	samples, err := client.Query(context.Background(), "node_load1")
	if err != nil {
		t.Fatalf("查询不应失败: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("采样数 = %d, want 2（非有限值由下游过滤，此处应保留）", len(samples))
	}
	if !math.IsNaN(samples[0].Value) {
		t.Errorf("第一个采样应为 NaN, got %v", samples[0].Value)
	}
	if !math.IsInf(samples[1].Value, 1) {
		t.Errorf("第二个采样应为 +Inf, got %v", samples[1].Value)
	}
}

func TestParseValuePair(t *testing.T) {
	tests := []struct {
		name string
		pair []any
		ok   bool
	}{
		{"正常对", []any{1748774445.0, "1.5"}, true},
		{"时间戳非数字", []any{"oops", "1.5"}, false},
		{"值非字符串", []any{1748774445.0, 1.5}, false},
		{"长度不足", []any{1748774445.0}, false},
		{"空对", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := parseValuePair(tt.pair)
			if ok != tt.ok {
				t.Errorf("parseValuePair(%v) ok = %v, want %v", tt.pair, ok, tt.ok)
			}
		})
	}
}
