package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置（进程启动时构建一次，按参数传入各组件）
type Config struct {
	Prometheus PrometheusConfig
	ClickHouse ClickHouseConfig
	Report     ReportConfig
	Serve      ServeConfig
	Log        LogConfig
}

// PrometheusConfig 指标源配置
type PrometheusConfig struct {
	URL          string        // Prometheus 地址
	QueryTimeout time.Duration // 单次即时查询超时
}

// ClickHouseConfig 存储配置（HTTP 接口）
type ClickHouseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Timeout  time.Duration // 单次 HTTP 请求超时
}

// ReportConfig 报表配置
type ReportConfig struct {
	OutputDir string // 报表输出目录
}

// ServeConfig 常驻模式配置
type ServeConfig struct {
	Listen       string // HTTP 监听地址
	SyncInterval int    // 同步间隔（秒）
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string // 为空则输出到标准输出
	MaxSize    int    // 单文件最大 MB
	MaxBackups int
	MaxAge     int // 天数
}

// Load 从环境变量加载配置（可选读取 .env 文件）
func Load() (*Config, error) {
	// .env 不存在时静默忽略
	_ = godotenv.Load()

	cfg := &Config{
		Prometheus: PrometheusConfig{
			URL:          getEnv("PROMETHEUS_URL", "http://localhost:9090"),
			QueryTimeout: time.Duration(getEnvInt("PROMCH_QUERY_TIMEOUT", 10)) * time.Second,
		},
		ClickHouse: ClickHouseConfig{
			Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
			Port:     getEnvInt("CLICKHOUSE_PORT", 8123),
			User:     getEnv("CLICKHOUSE_USER", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			Database: getEnv("CLICKHOUSE_DB", "prometheus"),
			Timeout:  time.Duration(getEnvInt("PROMCH_STORE_TIMEOUT", 30)) * time.Second,
		},
		Report: ReportConfig{
			OutputDir: getEnv("CLICKHOUSE_REPORT_DIR", "clickhouse_reports_html"),
		},
		Serve: ServeConfig{
			Listen:       getEnv("PROMCH_LISTEN", "127.0.0.1:8199"),
			SyncInterval: getEnvInt("PROMCH_SYNC_INTERVAL", 60),
		},
		Log: LogConfig{
			Level:      getEnv("PROMCH_LOG_LEVEL", "info"),
			File:       getEnv("PROMCH_LOG_FILE", ""),
			MaxSize:    getEnvInt("PROMCH_LOG_MAX_SIZE", 50),
			MaxBackups: getEnvInt("PROMCH_LOG_MAX_BACKUPS", 3),
			MaxAge:     getEnvInt("PROMCH_LOG_MAX_AGE", 7),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Prometheus.URL == "" {
		return fmt.Errorf("PROMETHEUS_URL 不能为空")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("CLICKHOUSE_HOST 不能为空")
	}
	if c.ClickHouse.Port <= 0 || c.ClickHouse.Port > 65535 {
		return fmt.Errorf("CLICKHOUSE_PORT 非法: %d", c.ClickHouse.Port)
	}
	if c.ClickHouse.Database == "" {
		return fmt.Errorf("CLICKHOUSE_DB 不能为空")
	}
	if c.Serve.SyncInterval <= 0 {
		c.Serve.SyncInterval = 60
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
