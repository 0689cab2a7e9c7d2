package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"shm-depth-go/infrastructure/logger"
	"shm-depth-go/shm"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Segment SegmentConfig `yaml:"segment"`
	Reader  ReaderConfig  `yaml:"reader"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     logger.Config `yaml:"log"`
}

// SegmentConfig 描述共享内存段的位置。Path 非空时优先于 Name。
type SegmentConfig struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Records int    `yaml:"records"` // 模拟生产者创建段时的容量
}

// ResolvePath 返回段文件路径。
func (s SegmentConfig) ResolvePath() string {
	if s.Path != "" {
		return s.Path
	}
	return shm.ResolvePath(s.Name)
}

type ReaderConfig struct {
	PollIntervalMs int `yaml:"pollIntervalMs"` // 扫描周期（毫秒）
	Workers        int `yaml:"workers"`        // 一次性导出时的并发解码数
	PriceScale     int `yaml:"priceScale"`     // 整数价格的小数位数，仅用于输出
}

// PollInterval 返回扫描周期，未配置时为 100ms。
func (r ReaderConfig) PollInterval() time.Duration {
	if r.PollIntervalMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(r.PollIntervalMs) * time.Millisecond
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default 返回带默认值的配置，Load 在其上覆盖 YAML 内容。
func Default() AppConfig {
	return AppConfig{
		Env:     "dev",
		Segment: SegmentConfig{Name: "DepthM", Records: 256},
		Reader:  ReaderConfig{PollIntervalMs: 100, Workers: 4},
		Metrics: MetricsConfig{Addr: ":9100"},
		Log:     logger.DefaultConfig(),
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	// 文件被截断后尚未写入时会读到空内容
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, errors.New("config file is empty")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("DEPTH_SEGMENT_PATH"); v != "" {
		cfg.Segment.Path = v
	}
	if v := os.Getenv("DEPTH_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	return cfg, Validate(cfg)
}
