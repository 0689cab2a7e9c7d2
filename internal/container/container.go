package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shm-depth-go/config"
	"shm-depth-go/infrastructure/logger"
	"shm-depth-go/internal/feed"
	"shm-depth-go/market"
	"shm-depth-go/metrics"
	"shm-depth-go/shm"
)

// Container 依赖注入容器，管理读取进程所有组件的生命周期
type Container struct {
	cfg     config.AppConfig
	cfgPath string

	logger *logger.Logger

	segment    *shm.Segment
	marketData *market.Service
	poller     *feed.Poller

	lifecycle *LifecycleManager
}

// New 从配置文件创建 Container，环境变量覆盖部署相关字段
func New(configPath string) (*Container, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(cfg, configPath), nil
}

// NewWithConfig 使用已加载的配置；configPath 为空时不监听配置变化
func NewWithConfig(cfg config.AppConfig, configPath string) *Container {
	return &Container{
		cfg:       cfg,
		cfgPath:   configPath,
		lifecycle: NewLifecycleManager(),
	}
}

// Build 构建所有组件
func (c *Container) Build() error {
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}

	if err := c.attachSegment(); err != nil {
		return fmt.Errorf("attach segment failed: %w", err)
	}

	if err := c.buildCoreServices(); err != nil {
		return fmt.Errorf("build core services failed: %w", err)
	}

	c.registerLifecycleComponents()
	c.logger.Info("container built")
	return nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(c.cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}
	c.logger = c.logger.WithFields(map[string]interface{}{"env": c.cfg.Env})
	return nil
}

func (c *Container) attachSegment() error {
	path := c.cfg.Segment.ResolvePath()
	seg, err := shm.Open(path)
	if err != nil {
		return err
	}
	c.segment = seg
	c.logger.LogSegment("segment_attached", path, map[string]interface{}{
		"size":    seg.Len(),
		"records": seg.Records(),
	})
	return nil
}

func (c *Container) buildCoreServices() error {
	c.marketData = market.NewService(market.NewPublisher())

	var err error
	c.poller, err = feed.New(feed.Config{
		Segment:      c.segment.Path(),
		PollInterval: c.cfg.Reader.PollInterval(),
	}, c.segment, c.marketData, c.logger)
	return err
}

func (c *Container) registerLifecycleComponents() {
	c.lifecycle.Register(&pollerComponent{poller: c.poller, logger: c.logger})

	if c.cfgPath != "" {
		c.lifecycle.Register(&watcherComponent{
			watcher: config.Watcher{
				Path:     c.cfgPath,
				Cooldown: time.Second,
				OnError: func(err error) {
					c.logger.LogError(err, map[string]interface{}{"config": c.cfgPath})
				},
			},
			poller: c.poller,
			logger: c.logger,
		})
	}

	if c.cfg.Metrics.Addr != "" {
		c.lifecycle.Register(&httpServerComponent{
			name:    "metrics_server",
			handler: c.Handler(),
			addr:    c.cfg.Metrics.Addr,
			logger:  c.logger,
		})
	}
}

// Handler 返回 /metrics 与 /healthz 路由
func (c *Container) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := c.HealthCheck(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")

	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	c.logger.Info("container started")
	return nil
}

// Stop 停止所有组件并释放共享内存映射
func (c *Container) Stop() error {
	if c.logger != nil {
		c.logger.Info("stopping container...")
	}

	err := c.lifecycle.StopAll()
	if c.poller != nil {
		st := c.poller.Stats()
		c.logger.LogSegment("reader_exit", c.segment.Path(), map[string]interface{}{
			"scans":     st.Scans,
			"decoded":   st.Decoded,
			"malformed": st.Malformed,
		})
	}
	if c.segment != nil {
		err = errors.Join(err, c.segment.Close())
	}
	if err != nil && c.logger != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
	}
	if c.logger != nil {
		_ = c.logger.Close()
	}
	return err
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}

func (c *Container) Config() config.AppConfig { return c.cfg }

func (c *Container) Logger() *logger.Logger { return c.logger }

func (c *Container) Segment() *shm.Segment { return c.segment }

func (c *Container) MarketData() *market.Service { return c.marketData }

func (c *Container) Poller() *feed.Poller { return c.poller }
