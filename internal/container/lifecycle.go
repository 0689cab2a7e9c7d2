package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"shm-depth-go/config"
	"shm-depth-go/infrastructure/logger"
	"shm-depth-go/internal/feed"
)

// Lifecycle 生命周期接口
type Lifecycle interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Health() error
}

// LifecycleManager 生命周期管理器
type LifecycleManager struct {
	components []Lifecycle
	mu         sync.RWMutex
}

// NewLifecycleManager 创建新的生命周期管理器
func NewLifecycleManager() *LifecycleManager {
	return &LifecycleManager{
		components: make([]Lifecycle, 0),
	}
}

// Register 注册组件
func (m *LifecycleManager) Register(component Lifecycle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component)
}

// StartAll 按顺序启动所有组件
func (m *LifecycleManager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i, component := range m.components {
		if err := component.Start(ctx); err != nil {
			// 启动失败，回滚已启动的组件
			for j := i - 1; j >= 0; j-- {
				_ = m.components[j].Stop()
			}
			return fmt.Errorf("start %s failed: %w", component.Name(), err)
		}
	}
	return nil
}

// StopAll 逆序停止所有组件，返回所有错误的合并
func (m *LifecycleManager) StopAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		if err := m.components[i].Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CheckHealth 检查所有组件健康状态
func (m *LifecycleManager) CheckHealth() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, component := range m.components {
		if err := component.Health(); err != nil {
			return fmt.Errorf("%s unhealthy: %w", component.Name(), err)
		}
	}
	return nil
}

// httpServerComponent 暴露 /metrics 与 /healthz
type httpServerComponent struct {
	name    string
	handler http.Handler
	addr    string
	logger  *logger.Logger
	server  *http.Server
	started bool
	mu      sync.Mutex
}

func (h *httpServerComponent) Name() string { return h.name }

func (h *httpServerComponent) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return nil
	}

	srv := &http.Server{
		Addr:              h.addr,
		Handler:           h.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	h.server = srv

	go func() {
		h.logger.Logger.Info(fmt.Sprintf("%s listening on %s", h.name, h.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.LogError(err, map[string]interface{}{
				"component": h.name,
				"action":    "listen",
			})
		}
	}()

	h.started = true
	return nil
}

func (h *httpServerComponent) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started || h.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", h.name, err)
	}

	h.logger.Logger.Info(fmt.Sprintf("%s stopped", h.name))
	h.started = false
	return nil
}

func (h *httpServerComponent) Health() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return fmt.Errorf("%s not started", h.name)
	}
	return nil
}

// pollerComponent 在后台运行 feed.Poller
type pollerComponent struct {
	poller *feed.Poller
	logger *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

func (p *pollerComponent) Name() string { return "depth_poller" }

func (p *pollerComponent) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return nil
	}
	ctx, p.cancel = context.WithCancel(ctx)
	done := make(chan error, 1)
	p.done = done
	go func() { done <- p.poller.Run(ctx) }()
	return nil
}

func (p *pollerComponent) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return nil
	}
	p.cancel()
	err := <-p.done
	p.done = nil
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Health 在 Start 之后、Run 尚未切换到 RUNNING 之前视为健康
func (p *pollerComponent) Health() error {
	p.mu.Lock()
	started := p.done != nil
	p.mu.Unlock()
	if !started {
		return errors.New("poller not started")
	}
	switch st := p.poller.State(); st {
	case feed.StateIdle, feed.StateRunning:
		return nil
	default:
		return fmt.Errorf("poller is %s", st)
	}
}

// watcherComponent 监听配置文件，热更新扫描周期
type watcherComponent struct {
	watcher config.Watcher
	poller  *feed.Poller
	logger  *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func (w *watcherComponent) Name() string { return "config_watcher" }

func (w *watcherComponent) Start(ctx context.Context) error {
	if w.done != nil {
		return nil
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		err := w.watcher.Start(ctx, func(next config.AppConfig) {
			d := next.Reader.PollInterval()
			w.poller.SetPollInterval(d)
			w.logger.Info("config_reloaded")
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.LogError(err, map[string]interface{}{"component": w.Name()})
		}
	}()
	return nil
}

func (w *watcherComponent) Stop() error {
	if w.done == nil {
		return nil
	}
	w.cancel()
	<-w.done
	w.done = nil
	return nil
}

// 配置监听失败不影响读取
func (w *watcherComponent) Health() error { return nil }
