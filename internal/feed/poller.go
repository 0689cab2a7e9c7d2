package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	"shm-depth-go/infrastructure/logger"
	"shm-depth-go/market"
	"shm-depth-go/metrics"
)

// State 轮询器状态
type State int

const (
	// StateIdle 尚未启动
	StateIdle State = iota
	// StateRunning 正在轮询
	StateRunning
	// StateStopped 已停止
	StateStopped
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Source 是可随机读取的共享内存段，由 *shm.Segment 实现。
type Source interface {
	io.ReaderAt
	Len() int
}

// Config 轮询器配置
type Config struct {
	Segment      string        // 段路径，用于日志与指标标签
	PollInterval time.Duration // 扫描间隔
}

// Stats 累计统计
type Stats struct {
	Scans     int64
	Decoded   int64
	Skipped   int64
	Malformed int64
	LastScan  time.Time
}

// Poller 周期性扫描共享内存段，把时间戳前进的记录解码后发布给 market.Service。
// 每条记录都先从段中复制出来再解码，生产者并发写入不会造成字段撕裂。
type Poller struct {
	cfg    Config
	src    Source
	svc    *market.Service
	logger *logger.Logger

	mu           sync.RWMutex
	state        State
	stats        Stats
	slotTs       []int64
	slotSeen     []bool
	lastTrailing int

	intervalCh chan time.Duration
	now        func() time.Time
}

// New 创建轮询器
func New(cfg Config, src Source, svc *market.Service, log *logger.Logger) (*Poller, error) {
	if src == nil {
		return nil, errors.New("feed: source is required")
	}
	if svc == nil {
		return nil, errors.New("feed: market service is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Poller{
		cfg:        cfg,
		src:        src,
		svc:        svc,
		logger:     log,
		intervalCh: make(chan time.Duration, 1),
		now:        time.Now,
	}, nil
}

// State 返回当前状态
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Stats 返回累计统计的副本
func (p *Poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// SetPollInterval 在运行中调整扫描间隔（配置热更新）。
func (p *Poller) SetPollInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-p.intervalCh:
	default:
	}
	p.intervalCh <- d
}

// Run 持续轮询直到 ctx 结束。
func (p *Poller) Run(ctx context.Context) error {
	p.setState(StateRunning)
	defer p.setState(StateStopped)

	if _, err := p.ScanOnce(); err != nil {
		p.logger.LogError(err, map[string]interface{}{"path": p.cfg.Segment})
	}
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-p.intervalCh:
			ticker.Reset(d)
			p.logEvent("poll_interval", map[string]interface{}{"path": p.cfg.Segment, "intervalMs": d.Milliseconds()})
		case <-ticker.C:
			if _, err := p.ScanOnce(); err != nil {
				p.logger.LogError(err, map[string]interface{}{"path": p.cfg.Segment})
			}
		}
	}
}

// ScanOnce 扫描整个段一次。单条记录读取失败只计数并记录日志，不中断扫描。
func (p *Poller) ScanOnce() (metrics.ScanResult, error) {
	start := p.now()
	size := p.src.Len()
	res := metrics.ScanResult{
		Bytes:    size,
		Trailing: size % market.RecordSize,
	}
	records := size / market.RecordSize

	p.mu.Lock()
	p.resizeLocked(records)
	trailingChanged := res.Trailing != p.lastTrailing
	p.lastTrailing = res.Trailing
	p.mu.Unlock()

	if trailingChanged && res.Trailing > 0 {
		p.logEvent("frame_trailing", map[string]interface{}{"path": p.cfg.Segment, "trailing": res.Trailing})
	}

	var latest market.DepthSnapshot
	haveLatest := false
	for i := 0; i < records; i++ {
		rec, err := market.ReadRecord(p.src, i)
		if err != nil {
			res.Malformed++
			p.logEvent("decode_error", map[string]interface{}{"path": p.cfg.Segment, "seq": i, "error": err.Error()})
			continue
		}
		// 生产者尚未写入的槽位全为 0
		if *rec == (market.Record{}) {
			res.Skipped++
			continue
		}
		snap := market.DecodeRecord(rec)
		if !p.advance(i, snap.Timestamp) {
			res.Skipped++
			continue
		}
		res.Decoded++
		p.svc.OnSnapshot(snap, p.now())
		p.logEvent("depth_snapshot", map[string]interface{}{
			"seq":       i,
			"price":     snap.Price,
			"timestamp": snap.Timestamp,
		})
		if !haveLatest || snap.Timestamp >= latest.Timestamp {
			latest = snap
			haveLatest = true
		}
	}
	res.Elapsed = p.now().Sub(start)

	p.mu.Lock()
	p.stats.Scans++
	p.stats.Decoded += int64(res.Decoded)
	p.stats.Skipped += int64(res.Skipped)
	p.stats.Malformed += int64(res.Malformed)
	p.stats.LastScan = start
	p.mu.Unlock()

	p.logEvent("scan_summary", map[string]interface{}{
		"path":      p.cfg.Segment,
		"decoded":   res.Decoded,
		"skipped":   res.Skipped,
		"malformed": res.Malformed,
	})
	metrics.ObserveScan(p.cfg.Segment, res)
	if haveLatest {
		metrics.UpdateLatest(p.cfg.Segment, latest.Price, latest.Timestamp)
	}
	if res.Malformed > 0 {
		return res, fmt.Errorf("scan %s: %d of %d records unreadable", p.cfg.Segment, res.Malformed, records)
	}
	return res, nil
}

// advance 记录槽位 i 的最新时间戳，时间戳未前进时返回 false。
func (p *Poller) advance(i int, ts int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= len(p.slotTs) {
		return false
	}
	if p.slotSeen[i] && ts <= p.slotTs[i] {
		return false
	}
	p.slotTs[i] = ts
	p.slotSeen[i] = true
	return true
}

func (p *Poller) resizeLocked(records int) {
	if records == len(p.slotTs) {
		return
	}
	ts := make([]int64, records)
	seen := make([]bool, records)
	copy(ts, p.slotTs)
	copy(seen, p.slotSeen)
	p.slotTs = ts
	p.slotSeen = seen
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Poller) logEvent(event string, fields map[string]interface{}) {
	level := zapcore.InfoLevel
	switch event {
	case "decode_error":
		level = zapcore.WarnLevel
	case "scan_summary", "depth_snapshot":
		level = zapcore.DebugLevel
	}
	p.logger.LogEvent(level, event, fields)
}
