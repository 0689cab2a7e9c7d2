package sim

import (
	"context"
	"errors"
	"time"

	"shm-depth-go/logs"
	"shm-depth-go/market"
)

// SnapshotWriter 由 shm.Writer 实现。
type SnapshotWriter interface {
	WriteSnapshots(offset int, snaps []market.DepthSnapshot) (int64, error)
	Cap() int
}

// Runner 将生成器的输出按块写入共享内存段，写满后回到段首循环覆盖。
type Runner struct {
	Gen    *Generator
	Writer SnapshotWriter
	Chunk  int // 每次写入的记录数，默认 64

	cursor  int
	buf     []market.DepthSnapshot
	onChunk func(offset, n int)
}

// SetChunkListener 在每块写入后回调（用于日志/指标）。
func (r *Runner) SetChunkListener(fn func(offset, n int)) {
	r.onChunk = fn
}

// WriteChunk 生成并写入下一块，返回写入的记录数。
func (r *Runner) WriteChunk() (int, error) {
	if r.Gen == nil || r.Writer == nil {
		return 0, errors.New("runner not initialized")
	}
	capacity := r.Writer.Cap()
	if capacity <= 0 {
		return 0, errors.New("segment has no capacity")
	}
	chunk := r.Chunk
	if chunk <= 0 {
		chunk = 64
	}
	if r.cursor >= capacity {
		r.cursor = 0
	}
	n := min(chunk, capacity-r.cursor)
	if cap(r.buf) < n {
		r.buf = make([]market.DepthSnapshot, n)
	}
	batch := r.buf[:n]
	for i := range batch {
		r.Gen.Next(&batch[i])
	}
	offset := r.cursor
	if _, err := r.Writer.WriteSnapshots(offset, batch); err != nil {
		return 0, err
	}
	r.cursor += n
	if r.onChunk != nil {
		r.onChunk(offset, n)
	}
	return n, nil
}

// FillAll 写满整个段一次。
func (r *Runner) FillAll() (int, error) {
	if r.Writer == nil {
		return 0, errors.New("runner not initialized")
	}
	r.cursor = 0
	total := 0
	for total < r.Writer.Cap() {
		n, err := r.WriteChunk()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Run 每个 interval 写入一块，直到 ctx 结束。
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.WriteChunk(); err != nil {
				logs.DefaultLogger.Error("write chunk failed", "offset", r.cursor, "error", err)
				return err
			}
		}
	}
}
