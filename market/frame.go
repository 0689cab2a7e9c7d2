package market

import (
	"context"
	"fmt"
	"io"
	"iter"

	"golang.org/x/sync/errgroup"
)

// Frames 按 RecordSize 切分 buf，依次产出 (序号, 视图)。
// 末尾不足一条记录的字节直接丢弃。视图不复制，可重复遍历。
func Frames(buf []byte) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i, off := 0, 0; off+RecordSize <= len(buf); i, off = i+1, off+RecordSize {
			if !yield(i, buf[off:off+RecordSize:off+RecordSize]) {
				return
			}
		}
	}
}

// FrameCount 返回 buf 中完整记录的条数。
func FrameCount(buf []byte) int { return len(buf) / RecordSize }

// TrailingBytes 返回会被丢弃的尾部字节数。
func TrailingBytes(buf []byte) int { return len(buf) % RecordSize }

// ReadRecord 从 r 中复制第 i 条记录。
func ReadRecord(r io.ReaderAt, i int) (*Record, error) {
	var rec Record
	n, err := r.ReadAt(rec[:], int64(i)*RecordSize)
	if n == RecordSize {
		return &rec, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read record %d: %w", i, err)
}

// RecordReader 对 io.ReaderAt（例如 mmap 的共享内存）逐条复制记录后产出，
// 适用于生产者可能并发写入的场景。读取失败时停止遍历，错误由 Err 返回。
type RecordReader struct {
	r   io.ReaderAt
	n   int
	err error
}

// NewRecordReader 读取 r 中前 size 字节内的完整记录，尾部不足一条的字节丢弃。
func NewRecordReader(r io.ReaderAt, size int64) *RecordReader {
	return &RecordReader{r: r, n: int(size / RecordSize)}
}

// All 依次产出 (序号, 记录副本)。每次遍历都会重置 Err。
func (rr *RecordReader) All() iter.Seq2[int, *Record] {
	return func(yield func(int, *Record) bool) {
		rr.err = nil
		for i := 0; i < rr.n; i++ {
			rec, err := ReadRecord(rr.r, i)
			if err != nil {
				rr.err = err
				return
			}
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Err 返回最近一次遍历中的读取错误；正常读到末尾或提前 break 时为 nil。
func (rr *RecordReader) Err() error { return rr.err }

// DecodeAll 并发解码 buf 中的全部完整记录，结果保持原始顺序。
// workers <= 0 时不限制并发数。
func DecodeAll(ctx context.Context, buf []byte, workers int) ([]DepthSnapshot, error) {
	out := make([]DepthSnapshot, FrameCount(buf))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, frame := range Frames(buf) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := Decode(frame)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
