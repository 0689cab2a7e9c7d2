// Package shm 以只读内存映射的方式挂载深度共享内存段。
// 段的创建、命名与销毁由外部生产者负责，这里只借用一段有生命周期的字节视图。
package shm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-mmap/mmap"

	"shm-depth-go/market"
)

// Dir 为 POSIX 共享内存对象在 Linux 上的挂载目录。
var Dir = "/dev/shm"

// ErrOutOfRange 写入或读取越过段的末尾。
var ErrOutOfRange = errors.New("shm: size exceeds segment")

// ResolvePath 把共享内存名（如 "DepthM" 或 "/DepthM"）转换为文件路径。
func ResolvePath(name string) string {
	return filepath.Join(Dir, strings.TrimPrefix(name, "/"))
}

// Segment 是一个只读映射的共享内存段，实现 io.ReaderAt。
// 生产者可能并发写入，调用方应通过 ReadAt 复制后再解码。
type Segment struct {
	path string
	data *mmap.File
}

// Open 以只读方式映射 path。
func Open(path string) (*Segment, error) {
	f, err := mmap.OpenFile(path, mmap.Read)
	if err != nil {
		return nil, fmt.Errorf("mmap open %s: %w", path, err)
	}
	return &Segment{path: path, data: f}, nil
}

func (s *Segment) Path() string { return s.path }

// Len 返回段的字节数。
func (s *Segment) Len() int { return s.data.Len() }

// ReadAt 从段中复制字节。
func (s *Segment) ReadAt(p []byte, off int64) (int, error) {
	return s.data.ReadAt(p, off)
}

// Records 返回段内完整记录数。
func (s *Segment) Records() int { return s.Len() / market.RecordSize }

// Trailing 返回段尾不足一条记录的字节数。
func (s *Segment) Trailing() int { return s.Len() % market.RecordSize }

// ReadRecords 复制 [offset, offset+n) 条记录对应的字节。
func (s *Segment) ReadRecords(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > s.Records() {
		return nil, fmt.Errorf("read %d records at %d: %w", n, offset, ErrOutOfRange)
	}
	buf := make([]byte, n*market.RecordSize)
	if _, err := s.data.ReadAt(buf, int64(offset)*market.RecordSize); err != nil {
		return nil, fmt.Errorf("read %d records at %d: %w", n, offset, err)
	}
	return buf, nil
}

// Copy 复制整个段，尾部不足一条记录的字节一并复制，由分帧丢弃。
func (s *Segment) Copy() ([]byte, error) {
	buf := make([]byte, s.Len())
	if len(buf) == 0 {
		return buf, nil
	}
	if _, err := s.data.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("copy segment %s: %w", s.path, err)
	}
	return buf, nil
}

func (s *Segment) Close() error {
	return s.data.Close()
}
