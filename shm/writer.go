package shm

import (
	"fmt"
	"os"

	"github.com/go-mmap/mmap"

	"shm-depth-go/market"
)

// Writer 以读写方式映射一个段文件，供模拟生产者和测试使用。
type Writer struct {
	path    string
	data    *mmap.File
	records int
}

// Create 创建（或截断）path，大小为 records 条记录，然后映射为可写。
func Create(path string, records int) (*Writer, error) {
	if records <= 0 {
		return nil, fmt.Errorf("create %s: records must be > 0", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := f.Truncate(int64(records) * market.RecordSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncate %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", path, err)
	}
	data, err := mmap.OpenFile(path, mmap.Read|mmap.Write)
	if err != nil {
		return nil, fmt.Errorf("mmap open %s: %w", path, err)
	}
	return &Writer{path: path, data: data, records: records}, nil
}

func (w *Writer) Path() string { return w.path }

// Cap 返回段可容纳的记录数。
func (w *Writer) Cap() int { return w.records }

// WriteSnapshots 从第 offset 条记录起写入 snaps，返回写入结束处的字节位置。
func (w *Writer) WriteSnapshots(offset int, snaps []market.DepthSnapshot) (int64, error) {
	if offset < 0 || offset+len(snaps) > w.records {
		return 0, fmt.Errorf("write %d records at %d: %w", len(snaps), offset, ErrOutOfRange)
	}
	buf := make([]byte, 0, len(snaps)*market.RecordSize)
	for _, s := range snaps {
		buf = market.AppendEncode(buf, s)
	}
	loc := int64(offset) * market.RecordSize
	n, err := w.data.WriteAt(buf, loc)
	if err != nil {
		return loc + int64(n), fmt.Errorf("write %s: %w", w.path, err)
	}
	return loc + int64(n), nil
}

func (w *Writer) Sync() error { return w.data.Sync() }

func (w *Writer) Close() error {
	if err := w.data.Sync(); err != nil {
		w.data.Close()
		return err
	}
	return w.data.Close()
}
