package market

import "encoding/binary"

// Decode 解析一条深度记录，只读取前 RecordSize 字节，多余部分忽略。
// 输入可能是生产者仍在写入的共享内存视图，因此先整体复制出一份再解码，
// 保证同一快照的所有字段来自同一时刻的字节。
func Decode(record []byte) (DepthSnapshot, error) {
	if len(record) < RecordSize {
		return DepthSnapshot{}, &MalformedRecordError{Len: len(record)}
	}
	var rec Record
	copy(rec[:], record[:RecordSize])
	return DecodeRecord(&rec), nil
}

// DecodeRecord 解码一份已私有化的记录，不再复制。
func DecodeRecord(rec *Record) DepthSnapshot {
	b := rec[:]
	s := DepthSnapshot{
		Price:     readInt64(b, 0),
		Timestamp: readInt64(b, 8),
	}
	for i := 0; i < DepthLevels; i++ {
		off := AskOffset + i*LevelSize
		s.Asks[i] = Level{Price: readInt64(b, off), Quantity: readInt64(b, off+8)}
	}
	for i := 0; i < DepthLevels; i++ {
		off := BidOffset + i*LevelSize
		s.Bids[i] = Level{Price: readInt64(b, off), Quantity: readInt64(b, off+8)}
	}
	return s
}

// EncodeTo 按记录布局把快照写入 dst 的前 RecordSize 字节。
func EncodeTo(dst []byte, s DepthSnapshot) error {
	if len(dst) < RecordSize {
		return &MalformedRecordError{Len: len(dst)}
	}
	putInt64(dst, 0, s.Price)
	putInt64(dst, 8, s.Timestamp)
	for i, lv := range s.Asks {
		off := AskOffset + i*LevelSize
		putInt64(dst, off, lv.Price)
		putInt64(dst, off+8, lv.Quantity)
	}
	for i, lv := range s.Bids {
		off := BidOffset + i*LevelSize
		putInt64(dst, off, lv.Price)
		putInt64(dst, off+8, lv.Quantity)
	}
	return nil
}

// AppendEncode 将编码后的记录追加到 dst。
func AppendEncode(dst []byte, s DepthSnapshot) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, RecordSize)...)
	_ = EncodeTo(dst[n:], s)
	return dst
}

// Encode 返回快照的记录字节。
func Encode(s DepthSnapshot) []byte {
	return AppendEncode(make([]byte, 0, RecordSize), s)
}

func readInt64(b []byte, off int) int64 {
	return int64(binary.LittleEndian.Uint64(b[off : off+8]))
}

func putInt64(b []byte, off int, v int64) {
	binary.LittleEndian.PutUint64(b[off:off+8], uint64(v))
}
