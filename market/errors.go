package market

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord 表示输入不足一条完整记录。
var ErrMalformedRecord = errors.New("malformed depth record")

// MalformedRecordError 携带实际收到的字节数。
type MalformedRecordError struct {
	Len int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: got %d bytes, need %d", ErrMalformedRecord, e.Len, RecordSize)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }
