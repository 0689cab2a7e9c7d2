package market

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleSnapshot 构造每个字段都不同的快照，便于发现偏移错误。
func sampleSnapshot(seed int64) DepthSnapshot {
	s := DepthSnapshot{Price: seed * 1000, Timestamp: 1_700_000_000_000_000 + seed}
	for i := 0; i < DepthLevels; i++ {
		s.Asks[i] = Level{Price: seed*1000 + int64(i) + 1, Quantity: -(seed + int64(i))}
		s.Bids[i] = Level{Price: seed*1000 - int64(i), Quantity: seed*7 + int64(i)*3}
	}
	return s
}

func TestDecodeHeaderScenario(t *testing.T) {
	buf := make([]byte, RecordSize)
	price, ts := int64(-12345), int64(1700000000000000)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(price))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(ts))

	s, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), s.Price)
	assert.Equal(t, int64(1700000000000000), s.Timestamp)
	assert.Len(t, s.Asks, DepthLevels)
	assert.Len(t, s.Bids, DepthLevels)
}

func TestDecodeLevelOffsets(t *testing.T) {
	buf := make([]byte, RecordSize)
	for i := 0; i < DepthLevels; i++ {
		binary.LittleEndian.PutUint64(buf[16+16*i:], uint64(int64(100+i)))
		binary.LittleEndian.PutUint64(buf[24+16*i:], uint64(int64(-(200 + i))))
		binary.LittleEndian.PutUint64(buf[1616+16*i:], uint64(int64(300+i)))
		binary.LittleEndian.PutUint64(buf[1624+16*i:], uint64(int64(400+i)))
	}

	s, err := Decode(buf)
	require.NoError(t, err)
	for i := 0; i < DepthLevels; i++ {
		assert.Equal(t, Level{Price: int64(100 + i), Quantity: int64(-(200 + i))}, s.Asks[i], "ask %d", i)
		assert.Equal(t, Level{Price: int64(300 + i), Quantity: int64(400 + i)}, s.Bids[i], "bid %d", i)
	}
}

func TestDecodeLittleEndianTwosComplement(t *testing.T) {
	buf := make([]byte, RecordSize)
	// 0x01 在最低位字节 => 1；全 0xFF => -1
	buf[0] = 0x01
	for i := 8; i < 16; i++ {
		buf[i] = 0xFF
	}
	s, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Price)
	assert.Equal(t, int64(-1), s.Timestamp)
}

func TestDecodeShortInput(t *testing.T) {
	for _, n := range []int{0, 1, 16, RecordSize - 1} {
		_, err := Decode(make([]byte, n))
		require.Error(t, err, "len=%d", n)
		assert.True(t, errors.Is(err, ErrMalformedRecord), "len=%d", n)

		var mre *MalformedRecordError
		require.True(t, errors.As(err, &mre))
		assert.Equal(t, n, mre.Len)
	}
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestDecodeIgnoresExcess(t *testing.T) {
	want := sampleSnapshot(3)
	buf := append(Encode(want), 0xde, 0xad, 0xbe, 0xef)
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, seed := range []int64{0, 1, -42, 9_000_000_000} {
		want := sampleSnapshot(seed)
		raw := Encode(want)
		require.Len(t, raw, RecordSize)

		got, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got, "seed %d", seed)
	}
}

func TestDecodeOwnsItsData(t *testing.T) {
	buf := Encode(sampleSnapshot(5))
	s, err := Decode(buf)
	require.NoError(t, err)

	for i := range buf {
		buf[i] = 0
	}
	assert.Equal(t, sampleSnapshot(5), s)
}

func TestEncodeToShortBuffer(t *testing.T) {
	err := EncodeTo(make([]byte, 10), DepthSnapshot{})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestAppendEncode(t *testing.T) {
	a, b := sampleSnapshot(1), sampleSnapshot(2)
	buf := AppendEncode(AppendEncode(nil, a), b)
	require.Len(t, buf, 2*RecordSize)
	assert.Equal(t, Encode(a), buf[:RecordSize])
	assert.Equal(t, Encode(b), buf[RecordSize:])
}

func BenchmarkDecode(b *testing.B) {
	raw := Encode(sampleSnapshot(7))
	b.SetBytes(RecordSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(raw); err != nil {
			b.Fatal(err)
		}
	}
}
