package market

// 记录布局：16 字节头（price + timestamp），随后 100 档 ask、100 档 bid，
// 每档 price/quantity 各 8 字节，小端有符号 64 位整数。
const (
	DepthLevels = 100
	LevelSize   = 16
	HeaderSize  = 16
	AskOffset   = HeaderSize
	BidOffset   = AskOffset + DepthLevels*LevelSize
	RecordSize  = BidOffset + DepthLevels*LevelSize // 3216
)

// Level 为一档深度（价格, 数量）。
type Level struct {
	Price    int64
	Quantity int64
}

// DepthSnapshot 为一条完整的深度记录。
// 数组按值持有，解码后与源缓冲区没有任何共享。
type DepthSnapshot struct {
	Price     int64
	Timestamp int64
	Asks      [DepthLevels]Level
	Bids      [DepthLevels]Level
}

// Record 是一条记录的私有字节副本。
type Record [RecordSize]byte
