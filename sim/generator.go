package sim

import (
	"math/rand/v2"

	"shm-depth-go/market"
)

// Generator 生成随机游走的深度快照，用于模拟生产者写入共享内存。
// 每次 Next 后时间戳 +1，价格移动 rand(Range) - Offset 个单位。
type Generator struct {
	Price     int64
	Range     int64
	Offset    int64
	Timestamp int64

	rng *rand.Rand
}

// NewGenerator 使用固定种子，便于重放。
func NewGenerator(price, priceRange, offset int64, seed uint64) *Generator {
	return &Generator{
		Price:  price,
		Range:  priceRange,
		Offset: offset,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Next 把下一条快照写入 depth。
func (g *Generator) Next(depth *market.DepthSnapshot) {
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(1, 2))
	}
	Fill(depth, g.Price, g.Timestamp, g.rng.Int64N(300), g.rng.Int64N(300))
	g.Timestamp++
	if g.Range > 0 {
		g.Price += g.rng.Int64N(g.Range) - g.Offset
	}
}

// Fill 以 price 为中心填充 100 档：ask 从 price+1 递增，bid 从 price 递减，
// 数量从给定初值逐档递减。
func Fill(depth *market.DepthSnapshot, price, timestamp, askVolume, bidVolume int64) {
	depth.Price = price
	depth.Timestamp = timestamp
	for i := range depth.Asks {
		depth.Asks[i] = market.Level{Price: price + int64(i) + 1, Quantity: askVolume}
		askVolume--
	}
	for i := range depth.Bids {
		depth.Bids[i] = market.Level{Price: price - int64(i), Quantity: bidVolume}
		bidVolume--
	}
}
