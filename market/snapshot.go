package market

import "github.com/shopspring/decimal"

// Summary represents the top-of-book view derived from a DepthSnapshot.
// Prices stay in the producer's integer units.
type Summary struct {
	Price     int64
	BestBid   int64
	BestAsk   int64
	Spread    int64
	Mid       float64
	Timestamp int64
	TwoSided  bool // 买卖两侧均有有效档位
}

// Summarize 计算最优买卖价；数量 <= 0 的档位视为空档。
// 档位顺序由生产者决定，这里逐档比较而不假设有序。
func Summarize(s DepthSnapshot) Summary {
	sum := Summary{Price: s.Price, Timestamp: s.Timestamp}
	haveBid, haveAsk := false, false
	for _, lv := range s.Bids {
		if lv.Quantity <= 0 {
			continue
		}
		if !haveBid || lv.Price > sum.BestBid {
			sum.BestBid = lv.Price
			haveBid = true
		}
	}
	for _, lv := range s.Asks {
		if lv.Quantity <= 0 {
			continue
		}
		if !haveAsk || lv.Price < sum.BestAsk {
			sum.BestAsk = lv.Price
			haveAsk = true
		}
	}
	if haveBid && haveAsk {
		sum.TwoSided = true
		sum.Spread = sum.BestAsk - sum.BestBid
		sum.Mid = float64(sum.BestBid+sum.BestAsk) / 2
	}
	return sum
}

// DecimalPrice 把整数价格按 scale 位小数还原。
func DecimalPrice(v int64, scale int) decimal.Decimal {
	return decimal.New(v, -int32(scale))
}

// DecimalSummary 是 Summary 的定点小数形式，用于输出。
type DecimalSummary struct {
	Price     decimal.Decimal `json:"price"`
	BestBid   decimal.Decimal `json:"bestBid"`
	BestAsk   decimal.Decimal `json:"bestAsk"`
	Spread    decimal.Decimal `json:"spread"`
	Mid       decimal.Decimal `json:"mid"`
	Timestamp int64           `json:"timestamp"`
}

// Decimal 按 scale 位小数渲染。
func (s Summary) Decimal(scale int) DecimalSummary {
	mid := decimal.Zero
	if s.TwoSided {
		mid = DecimalPrice(s.BestBid+s.BestAsk, scale).Div(decimal.NewFromInt(2))
	}
	return DecimalSummary{
		Price:     DecimalPrice(s.Price, scale),
		BestBid:   DecimalPrice(s.BestBid, scale),
		BestAsk:   DecimalPrice(s.BestAsk, scale),
		Spread:    DecimalPrice(s.Spread, scale),
		Mid:       mid,
		Timestamp: s.Timestamp,
	}
}
