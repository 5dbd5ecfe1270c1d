package order

import (
	"context"
	"sync"

	"pandaquant/logger"
)

// 基金费用兜底：查不到任何费率档位时按固定 10 元收取
const fundDefaultFee = 10

// FundFeeTier 基金费率档位
//
// 申购档位按金额区间匹配，赎回档位按持有自然日区间匹配；
// Rate 小于 1 视为比例费率，否则视为固定费用（元）。High 为 0
// 表示无上限。
type FundFeeTier struct {
	Symbol   string  `json:"symbol"`    // 为空表示基金类别默认档
	FundType string  `json:"fund_type"`
	Side     int     `json:"side"` // 0申购 1赎回
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Rate     float64 `json:"rate"`
}

// FundRateSource 基金费率数据源
type FundRateSource interface {
	// FundFeeTiers 返回合约自有档位与类别默认档位
	FundFeeTiers(ctx context.Context, symbol, fundType string) ([]*FundFeeTier, error)
}

// FundRateManager 基金费率管理
type FundRateManager struct {
	source FundRateSource

	mu    sync.RWMutex
	cache map[string][]*FundFeeTier
}

// NewFundRateManager 创建基金费率管理器
func NewFundRateManager(source FundRateSource) *FundRateManager {
	return &FundRateManager{
		source: source,
		cache:  make(map[string][]*FundFeeTier),
	}
}

// PurchaseFee 申购费用
func (m *FundRateManager) PurchaseFee(symbol, fundType string, amount float64) float64 {
	return m.fee(symbol, fundType, SideBuy, amount, amount)
}

// RedeemFee 赎回费用，holdingDays 为持有自然日
func (m *FundRateManager) RedeemFee(symbol, fundType string, amount float64, holdingDays int) float64 {
	return m.fee(symbol, fundType, SideSell, float64(holdingDays), amount)
}

// fee 档位匹配：合约自有档优先，类别默认档兜底，最后固定费用
func (m *FundRateManager) fee(symbol, fundType string, side int, key, base float64) float64 {
	tiers := m.tiers(symbol, fundType)

	if t := matchTier(tiers, symbol, side, key); t != nil {
		return applyRate(t.Rate, base)
	}
	if t := matchTier(tiers, "", side, key); t != nil {
		return applyRate(t.Rate, base)
	}
	return fundDefaultFee
}

func (m *FundRateManager) tiers(symbol, fundType string) []*FundFeeTier {
	m.mu.RLock()
	if ts, ok := m.cache[symbol]; ok {
		m.mu.RUnlock()
		return ts
	}
	m.mu.RUnlock()

	var ts []*FundFeeTier
	if m.source != nil {
		var err error
		ts, err = m.source.FundFeeTiers(context.Background(), symbol, fundType)
		if err != nil {
			logger.Warn("⚠️ 基金费率查询失败: %s, %v", symbol, err)
		}
	}

	m.mu.Lock()
	m.cache[symbol] = ts
	m.mu.Unlock()
	return ts
}

// matchTier 在指定来源（合约自有或默认档）中按区间匹配
func matchTier(tiers []*FundFeeTier, symbol string, side int, key float64) *FundFeeTier {
	for _, t := range tiers {
		if t.Symbol != symbol || t.Side != side {
			continue
		}
		if key < t.Low {
			continue
		}
		if t.High > 0 && key >= t.High {
			continue
		}
		return t
	}
	return nil
}

// applyRate 比例费率按基数计费，固定费率直接收取
func applyRate(rate, base float64) float64 {
	if rate < 1 {
		return base * rate
	}
	return rate
}
