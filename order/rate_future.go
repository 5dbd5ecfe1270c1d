package order

import (
	"context"
	"sync"

	"pandaquant/instrument"
	"pandaquant/logger"
)

// 期货手续费计费方式
const (
	CostTypePerLot   = 0 // 按手数
	CostTypeNotional = 1 // 按成交金额
)

// FutureFeeRate 期货手续费率
type FutureFeeRate struct {
	Symbol      string  `json:"symbol"`
	CostType    int     `json:"cost_type"`
	OpenRate    float64 `json:"open_rate"`     // 开仓费率（每手或比例）
	CloseRate   float64 `json:"close_rate"`    // 平仓费率
	CloseTdRate float64 `json:"close_td_rate"` // 平今费率
}

// FutureRateSource 期货手续费数据源
type FutureRateSource interface {
	FutureFeeRate(ctx context.Context, symbol string) (*FutureFeeRate, error)
}

// FutureRateManager 期货手续费管理
type FutureRateManager struct {
	source     FutureRateSource
	infos      *instrument.InfoMap
	multiplier float64

	mu    sync.RWMutex
	cache map[string]*FutureFeeRate
}

// NewFutureRateManager 创建期货手续费管理器
func NewFutureRateManager(source FutureRateSource, infos *instrument.InfoMap, multiplier float64) *FutureRateManager {
	if multiplier <= 0 {
		multiplier = 1
	}
	return &FutureRateManager{
		source:     source,
		infos:      infos,
		multiplier: multiplier,
		cache:      make(map[string]*FutureFeeRate),
	}
}

// rate 取手续费率（带缓存，缺失按零费率）
func (m *FutureRateManager) rate(symbol string) *FutureFeeRate {
	m.mu.RLock()
	if r, ok := m.cache[symbol]; ok {
		m.mu.RUnlock()
		return r
	}
	m.mu.RUnlock()

	var r *FutureFeeRate
	if m.source != nil {
		var err error
		r, err = m.source.FutureFeeRate(context.Background(), symbol)
		if err != nil {
			logger.Warn("⚠️ 期货费率查询失败: %s, %v", symbol, err)
		}
	}
	if r == nil {
		r = &FutureFeeRate{Symbol: symbol}
	}

	m.mu.Lock()
	m.cache[symbol] = r
	m.mu.Unlock()
	return r
}

// OpenCost 开仓手续费
func (m *FutureRateManager) OpenCost(symbol string, price float64, vol int) float64 {
	r := m.rate(symbol)
	return m.cost(symbol, r.CostType, r.OpenRate, price, vol)
}

// CloseCost 平仓手续费，closeToday 使用平今费率
func (m *FutureRateManager) CloseCost(symbol string, price float64, vol int, closeToday bool) float64 {
	r := m.rate(symbol)
	rate := r.CloseRate
	if closeToday {
		rate = r.CloseTdRate
	}
	return m.cost(symbol, r.CostType, rate, price, vol)
}

func (m *FutureRateManager) cost(symbol string, costType int, rate, price float64, vol int) float64 {
	if costType == CostTypePerLot {
		return rate * float64(vol) * m.multiplier
	}
	info := m.infos.Future(symbol)
	return rate * price * float64(vol) * info.ContractMul * m.multiplier
}
