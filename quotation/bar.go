package quotation

import "sync"

// Bar K线数据
type Bar struct {
	Symbol    string  `json:"symbol"`
	TradeDate string  `json:"trade_date"` // yyyyMMdd
	Hms       string  `json:"hms"`        // HHmmss，日线为空

	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	Turnover float64 `json:"turnover"`

	Settle     float64 `json:"settle"`      // 结算价（期货）
	PrevSettle float64 `json:"prev_settle"` // 昨结算价（期货）

	LimitUp   float64 `json:"limit_up"`   // 涨停价
	LimitDown float64 `json:"limit_down"` // 跌停价

	OpenInterest float64 `json:"open_interest"` // 持仓量（期货）
	UnitNav      float64 `json:"unit_nav"`      // 单位净值（基金）

	Suspended bool `json:"suspended"` // 是否停牌
}

// Empty 是否空行情（当日无数据或停牌）
func (b *Bar) Empty() bool {
	return b == nil || (b.Open == 0 && b.Close == 0 && b.Volume == 0 && b.UnitNav == 0)
}

// BarMap 当前行情视图（按合约缓存最新一根K线）
type BarMap struct {
	mu   sync.RWMutex
	bars map[string]*Bar
}

// NewBarMap 创建行情视图
func NewBarMap() *BarMap {
	return &BarMap{bars: make(map[string]*Bar)}
}

// Get 取合约当前K线，缺失返回仅带合约代码的空K线
func (m *BarMap) Get(symbol string) *Bar {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.bars[symbol]; ok {
		return b
	}
	return &Bar{Symbol: symbol}
}

// Put 写入合约当前K线
func (m *BarMap) Put(bar *Bar) {
	if bar == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[bar.Symbol] = bar
}

// Symbols 返回当前缓存的全部合约
func (m *BarMap) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.bars))
	for s := range m.bars {
		out = append(out, s)
	}
	return out
}

// Clear 清空视图（换日时调用）
func (m *BarMap) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars = make(map[string]*Bar)
}
