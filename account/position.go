package account

// StockPosition 股票持仓
type StockPosition struct {
	Symbol     string  `json:"symbol"`
	Position   int     `json:"position"`    // 总持仓（股）
	Sellable   int     `json:"sellable"`    // 可卖数量（T+1）
	TdPosition int     `json:"td_position"` // 今日买入
	HoldPrice  float64 `json:"hold_price"`  // 持仓均价
	LastPrice  float64 `json:"last_price"`  // 最新价
	Cost       float64 `json:"cost"`        // 累计费用
	RealizedPnl float64 `json:"realized_pnl"`
	BuyDate    string  `json:"buy_date"` // 最早买入日（基金持有期计费用不到，股票分红登记用）
}

// MarketValue 持仓市值
func (p *StockPosition) MarketValue() float64 {
	return float64(p.Position) * p.LastPrice
}

// FutureSide 期货单边持仓（多头或空头）
type FutureSide struct {
	Position         int     `json:"position"`           // 总持仓（手）
	TdPosition       int     `json:"td_position"`        // 今仓
	FrozenPosition   int     `json:"frozen_position"`    // 挂单冻结
	FrozenTdPosition int     `json:"frozen_td_position"` // 挂单冻结今仓
	HoldPrice        float64 `json:"hold_price"`         // 持仓均价
	LastPrice        float64 `json:"last_price"`         // 最新价
	Margin           float64 `json:"margin"`             // 占用保证金
	Cost             float64 `json:"cost"`               // 累计手续费
	HoldingPnl       float64 `json:"holding_pnl"`        // 浮动盈亏
	RealizedPnl      float64 `json:"realized_pnl"`       // 平仓盈亏
	AccumulateProfit float64 `json:"accumulate_profit"`  // 累计盈亏

	// 今仓开仓明细 (价格, 手数)，平今按先开先平消耗
	TodayLots [][2]float64 `json:"today_lots"`
}

// Closable 可平数量（扣除冻结）
func (s *FutureSide) Closable() int {
	return s.Position - s.FrozenPosition
}

// ClosableToday 可平今数量
func (s *FutureSide) ClosableToday() int {
	return s.TdPosition - s.FrozenTdPosition
}

// FuturePosition 期货持仓（多空两册）
type FuturePosition struct {
	Symbol string      `json:"symbol"`
	Long   *FutureSide `json:"long"`
	Short  *FutureSide `json:"short"`
}

// NewFuturePosition 创建期货持仓
func NewFuturePosition(symbol string) *FuturePosition {
	return &FuturePosition{
		Symbol: symbol,
		Long:   &FutureSide{},
		Short:  &FutureSide{},
	}
}

// Empty 多空双边均无持仓且无冻结
func (p *FuturePosition) Empty() bool {
	return p.Long.Position == 0 && p.Short.Position == 0 &&
		p.Long.FrozenPosition == 0 && p.Short.FrozenPosition == 0
}

// FundPosition 基金持仓
type FundPosition struct {
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`     // 持有份额
	Sellable  float64 `json:"sellable"`   // 可赎回份额（扣除冻结）
	HoldNav   float64 `json:"hold_nav"`   // 持仓成本净值
	LastNav   float64 `json:"last_nav"`   // 最新净值
	Cost      float64 `json:"cost"`       // 累计费用
	RealizedPnl float64 `json:"realized_pnl"`
	BuyDate   string  `json:"buy_date"` // 首次确认日（赎回费持有期起点）
}

// MarketValue 持仓市值
func (p *FundPosition) MarketValue() float64 {
	return p.Shares * p.LastNav
}
