package account

import (
	"pandaquant/logger"
	"pandaquant/order"
	"pandaquant/quotation"
)

// StockAccount 股票账户
//
// 资金恒等式：total_profit = available + market_value + frozen_capital。
// 买单在报单时冻结预估资金，成交按比例解冻并扣实际金额；卖单冻结
// 可卖数量，T+1 规则在换日时将全部持仓转为可卖。
type StockAccount struct {
	AccountID    string  `json:"account_id"`
	StartCapital float64 `json:"start_capital"`

	Available     float64 `json:"available"`      // 可用资金
	FrozenCapital float64 `json:"frozen_capital"` // 挂单冻结资金

	YesTotalCapital float64 `json:"yes_total_capital"` // 昨日总资金

	Deposit       float64 `json:"deposit"`        // 累计入金
	Withdraw      float64 `json:"withdraw"`       // 累计出金
	TodayDeposit  float64 `json:"today_deposit"`  // 当日入金
	TodayWithdraw float64 `json:"today_withdraw"` // 当日出金

	Positions map[string]*StockPosition `json:"positions"`

	// 挂单冻结明细：报单号 → 剩余冻结资金 / 冻结可卖数量
	frozenCash   map[string]float64
	frozenShares map[string]int
}

// NewStockAccount 创建股票账户
func NewStockAccount(accountID string, startCapital float64) *StockAccount {
	return &StockAccount{
		AccountID:       accountID,
		StartCapital:    startCapital,
		Available:       startCapital,
		YesTotalCapital: startCapital,
		Positions:       make(map[string]*StockPosition),
		frozenCash:      make(map[string]float64),
		frozenShares:    make(map[string]int),
	}
}

// Rehydrate 重建未导出字段（快照反序列化后调用）
func (a *StockAccount) Rehydrate() {
	if a.frozenCash == nil {
		a.frozenCash = make(map[string]float64)
	}
	if a.frozenShares == nil {
		a.frozenShares = make(map[string]int)
	}
}

// position 取或建持仓
func (a *StockAccount) position(symbol string) *StockPosition {
	p, ok := a.Positions[symbol]
	if !ok {
		p = &StockPosition{Symbol: symbol}
		a.Positions[symbol] = p
	}
	return p
}

// MarketValue 全部持仓市值
func (a *StockAccount) MarketValue() float64 {
	var mv float64
	for _, p := range a.Positions {
		mv += p.MarketValue()
	}
	return mv
}

// TotalProfit 总资金
func (a *StockAccount) TotalProfit() float64 {
	return a.Available + a.MarketValue() + a.FrozenCapital
}

// AddProfit 累计收益
func (a *StockAccount) AddProfit() float64 {
	return a.TotalProfit() - a.StartCapital + a.Withdraw - a.Deposit
}

// DailyPnl 当日盈亏
func (a *StockAccount) DailyPnl() float64 {
	return a.TotalProfit() - a.YesTotalCapital + a.TodayWithdraw - a.TodayDeposit
}

// Sellable 合约当前可卖数量
func (a *StockAccount) Sellable(symbol string) int {
	if p, ok := a.Positions[symbol]; ok {
		return p.Sellable
	}
	return 0
}

// OnRtnOrder 报单回报：挂单冻结与撤单解冻
func (a *StockAccount) OnRtnOrder(o *order.Order) {
	switch o.Status {
	case order.StatusActive:
		if o.Side == order.SideBuy {
			a.FrozenCapital += o.Margin
			a.Available -= o.Margin
			a.frozenCash[o.OrderID] = o.Margin
		} else {
			a.position(o.Symbol).Sellable -= o.Quantity
			a.frozenShares[o.OrderID] = o.Quantity
		}
	case order.StatusCancelled, order.StatusPartTradedNotQueue,
		order.StatusNoTradeNotQueue, order.StatusRejected:
		a.release(o)
	case order.StatusFilled:
		a.release(o)
	}
}

// release 解冻报单剩余占用
func (a *StockAccount) release(o *order.Order) {
	if f, ok := a.frozenCash[o.OrderID]; ok {
		a.FrozenCapital -= f
		a.Available += f
		delete(a.frozenCash, o.OrderID)
	}
	if s, ok := a.frozenShares[o.OrderID]; ok {
		// 已成交部分在成交时消耗，仅归还未成交冻结
		unfilled := s - o.Filled
		if unfilled > 0 {
			a.position(o.Symbol).Sellable += unfilled
		}
		delete(a.frozenShares, o.OrderID)
	}
}

// OnRtnTrade 成交回报
func (a *StockAccount) OnRtnTrade(t *order.Trade, o *order.Order) {
	p := a.position(t.Symbol)
	notional := t.Price * float64(t.Volume)

	if t.Side == order.SideBuy {
		// 按成交量比例解冻
		if f, ok := a.frozenCash[t.OrderID]; ok && o != nil && o.Quantity > 0 {
			r := o.Margin * float64(t.Volume) / float64(o.Quantity)
			if r > f {
				r = f
			}
			a.frozenCash[t.OrderID] = f - r
			a.FrozenCapital -= r
			a.Available += r
		}
		a.Available -= notional + t.Cost

		newPos := p.Position + t.Volume
		p.HoldPrice = (p.HoldPrice*float64(p.Position) + notional + t.Cost) / float64(newPos)
		p.Position = newPos
		p.TdPosition += t.Volume
		if p.BuyDate == "" {
			p.BuyDate = t.TradeDate
		}
	} else {
		a.Available += notional - t.Cost
		p.Position -= t.Volume
		p.RealizedPnl += (t.Price-p.HoldPrice)*float64(t.Volume) - t.Cost
		if s, ok := a.frozenShares[t.OrderID]; ok {
			a.frozenShares[t.OrderID] = s - t.Volume
		}
	}

	p.LastPrice = t.Price
	p.Cost += t.Cost
}

// OnQuotationChange 行情刷新持仓最新价
func (a *StockAccount) OnQuotationChange(bars *quotation.BarMap) {
	for _, p := range a.Positions {
		bar := bars.Get(p.Symbol)
		if !bar.Empty() && bar.Close > 0 {
			p.LastPrice = bar.Close
		}
	}
}

// OnNewDate 换日：T+1 持仓转可卖，昨日总资金落账
//
// 已卖光的持仓到此才移除，当日累计的费用与平仓盈亏在日终快照
// 里仍可见。
func (a *StockAccount) OnNewDate(date string) {
	a.YesTotalCapital = a.TotalProfit()
	a.TodayDeposit = 0
	a.TodayWithdraw = 0
	for s, p := range a.Positions {
		if p.Position <= 0 && p.Sellable <= 0 {
			delete(a.Positions, s)
			continue
		}
		p.Sellable = p.Position
		p.TdPosition = 0
	}
}

// OnEndDate 日终
func (a *StockAccount) OnEndDate(date string) {
	if len(a.frozenCash) != 0 || len(a.frozenShares) != 0 {
		logger.Warn("⚠️ 股票账户日终仍有未解冻报单: %s", a.AccountID)
	}
}

// AddCash 入金
func (a *StockAccount) AddCash(amount float64) {
	a.Available += amount
	a.Deposit += amount
	a.TodayDeposit += amount
}

// WithdrawCash 出金，可用不足返回 false
func (a *StockAccount) WithdrawCash(amount float64) bool {
	if amount > a.Available {
		return false
	}
	a.Available -= amount
	a.Withdraw += amount
	a.TodayWithdraw += amount
	return true
}

// Dividend 分红除权：现金红利入账，送转股调整持仓
func (a *StockAccount) Dividend(symbol string, cashPerShare, shareRatio float64) {
	p, ok := a.Positions[symbol]
	if !ok || p.Position == 0 {
		return
	}
	if cashPerShare > 0 {
		a.Available += cashPerShare * float64(p.Position)
	}
	if shareRatio > 0 {
		add := int(float64(p.Position) * shareRatio)
		p.Position += add
		p.Sellable += add
		if p.Position > 0 {
			// 除权后持仓均价摊薄
			p.HoldPrice = p.HoldPrice * float64(p.Position-add) / float64(p.Position)
		}
	}
}

// Symbols 持仓合约列表
func (a *StockAccount) Symbols() []string {
	out := make([]string, 0, len(a.Positions))
	for s := range a.Positions {
		out = append(out, s)
	}
	return out
}
