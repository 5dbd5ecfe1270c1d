package account

import (
	"pandaquant/order"
	"pandaquant/quotation"
)

// FundAccount 基金账户
//
// 申购在报单时冻结全额资金，确认日按确认净值折算份额；赎回份额
// 在报单时冻结，确认后资金进入在途，到账日划入可用。
// total_profit = available + market_value + frozen_capital + in_transit。
type FundAccount struct {
	AccountID    string  `json:"account_id"`
	StartCapital float64 `json:"start_capital"`

	Available     float64 `json:"available"`
	FrozenCapital float64 `json:"frozen_capital"` // 申购在途冻结

	YesTotalCapital float64 `json:"yes_total_capital"`

	Deposit       float64 `json:"deposit"`
	Withdraw      float64 `json:"withdraw"`
	TodayDeposit  float64 `json:"today_deposit"`
	TodayWithdraw float64 `json:"today_withdraw"`

	Positions map[string]*FundPosition `json:"positions"`
	InTransit map[string]float64       `json:"in_transit"` // 到账日 → 赎回在途资金

	frozenCash   map[string]float64 // 报单号 → 冻结申购金额
	frozenShares map[string]float64 // 报单号 → 冻结赎回份额
}

// NewFundAccount 创建基金账户
func NewFundAccount(accountID string, startCapital float64) *FundAccount {
	return &FundAccount{
		AccountID:       accountID,
		StartCapital:    startCapital,
		Available:       startCapital,
		YesTotalCapital: startCapital,
		Positions:       make(map[string]*FundPosition),
		InTransit:       make(map[string]float64),
		frozenCash:      make(map[string]float64),
		frozenShares:    make(map[string]float64),
	}
}

// Rehydrate 重建未导出字段（快照反序列化后调用）
func (a *FundAccount) Rehydrate() {
	if a.InTransit == nil {
		a.InTransit = make(map[string]float64)
	}
	if a.frozenCash == nil {
		a.frozenCash = make(map[string]float64)
	}
	if a.frozenShares == nil {
		a.frozenShares = make(map[string]float64)
	}
}

func (a *FundAccount) position(symbol string) *FundPosition {
	p, ok := a.Positions[symbol]
	if !ok {
		p = &FundPosition{Symbol: symbol}
		a.Positions[symbol] = p
	}
	return p
}

// MarketValue 持仓市值
func (a *FundAccount) MarketValue() float64 {
	var mv float64
	for _, p := range a.Positions {
		mv += p.MarketValue()
	}
	return mv
}

// TransitTotal 赎回在途资金合计
func (a *FundAccount) TransitTotal() float64 {
	var sum float64
	for _, v := range a.InTransit {
		sum += v
	}
	return sum
}

// TotalProfit 总资金
func (a *FundAccount) TotalProfit() float64 {
	return a.Available + a.MarketValue() + a.FrozenCapital + a.TransitTotal()
}

// AddProfit 累计收益
func (a *FundAccount) AddProfit() float64 {
	return a.TotalProfit() - a.StartCapital + a.Withdraw - a.Deposit
}

// DailyPnl 当日盈亏
func (a *FundAccount) DailyPnl() float64 {
	return a.TotalProfit() - a.YesTotalCapital + a.TodayWithdraw - a.TodayDeposit
}

// Sellable 可赎回份额
func (a *FundAccount) Sellable(symbol string) float64 {
	if p, ok := a.Positions[symbol]; ok {
		return p.Sellable
	}
	return 0
}

// OnRtnOrder 报单回报
func (a *FundAccount) OnRtnOrder(o *order.Order) {
	switch o.Status {
	case order.StatusActive:
		if o.Side == order.SideBuy {
			a.Available -= o.Amount
			a.FrozenCapital += o.Amount
			a.frozenCash[o.OrderID] = o.Amount
		} else {
			a.position(o.Symbol).Sellable -= o.Shares
			a.frozenShares[o.OrderID] = o.Shares
		}
	case order.StatusCancelled, order.StatusRejected, order.StatusFilled:
		a.release(o)
	}
}

// release 撤单解冻（已确认部分在确认时消耗）
func (a *FundAccount) release(o *order.Order) {
	if f, ok := a.frozenCash[o.OrderID]; ok {
		if o.Status != order.StatusFilled {
			a.FrozenCapital -= f
			a.Available += f
		}
		delete(a.frozenCash, o.OrderID)
	}
	if s, ok := a.frozenShares[o.OrderID]; ok {
		if o.Status != order.StatusFilled {
			a.position(o.Symbol).Sellable += s
		}
		delete(a.frozenShares, o.OrderID)
	}
}

// OnRtnTrade 确认回报
func (a *FundAccount) OnRtnTrade(t *order.Trade, o *order.Order) {
	p := a.position(t.Symbol)

	if t.Side == order.SideBuy {
		// 申购确认：冻结资金转为份额
		a.FrozenCapital -= t.Amount
		delete(a.frozenCash, t.OrderID)

		newShares := p.Shares + t.Shares
		if newShares > 0 {
			p.HoldNav = (p.HoldNav*p.Shares + t.Amount) / newShares
		}
		p.Shares = newShares
		p.Sellable += t.Shares
		p.LastNav = t.UnitNav
		p.Cost += t.Cost
		if p.BuyDate == "" {
			p.BuyDate = t.TradeDate
		}
	} else {
		// 赎回确认：份额出账，资金进入在途
		delete(a.frozenShares, t.OrderID)
		p.Shares -= t.Shares
		p.RealizedPnl += (t.UnitNav-p.HoldNav)*t.Shares - t.Cost
		p.Cost += t.Cost
		p.LastNav = t.UnitNav

		if o != nil && o.ArriveDate != "" {
			a.InTransit[o.ArriveDate] += t.Amount
		} else {
			a.Available += t.Amount
		}
		if p.Shares <= 0 && p.Sellable <= 0 {
			delete(a.Positions, t.Symbol)
		}
	}
}

// OnArrive 到账日划转在途资金
func (a *FundAccount) OnArrive(date string) {
	if v, ok := a.InTransit[date]; ok {
		a.Available += v
		delete(a.InTransit, date)
	}
}

// OnQuotationChange 刷新最新净值
func (a *FundAccount) OnQuotationChange(bars *quotation.BarMap) {
	for _, p := range a.Positions {
		bar := bars.Get(p.Symbol)
		if bar.UnitNav > 0 {
			p.LastNav = bar.UnitNav
		}
	}
}

// OnNewDate 换日
func (a *FundAccount) OnNewDate(date string) {
	a.YesTotalCapital = a.TotalProfit()
	a.TodayDeposit = 0
	a.TodayWithdraw = 0
	a.OnArrive(date)
}

// Split 基金拆分：份额按比例放大，成本净值同步缩小
func (a *FundAccount) Split(symbol string, ratio float64) {
	p, ok := a.Positions[symbol]
	if !ok || ratio <= 0 || ratio == 1 {
		return
	}
	p.Shares *= ratio
	p.Sellable *= ratio
	if p.HoldNav > 0 {
		p.HoldNav /= ratio
	}
	if p.LastNav > 0 {
		p.LastNav /= ratio
	}
}

// AddCash 入金
func (a *FundAccount) AddCash(amount float64) {
	a.Available += amount
	a.Deposit += amount
	a.TodayDeposit += amount
}

// WithdrawCash 出金
func (a *FundAccount) WithdrawCash(amount float64) bool {
	if amount > a.Available {
		return false
	}
	a.Available -= amount
	a.Withdraw += amount
	a.TodayWithdraw += amount
	return true
}

// Symbols 持仓合约列表
func (a *FundAccount) Symbols() []string {
	out := make([]string, 0, len(a.Positions))
	for s := range a.Positions {
		out = append(out, s)
	}
	return out
}
