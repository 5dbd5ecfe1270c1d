package account

import (
	"pandaquant/instrument"
	"pandaquant/logger"
	"pandaquant/order"
	"pandaquant/quotation"
)

// frozenPos 平仓挂单冻结明细
type frozenPos struct {
	symbol string
	side   int // 报单方向（买平冻结空头，卖平冻结多头）
	qty    int
	tdQty  int
	filled int
}

// FutureAccount 期货账户
//
// 资金恒等式：total_profit = available + holding_pnl + frozen_capital + margin。
// 开仓单冻结预估保证金，成交转为持仓保证金；平仓单冻结仓位；
// 平今按开仓明细先开先平消耗。
type FutureAccount struct {
	AccountID    string  `json:"account_id"`
	StartCapital float64 `json:"start_capital"`

	Available     float64 `json:"available"`
	FrozenCapital float64 `json:"frozen_capital"` // 挂单冻结保证金

	YesTotalCapital float64 `json:"yes_total_capital"` // 昨日总资金
	NoSettleTotal   float64 `json:"no_settle_total"`   // 日终未结算总资金

	Deposit       float64 `json:"deposit"`
	Withdraw      float64 `json:"withdraw"`
	TodayDeposit  float64 `json:"today_deposit"`
	TodayWithdraw float64 `json:"today_withdraw"`

	Burned bool `json:"burned"` // 是否已爆仓

	Positions map[string]*FuturePosition `json:"positions"`

	infos            *instrument.InfoMap
	marginMultiplier float64

	frozenMargin map[string]float64    // 报单号 → 剩余冻结保证金
	frozenPoses  map[string]*frozenPos // 报单号 → 冻结仓位
}

// NewFutureAccount 创建期货账户
func NewFutureAccount(accountID string, startCapital float64, infos *instrument.InfoMap, marginMultiplier float64) *FutureAccount {
	if marginMultiplier <= 0 {
		marginMultiplier = 1
	}
	return &FutureAccount{
		AccountID:        accountID,
		StartCapital:     startCapital,
		Available:        startCapital,
		YesTotalCapital:  startCapital,
		NoSettleTotal:    startCapital,
		Positions:        make(map[string]*FuturePosition),
		infos:            infos,
		marginMultiplier: marginMultiplier,
		frozenMargin:     make(map[string]float64),
		frozenPoses:      make(map[string]*frozenPos),
	}
}

// Rehydrate 重建未导出字段（快照反序列化后调用）
func (a *FutureAccount) Rehydrate(infos *instrument.InfoMap, marginMultiplier float64) {
	a.infos = infos
	if marginMultiplier <= 0 {
		marginMultiplier = 1
	}
	a.marginMultiplier = marginMultiplier
	if a.frozenMargin == nil {
		a.frozenMargin = make(map[string]float64)
	}
	if a.frozenPoses == nil {
		a.frozenPoses = make(map[string]*frozenPos)
	}
}

// position 取或建持仓
func (a *FutureAccount) position(symbol string) *FuturePosition {
	p, ok := a.Positions[symbol]
	if !ok {
		p = NewFuturePosition(symbol)
		a.Positions[symbol] = p
	}
	return p
}

// closingSide 平仓单作用的持仓册：买平平空头，卖平平多头
func (p *FuturePosition) closingSide(orderSide int) *FutureSide {
	if orderSide == order.SideBuy {
		return p.Short
	}
	return p.Long
}

// openingSide 开仓单作用的持仓册
func (p *FuturePosition) openingSide(orderSide int) *FutureSide {
	if orderSide == order.SideBuy {
		return p.Long
	}
	return p.Short
}

// HoldingPnl 全部持仓浮动盈亏
func (a *FutureAccount) HoldingPnl() float64 {
	var sum float64
	for _, p := range a.Positions {
		sum += p.Long.HoldingPnl + p.Short.HoldingPnl
	}
	return sum
}

// Margin 全部持仓占用保证金
func (a *FutureAccount) Margin() float64 {
	var sum float64
	for _, p := range a.Positions {
		sum += p.Long.Margin + p.Short.Margin
	}
	return sum
}

// RealizedPnl 全部平仓盈亏
func (a *FutureAccount) RealizedPnl() float64 {
	var sum float64
	for _, p := range a.Positions {
		sum += p.Long.RealizedPnl + p.Short.RealizedPnl
	}
	return sum
}

// TotalProfit 总资金
func (a *FutureAccount) TotalProfit() float64 {
	return a.Available + a.HoldingPnl() + a.FrozenCapital + a.Margin()
}

// AddProfit 累计收益
func (a *FutureAccount) AddProfit() float64 {
	return a.TotalProfit() - a.StartCapital + a.Withdraw - a.Deposit
}

// DailyPnl 当日盈亏
func (a *FutureAccount) DailyPnl() float64 {
	return a.TotalProfit() - a.YesTotalCapital + a.TodayWithdraw - a.TodayDeposit
}

// Closable 可平仓位（买平查空头册）
func (a *FutureAccount) Closable(symbol string, orderSide int) int {
	p, ok := a.Positions[symbol]
	if !ok {
		return 0
	}
	return p.closingSide(orderSide).Closable()
}

// ClosableToday 可平今仓位
func (a *FutureAccount) ClosableToday(symbol string, orderSide int) int {
	p, ok := a.Positions[symbol]
	if !ok {
		return 0
	}
	return p.closingSide(orderSide).ClosableToday()
}

// OnRtnOrder 报单回报
func (a *FutureAccount) OnRtnOrder(o *order.Order) {
	switch o.Status {
	case order.StatusActive:
		if o.Effect == order.Open {
			a.FrozenCapital += o.Margin
			a.Available -= o.Margin
			a.frozenMargin[o.OrderID] = o.Margin
		} else {
			side := a.position(o.Symbol).closingSide(o.Side)
			side.FrozenPosition += o.Quantity
			if o.IsTdClose {
				side.FrozenTdPosition += o.CloseTdPos
			}
			a.frozenPoses[o.OrderID] = &frozenPos{
				symbol: o.Symbol, side: o.Side, qty: o.Quantity, tdQty: o.CloseTdPos,
			}
		}
	case order.StatusCancelled, order.StatusPartTradedNotQueue,
		order.StatusNoTradeNotQueue, order.StatusRejected, order.StatusFilled:
		a.release(o)
	}
}

// release 解冻报单剩余占用
func (a *FutureAccount) release(o *order.Order) {
	if f, ok := a.frozenMargin[o.OrderID]; ok {
		a.FrozenCapital -= f
		a.Available += f
		delete(a.frozenMargin, o.OrderID)
	}
	if fp, ok := a.frozenPoses[o.OrderID]; ok {
		side := a.position(fp.symbol).closingSide(fp.side)
		remain := fp.qty - fp.filled
		if remain > 0 {
			side.FrozenPosition -= remain
		}
		remainTd := fp.tdQty - fp.filled
		if remainTd > 0 {
			side.FrozenTdPosition -= remainTd
		}
		delete(a.frozenPoses, o.OrderID)
	}
}

// OnRtnTrade 成交回报
func (a *FutureAccount) OnRtnTrade(t *order.Trade, o *order.Order) {
	info := a.infos.Future(t.Symbol)
	if t.Effect == order.Open {
		a.applyOpen(t, o, info)
	} else {
		a.applyClose(t, info)
	}
}

// applyOpen 开仓成交
func (a *FutureAccount) applyOpen(t *order.Trade, o *order.Order, info *instrument.FutureInfo) {
	p := a.position(t.Symbol)
	side := p.openingSide(t.Side)

	// 按成交量比例解冻
	if f, ok := a.frozenMargin[t.OrderID]; ok && o != nil && o.Quantity > 0 {
		r := o.Margin * float64(t.Volume) / float64(o.Quantity)
		if r > f {
			r = f
		}
		a.frozenMargin[t.OrderID] = f - r
		a.FrozenCapital -= r
		a.Available += r
	}

	// 实际保证金
	m := t.Margin
	if m == 0 {
		rate := info.LongMarginRate(a.marginMultiplier)
		if t.Side == order.SideSell {
			rate = info.ShortMarginRate(a.marginMultiplier)
		}
		m = t.Price * float64(t.Volume) * info.ContractMul * rate
	}

	newPos := side.Position + t.Volume
	side.HoldPrice = (side.HoldPrice*float64(side.Position) + t.Price*float64(t.Volume)) / float64(newPos)
	side.Position = newPos
	side.TdPosition += t.Volume
	side.TodayLots = append(side.TodayLots, [2]float64{t.Price, float64(t.Volume)})

	side.Margin += m
	side.Cost += t.Cost
	a.Available -= m + t.Cost

	side.LastPrice = t.Price
	a.markSide(side, info, p.Long == side)
}

// applyClose 平仓成交
//
// 以最新标记价为基准：先把被平部分的浮动盈亏转为平仓盈亏，再用
// cj = (成交价 − 最新价) × 手数 × 乘数（买平取负）修正到实际成交价。
func (a *FutureAccount) applyClose(t *order.Trade, info *instrument.FutureInfo) {
	p := a.position(t.Symbol)
	side := p.closingSide(t.Side)
	isLong := p.Long == side
	mul := info.ContractMul

	if side.Position < t.Volume {
		logger.Error("❌ 平仓数量超出持仓: %s %d > %d", t.Symbol, t.Volume, side.Position)
		return
	}

	// 解冻仓位
	if fp, ok := a.frozenPoses[t.OrderID]; ok {
		fp.filled += t.Volume
	}
	side.FrozenPosition -= t.Volume
	if side.FrozenPosition < 0 {
		side.FrozenPosition = 0
	}
	if t.IsTdClose {
		side.FrozenTdPosition -= t.Volume
		if side.FrozenTdPosition < 0 {
			side.FrozenTdPosition = 0
		}
	}

	oldHolding := side.HoldingPnl

	// 保证金按比例释放
	mRel := side.Margin * float64(t.Volume) / float64(side.Position)

	if t.IsTdClose {
		// 平今消耗开仓明细并按明细重算持仓均价
		consumed := a.consumeTodayLots(side, t.Volume)
		remain := side.Position - t.Volume
		if remain > 0 {
			side.HoldPrice = (side.HoldPrice*float64(side.Position) - consumed) / float64(remain)
		} else {
			side.HoldPrice = 0
		}
		side.TdPosition -= t.Volume
		if side.TdPosition < 0 {
			side.TdPosition = 0
		}
	} else {
		// 普通平仓先平昨仓，超出部分消耗今仓及其开仓明细
		ydAvail := side.Position - side.TdPosition
		if tdUsed := t.Volume - ydAvail; tdUsed > 0 {
			a.consumeTodayLots(side, tdUsed)
			side.TdPosition -= tdUsed
			if side.TdPosition < 0 {
				side.TdPosition = 0
			}
		}
	}
	side.Position -= t.Volume

	a.markSide(side, info, isLong)
	newHolding := side.HoldingPnl

	cj := (t.Price - side.LastPrice) * float64(t.Volume) * mul
	if !isLong {
		cj = -cj
	}

	realized := (oldHolding - newHolding) + cj
	side.RealizedPnl += realized
	side.AccumulateProfit += realized
	side.Margin -= mRel
	side.Cost += t.Cost
	a.Available += mRel + realized - t.Cost
}

// consumeTodayLots 先开先平消耗今仓明细，返回被消耗部分的开仓金额
func (a *FutureAccount) consumeTodayLots(side *FutureSide, vol int) float64 {
	var consumed float64
	remain := float64(vol)
	for remain > 0 && len(side.TodayLots) > 0 {
		lot := &side.TodayLots[0]
		take := lot[1]
		if take > remain {
			take = remain
		}
		consumed += lot[0] * take
		lot[1] -= take
		remain -= take
		if lot[1] <= 0 {
			side.TodayLots = side.TodayLots[1:]
		}
	}
	return consumed
}

// markSide 按最新价重算单边浮动盈亏
func (a *FutureAccount) markSide(side *FutureSide, info *instrument.FutureInfo, isLong bool) {
	if side.Position == 0 {
		side.HoldingPnl = 0
		return
	}
	diff := side.LastPrice - side.HoldPrice
	if !isLong {
		diff = -diff
	}
	side.HoldingPnl = diff * float64(side.Position) * info.ContractMul
}

// OnQuotationChange 行情刷新标记价与浮动盈亏
func (a *FutureAccount) OnQuotationChange(bars *quotation.BarMap) {
	for _, p := range a.Positions {
		bar := bars.Get(p.Symbol)
		if bar.Empty() || bar.Close == 0 {
			continue
		}
		info := a.infos.Future(p.Symbol)
		p.Long.LastPrice = bar.Close
		p.Short.LastPrice = bar.Close
		a.markSide(p.Long, info, true)
		a.markSide(p.Short, info, false)
	}
}

// Settle 按结算价日终结算单个合约
//
// 持仓均价上调到结算价，价差落入可用资金，保证金按结算价重算：
// 资金变化 = (结算价 − 持仓均价) × 手数 × 乘数 × (1 ∓ 保证金率)。
func (a *FutureAccount) Settle(symbol string, settle float64) {
	p, ok := a.Positions[symbol]
	if !ok || settle <= 0 {
		return
	}
	info := a.infos.Future(symbol)
	a.settleSide(p.Long, info, settle, true)
	a.settleSide(p.Short, info, settle, false)
}

func (a *FutureAccount) settleSide(side *FutureSide, info *instrument.FutureInfo, settle float64, isLong bool) {
	if side.Position == 0 {
		return
	}
	mul := info.ContractMul
	rate := info.LongMarginRate(a.marginMultiplier)
	if !isLong {
		rate = info.ShortMarginRate(a.marginMultiplier)
	}

	pnl := (settle - side.HoldPrice) * float64(side.Position) * mul
	if !isLong {
		pnl = -pnl
	}
	newMargin := settle * float64(side.Position) * mul * rate

	a.Available += pnl - (newMargin - side.Margin)
	side.Margin = newMargin
	side.HoldPrice = settle
	side.LastPrice = settle
	side.AccumulateProfit += pnl
	a.markSide(side, info, isLong)
}

// Delivery 到期交割：按结算价强平并移除持仓
func (a *FutureAccount) Delivery(symbol, date string, settle float64) {
	p, ok := a.Positions[symbol]
	if !ok {
		return
	}
	info := a.infos.Future(symbol)
	if info.LastTradeDate == "" || info.LastTradeDate != date {
		return
	}

	// 先按结算价结算，再释放保证金
	a.Settle(symbol, settle)
	a.Available += p.Long.Margin + p.Short.Margin
	delete(a.Positions, symbol)
	logger.Info("📦 合约到期交割: %s, 结算价 %.2f", symbol, settle)
}

// BurnCheck 结算后穿仓检查，总资金不足时爆仓清零
func (a *FutureAccount) BurnCheck() {
	if a.Burned || a.TotalProfit() > 0 {
		return
	}
	logger.Warn("💥 期货账户爆仓: %s, 总资金 %.2f", a.AccountID, a.TotalProfit())
	a.Positions = make(map[string]*FuturePosition)
	a.Available = 0
	a.FrozenCapital = 0
	a.frozenMargin = make(map[string]float64)
	a.frozenPoses = make(map[string]*frozenPos)
	a.Burned = true
}

// OnNewDate 换日：今仓清零，昨日总资金取日终未结算值
//
// 已平光的持仓到此才移除，当日累计的手续费与平仓盈亏在日终
// 快照里仍可见。
func (a *FutureAccount) OnNewDate(date string) {
	a.YesTotalCapital = a.NoSettleTotal
	a.TodayDeposit = 0
	a.TodayWithdraw = 0
	for s, p := range a.Positions {
		if p.Empty() {
			delete(a.Positions, s)
			continue
		}
		for _, side := range []*FutureSide{p.Long, p.Short} {
			side.TdPosition = 0
			side.TodayLots = nil
		}
	}
}

// OnEndDate 日终：结算前记录未结算总资金
func (a *FutureAccount) OnEndDate(date string) {
	a.NoSettleTotal = a.TotalProfit()
}

// AddCash 入金
func (a *FutureAccount) AddCash(amount float64) {
	a.Available += amount
	a.Deposit += amount
	a.TodayDeposit += amount
}

// WithdrawCash 出金
func (a *FutureAccount) WithdrawCash(amount float64) bool {
	if amount > a.Available {
		return false
	}
	a.Available -= amount
	a.Withdraw += amount
	a.TodayWithdraw += amount
	return true
}

// TotalCost 累计手续费
func (a *FutureAccount) TotalCost() float64 {
	var sum float64
	for _, p := range a.Positions {
		sum += p.Long.Cost + p.Short.Cost
	}
	return sum
}

// Symbols 持仓合约列表
func (a *FutureAccount) Symbols() []string {
	out := make([]string, 0, len(a.Positions))
	for s := range a.Positions {
		out = append(out, s)
	}
	return out
}
