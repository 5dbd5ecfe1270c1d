package exchange

import (
	"context"

	"pandaquant/account"
	"pandaquant/event"
	"pandaquant/instrument"
	"pandaquant/logger"
	"pandaquant/order"
	"pandaquant/quotation"
)

// FundExchange 基金申赎撮合
//
// 基金不在当日撮合：报单在确认日按当日净值确认，申购份额 =
// (金额 − 费用) / 净值 向下取整四位小数，赎回资金在到账日划入
// 可用。覆盖模式下新单撤销同合约同方向未确认旧单。
type FundExchange struct {
	bus      *event.Bus
	book     *order.Book
	builder  *order.FundBuilder
	bars     *quotation.BarMap
	source   quotation.Source
	infos    *instrument.InfoMap
	calendar *instrument.Calendar
	results  *account.AllResult
	rates    *order.FundRateManager
	risk     RiskChecker

	coverOld int
}

// NewFundExchange 创建基金撮合
func NewFundExchange(bus *event.Bus, bars *quotation.BarMap, source quotation.Source,
	infos *instrument.InfoMap, calendar *instrument.Calendar,
	results *account.AllResult, rates *order.FundRateManager, risk RiskChecker,
	coverOld, latencyDate int) *FundExchange {

	return &FundExchange{
		bus:      bus,
		book:     order.NewBook(),
		builder:  order.NewFundBuilder(infos, calendar, coverOld, latencyDate),
		bars:     bars,
		source:   source,
		infos:    infos,
		calendar: calendar,
		results:  results,
		rates:    rates,
		risk:     risk,
		coverOld: coverOld,
	}
}

// Book 在途报单簿
func (e *FundExchange) Book() *order.Book {
	return e.book
}

// Bind 挂接确认撮合
func (e *FundExchange) Bind() {
	e.bus.Register(event.SystemFundOrderCross, func(ev *event.Event) {
		e.CrossDate(ev.String("date"))
	})
}

// Purchase 申购报单（按金额）
func (e *FundExchange) Purchase(accountID, symbol string, amount float64,
	date, tradeDate, hms string) *order.Order {

	o, err := e.builder.BuildPurchase(accountID, symbol, amount, date, tradeDate, hms)
	if err != nil {
		o = e.bare(accountID, symbol, order.SideBuy, date, tradeDate, hms)
		o.Amount = amount
		e.reject(o, err.Error())
		return o
	}

	acct := e.results.FundAccounts[accountID]
	if acct == nil {
		e.reject(o, order.ReasonAccountNotExist)
		return o
	}
	if amount > acct.Available {
		e.reject(o, order.CashNotEnoughDetail(amount, acct.Available))
		return o
	}
	if reason := e.riskCheck(o); reason != "" {
		e.reject(o, reason)
		return o
	}

	e.coverOldOrders(o)
	e.accept(o)
	return o
}

// Redeem 赎回报单（按份额）
func (e *FundExchange) Redeem(accountID, symbol string, shares float64,
	date, tradeDate, hms string) *order.Order {

	o, err := e.builder.BuildRedeem(accountID, symbol, shares, date, tradeDate, hms)
	if err != nil {
		o = e.bare(accountID, symbol, order.SideSell, date, tradeDate, hms)
		o.Shares = shares
		e.reject(o, err.Error())
		return o
	}

	acct := e.results.FundAccounts[accountID]
	if acct == nil {
		e.reject(o, order.ReasonAccountNotExist)
		return o
	}
	if o.Shares > acct.Sellable(symbol) {
		e.reject(o, order.ReasonPositionNotEnough)
		return o
	}
	if reason := e.riskCheck(o); reason != "" {
		e.reject(o, reason)
		return o
	}

	e.coverOldOrders(o)
	e.accept(o)
	return o
}

// coverOldOrders 覆盖模式撤销同合约同方向未确认旧单
func (e *FundExchange) coverOldOrders(o *order.Order) {
	if o.FundCoverOld != 1 {
		return
	}
	for _, old := range e.book.BySymbol(o.Symbol) {
		if old.AccountID == o.AccountID && old.Side == o.Side {
			e.cancel(old, order.ReasonFundCoverOld)
		}
	}
}

func (e *FundExchange) accept(o *order.Order) {
	o.Status = order.StatusActive
	e.book.Add(o)
	e.bus.Publish(event.New(event.SystemFundRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFundOrder, "order", o))
}

// CrossDate 确认指定交易日到期的全部申赎报单
func (e *FundExchange) CrossDate(date string) {
	for _, o := range e.book.ByCrossDate(date) {
		e.crossOne(o, date)
	}
}

func (e *FundExchange) crossOne(o *order.Order, date string) {
	nav := e.unitNav(o.Symbol, date)
	if nav <= 0 {
		e.cancel(o, order.ReasonSymbolCannotCross)
		return
	}

	info := e.infos.Fund(o.Symbol)

	t := &order.Trade{
		TradeID:   order.NextID(date),
		OrderID:   o.OrderID,
		AccountID: o.AccountID,
		Symbol:    o.Symbol,
		Class:     instrument.ClassFund,
		Side:      o.Side,
		UnitNav:   nav,
		TradeDate: date,
		Date:      date,
	}

	if o.Side == order.SideBuy {
		fee := e.rates.PurchaseFee(o.Symbol, info.FundType, o.Amount)
		if fee >= o.Amount {
			e.cancel(o, order.ReasonCashNotEnough)
			return
		}
		t.Amount = o.Amount
		t.Cost = fee
		t.Shares = order.FloorShares((o.Amount - fee) / nav)
	} else {
		gross := o.Shares * nav
		fee := e.rates.RedeemFee(o.Symbol, info.FundType, gross, e.holdingDays(o, date))
		t.Shares = o.Shares
		t.Cost = fee
		t.Amount = gross - fee
		if t.Amount < 0 {
			t.Amount = 0
		}
	}

	o.Filled = o.Quantity
	o.Cost = t.Cost
	e.bus.Publish(event.New(event.SystemFundRtnTrade, "trade", t, "order", o))
	e.bus.Publish(event.New(event.StrategyFundTrade, "trade", t, "order", o))

	o.Status = order.StatusFilled
	e.book.Remove(o.OrderID)
	e.bus.Publish(event.New(event.SystemFundRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFundOrder, "order", o))
}

// holdingDays 持有自然日数，赎回费率按持有期匹配档位
func (e *FundExchange) holdingDays(o *order.Order, date string) int {
	acct := e.results.FundAccounts[o.AccountID]
	if acct == nil {
		return 0
	}
	p, ok := acct.Positions[o.Symbol]
	if !ok || p.BuyDate == "" {
		return 0
	}
	days := instrument.NaturalDatesBetween(p.BuyDate, date)
	if len(days) == 0 {
		return 0
	}
	return len(days) - 1
}

// unitNav 确认净值，行情视图优先，数据源兜底
func (e *FundExchange) unitNav(symbol, date string) float64 {
	if bar := e.bars.Get(symbol); bar.UnitNav > 0 {
		return bar.UnitNav
	}
	if e.source == nil {
		return 0
	}
	nav, err := e.source.UnitNav(context.Background(), symbol, date)
	if err != nil {
		logger.Warn("⚠️ 基金净值查询失败: %s %s, %v", symbol, date, err)
		return 0
	}
	return nav
}

// Cancel 策略主动撤单（仅未确认报单可撤）
func (e *FundExchange) Cancel(orderID string) bool {
	o := e.book.Get(orderID)
	if o == nil {
		return false
	}
	e.cancel(o, "主动撤单")
	return true
}

func (e *FundExchange) cancel(o *order.Order, reason string) {
	o.Status = order.StatusCancelled
	o.Message = order.FailedMessage(o, reason)
	e.book.Remove(o.OrderID)
	e.bus.Publish(event.New(event.SystemFundRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFundOrderCancel, "order", o))
	logger.Warn("⚠️ %s", o.Message)
}

func (e *FundExchange) reject(o *order.Order, reason string) {
	o.Status = order.StatusRejected
	o.Message = order.FailedMessage(o, reason)
	e.bus.Publish(event.New(event.SystemFundRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFundOrderCancel, "order", o))
	logger.Error("❌ %s", o.Message)
}

func (e *FundExchange) riskCheck(o *order.Order) string {
	if e.risk == nil {
		return ""
	}
	if pass, reason := e.risk.CheckOrder(o); !pass {
		return reason
	}
	return ""
}

func (e *FundExchange) bare(accountID, symbol string, side int, date, tradeDate, hms string) *order.Order {
	return &order.Order{
		OrderID: order.NextID(tradeDate), AccountID: accountID, Symbol: symbol,
		Class: instrument.ClassFund, Side: side,
		Date: date, TradeDate: tradeDate, Hms: hms,
	}
}
