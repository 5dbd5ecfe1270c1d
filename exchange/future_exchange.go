package exchange

import (
	"pandaquant/account"
	"pandaquant/event"
	"pandaquant/instrument"
	"pandaquant/logger"
	"pandaquant/order"
	"pandaquant/quotation"
)

// FutureExchange 期货模拟撮合
//
// 与股票撮合同构，差异在于开平方向、保证金冻结与按最小变动价位
// 计的滑点。平今单校验今仓，平仓单校验总可平仓位。
type FutureExchange struct {
	bus     *event.Bus
	book    *order.Book
	builder *order.FutureBuilder
	bars    *quotation.BarMap
	infos   *instrument.InfoMap
	results *account.AllResult
	rates   *order.FutureRateManager
	risk    RiskChecker

	matchingType int
	slippage     float64 // 滑点跳数，按最小变动价位计
}

// NewFutureExchange 创建期货撮合
func NewFutureExchange(bus *event.Bus, bars *quotation.BarMap, infos *instrument.InfoMap,
	results *account.AllResult, rates *order.FutureRateManager, risk RiskChecker,
	matchingType int, slippage, marginMultiplier float64) *FutureExchange {

	return &FutureExchange{
		bus:          bus,
		book:         order.NewBook(),
		builder:      order.NewFutureBuilder(infos, bars, marginMultiplier),
		bars:         bars,
		infos:        infos,
		results:      results,
		rates:        rates,
		risk:         risk,
		matchingType: matchingType,
		slippage:     slippage,
	}
}

// Book 在途报单簿
func (e *FutureExchange) Book() *order.Book {
	return e.book
}

// Bind 挂接撮合与日终撤单
func (e *FutureExchange) Bind() {
	e.bus.Register(event.SystemFutureOrderCross, func(ev *event.Event) {
		e.cross(ev.String("symbol"))
	})
	e.bus.Register(event.SystemEndDate, func(ev *event.Event) {
		e.CancelStale(ev.String("date"))
	})
}

// Insert 报单入口
func (e *FutureExchange) Insert(accountID, symbol string, side, effect, priceType int,
	price float64, qty int, closeToday bool, date, tradeDate, hms string) *order.Order {

	o, err := e.builder.Build(accountID, symbol, side, effect, priceType, price, qty, closeToday, date, tradeDate, hms)
	if err != nil {
		o = &order.Order{
			OrderID: order.NextID(tradeDate), AccountID: accountID, Symbol: symbol,
			Class: instrument.ClassFuture, Side: side, Effect: effect, PriceType: priceType,
			Price: price, Quantity: qty, Date: date, TradeDate: tradeDate, Hms: hms,
		}
		e.reject(o, err.Error())
		return o
	}

	if reason := e.verify(o); reason != "" {
		e.reject(o, reason)
		return o
	}

	o.Status = order.StatusActive
	e.book.Add(o)
	e.bus.Publish(event.New(event.SystemFutureRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFutureOrder, "order", o))
	return o
}

// verify 账户、资金仓位、涨跌停、风控校验
func (e *FutureExchange) verify(o *order.Order) string {
	acct := e.results.FutureAccounts[o.AccountID]
	if acct == nil {
		return order.ReasonAccountNotExist
	}

	if o.Effect == order.Open {
		need := o.Margin + e.rates.OpenCost(o.Symbol, o.Price, o.Quantity)
		if need > acct.Available {
			return order.CashNotEnoughDetail(need, acct.Available)
		}
	} else {
		if o.IsTdClose {
			if td := acct.ClosableToday(o.Symbol, o.Side); o.Quantity > td {
				return order.ReasonTdPositionLack
			}
		}
		if closable := acct.Closable(o.Symbol, o.Side); o.Quantity > closable {
			return order.PositionNotEnoughDetail(o.Quantity, closable)
		}
	}

	bar := e.bars.Get(o.Symbol)
	last := bar.Close
	if last == 0 {
		last = bar.Open
	}
	if o.PriceType == order.PriceTypeMarket && (bar.Empty() || last <= 0) {
		return order.ReasonSymbolNoQuotation
	}

	low, high := bar.LimitDown, bar.LimitUp
	if high == 0 && bar.PrevSettle > 0 {
		// 缺涨跌停数据按昨结算价上下 10% 兜底
		high = bar.PrevSettle * 1.1
		low = bar.PrevSettle * 0.9
	}

	// 已封板方向禁止报单
	if last > 0 && high > 0 {
		if o.Side == order.SideBuy && last >= high {
			return order.ReasonSymbolLimitHigh
		}
		if o.Side == order.SideSell && low > 0 && last <= low {
			return order.ReasonSymbolLimitLow
		}
	}

	if o.PriceType == order.PriceTypeLimit && high > 0 && (o.Price > high || o.Price < low) {
		return order.PriceOverLimitDetail(o.Price, low, high)
	}

	// 撮合价需落在当日价格区间内
	jz := bar.Close
	if e.matchingType == 1 {
		jz = bar.Open
	}
	if bar.High > 0 && (jz > bar.High || jz < bar.Low) {
		return order.ReasonPriceOutOfRange
	}

	if e.risk != nil {
		if pass, reason := e.risk.CheckOrder(o); !pass {
			return reason
		}
	}
	return ""
}

// cross 按当前行情撮合单个合约的在途报单
func (e *FutureExchange) cross(symbol string) {
	orders := e.book.BySymbol(symbol)
	if len(orders) == 0 {
		return
	}
	bar := e.bars.Get(symbol)

	for _, o := range orders {
		e.crossOne(o, bar)
	}
}

func (e *FutureExchange) crossOne(o *order.Order, bar *quotation.Bar) {
	if bar.Empty() || bar.Suspended || bar.Volume <= 0 {
		e.cancel(o, order.ReasonSymbolCannotCross)
		return
	}

	base := bar.Close
	if e.matchingType == 1 {
		base = bar.Open
	}

	info := e.infos.Future(o.Symbol)
	slip := e.slippage * info.MinPriceChg

	var crossPrice float64
	if o.Side == order.SideBuy {
		crossPrice = base + slip
	} else {
		crossPrice = base - slip
	}

	if o.PriceType == order.PriceTypeLimit {
		if o.Side == order.SideBuy && o.Price < crossPrice {
			e.cancel(o, order.ReasonSymbolCannotCross)
			return
		}
		if o.Side == order.SideSell && o.Price > crossPrice {
			e.cancel(o, order.ReasonSymbolCannotCross)
			return
		}
	}

	// 封板方向不成交，报单留在簿内等待价格打开
	if bar.LimitUp > 0 && o.Side == order.SideBuy && crossPrice >= bar.LimitUp {
		return
	}
	if bar.LimitDown > 0 && o.Side == order.SideSell && crossPrice <= bar.LimitDown {
		return
	}

	vol := o.Unfilled()
	partial := false
	if float64(vol) > bar.Volume {
		vol = int(bar.Volume)
		partial = true
		if vol <= 0 {
			e.cancel(o, order.ReasonVolumeNotEnough)
			return
		}
	}

	var cost float64
	if o.Effect == order.Open {
		cost = e.rates.OpenCost(o.Symbol, crossPrice, vol)
	} else {
		cost = e.rates.CloseCost(o.Symbol, crossPrice, vol, o.IsTdClose)
	}

	t := &order.Trade{
		TradeID:   order.NextID(o.TradeDate),
		OrderID:   o.OrderID,
		AccountID: o.AccountID,
		Symbol:    o.Symbol,
		Class:     instrument.ClassFuture,
		Side:      o.Side,
		Effect:    o.Effect,
		Price:     crossPrice,
		Volume:    vol,
		Cost:      cost,
		IsTdClose: o.IsTdClose,
		TradeDate: bar.TradeDate,
		Date:      bar.TradeDate,
		Hms:       bar.Hms,
	}

	o.Filled += vol
	e.bus.Publish(event.New(event.SystemFutureRtnTrade, "trade", t, "order", o))
	e.bus.Publish(event.New(event.StrategyFutureTrade, "trade", t, "order", o))

	if partial {
		o.Status = order.StatusPartTradedNotQueue
		o.Message = order.FailedMessage(o, order.ReasonVolumeNotEnough)
		e.book.Remove(o.OrderID)
		e.bus.Publish(event.New(event.SystemFutureRtnOrder, "order", o))
		e.bus.Publish(event.New(event.StrategyFutureOrderCancel, "order", o))
		logger.Warn("⚠️ %s", o.Message)
		return
	}

	o.Status = order.StatusFilled
	e.book.Remove(o.OrderID)
	e.bus.Publish(event.New(event.SystemFutureRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFutureOrder, "order", o))
}

// Cancel 策略主动撤单
func (e *FutureExchange) Cancel(orderID string) bool {
	o := e.book.Get(orderID)
	if o == nil {
		return false
	}
	e.cancel(o, "主动撤单")
	return true
}

// CancelAll 撤销全部在途报单
func (e *FutureExchange) CancelAll(reason string) {
	for _, o := range e.book.All() {
		e.cancel(o, reason)
	}
}

// CancelStale 日终撤销隔日未成交报单，当日新报单留待次日K线撮合
func (e *FutureExchange) CancelStale(date string) {
	for _, o := range e.book.All() {
		if o.TradeDate < date {
			e.cancel(o, order.ReasonEndOfDayCancel)
		}
	}
}

func (e *FutureExchange) cancel(o *order.Order, reason string) {
	o.Status = order.StatusCancelled
	o.Message = order.FailedMessage(o, reason)
	e.book.Remove(o.OrderID)
	e.bus.Publish(event.New(event.SystemFutureRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFutureOrderCancel, "order", o))
	logger.Warn("⚠️ %s", o.Message)
}

func (e *FutureExchange) reject(o *order.Order, reason string) {
	o.Status = order.StatusRejected
	o.Message = order.FailedMessage(o, reason)
	e.bus.Publish(event.New(event.SystemFutureRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyFutureOrderCancel, "order", o))
	logger.Error("❌ %s", o.Message)
}
