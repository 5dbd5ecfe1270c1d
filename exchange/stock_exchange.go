package exchange

import (
	"pandaquant/account"
	"pandaquant/event"
	"pandaquant/instrument"
	"pandaquant/logger"
	"pandaquant/order"
	"pandaquant/quotation"
)

// StockExchange 股票模拟撮合
//
// 报单校验链：数量（构造器内）→ 账户存在 → 资金/仓位 → 涨跌停 →
// 风控。撮合价为开盘价（开盘撮合）或收盘价（收盘撮合）加滑点，
// 成交量受当日成交量约束，超出部分撤单。
type StockExchange struct {
	bus     *event.Bus
	book    *order.Book
	builder *order.StockBuilder
	bars    *quotation.BarMap
	infos   *instrument.InfoMap
	results *account.AllResult
	risk    RiskChecker

	matchingType         int     // 0收盘价 1开盘价
	slippage             float64 // 价格比例滑点
	commissionMultiplier float64
}

// NewStockExchange 创建股票撮合
func NewStockExchange(bus *event.Bus, bars *quotation.BarMap, infos *instrument.InfoMap,
	results *account.AllResult, risk RiskChecker,
	matchingType int, slippage, commissionMultiplier float64) *StockExchange {

	if commissionMultiplier <= 0 {
		commissionMultiplier = 1
	}
	return &StockExchange{
		bus:                  bus,
		book:                 order.NewBook(),
		builder:              order.NewStockBuilder(infos, bars),
		bars:                 bars,
		infos:                infos,
		results:              results,
		risk:                 risk,
		matchingType:         matchingType,
		slippage:             slippage,
		commissionMultiplier: commissionMultiplier,
	}
}

// Book 在途报单簿
func (e *StockExchange) Book() *order.Book {
	return e.book
}

// Bind 挂接撮合与日终撤单
func (e *StockExchange) Bind() {
	e.bus.Register(event.SystemStockOrderCross, func(ev *event.Event) {
		e.cross(ev.String("symbol"))
	})
	e.bus.Register(event.SystemEndDate, func(ev *event.Event) {
		e.CancelStale(ev.String("date"))
	})
}

// Insert 报单入口
func (e *StockExchange) Insert(accountID, symbol string, side, priceType int,
	price float64, qty int, date, tradeDate, hms string) *order.Order {

	acct := e.results.StockAccounts[accountID]
	sellable := 0
	if acct != nil {
		sellable = acct.Sellable(symbol)
	}

	o, err := e.builder.Build(accountID, symbol, side, priceType, price, qty, sellable, date, tradeDate, hms)
	if err != nil {
		o = &order.Order{
			OrderID: order.NextID(tradeDate), AccountID: accountID, Symbol: symbol,
			Class: instrument.ClassStock, Side: side, PriceType: priceType,
			Price: price, Quantity: qty, Date: date, TradeDate: tradeDate, Hms: hms,
		}
		e.reject(o, err.Error())
		return o
	}

	if reason := e.verify(o, acct); reason != "" {
		e.reject(o, reason)
		return o
	}

	// 冻结金额 = 名义金额 + 预估佣金
	if o.Side == order.SideBuy {
		notional := o.Price * float64(o.Quantity)
		o.Margin = notional + stockCommission(notional, e.commissionMultiplier)
	}

	o.Status = order.StatusActive
	e.book.Add(o)
	e.bus.Publish(event.New(event.SystemStockRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyStockOrder, "order", o))
	return o
}

// verify 账户、资金仓位、行情涨跌停、风控校验
func (e *StockExchange) verify(o *order.Order, acct *account.StockAccount) string {
	if acct == nil {
		return order.ReasonAccountNotExist
	}

	if o.Side == order.SideBuy {
		notional := o.Price * float64(o.Quantity)
		need := notional + stockCommission(notional, e.commissionMultiplier)
		if need > acct.Available {
			return order.CashNotEnoughDetail(need, acct.Available)
		}
	} else {
		if o.Quantity > acct.Sellable(o.Symbol) {
			return order.PositionNotEnoughDetail(o.Quantity, acct.Sellable(o.Symbol))
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
	if high == 0 && bar.Open > 0 {
		// 缺涨跌停数据按开盘价上下 10% 兜底
		high = bar.Open * 1.1
		low = bar.Open * 0.9
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

	// 涨跌停校验（限价单）
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
func (e *StockExchange) cross(symbol string) {
	orders := e.book.BySymbol(symbol)
	if len(orders) == 0 {
		return
	}
	bar := e.bars.Get(symbol)

	for _, o := range orders {
		e.crossOne(o, bar)
	}
}

func (e *StockExchange) crossOne(o *order.Order, bar *quotation.Bar) {
	if bar.Empty() || bar.Suspended || bar.Volume <= 0 {
		e.cancel(o, order.ReasonSymbolCannotCross)
		return
	}

	base := bar.Close
	if e.matchingType == 1 {
		base = bar.Open
	}

	var crossPrice float64
	if o.Side == order.SideBuy {
		crossPrice = base * (1 + e.slippage)
	} else {
		crossPrice = base * (1 - e.slippage)
	}

	// 限价单撮合判定：买价不低于撮合价，卖价不高于撮合价
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

	// 成交量约束
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

	notional := crossPrice * float64(vol)
	t := &order.Trade{
		TradeID:   order.NextID(o.TradeDate),
		OrderID:   o.OrderID,
		AccountID: o.AccountID,
		Symbol:    o.Symbol,
		Class:     instrument.ClassStock,
		Side:      o.Side,
		Price:     crossPrice,
		Volume:    vol,
		Cost:      stockTradeCost(o.Side, notional, e.commissionMultiplier),
		TradeDate: bar.TradeDate,
		Date:      bar.TradeDate,
		Hms:       bar.Hms,
	}

	o.Filled += vol
	e.bus.Publish(event.New(event.SystemStockRtnTrade, "trade", t, "order", o))
	e.bus.Publish(event.New(event.StrategyStockTrade, "trade", t, "order", o))

	if partial {
		// 剩余部分撤单
		o.Status = order.StatusPartTradedNotQueue
		o.Message = order.FailedMessage(o, order.ReasonVolumeNotEnough)
		e.book.Remove(o.OrderID)
		e.bus.Publish(event.New(event.SystemStockRtnOrder, "order", o))
		e.bus.Publish(event.New(event.StrategyStockOrderCancel, "order", o))
		logger.Warn("⚠️ %s", o.Message)
		return
	}

	o.Status = order.StatusFilled
	e.book.Remove(o.OrderID)
	e.bus.Publish(event.New(event.SystemStockRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyStockOrder, "order", o))
}

// Cancel 策略主动撤单
func (e *StockExchange) Cancel(orderID string) bool {
	o := e.book.Get(orderID)
	if o == nil {
		return false
	}
	e.cancel(o, "主动撤单")
	return true
}

// CancelAll 撤销全部在途报单
func (e *StockExchange) CancelAll(reason string) {
	for _, o := range e.book.All() {
		e.cancel(o, reason)
	}
}

// CancelStale 日终撤销隔日未成交报单，当日新报单留待次日K线撮合
func (e *StockExchange) CancelStale(date string) {
	for _, o := range e.book.All() {
		if o.TradeDate < date {
			e.cancel(o, order.ReasonEndOfDayCancel)
		}
	}
}

// cancel 撤单：出簿、解冻、回调
func (e *StockExchange) cancel(o *order.Order, reason string) {
	o.Status = order.StatusCancelled
	o.Message = order.FailedMessage(o, reason)
	e.book.Remove(o.OrderID)
	e.bus.Publish(event.New(event.SystemStockRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyStockOrderCancel, "order", o))
	logger.Warn("⚠️ %s", o.Message)
}

// reject 拒单：不入簿，先发系统回报再发策略撤单回调
func (e *StockExchange) reject(o *order.Order, reason string) {
	o.Status = order.StatusRejected
	o.Message = order.FailedMessage(o, reason)
	e.bus.Publish(event.New(event.SystemStockRtnOrder, "order", o))
	e.bus.Publish(event.New(event.StrategyStockOrderCancel, "order", o))
	logger.Error("❌ %s", o.Message)
}
