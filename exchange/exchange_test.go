package exchange

import (
	"context"
	"math"
	"strings"
	"testing"

	"pandaquant/account"
	"pandaquant/event"
	"pandaquant/instrument"
	"pandaquant/order"
	"pandaquant/quotation"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

type fakeInfoSource struct{}

func (f *fakeInfoSource) FutureInfo(ctx context.Context, symbol string) (*instrument.FutureInfo, error) {
	if symbol == "IF2001.CFE" {
		return &instrument.FutureInfo{
			Symbol: "IF2001.CFE", ContractMul: 300, MinPriceChg: 0.2,
			Margin: 10, LastTradeDate: "20200117",
		}, nil
	}
	return nil, nil
}

func (f *fakeInfoSource) StockInfo(ctx context.Context, symbol string) (*instrument.StockInfo, error) {
	return &instrument.StockInfo{Symbol: symbol}, nil
}

func (f *fakeInfoSource) FundInfo(ctx context.Context, symbol string) (*instrument.FundInfo, error) {
	return &instrument.FundInfo{Symbol: symbol, FundType: "101301"}, nil
}

func (f *fakeInfoSource) TradeDates(ctx context.Context, start, end string) ([]string, error) {
	return nil, nil
}

type fakeFutureRates struct{}

func (f *fakeFutureRates) FutureFeeRate(ctx context.Context, symbol string) (*order.FutureFeeRate, error) {
	return &order.FutureFeeRate{
		Symbol: symbol, CostType: order.CostTypePerLot,
		OpenRate: 11.5, CloseRate: 11.5, CloseTdRate: 11.5,
	}, nil
}

type fakeFundRates struct{}

func (f *fakeFundRates) FundFeeTiers(ctx context.Context, symbol, fundType string) ([]*order.FundFeeTier, error) {
	return []*order.FundFeeTier{
		{Symbol: symbol, Side: order.SideBuy, Rate: 0.015},
		{Symbol: symbol, Side: order.SideSell, Rate: 0.005},
	}, nil
}

type fakeQuoteSource struct {
	navs map[string]float64
}

func (f *fakeQuoteSource) Bar(ctx context.Context, symbol, date, hms string) (*quotation.Bar, error) {
	return nil, nil
}

func (f *fakeQuoteSource) Settlement(ctx context.Context, symbol, date string) (float64, float64, error) {
	return 0, 0, nil
}

func (f *fakeQuoteSource) UnitNav(ctx context.Context, symbol, date string) (float64, error) {
	return f.navs[symbol+date], nil
}

// wireStock 把股票账户接到撮合回报链路
func wireStock(bus *event.Bus, acct *account.StockAccount) {
	bus.Register(event.SystemStockRtnOrder, func(ev *event.Event) {
		acct.OnRtnOrder(ev.Get("order").(*order.Order))
	})
	bus.Register(event.SystemStockRtnTrade, func(ev *event.Event) {
		t := ev.Get("trade").(*order.Trade)
		o, _ := ev.Get("order").(*order.Order)
		acct.OnRtnTrade(t, o)
	})
}

func newStockEnv() (*event.Bus, *quotation.BarMap, *StockExchange, *account.StockAccount) {
	bus := event.NewBus()
	bars := quotation.NewBarMap()
	infos := instrument.NewInfoMap(&fakeInfoSource{})
	results := account.NewAllResult()
	acct := account.NewStockAccount("8888", 100000)
	results.StockAccounts["8888"] = acct

	e := NewStockExchange(bus, bars, infos, results, nil, 0, 0, 1)
	e.Bind()
	wireStock(bus, acct)
	return bus, bars, e, acct
}

func TestStockInsertAndCross(t *testing.T) {
	bus, bars, e, acct := newStockEnv()
	bars.Put(&quotation.Bar{
		Symbol: "600400.SH", TradeDate: "20170301",
		Open: 10, Close: 10, Volume: 100000, LimitUp: 11, LimitDown: 9,
	})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeMarket,
		0, 100, "20170301", "20170301", "093000")
	if o.Status != order.StatusActive {
		t.Fatalf("报单应已报: %d, %s", o.Status, o.Message)
	}
	// 冻结 = 名义 1000 + 最低佣金 5
	if !almost(acct.FrozenCapital, 1005) {
		t.Errorf("冻结资金错误: %v", acct.FrozenCapital)
	}

	bus.Publish(event.New(event.SystemStockOrderCross, "symbol", "600400.SH"))
	if o.Status != order.StatusFilled {
		t.Fatalf("报单应全部成交: %d", o.Status)
	}
	if e.Book().Len() != 0 {
		t.Error("成交后报单簿应为空")
	}
	if !almost(acct.Available, 100000-1005) {
		t.Errorf("成交后可用资金错误: %v", acct.Available)
	}
	// 买入费用折入持仓均价
	p := acct.Positions["600400.SH"]
	if !almost(p.HoldPrice, 10.05) {
		t.Errorf("持仓均价错误: %v", p.HoldPrice)
	}
	if !almost(acct.TotalProfit(), 100000-5) {
		t.Errorf("总资金错误: %v", acct.TotalProfit())
	}
}

func TestStockPriceOverLimitReject(t *testing.T) {
	_, bars, e, _ := newStockEnv()
	bars.Put(&quotation.Bar{
		Symbol: "600400.SH", TradeDate: "20170301",
		Open: 10, Close: 10, Volume: 100000, LimitUp: 11, LimitDown: 9,
	})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeLimit,
		12, 100, "20170301", "20170301", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("越限报单应拒单: %d", o.Status)
	}
	if e.Book().Len() != 0 {
		t.Error("拒单不应入簿")
	}
}

func TestStockLotRuleReject(t *testing.T) {
	_, bars, e, _ := newStockEnv()
	bars.Put(&quotation.Bar{Symbol: "600400.SH", Open: 10, Close: 10, Volume: 100000})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeMarket,
		0, 150, "20170301", "20170301", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("非整手买单应拒单: %d", o.Status)
	}
}

func TestStockCashNotEnough(t *testing.T) {
	_, bars, e, _ := newStockEnv()
	bars.Put(&quotation.Bar{Symbol: "600400.SH", Open: 10, Close: 10, Volume: 100000})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeMarket,
		0, 100000, "20170301", "20170301", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("资金不足应拒单: %d", o.Status)
	}
}

func TestStockPartialFill(t *testing.T) {
	bus, bars, e, acct := newStockEnv()
	bars.Put(&quotation.Bar{
		Symbol: "600400.SH", TradeDate: "20170301",
		Open: 10, Close: 10, Volume: 100,
	})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeMarket,
		0, 200, "20170301", "20170301", "093000")
	bus.Publish(event.New(event.SystemStockOrderCross, "symbol", "600400.SH"))

	if o.Status != order.StatusPartTradedNotQueue {
		t.Fatalf("超量报单应部分成交后撤单: %d", o.Status)
	}
	if o.Filled != 100 {
		t.Errorf("成交数量错误: %d", o.Filled)
	}
	if acct.Positions["600400.SH"].Position != 100 {
		t.Errorf("持仓数量错误: %d", acct.Positions["600400.SH"].Position)
	}
	// 未成交部分冻结已归还
	if !almost(acct.FrozenCapital, 0) {
		t.Errorf("剩余冻结未归还: %v", acct.FrozenCapital)
	}
}

func TestStockEndOfDayCancelStaleOnly(t *testing.T) {
	bus, bars, e, acct := newStockEnv()
	bars.Put(&quotation.Bar{Symbol: "600400.SH", Open: 10, Close: 10, Volume: 100000})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeLimit,
		9.5, 100, "20170301", "20170301", "093000")
	if o.Status != order.StatusActive {
		t.Fatalf("限价报单应已报: %d", o.Status)
	}

	// 当日日终不撤当日新报单，留待次日K线撮合
	bus.Publish(event.New(event.SystemEndDate, "date", "20170301"))
	if o.Status != order.StatusActive || e.Book().Len() != 1 {
		t.Fatalf("当日报单不应被当日日终撤销: %d", o.Status)
	}

	// 次日日终撤销隔日未成交报单
	bus.Publish(event.New(event.SystemEndDate, "date", "20170302"))
	if o.Status != order.StatusCancelled {
		t.Fatalf("隔日日终应撤单: %d", o.Status)
	}
	if e.Book().Len() != 0 || !almost(acct.FrozenCapital, 0) {
		t.Error("日终撤单后应清簿解冻")
	}
}

func TestStockLimitUpBuyReject(t *testing.T) {
	bus, bars, e, acct := newStockEnv()
	// 收盘已封涨停
	bars.Put(&quotation.Bar{
		Symbol: "600400.SH", TradeDate: "20170301",
		Open: 11, Close: 11, Volume: 100000, LimitUp: 11, LimitDown: 9,
	})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeMarket,
		0, 100, "20170301", "20170301", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("涨停封板市价买入应拒单: %d, %s", o.Status, o.Message)
	}
	if e.Book().Len() != 0 {
		t.Error("拒单不应入簿")
	}

	bus.Publish(event.New(event.SystemStockOrderCross, "symbol", "600400.SH"))
	if o.Filled != 0 {
		t.Errorf("拒单不应成交: filled=%d", o.Filled)
	}
	if !almost(acct.Available, 100000) || acct.Positions["600400.SH"] != nil {
		t.Errorf("拒单不应动账: available=%v", acct.Available)
	}
}

func TestStockLimitDownSellReject(t *testing.T) {
	_, bars, e, acct := newStockEnv()
	acct.Positions["600400.SH"] = &account.StockPosition{
		Symbol: "600400.SH", Position: 100, Sellable: 100, HoldPrice: 10,
	}
	bars.Put(&quotation.Bar{
		Symbol: "600400.SH", TradeDate: "20170301",
		Open: 9, Close: 9, Volume: 100000, LimitUp: 11, LimitDown: 9,
	})

	o := e.Insert("8888", "600400.SH", order.SideSell, order.PriceTypeMarket,
		0, 100, "20170301", "20170301", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("跌停封板市价卖出应拒单: %d, %s", o.Status, o.Message)
	}
}

func TestStockRejectEmitsRtnOrder(t *testing.T) {
	bus, bars, e, _ := newStockEnv()
	bars.Put(&quotation.Bar{Symbol: "600400.SH", Open: 10, Close: 10, Volume: 100000})

	var seq []string
	bus.Register(event.SystemStockRtnOrder, func(ev *event.Event) {
		o := ev.Get("order").(*order.Order)
		if o.Status == order.StatusRejected {
			seq = append(seq, "rtn_order")
		}
	})
	bus.Register(event.StrategyStockOrderCancel, func(ev *event.Event) {
		seq = append(seq, "order_cancel")
	})

	o := e.Insert("9999", "600400.SH", order.SideBuy, order.PriceTypeMarket,
		0, 100, "20170301", "20170301", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("账号不存在应拒单: %d", o.Status)
	}
	if len(seq) != 2 || seq[0] != "rtn_order" || seq[1] != "order_cancel" {
		t.Fatalf("拒单回报次序错误: %v", seq)
	}
}

func TestStockLimitSealSkipAtCross(t *testing.T) {
	bus, bars, e, _ := newStockEnv()
	bars.Put(&quotation.Bar{
		Symbol: "600400.SH", TradeDate: "20170301",
		Open: 10.8, Close: 10.8, Volume: 100000, LimitUp: 11, LimitDown: 9,
	})

	o := e.Insert("8888", "600400.SH", order.SideBuy, order.PriceTypeLimit,
		11, 100, "20170301", "20170301", "150000")
	if o.Status != order.StatusActive {
		t.Fatalf("限价报单应已报: %d, %s", o.Status, o.Message)
	}

	// 次日封涨停，买单不成交且留在簿内
	bars.Put(&quotation.Bar{
		Symbol: "600400.SH", TradeDate: "20170302",
		Open: 11, Close: 11, Volume: 100000, LimitUp: 11, LimitDown: 9,
	})
	bus.Publish(event.New(event.SystemStockOrderCross, "symbol", "600400.SH"))

	if o.Status != order.StatusActive || o.Filled != 0 {
		t.Fatalf("封板不应成交: status=%d filled=%d", o.Status, o.Filled)
	}
	if e.Book().Len() != 1 {
		t.Error("封板报单应留在簿内")
	}

	bus.Publish(event.New(event.SystemEndDate, "date", "20170302"))
	if o.Status != order.StatusCancelled {
		t.Fatalf("隔日日终应撤单: %d", o.Status)
	}
}

func newFutureEnv() (*event.Bus, *quotation.BarMap, *FutureExchange, *account.FutureAccount) {
	bus := event.NewBus()
	bars := quotation.NewBarMap()
	infos := instrument.NewInfoMap(&fakeInfoSource{})
	results := account.NewAllResult()
	acct := account.NewFutureAccount("5588", 1000000, infos, 1)
	results.FutureAccounts["5588"] = acct

	rates := order.NewFutureRateManager(&fakeFutureRates{}, infos, 1)
	e := NewFutureExchange(bus, bars, infos, results, rates, nil, 0, 0, 1)
	e.Bind()

	bus.Register(event.SystemFutureRtnOrder, func(ev *event.Event) {
		acct.OnRtnOrder(ev.Get("order").(*order.Order))
	})
	bus.Register(event.SystemFutureRtnTrade, func(ev *event.Event) {
		t := ev.Get("trade").(*order.Trade)
		o, _ := ev.Get("order").(*order.Order)
		acct.OnRtnTrade(t, o)
	})
	return bus, bars, e, acct
}

func TestFutureOpenAndCloseToday(t *testing.T) {
	bus, bars, e, acct := newFutureEnv()
	bars.Put(&quotation.Bar{
		Symbol: "IF2001.CFE", TradeDate: "20200103",
		Open: 3800, Close: 3800, Volume: 100000, PrevSettle: 3790,
	})

	open := e.Insert("5588", "IF2001.CFE", order.SideBuy, order.Open, order.PriceTypeMarket,
		0, 2, false, "20200103", "20200103", "093000")
	if open.Status != order.StatusActive {
		t.Fatalf("开仓单应已报: %d, %s", open.Status, open.Message)
	}
	if !almost(acct.FrozenCapital, 228000) {
		t.Errorf("开仓冻结保证金错误: %v", acct.FrozenCapital)
	}

	bus.Publish(event.New(event.SystemFutureOrderCross, "symbol", "IF2001.CFE"))
	if open.Status != order.StatusFilled {
		t.Fatalf("开仓单应成交: %d", open.Status)
	}
	if !almost(acct.Margin(), 228000) || !almost(acct.Available, 1000000-228000-23) {
		t.Errorf("开仓后资金错误: margin=%v available=%v", acct.Margin(), acct.Available)
	}

	// 平今 2 手 @3820
	bars.Put(&quotation.Bar{
		Symbol: "IF2001.CFE", TradeDate: "20200103",
		Open: 3800, Close: 3820, Volume: 100000,
	})
	closeOrd := e.Insert("5588", "IF2001.CFE", order.SideSell, order.Close, order.PriceTypeMarket,
		0, 2, true, "20200103", "20200103", "100000")
	if closeOrd.Status != order.StatusActive {
		t.Fatalf("平今单应已报: %d, %s", closeOrd.Status, closeOrd.Message)
	}

	bus.Publish(event.New(event.SystemFutureOrderCross, "symbol", "IF2001.CFE"))
	if closeOrd.Status != order.StatusFilled {
		t.Fatalf("平今单应成交: %d", closeOrd.Status)
	}
	if !almost(acct.TotalProfit(), 1000000-46+12000) {
		t.Errorf("平今后总资金错误: %v", acct.TotalProfit())
	}
}

func TestFutureCloseWithoutPosition(t *testing.T) {
	_, bars, e, _ := newFutureEnv()
	bars.Put(&quotation.Bar{Symbol: "IF2001.CFE", Open: 3800, Close: 3800, Volume: 100000})

	o := e.Insert("5588", "IF2001.CFE", order.SideSell, order.Close, order.PriceTypeMarket,
		0, 1, false, "20200103", "20200103", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("无仓平仓应拒单: %d", o.Status)
	}
}

func TestFutureMarginNotEnough(t *testing.T) {
	_, bars, e, _ := newFutureEnv()
	bars.Put(&quotation.Bar{Symbol: "IF2001.CFE", Open: 3800, Close: 3800, Volume: 100000})

	// 10 手需保证金 114 万，超出初始资金
	o := e.Insert("5588", "IF2001.CFE", order.SideBuy, order.Open, order.PriceTypeMarket,
		0, 10, false, "20200103", "20200103", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("保证金不足应拒单: %d", o.Status)
	}
}

func TestFutureLimitPriceSnap(t *testing.T) {
	_, bars, e, _ := newFutureEnv()
	bars.Put(&quotation.Bar{Symbol: "IF2001.CFE", Open: 3800, Close: 3800, Volume: 100000})

	o := e.Insert("5588", "IF2001.CFE", order.SideBuy, order.Open, order.PriceTypeLimit,
		3800.07, 1, false, "20200103", "20200103", "093000")
	// 3800.07 按最小变动价位 0.2 取整为 3800.0
	if !almost(o.Price, 3800.0) {
		t.Errorf("限价未按最小变动价位取整: %v", o.Price)
	}
}

func TestFutureLimitUpBuyReject(t *testing.T) {
	_, bars, e, _ := newFutureEnv()
	// 收盘已封涨停
	bars.Put(&quotation.Bar{
		Symbol: "IF2001.CFE", TradeDate: "20200103",
		Open: 3800, Close: 3800, Volume: 100000,
		LimitUp: 3800, LimitDown: 3400, PrevSettle: 3600,
	})

	o := e.Insert("5588", "IF2001.CFE", order.SideBuy, order.Open, order.PriceTypeMarket,
		0, 1, false, "20200103", "20200103", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("涨停封板买开应拒单: %d, %s", o.Status, o.Message)
	}
	if e.Book().Len() != 0 {
		t.Error("拒单不应入簿")
	}
}

func TestFutureCrossPriceOutOfRangeReject(t *testing.T) {
	_, bars, e, _ := newFutureEnv()
	// 异常行情：收盘价落在当日最高价之外
	bars.Put(&quotation.Bar{
		Symbol: "IF2001.CFE", TradeDate: "20200103",
		Open: 3820, High: 3850, Low: 3800, Close: 3900,
		Volume: 100000, PrevSettle: 3790,
	})

	o := e.Insert("5588", "IF2001.CFE", order.SideBuy, order.Open, order.PriceTypeLimit,
		3850, 1, false, "20200103", "20200103", "093000")
	if o.Status != order.StatusRejected {
		t.Fatalf("撮合价越界应拒单: %d, %s", o.Status, o.Message)
	}
	if !strings.Contains(o.Message, order.ReasonPriceOutOfRange) {
		t.Errorf("拒单原因错误: %s", o.Message)
	}
}

func newFundEnv() (*event.Bus, *quotation.BarMap, *FundExchange, *account.FundAccount) {
	bus := event.NewBus()
	bars := quotation.NewBarMap()
	infos := instrument.NewInfoMap(&fakeInfoSource{})
	calendar := instrument.NewCalendar([]string{
		"20170301", "20170302", "20170303", "20170306", "20170307",
		"20170308", "20170309", "20170310", "20170313",
	})
	results := account.NewAllResult()
	acct := account.NewFundAccount("2233", 100000)
	results.FundAccounts["2233"] = acct

	rates := order.NewFundRateManager(&fakeFundRates{})
	e := NewFundExchange(bus, bars, &fakeQuoteSource{navs: map[string]float64{}},
		infos, calendar, results, rates, nil, 1, 7)
	e.Bind()

	bus.Register(event.SystemFundRtnOrder, func(ev *event.Event) {
		acct.OnRtnOrder(ev.Get("order").(*order.Order))
	})
	bus.Register(event.SystemFundRtnTrade, func(ev *event.Event) {
		t := ev.Get("trade").(*order.Trade)
		o, _ := ev.Get("order").(*order.Order)
		acct.OnRtnTrade(t, o)
	})
	return bus, bars, e, acct
}

func TestFundPurchaseCross(t *testing.T) {
	bus, bars, e, acct := newFundEnv()

	o := e.Purchase("2233", "000001.OF", 10000, "20170301", "20170301", "100000")
	if o.Status != order.StatusActive {
		t.Fatalf("申购单应已报: %d, %s", o.Status, o.Message)
	}
	// 15:00 前申报次一交易日确认
	if o.CrossDate != "20170302" {
		t.Errorf("确认日错误: %s", o.CrossDate)
	}
	if !almost(acct.FrozenCapital, 10000) {
		t.Errorf("申购冻结错误: %v", acct.FrozenCapital)
	}

	bars.Put(&quotation.Bar{Symbol: "000001.OF", TradeDate: "20170302", UnitNav: 1.5})
	bus.Publish(event.New(event.SystemFundOrderCross, "date", "20170302"))

	if o.Status != order.StatusFilled {
		t.Fatalf("确认日应成交: %d", o.Status)
	}
	p := acct.Positions["000001.OF"]
	// 份额 = floor((10000 − 150) / 1.5, 4位)
	if !almost(p.Shares, 6566.6666) {
		t.Errorf("确认份额错误: %v", p.Shares)
	}
	if !almost(acct.FrozenCapital, 0) {
		t.Errorf("确认后冻结未清: %v", acct.FrozenCapital)
	}
}

func TestFundRedeemArrive(t *testing.T) {
	bus, bars, e, acct := newFundEnv()

	e.Purchase("2233", "000001.OF", 10000, "20170301", "20170301", "100000")
	bars.Put(&quotation.Bar{Symbol: "000001.OF", TradeDate: "20170302", UnitNav: 1.5})
	bus.Publish(event.New(event.SystemFundOrderCross, "date", "20170302"))

	shares := acct.Positions["000001.OF"].Shares
	r := e.Redeem("2233", "000001.OF", shares, "20170302", "20170302", "160000")
	if r.Status != order.StatusActive {
		t.Fatalf("赎回单应已报: %d, %s", r.Status, r.Message)
	}
	// 15:00 后申报顺延一日确认
	if r.CrossDate != "20170306" {
		t.Errorf("赎回确认日错误: %s", r.CrossDate)
	}
	// 确认日加 7 自然日为 20170313（交易日）
	if r.ArriveDate != "20170313" {
		t.Errorf("到账日错误: %s", r.ArriveDate)
	}

	bars.Put(&quotation.Bar{Symbol: "000001.OF", TradeDate: "20170306", UnitNav: 1.6})
	bus.Publish(event.New(event.SystemFundOrderCross, "date", "20170306"))
	if r.Status != order.StatusFilled {
		t.Fatalf("赎回应确认: %d", r.Status)
	}

	gross := shares * 1.6
	proceeds := gross - gross*0.005
	if !almost(acct.TransitTotal(), proceeds) {
		t.Errorf("在途资金错误: %v, 期望 %v", acct.TransitTotal(), proceeds)
	}

	acct.OnNewDate("20170313")
	if !almost(acct.TransitTotal(), 0) {
		t.Errorf("到账后在途未清: %v", acct.TransitTotal())
	}
	if !almost(acct.Available, 90000+proceeds) {
		t.Errorf("到账后可用资金错误: %v", acct.Available)
	}
}

func TestFundCoverOldCancel(t *testing.T) {
	_, _, e, acct := newFundEnv()

	first := e.Purchase("2233", "000001.OF", 10000, "20170301", "20170301", "100000")
	second := e.Purchase("2233", "000001.OF", 5000, "20170301", "20170301", "110000")

	if first.Status != order.StatusCancelled {
		t.Fatalf("覆盖模式旧单应撤销: %d", first.Status)
	}
	if second.Status != order.StatusActive {
		t.Fatalf("新单应已报: %d", second.Status)
	}
	// 仅新单保持冻结
	if !almost(acct.FrozenCapital, 5000) {
		t.Errorf("覆盖后冻结错误: %v", acct.FrozenCapital)
	}
}

func TestFundRedeemShortageReject(t *testing.T) {
	_, _, e, _ := newFundEnv()
	o := e.Redeem("2233", "000001.OF", 100, "20170301", "20170301", "100000")
	if o.Status != order.StatusRejected {
		t.Fatalf("无份额赎回应拒单: %d", o.Status)
	}
}
