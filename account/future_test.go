package account

import (
	"context"
	"testing"

	"pandaquant/instrument"
	"pandaquant/order"
	"pandaquant/quotation"
)

type fakeInfoSource struct {
	futures map[string]*instrument.FutureInfo
}

func (f *fakeInfoSource) FutureInfo(ctx context.Context, symbol string) (*instrument.FutureInfo, error) {
	return f.futures[symbol], nil
}

func (f *fakeInfoSource) StockInfo(ctx context.Context, symbol string) (*instrument.StockInfo, error) {
	return nil, nil
}

func (f *fakeInfoSource) FundInfo(ctx context.Context, symbol string) (*instrument.FundInfo, error) {
	return nil, nil
}

func (f *fakeInfoSource) TradeDates(ctx context.Context, start, end string) ([]string, error) {
	return nil, nil
}

func newFutureInfos() *instrument.InfoMap {
	return instrument.NewInfoMap(&fakeInfoSource{futures: map[string]*instrument.FutureInfo{
		"IF2001.CFE": {
			Symbol: "IF2001.CFE", ContractMul: 300, MinPriceChg: 0.2,
			Margin: 10, LastTradeDate: "20200117",
		},
	}})
}

// 期货当日开平：买开 2 手 @3800，平今 @3820，手续费共 46
func TestFutureOpenCloseToday(t *testing.T) {
	a := NewFutureAccount("5588", 1000000, newFutureInfos(), 1)
	a.OnNewDate("20200103")

	open := &order.Order{
		OrderID: "o1", Symbol: "IF2001.CFE", Side: order.SideBuy,
		Effect: order.Open, Price: 3800, Quantity: 2,
		Status: order.StatusActive, Margin: 3800 * 2 * 300 * 0.1,
	}
	a.OnRtnOrder(open)
	if !almost(a.FrozenCapital, 228000) {
		t.Errorf("开仓冻结保证金错误: %v", a.FrozenCapital)
	}

	a.OnRtnTrade(&order.Trade{
		TradeID: "t1", OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 2, Cost: 23,
	}, open)
	open.Filled = 2
	open.Status = order.StatusFilled
	a.OnRtnOrder(open)

	if !almost(a.Margin(), 228000) {
		t.Errorf("持仓保证金错误: %v", a.Margin())
	}
	if !almost(a.Available, 1000000-228000-23) {
		t.Errorf("开仓后可用资金错误: %v", a.Available)
	}
	if !almost(a.TotalProfit(), 1000000-23) {
		t.Errorf("开仓后总资金错误: %v", a.TotalProfit())
	}

	p := a.Positions["IF2001.CFE"]
	if p.Long.Position != 2 || p.Long.TdPosition != 2 {
		t.Errorf("多头持仓错误: %+v", p.Long)
	}
	if a.ClosableToday("IF2001.CFE", order.SideSell) != 2 {
		t.Errorf("可平今数量错误: %d", a.ClosableToday("IF2001.CFE", order.SideSell))
	}

	closeOrd := &order.Order{
		OrderID: "o2", Symbol: "IF2001.CFE", Side: order.SideSell,
		Effect: order.Close, Price: 3820, Quantity: 2,
		Status: order.StatusActive, IsTdClose: true, CloseTdPos: 2,
	}
	a.OnRtnOrder(closeOrd)
	if p.Long.FrozenPosition != 2 || p.Long.FrozenTdPosition != 2 {
		t.Errorf("平仓冻结错误: %+v", p.Long)
	}
	if a.Closable("IF2001.CFE", order.SideSell) != 0 {
		t.Error("冻结后可平应为 0")
	}

	a.OnRtnTrade(&order.Trade{
		TradeID: "t2", OrderID: "o2", Symbol: "IF2001.CFE",
		Side: order.SideSell, Effect: order.Close, Price: 3820, Volume: 2,
		Cost: 23, IsTdClose: true,
	}, closeOrd)
	closeOrd.Filled = 2
	closeOrd.Status = order.StatusFilled
	a.OnRtnOrder(closeOrd)

	// 总资金 = 初始 − 46 手续费 + 12000 平仓盈亏
	if !almost(a.TotalProfit(), 1000000-46+12000) {
		t.Errorf("平仓后总资金错误: %v", a.TotalProfit())
	}
	if !almost(a.Margin(), 0) {
		t.Errorf("平仓后保证金未释放: %v", a.Margin())
	}
	// 清仓后持仓当日保留，手续费与平仓盈亏在日终汇总仍可见
	if !almost(a.TotalCost(), 46) {
		t.Errorf("清仓当日累计手续费错误: %v", a.TotalCost())
	}
	if !almost(a.RealizedPnl(), 12000) {
		t.Errorf("清仓当日平仓盈亏错误: %v", a.RealizedPnl())
	}
	if !almost(p.Long.AccumulateProfit, 12000) {
		t.Errorf("累计盈亏错误: %v", p.Long.AccumulateProfit)
	}

	a.OnNewDate("20200106")
	if _, ok := a.Positions["IF2001.CFE"]; ok {
		t.Error("换日后空持仓应移除")
	}
}

// 普通平仓先平昨仓，昨仓不足部分消耗今仓明细
func TestFuturePlainCloseYesterdayFirst(t *testing.T) {
	a := NewFutureAccount("5588", 1000000, newFutureInfos(), 1)

	// 昨仓 1 手 @3790
	a.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3790, Volume: 1, Cost: 0,
	}, nil)
	a.OnNewDate("20200106")

	// 今仓 2 手 @3800
	a.OnRtnTrade(&order.Trade{
		OrderID: "o2", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 2, Cost: 0,
	}, nil)

	p := a.Positions["IF2001.CFE"]
	if p.Long.Position != 3 || p.Long.TdPosition != 2 {
		t.Fatalf("场景预设错误: %+v", p.Long)
	}

	// 普通平 2 手：1 手昨仓 + 1 手今仓
	a.OnRtnTrade(&order.Trade{
		OrderID: "o3", Symbol: "IF2001.CFE",
		Side: order.SideSell, Effect: order.Close, Price: 3820, Volume: 2, Cost: 0,
	}, nil)

	if p.Long.Position != 1 || p.Long.TdPosition != 1 {
		t.Errorf("昨仓优先平仓错误: position=%d td=%d", p.Long.Position, p.Long.TdPosition)
	}
	if len(p.Long.TodayLots) != 1 || !almost(p.Long.TodayLots[0][1], 1) {
		t.Errorf("今仓明细消耗错误: %v", p.Long.TodayLots)
	}
}

// 无昨仓时普通平仓直接消耗今仓
func TestFuturePlainCloseAllToday(t *testing.T) {
	a := NewFutureAccount("5588", 1000000, newFutureInfos(), 1)

	a.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 2, Cost: 0,
	}, nil)
	a.OnRtnTrade(&order.Trade{
		OrderID: "o2", Symbol: "IF2001.CFE",
		Side: order.SideSell, Effect: order.Close, Price: 3810, Volume: 1, Cost: 0,
	}, nil)

	p := a.Positions["IF2001.CFE"]
	if p.Long.Position != 1 || p.Long.TdPosition != 1 {
		t.Errorf("平今数量错误: position=%d td=%d", p.Long.Position, p.Long.TdPosition)
	}
	if len(p.Long.TodayLots) != 1 || !almost(p.Long.TodayLots[0][1], 1) {
		t.Errorf("今仓明细消耗错误: %v", p.Long.TodayLots)
	}
}

// 日终结算：多头 2 手持仓价 3800，结算价 3820，盈亏 12000
func TestFutureSettle(t *testing.T) {
	a := NewFutureAccount("5588", 1000000, newFutureInfos(), 1)

	a.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 2, Cost: 0,
	}, nil)

	totalBefore := a.TotalProfit()
	a.Settle("IF2001.CFE", 3820)

	p := a.Positions["IF2001.CFE"]
	if !almost(p.Long.HoldPrice, 3820) {
		t.Errorf("结算后持仓均价错误: %v", p.Long.HoldPrice)
	}
	// 保证金按结算价重算
	if !almost(p.Long.Margin, 3820*2*300*0.1) {
		t.Errorf("结算后保证金错误: %v", p.Long.Margin)
	}
	if !almost(a.TotalProfit(), totalBefore+12000) {
		t.Errorf("结算盈亏错误: %v", a.TotalProfit()-totalBefore)
	}
	// 可用资金变化 = 盈亏 − 保证金增量 = 12000 − 1200
	if !almost(p.Long.HoldingPnl, 0) {
		t.Errorf("结算后浮动盈亏应归零: %v", p.Long.HoldingPnl)
	}
}

func TestFutureQuotationMark(t *testing.T) {
	a := NewFutureAccount("5588", 1000000, newFutureInfos(), 1)
	a.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideSell, Effect: order.Open, Price: 3800, Volume: 1, Cost: 0,
	}, nil)

	bars := quotation.NewBarMap()
	bars.Put(&quotation.Bar{Symbol: "IF2001.CFE", Close: 3780})
	a.OnQuotationChange(bars)

	p := a.Positions["IF2001.CFE"]
	// 空头下跌 20 点盈利 20*300
	if !almost(p.Short.HoldingPnl, 6000) {
		t.Errorf("空头浮动盈亏错误: %v", p.Short.HoldingPnl)
	}
}

func TestFutureBurn(t *testing.T) {
	a := NewFutureAccount("5588", 120000, newFutureInfos(), 1)
	a.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 1, Cost: 0,
	}, nil)

	// 暴跌导致权益穿仓
	bars := quotation.NewBarMap()
	bars.Put(&quotation.Bar{Symbol: "IF2001.CFE", Close: 3300})
	a.OnQuotationChange(bars)

	a.BurnCheck()
	if !a.Burned {
		t.Fatalf("应触发爆仓, 总资金 %v", a.TotalProfit())
	}
	if len(a.Positions) != 0 || a.Available != 0 {
		t.Error("爆仓后应清仓清资金")
	}
}

func TestFutureDelivery(t *testing.T) {
	a := NewFutureAccount("5588", 1000000, newFutureInfos(), 1)
	a.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 1, Cost: 0,
	}, nil)

	// 非最后交易日不交割
	a.Delivery("IF2001.CFE", "20200116", 3820)
	if _, ok := a.Positions["IF2001.CFE"]; !ok {
		t.Fatal("未到期不应交割")
	}

	a.Delivery("IF2001.CFE", "20200117", 3820)
	if _, ok := a.Positions["IF2001.CFE"]; ok {
		t.Error("到期应交割移除持仓")
	}
	// 交割盈亏落入资金
	if !almost(a.TotalProfit(), 1000000+(3820-3800)*300) {
		t.Errorf("交割后总资金错误: %v", a.TotalProfit())
	}
}
