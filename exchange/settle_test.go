package exchange

import (
	"context"
	"testing"

	"pandaquant/account"
	"pandaquant/instrument"
	"pandaquant/order"
	"pandaquant/quotation"
)

type fakeSettleSource struct {
	settles map[string]float64
}

func (f *fakeSettleSource) Bar(ctx context.Context, symbol, date, hms string) (*quotation.Bar, error) {
	return nil, nil
}

func (f *fakeSettleSource) Settlement(ctx context.Context, symbol, date string) (float64, float64, error) {
	return f.settles[symbol+date], 0, nil
}

func (f *fakeSettleSource) UnitNav(ctx context.Context, symbol, date string) (float64, error) {
	return 0, nil
}

func TestSettleManagerRun(t *testing.T) {
	infos := instrument.NewInfoMap(&fakeInfoSource{})
	results := account.NewAllResult()
	acct := account.NewFutureAccount("5588", 1000000, infos, 1)
	results.FutureAccounts["5588"] = acct

	acct.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 2, Cost: 0,
	}, nil)

	bars := quotation.NewBarMap()
	m := NewSettleManager(bars, &fakeSettleSource{settles: map[string]float64{
		"IF2001.CFE20200103": 3820,
	}}, results)

	m.Run(context.Background(), "20200103")

	p := acct.Positions["IF2001.CFE"]
	if !almost(p.Long.HoldPrice, 3820) {
		t.Errorf("结算后持仓均价错误: %v", p.Long.HoldPrice)
	}
	if !almost(acct.TotalProfit(), 1000000+12000) {
		t.Errorf("结算盈亏错误: %v", acct.TotalProfit())
	}
}

func TestSettleManagerBarFallback(t *testing.T) {
	infos := instrument.NewInfoMap(&fakeInfoSource{})
	results := account.NewAllResult()
	acct := account.NewFutureAccount("5588", 1000000, infos, 1)
	results.FutureAccounts["5588"] = acct

	acct.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 1, Cost: 0,
	}, nil)

	// 数据源无结算价，回落到行情视图
	bars := quotation.NewBarMap()
	bars.Put(&quotation.Bar{Symbol: "IF2001.CFE", Close: 3810, Settle: 3815})
	m := NewSettleManager(bars, &fakeSettleSource{settles: map[string]float64{}}, results)

	m.Run(context.Background(), "20200103")
	if !almost(acct.Positions["IF2001.CFE"].Long.HoldPrice, 3815) {
		t.Errorf("应回落到行情结算价: %v", acct.Positions["IF2001.CFE"].Long.HoldPrice)
	}
}

func TestSettleManagerDelivery(t *testing.T) {
	infos := instrument.NewInfoMap(&fakeInfoSource{})
	results := account.NewAllResult()
	acct := account.NewFutureAccount("5588", 1000000, infos, 1)
	results.FutureAccounts["5588"] = acct

	acct.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "IF2001.CFE",
		Side: order.SideBuy, Effect: order.Open, Price: 3800, Volume: 1, Cost: 0,
	}, nil)

	m := NewSettleManager(quotation.NewBarMap(), &fakeSettleSource{settles: map[string]float64{
		"IF2001.CFE20200117": 3820,
	}}, results)

	// 最后交易日结算后交割
	m.Run(context.Background(), "20200117")
	if _, ok := acct.Positions["IF2001.CFE"]; ok {
		t.Error("到期合约应交割移除")
	}
	if !almost(acct.TotalProfit(), 1000000+6000) {
		t.Errorf("交割后总资金错误: %v", acct.TotalProfit())
	}
}

type fakeDividendSource struct {
	records map[string][]*DividendRecord
}

func (f *fakeDividendSource) Dividends(ctx context.Context, date string) ([]*DividendRecord, error) {
	return f.records[date], nil
}

func TestDividendManagerStock(t *testing.T) {
	results := account.NewAllResult()
	acct := account.NewStockAccount("8888", 100000)
	results.StockAccounts["8888"] = acct

	acct.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "600400.SH", Side: order.SideBuy,
		Price: 10, Volume: 1000, Cost: 0,
	}, nil)

	m := NewDividendManager(&fakeDividendSource{records: map[string][]*DividendRecord{
		"20170601": {{Symbol: "600400.SH", ExDate: "20170601", CashPerShare: 0.5, ShareRatio: 0.2}},
	}}, results)

	availBefore := acct.Available
	m.Run(context.Background(), "20170601")

	if !almost(acct.Available, availBefore+500) {
		t.Errorf("现金红利未入账: %v", acct.Available)
	}
	if acct.Positions["600400.SH"].Position != 1200 {
		t.Errorf("送转股数量错误: %d", acct.Positions["600400.SH"].Position)
	}
}

func TestDividendManagerFundSplit(t *testing.T) {
	results := account.NewAllResult()
	acct := account.NewFundAccount("2233", 100000)
	results.FundAccounts["2233"] = acct

	acct.OnRtnTrade(&order.Trade{
		OrderID: "o1", Symbol: "000001.OF", Side: order.SideBuy,
		Amount: 10000, Shares: 5000, UnitNav: 2.0, Cost: 0,
	}, nil)

	m := NewDividendManager(&fakeDividendSource{records: map[string][]*DividendRecord{
		"20170601": {{Symbol: "000001.OF", ExDate: "20170601", SplitRatio: 2}},
	}}, results)

	m.Run(context.Background(), "20170601")
	if !almost(acct.Positions["000001.OF"].Shares, 10000) {
		t.Errorf("拆分份额错误: %v", acct.Positions["000001.OF"].Shares)
	}
}
