package database

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.SaveRun(ctx, &BacktestRun{
		RunID: "r1", StrategyName: "双均线", StartDate: "20170301", EndDate: "20170331",
		Frequency: "1d", Status: RunStatusQueued,
	})
	if err != nil {
		t.Fatalf("登记任务失败: %v", err)
	}

	if err := s.UpdateRunStatus(ctx, "r1", RunStatusRunning, 0.5, ""); err != nil {
		t.Fatalf("更新状态失败: %v", err)
	}

	run, err := s.GetRun(ctx, "r1")
	if err != nil || run == nil {
		t.Fatalf("查询任务失败: %v", err)
	}
	if run.Status != RunStatusRunning || run.Progress != 0.5 {
		t.Errorf("状态更新错误: %+v", run)
	}

	missing, err := s.GetRun(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("不存在的任务应返回 nil: %v %v", missing, err)
	}
}

func TestProfitSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, d := range []string{"20170302", "20170301", "20170303"} {
		if err := s.SaveProfit(ctx, &BacktestProfit{RunID: "r1", TradeDate: d}); err != nil {
			t.Fatalf("保存绩效失败: %v", err)
		}
	}

	rows, err := s.Profits(ctx, "r1")
	if err != nil {
		t.Fatalf("查询绩效失败: %v", err)
	}
	if len(rows) != 3 || rows[0].TradeDate != "20170301" || rows[2].TradeDate != "20170303" {
		t.Errorf("绩效序列应按交易日升序: %+v", rows)
	}
}

func TestInstrumentSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.db.Create(&FutureInfoRecord{
		Symbol: "IF2001.CFE", ContractMul: 300, MinPriceChg: 0.2, Margin: 10,
		LastTradeDate: "20200117",
	})
	s.db.Create(&TradeDateRecord{Date: "20200102"})
	s.db.Create(&TradeDateRecord{Date: "20200103"})
	s.db.Create(&TradeDateRecord{Date: "20200106"})

	info, err := s.FutureInfo(ctx, "IF2001.CFE")
	if err != nil || info == nil {
		t.Fatalf("查询合约信息失败: %v", err)
	}
	if info.ContractMul != 300 || !almostEq(info.LongMarginRate(1), 0.1) {
		t.Errorf("合约信息错误: %+v", info)
	}

	if info, _ := s.FutureInfo(ctx, "XX9999.CFE"); info != nil {
		t.Error("缺失合约应返回 nil")
	}

	dates, err := s.TradeDates(ctx, "20200102", "20200103")
	if err != nil || len(dates) != 2 {
		t.Errorf("交易日查询错误: %v %v", dates, err)
	}
}

func TestQuotationSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.db.Create(&MarketBar{
		Symbol: "IF2001.CFE", TradeDate: "20200103", Hms: "",
		Open: 3800, Close: 3820, Volume: 100000, Settle: 3815, PrevSettle: 3790,
	})

	bar, err := s.Bar(ctx, "IF2001.CFE", "20200103", "")
	if err != nil || bar == nil {
		t.Fatalf("K线查询失败: %v", err)
	}
	if bar.Close != 3820 {
		t.Errorf("K线数据错误: %+v", bar)
	}

	settle, prev, err := s.Settlement(ctx, "IF2001.CFE", "20200103")
	if err != nil || settle != 3815 || prev != 3790 {
		t.Errorf("结算价查询错误: %v %v %v", settle, prev, err)
	}

	if bar, _ := s.Bar(ctx, "IF2001.CFE", "20200106", ""); bar != nil {
		t.Error("缺失K线应返回 nil")
	}
}

func TestFundFeeTiers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.db.Create(&FundFeeRecord{Symbol: "000001.OF", Side: 0, Low: 0, High: 1000000, Rate: 0.015})
	s.db.Create(&FundFeeRecord{Symbol: "", FundType: "101301", Side: 1, Low: 0, High: 0, Rate: 0.005})
	s.db.Create(&FundFeeRecord{Symbol: "", FundType: "101404", Side: 1, Low: 0, High: 0, Rate: 0.01})

	tiers, err := s.FundFeeTiers(ctx, "000001.OF", "101301")
	if err != nil {
		t.Fatalf("费率档位查询失败: %v", err)
	}
	// 合约自有档 + 本类别默认档，不含其他类别
	if len(tiers) != 2 {
		t.Errorf("档位数量错误: %+v", tiers)
	}
}

func TestStrategyLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.SaveStrategyLog(ctx, "r1", "INFO", "测试日志"); err != nil {
			t.Fatalf("保存日志失败: %v", err)
		}
	}

	rows, err := s.StrategyLogs(ctx, "r1", 3, 0)
	if err != nil || len(rows) != 3 {
		t.Errorf("日志分页错误: %d %v", len(rows), err)
	}
}

func almostEq(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
