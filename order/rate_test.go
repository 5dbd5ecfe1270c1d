package order

import (
	"context"
	"testing"
)

type fakeFutureRateSource struct {
	rates map[string]*FutureFeeRate
}

func (f *fakeFutureRateSource) FutureFeeRate(ctx context.Context, symbol string) (*FutureFeeRate, error) {
	return f.rates[symbol], nil
}

func TestFutureRatePerLot(t *testing.T) {
	src := &fakeFutureRateSource{rates: map[string]*FutureFeeRate{
		"RB2005.SHF": {Symbol: "RB2005.SHF", CostType: CostTypePerLot, OpenRate: 5, CloseRate: 5, CloseTdRate: 10},
	}}
	m := NewFutureRateManager(src, newTestInfos(), 1)

	if got := m.OpenCost("RB2005.SHF", 3500, 4); got != 20 {
		t.Errorf("按手数开仓手续费错误: %v", got)
	}
	if got := m.CloseCost("RB2005.SHF", 3500, 2, true); got != 20 {
		t.Errorf("平今手续费错误: %v", got)
	}
	if got := m.CloseCost("RB2005.SHF", 3500, 2, false); got != 10 {
		t.Errorf("平仓手续费错误: %v", got)
	}
}

func TestFutureRateNotional(t *testing.T) {
	src := &fakeFutureRateSource{rates: map[string]*FutureFeeRate{
		"IF2001.CFE": {Symbol: "IF2001.CFE", CostType: CostTypeNotional, OpenRate: 0.000023, CloseRate: 0.000023, CloseTdRate: 0.00023},
	}}
	m := NewFutureRateManager(src, newTestInfos(), 1)

	// 3800 * 1手 * 300乘数 * 0.000023
	want := 3800 * 300 * 0.000023
	if got := m.OpenCost("IF2001.CFE", 3800, 1); got != want {
		t.Errorf("按金额开仓手续费错误: got %v, want %v", got, want)
	}
}

func TestFutureRateMissingSymbol(t *testing.T) {
	m := NewFutureRateManager(&fakeFutureRateSource{rates: map[string]*FutureFeeRate{}}, newTestInfos(), 1)
	if got := m.OpenCost("ZZ9999.DCE", 1000, 1); got != 0 {
		t.Errorf("缺失费率应按零计: %v", got)
	}
}

type fakeFundRateSource struct {
	tiers map[string][]*FundFeeTier
}

func (f *fakeFundRateSource) FundFeeTiers(ctx context.Context, symbol, fundType string) ([]*FundFeeTier, error) {
	return f.tiers[symbol], nil
}

func TestFundRateTiers(t *testing.T) {
	src := &fakeFundRateSource{tiers: map[string][]*FundFeeTier{
		"000001.OF": {
			{Symbol: "000001.OF", Side: SideBuy, Low: 0, High: 1000000, Rate: 0.015},
			{Symbol: "000001.OF", Side: SideBuy, Low: 1000000, High: 0, Rate: 1000},
			{Symbol: "000001.OF", Side: SideSell, Low: 0, High: 7, Rate: 0.015},
			{Symbol: "000001.OF", Side: SideSell, Low: 7, High: 0, Rate: 0.005},
		},
		"000002.OF": {
			{Symbol: "", FundType: "101401", Side: SideBuy, Low: 0, High: 0, Rate: 0.012},
		},
	}}
	m := NewFundRateManager(src)

	// 比例档
	if got := m.PurchaseFee("000001.OF", "101401", 10000); got != 150 {
		t.Errorf("申购比例费率错误: %v", got)
	}
	// 固定费用档（金额达到上档）
	if got := m.PurchaseFee("000001.OF", "101401", 2000000); got != 1000 {
		t.Errorf("申购固定费用错误: %v", got)
	}
	// 赎回按持有天数
	if got := m.RedeemFee("000001.OF", "101401", 10000, 3); got != 150 {
		t.Errorf("短期赎回费率错误: %v", got)
	}
	if got := m.RedeemFee("000001.OF", "101401", 10000, 30); got != 50 {
		t.Errorf("长期赎回费率错误: %v", got)
	}
	// 类别默认档兜底
	if got := m.PurchaseFee("000002.OF", "101401", 10000); got != 120 {
		t.Errorf("类别默认档错误: %v", got)
	}
	// 全部缺失按固定 10 元
	if got := m.PurchaseFee("999999.OF", "101401", 10000); got != 10 {
		t.Errorf("兜底费用错误: %v", got)
	}
}
