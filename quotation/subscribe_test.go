package quotation

import (
	"context"
	"testing"

	"pandaquant/event"
	"pandaquant/instrument"
)

// fakeSource 固定价格的行情源
type fakeSource struct {
	closes map[string]float64
	navs   map[string]float64
}

func (f *fakeSource) Bar(ctx context.Context, symbol, date, hms string) (*Bar, error) {
	c, ok := f.closes[symbol]
	if !ok {
		return nil, nil
	}
	return &Bar{Symbol: symbol, TradeDate: date, Hms: hms, Open: c, Close: c, Volume: 100}, nil
}

func (f *fakeSource) Settlement(ctx context.Context, symbol, date string) (float64, float64, error) {
	return 0, 0, nil
}

func (f *fakeSource) UnitNav(ctx context.Context, symbol, date string) (float64, error) {
	return f.navs[symbol], nil
}

// fakeProvider 固定持仓合约
type fakeProvider struct {
	stocks []string
}

func (f *fakeProvider) HeldSymbols() (stocks, futures, funds []string) {
	return f.stocks, nil, nil
}

func TestSubscribeDispatchOrder(t *testing.T) {
	bus := event.NewBus()
	src := &fakeSource{closes: map[string]float64{
		"600000.SH": 10, "000001.SZ": 8, "000300.SH": 4000,
	}}

	s := NewSubscribe(bus, src, &fakeProvider{stocks: []string{"000001.SZ"}}, "000300.SH", instrument.ClassStock)
	s.Bind()
	s.Sub(instrument.ClassStock, "600000.SH")

	var got []string
	bus.Register(event.SystemStockQuotationChange, func(ev *event.Event) {
		got = append(got, "quotation")
	})
	bus.Register(event.SystemStockOrderCross, func(ev *event.Event) {
		got = append(got, "cross:"+ev.String("symbol"))
	})
	bus.Register(event.StrategyHandleData, func(ev *event.Event) {
		got = append(got, "handle_data")
	})

	bus.Publish(event.New(event.SystemHandleBar, "date", "20200106", "hms", "150000", "trigger", true))

	// 行情变化 → 按合约字典序撮合 → 策略回调
	want := []string{"quotation", "cross:000001.SZ", "cross:000300.SH", "cross:600000.SH", "handle_data"}
	if len(got) != len(want) {
		t.Fatalf("派发序列错误: %v", got)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("第 %d 步 = %s, 期望 %s", i, got[i], w)
		}
	}

	if s.StockBars.Get("600000.SH").Close != 10 {
		t.Error("订阅合约K线未加载")
	}
	if s.StockBars.Get("000300.SH").Close != 4000 {
		t.Error("基准合约K线未加载")
	}
}

func TestSubscribeNoTriggerSkipsHandleData(t *testing.T) {
	bus := event.NewBus()
	s := NewSubscribe(bus, &fakeSource{}, nil, "", instrument.ClassStock)
	s.Bind()

	called := false
	bus.Register(event.StrategyHandleData, func(ev *event.Event) { called = true })

	bus.Publish(event.New(event.SystemHandleBar, "date", "20200106", "hms", "093000"))
	if called {
		t.Error("非触发时点不应派发策略回调")
	}
}

func TestSubscribeMissingBarSuspended(t *testing.T) {
	bus := event.NewBus()
	s := NewSubscribe(bus, &fakeSource{}, nil, "", instrument.ClassStock)
	s.Bind()
	s.Sub(instrument.ClassStock, "600519.SH")

	bus.Publish(event.New(event.SystemHandleBar, "date", "20200106", "hms", "150000"))

	bar := s.StockBars.Get("600519.SH")
	if !bar.Suspended {
		t.Error("缺行情应标记为停牌")
	}
	if !bar.Empty() {
		t.Error("停牌K线应判定为空行情")
	}
}

func TestSubUnsub(t *testing.T) {
	s := NewSubscribe(event.NewBus(), &fakeSource{}, nil, "", instrument.ClassStock)
	s.Sub(instrument.ClassStock, "600000.SH", "000001.SZ")
	s.Unsub(instrument.ClassStock, "600000.SH")

	subs := s.Subscribed(instrument.ClassStock)
	if len(subs) != 1 || subs[0] != "000001.SZ" {
		t.Errorf("订阅集合错误: %v", subs)
	}
}
