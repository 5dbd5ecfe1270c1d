package strategy

import (
	"errors"
	"testing"

	"pandaquant/config"
	"pandaquant/event"
	"pandaquant/order"
)

type recordingStrategy struct {
	calls  []string
	errors []string
}

func (s *recordingStrategy) Init(ctx *Context) error {
	s.calls = append(s.calls, "init")
	return nil
}

func (s *recordingStrategy) DayBeforeTrading(ctx *Context) {
	s.calls = append(s.calls, "day_before")
}

func (s *recordingStrategy) HandleBar(ctx *Context) {
	s.calls = append(s.calls, "handle_bar")
}

func (s *recordingStrategy) DayAfterTrading(ctx *Context) {
	s.calls = append(s.calls, "day_after")
}

func (s *recordingStrategy) OnOrder(ctx *Context, o *order.Order) {
	s.calls = append(s.calls, "order:"+o.OrderID)
}

func (s *recordingStrategy) OnTrade(ctx *Context, t *order.Trade) {
	s.calls = append(s.calls, "trade:"+t.TradeID)
}

func (s *recordingStrategy) OnTradeError(ctx *Context, message string) {
	s.errors = append(s.errors, message)
}

// 仅实现 Init 的最小策略
type minimalStrategy struct{}

func (s *minimalStrategy) Init(ctx *Context) error { return nil }

type failingStrategy struct{}

func (s *failingStrategy) Init(ctx *Context) error {
	return errors.New("缺少参数")
}

func newTestContext() *Context {
	run := &config.RunConfig{StrategyName: "测试策略"}
	run.Normalize()
	return NewContext(run, nil, nil, nil, nil, nil)
}

func TestRunnerDispatch(t *testing.T) {
	bus := event.NewBus()
	s := &recordingStrategy{}
	NewRunner(bus, newTestContext(), s).Bind()

	bus.Publish(event.New(event.StrategyInit))
	bus.Publish(event.New(event.StrategyDayBeforeTrading))
	bus.Publish(event.New(event.StrategyHandleData))
	bus.Publish(event.New(event.StrategyStockOrder, "order", &order.Order{OrderID: "o1"}))
	bus.Publish(event.New(event.StrategyFutureTrade, "trade", &order.Trade{TradeID: "t1"}))
	bus.Publish(event.New(event.SystemEndDate))

	want := []string{"init", "day_before", "handle_bar", "order:o1", "trade:t1", "day_after"}
	if len(s.calls) != len(want) {
		t.Fatalf("回调次数错误: %v", s.calls)
	}
	for i, w := range want {
		if s.calls[i] != w {
			t.Errorf("回调次序错误: 第 %d 个 = %s, 期望 %s", i, s.calls[i], w)
		}
	}
}

func TestRunnerMinimalStrategy(t *testing.T) {
	bus := event.NewBus()
	NewRunner(bus, newTestContext(), &minimalStrategy{}).Bind()

	// 未实现的可选回调不应占用链路
	if bus.HandlerCount(event.StrategyHandleData) != 0 {
		t.Error("最小策略不应注册K线回调")
	}
	bus.Publish(event.New(event.StrategyInit))
	bus.Publish(event.New(event.StrategyHandleData))
}

func TestRunnerInitFailure(t *testing.T) {
	bus := event.NewBus()

	var got string
	bus.Register(event.StrategyTradeError, func(ev *event.Event) {
		got = ev.String("message")
	})

	r := NewRunner(bus, newTestContext(), &failingStrategy{})
	r.Bind()
	bus.Publish(event.New(event.StrategyInit))

	if got == "" {
		t.Fatal("初始化失败应转为异常事件")
	}
	if r.InitErr() == nil {
		t.Fatal("初始化错误应可供引擎查询")
	}
}

func TestContextAttrs(t *testing.T) {
	ctx := newTestContext()
	ctx.SetAttr("ma_window", 20.0)
	ctx.SetAttr("holding", "IF2001.CFE")

	snap, err := ctx.AttrsSnapshot()
	if err != nil {
		t.Fatalf("属性快照失败: %v", err)
	}

	restored := newTestContext()
	if err := restored.RestoreAttrs(snap); err != nil {
		t.Fatalf("属性恢复失败: %v", err)
	}
	if v, ok := restored.GetAttr("ma_window"); !ok || v.(float64) != 20.0 {
		t.Errorf("数值属性恢复错误: %v", v)
	}
	if v, _ := restored.GetAttr("holding"); v != "IF2001.CFE" {
		t.Errorf("字符串属性恢复错误: %v", v)
	}
}

func TestContextClock(t *testing.T) {
	ctx := newTestContext()
	ctx.SetClock("20170301", "20170301", "150000")
	if !ctx.IsTradeDateEnd() {
		t.Error("15:00 应判定为交易日收盘")
	}
	ctx.SetClock("20170301", "20170301", "093000")
	if ctx.IsTradeDateEnd() {
		t.Error("09:30 不应判定为收盘")
	}
}
