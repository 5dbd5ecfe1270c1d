package strategy

import (
	"fmt"

	"pandaquant/event"
	"pandaquant/logger"
	"pandaquant/order"
)

// Strategy 策略接口，Init 为唯一必须实现的方法
type Strategy interface {
	Init(ctx *Context) error
}

// DayBeforeHandler 盘前回调
type DayBeforeHandler interface {
	DayBeforeTrading(ctx *Context)
}

// BarHandler K线回调
type BarHandler interface {
	HandleBar(ctx *Context)
}

// DayAfterHandler 盘后回调
type DayAfterHandler interface {
	DayAfterTrading(ctx *Context)
}

// NightEndHandler 夜盘结束回调（期货实盘）
type NightEndHandler interface {
	NightEnd(ctx *Context)
}

// OrderHandler 报单状态回调
type OrderHandler interface {
	OnOrder(ctx *Context, o *order.Order)
}

// TradeHandler 成交回调
type TradeHandler interface {
	OnTrade(ctx *Context, t *order.Trade)
}

// ErrorHandler 运行异常回调
type ErrorHandler interface {
	OnTradeError(ctx *Context, message string)
}

// Runner 策略事件挂载器
//
// 把策略实现了的可选回调逐一挂到事件总线，未实现的回调不占链路。
// 回调内 panic 由总线吸收并转为 STRATEGY_TRADE_ERROR。
type Runner struct {
	bus      *event.Bus
	ctx      *Context
	strategy Strategy

	initErr error
}

// NewRunner 创建策略挂载器
func NewRunner(bus *event.Bus, ctx *Context, s Strategy) *Runner {
	return &Runner{bus: bus, ctx: ctx, strategy: s}
}

// InitErr 初始化回调返回的错误，引擎据此终止运行
func (r *Runner) InitErr() error {
	return r.initErr
}

// Bind 挂接策略回调
func (r *Runner) Bind() {
	r.bus.Register(event.StrategyInit, func(ev *event.Event) {
		if err := r.strategy.Init(r.ctx); err != nil {
			r.initErr = err
			msg := fmt.Sprintf("策略初始化失败: %v", err)
			logger.Error("❌ %s", msg)
			r.bus.Publish(event.New(event.StrategyTradeError, "message", msg))
		}
	})

	if h, ok := r.strategy.(DayBeforeHandler); ok {
		r.bus.Register(event.StrategyDayBeforeTrading, func(ev *event.Event) {
			h.DayBeforeTrading(r.ctx)
		})
	}

	if h, ok := r.strategy.(BarHandler); ok {
		r.bus.Register(event.StrategyHandleData, func(ev *event.Event) {
			h.HandleBar(r.ctx)
		})
	}

	if h, ok := r.strategy.(DayAfterHandler); ok {
		r.bus.Register(event.SystemEndDate, func(ev *event.Event) {
			h.DayAfterTrading(r.ctx)
		})
	}

	if h, ok := r.strategy.(NightEndHandler); ok {
		r.bus.Register(event.SystemNightEnd, func(ev *event.Event) {
			h.NightEnd(r.ctx)
		})
	}

	if h, ok := r.strategy.(OrderHandler); ok {
		onOrder := func(ev *event.Event) {
			if o, k := ev.Get("order").(*order.Order); k {
				h.OnOrder(r.ctx, o)
			}
		}
		for _, name := range []event.EventName{
			event.StrategyStockOrder, event.StrategyStockOrderCancel,
			event.StrategyFutureOrder, event.StrategyFutureOrderCancel,
			event.StrategyFundOrder, event.StrategyFundOrderCancel,
		} {
			r.bus.Register(name, onOrder)
		}
	}

	if h, ok := r.strategy.(TradeHandler); ok {
		onTrade := func(ev *event.Event) {
			if t, k := ev.Get("trade").(*order.Trade); k {
				h.OnTrade(r.ctx, t)
			}
		}
		for _, name := range []event.EventName{
			event.StrategyStockTrade, event.StrategyFutureTrade, event.StrategyFundTrade,
		} {
			r.bus.Register(name, onTrade)
		}
	}

	if h, ok := r.strategy.(ErrorHandler); ok {
		r.bus.Register(event.StrategyTradeError, func(ev *event.Event) {
			h.OnTradeError(r.ctx, ev.String("message"))
		})
	}
}
