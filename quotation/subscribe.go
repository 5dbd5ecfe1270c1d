package quotation

import (
	"context"
	"sort"
	"sync"

	"pandaquant/event"
	"pandaquant/instrument"
	"pandaquant/logger"
)

// SymbolProvider 行情派发需要覆盖的持仓与挂单合约
type SymbolProvider interface {
	HeldSymbols() (stocks, futures, funds []string)
}

// Subscribe 行情订阅与派发
//
// 每次 SYSTEM_HANDLE_BAR 驱动时，取持仓合约、用户订阅、基准合约的
// 并集加载K线，先发行情变化事件，再按合约逐一发撮合事件，最后在
// 触发时点发策略 HANDLE_DATA。
type Subscribe struct {
	bus      *event.Bus
	source   Source
	provider SymbolProvider

	StockBars  *BarMap
	FutureBars *BarMap
	FundBars   *BarMap

	benchmark      string
	benchmarkClass int

	mu       sync.RWMutex
	userSubs map[int]map[string]struct{} // 类别 → 用户订阅集合
}

// NewSubscribe 创建行情派发器
func NewSubscribe(bus *event.Bus, source Source, provider SymbolProvider, benchmark string, benchmarkClass int) *Subscribe {
	s := &Subscribe{
		bus:            bus,
		source:         source,
		provider:       provider,
		StockBars:      NewBarMap(),
		FutureBars:     NewBarMap(),
		FundBars:       NewBarMap(),
		benchmark:      benchmark,
		benchmarkClass: benchmarkClass,
		userSubs: map[int]map[string]struct{}{
			instrument.ClassStock:  {},
			instrument.ClassFuture: {},
			instrument.ClassFund:   {},
		},
	}
	return s
}

// Bind 挂接到事件总线
func (s *Subscribe) Bind() {
	s.bus.Register(event.SystemHandleBar, s.onHandleBar)
}

// Sub 用户订阅合约
func (s *Subscribe) Sub(class int, symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.userSubs[class]
	if !ok {
		return
	}
	for _, sym := range symbols {
		set[sym] = struct{}{}
	}
}

// Unsub 用户退订合约
func (s *Subscribe) Unsub(class int, symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.userSubs[class]
	if !ok {
		return
	}
	for _, sym := range symbols {
		delete(set, sym)
	}
}

// Subscribed 返回某类别的用户订阅列表
func (s *Subscribe) Subscribed(class int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.userSubs[class]))
	for sym := range s.userSubs[class] {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// onHandleBar K线驱动：加载行情并按固定次序派发
func (s *Subscribe) onHandleBar(ev *event.Event) {
	date := ev.String("date")
	hms := ev.String("hms")
	trigger, _ := ev.Get("trigger").(bool)

	stocks, futures, funds := s.gatherSymbols()

	s.loadBars(s.StockBars, stocks, date, hms, instrument.ClassStock)
	s.loadBars(s.FutureBars, futures, date, hms, instrument.ClassFuture)
	s.loadBars(s.FundBars, funds, date, hms, instrument.ClassFund)

	// 行情变化先于撮合，撮合先于策略回调
	s.bus.Publish(event.New(event.SystemStockQuotationChange, "date", date, "hms", hms))
	for _, sym := range stocks {
		s.bus.Publish(event.New(event.SystemStockOrderCross,
			"symbol", sym, "date", date, "hms", hms))
	}

	s.bus.Publish(event.New(event.SystemFutureQuotationChange, "date", date, "hms", hms))
	for _, sym := range futures {
		s.bus.Publish(event.New(event.SystemFutureOrderCross,
			"symbol", sym, "date", date, "hms", hms))
	}

	s.bus.Publish(event.New(event.SystemFundQuotationChange, "date", date, "hms", hms))
	for _, sym := range funds {
		s.bus.Publish(event.New(event.SystemFundOrderCross,
			"symbol", sym, "date", date, "hms", hms))
	}

	if trigger {
		s.bus.Publish(event.New(event.StrategyHandleData, "date", date, "hms", hms))
	}
}

// gatherSymbols 汇总需要行情的合约（持仓挂单 ∪ 用户订阅 ∪ 基准）
func (s *Subscribe) gatherSymbols() (stocks, futures, funds []string) {
	stockSet := map[string]struct{}{}
	futureSet := map[string]struct{}{}
	fundSet := map[string]struct{}{}

	if s.provider != nil {
		ps, pf, pd := s.provider.HeldSymbols()
		for _, sym := range ps {
			stockSet[sym] = struct{}{}
		}
		for _, sym := range pf {
			futureSet[sym] = struct{}{}
		}
		for _, sym := range pd {
			fundSet[sym] = struct{}{}
		}
	}

	s.mu.RLock()
	for sym := range s.userSubs[instrument.ClassStock] {
		stockSet[sym] = struct{}{}
	}
	for sym := range s.userSubs[instrument.ClassFuture] {
		futureSet[sym] = struct{}{}
	}
	for sym := range s.userSubs[instrument.ClassFund] {
		fundSet[sym] = struct{}{}
	}
	s.mu.RUnlock()

	if s.benchmark != "" {
		switch s.benchmarkClass {
		case instrument.ClassFund:
			fundSet[s.benchmark] = struct{}{}
		case instrument.ClassFuture:
			futureSet[s.benchmark] = struct{}{}
		default:
			stockSet[s.benchmark] = struct{}{}
		}
	}

	return sortedKeys(stockSet), sortedKeys(futureSet), sortedKeys(fundSet)
}

// loadBars 按合约加载K线到行情视图
func (s *Subscribe) loadBars(dst *BarMap, symbols []string, date, hms string, class int) {
	ctx := context.Background()
	for _, sym := range symbols {
		bar, err := s.source.Bar(ctx, sym, date, hms)
		if err != nil {
			logger.Warn("⚠️ 行情加载失败: %s %s %s, %v", sym, date, hms, err)
			continue
		}
		if bar == nil {
			bar = &Bar{Symbol: sym, TradeDate: date, Hms: hms, Suspended: true}
		}

		// 基金补单位净值
		if class == instrument.ClassFund && bar.UnitNav == 0 {
			if nav, err := s.source.UnitNav(ctx, sym, date); err == nil {
				bar.UnitNav = nav
			}
		}
		dst.Put(bar)
	}
}

// sortedKeys 排序返回集合键，保证派发次序确定
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
