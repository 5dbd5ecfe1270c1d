package engine

import (
	"context"
	"fmt"
	"time"

	"pandaquant/account"
	"pandaquant/config"
	"pandaquant/database"
	"pandaquant/event"
	"pandaquant/exchange"
	"pandaquant/instrument"
	"pandaquant/logger"
	"pandaquant/metrics"
	"pandaquant/order"
	"pandaquant/quotation"
	"pandaquant/restore"
	"pandaquant/risk"
	"pandaquant/strategy"
)

// 日历加载向后多取的自然日数，覆盖基金确认与到账的跨日需求
const calendarTailDays = 90

// Engine 回测引擎
//
// 把事件总线上的各模块按固定次序装配起来。同一主题内处理函数按
// 注册顺序执行，装配顺序即业务顺序：行情 → 账户 → 撮合 → 风控
// 镜像 → 策略 → 结算与落库。
type Engine struct {
	cfg  *config.Config
	run  *config.RunConfig
	stra strategy.Strategy

	store *database.Store

	bus      *event.Bus
	infos    *instrument.InfoMap
	calendar *instrument.Calendar
	results  *account.AllResult
	quotes   *quotation.Subscribe

	stockEx  *exchange.StockExchange
	futureEx *exchange.FutureExchange
	fundEx   *exchange.FundExchange

	settle    *exchange.SettleManager
	dividends *exchange.DividendManager

	riskMgr *risk.Manager
	ctx     *strategy.Context
	runner  *strategy.Runner
	timeMgr *TimeManager

	restorer  *restore.Manager
	collector *metrics.Collector
}

// New 创建并装配回测引擎
func New(cfg *config.Config, run *config.RunConfig, store *database.Store, stra strategy.Strategy) (*Engine, error) {
	run.Normalize()

	e := &Engine{
		cfg:   cfg,
		run:   run,
		stra:  stra,
		store: store,
		bus:   event.NewBus(),
	}
	if err := e.setup(); err != nil {
		return nil, err
	}
	return e, nil
}

// AttachRestore 挂接现场快照（实盘重启恢复）
func (e *Engine) AttachRestore(m *restore.Manager) {
	e.restorer = m
}

// AttachMetrics 挂接运行指标
func (e *Engine) AttachMetrics(c *metrics.Collector) {
	e.collector = c
	if c != nil {
		e.bus.SetObserver(func(*event.Event) {
			c.EventsHandled.Inc()
		})
	}
}

// observeOrder 报单回报计数：已报计报单数，拒撤计拒撤数
func (e *Engine) observeOrder(o *order.Order) {
	if e.collector == nil {
		return
	}
	switch o.Status {
	case order.StatusActive:
		e.collector.OrdersTotal.WithLabelValues(e.run.RunID, metrics.ClassName(o.Class)).Inc()
	case order.StatusRejected, order.StatusCancelled,
		order.StatusPartTradedNotQueue, order.StatusNoTradeNotQueue:
		e.collector.RejectedTotal.WithLabelValues(e.run.RunID, metrics.ClassName(o.Class)).Inc()
	}
}

// Bus 暴露事件总线（实盘信号桥接用）
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Context 暴露策略上下文
func (e *Engine) Context() *strategy.Context {
	return e.ctx
}

// Results 暴露组合总账
func (e *Engine) Results() *account.AllResult {
	return e.results
}

// RiskManager 暴露风控管理器（热加载下发用）
func (e *Engine) RiskManager() *risk.Manager {
	return e.riskMgr
}

// setup 装配全部模块
func (e *Engine) setup() error {
	run := e.run

	e.infos = instrument.NewInfoMap(e.store)

	tail := instrument.NextNaturalDate(run.EndDate, calendarTailDays)
	dates, err := e.store.TradeDates(context.Background(), run.StartDate, tail)
	if err != nil {
		return fmt.Errorf("加载交易日历失败: %w", err)
	}
	if len(dates) == 0 {
		return fmt.Errorf("区间内无交易日: %s ~ %s", run.StartDate, run.EndDate)
	}
	e.calendar = instrument.NewCalendar(dates)

	e.results = account.NewAllResult()
	e.createAccounts()
	e.results.Standard = account.NewStandard(run.StandardSymbol)

	e.quotes = quotation.NewSubscribe(e.bus, e.store, e.results,
		run.StandardSymbol, e.standardClass())

	e.riskMgr = risk.NewManager(&e.cfg.Risk, e.results)

	futureRates := order.NewFutureRateManager(e.store, e.infos, run.CommissionMultiplier)
	fundRates := order.NewFundRateManager(e.store)

	e.stockEx = exchange.NewStockExchange(e.bus, e.quotes.StockBars, e.infos,
		e.results, e.riskMgr, run.MatchingType, run.Slippage, run.CommissionMultiplier)
	e.futureEx = exchange.NewFutureExchange(e.bus, e.quotes.FutureBars, e.infos,
		e.results, futureRates, e.riskMgr, run.MatchingType, run.FutureSlippage, run.MarginMultiplier)
	e.fundEx = exchange.NewFundExchange(e.bus, e.quotes.FundBars, e.store, e.infos,
		e.calendar, e.results, fundRates, e.riskMgr, run.FundCoverOld, run.FundLatencyDate)

	e.results.AttachBooks(e.stockEx.Book(), e.futureEx.Book(), e.fundEx.Book())

	e.settle = exchange.NewSettleManager(e.quotes.FutureBars, e.store, e.results)
	e.dividends = exchange.NewDividendManager(e.store, e.results)

	e.ctx = strategy.NewContext(run, e.results, e.quotes, e.stockEx, e.futureEx, e.fundEx)
	e.runner = strategy.NewRunner(e.bus, e.ctx, e.stra)
	e.timeMgr = NewTimeManager(e.bus, e.calendar, run)

	e.bind()
	return nil
}

// createAccounts 按账户类型建账
func (e *Engine) createAccounts() {
	run := e.run

	stockCapital := run.StartCapital
	if stockCapital <= 0 {
		stockCapital = 1000000
	}
	futureCapital := run.StartFutureCapital
	if futureCapital <= 0 {
		futureCapital = 1000000
	}

	switch run.AccountType {
	case config.AccountTypeFuture:
		e.results.FutureAccounts[run.FutureAccount] =
			account.NewFutureAccount(run.FutureAccount, futureCapital, e.infos, run.MarginMultiplier)
	case config.AccountTypeMixed:
		e.results.StockAccounts[run.StockAccount] =
			account.NewStockAccount(run.StockAccount, stockCapital)
		e.results.FutureAccounts[run.FutureAccount] =
			account.NewFutureAccount(run.FutureAccount, futureCapital, e.infos, run.MarginMultiplier)
	default:
		e.results.StockAccounts[run.StockAccount] =
			account.NewStockAccount(run.StockAccount, stockCapital)
	}

	if run.StartFundCapital > 0 {
		e.results.FundAccounts[run.FundAccount] =
			account.NewFundAccount(run.FundAccount, run.StartFundCapital)
	}
}

// standardClass 基准合约的资产类别
func (e *Engine) standardClass() int {
	switch e.run.StandardType() {
	case config.StandardTypeFund:
		return instrument.ClassFund
	case config.StandardTypeStock:
		return instrument.ClassStock
	default:
		return instrument.ClassFuture
	}
}

// bind 按业务顺序挂接事件处理
func (e *Engine) bind() {
	// 换日：时钟、账户、分红除权、行情视图清空、风控计数
	e.bus.Register(event.SystemNewDate, e.onNewDate)
	e.riskMgr.Bind(e.bus)

	// 盘前：风控镜像先于策略
	e.bus.Register(event.SystemDayStart, func(ev *event.Event) {
		e.bus.Publish(event.New(event.RiskControlDayBeforeTrading, "date", ev.String("date")))
		e.bus.Publish(event.New(event.StrategyDayBeforeTrading, "date", ev.String("date")))
	})

	// K线驱动：时钟先于行情派发
	e.bus.Register(event.SystemHandleBar, func(ev *event.Event) {
		e.ctx.SetClock(ev.String("date"), ev.String("date"), ev.String("hms"))
	})
	e.quotes.Bind()

	// 行情变化刷新账户标记价
	e.bus.Register(event.SystemStockQuotationChange, func(ev *event.Event) {
		for _, a := range e.results.StockAccounts {
			a.OnQuotationChange(e.quotes.StockBars)
		}
		e.bus.Publish(event.New(event.StrategyStockQuotation,
			"date", ev.String("date"), "hms", ev.String("hms")))
	})
	e.bus.Register(event.SystemFutureQuotationChange, func(ev *event.Event) {
		for _, a := range e.results.FutureAccounts {
			a.OnQuotationChange(e.quotes.FutureBars)
		}
		e.bus.Publish(event.New(event.StrategyFutureQuotation,
			"date", ev.String("date"), "hms", ev.String("hms")))
	})
	e.bus.Register(event.SystemFundQuotationChange, func(ev *event.Event) {
		for _, a := range e.results.FundAccounts {
			a.OnQuotationChange(e.quotes.FundBars)
		}
	})

	// 撮合回报先记账，再发风控镜像
	e.bindReturns()

	// 撮合与日终撤单。策略回调中的新报单只入簿不撮合，
	// 下一根K线的行情派发触发撮合。
	e.stockEx.Bind()
	e.futureEx.Bind()
	e.fundEx.Bind()

	// 策略回调（盘后回调在撤单之后）
	e.runner.Bind()

	// 日终收尾：记账、结算、基准、绩效、落库
	e.bus.Register(event.SystemEndDate, e.onEndDate)
}

// bindReturns 撮合回报入账与落库
func (e *Engine) bindReturns() {
	e.bus.Register(event.SystemStockRtnOrder, func(ev *event.Event) {
		o := ev.Get("order").(*order.Order)
		if a := e.results.StockAccounts[o.AccountID]; a != nil {
			a.OnRtnOrder(o)
		}
		e.observeOrder(o)
		e.bus.Publish(event.New(event.RiskControlStockOrder, "order", o))
	})
	e.bus.Register(event.SystemStockRtnTrade, func(ev *event.Event) {
		t := ev.Get("trade").(*order.Trade)
		o, _ := ev.Get("order").(*order.Order)
		if a := e.results.StockAccounts[t.AccountID]; a != nil {
			a.OnRtnTrade(t, o)
		}
		e.bus.Publish(event.New(event.RiskControlStockTrade, "trade", t))
		e.persistTrade(t)
	})

	e.bus.Register(event.SystemFutureRtnOrder, func(ev *event.Event) {
		o := ev.Get("order").(*order.Order)
		if a := e.results.FutureAccounts[o.AccountID]; a != nil {
			a.OnRtnOrder(o)
		}
		e.observeOrder(o)
		e.bus.Publish(event.New(event.RiskControlFutureOrder, "order", o))
	})
	e.bus.Register(event.SystemFutureRtnTrade, func(ev *event.Event) {
		t := ev.Get("trade").(*order.Trade)
		o, _ := ev.Get("order").(*order.Order)
		if a := e.results.FutureAccounts[t.AccountID]; a != nil {
			a.OnRtnTrade(t, o)
		}
		e.bus.Publish(event.New(event.RiskControlFutureTrade, "trade", t))
		e.persistTrade(t)
	})

	e.bus.Register(event.SystemFundRtnOrder, func(ev *event.Event) {
		o := ev.Get("order").(*order.Order)
		if a := e.results.FundAccounts[o.AccountID]; a != nil {
			a.OnRtnOrder(o)
		}
		e.observeOrder(o)
	})
	e.bus.Register(event.SystemFundRtnTrade, func(ev *event.Event) {
		t := ev.Get("trade").(*order.Trade)
		o, _ := ev.Get("order").(*order.Order)
		if a := e.results.FundAccounts[t.AccountID]; a != nil {
			a.OnRtnTrade(t, o)
		}
		e.persistTrade(t)
	})
}

// onNewDate 换日处理
func (e *Engine) onNewDate(ev *event.Event) {
	date := ev.String("date")
	e.ctx.SetClock(date, date, "")

	e.quotes.StockBars.Clear()
	e.quotes.FutureBars.Clear()
	e.quotes.FundBars.Clear()

	for _, a := range e.results.StockAccounts {
		a.OnNewDate(date)
	}
	for _, a := range e.results.FutureAccounts {
		a.OnNewDate(date)
	}
	for _, a := range e.results.FundAccounts {
		a.OnNewDate(date)
	}

	e.dividends.Run(context.Background(), date)
}

// onEndDate 日终收尾
func (e *Engine) onEndDate(ev *event.Event) {
	date := ev.String("date")
	ctx := context.Background()

	// 结算前记录未结算总资金
	for _, a := range e.results.StockAccounts {
		a.OnEndDate(date)
	}
	for _, a := range e.results.FutureAccounts {
		a.OnEndDate(date)
	}

	e.settle.Run(ctx, date)

	e.results.Standard.OnEndDate(date, e.standardPrice())
	point := e.results.CollectDaily(date)

	e.persistDaily(ctx, date, point)

	if e.collector != nil {
		e.collector.TotalProfit.WithLabelValues(e.run.RunID).Set(point.TotalProfit)
	}
}

// standardPrice 基准合约当前价格（基金为净值）
func (e *Engine) standardPrice() float64 {
	switch e.standardClass() {
	case instrument.ClassFund:
		return e.quotes.FundBars.Get(e.run.StandardSymbol).UnitNav
	case instrument.ClassFuture:
		return e.quotes.FutureBars.Get(e.run.StandardSymbol).Close
	default:
		return e.quotes.StockBars.Get(e.run.StandardSymbol).Close
	}
}

// Run 执行回测
func (e *Engine) Run(ctx context.Context) error {
	run := e.run
	logger.Info("🚀 回测启动: %s [%s ~ %s] %s", run.StrategyName, run.StartDate, run.EndDate, run.Frequency)

	if e.store != nil {
		e.store.UpdateRunStatus(ctx, run.RunID, database.RunStatusRunning, 0, "")
		e.store.SaveWorkflow(ctx, run.RunID, "启动", database.RunStatusRunning, "")
	}

	if err := e.restoreScene(ctx); err != nil {
		return err
	}

	e.ctx.SetClock(run.StartDate, run.StartDate, "")
	e.bus.Publish(event.New(event.RiskControlInit))
	e.bus.Publish(event.New(event.StrategyInit))
	if err := e.runner.InitErr(); err != nil {
		if e.store != nil {
			e.store.UpdateRunStatus(ctx, run.RunID, database.RunStatusFailed, 0, err.Error())
			e.store.SaveWorkflow(ctx, run.RunID, "初始化", database.RunStatusFailed, err.Error())
		}
		return fmt.Errorf("策略初始化失败: %w", err)
	}

	dayStart := time.Now()
	e.timeMgr.OnDayDone = func(tradeDate string, done, total int) {
		progress := float64(done) / float64(total)
		if e.collector != nil {
			e.collector.Progress.WithLabelValues(run.RunID).Set(progress)
			e.collector.DayDuration.Observe(time.Since(dayStart).Seconds())
		}
		dayStart = time.Now()
		if e.store != nil && (done%10 == 0 || done == total) {
			e.store.UpdateRunStatus(ctx, run.RunID, database.RunStatusRunning, progress, "")
		}
		select {
		case <-ctx.Done():
			panic(ctx.Err())
		default:
		}
	}

	start := time.Now()
	if err := e.runGuarded(); err != nil {
		if e.store != nil {
			e.store.UpdateRunStatus(ctx, run.RunID, database.RunStatusFailed, 0, err.Error())
			e.store.SaveWorkflow(ctx, run.RunID, "回测", database.RunStatusFailed, err.Error())
		}
		return err
	}

	e.bus.Publish(event.New(event.SystemCalculateResult, "date", run.EndDate))

	if e.store != nil {
		e.store.UpdateRunStatus(ctx, run.RunID, database.RunStatusDone, 1, "")
		e.store.SaveWorkflow(ctx, run.RunID, "回测", database.RunStatusDone, "")
	}
	logger.Info("🏁 回测完成: %s, 耗时 %s, 累计收益率 %.4f%%",
		run.StrategyName, time.Since(start).Round(time.Millisecond), e.results.TotalReturn()*100)
	return nil
}

// RunLive 实盘模式：完成初始化后由外部信号事件驱动，直到上下文取消
func (e *Engine) RunLive(ctx context.Context) error {
	run := e.run
	logger.Info("📈 实盘启动: %s 频道信号驱动", run.StrategyName)

	if e.store != nil {
		e.store.UpdateRunStatus(ctx, run.RunID, database.RunStatusRunning, 0, "")
	}
	if err := e.restoreScene(ctx); err != nil {
		return err
	}

	// 日终现场快照，注册在结算与绩效落库之后
	e.bus.Register(event.SystemEndDate, func(ev *event.Event) {
		if err := e.SaveScene(ctx, ev.String("date")); err != nil {
			logger.Warn("⚠️ 保存运行现场失败: %v", err)
		}
	})

	e.ctx.SetClock(run.StartDate, run.StartDate, "")
	e.bus.Publish(event.New(event.RiskControlInit))
	e.bus.Publish(event.New(event.StrategyInit))
	if err := e.runner.InitErr(); err != nil {
		if e.store != nil {
			e.store.UpdateRunStatus(ctx, run.RunID, database.RunStatusFailed, 0, err.Error())
		}
		return fmt.Errorf("策略初始化失败: %w", err)
	}

	<-ctx.Done()
	logger.Info("🛑 实盘停止: %s", run.StrategyName)
	return nil
}

// runGuarded 推进时间驱动并吸收取消引发的 panic
func (e *Engine) runGuarded() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("回测中断: %v", r)
		}
	}()
	return e.timeMgr.Run()
}

// restoreScene 从快照恢复运行现场（实盘重启）
func (e *Engine) restoreScene(ctx context.Context) error {
	if e.restorer == nil || e.run.MockID == "" {
		return nil
	}
	snap, err := e.restorer.Load(ctx)
	if err != nil {
		return fmt.Errorf("加载现场快照失败: %w", err)
	}
	if snap == nil {
		return nil
	}

	for id, a := range snap.Results.StockAccounts {
		a.Rehydrate()
		e.results.StockAccounts[id] = a
	}
	for id, a := range snap.Results.FutureAccounts {
		a.Rehydrate(e.infos, e.run.MarginMultiplier)
		e.results.FutureAccounts[id] = a
	}
	for id, a := range snap.Results.FundAccounts {
		a.Rehydrate()
		e.results.FundAccounts[id] = a
	}
	if snap.Results.Standard != nil {
		e.results.Standard = snap.Results.Standard
	}
	e.results.Profits = snap.Results.Profits

	if len(snap.StockBook) > 0 {
		e.stockEx.Book().Restore(snap.StockBook)
	}
	if len(snap.FutureBook) > 0 {
		e.futureEx.Book().Restore(snap.FutureBook)
	}
	if len(snap.FundBook) > 0 {
		e.fundEx.Book().Restore(snap.FundBook)
	}
	if len(snap.Attrs) > 0 {
		e.ctx.RestoreAttrs(snap.Attrs)
	}

	e.bus.Publish(event.New(event.SystemRestoreStrategy, "date", snap.TradeDate))
	return nil
}

// SaveScene 写入现场快照（实盘日终调用）
func (e *Engine) SaveScene(ctx context.Context, tradeDate string) error {
	if e.restorer == nil {
		return nil
	}
	attrs, err := e.ctx.AttrsSnapshot()
	if err != nil {
		return err
	}
	return e.restorer.Save(ctx, e.results,
		e.stockEx.Book(), e.futureEx.Book(), e.fundEx.Book(), attrs, tradeDate)
}

// persistTrade 成交落库
func (e *Engine) persistTrade(t *order.Trade) {
	if e.store == nil {
		return
	}
	if e.collector != nil {
		e.collector.TradesTotal.WithLabelValues(e.run.RunID, metrics.ClassName(t.Class)).Inc()
	}
	err := e.store.SaveTrade(context.Background(), &database.BacktestTrade{
		RunID:     e.run.RunID,
		TradeID:   t.TradeID,
		OrderID:   t.OrderID,
		AccountID: t.AccountID,
		Symbol:    t.Symbol,
		Class:     t.Class,
		Side:      t.Side,
		Effect:    t.Effect,
		Price:     t.Price,
		Volume:    t.Volume,
		Amount:    t.Amount,
		Shares:    t.Shares,
		Cost:      t.Cost,
		TradeDate: t.TradeDate,
		Hms:       t.Hms,
	})
	if err != nil {
		logger.Warn("⚠️ 成交落库失败: %s, %v", t.TradeID, err)
	}
}

// persistDaily 日终快照落库
func (e *Engine) persistDaily(ctx context.Context, date string, point *account.ProfitPoint) {
	if e.store == nil {
		return
	}

	var accounts []*database.BacktestAccount
	var positions []*database.BacktestPosition

	for _, a := range e.results.StockAccounts {
		accounts = append(accounts, &database.BacktestAccount{
			RunID: e.run.RunID, TradeDate: date, AccountID: a.AccountID,
			Class: instrument.ClassStock, TotalProfit: a.TotalProfit(),
			Available: a.Available, MarketValue: a.MarketValue(),
			FrozenCapital: a.FrozenCapital, DailyPnl: a.DailyPnl(), AddProfit: a.AddProfit(),
		})
		for _, p := range a.Positions {
			positions = append(positions, &database.BacktestPosition{
				RunID: e.run.RunID, TradeDate: date, AccountID: a.AccountID,
				Symbol: p.Symbol, Class: instrument.ClassStock,
				Position: float64(p.Position), Sellable: float64(p.Sellable),
				HoldPrice: p.HoldPrice, LastPrice: p.LastPrice, MarketValue: p.MarketValue(),
			})
		}
	}

	for _, a := range e.results.FutureAccounts {
		accounts = append(accounts, &database.BacktestAccount{
			RunID: e.run.RunID, TradeDate: date, AccountID: a.AccountID,
			Class: instrument.ClassFuture, TotalProfit: a.TotalProfit(),
			Available: a.Available, FrozenCapital: a.FrozenCapital,
			Margin: a.Margin(), HoldingPnl: a.HoldingPnl(), RealizedPnl: a.RealizedPnl(),
			Cost: a.TotalCost(), DailyPnl: a.DailyPnl(), AddProfit: a.AddProfit(),
		})
		for _, p := range a.Positions {
			for dir, side := range []*account.FutureSide{p.Long, p.Short} {
				if side.Position == 0 {
					continue
				}
				positions = append(positions, &database.BacktestPosition{
					RunID: e.run.RunID, TradeDate: date, AccountID: a.AccountID,
					Symbol: p.Symbol, Class: instrument.ClassFuture, Direction: dir,
					Position: float64(side.Position), HoldPrice: side.HoldPrice,
					LastPrice: side.LastPrice, Margin: side.Margin, HoldingPnl: side.HoldingPnl,
				})
			}
		}
	}

	for _, a := range e.results.FundAccounts {
		accounts = append(accounts, &database.BacktestAccount{
			RunID: e.run.RunID, TradeDate: date, AccountID: a.AccountID,
			Class: instrument.ClassFund, TotalProfit: a.TotalProfit(),
			Available: a.Available, MarketValue: a.MarketValue(),
			FrozenCapital: a.FrozenCapital, DailyPnl: a.DailyPnl(), AddProfit: a.AddProfit(),
		})
		for _, p := range a.Positions {
			positions = append(positions, &database.BacktestPosition{
				RunID: e.run.RunID, TradeDate: date, AccountID: a.AccountID,
				Symbol: p.Symbol, Class: instrument.ClassFund,
				Position: p.Shares, Sellable: p.Sellable,
				HoldPrice: p.HoldNav, LastPrice: p.LastNav, MarketValue: p.MarketValue(),
			})
		}
	}

	if err := e.store.SaveAccountSnapshots(ctx, accounts); err != nil {
		logger.Warn("⚠️ 账户快照落库失败: %s, %v", date, err)
	}
	if err := e.store.SavePositionSnapshots(ctx, positions); err != nil {
		logger.Warn("⚠️ 持仓快照落库失败: %s, %v", date, err)
	}
	if err := e.store.SaveProfit(ctx, &database.BacktestProfit{
		RunID:          e.run.RunID,
		TradeDate:      date,
		TotalProfit:    point.TotalProfit,
		DailyPnl:       point.DailyPnl,
		AddProfit:      point.AddProfit,
		DailyReturn:    point.DailyReturn,
		TotalReturn:    point.TotalReturn,
		StandardReturn: point.StandardReturn,
	}); err != nil {
		logger.Warn("⚠️ 绩效落库失败: %s, %v", date, err)
	}
}
