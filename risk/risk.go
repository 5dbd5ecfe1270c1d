package risk

import (
	"fmt"
	"sync"

	"pandaquant/account"
	"pandaquant/config"
	"pandaquant/event"
	"pandaquant/instrument"
	"pandaquant/logger"
	"pandaquant/order"
)

// Manager 风控管理
//
// 两条作用路径：报单校验链末端的 CheckOrder，以及通过 AddFront
// 抢占在策略回调之前执行的风控镜像事件。配置支持热更新，更新后
// 的规则对后续报单立即生效。
type Manager struct {
	mu  sync.RWMutex
	cfg *config.RiskConfig

	results *account.AllResult

	dailyOrders map[string]int // 账号 → 当日报单次数
}

// NewManager 创建风控管理器
func NewManager(cfg *config.RiskConfig, results *account.AllResult) *Manager {
	if cfg == nil {
		cfg = &config.RiskConfig{}
	}
	return &Manager{
		cfg:         cfg,
		results:     results,
		dailyOrders: make(map[string]int),
	}
}

// Update 热更新风控配置
func (m *Manager) Update(cfg *config.RiskConfig) {
	if cfg == nil {
		return
	}
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	logger.Info("🛡️ 风控规则已更新: enabled=%v", cfg.Enabled)
}

// Bind 挂接风控镜像事件（插入链首）与换日计数清零
func (m *Manager) Bind(bus *event.Bus) {
	bus.AddFront(event.RiskControlInit, func(ev *event.Event) {})
	bus.AddFront(event.RiskControlStockOrder, m.onOrderEvent)
	bus.AddFront(event.RiskControlFutureOrder, m.onOrderEvent)
	bus.Register(event.SystemNewDate, func(ev *event.Event) {
		m.OnNewDate()
	})
}

// onOrderEvent 风控镜像回调，记录报单轨迹
func (m *Manager) onOrderEvent(ev *event.Event) {
	o, ok := ev.Get("order").(*order.Order)
	if !ok {
		return
	}
	logger.Debug("🛡️ 风控观察报单: %s %s", o.Symbol, o.OrderID)
}

// OnNewDate 换日清零当日计数
func (m *Manager) OnNewDate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyOrders = make(map[string]int)
}

// CheckOrder 报单校验，不通过返回具体原因
func (m *Manager) CheckOrder(o *order.Order) (bool, string) {
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	if !cfg.Enabled {
		return true, ""
	}

	if cfg.IsBanned(o.Symbol) {
		o.RiskID = "banned_symbol"
		return false, fmt.Sprintf("%s：%s 在禁止交易名单中", order.ReasonRiskControl, o.Symbol)
	}

	if cfg.MaxOrderVolume > 0 && o.Quantity > cfg.MaxOrderVolume {
		o.RiskID = "max_order_volume"
		return false, fmt.Sprintf("%s：单笔数量 %d 超出上限 %d",
			order.ReasonRiskControl, o.Quantity, cfg.MaxOrderVolume)
	}

	m.mu.Lock()
	count := m.dailyOrders[o.AccountID] + 1
	m.dailyOrders[o.AccountID] = count
	m.mu.Unlock()
	if cfg.MaxDailyOrders > 0 && count > cfg.MaxDailyOrders {
		o.RiskID = "max_daily_orders"
		return false, fmt.Sprintf("%s：当日报单 %d 次超出上限 %d",
			order.ReasonRiskControl, count, cfg.MaxDailyOrders)
	}

	if cfg.MaxPositionRatio > 0 {
		if reason := m.checkPositionRatio(o, cfg.MaxPositionRatio); reason != "" {
			o.RiskID = "max_position_ratio"
			return false, reason
		}
	}

	return true, ""
}

// checkPositionRatio 买入后单合约市值占比校验（股票）
func (m *Manager) checkPositionRatio(o *order.Order, maxRatio float64) string {
	if o.Class != instrument.ClassStock || o.Side != order.SideBuy || m.results == nil {
		return ""
	}
	acct := m.results.StockAccounts[o.AccountID]
	if acct == nil {
		return ""
	}
	total := acct.TotalProfit()
	if total <= 0 {
		return ""
	}

	var held float64
	if p, ok := acct.Positions[o.Symbol]; ok {
		held = p.MarketValue()
	}
	ratio := (held + o.Price*float64(o.Quantity)) / total
	if ratio > maxRatio {
		return fmt.Sprintf("%s：%s 买入后市值占比 %.2f%% 超出上限 %.2f%%",
			order.ReasonRiskControl, o.Symbol, ratio*100, maxRatio*100)
	}
	return ""
}
