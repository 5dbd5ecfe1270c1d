package event

import "time"

// EventName 事件主题
type EventName string

const (
	// 策略回调主题
	StrategyInit             EventName = "strategy_init"               // 策略初始化
	StrategyDayBeforeTrading EventName = "strategy_day_before_trading" // 盘前处理
	StrategyStockQuotation   EventName = "strategy_stock_quotation"    // 股票行情变化
	StrategyFutureQuotation  EventName = "strategy_future_quotation"   // 期货行情变化
	StrategyQuotationStart   EventName = "strategy_quotation_start"    // 行情启动
	StrategyQuotationEnd     EventName = "strategy_quotation_end"      // 行情结束
	StrategyHandleData       EventName = "strategy_handle_data"        // K线处理
	StrategyTradeError       EventName = "strategy_trade_error"        // 策略运行异常

	// 股票交易回调
	StrategyStockOrderCancel EventName = "strategy_stock_order_cancel"
	StrategyStockOrder       EventName = "strategy_stock_order"
	StrategyStockTrade       EventName = "strategy_stock_trade"

	// 期货交易回调
	StrategyFutureOrderCancel EventName = "strategy_future_order_cancel"
	StrategyFutureOrder       EventName = "strategy_future_order"
	StrategyFutureTrade       EventName = "strategy_future_trade"

	// 基金交易回调
	StrategyFundOrderCancel EventName = "strategy_fund_order_cancel"
	StrategyFundOrder       EventName = "strategy_fund_order"
	StrategyFundTrade       EventName = "strategy_fund_trade"

	// 风控回调（与策略回调镜像，供风控模块抢先处理）
	RiskControlInit              EventName = "risk_control_init"
	RiskControlDayBeforeTrading  EventName = "risk_control_day_before_trading"
	RiskControlHandleData        EventName = "risk_control_handle_data"
	RiskControlStockOrderCancel  EventName = "risk_control_stock_order_cancel"
	RiskControlStockOrder        EventName = "risk_control_stock_order"
	RiskControlStockTrade        EventName = "risk_control_stock_trade"
	RiskControlFutureOrderCancel EventName = "risk_control_future_order_cancel"
	RiskControlFutureOrder       EventName = "risk_control_future_order"
	RiskControlFutureTrade       EventName = "risk_control_future_trade"

	// 系统调度主题
	SystemNewDate            EventName = "system_new_date"             // 交易日开始
	SystemDayStart           EventName = "system_day_start"            // 盘前
	SystemHandleBar          EventName = "system_handle_bar"           // K线驱动
	SystemHandleBarQuotation EventName = "system_handle_bar_quotation" // 行情K线驱动（实盘）
	SystemEndDate            EventName = "system_end_date"             // 交易日结束
	SystemNightEnd           EventName = "system_night_end"            // 夜盘结束
	SystemCalculateResult    EventName = "system_calculate_result"     // 绩效计算
	SystemRestoreStrategy    EventName = "system_restore_strategy"     // 重启恢复
	SystemWxNotify           EventName = "system_wx_notify"            // 微信通知

	// 股票撮合链路
	SystemStockQuotationChange EventName = "system_stock_quotation_change"
	SystemStockOrderCross      EventName = "system_stock_order_cross"
	SystemStockRtnOrder        EventName = "system_stock_rtn_order"
	SystemStockRtnTrade        EventName = "system_stock_rtn_trade"

	// 期货撮合链路
	SystemFutureQuotationChange EventName = "system_future_quotation_change"
	SystemFutureOrderCross      EventName = "system_future_order_cross"
	SystemFutureRtnOrder        EventName = "system_future_rtn_order"
	SystemFutureRtnTrade        EventName = "system_future_rtn_trade"

	// 基金撮合链路
	SystemFundQuotationChange EventName = "system_fund_quotation_change"
	SystemFundOrderCross      EventName = "system_fund_order_cross"
	SystemFundRtnOrder        EventName = "system_fund_rtn_order"
	SystemFundRtnTrade        EventName = "system_fund_rtn_trade"
)

// Event 事件结构
//
// 业务载荷放在 Data 中，常用键：
//   "order"    报单对象
//   "trade"    成交对象
//   "symbol"   合约代码
//   "hms"      时分秒（"093000" 格式）
//   "date"     自然日（"20060102" 格式）
//   "message"  附加消息
type Event struct {
	Name      EventName
	Timestamp time.Time
	Data      map[string]interface{}
}

// New 创建事件，kv 为键值对序列
func New(name EventName, kv ...interface{}) *Event {
	ev := &Event{
		Name:      name,
		Timestamp: time.Now(),
		Data:      make(map[string]interface{}, len(kv)/2),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev.Data[key] = kv[i+1]
	}
	return ev
}

// String 获取字符串载荷，缺失返回空串
func (e *Event) String(key string) string {
	if v, ok := e.Data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Get 获取任意载荷
func (e *Event) Get(key string) interface{} {
	return e.Data[key]
}
