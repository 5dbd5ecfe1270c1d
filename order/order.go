package order

import (
	"fmt"
	"sync/atomic"
)

// 买卖方向
const (
	SideBuy  = 0 // 买入（基金为申购）
	SideSell = 1 // 卖出（基金为赎回）
)

// 开平标志（期货）
const (
	Open  = 0 // 开仓
	Close = 1 // 平仓
)

// 报单价格类型
const (
	PriceTypeMarket = 1 // 市价
	PriceTypeLimit  = 2 // 限价
)

// 报单状态
const (
	StatusWait                 = 0  // 待报
	StatusActive               = 1  // 已报
	StatusFilled               = 2  // 全部成交
	StatusCancelled            = 3  // 已撤销
	StatusPartTradedQueueing   = 4  // 部分成交还在队列中
	StatusPartTradedNotQueue   = 5  // 部分成交不在队列中
	StatusNoTradeQueueing      = 6  // 未成交还在队列中
	StatusNoTradeNotQueue      = 7  // 未成交不在队列中
	StatusRejected             = -1 // 拒单
)

// Order 报单
type Order struct {
	OrderID   string `json:"order_id"`
	ClientID  string `json:"client_id"`  // 柜台报单引用（实盘）
	AccountID string `json:"account_id"` // 资金账号
	Symbol    string `json:"symbol"`     // 合约代码（引擎后缀）
	Class     int    `json:"class"`      // 资产类别

	Side      int     `json:"side"`       // 买卖方向
	Effect    int     `json:"effect"`     // 开平（期货）
	PriceType int     `json:"price_type"` // 市价/限价
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"` // 股票为股、期货为手
	Filled    int     `json:"filled"`   // 已成交数量

	Status  int    `json:"status"`
	Message string `json:"message"` // 状态说明（撤单/拒单原因）

	Date      string `json:"date"`       // 下单自然日 yyyyMMdd
	TradeDate string `json:"trade_date"` // 下单交易日
	Hms       string `json:"hms"`        // 下单时刻 HHmmss

	// 期货
	IsTdClose  bool    `json:"is_td_close"`  // 是否平今
	CloseTdPos int     `json:"close_td_pos"` // 平今数量
	Margin     float64 `json:"margin"`       // 冻结保证金

	// 基金
	Amount       float64 `json:"amount"`         // 申购金额
	Shares       float64 `json:"shares"`         // 赎回份额
	CrossDate    string  `json:"cross_date"`     // 确认日
	ArriveDate   string  `json:"arrive_date"`    // 赎回资金到账日
	FundCoverOld int     `json:"fund_cover_old"` // 下单时是否撤同向旧单
	LatencyDate  int     `json:"latency_date"`   // 到账延迟天数

	Cost    float64 `json:"cost"`      // 交易费用
	RiskID  string  `json:"risk_id"`   // 触发的风控项
	Remark  string  `json:"remark"`    // 策略备注
	RetryNum int    `json:"retry_num"` // 实盘重试次数
}

// Unfilled 未成交数量
func (o *Order) Unfilled() int {
	return o.Quantity - o.Filled
}

// IsFinished 报单是否已终结
func (o *Order) IsFinished() bool {
	switch o.Status {
	case StatusFilled, StatusCancelled, StatusPartTradedNotQueue,
		StatusNoTradeNotQueue, StatusRejected:
		return true
	}
	return false
}

// SideName 方向中文名
func (o *Order) SideName() string {
	if o.Class == 2 {
		if o.Side == SideBuy {
			return "申购"
		}
		return "赎回"
	}
	if o.Side == SideBuy {
		return "买入"
	}
	return "卖出"
}

// EffectName 开平中文名
func (o *Order) EffectName() string {
	if o.Effect == Open {
		return "开仓"
	}
	if o.IsTdClose {
		return "平今"
	}
	return "平仓"
}

// PriceTypeName 价格类型中文名
func (o *Order) PriceTypeName() string {
	if o.PriceType == PriceTypeMarket {
		return "市价单"
	}
	return "限价单"
}

// Trade 成交
type Trade struct {
	TradeID   string `json:"trade_id"`
	OrderID   string `json:"order_id"`
	ClientID  string `json:"client_id"`
	AccountID string `json:"account_id"`
	Symbol    string `json:"symbol"`
	Class     int    `json:"class"`

	Side   int     `json:"side"`
	Effect int     `json:"effect"`
	Price  float64 `json:"price"`
	Volume int     `json:"volume"`

	Cost   float64 `json:"cost"`   // 手续费（含税）
	Margin float64 `json:"margin"` // 占用保证金（期货开仓）

	TradeDate string `json:"trade_date"`
	Date      string `json:"date"`
	Hms       string `json:"hms"`

	IsTdClose  bool `json:"is_td_close"`
	CloseTdPos int  `json:"close_td_pos"`

	// 基金
	Amount  float64 `json:"amount"`   // 确认金额
	Shares  float64 `json:"shares"`   // 确认份额
	UnitNav float64 `json:"unit_nav"` // 确认净值
}

var orderSeq int64

// NextID 生成进程内唯一报单号
func NextID(date string) string {
	n := atomic.AddInt64(&orderSeq, 1)
	return fmt.Sprintf("%s%08d", date, n)
}
