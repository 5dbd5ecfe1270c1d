package live

import (
	"context"

	"pandaquant/order"
)

// TradeAdapter 实盘柜台适配契约
//
// 柜台合约代码与引擎代码的互转用 instrument.ToBrokerCode /
// FromBrokerCode。报单回报与成交回报由适配实现通过 Bridge 推回
// 事件总线，查询接口由 QueryLoop 周期驱动。
type TradeAdapter interface {
	// Connect 建立柜台连接
	Connect(ctx context.Context) error
	// Auth 结算确认与鉴权
	Auth(ctx context.Context) error
	// IsConnected 连接是否可用
	IsConnected() bool

	// InsertOrder 报单，返回柜台报单引用
	InsertOrder(ctx context.Context, o *order.Order) (string, error)
	// CancelOrder 按柜台报单引用撤单
	CancelOrder(ctx context.Context, clientID string) error

	// QueryAccount 查询资金账户
	QueryAccount(ctx context.Context) error
	// QueryPositions 查询持仓
	QueryPositions(ctx context.Context) error
	// QueryOrders 查询在途报单
	QueryOrders(ctx context.Context) error

	// Close 断开连接
	Close() error
}
